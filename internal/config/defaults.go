package config

import "github.com/runnerr0/tubestats/internal/history"

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() *Config {
	layout := history.DefaultLayout()

	return &Config{
		Export: ExportConfig{
			HistorySuffix:       "history/watch-history.html",
			SubscriptionsSuffix: "subscriptions/subscriptions.csv",
		},
		Parser: ParserConfig{
			CellSelector:     layout.CellSelector,
			ActionPrefix:     layout.ActionPrefix,
			ChannelNamespace: layout.ChannelNamespace,
			VideoLink:        layout.VideoLink,
			ChannelLink:      layout.ChannelLink,
			DateSegment:      layout.DateSegment,
		},
		Analysis: AnalysisConfig{
			Timezone: "Local",
			TopN:     10,
		},
		Charts: ChartsConfig{
			Dir:    "",
			Width:  1024,
			Height: 512,
		},
		Storage: StorageConfig{
			Path:              "~/.config/tubestats",
			SQLiteFile:        "tubestats.db",
			SQLiteJournalMode: "wal",
		},
		Logging: LoggingConfig{
			Level:      "info",
			File:       "",
			MaxSize:    10,
			MaxBackups: 3,
		},
	}
}
