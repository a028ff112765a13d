package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/runnerr0/tubestats/internal/history"
)

// Default config file path.
const DefaultConfigPath = "~/.config/tubestats/config.yaml"

// Config holds all tubestats configuration.
type Config struct {
	Export   ExportConfig   `yaml:"export"`
	Parser   ParserConfig   `yaml:"parser"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Charts   ChartsConfig   `yaml:"charts"`
	Storage  StorageConfig  `yaml:"storage"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// ExportConfig names the archive entries to read, matched by path suffix.
type ExportConfig struct {
	HistorySuffix       string `yaml:"history_suffix"`
	SubscriptionsSuffix string `yaml:"subscriptions_suffix"`
}

// ParserConfig overrides the watch-history layout for exports in other
// languages or older formats.
type ParserConfig struct {
	CellSelector     string `yaml:"cell_selector"`
	ActionPrefix     string `yaml:"action_prefix"`
	ChannelNamespace string `yaml:"channel_namespace"`
	VideoLink        int    `yaml:"video_link"`
	ChannelLink      int    `yaml:"channel_link"`
	DateSegment      int    `yaml:"date_segment"`
}

type AnalysisConfig struct {
	Timezone string `yaml:"timezone"`
	TopN     int    `yaml:"top_n"`
}

type ChartsConfig struct {
	Dir    string `yaml:"dir"`
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
}

type StorageConfig struct {
	Path              string `yaml:"path"`
	SQLiteFile        string `yaml:"sqlite_file"`
	SQLiteJournalMode string `yaml:"sqlite_journal_mode"`
}

type LoggingConfig struct {
	Level      string `yaml:"level"`
	File       string `yaml:"file"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
}

// Layout converts the parser section into a history.Layout.
func (p ParserConfig) Layout() history.Layout {
	return history.Layout{
		CellSelector:     p.CellSelector,
		ActionPrefix:     p.ActionPrefix,
		ChannelNamespace: p.ChannelNamespace,
		VideoLink:        p.VideoLink,
		ChannelLink:      p.ChannelLink,
		DateSegment:      p.DateSegment,
	}
}

// Location resolves the configured time zone. "Local" and "" mean the
// viewer's local zone.
func (a AnalysisConfig) Location() (*time.Location, error) {
	if a.Timezone == "" || a.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", a.Timezone, err)
	}
	return loc, nil
}

// Load reads a YAML config file at path and merges it with defaults.
// Returns an error if the file cannot be read or contains invalid YAML.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	if cfg.Analysis.TopN <= 0 {
		cfg.Analysis.TopN = DefaultConfig().Analysis.TopN
	}

	if err := cfg.Parser.Layout().Validate(); err != nil {
		return nil, fmt.Errorf("parser section: %w", err)
	}

	return cfg, nil
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if len(path) > 0 && path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}

// LoadOrCreate loads the config from the default path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreate() (*Config, error) {
	path, err := ExpandPath(DefaultConfigPath)
	if err != nil {
		return nil, err
	}
	return LoadOrCreateAt(path)
}

// LoadOrCreateAt loads the config from the given path. If the file does
// not exist, it creates the directory structure and writes defaults.
func LoadOrCreateAt(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := DefaultConfig()

		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating config directory: %w", err)
		}

		data, err := yaml.Marshal(cfg)
		if err != nil {
			return nil, fmt.Errorf("marshaling default config: %w", err)
		}

		if err := os.WriteFile(path, data, 0644); err != nil {
			return nil, fmt.Errorf("writing default config: %w", err)
		}

		return cfg, nil
	}

	return Load(path)
}
