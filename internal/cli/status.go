package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/runnerr0/tubestats/internal/stats"
	"github.com/runnerr0/tubestats/internal/storage"
)

// ErrNoDataset means the dataset file has not been written yet.
var ErrNoDataset = errors.New("no dataset file; run analyze --db first")

// statusJSON is the JSON output structure for the status command.
type statusJSON struct {
	Version            string             `json:"version"`
	DatabasePath       string             `json:"database_path"`
	DatabaseSizeBytes  int64              `json:"database_size_bytes"`
	Source             string             `json:"source,omitempty"`
	LoadedAt           string             `json:"loaded_at,omitempty"`
	TotalEvents        int64              `json:"total_events"`
	TotalSubscriptions int64              `json:"total_subscriptions"`
	UniqueChannels     int64              `json:"unique_channels"`
	OldestEvent        string             `json:"oldest_event,omitempty"`
	NewestEvent        string             `json:"newest_event,omitempty"`
	TopChannels        []channelCountJSON `json:"top_channels"`
	Timezone           string             `json:"timezone"`
	MostActiveDay      string             `json:"most_active_day"`
	MonthlySeries      []stats.MonthCount `json:"monthly_series"`
}

type channelCountJSON struct {
	Channel string `json:"channel"`
	Count   int64  `json:"count"`
}

// Execute implements the go-flags Commander interface for StatusCommand.
func (c *StatusCommand) Execute(args []string) error {
	e, err := setup(c.globals)
	if err != nil {
		return err
	}

	dbPath, err := e.datasetPath(c.DB)
	if err != nil {
		return err
	}
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", dbPath, ErrNoDataset)
	}

	store, db, err := e.openStore(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	return c.executeWithStore(e, store, db, dbPath)
}

// executeWithStore runs status against a provided store and db (for testing).
// The stored rows are aggregated again in the configured time zone, so the
// calendar figures follow the current config rather than the one used at
// export time.
func (c *StatusCommand) executeWithStore(e *env, store *storage.SQLiteStore, db *sql.DB, dbPath string) error {
	ctx := context.Background()

	loc, err := e.location("")
	if err != nil {
		return err
	}

	st, err := store.GetStats(ctx)
	if err != nil {
		return fmt.Errorf("get stats: %w", err)
	}

	events, err := store.Events(ctx)
	if err != nil {
		return fmt.Errorf("load events: %w", err)
	}
	subs, err := store.Subscriptions(ctx)
	if err != nil {
		return fmt.Errorf("load subscriptions: %w", err)
	}
	report := stats.Aggregate(events, subs, stats.Options{Location: loc, TopN: e.cfg.Analysis.TopN})

	dbSize := getDatabaseSize(db, dbPath)

	if e.json {
		return c.printStatusJSON(st, report, dbPath, dbSize)
	}
	c.printStatusHuman(st, report, loc, dbPath, dbSize)
	return nil
}

func (c *StatusCommand) printStatusHuman(st *storage.Stats, r *stats.Report, loc *time.Location, dbPath string, dbSize int64) {
	fmt.Println("Dataset Status")
	fmt.Println("==============")
	fmt.Printf("Version:       %s\n", c.version)
	fmt.Printf("Database:      %s (%s)\n", dbPath, formatBytes(dbSize))
	if st.Source != "" {
		fmt.Printf("Source:        %s\n", st.Source)
		fmt.Printf("Loaded:        %s\n", st.LoadedAt.In(loc).Format("2006-01-02 15:04"))
	}
	fmt.Printf("Time zone:     %s\n", r.Timezone)
	fmt.Printf("Events:        %s\n", formatNumber(st.TotalEvents))
	fmt.Printf("Subscriptions: %s\n", formatNumber(st.TotalSubscriptions))
	fmt.Printf("Channels:      %s\n", formatNumber(st.UniqueChannels))

	// Time range
	if st.TotalEvents > 0 {
		fmt.Printf("Oldest:        %s\n", st.OldestEvent.In(loc).Format("2006-01-02"))
		fmt.Printf("Newest:        %s\n", st.NewestEvent.In(loc).Format("2006-01-02"))
		fmt.Printf("Most active:   %s\n", r.MostActiveDay)
	}

	if len(st.TopChannels) > 0 {
		fmt.Println()
		fmt.Println("Top Channels:")
		for _, cc := range st.TopChannels {
			fmt.Printf("  %-32s %s\n", cc.Channel, formatNumber(cc.Count))
		}
	}

	if len(r.MonthlySeries) > 0 {
		fmt.Println()
		fmt.Println("By Month:")
		for _, m := range r.MonthlySeries {
			fmt.Printf("  %s %7s\n", m.Label, formatNumber(m.Count))
		}
	}
}

func (c *StatusCommand) printStatusJSON(st *storage.Stats, r *stats.Report, dbPath string, dbSize int64) error {
	out := statusJSON{
		Version:            c.version,
		DatabasePath:       dbPath,
		DatabaseSizeBytes:  dbSize,
		Source:             st.Source,
		TotalEvents:        st.TotalEvents,
		TotalSubscriptions: st.TotalSubscriptions,
		UniqueChannels:     st.UniqueChannels,
		TopChannels:        make([]channelCountJSON, len(st.TopChannels)),
		Timezone:           r.Timezone,
		MostActiveDay:      r.MostActiveDay,
		MonthlySeries:      r.MonthlySeries,
	}

	if !st.LoadedAt.IsZero() {
		out.LoadedAt = st.LoadedAt.UTC().Format(time.RFC3339)
	}
	if st.TotalEvents > 0 {
		out.OldestEvent = st.OldestEvent.UTC().Format(time.RFC3339)
		out.NewestEvent = st.NewestEvent.UTC().Format(time.RFC3339)
	}

	for i, cc := range st.TopChannels {
		out.TopChannels[i] = channelCountJSON{Channel: cc.Channel, Count: cc.Count}
	}

	return writeJSON(out)
}

// getDatabaseSize returns the database file size in bytes.
// For on-disk databases, it uses os.Stat. For in-memory databases,
// it queries page_count * page_size.
func getDatabaseSize(db *sql.DB, dbPath string) int64 {
	if info, err := os.Stat(dbPath); err == nil {
		return info.Size()
	}

	var pageCount, pageSize int64
	if err := db.QueryRow("PRAGMA page_count").Scan(&pageCount); err != nil {
		return 0
	}
	if err := db.QueryRow("PRAGMA page_size").Scan(&pageSize); err != nil {
		return 0
	}
	return pageCount * pageSize
}
