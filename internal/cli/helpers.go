package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/runnerr0/tubestats/internal/config"
	"github.com/runnerr0/tubestats/internal/logging"
	"github.com/runnerr0/tubestats/internal/pipeline"
	"github.com/runnerr0/tubestats/internal/storage"
)

// env is what every command needs besides its own flags.
type env struct {
	cfg  *config.Config
	log  zerolog.Logger
	json bool
}

// setup loads the config named by --config (or the default one, created on
// first use) and builds the logger.
func setup(g *GlobalFlags) (*env, error) {
	if g == nil {
		g = &GlobalFlags{}
	}

	var cfg *config.Config
	var err error
	if g.Config != "" {
		path, perr := config.ExpandPath(g.Config)
		if perr != nil {
			return nil, perr
		}
		cfg, err = config.Load(path)
	} else {
		cfg, err = config.LoadOrCreate()
	}
	if err != nil {
		return nil, err
	}

	logFile, err := config.ExpandPath(cfg.Logging.File)
	if err != nil {
		return nil, err
	}

	log := logging.New(logging.Options{
		Level:      cfg.Logging.Level,
		File:       logFile,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxBackups: cfg.Logging.MaxBackups,
		Verbose:    g.Verbose,
	})

	return &env{cfg: cfg, log: log, json: g.JSON}, nil
}

// location resolves --tz, falling back to the configured zone.
func (e *env) location(tz string) (*time.Location, error) {
	a := e.cfg.Analysis
	if tz != "" {
		a.Timezone = tz
	}
	return a.Location()
}

// pipelineOptions maps config plus per-command overrides onto a pass.
func (e *env) pipelineOptions(tz string, top int) (pipeline.Options, error) {
	loc, err := e.location(tz)
	if err != nil {
		return pipeline.Options{}, err
	}
	if top <= 0 {
		top = e.cfg.Analysis.TopN
	}
	layout := e.cfg.Parser.Layout()

	return pipeline.Options{
		HistorySuffix:       e.cfg.Export.HistorySuffix,
		SubscriptionsSuffix: e.cfg.Export.SubscriptionsSuffix,
		Layout:              &layout,
		Location:            loc,
		TopN:                top,
		Logger:              e.log,
	}, nil
}

// datasetPath is the dataset file from --db or the configured default.
func (e *env) datasetPath(flag string) (string, error) {
	if flag != "" {
		return config.ExpandPath(flag)
	}
	dir, err := config.ExpandPath(e.cfg.Storage.Path)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, e.cfg.Storage.SQLiteFile), nil
}

// openStore opens a migrated store. An empty path gives a private in-memory
// database that disappears with the process.
func (e *env) openStore(path string) (*storage.SQLiteStore, *sql.DB, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, nil, fmt.Errorf("create database directory: %w", err)
		}
		dsn = path + "?_foreign_keys=on"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open database: %w", err)
	}
	if path == "" {
		// Each pooled connection would otherwise see its own empty database.
		db.SetMaxOpenConns(1)
	}

	runner := storage.NewMigrationRunner(db).WithJournalMode(e.cfg.Storage.SQLiteJournalMode)
	if err := runner.Run(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("run migrations: %w", err)
	}

	store, err := storage.NewSQLiteStore(db)
	if err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("create store: %w", err)
	}

	return store, db, nil
}

// loadArchive runs one pass over archivePath and loads the result into a
// fresh in-memory store.
func (e *env) loadArchive(ctx context.Context, archivePath, tz string) (*pipeline.Result, *storage.SQLiteStore, *sql.DB, error) {
	opts, err := e.pipelineOptions(tz, 0)
	if err != nil {
		return nil, nil, nil, err
	}
	res, err := pipeline.AnalyzeFile(archivePath, opts)
	if err != nil {
		return nil, nil, nil, err
	}

	store, db, err := e.openStore("")
	if err != nil {
		return nil, nil, nil, err
	}
	ds := storage.Dataset{Source: archivePath, Events: res.Events, Subscriptions: res.Subscriptions}
	if err := store.ReplaceDataset(ctx, ds); err != nil {
		store.Close()
		db.Close()
		return nil, nil, nil, fmt.Errorf("load dataset: %w", err)
	}
	return res, store, db, nil
}

// parseDuration parses a human-friendly duration string like "30d", "7d", "24h", "2w".
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("invalid duration: empty string")
	}

	if len(s) < 2 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	suffix := s[len(s)-1]
	numStr := s[:len(s)-1]

	n, err := strconv.Atoi(numStr)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid duration: %q", s)
	}

	switch suffix {
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'w':
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	case 'm':
		return time.Duration(n) * time.Minute, nil
	default:
		return 0, fmt.Errorf("invalid duration: %q (use d, h, w, or m suffix)", s)
	}
}

// printer groups digits in human output.
var printer = message.NewPrinter(language.English)

// formatNumber formats n with thousands separators.
func formatNumber[T ~int | ~int64](n T) string {
	return printer.Sprintf("%d", n)
}

// formatBytes formats a byte count into a human-readable string.
func formatBytes(b int64) string {
	switch {
	case b >= 1<<30:
		return fmt.Sprintf("%.1f GB", float64(b)/float64(1<<30))
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/float64(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/float64(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}

func writeJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
