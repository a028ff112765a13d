// Package pipeline runs one analysis pass over a Takeout archive:
// archive -> history parser / subscriptions decoder -> aggregator.
package pipeline

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/runnerr0/tubestats/internal/archive"
	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/stats"
	"github.com/runnerr0/tubestats/internal/tabular"
)

// Entry suffixes inside a YouTube Takeout archive.
const (
	DefaultHistorySuffix       = "history/watch-history.html"
	DefaultSubscriptionsSuffix = "subscriptions/subscriptions.csv"
)

var (
	// ErrNotZip is returned for files that do not carry a .zip extension.
	ErrNotZip = errors.New("please upload a valid .zip file")
	// ErrHistoryMissing means the archive has no watch-history entry.
	ErrHistoryMissing = errors.New("could not find watch-history.html in the archive")
	// ErrNoEvents means the history entry was present but yielded nothing.
	ErrNoEvents = errors.New("no watch history found: the HTML file might be empty or in an unrecognized format")
)

// Options configure a pass. Zero values fall back to the Takeout defaults.
type Options struct {
	HistorySuffix       string
	SubscriptionsSuffix string
	Layout              *history.Layout
	Location            *time.Location
	TopN                int
	Logger              zerolog.Logger
}

func (o Options) withDefaults() Options {
	if o.HistorySuffix == "" {
		o.HistorySuffix = DefaultHistorySuffix
	}
	if o.SubscriptionsSuffix == "" {
		o.SubscriptionsSuffix = DefaultSubscriptionsSuffix
	}
	if o.Layout == nil {
		l := history.DefaultLayout()
		o.Layout = &l
	}
	if o.Location == nil {
		o.Location = time.UTC
	}
	return o
}

// Result is everything one pass produces.
type Result struct {
	Events        []history.WatchEvent
	Subscriptions []tabular.Record
	Report        *stats.Report
	ParseStats    history.Stats
}

// AnalyzeFile reads the archive at path and analyzes it.
func AnalyzeFile(path string, opts Options) (*Result, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return nil, ErrNotZip
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading archive: %w", err)
	}
	return Analyze(data, opts)
}

// Analyze opens data as a ZIP archive and analyzes it.
func Analyze(data []byte, opts Options) (*Result, error) {
	a, err := archive.Open(data)
	if err != nil {
		return nil, fmt.Errorf("reading zip file: %w", err)
	}
	return Run(a, opts)
}

// Run performs the pass against an already opened archive. Only a missing
// history entry and an empty parse result are fatal; a missing or broken
// subscriptions file degrades to no subscriptions.
func Run(a archive.Accessor, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	log := opts.Logger

	markup, found, err := a.ReadText(opts.HistorySuffix)
	if err != nil {
		return nil, fmt.Errorf("reading watch history: %w", err)
	}
	if !found {
		entries := a.Entries()
		log.Debug().Strs("entries", entries).Str("suffix", opts.HistorySuffix).Msg("history entry not found")
		return nil, fmt.Errorf("%w (%d entries searched for %q)", ErrHistoryMissing, len(entries), opts.HistorySuffix)
	}

	log.Info().Int("bytes", len(markup)).Msg("parsing watch history")
	parser := history.NewParser(*opts.Layout, opts.Location, log)
	events, parseStats, err := parser.ParseWithStats(markup)
	if err != nil {
		return nil, err
	}
	log.Info().
		Int("candidates", parseStats.Candidates).
		Int("parsed", parseStats.Parsed).
		Int("skipped", parseStats.SkippedTotal()).
		Msg("watch history parsed")
	if len(events) == 0 {
		return nil, ErrNoEvents
	}

	subs := loadSubscriptions(a, opts.SubscriptionsSuffix, log)

	log.Info().Msg("analyzing data")
	report := stats.Aggregate(events, subs, stats.Options{Location: opts.Location, TopN: opts.TopN})

	return &Result{
		Events:        events,
		Subscriptions: subs,
		Report:        report,
		ParseStats:    parseStats,
	}, nil
}

func loadSubscriptions(a archive.Accessor, suffix string, log zerolog.Logger) []tabular.Record {
	text, found, err := a.ReadText(suffix)
	if err != nil {
		log.Warn().Err(err).Msg("could not read subscriptions, continuing without them")
		return []tabular.Record{}
	}
	if !found {
		log.Info().Str("suffix", suffix).Msg("no subscriptions file in archive")
		return []tabular.Record{}
	}

	subs, err := tabular.Decode(text)
	if err != nil {
		log.Warn().Err(err).Msg("could not decode subscriptions, continuing without them")
		return []tabular.Record{}
	}
	log.Info().Int("count", len(subs)).Msg("subscriptions parsed")
	return subs
}
