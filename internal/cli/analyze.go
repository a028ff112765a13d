package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/runnerr0/tubestats/internal/config"
	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/pipeline"
	"github.com/runnerr0/tubestats/internal/render"
	"github.com/runnerr0/tubestats/internal/stats"
	"github.com/runnerr0/tubestats/internal/storage"
)

// analyzeJSON is the JSON output structure for the analyze command.
type analyzeJSON struct {
	Version  string        `json:"version"`
	Archive  string        `json:"archive"`
	Report   *stats.Report `json:"report"`
	Parse    parseJSON     `json:"parse"`
	Charts   []string      `json:"charts"`
	Database string        `json:"database,omitempty"`
}

type parseJSON struct {
	Candidates int                    `json:"candidates"`
	Parsed     int                    `json:"parsed"`
	Skipped    map[history.Reason]int `json:"skipped"`
}

// Execute implements the go-flags Commander interface for AnalyzeCommand.
func (c *AnalyzeCommand) Execute(args []string) error {
	e, err := setup(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEnv(context.Background(), e)
}

// executeWithEnv runs the analysis with a prepared config and logger (for testing).
func (c *AnalyzeCommand) executeWithEnv(ctx context.Context, e *env) error {
	opts, err := e.pipelineOptions(c.TZ, c.Top)
	if err != nil {
		return err
	}

	res, err := pipeline.AnalyzeFile(c.Args.Archive, opts)
	if err != nil {
		return err
	}

	charts, err := c.renderCharts(e, res.Report)
	if err != nil {
		return err
	}

	var dbPath string
	if c.DB != "" {
		if dbPath, err = c.exportDataset(ctx, e, res); err != nil {
			return err
		}
	}

	if e.json {
		return c.printJSON(res, charts, dbPath)
	}
	c.printHuman(res, charts, dbPath)
	return nil
}

// renderCharts writes the PNG dashboard when a chart directory is set.
func (c *AnalyzeCommand) renderCharts(e *env, r *stats.Report) ([]string, error) {
	dir := c.Charts
	if dir == "" {
		dir = e.cfg.Charts.Dir
	}
	if dir == "" {
		return []string{}, nil
	}
	dir, err := config.ExpandPath(dir)
	if err != nil {
		return nil, err
	}

	sink, err := render.NewPNGSink(dir, e.cfg.Charts.Width, e.cfg.Charts.Height)
	if err != nil {
		return nil, err
	}
	if err := render.Present(sink, r); err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	e.log.Info().Str("dir", dir).Int("charts", len(sink.Written())).Msg("charts written")
	return sink.Written(), nil
}

// exportDataset replaces the contents of the --db file with this pass.
func (c *AnalyzeCommand) exportDataset(ctx context.Context, e *env, res *pipeline.Result) (string, error) {
	path, err := config.ExpandPath(c.DB)
	if err != nil {
		return "", err
	}

	store, db, err := e.openStore(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	defer store.Close()

	ds := storage.Dataset{Source: c.Args.Archive, Events: res.Events, Subscriptions: res.Subscriptions}
	if err := store.ReplaceDataset(ctx, ds); err != nil {
		return "", fmt.Errorf("export dataset: %w", err)
	}
	e.log.Info().Str("path", path).Int("events", len(res.Events)).Msg("dataset exported")
	return path, nil
}

func (c *AnalyzeCommand) printHuman(res *pipeline.Result, charts []string, dbPath string) {
	r := res.Report

	fmt.Println("Watch History Summary")
	fmt.Println("=====================")
	fmt.Printf("Archive:          %s\n", c.Args.Archive)
	fmt.Printf("Time zone:        %s\n", r.Timezone)
	fmt.Printf("Videos watched:   %s\n", formatNumber(r.TotalVideos))
	fmt.Printf("Subscriptions:    %s\n", formatNumber(r.TotalSubscriptions))
	fmt.Printf("Unique channels:  %s\n", formatNumber(r.UniqueChannels))
	fmt.Printf("Most active day:  %s\n", r.MostActiveDay)
	if skipped := res.ParseStats.SkippedTotal(); skipped > 0 {
		fmt.Printf("Skipped blocks:   %s\n", formatNumber(skipped))
	}

	if len(r.TopChannels) > 0 {
		fmt.Println()
		fmt.Println("Top Channels:")
		for i, cc := range r.TopChannels {
			fmt.Printf("  %2d. %-32s %s\n", i+1, cc.Channel, formatNumber(cc.Count))
		}
	}

	fmt.Println()
	fmt.Println("By Weekday:")
	for _, d := range r.Weekdays() {
		fmt.Printf("  %-10s %s\n", d.Day, formatNumber(d.Count))
	}

	fmt.Println()
	fmt.Println("By Hour:")
	peak := 0
	for _, n := range r.HourOfDayCounts {
		if n > peak {
			peak = n
		}
	}
	for h, label := range stats.HourLabels() {
		n := r.HourOfDayCounts[h]
		fmt.Printf("  %5s %7s %s\n", label, formatNumber(n), bar(n, peak, 30))
	}

	if len(r.MonthlySeries) > 0 {
		fmt.Println()
		fmt.Println("By Month:")
		for _, m := range r.MonthlySeries {
			fmt.Printf("  %s %7s\n", m.Label, formatNumber(m.Count))
		}
	}

	if len(charts) > 0 {
		fmt.Println()
		fmt.Println("Charts:")
		for _, path := range charts {
			fmt.Printf("  %s\n", path)
		}
	}
	if dbPath != "" {
		fmt.Println()
		fmt.Printf("Dataset:          %s\n", dbPath)
	}
}

// bar scales n against peak to at most width characters.
func bar(n, peak, width int) string {
	if peak == 0 || n == 0 {
		return ""
	}
	w := n * width / peak
	if w == 0 {
		w = 1
	}
	return strings.Repeat("#", w)
}

func (c *AnalyzeCommand) printJSON(res *pipeline.Result, charts []string, dbPath string) error {
	skipped := res.ParseStats.Skipped
	if skipped == nil {
		skipped = map[history.Reason]int{}
	}
	return writeJSON(analyzeJSON{
		Version: c.version,
		Archive: c.Args.Archive,
		Report:  res.Report,
		Parse: parseJSON{
			Candidates: res.ParseStats.Candidates,
			Parsed:     res.ParseStats.Parsed,
			Skipped:    skipped,
		},
		Charts:   charts,
		Database: dbPath,
	})
}
