package cli

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/runnerr0/tubestats/internal/storage"
)

// Execute implements the go-flags Commander interface for SearchCommand.
func (c *SearchCommand) Execute(args []string) error {
	e, err := setup(c.globals)
	if err != nil {
		return err
	}
	return c.executeWithEnv(context.Background(), e, time.Now())
}

// executeWithEnv runs the search with a prepared config and logger. now
// anchors --since and --until (for testing).
func (c *SearchCommand) executeWithEnv(ctx context.Context, e *env, now time.Time) error {
	query := strings.Join(c.Args.Query, " ")

	var since time.Time
	if c.Since != "" {
		dur, err := parseDuration(c.Since)
		if err != nil {
			return fmt.Errorf("invalid --since value %q: %w", c.Since, err)
		}
		since = now.Add(-dur)
	}

	var until time.Time
	if c.Until != "" {
		dur, err := parseDuration(c.Until)
		if err != nil {
			return fmt.Errorf("invalid --until value %q: %w", c.Until, err)
		}
		until = now.Add(-dur)
	}

	loc, err := e.location(c.TZ)
	if err != nil {
		return err
	}

	_, store, db, err := e.loadArchive(ctx, c.Args.Archive, c.TZ)
	if err != nil {
		return err
	}
	defer db.Close()
	defer store.Close()

	results, err := store.SearchEvents(ctx, storage.SearchQuery{
		Query:   query,
		Channel: c.Channel,
		Since:   since,
		Until:   until,
		Limit:   c.Limit,
		Offset:  c.Offset,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if e.json {
		return c.printJSON(query, results)
	}
	c.printHuman(query, results, loc)
	return nil
}

func (c *SearchCommand) describe(query string) string {
	var parts []string
	if query != "" {
		parts = append(parts, fmt.Sprintf("for %q", query))
	}
	if c.Channel != "" {
		parts = append(parts, fmt.Sprintf("from %s", c.Channel))
	}
	if c.Since != "" {
		parts = append(parts, fmt.Sprintf("(since %s)", c.Since))
	}
	if len(parts) == 0 {
		return ""
	}
	return " " + strings.Join(parts, " ")
}

func (c *SearchCommand) printHuman(query string, results []storage.Event, loc *time.Location) {
	if len(results) == 0 {
		fmt.Printf("No results found%s\n", c.describe(query))
		return
	}

	resultWord := "results"
	if len(results) == 1 {
		resultWord = "result"
	}
	fmt.Printf("Found %d %s%s\n\n", len(results), resultWord, c.describe(query))

	for i, e := range results {
		fmt.Printf("%d. %s · %s\n", i+1+c.Offset, e.VideoTitle, e.ChannelName)
		if e.VideoURL != "" {
			fmt.Printf("   %s\n", e.VideoURL)
		}
		fmt.Printf("   %s\n", e.Timestamp.In(loc).Format("2006-01-02 15:04"))

		if i < len(results)-1 {
			fmt.Println()
		}
	}
}

type jsonResult struct {
	ID          int64  `json:"id"`
	VideoTitle  string `json:"video_title"`
	VideoURL    string `json:"video_url"`
	ChannelName string `json:"channel_name"`
	ChannelURL  string `json:"channel_url"`
	Timestamp   string `json:"timestamp"`
}

type jsonSearchOutput struct {
	Count   int          `json:"count"`
	Query   string       `json:"query"`
	Results []jsonResult `json:"results"`
}

func (c *SearchCommand) printJSON(query string, results []storage.Event) error {
	out := jsonSearchOutput{
		Count:   len(results),
		Query:   query,
		Results: make([]jsonResult, len(results)),
	}

	for i, e := range results {
		out.Results[i] = jsonResult{
			ID:          e.ID,
			VideoTitle:  e.VideoTitle,
			VideoURL:    e.VideoURL,
			ChannelName: e.ChannelName,
			ChannelURL:  e.ChannelURL,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
		}
	}

	return writeJSON(out)
}
