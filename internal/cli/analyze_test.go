package cli

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runnerr0/tubestats/internal/pipeline"
)

func runAnalyze(t *testing.T, c *AnalyzeCommand, e *env) (string, error) {
	t.Helper()
	var err error
	output := captureOutput(t, func() {
		err = c.executeWithEnv(context.Background(), e)
	})
	return output, err
}

func TestAnalyze_HumanSummary(t *testing.T) {
	c := &AnalyzeCommand{version: "dev"}
	c.Args.Archive = writeArchive(t)

	output, err := runAnalyze(t, c, testEnv(false))
	require.NoError(t, err)

	assert.Contains(t, output, "Watch History Summary")
	assert.Contains(t, output, "Time zone:        UTC")
	assert.Contains(t, output, "Videos watched:   4")
	assert.Contains(t, output, "Subscriptions:    2")
	assert.Contains(t, output, "Unique channels:  3")
	assert.Contains(t, output, "Most active day:  Tuesday")
	assert.Contains(t, output, "Top Channels:")
	assert.Contains(t, output, "Alpha")
	assert.Contains(t, output, "Jan 24")
	assert.Contains(t, output, "Mar 24")
	assert.NotContains(t, output, "Charts:")
	assert.NotContains(t, output, "Skipped blocks")
}

func TestAnalyze_JSON(t *testing.T) {
	c := &AnalyzeCommand{version: "1.0.0"}
	c.Args.Archive = writeArchive(t)

	output, err := runAnalyze(t, c, testEnv(true))
	require.NoError(t, err)

	var out struct {
		Version string `json:"version"`
		Report  struct {
			TotalVideos   int    `json:"total_videos"`
			MostActiveDay string `json:"most_active_day"`
			TopChannels   []struct {
				Channel string `json:"channel"`
				Count   int    `json:"count"`
			} `json:"top_channels"`
			HourOfDayCounts []int `json:"hour_of_day_counts"`
			MonthlySeries   []struct {
				Key   string `json:"key"`
				Count int    `json:"count"`
			} `json:"monthly_series"`
		} `json:"report"`
		Parse struct {
			Parsed int `json:"parsed"`
		} `json:"parse"`
		Charts []string `json:"charts"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &out))

	assert.Equal(t, "1.0.0", out.Version)
	assert.Equal(t, 4, out.Report.TotalVideos)
	assert.Equal(t, 4, out.Parse.Parsed)
	assert.Equal(t, "Tuesday", out.Report.MostActiveDay)
	require.Len(t, out.Report.TopChannels, 3)
	assert.Equal(t, "Alpha", out.Report.TopChannels[0].Channel)
	assert.Equal(t, "Beta", out.Report.TopChannels[1].Channel, "ties keep first-seen order")
	require.Len(t, out.Report.HourOfDayCounts, 24)
	assert.Equal(t, 2, out.Report.HourOfDayCounts[9])
	require.Len(t, out.Report.MonthlySeries, 3)
	assert.Equal(t, "2024-01", out.Report.MonthlySeries[0].Key)
	assert.Equal(t, 2, out.Report.MonthlySeries[2].Count)
	assert.NotNil(t, out.Charts)
	assert.Empty(t, out.Charts)
}

func TestAnalyze_TopOverride(t *testing.T) {
	c := &AnalyzeCommand{Top: 1}
	c.Args.Archive = writeArchive(t)

	output, err := runAnalyze(t, c, testEnv(true))
	require.NoError(t, err)

	var out struct {
		Report struct {
			TopChannels []json.RawMessage `json:"top_channels"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Len(t, out.Report.TopChannels, 1)
}

func TestAnalyze_TimezoneShiftsBuckets(t *testing.T) {
	c := &AnalyzeCommand{TZ: "Asia/Tokyo"}
	c.Args.Archive = writeArchive(t)

	output, err := runAnalyze(t, c, testEnv(true))
	require.NoError(t, err)

	var out struct {
		Report struct {
			Timezone        string `json:"timezone"`
			HourOfDayCounts []int  `json:"hour_of_day_counts"`
		} `json:"report"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &out))
	assert.Equal(t, "Asia/Tokyo", out.Report.Timezone)
	// 09:00 UTC is 18:00 in Tokyo.
	assert.Equal(t, 2, out.Report.HourOfDayCounts[18])
	assert.Equal(t, 0, out.Report.HourOfDayCounts[9])
}

func TestAnalyze_WritesCharts(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "charts")
	c := &AnalyzeCommand{Charts: dir}
	c.Args.Archive = writeArchive(t)

	output, err := runAnalyze(t, c, testEnv(false))
	require.NoError(t, err)

	assert.Contains(t, output, "Charts:")
	for _, name := range []string{"top-channels", "hourly-activity", "monthly-history", "weekdays"} {
		assert.FileExists(t, filepath.Join(dir, name+".png"))
	}
}

func TestAnalyze_ExportsDataset(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "data", "tubestats.db")
	c := &AnalyzeCommand{DB: dbPath}
	c.Args.Archive = writeArchive(t)
	e := testEnv(false)

	output, err := runAnalyze(t, c, e)
	require.NoError(t, err)
	assert.Contains(t, output, "Dataset:")

	// A second pass replaces rather than appends.
	_, err = runAnalyze(t, c, e)
	require.NoError(t, err)

	store, db, err := e.openStore(dbPath)
	require.NoError(t, err)
	defer db.Close()
	defer store.Close()

	st, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(4), st.TotalEvents)
	assert.Equal(t, int64(2), st.TotalSubscriptions)
	assert.Equal(t, c.Args.Archive, st.Source)
}

func TestAnalyze_NotZip(t *testing.T) {
	c := &AnalyzeCommand{}
	c.Args.Archive = filepath.Join(t.TempDir(), "watch-history.html")

	_, err := runAnalyze(t, c, testEnv(false))
	assert.ErrorIs(t, err, pipeline.ErrNotZip)
}

func TestAnalyze_HistoryMissing(t *testing.T) {
	c := &AnalyzeCommand{}
	c.Args.Archive = writeZip(t, map[string]string{subsEntry: fixtureSubscriptions})

	_, err := runAnalyze(t, c, testEnv(false))
	assert.ErrorIs(t, err, pipeline.ErrHistoryMissing)
}

func TestAnalyze_NoEvents(t *testing.T) {
	c := &AnalyzeCommand{}
	c.Args.Archive = writeZip(t, map[string]string{historyEntry: "<html><body></body></html>"})

	_, err := runAnalyze(t, c, testEnv(false))
	assert.ErrorIs(t, err, pipeline.ErrNoEvents)
}

func TestAnalyze_MissingSubscriptionsDegrades(t *testing.T) {
	c := &AnalyzeCommand{}
	c.Args.Archive = writeZip(t, map[string]string{historyEntry: historyHTML(fixtureEvents)})

	output, err := runAnalyze(t, c, testEnv(false))
	require.NoError(t, err)
	assert.Contains(t, output, "Subscriptions:    0")
}

func TestAnalyze_InvalidTimezone(t *testing.T) {
	c := &AnalyzeCommand{TZ: "Nowhere/Special"}
	c.Args.Archive = writeArchive(t)

	_, err := runAnalyze(t, c, testEnv(false))
	assert.Error(t, err)
}

func TestAnalyze_EndToEndThroughRunWithArgs(t *testing.T) {
	cfgPath := writeConfig(t)
	archive := writeArchive(t)
	dbPath := filepath.Join(t.TempDir(), "export.db")

	output := captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfgPath, "analyze", "--db", dbPath, archive}))
	})
	assert.Contains(t, output, "Videos watched:   4")

	output = captureOutput(t, func() {
		require.NoError(t, RunWithArgs("test", []string{"--config", cfgPath, "status", "--db", dbPath}))
	})
	assert.Contains(t, output, "Dataset Status")
	assert.Contains(t, output, archive)
}
