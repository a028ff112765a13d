package render

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/stats"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordingSink keeps rendered series in memory.
type recordingSink struct {
	rendered  map[string]Series
	destroyed int
}

func (s *recordingSink) Render(name string, series Series) error {
	if s.rendered == nil {
		s.rendered = map[string]Series{}
	}
	s.rendered[name] = series
	return nil
}

func (s *recordingSink) Destroy() error {
	s.destroyed++
	s.rendered = nil
	return nil
}

func sampleReport() *stats.Report {
	r := &stats.Report{
		TopChannels:     []stats.ChannelCount{{Channel: "Alpha", Count: 5}, {Channel: "Beta", Count: 2}},
		DayOfWeekCounts: map[string]int{"Monday": 4, "Friday": 3},
		MonthlySeries: []stats.MonthCount{
			{Key: "2024-01", Label: "Jan 24", Count: 3},
			{Key: "2024-02", Label: "Feb 24", Count: 4},
		},
	}
	r.HourOfDayCounts[9] = 2
	r.HourOfDayCounts[23] = 5
	return r
}

func TestPresent_RendersDashboardSeries(t *testing.T) {
	sink := &recordingSink{}

	require.NoError(t, Present(sink, sampleReport()))

	assert.Equal(t, 1, sink.destroyed)
	require.Len(t, sink.rendered, 4)

	top := sink.rendered[TopChannelsChart]
	assert.Equal(t, []string{"Alpha", "Beta"}, top.Labels)
	assert.Equal(t, []float64{5, 2}, top.Values)

	hourly := sink.rendered[HourlyActivityChart]
	require.Len(t, hourly.Values, 24)
	assert.Equal(t, 2.0, hourly.Values[9])
	assert.Equal(t, "23:00", hourly.Labels[23])

	monthly := sink.rendered[MonthlyHistoryChart]
	assert.Equal(t, Line, monthly.Kind)
	assert.Equal(t, []string{"Jan 24", "Feb 24"}, monthly.Labels)
	assert.Equal(t, []float64{3, 4}, monthly.Values)

	weekdays := sink.rendered[WeekdayChart]
	assert.Equal(t, "Sun", weekdays.Labels[0])
	assert.Equal(t, 4.0, weekdays.Values[1])
}

func TestPresent_DestroysBeforeEachRun(t *testing.T) {
	sink := &recordingSink{}

	require.NoError(t, Present(sink, sampleReport()))
	require.NoError(t, Present(sink, sampleReport()))

	assert.Equal(t, 2, sink.destroyed)
	assert.Len(t, sink.rendered, 4)
}

func TestPNGSink_WritesAndDestroys(t *testing.T) {
	dir := t.TempDir()
	sink, err := NewPNGSink(dir, 800, 400)
	require.NoError(t, err)

	require.NoError(t, Present(sink, sampleReport()))
	written := sink.Written()
	require.Len(t, written, 4)

	for _, path := range written {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "\x89PNG", string(data[:4]), "%s should be a PNG", path)
	}
	assert.FileExists(t, filepath.Join(dir, "hourly-activity.png"))

	require.NoError(t, sink.Destroy())
	for _, path := range written {
		assert.NoFileExists(t, path)
	}
	assert.Empty(t, sink.Written())
}

func TestPNGSink_SkipsEmptySeries(t *testing.T) {
	sink, err := NewPNGSink(t.TempDir(), 0, 0)
	require.NoError(t, err)

	require.NoError(t, sink.Render("empty", Series{Kind: Bar}))
	assert.Empty(t, sink.Written())
}

func TestPNGSink_RejectsMismatchedSeries(t *testing.T) {
	sink, err := NewPNGSink(t.TempDir(), 0, 0)
	require.NoError(t, err)

	err = sink.Render("bad", Series{Kind: Bar, Labels: []string{"a"}, Values: []float64{1, 2}})
	assert.Error(t, err)
}

func TestPNGSink_SingleMonthHistory(t *testing.T) {
	events := []history.WatchEvent{{
		VideoTitle:  "Only Video",
		ChannelName: "Alpha",
		Timestamp:   time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC),
	}}
	r := stats.Aggregate(events, nil, stats.Options{Location: time.UTC})
	require.Len(t, r.MonthlySeries, 1)

	dir := t.TempDir()
	sink, err := NewPNGSink(dir, 0, 0)
	require.NoError(t, err)

	require.NoError(t, Present(sink, r))

	data, err := os.ReadFile(filepath.Join(dir, MonthlyHistoryChart+".png"))
	require.NoError(t, err)
	assert.Equal(t, "\x89PNG", string(data[:4]))
}

func TestPNGSink_LineWithOnePoint(t *testing.T) {
	sink, err := NewPNGSink(t.TempDir(), 0, 0)
	require.NoError(t, err)

	series := Series{Title: "One", Kind: Line, Labels: []string{"Jan 24"}, Values: []float64{1}}
	require.NoError(t, sink.Render("one", series))
	assert.Len(t, sink.Written(), 1)
}

func TestPNGSink_ClearsChartsFromEarlierRun(t *testing.T) {
	dir := t.TempDir()
	first, err := NewPNGSink(dir, 0, 0)
	require.NoError(t, err)
	require.NoError(t, Present(first, sampleReport()))

	stale := filepath.Join(dir, TopChannelsChart+".png")
	require.FileExists(t, stale)
	unrelated := filepath.Join(dir, "holiday.png")
	require.NoError(t, os.WriteFile(unrelated, []byte("keep"), 0644))

	// No channels this time, so top-channels is not rewritten.
	next := sampleReport()
	next.TopChannels = nil

	second, err := NewPNGSink(dir, 0, 0)
	require.NoError(t, err)
	require.NoError(t, Present(second, next))

	assert.NoFileExists(t, stale)
	assert.FileExists(t, filepath.Join(dir, HourlyActivityChart+".png"))
	assert.FileExists(t, unrelated)
	assert.Len(t, second.Written(), 3)
}
