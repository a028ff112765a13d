// Package stats turns a validated watch-event stream into summary tables
// and time-bucketed series.
package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/runnerr0/tubestats/internal/history"
	"github.com/runnerr0/tubestats/internal/tabular"
)

// DefaultTopN is how many channels TopChannels keeps unless told otherwise.
const DefaultTopN = 10

// NoActiveDay is reported as MostActiveDay when there are no events.
const NoActiveDay = "N/A"

// Options control bucketing. Location is required for reproducible output;
// a nil Location falls back to UTC, never to the process-local zone.
type Options struct {
	Location *time.Location
	TopN     int
}

// ChannelCount pairs a channel with the number of videos watched from it.
type ChannelCount struct {
	Channel string `json:"channel"`
	Count   int    `json:"count"`
}

// MonthCount is one point of the monthly series.
type MonthCount struct {
	Key   string `json:"key"`   // YYYY-MM, one-based month
	Label string `json:"label"` // e.g. "Jan 24"
	Count int    `json:"count"`
}

// Report holds every aggregate derived from one analysis pass.
type Report struct {
	TotalVideos        int            `json:"total_videos"`
	TotalSubscriptions int            `json:"total_subscriptions"`
	UniqueChannels     int            `json:"unique_channels"`
	ChannelCounts      map[string]int `json:"channel_counts"`
	TopChannels        []ChannelCount `json:"top_channels"`
	DayOfWeekCounts    map[string]int `json:"day_of_week_counts"`
	MostActiveDay      string         `json:"most_active_day"`
	HourOfDayCounts    [24]int        `json:"hour_of_day_counts"`
	MonthlySeries      []MonthCount   `json:"monthly_series"`
	Timezone           string         `json:"timezone"`
}

// Aggregate computes the Report for events and subs. It does not modify its
// inputs and depends on nothing but its arguments.
func Aggregate(events []history.WatchEvent, subs []tabular.Record, opts Options) *Report {
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	topN := opts.TopN
	if topN <= 0 {
		topN = DefaultTopN
	}

	r := &Report{
		TotalVideos:        len(events),
		TotalSubscriptions: len(subs),
		ChannelCounts:      map[string]int{},
		DayOfWeekCounts:    map[string]int{},
		Timezone:           loc.String(),
	}

	var channelOrder []string
	var dayOrder []string
	monthly := map[string]int{}

	for _, ev := range events {
		if _, seen := r.ChannelCounts[ev.ChannelName]; !seen {
			channelOrder = append(channelOrder, ev.ChannelName)
		}
		r.ChannelCounts[ev.ChannelName]++

		local := ev.Timestamp.In(loc)

		day := local.Weekday().String()
		if _, seen := r.DayOfWeekCounts[day]; !seen {
			dayOrder = append(dayOrder, day)
		}
		r.DayOfWeekCounts[day]++

		r.HourOfDayCounts[local.Hour()]++

		monthly[monthKey(local)]++
	}

	r.UniqueChannels = len(r.ChannelCounts)
	r.TopChannels = topChannels(channelOrder, r.ChannelCounts, topN)
	r.MostActiveDay = mostActiveDay(dayOrder, r.DayOfWeekCounts)
	r.MonthlySeries = monthlySeries(monthly)

	return r
}

// topChannels ranks channels by count. order is first-occurrence order and
// breaks ties, so equal counts keep the order they first appeared in.
func topChannels(order []string, counts map[string]int, n int) []ChannelCount {
	ranked := make([]ChannelCount, 0, len(order))
	for _, ch := range order {
		ranked = append(ranked, ChannelCount{Channel: ch, Count: counts[ch]})
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Count > ranked[j].Count
	})
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	return ranked
}

// mostActiveDay returns the weekday with the highest count; on a tie the
// weekday encountered first in the event stream wins.
func mostActiveDay(order []string, counts map[string]int) string {
	best := NoActiveDay
	bestCount := 0
	for _, day := range order {
		if counts[day] > bestCount {
			best = day
			bestCount = counts[day]
		}
	}
	return best
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func monthlySeries(buckets map[string]int) []MonthCount {
	keys := make([]string, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	series := make([]MonthCount, 0, len(keys))
	for _, k := range keys {
		series = append(series, MonthCount{Key: k, Label: monthLabel(k), Count: buckets[k]})
	}
	return series
}

// monthLabel renders a YYYY-MM key as "Jan 24".
func monthLabel(key string) string {
	t, err := time.Parse("2006-01", key)
	if err != nil {
		return key
	}
	return t.Format("Jan 06")
}

// HourLabels returns the x-axis labels for HourOfDayCounts.
func HourLabels() []string {
	labels := make([]string, 24)
	for i := range labels {
		labels[i] = fmt.Sprintf("%d:00", i)
	}
	return labels
}

// DayCount is one weekday bucket.
type DayCount struct {
	Day   string `json:"day"`
	Count int    `json:"count"`
}

// Weekdays returns DayOfWeekCounts as a Sunday-first slice, zero-filled.
func (r *Report) Weekdays() []DayCount {
	days := make([]DayCount, 0, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		name := d.String()
		days = append(days, DayCount{Day: name, Count: r.DayOfWeekCounts[name]})
	}
	return days
}
