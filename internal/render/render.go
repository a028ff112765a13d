// Package render draws aggregate series as charts.
package render

import (
	"fmt"

	"github.com/runnerr0/tubestats/internal/stats"
)

// Kind selects how a series is drawn.
type Kind string

const (
	Bar  Kind = "bar"
	Line Kind = "line"
)

// Series is a labelled numeric series handed to a Sink.
type Series struct {
	Title  string
	Kind   Kind
	Labels []string
	Values []float64
}

// Sink renders series and owns whatever it produced. Destroy releases every
// chart rendered so far so a new pass starts clean.
type Sink interface {
	Render(name string, s Series) error
	Destroy() error
}

// Chart names written by Present.
const (
	TopChannelsChart    = "top-channels"
	HourlyActivityChart = "hourly-activity"
	MonthlyHistoryChart = "monthly-history"
	WeekdayChart        = "weekdays"
)

// Present replaces whatever sink currently shows with the charts for r.
func Present(sink Sink, r *stats.Report) error {
	if err := sink.Destroy(); err != nil {
		return fmt.Errorf("destroy previous charts: %w", err)
	}

	for _, c := range Charts(r) {
		if err := sink.Render(c.Name, c.Series); err != nil {
			return fmt.Errorf("render %s: %w", c.Name, err)
		}
	}
	return nil
}

// NamedSeries is a Series with the name a Sink stores it under.
type NamedSeries struct {
	Name   string
	Series Series
}

// Charts builds the dashboard series for r in display order.
func Charts(r *stats.Report) []NamedSeries {
	top := Series{Title: "Top Channels", Kind: Bar}
	for _, c := range r.TopChannels {
		top.Labels = append(top.Labels, c.Channel)
		top.Values = append(top.Values, float64(c.Count))
	}

	hourly := Series{Title: "Videos Watched by Hour", Kind: Bar, Labels: stats.HourLabels()}
	for _, c := range r.HourOfDayCounts {
		hourly.Values = append(hourly.Values, float64(c))
	}

	monthly := Series{Title: "Videos Watched per Month", Kind: Line}
	for _, m := range r.MonthlySeries {
		monthly.Labels = append(monthly.Labels, m.Label)
		monthly.Values = append(monthly.Values, float64(m.Count))
	}

	weekdays := Series{Title: "Videos Watched by Weekday", Kind: Bar}
	for _, d := range r.Weekdays() {
		weekdays.Labels = append(weekdays.Labels, d.Day[:3])
		weekdays.Values = append(weekdays.Values, float64(d.Count))
	}

	return []NamedSeries{
		{TopChannelsChart, top},
		{HourlyActivityChart, hourly},
		{MonthlyHistoryChart, monthly},
		{WeekdayChart, weekdays},
	}
}
