package render

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"
)

var (
	barFill    = drawing.ColorFromHex("ef4444")
	barStroke  = drawing.ColorFromHex("dc2626")
	lineStroke = drawing.ColorFromHex("ef4444")
	lineFill   = drawing.ColorFromHex("fca5a5").WithAlpha(64)
)

// PNGSink writes each series to <dir>/<name>.png.
type PNGSink struct {
	dir     string
	width   int
	height  int
	written []string
}

// NewPNGSink creates dir if needed. Dashboard charts already present in dir
// from an earlier run are adopted, so the first Destroy clears them too.
func NewPNGSink(dir string, width, height int) (*PNGSink, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create chart directory: %w", err)
	}
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 512
	}

	sink := &PNGSink{dir: dir, width: width, height: height}
	for _, name := range []string{TopChannelsChart, HourlyActivityChart, MonthlyHistoryChart, WeekdayChart} {
		path := filepath.Join(dir, name+".png")
		if _, err := os.Stat(path); err == nil {
			sink.written = append(sink.written, path)
		}
	}
	return sink, nil
}

// Written returns the paths of the charts currently on disk.
func (s *PNGSink) Written() []string {
	return append([]string(nil), s.written...)
}

// Render implements Sink.
func (s *PNGSink) Render(name string, series Series) error {
	if len(series.Values) == 0 {
		return nil
	}
	if len(series.Labels) != len(series.Values) {
		return fmt.Errorf("series %s has %d labels for %d values", name, len(series.Labels), len(series.Values))
	}

	path := filepath.Join(s.dir, name+".png")
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create chart file: %w", err)
	}
	defer f.Close()

	// A line needs two points to span the x axis.
	switch {
	case series.Kind == Line && len(series.Values) > 1:
		err = s.lineChart(series).Render(chart.PNG, f)
	default:
		err = s.barChart(series).Render(chart.PNG, f)
	}
	if err != nil {
		os.Remove(path)
		return err
	}

	s.written = append(s.written, path)
	return nil
}

// Destroy removes every chart this sink has written.
func (s *PNGSink) Destroy() error {
	var errs []error
	for _, path := range s.written {
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			errs = append(errs, err)
		}
	}
	s.written = nil
	return errors.Join(errs...)
}

func (s *PNGSink) barChart(series Series) chart.BarChart {
	bars := make([]chart.Value, len(series.Values))
	for i, v := range series.Values {
		bars[i] = chart.Value{
			Value: v,
			Label: series.Labels[i],
			Style: chart.Style{FillColor: barFill, StrokeColor: barStroke, StrokeWidth: 1},
		}
	}

	barWidth := (s.width - 120) / (len(bars) * 2)
	if barWidth < 8 {
		barWidth = 8
	}

	return chart.BarChart{
		Title:      series.Title,
		Width:      s.width,
		Height:     s.height,
		BarWidth:   barWidth,
		BarSpacing: barWidth,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(series.Values)},
		},
		Bars: bars,
	}
}

func (s *PNGSink) lineChart(series Series) chart.Chart {
	xs := make([]float64, len(series.Values))
	ticks := make([]chart.Tick, len(series.Values))
	for i := range series.Values {
		xs[i] = float64(i)
		ticks[i] = chart.Tick{Value: float64(i), Label: series.Labels[i]}
	}

	return chart.Chart{
		Title:  series.Title,
		Width:  s.width,
		Height: s.height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(len(xs) - 1)},
			Ticks: ticks,
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: axisMax(series.Values)},
		},
		Series: []chart.Series{
			chart.ContinuousSeries{
				Name:    series.Title,
				XValues: xs,
				YValues: series.Values,
				Style: chart.Style{
					StrokeColor: lineStroke,
					StrokeWidth: 2,
					FillColor:   lineFill,
				},
			},
		},
	}
}

// axisMax keeps the y axis non-degenerate when every value is equal or zero.
func axisMax(values []float64) float64 {
	max := 1.0
	for _, v := range values {
		if v > max {
			max = v
		}
	}
	return max * 1.1
}
