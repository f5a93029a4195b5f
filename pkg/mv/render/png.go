package render

import (
	"errors"
	"io"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/types"
	"github.com/komsit37/marginview/pkg/mv/window"
)

// ErrNoData is returned by renderers that cannot draw a placeholder.
var ErrNoData = errors.New("no data to render")

var (
	lineColor = drawing.ColorFromHex("F0BE83")
	meanColor = drawing.ColorFromHex("9E9E9E")
)

// PNGRenderer draws the display subset as a line chart with a dashed
// reference line at the window mean.
type PNGRenderer struct{}

func NewPNGRenderer() *PNGRenderer { return &PNGRenderer{} }

func (r *PNGRenderer) Render(w io.Writer, v window.View, opts RenderOptions) error {
	ch, err := buildChart(v, opts)
	if err != nil {
		return err
	}
	return ch.Render(chart.PNG, w)
}

func buildChart(v window.View, opts RenderOptions) (*chart.Chart, error) {
	if v.Empty() {
		return nil, ErrNoData
	}
	width, height := opts.Width, opts.Height
	if width <= 0 {
		width = 1024
	}
	if height <= 0 {
		height = 400
	}

	times := make([]time.Time, len(v.Display))
	ys := make([]float64, len(v.Display))
	for i, p := range v.Display {
		times[i] = p.Time()
		ys[i] = p.Value
	}
	// a single point has no x extent; draw it as a short flat segment
	if len(times) == 1 {
		times = append(times, times[0].Add(24*time.Hour))
		ys = append(ys, ys[0])
	}
	first, last := times[0], times[len(times)-1]

	lo, hi := v.Stats.Min, v.Stats.Max
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 0.5
	}

	label := v.Label
	if label == "" {
		label = format.SeriesName
	}
	series := []chart.Series{
		chart.TimeSeries{
			Name:    label,
			XValues: times,
			YValues: ys,
			Style:   chart.Style{StrokeColor: lineColor, StrokeWidth: 2},
		},
		chart.TimeSeries{
			Name:    format.MeanLabel(v.Stats.Avg),
			XValues: []time.Time{first, last},
			YValues: []float64{v.Stats.Avg, v.Stats.Avg},
			Style: chart.Style{
				StrokeColor:     meanColor,
				StrokeWidth:     1,
				StrokeDashArray: []float64{5, 5},
			},
		},
	}

	ch := &chart.Chart{
		Title:      label,
		Width:      width,
		Height:     height,
		Background: chart.Style{Padding: chart.Box{Top: 24, Left: 16, Right: 12, Bottom: 32}},
		XAxis: chart.XAxis{
			ValueFormatter: func(x interface{}) string {
				if f, ok := x.(float64); ok {
					return format.AxisDate(chart.TimeFromFloat64(f).UTC().Format(types.DateLayout))
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(y interface{}) string {
				if f, ok := y.(float64); ok {
					return format.Percent(f)
				}
				return ""
			},
		},
		Series: series,
	}
	ch.Elements = []chart.Renderable{chart.Legend(ch)}
	return ch, nil
}
