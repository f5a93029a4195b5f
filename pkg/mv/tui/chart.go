package tui

import (
	"math"
	"strings"

	"github.com/NimbleMarkets/ntcharts/canvas"
	"github.com/NimbleMarkets/ntcharts/linechart"
	"github.com/charmbracelet/lipgloss"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/window"
)

const (
	xLabelStep = 12 // cells between date labels
	yLabelStep = 2
)

// newChart sizes a line chart for the display subset. X values are indexes
// into the subset and Y values are percentages.
func newChart(v window.View, w, h int) linechart.Model {
	n := len(v.Display)
	maxX := float64(n - 1)
	if maxX < 1 {
		maxX = 1
	}
	lo, hi := v.Stats.Min, v.Stats.Max
	pad := (hi - lo) * 0.1
	if pad == 0 {
		pad = 0.5
	}
	xf := func(_ int, x float64) string {
		if n == 0 {
			return ""
		}
		i := int(math.Round(x))
		if i < 0 {
			i = 0
		}
		if i > n-1 {
			i = n - 1
		}
		return format.AxisDate(v.Display[i].Date)
	}
	yf := func(_ int, y float64) string { return format.Fixed2(y) }

	lc := linechart.New(w, h, 0, maxX, lo-pad, hi+pad,
		linechart.WithXYSteps(xLabelStep, yLabelStep),
		linechart.WithXLabelFormatter(xf),
		linechart.WithYLabelFormatter(yf),
	)
	lc.AxisStyle = axisStyle
	lc.LabelStyle = labelStyle
	return lc
}

// graphBounds is the screen span of the plotting area, relative to the
// chart's left edge.
func graphBounds(lc *linechart.Model) (left, width float64) {
	return float64(lc.Origin().X + 1), float64(lc.GraphWidth())
}

// renderChart draws the series, the mean reference line and, when hovering,
// a crosshair. Only the first reveal points are drawn so the first frame
// after a load can animate in; zero draws no series yet.
func renderChart(v window.View, hoverIdx int, hovering bool, w, h, reveal int) string {
	n := len(v.Display)
	if n == 0 {
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, dimStyle.Render(placeholder(v)))
	}
	lc := newChart(v, w, h)
	lc.DrawXYAxisAndLabel()

	pt := func(i int, y float64) canvas.Float64Point { return canvas.Float64Point{X: float64(i), Y: y} }
	if n > 1 {
		lc.DrawRuneLineWithStyle(pt(0, v.Stats.Avg), pt(n-1, v.Stats.Avg), '┄', meanStyle)
	}
	if hovering && hoverIdx >= 0 && hoverIdx < n {
		lc.DrawRuneLineWithStyle(pt(hoverIdx, lc.ViewMinY()), pt(hoverIdx, lc.ViewMaxY()), '│', crossStyle)
	}
	if reveal > n {
		reveal = n
	}
	if n == 1 && reveal > 0 {
		lc.DrawRuneWithStyle(pt(0, v.Display[0].Value), '•', lineStyle)
	}
	for i := 1; i < reveal; i++ {
		lc.DrawBrailleLineWithStyle(pt(i-1, v.Display[i-1].Value), pt(i, v.Display[i].Value), lineStyle)
	}
	return strings.TrimSuffix(lc.View(), "\n")
}

func placeholder(v window.View) string {
	if v.Loading {
		return "loading…"
	}
	return "no data"
}
