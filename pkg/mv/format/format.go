// Package format renders numbers and dates the way every surface of the
// dashboard displays them.
package format

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// SeriesName is the series label shown in tooltips and legends.
const SeriesName = "两融余额占流通市值比"

// Fixed2 formats v with exactly two decimals, rounding half away from zero
// on the shortest decimal representation of v.
func Fixed2(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "-"
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}

// Percent is Fixed2 with a percent sign.
func Percent(v float64) string { return Fixed2(v) + "%" }

// Signed is Fixed2 with an explicit sign for non-negative values.
func Signed(v float64) string {
	s := Fixed2(v)
	if v >= 0 && s != "-" {
		return "+" + s
	}
	return s
}

// AxisDate renders a YYYY-MM-DD date as YYYY.M.D. Unparsable input is
// returned unchanged.
func AxisDate(date string) string {
	t := (types.DataPoint{Date: date}).Time()
	if t.IsZero() {
		return date
	}
	return fmt.Sprintf("%d.%d.%d", t.Year(), int(t.Month()), t.Day())
}

// TooltipDate renders a YYYY-MM-DD date as YYYY年M月D日.
func TooltipDate(date string) string {
	t := (types.DataPoint{Date: date}).Time()
	if t.IsZero() {
		return date
	}
	return fmt.Sprintf("%d年%d月%d日", t.Year(), int(t.Month()), t.Day())
}

// Tooltip is the hover text for a point. An empty name falls back to
// SeriesName.
func Tooltip(p types.DataPoint, name string) string {
	if name == "" {
		name = SeriesName
	}
	return fmt.Sprintf("%s · %s: %s", TooltipDate(p.Date), name, Percent(p.Value))
}

// MeanLabel labels the reference line at the window mean.
func MeanLabel(avg float64) string { return "平均: " + Percent(avg) }

// StatsLine is the one-line mean/min/max summary.
func StatsLine(s types.Stats) string {
	return fmt.Sprintf("均值: %s  最小值: %s  最大值: %s", Percent(s.Avg), Percent(s.Min), Percent(s.Max))
}
