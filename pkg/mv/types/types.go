package types

import (
	"math"
	"sort"
	"time"
)

// DateLayout is the calendar-date format carried by DataPoint.Date.
const DateLayout = "2006-01-02"

// DataPoint is one observation of the series, in percent.
type DataPoint struct {
	Date  string  `json:"date" yaml:"date"`
	Value float64 `json:"value" yaml:"value"`
	Label string  `json:"label" yaml:"label"`
}

// Time parses Date. The zero time is returned for malformed dates.
func (p DataPoint) Time() time.Time {
	t, err := time.Parse(DateLayout, p.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// Selection is an inclusive index window into a dataset.
// A valid selection satisfies 0 <= Start < End <= N-1.
type Selection struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Width is the number of steps between the two ends.
func (s Selection) Width() int { return s.End - s.Start }

// Contains reports whether i lies inside [Start, End].
func (s Selection) Contains(i int) bool { return i >= s.Start && i <= s.End }

// Valid reports whether s is a valid selection over n points.
func (s Selection) Valid(n int) bool {
	return s.Start >= 0 && s.Start < s.End && s.End <= n-1
}

// Stats are aggregates over the display subset. All fields are zero when the
// subset is empty.
type Stats struct {
	Avg float64 `json:"avg"`
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// HoverState is an optional index into the display subset.
type HoverState struct {
	Index  int
	Active bool
}

// None is the empty hover state.
var None = HoverState{}

// Normalize sorts points ascending by date and drops duplicate dates, keeping
// the last observation seen for a date. Points with unparsable dates or
// non-finite values are dropped.
func Normalize(points []DataPoint) []DataPoint {
	byDate := make(map[string]int, len(points))
	out := make([]DataPoint, 0, len(points))
	for _, p := range points {
		if p.Time().IsZero() || math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			continue
		}
		if i, ok := byDate[p.Date]; ok {
			out[i] = p
			continue
		}
		byDate[p.Date] = len(out)
		out = append(out, p)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}
