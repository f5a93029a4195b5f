package source

import (
	"context"
	"math"
	"time"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// MockConfig controls the synthetic series.
type MockConfig struct {
	Length int     `mapstructure:"length"`
	Base   float64 `mapstructure:"base"`
	End    string  `mapstructure:"end"`
}

// MockSource returns a deterministic synthetic series for development and
// tests. Points, when set, are returned as-is; Err, when set, is returned
// instead of data.
type MockSource struct {
	Length int
	Base   float64
	End    time.Time
	Points []types.DataPoint
	Err    error
}

func NewMockSource(cfg MockConfig) *MockSource {
	m := &MockSource{Length: cfg.Length, Base: cfg.Base}
	if m.Base == 0 {
		m.Base = 2.4
	}
	if t, err := time.Parse(types.DateLayout, cfg.End); err == nil {
		m.End = t
	}
	return m
}

func (m *MockSource) Name() string { return "mock" }

func (m *MockSource) Fetch(ctx context.Context, windowHint int) ([]types.DataPoint, error) {
	if err := ctx.Err(); err != nil {
		return nil, &FetchError{Source: m.Name(), Err: err}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Points != nil {
		return types.Normalize(m.Points), nil
	}
	n := m.Length
	if n <= 0 {
		n = windowHint
	}
	if n <= 0 {
		n = 250
	}
	end := m.End
	if end.IsZero() {
		end = time.Now()
	}
	return generateMockSeries(m.Base, n, end), nil
}

// generateMockSeries produces n weekday observations ending at end.
func generateMockSeries(base float64, n int, end time.Time) []types.DataPoint {
	dates := make([]time.Time, 0, n)
	for d := end; len(dates) < n; d = d.AddDate(0, 0, -1) {
		if wd := d.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		dates = append(dates, d)
	}
	points := make([]types.DataPoint, n)
	for i := 0; i < n; i++ {
		d := dates[n-1-i]
		v := base * (1 + 0.08*math.Sin(float64(i)/17) + 0.0004*float64(i-n/2))
		points[i] = types.DataPoint{
			Date:  d.Format(types.DateLayout),
			Value: math.Round(v*10000) / 10000,
			Label: DefaultLabel,
		}
	}
	return points
}
