// Package selector implements the dual-handle range selector: a draggable
// window over the integer domain [min, max] that reports a (start, end) pair
// on every change.
package selector

import (
	"math"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// Target is the part of the selector a pointer interacts with.
type Target int

const (
	Outside Target = iota
	LeftHandle
	RightHandle
	TrackMiddle
)

func (t Target) String() string {
	switch t {
	case LeftHandle:
		return "left-handle"
	case RightHandle:
		return "right-handle"
	case TrackMiddle:
		return "track-middle"
	default:
		return "outside"
	}
}

// State is the drag state machine.
type State int

const (
	Idle State = iota
	DraggingLeft
	DraggingRight
	DraggingMiddle
)

func (s State) String() string {
	switch s {
	case DraggingLeft:
		return "dragging-left"
	case DraggingRight:
		return "dragging-right"
	case DraggingMiddle:
		return "dragging-middle"
	default:
		return "idle"
	}
}

// PositionMapper converts a pointer x coordinate into a fractional position
// within the rendered track. Implementations must return a value in [0, 1].
type PositionMapper interface {
	Position(clientX float64) float64
}

// Bounds is a PositionMapper for a track occupying [Left, Left+Width).
type Bounds struct {
	Left  float64
	Width float64
}

func (b Bounds) Position(clientX float64) float64 {
	if b.Width <= 0 {
		return 0
	}
	return clamp01((clientX - b.Left) / b.Width)
}

// Option configures a Selector.
type Option func(*Selector)

// WithTolerance sets how close, as a fraction of the track, a pointer must be
// to a handle for HitTest to pick it.
func WithTolerance(frac float64) Option {
	return func(s *Selector) { s.SetTolerance(frac) }
}

// Selector holds the domain, the current selection and the drag session.
// It is owned by a single UI loop and is not safe for concurrent use.
type Selector struct {
	min, max  int
	sel       types.Selection
	state     State
	startX    float64
	tolerance float64
	mapper    PositionMapper
	emit      func(types.Selection)
}

// New initializes a selector over [min, max] starting at initial. The initial
// selection is clamped into min <= start < end <= max. emit may be nil.
func New(min, max int, initial types.Selection, mapper PositionMapper, emit func(types.Selection), opts ...Option) *Selector {
	s := &Selector{mapper: mapper, emit: emit, tolerance: 0.01}
	for _, opt := range opts {
		opt(s)
	}
	s.SetDomain(min, max, initial)
	return s
}

// SetDomain re-initializes the selector after the underlying dataset changed.
// Any drag session in progress is ended.
func (s *Selector) SetDomain(min, max int, sel types.Selection) {
	if max < min {
		min, max = max, min
	}
	s.min, s.max = min, max
	s.sel = s.clampSelection(sel)
	s.state = Idle
}

// SetMapper replaces the position mapper, e.g. after the track was resized.
func (s *Selector) SetMapper(m PositionMapper) { s.mapper = m }

// SetTolerance replaces the handle grab distance, e.g. after the track was
// resized. Negative values are ignored.
func (s *Selector) SetTolerance(frac float64) {
	if frac >= 0 {
		s.tolerance = frac
	}
}

// Degenerate reports whether the domain is too small to hold a selection.
func (s *Selector) Degenerate() bool { return s.max-s.min < 1 }

func (s *Selector) Selection() types.Selection { return s.sel }
func (s *Selector) State() State               { return s.state }
func (s *Selector) Min() int                   { return s.min }
func (s *Selector) Max() int                   { return s.max }

// Fraction maps a domain value onto [0, 1] for drawing.
func (s *Selector) Fraction(v int) float64 {
	if s.Degenerate() {
		return 0
	}
	return clamp01(float64(v-s.min) / float64(s.max-s.min))
}

// PointerDown starts a drag session bound to target. Outside is ignored.
func (s *Selector) PointerDown(target Target, clientX float64) {
	if s.Degenerate() {
		return
	}
	switch target {
	case LeftHandle:
		s.state = DraggingLeft
	case RightHandle:
		s.state = DraggingRight
	case TrackMiddle:
		s.state = DraggingMiddle
	default:
		return
	}
	s.startX = clientX
}

// PointerMove updates the selection for the active drag session and emits
// it. It is a no-op while idle.
func (s *Selector) PointerMove(clientX float64) {
	if s.state == Idle {
		return
	}
	v := s.valueAt(clientX)
	sel := s.sel
	switch s.state {
	case DraggingLeft:
		sel.Start = minInt(v, sel.End-1)
	case DraggingRight:
		sel.End = maxInt(v, sel.Start+1)
	case DraggingMiddle:
		sel = s.recenter(v)
	}
	s.sel = sel
	s.fire()
}

// PointerUp ends the drag session. Calling it while idle does nothing.
func (s *Selector) PointerUp() {
	s.state = Idle
}

// TrackClick recenters the window on the clicked value when it falls
// strictly outside the current selection. Clicks inside are left to the drag
// handlers.
func (s *Selector) TrackClick(clientX float64) {
	if s.Degenerate() {
		return
	}
	v := s.valueAt(clientX)
	if s.sel.Contains(v) {
		return
	}
	s.sel = s.recenter(v)
	s.fire()
}

// HitTest classifies a pointer location against the current handles.
func (s *Selector) HitTest(clientX float64) Target {
	if s.Degenerate() || s.mapper == nil {
		return Outside
	}
	pos := s.mapper.Position(clientX)
	ls, rs := s.Fraction(s.sel.Start), s.Fraction(s.sel.End)
	dl, dr := math.Abs(pos-ls), math.Abs(pos-rs)
	nearL, nearR := dl <= s.tolerance, dr <= s.tolerance
	switch {
	case nearL && nearR:
		if pos <= ls || (pos < rs && dl < dr) {
			return LeftHandle
		}
		return RightHandle
	case nearL:
		return LeftHandle
	case nearR:
		return RightHandle
	case pos > ls && pos < rs:
		return TrackMiddle
	}
	return Outside
}

// recenter places a window of the current width around v, shifting it back
// inside the domain. The width is always preserved.
func (s *Selector) recenter(v int) types.Selection {
	w := s.sel.Width()
	start := v - w/2
	end := v + (w+1)/2
	if start < s.min {
		d := s.min - start
		start += d
		end += d
	}
	if end > s.max {
		d := end - s.max
		start -= d
		end -= d
	}
	return types.Selection{Start: start, End: end}
}

func (s *Selector) valueAt(clientX float64) int {
	var pos float64
	if s.mapper != nil {
		pos = clamp01(s.mapper.Position(clientX))
	}
	return int(math.Floor(float64(s.min) + pos*float64(s.max-s.min) + 0.5))
}

func (s *Selector) clampSelection(sel types.Selection) types.Selection {
	if s.Degenerate() {
		return types.Selection{Start: s.min, End: s.max}
	}
	start := clampInt(sel.Start, s.min, s.max-1)
	end := clampInt(sel.End, start+1, s.max)
	return types.Selection{Start: start, End: end}
}

func (s *Selector) fire() {
	if s.emit != nil {
		s.emit(s.sel)
	}
}

func clamp01(f float64) float64 {
	if math.IsNaN(f) || f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
