// Package hover maps pointer and touch positions over the chart to an index
// in the display subset for crosshair and tooltip display.
package hover

import (
	"math"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// Tracker holds the current hover index and the touch-drag session flag.
type Tracker struct {
	state    types.HoverState
	touching bool
}

// State returns the current hover state.
func (t *Tracker) State() types.HoverState { return t.state }

// Touching reports whether a touch session is active.
func (t *Tracker) Touching() bool { return t.touching }

// Move sets the hover index for a pointer at clientX over a surface starting
// at boundsLeft and boundsWidth wide, showing n points. It does nothing when
// n is zero.
func (t *Tracker) Move(clientX, boundsLeft, boundsWidth float64, n int) {
	if n <= 0 {
		return
	}
	t.state = types.HoverState{Index: IndexAt(clientX, boundsLeft, boundsWidth, n), Active: true}
}

// Leave clears the hover state.
func (t *Tracker) Leave() { t.state = types.None }

// TouchStart behaves like Move and begins a touch session.
func (t *Tracker) TouchStart(clientX, boundsLeft, boundsWidth float64, n int) {
	if n <= 0 {
		return
	}
	t.touching = true
	t.Move(clientX, boundsLeft, boundsWidth, n)
}

// TouchMove updates the hover index only while a touch session is active.
func (t *Tracker) TouchMove(clientX, boundsLeft, boundsWidth float64, n int) {
	if !t.touching {
		return
	}
	t.Move(clientX, boundsLeft, boundsWidth, n)
}

// TouchEnd ends the touch session and clears the hover state.
func (t *Tracker) TouchEnd() {
	t.touching = false
	t.state = types.None
}

// Reset clears everything. Hosts call it when the display subset changes
// shape so a stale index never outlives its data.
func (t *Tracker) Reset() {
	t.touching = false
	t.state = types.None
}

// IndexAt computes clamp(floor((x-left)/width*n), 0, n-1). n must be positive.
func IndexAt(clientX, boundsLeft, boundsWidth float64, n int) int {
	if boundsWidth <= 0 {
		return 0
	}
	f := (clientX - boundsLeft) / boundsWidth
	i := int(math.Floor(f * float64(n)))
	if i < 0 || math.IsNaN(f) {
		return 0
	}
	if i > n-1 {
		return n - 1
	}
	return i
}
