// Package window owns the dataset, the selected window over it and the
// aggregates derived from that window.
package window

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/komsit37/marginview/pkg/mv/notify"
	"github.com/komsit37/marginview/pkg/mv/source"
	"github.com/komsit37/marginview/pkg/mv/types"
)

// DefaultWindow is the trailing window applied after a load.
const DefaultWindow = 200

// InvalidSelectionError describes a selection outside the dataset. It is
// logged, never returned: SetSelection clamps instead.
type InvalidSelectionError struct {
	Selection types.Selection
	Len       int
}

func (e *InvalidSelectionError) Error() string {
	return fmt.Sprintf("invalid selection [%d,%d] over %d points", e.Selection.Start, e.Selection.End, e.Len)
}

// View is a consistent copy of the controller state handed to renderers.
type View struct {
	Label     string
	Dataset   []types.DataPoint
	Display   []types.DataPoint
	Selection types.Selection
	Stats     types.Stats
	Loading   bool
	Animate   bool
}

// Empty reports whether there is nothing to draw.
func (v View) Empty() bool { return len(v.Display) == 0 }

// Option configures a Controller.
type Option func(*Controller)

func WithDefaultWindow(k int) Option {
	return func(c *Controller) {
		if k > 0 {
			c.defaultWindow = k
		}
	}
}

func WithNotifier(n notify.Notifier) Option { return func(c *Controller) { c.notifier = n } }

func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.log = l
		}
	}
}

// WithWindowHint overrides the size hint passed to the source. By default
// the hint is the default window.
func WithWindowHint(h int) Option { return func(c *Controller) { c.hint = h } }

// Controller is safe for concurrent use: loads run on their own goroutine
// while the UI loop reads and changes the selection.
type Controller struct {
	src           source.Source
	notifier      notify.Notifier
	log           *slog.Logger
	defaultWindow int
	hint          int

	mu      sync.Mutex
	epoch   uint64
	cancel  context.CancelFunc
	loading bool
	animate bool
	dataset []types.DataPoint
	display []types.DataPoint
	sel     types.Selection
	stats   types.Stats
}

func New(src source.Source, opts ...Option) *Controller {
	c := &Controller{
		src:           src,
		log:           slog.Default(),
		defaultWindow: DefaultWindow,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.hint == 0 {
		c.hint = c.defaultWindow
	}
	return c
}

// Load fetches the series and replaces the dataset. A newer Load cancels
// and supersedes an older one still in flight; the superseded call returns
// applied=false and changes nothing. On failure, a malformed payload or an
// empty result the dataset is cleared and the notifier is called once; the
// cause is returned.
func (c *Controller) Load(ctx context.Context) (applied bool, err error) {
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.epoch++
	epoch := c.epoch
	lctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.loading = true
	c.mu.Unlock()
	defer cancel()

	c.log.Debug("loading series", "source", c.src.Name(), "epoch", epoch, "hint", c.hint)
	points, err := c.src.Fetch(lctx, c.hint)
	if err == nil && len(points) == 0 {
		err = source.ErrEmpty
	}

	c.mu.Lock()
	if epoch != c.epoch {
		c.mu.Unlock()
		c.log.Debug("discarding superseded load", "epoch", epoch)
		return false, nil
	}
	c.cancel = nil
	c.loading = false
	if err != nil {
		c.dataset, c.display = nil, nil
		c.sel, c.stats = types.Selection{}, types.Stats{}
		c.animate = false
		c.mu.Unlock()

		c.log.Warn("load failed", "source", c.src.Name(), "kind", errorKind(err), "err", err)
		c.raise(context.WithoutCancel(ctx))
		return true, err
	}
	c.dataset = points
	c.sel = DefaultSelection(len(points), c.defaultWindow)
	c.recompute()
	c.animate = true
	sel := c.sel
	c.mu.Unlock()

	c.log.Info("series loaded", "source", c.src.Name(), "points", len(points), "start", sel.Start, "end", sel.End)
	return true, nil
}

func (c *Controller) raise(ctx context.Context) {
	if c.notifier == nil {
		return
	}
	if err := c.notifier.Notify(ctx, notify.LoadFailure()); err != nil {
		c.log.Warn("notify failed", "err", err)
	}
}

func errorKind(err error) string {
	var fe *source.FetchError
	var me *source.MalformedError
	switch {
	case errors.As(err, &me):
		return "malformed"
	case errors.As(err, &fe):
		return "fetch"
	case errors.Is(err, source.ErrEmpty):
		return "empty"
	}
	return "unknown"
}

// SetSelection applies a new window, clamping it into the dataset when it is
// out of range. It does nothing while the dataset has fewer than two points.
func (c *Controller) SetSelection(start, end int) types.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.dataset)
	if n < 2 {
		return c.sel
	}
	sel := types.Selection{Start: start, End: end}
	if !sel.Valid(n) {
		c.log.Debug("clamping selection", "err", &InvalidSelectionError{Selection: sel, Len: n})
		sel = ClampSelection(sel, n)
	}
	if sel == c.sel {
		return sel
	}
	c.sel = sel
	c.recompute()
	return sel
}

// Shift moves the window by delta points, keeping its width.
func (c *Controller) Shift(delta int) types.Selection {
	c.mu.Lock()
	sel, n := c.sel, len(c.dataset)
	c.mu.Unlock()
	if n < 2 {
		return sel
	}
	w := sel.Width()
	start := clampInt(sel.Start+delta, 0, n-1-w)
	return c.SetSelection(start, start+w)
}

// recompute derives the display subset and stats. c.mu must be held.
func (c *Controller) recompute() {
	c.display = Slice(c.dataset, c.sel)
	c.stats = ComputeStats(c.display)
}

func (c *Controller) Stats() types.Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

func (c *Controller) Display() []types.DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.DataPoint(nil), c.display...)
}

func (c *Controller) Dataset() []types.DataPoint {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]types.DataPoint(nil), c.dataset...)
}

func (c *Controller) Selection() types.Selection {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sel
}

func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.dataset)
}

// Snapshot copies the current state. Animate is true only for the first
// snapshot taken after a successful load.
func (c *Controller) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := View{
		Dataset:   append([]types.DataPoint(nil), c.dataset...),
		Display:   append([]types.DataPoint(nil), c.display...),
		Selection: c.sel,
		Stats:     c.stats,
		Loading:   c.loading,
		Animate:   c.animate,
	}
	if len(c.dataset) > 0 {
		v.Label = c.dataset[len(c.dataset)-1].Label
	}
	c.animate = false
	return v
}
