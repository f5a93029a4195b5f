package pipeline

import (
	"context"
	"io"
	"log/slog"

	"github.com/komsit37/marginview/pkg/mv/render"
	"github.com/komsit37/marginview/pkg/mv/span"
	"github.com/komsit37/marginview/pkg/mv/window"
)

// Runner loads the series once, applies the initial span and renders the
// resulting view.
type Runner struct {
	Controller *window.Controller
	Renderer   render.Renderer
	Writer     io.Writer
	Logger     *slog.Logger
}

type ExecuteOptions struct {
	Span          span.Span
	DefaultWindow int
	Columns       []string
	Color         bool
	PrettyJSON    bool
	MaxColWidth   int
	Width, Height int
}

// Execute runs the flow. A failed load is not an error here: the controller
// has already raised the notice, and the renderer prints its placeholder.
func (r *Runner) Execute(ctx context.Context, opts ExecuteOptions) error {
	log := r.Logger
	if log == nil {
		log = slog.Default()
	}
	if _, err := r.Controller.Load(ctx); err != nil {
		log.Debug("load failed; rendering placeholder", "err", err)
	}

	if n := r.Controller.Len(); n >= 2 {
		sel := opts.Span.Resolve(r.Controller.Dataset(), opts.DefaultWindow)
		r.Controller.SetSelection(sel.Start, sel.End)
		log.Debug("span applied", "span", opts.Span.String(), "start", sel.Start, "end", sel.End)
	}

	return r.Renderer.Render(r.Writer, r.Controller.Snapshot(), render.RenderOptions{
		Columns:     opts.Columns,
		Color:       opts.Color,
		PrettyJSON:  opts.PrettyJSON,
		MaxColWidth: opts.MaxColWidth,
		Width:       opts.Width,
		Height:      opts.Height,
	})
}
