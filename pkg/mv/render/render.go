package render

import (
	"fmt"
	"io"
	"sort"

	"github.com/komsit37/marginview/pkg/mv/window"
)

// Renderer renders a controller view to an output writer.
type Renderer interface {
	Render(w io.Writer, v window.View, opts RenderOptions) error
}

type RenderOptions struct {
	Columns     []string
	Color       bool
	PrettyJSON  bool
	MaxColWidth int
	Width       int // png only
	Height      int // png only
}

// Placeholder is the text shown instead of an empty series.
func Placeholder(v window.View) string {
	if v.Loading {
		return "loading…"
	}
	return "no data"
}

// Formats maps --format values to renderer constructors.
var Formats = map[string]func() Renderer{
	"table":    func() Renderer { return NewTableRenderer() },
	"csv":      func() Renderer { return NewCSVRenderer() },
	"markdown": func() Renderer { return NewMarkdownRenderer() },
	"json":     func() Renderer { return NewJSONRenderer() },
	"png":      func() Renderer { return NewPNGRenderer() },
}

// ForFormat returns the renderer registered for name.
func ForFormat(name string) (Renderer, error) {
	f, ok := Formats[name]
	if !ok {
		names := make([]string, 0, len(Formats))
		for k := range Formats {
			names = append(names, k)
		}
		sort.Strings(names)
		return nil, fmt.Errorf("unknown format %q (available: %v)", name, names)
	}
	return f(), nil
}
