package render

import (
	"encoding/json"
	"io"

	"github.com/komsit37/marginview/pkg/mv/types"
	"github.com/komsit37/marginview/pkg/mv/window"
)

// jsonModel is the output shape for JSONRenderer.
type jsonModel struct {
	Label     string            `json:"label,omitempty"`
	Status    string            `json:"status"`
	Selection *jsonSelection    `json:"selection,omitempty"`
	Stats     *types.Stats      `json:"stats,omitempty"`
	Points    []types.DataPoint `json:"points,omitempty"`
}

type jsonSelection struct {
	Start     int    `json:"start"`
	End       int    `json:"end"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

type JSONRenderer struct{}

func NewJSONRenderer() *JSONRenderer { return &JSONRenderer{} }

func (r *JSONRenderer) Render(w io.Writer, v window.View, opts RenderOptions) error {
	out := jsonModel{Label: v.Label, Status: "ok"}
	if v.Empty() {
		out.Status = Placeholder(v)
	} else {
		stats := v.Stats
		out.Stats = &stats
		out.Points = v.Display
		out.Selection = &jsonSelection{
			Start:     v.Selection.Start,
			End:       v.Selection.End,
			StartDate: v.Display[0].Date,
			EndDate:   v.Display[len(v.Display)-1].Date,
		}
	}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if opts.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(out)
}
