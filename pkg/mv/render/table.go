package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/komsit37/marginview/pkg/mv/columns"
	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/window"
)

// tableMode selects how a go-pretty writer is flushed.
type tableMode int

const (
	modeTable tableMode = iota
	modeCSV
	modeMarkdown
)

type TableRenderer struct{ mode tableMode }

func NewTableRenderer() *TableRenderer    { return &TableRenderer{mode: modeTable} }
func NewCSVRenderer() *TableRenderer      { return &TableRenderer{mode: modeCSV} }
func NewMarkdownRenderer() *TableRenderer { return &TableRenderer{mode: modeMarkdown} }

func (r *TableRenderer) Render(w io.Writer, v window.View, opts RenderOptions) error {
	if v.Empty() {
		if r.mode == modeCSV {
			_, err := fmt.Fprintf(w, "# %s\n", Placeholder(v))
			return err
		}
		_, err := fmt.Fprintln(w, Placeholder(v))
		return err
	}

	cols := columns.Compute(opts.Columns)
	if err := columns.Validate(cols); err != nil {
		return err
	}

	if r.mode == modeTable && strings.TrimSpace(v.Label) != "" {
		fmt.Fprintln(w, text.Bold.Sprint(v.Label))
	}

	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	if r.mode == modeTable {
		tw.SetStyle(table.StyleColoredDark)
		if !opts.Color {
			tw.SetStyle(table.StyleLight)
		}
		tw.Style().Options.DrawBorder = false
		tw.Style().Options.SeparateRows = false
		tw.Style().Options.SeparateColumns = false
	}

	hdr := make(table.Row, len(cols))
	for i, c := range cols {
		if r.mode == modeCSV {
			hdr[i] = c
		} else {
			hdr[i] = columns.Header(c)
		}
	}
	tw.AppendHeader(hdr)

	maxWidth := opts.MaxColWidth
	if maxWidth <= 0 {
		maxWidth = 40
	}
	cfgs := make([]table.ColumnConfig, 0, len(cols))
	for i, c := range cols {
		cfg := table.ColumnConfig{Number: i + 1, WidthMax: maxWidth}
		if columns.Numeric(c) {
			cfg.Align = text.AlignRight
			cfg.AlignHeader = text.AlignRight
		}
		cfgs = append(cfgs, cfg)
	}
	tw.SetColumnConfigs(cfgs)

	for _, row := range columns.Rows(v.Display, v.Selection.Start, v.Stats) {
		out := make(table.Row, len(cols))
		for i, c := range cols {
			val := columns.RenderValue(c, row)
			if opts.Color && r.mode == modeTable && (c == "chg" || c == "dev") {
				val = colorSigned(val)
			}
			out[i] = val
		}
		tw.AppendRow(out)
	}

	switch r.mode {
	case modeCSV:
		tw.RenderCSV()
		return nil
	case modeMarkdown:
		tw.RenderMarkdown()
	default:
		tw.Render()
	}
	_, err := fmt.Fprintln(w, format.StatsLine(v.Stats))
	return err
}

func colorSigned(s string) string {
	switch {
	case strings.HasPrefix(s, "-"):
		return text.Colors{text.FgRed}.Sprint(s)
	case s != "" && s != "+0.00":
		return text.Colors{text.FgGreen}.Sprint(s)
	}
	return s
}
