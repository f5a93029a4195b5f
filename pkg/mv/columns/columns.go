package columns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/komsit37/marginview/pkg/mv/format"
	"github.com/komsit37/marginview/pkg/mv/types"
)

// Row is one point of the display subset with the context resolvers need.
type Row struct {
	Index int // position in the full dataset
	Point types.DataPoint
	Prev  *types.DataPoint // previous point inside the window, nil for the first
	Stats types.Stats
}

// Resolver converts a row into a string value for a given column.
type Resolver func(r Row) string

// Registry maps column keys to resolvers.
var Registry = map[string]Resolver{}

// numeric columns are right-aligned by tabular renderers.
var numeric = map[string]bool{"idx": true, "value": true, "chg": true, "dev": true}

func init() {
	Registry["idx"] = func(r Row) string { return fmt.Sprint(r.Index) }
	Registry["date"] = func(r Row) string { return r.Point.Date }
	Registry["value"] = func(r Row) string { return format.Fixed2(r.Point.Value) }
	Registry["label"] = func(r Row) string { return r.Point.Label }
	// chg: change against the previous point in the window
	Registry["chg"] = func(r Row) string {
		if r.Prev == nil {
			return ""
		}
		return format.Signed(r.Point.Value - r.Prev.Value)
	}
	// dev: deviation from the window mean
	Registry["dev"] = func(r Row) string { return format.Signed(r.Point.Value - r.Stats.Avg) }
}

// Rows builds table rows for a display subset that starts at dataset index
// offset.
func Rows(display []types.DataPoint, offset int, stats types.Stats) []Row {
	rows := make([]Row, len(display))
	for i := range display {
		rows[i] = Row{Index: offset + i, Point: display[i], Stats: stats}
		if i > 0 {
			rows[i].Prev = &display[i-1]
		}
	}
	return rows
}

// Compute determines the final column order. Explicit columns are honored in
// order with duplicates removed; otherwise the basic set is used.
func Compute(explicit []string) []string {
	if len(explicit) == 0 {
		return append([]string(nil), Sets["basic"]...)
	}
	seen := map[string]struct{}{}
	out := make([]string, 0, len(explicit))
	for _, k := range explicit {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" {
			continue
		}
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, k)
	}
	if len(out) == 0 {
		return append([]string(nil), Sets["basic"]...)
	}
	return out
}

// Validate reports the first column with no resolver.
func Validate(cols []string) error {
	for _, c := range cols {
		if _, ok := Registry[c]; !ok {
			return fmt.Errorf("unknown column %q (available: %s)", c, strings.Join(Available(), ", "))
		}
	}
	return nil
}

// Available lists the registered column keys in sorted order.
func Available() []string {
	keys := make([]string, 0, len(Registry))
	for k := range Registry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// RenderValue calls the resolver for the given column.
func RenderValue(col string, r Row) string {
	if res, ok := Registry[col]; ok {
		return res(r)
	}
	return ""
}

// Header is the display title of a column.
func Header(col string) string { return strings.ToUpper(col) }

// Numeric reports whether a column holds numbers.
func Numeric(col string) bool { return numeric[col] }
