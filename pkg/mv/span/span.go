// Package span parses the initial-window expressions accepted by the CLI.
package span

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/komsit37/marginview/pkg/mv/types"
	"github.com/komsit37/marginview/pkg/mv/window"
)

// Kind identifies the expression form.
type Kind int

const (
	Default Kind = iota // trailing default window
	All
	Last
	Dates
)

// Span is a parsed expression. From and To are inclusive dates and may be
// empty for an open end.
type Span struct {
	Kind Kind
	N    int
	From string
	To   string
}

// ParseError reports an expression that could not be parsed.
type ParseError struct {
	Expr   string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("invalid span %q: %s", e.Expr, e.Reason)
}

// Parse builds a Span from an expression:
// - "" or "default": the trailing default window
// - "all": the whole dataset
// - "last:N": the trailing N points
// - "2024-01-05..2024-06-30": a date range, either side may be empty
func Parse(expr string) (Span, error) {
	e := strings.ToLower(strings.TrimSpace(expr))
	switch {
	case e == "" || e == "default":
		return Span{Kind: Default}, nil
	case e == "all":
		return Span{Kind: All}, nil
	case strings.HasPrefix(e, "last:"):
		n, err := strconv.Atoi(strings.TrimSpace(e[len("last:"):]))
		if err != nil || n < 2 {
			return Span{}, &ParseError{Expr: expr, Reason: "last:N needs an integer N >= 2"}
		}
		return Span{Kind: Last, N: n}, nil
	case strings.Contains(e, ".."):
		from, to, _ := strings.Cut(e, "..")
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		for _, d := range []string{from, to} {
			if d == "" {
				continue
			}
			if _, err := time.Parse(types.DateLayout, d); err != nil {
				return Span{}, &ParseError{Expr: expr, Reason: "dates must be YYYY-MM-DD"}
			}
		}
		if from != "" && to != "" && from > to {
			return Span{}, &ParseError{Expr: expr, Reason: "range start is after its end"}
		}
		return Span{Kind: Dates, From: from, To: to}, nil
	}
	return Span{}, &ParseError{Expr: expr, Reason: "expected default, all, last:N or FROM..TO"}
}

// Resolve maps the span onto dataset indices. The result is always a valid
// selection for datasets of two or more points.
func (s Span) Resolve(dataset []types.DataPoint, defaultWindow int) types.Selection {
	n := len(dataset)
	switch s.Kind {
	case All:
		return window.ClampSelection(types.Selection{Start: 0, End: n - 1}, n)
	case Last:
		return window.DefaultSelection(n, s.N)
	case Dates:
		start, end := 0, n-1
		if s.From != "" {
			start = sort.Search(n, func(i int) bool { return dataset[i].Date >= s.From })
		}
		if s.To != "" {
			end = sort.Search(n, func(i int) bool { return dataset[i].Date > s.To }) - 1
		}
		return window.ClampSelection(types.Selection{Start: start, End: end}, n)
	}
	return window.DefaultSelection(n, defaultWindow)
}

func (s Span) String() string {
	switch s.Kind {
	case All:
		return "all"
	case Last:
		return fmt.Sprintf("last:%d", s.N)
	case Dates:
		return s.From + ".." + s.To
	}
	return "default"
}
