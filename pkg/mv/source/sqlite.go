package source

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"regexp"

	_ "modernc.org/sqlite"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// SQLiteConfig points the adapter at an existing database.
type SQLiteConfig struct {
	Path  string `mapstructure:"path"`
	Table string `mapstructure:"table"`
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteSource reads (date, value, label) rows from a table. The database is
// opened read-only for each fetch.
type SQLiteSource struct {
	Path  string
	Table string
}

func NewSQLiteSource(cfg SQLiteConfig) (*SQLiteSource, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite: path is required")
	}
	table := firstNonEmpty(cfg.Table, "margin_ratio")
	if !identRe.MatchString(table) {
		return nil, fmt.Errorf("sqlite: invalid table name %q", table)
	}
	return &SQLiteSource{Path: cfg.Path, Table: table}, nil
}

func (s *SQLiteSource) Name() string { return "sqlite" }

func (s *SQLiteSource) Fetch(ctx context.Context, _ int) ([]types.DataPoint, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	db, err := sql.Open("sqlite", "file:"+s.Path+"?mode=ro")
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: fmt.Errorf("open sqlite: %w", err)}
	}
	defer db.Close()

	q := fmt.Sprintf(`SELECT date, value, COALESCE(label, '') FROM %s ORDER BY date`, s.Table)
	rows, err := db.QueryContext(ctx, q)
	if err != nil {
		return nil, &MalformedError{Source: s.Name(), Reason: "query " + s.Table, Err: err}
	}
	defer rows.Close()

	var points []types.DataPoint
	for rows.Next() {
		var p types.DataPoint
		var v sql.NullFloat64
		if err := rows.Scan(&p.Date, &v, &p.Label); err != nil {
			return nil, &MalformedError{Source: s.Name(), Reason: "scan row", Err: err}
		}
		p.Value = v.Float64
		points = append(points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	return types.Normalize(points), nil
}
