package source

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
)

func createDB(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "series.db")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	stmts := []string{
		`CREATE TABLE margin_ratio (date TEXT PRIMARY KEY, value REAL, label TEXT)`,
		`INSERT INTO margin_ratio VALUES ('2024-01-09', 2.3, 'ratio')`,
		`INSERT INTO margin_ratio VALUES ('2024-01-05', 2.1, NULL)`,
		`INSERT INTO margin_ratio VALUES ('2024-01-08', NULL, 'ratio')`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			t.Fatalf("exec %q: %v", s, err)
		}
	}
	return path
}

func TestSQLiteFetch(t *testing.T) {
	s, err := NewSQLiteSource(SQLiteConfig{Path: createDB(t)})
	if err != nil {
		t.Fatal(err)
	}
	points, err := s.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(points) != 3 {
		t.Fatalf("len(points) = %d, want 3", len(points))
	}
	if points[0].Date != "2024-01-05" || points[0].Value != 2.1 || points[0].Label != "" {
		t.Errorf("points[0] = %+v", points[0])
	}
	if points[1].Value != 0 {
		t.Errorf("NULL value = %v, want 0", points[1].Value)
	}
}

func TestSQLiteErrors(t *testing.T) {
	path := createDB(t)

	s, _ := NewSQLiteSource(SQLiteConfig{Path: path, Table: "nope"})
	_, err := s.Fetch(context.Background(), 0)
	var me *MalformedError
	if !errors.As(err, &me) {
		t.Errorf("missing table: error %v is not a MalformedError", err)
	}

	s, _ = NewSQLiteSource(SQLiteConfig{Path: filepath.Join(t.TempDir(), "absent.db")})
	_, err = s.Fetch(context.Background(), 0)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Errorf("missing file: error %v is not a FetchError", err)
	}

	if _, err := NewSQLiteSource(SQLiteConfig{Path: path, Table: "x; DROP TABLE y"}); err == nil {
		t.Error("expected error for invalid table name")
	}
}
