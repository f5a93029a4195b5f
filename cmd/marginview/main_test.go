package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/komsit37/marginview/pkg/mv/config"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("MV_LOG_LEVEL", "error")
	a := &app{v: config.New()}
	root := a.rootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestShowJSONFromMock(t *testing.T) {
	out, err := run(t, "show", "--source", "mock", "--format", "json", "--span", "last:10")
	if err != nil {
		t.Fatalf("show: %v\n%s", err, out)
	}
	var doc struct {
		Status string            `json:"status"`
		Points []json.RawMessage `json:"points"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if doc.Status != "ok" || len(doc.Points) != 10 {
		t.Errorf("status=%q points=%d", doc.Status, len(doc.Points))
	}
}

func TestShowRejectsBadInput(t *testing.T) {
	for _, args := range [][]string{
		{"show", "--source", "mock", "--span", "last:1"},
		{"show", "--source", "mock", "--format", "xml"},
		{"show", "--source", "mock", "--columns", "nope"},
		{"show", "--source", "mock", "--set", "nope"},
		{"show", "--source", "carrier-pigeon"},
	} {
		if _, err := run(t, args...); err == nil {
			t.Errorf("%v: expected error", args)
		}
	}
}

func TestPNGWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chart.png")
	if out, err := run(t, "png", "--source", "mock", "--out", path, "--width", "400", "--height", "200"); err != nil {
		t.Fatalf("png: %v\n%s", err, out)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(data, []byte("\x89PNG")) {
		t.Errorf("not a png: % x", data[:8])
	}
}

func TestSourcesMarksActive(t *testing.T) {
	out, err := run(t, "sources", "--source", "yaml", "--config", writeConfig(t, "source:\n  yaml:\n    path: x.yaml\n"))
	if err != nil {
		t.Fatalf("sources: %v", err)
	}
	if !strings.Contains(out, "* yaml") || !strings.Contains(out, "  ths") {
		t.Errorf("sources output:\n%s", out)
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mv.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
