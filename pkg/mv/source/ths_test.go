package source

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestTHS(t *testing.T, handler http.HandlerFunc) *THSSource {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	s, err := NewTHSSource(THSConfig{URL: srv.URL, TimeZone: "UTC"}, srv.Client())
	if err != nil {
		t.Fatal(err)
	}
	s.now = func() time.Time { return time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC) }
	return s
}

func TestTHSFetch(t *testing.T) {
	var gotReq thsRequest
	s := newTestTHS(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("platform") != "hevo" || r.Header.Get("Source-Id") != "PC" {
			t.Errorf("missing platform headers: %v", r.Header)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &gotReq); err != nil {
			t.Errorf("request body: %v", err)
		}
		io.WriteString(w, `{
			"status_code": 0, "status_msg": "ok",
			"data": {
				"time_range": ["1704758400", "1704412800", "1704672000"],
				"data": [{"code": "48:883957", "values": [{"idx": 0, "values": [2.5, 2.1, null]}]}]
			}
		}`)
	})

	points, err := s.Fetch(context.Background(), 200)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if gotReq.TimeRange.TimeType != "TRADE_DAILY" || gotReq.TimeRange.Start != "1704412800" || gotReq.TimeRange.End != "1704844800" {
		t.Errorf("time_range = %+v", gotReq.TimeRange)
	}
	if len(gotReq.Indexes) != 1 || gotReq.Indexes[0].Codes[0] != DefaultTHSCode || gotReq.Indexes[0].IndexInfo[0].IndexID != DefaultTHSIndexID {
		t.Errorf("indexes = %+v", gotReq.Indexes)
	}

	want := []struct {
		date  string
		value float64
	}{
		{"2024-01-05", 2.1},
		{"2024-01-08", 0},
		{"2024-01-09", 2.5},
	}
	if len(points) != len(want) {
		t.Fatalf("len(points) = %d, want %d", len(points), len(want))
	}
	for i, w := range want {
		if points[i].Date != w.date || points[i].Value != w.value || points[i].Label != DefaultLabel {
			t.Errorf("points[%d] = %+v, want %s/%v", i, points[i], w.date, w.value)
		}
	}
}

func TestTHSFetchErrors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		body      string
		malformed bool
	}{
		{"http status", http.StatusBadGateway, `oops`, false},
		{"api status", http.StatusOK, `{"status_code": 1001, "status_msg": "denied"}`, false},
		{"bad json", http.StatusOK, `{"status_code":`, true},
		{"missing status", http.StatusOK, `{"data": {}}`, true},
		{"missing data", http.StatusOK, `{"status_code": 0}`, true},
		{"missing time_range", http.StatusOK, `{"status_code": 0, "data": {"data": []}}`, true},
		{"bad timestamp", http.StatusOK, `{"status_code": 0, "data": {"time_range": ["x"], "data": []}}`, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestTHS(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})
			_, err := s.Fetch(context.Background(), 0)
			if err == nil {
				t.Fatal("Fetch() error = nil")
			}
			var me *MalformedError
			var fe *FetchError
			if tt.malformed && !errors.As(err, &me) {
				t.Errorf("error %v is not a MalformedError", err)
			}
			if !tt.malformed && !errors.As(err, &fe) {
				t.Errorf("error %v is not a FetchError", err)
			}
		})
	}
}

func TestTHSEmptyValues(t *testing.T) {
	s := newTestTHS(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"status_code": 0, "data": {"time_range": [], "data": []}}`)
	})
	points, err := s.Fetch(context.Background(), 0)
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if len(points) != 0 {
		t.Errorf("len(points) = %d, want 0", len(points))
	}
}

func TestTHSTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()
	s, err := NewTHSSource(THSConfig{URL: srv.URL, TimeZone: "UTC"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	_, err = s.Fetch(context.Background(), 0)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("error %v is not a FetchError", err)
	}
}
