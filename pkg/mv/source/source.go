// Package source defines the DataSource contract and its adapters. Every
// adapter returns the same normalized output: points ascending by date with
// unique dates.
package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"time"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// Source fetches the series. windowHint is the number of trailing points the
// caller intends to show; adapters may use it to bound their request.
type Source interface {
	Fetch(ctx context.Context, windowHint int) ([]types.DataPoint, error)
	Name() string
}

// ErrEmpty marks a fetch that succeeded but returned no points.
var ErrEmpty = errors.New("empty result")

// FetchError is a transport failure or a non-success status.
type FetchError struct {
	Source string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: fetch failed with status %d: %v", e.Source, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: fetch failed: %v", e.Source, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// MalformedError reports a payload whose shape does not match what the
// adapter expects.
type MalformedError struct {
	Source string
	Reason string
	Err    error
}

func (e *MalformedError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: malformed response: %s: %v", e.Source, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: malformed response: %s", e.Source, e.Reason)
}

func (e *MalformedError) Unwrap() error { return e.Err }

// Config selects and configures an adapter.
type Config struct {
	Kind    string        `mapstructure:"kind"`
	Timeout time.Duration `mapstructure:"timeout"`
	Proxy   string        `mapstructure:"proxy"`

	THS    THSConfig    `mapstructure:"ths"`
	Yahoo  YahooConfig  `mapstructure:"yahoo"`
	YAML   YAMLConfig   `mapstructure:"yaml"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`
	Mock   MockConfig   `mapstructure:"mock"`
}

// Factory builds a Source from configuration.
type Factory func(cfg Config) (Source, error)

// Registry maps source kinds to factories.
var Registry = map[string]Factory{}

func init() {
	Registry["ths"] = func(cfg Config) (Source, error) { return NewTHSSource(cfg.THS, newHTTPClient(cfg.Timeout, cfg.Proxy)) }
	Registry["yahoo"] = func(cfg Config) (Source, error) {
		return NewYahooSource(cfg.Yahoo, newHTTPClient(cfg.Timeout, cfg.Proxy))
	}
	Registry["yaml"] = func(cfg Config) (Source, error) { return NewYAMLSource(cfg.YAML) }
	Registry["sqlite"] = func(cfg Config) (Source, error) { return NewSQLiteSource(cfg.SQLite) }
	Registry["mock"] = func(cfg Config) (Source, error) { return NewMockSource(cfg.Mock), nil }
}

// New builds the adapter named by cfg.Kind.
func New(cfg Config) (Source, error) {
	f, ok := Registry[cfg.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown source kind %q (available: %v)", cfg.Kind, Kinds())
	}
	return f(cfg)
}

// Kinds lists registered source kinds in sorted order.
func Kinds() []string {
	out := make([]string, 0, len(Registry))
	for k := range Registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func newHTTPClient(timeout time.Duration, proxyURL string) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{Timeout: timeout, Transport: transport}
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
