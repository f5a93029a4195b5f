package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	yfgo "github.com/komsit37/yf-go"

	"github.com/komsit37/marginview/pkg/mv/types"
)

// YahooConfig configures the Yahoo Finance chart adapter.
type YahooConfig struct {
	Symbol   string `mapstructure:"symbol"`
	Label    string `mapstructure:"label"`
	TimeZone string `mapstructure:"tz"`
}

// LabelFunc resolves a display label for a symbol.
type LabelFunc func(ctx context.Context, symbol string) (string, error)

// YahooSource reads daily closes through the yf-go chart client. The series
// label comes from the quote summary unless configured.
type YahooSource struct {
	Client  *yfgo.Client
	Symbol  string
	Label   string
	Loc     *time.Location
	Labeler LabelFunc
}

// NewYahooSource builds a yf-go client on top of httpClient so chart and
// label requests share its timeout and proxy. Responses are not cached.
func NewYahooSource(cfg YahooConfig, httpClient *http.Client) (*YahooSource, error) {
	if cfg.Symbol == "" {
		return nil, fmt.Errorf("yahoo: symbol is required")
	}
	loc, err := loadLocation(cfg.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("yahoo: load time zone: %w", err)
	}
	if httpClient == nil {
		httpClient = newHTTPClient(0, "")
	}
	hc := *httpClient // yf-go installs its cookie jar on the client it is given
	yf := yfgo.NewClient(yfgo.WithHTTPClient(&hc), yfgo.WithCacheDisabled())
	return &YahooSource{
		Client:  yf,
		Symbol:  cfg.Symbol,
		Label:   cfg.Label,
		Loc:     loc,
		Labeler: quoteSummaryLabel(yf),
	}, nil
}

func (s *YahooSource) Name() string { return "yahoo" }

// quoteSummaryLabel looks up the short (or long) name through yf-go.
func quoteSummaryLabel(client *yfgo.Client) LabelFunc {
	return func(ctx context.Context, symbol string) (string, error) {
		res, err := client.QuoteSummaryTyped(ctx, symbol, []yfgo.QuoteSummaryModule{yfgo.ModulePrice})
		if err != nil {
			return "", err
		}
		if res.Price == nil {
			return "", fmt.Errorf("no price module for %s", symbol)
		}
		return firstNonEmpty(res.Price.ShortName, res.Price.LongName), nil
	}
}

// yahooRange picks the smallest chart range covering n daily points.
func yahooRange(n int) string {
	switch {
	case n <= 0:
		return "2y"
	case n <= 21:
		return "1mo"
	case n <= 63:
		return "3mo"
	case n <= 126:
		return "6mo"
	case n <= 252:
		return "1y"
	case n <= 504:
		return "2y"
	case n <= 1260:
		return "5y"
	}
	return "max"
}

func (s *YahooSource) Fetch(ctx context.Context, windowHint int) ([]types.DataPoint, error) {
	res, err := s.Client.ChartTyped(ctx, s.Symbol, yfgo.ChartOptions{Interval: "1d", Range: yahooRange(windowHint)})
	if err != nil {
		var syntaxErr *json.SyntaxError
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
			return nil, &MalformedError{Source: s.Name(), Reason: "decode json", Err: err}
		}
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	if len(res.Timestamp) == 0 {
		return nil, nil
	}
	if len(res.Indicators.Quote) == 0 {
		return nil, &MalformedError{Source: s.Name(), Reason: "missing quote indicators"}
	}
	closes := res.Indicators.Quote[0].Close
	if len(closes) != len(res.Timestamp) {
		return nil, &MalformedError{Source: s.Name(), Reason: fmt.Sprintf("%d timestamps but %d closes", len(res.Timestamp), len(closes))}
	}

	label := s.label(ctx)
	points := make([]types.DataPoint, 0, len(res.Timestamp))
	for i, ts := range res.Timestamp {
		if closes[i] == nil {
			continue // holidays come back as null bars
		}
		points = append(points, types.DataPoint{
			Date:  time.Unix(ts, 0).In(s.Loc).Format(types.DateLayout),
			Value: *closes[i],
			Label: label,
		})
	}
	return types.Normalize(points), nil
}

func (s *YahooSource) label(ctx context.Context) string {
	if s.Label != "" {
		return s.Label
	}
	if s.Labeler != nil {
		if l, err := s.Labeler(ctx, s.Symbol); err == nil && l != "" {
			return l
		}
	}
	return s.Symbol
}
