package source

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/komsit37/marginview/pkg/mv/types"
)

const (
	DefaultTHSURL     = "https://dataq.10jqka.com.cn/fetch-data-server/fetch/v1/interval_data"
	DefaultTHSCode    = "48:883957"
	DefaultTHSIndexID = "rzrq_margin_trading_bal_flow_value_rate"
	DefaultTHSStart   = "2024-01-05"
	DefaultLabel      = "融资融券余额占流通市值比"
)

// THSConfig configures the 10jqka interval_data adapter.
type THSConfig struct {
	URL      string `mapstructure:"url"`
	Code     string `mapstructure:"code"`
	IndexID  string `mapstructure:"index_id"`
	Start    string `mapstructure:"start"`
	TimeZone string `mapstructure:"tz"`
	Label    string `mapstructure:"label"`
}

// THSSource fetches a daily indicator series from the 10jqka data API.
type THSSource struct {
	Client  *http.Client
	URL     string
	Code    string
	IndexID string
	Label   string
	Start   time.Time
	Loc     *time.Location

	now func() time.Time
}

// NewTHSSource applies defaults to cfg and builds the adapter.
func NewTHSSource(cfg THSConfig, client *http.Client) (*THSSource, error) {
	s := &THSSource{
		Client:  client,
		URL:     firstNonEmpty(cfg.URL, DefaultTHSURL),
		Code:    firstNonEmpty(cfg.Code, DefaultTHSCode),
		IndexID: firstNonEmpty(cfg.IndexID, DefaultTHSIndexID),
		Label:   firstNonEmpty(cfg.Label, DefaultLabel),
		now:     time.Now,
	}
	loc, err := loadLocation(firstNonEmpty(cfg.TimeZone, "Asia/Shanghai"))
	if err != nil {
		return nil, fmt.Errorf("ths: load time zone: %w", err)
	}
	s.Loc = loc
	start, err := time.ParseInLocation(types.DateLayout, firstNonEmpty(cfg.Start, DefaultTHSStart), time.UTC)
	if err != nil {
		return nil, fmt.Errorf("ths: parse start date: %w", err)
	}
	s.Start = start
	if s.Client == nil {
		s.Client = newHTTPClient(0, "")
	}
	return s, nil
}

func (s *THSSource) Name() string { return "ths" }

type thsRequest struct {
	TimeRange thsTimeRange `json:"time_range"`
	Indexes   []thsIndex   `json:"indexes"`
}

type thsTimeRange struct {
	TimeType string `json:"time_type"`
	Start    string `json:"start"`
	End      string `json:"end"`
}

type thsIndex struct {
	Codes     []string       `json:"codes"`
	IndexInfo []thsIndexInfo `json:"index_info"`
}

type thsIndexInfo struct {
	IndexID string `json:"index_id"`
}

type thsResponse struct {
	StatusCode *int   `json:"status_code"`
	StatusMsg  string `json:"status_msg"`
	Data       *struct {
		TimeRange []string `json:"time_range"`
		Data      []struct {
			Code   string `json:"code"`
			Values []struct {
				Idx    int        `json:"idx"`
				Values []*float64 `json:"values"`
			} `json:"values"`
		} `json:"data"`
	} `json:"data"`
}

// Fetch requests the full history from Start to now. windowHint is ignored:
// the API is queried by date range.
func (s *THSSource) Fetch(ctx context.Context, _ int) ([]types.DataPoint, error) {
	payload := thsRequest{
		TimeRange: thsTimeRange{
			TimeType: "TRADE_DAILY",
			Start:    strconv.FormatInt(s.Start.Unix(), 10),
			End:      strconv.FormatInt(s.now().Unix(), 10),
		},
		Indexes: []thsIndex{{
			Codes:     []string{s.Code},
			IndexInfo: []thsIndexInfo{{IndexID: s.IndexID}},
		}},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("ths: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.URL, bytes.NewReader(body))
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("platform", "hevo")
	req.Header.Set("Source-Id", "PC")

	resp, err := s.Client.Do(req)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: s.Name(), Status: resp.StatusCode, Err: fmt.Errorf("body: %s", truncate(raw, 200))}
	}
	return s.decode(raw)
}

func (s *THSSource) decode(raw []byte) ([]types.DataPoint, error) {
	var r thsResponse
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, &MalformedError{Source: s.Name(), Reason: "decode json", Err: err}
	}
	if r.StatusCode == nil {
		return nil, &MalformedError{Source: s.Name(), Reason: "missing status_code"}
	}
	if *r.StatusCode != 0 {
		return nil, &FetchError{Source: s.Name(), Err: fmt.Errorf("api error %d: %s", *r.StatusCode, r.StatusMsg)}
	}
	if r.Data == nil || r.Data.Data == nil || r.Data.TimeRange == nil {
		return nil, &MalformedError{Source: s.Name(), Reason: "missing data or time_range"}
	}

	var values []*float64
	if len(r.Data.Data) > 0 && len(r.Data.Data[0].Values) > 0 {
		values = r.Data.Data[0].Values[0].Values
	}

	points := make([]types.DataPoint, 0, len(r.Data.TimeRange))
	for i, ts := range r.Data.TimeRange {
		sec, err := strconv.ParseInt(ts, 10, 64)
		if err != nil {
			return nil, &MalformedError{Source: s.Name(), Reason: fmt.Sprintf("timestamp %q", ts), Err: err}
		}
		var v float64
		if i < len(values) && values[i] != nil {
			v = *values[i]
		}
		points = append(points, types.DataPoint{
			Date:  time.Unix(sec, 0).In(s.Loc).Format(types.DateLayout),
			Value: v,
			Label: s.Label,
		})
	}
	return types.Normalize(points), nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "…"
}
