// Package worldbank fetches indicator series from the World Bank v2 API
package worldbank

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/aouyang1/go-inflation-forecaster/observation"
	"github.com/goccy/go-json"
)

const (
	DefaultBaseURL   = "http://api.worldbank.org/v2"
	DefaultCountry   = "NG"
	DefaultIndicator = "FP.CPI.TOTL.ZG"
	DefaultPerPage   = 1000
	DefaultTimeout   = 30 * time.Second

	// maxPages bounds pagination against a misbehaving server
	maxPages = 100
)

// Source returns an observation series
type Source interface {
	Fetch(ctx context.Context) (observation.Series, error)
}

// HTTPClient interface allows mocking http.Client in tests
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client fetches a single country indicator
type Client struct {
	baseURL    string
	country    string
	indicator  string
	perPage    int
	httpClient HTTPClient
}

// ClientOption allows customizing the client
type ClientOption func(*Client)

// WithHTTPClient allows injecting a custom HTTP client
func WithHTTPClient(client HTTPClient) ClientOption {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithBaseURL points the client at a different API root
func WithBaseURL(u string) ClientOption {
	return func(c *Client) {
		c.baseURL = u
	}
}

func WithCountry(country string) ClientOption {
	return func(c *Client) {
		c.country = country
	}
}

func WithIndicator(indicator string) ClientOption {
	return func(c *Client) {
		c.indicator = indicator
	}
}

// WithPerPage sets the page size requested from the API
func WithPerPage(n int) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.perPage = n
		}
	}
}

// WithTimeout sets the timeout of the default HTTP client
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		if d > 0 {
			c.httpClient = &http.Client{Timeout: d}
		}
	}
}

// NewClient creates a World Bank client for Nigerian consumer price inflation unless
// overridden by options
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    DefaultBaseURL,
		country:    DefaultCountry,
		indicator:  DefaultIndicator,
		perPage:    DefaultPerPage,
		httpClient: &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// pageMeta is the first element of the response envelope. The API is inconsistent about
// encoding these as numbers or strings.
type pageMeta struct {
	Page    flexInt `json:"page"`
	Pages   flexInt `json:"pages"`
	PerPage flexInt `json:"per_page"`
	Total   flexInt `json:"total"`
}

type apiMessage struct {
	ID    string `json:"id"`
	Key   string `json:"key"`
	Value string `json:"value"`
}

// record is one observation of the indicator. A null value is a gap in the data while a
// missing value key is a malformed record, so key presence is tracked separately.
type record struct {
	Date     *string
	Value    *float64
	hasValue bool
}

func (r *record) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	*r = record{}
	if raw, ok := fields["date"]; ok {
		if err := json.Unmarshal(raw, &r.Date); err != nil {
			return fmt.Errorf("invalid date, %w", err)
		}
	}
	if raw, ok := fields["value"]; ok {
		r.hasValue = true
		if err := json.Unmarshal(raw, &r.Value); err != nil {
			return fmt.Errorf("invalid value, %w", err)
		}
	}
	return nil
}

type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	data = bytes.Trim(data, `"`)
	if len(data) == 0 || string(data) == "null" {
		*f = 0
		return nil
	}
	v, err := strconv.Atoi(string(data))
	if err != nil {
		return err
	}
	*f = flexInt(v)
	return nil
}

// URL returns the request url of a page
func (c *Client) URL(page int) string {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("per_page", strconv.Itoa(c.perPage))
	if page > 1 {
		q.Set("page", strconv.Itoa(page))
	}
	return fmt.Sprintf("%s/country/%s/indicator/%s?%s",
		c.baseURL, url.PathEscape(c.country), url.PathEscape(c.indicator), q.Encode())
}

// Fetch retrieves every page of the indicator, drops null values and returns the series
// sorted ascending by month
func (c *Client) Fetch(ctx context.Context) (observation.Series, error) {
	start := time.Now()
	slog.Info("fetching indicator", "country", c.country, "indicator", c.indicator)

	var records []record
	meta, page, err := c.fetchPage(ctx, 1)
	if err != nil {
		return nil, err
	}
	records = append(records, page...)

	pages := min(int(meta.Pages), maxPages)
	for k := 2; k <= pages; k++ {
		_, page, err := c.fetchPage(ctx, k)
		if err != nil {
			return nil, err
		}
		records = append(records, page...)
	}

	series, err := toSeries(records)
	if err != nil {
		return nil, err
	}

	slog.Info("fetched indicator",
		"country", c.country,
		"indicator", c.indicator,
		"rows", len(series),
		"pages", max(pages, 1),
		"duration", time.Since(start),
	)
	return series, nil
}

func (c *Client) fetchPage(ctx context.Context, page int) (pageMeta, []record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.URL(page), nil)
	if err != nil {
		return pageMeta{}, nil, fmt.Errorf("unable to create request, %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pageMeta{}, nil, fmt.Errorf("request failed, %w, %w", err, ErrNetwork)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return pageMeta{}, nil, fmt.Errorf("unexpected status code %d, %w", resp.StatusCode, ErrNetwork)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return pageMeta{}, nil, fmt.Errorf("unable to read response body, %w, %w", err, ErrNetwork)
	}
	return decodePage(body)
}

// decodePage splits the two element envelope into the page metadata and the records
func decodePage(body []byte) (pageMeta, []record, error) {
	var envelope []json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return pageMeta{}, nil, fmt.Errorf("response is not a json array, %w, %w", err, ErrDataFormat)
	}
	if len(envelope) == 0 {
		return pageMeta{}, nil, fmt.Errorf("empty response, %w", ErrDataFormat)
	}

	var errEnvelope struct {
		Message []apiMessage `json:"message"`
	}
	if err := json.Unmarshal(envelope[0], &errEnvelope); err == nil && len(errEnvelope.Message) > 0 {
		msg := errEnvelope.Message[0]
		return pageMeta{}, nil, fmt.Errorf("api error %s %s: %s, %w", msg.ID, msg.Key, msg.Value, ErrDataFormat)
	}

	if len(envelope) < 2 {
		return pageMeta{}, nil, fmt.Errorf("expected 2 elements in response but got %d, %w", len(envelope), ErrDataFormat)
	}

	var meta pageMeta
	if err := json.Unmarshal(envelope[0], &meta); err != nil {
		return pageMeta{}, nil, fmt.Errorf("invalid page metadata, %w, %w", err, ErrDataFormat)
	}

	// an indicator without data returns null in place of the record list
	if string(bytes.TrimSpace(envelope[1])) == "null" {
		return meta, nil, nil
	}
	var records []record
	if err := json.Unmarshal(envelope[1], &records); err != nil {
		return pageMeta{}, nil, fmt.Errorf("invalid records, %w, %w", err, ErrDataFormat)
	}
	return meta, records, nil
}

// toSeries drops records with a null value and parses the period of the rest. Records
// without a date or value key are rejected.
func toSeries(records []record) (observation.Series, error) {
	obs := make([]observation.Observation, 0, len(records))
	for i, r := range records {
		if r.Date == nil {
			return nil, fmt.Errorf("record %d missing date, %w", i, ErrDataFormat)
		}
		if !r.hasValue {
			return nil, fmt.Errorf("record %d, %s missing value, %w", i, *r.Date, ErrDataFormat)
		}
		if r.Value == nil {
			continue
		}
		d, err := ParseDate(*r.Date)
		if err != nil {
			return nil, fmt.Errorf("record %d, %w", i, err)
		}
		obs = append(obs, observation.Observation{Date: d, Value: *r.Value})
	}

	series := observation.New(obs)
	if err := series.Validate(); err != nil {
		return nil, fmt.Errorf("unable to build series, %w, %w", err, ErrDataFormat)
	}
	return series, nil
}
