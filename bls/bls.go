// Package bls reads monthly series from the public API of the US Bureau of
// Labor Statistics.
package bls

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/macro"
	"github.com/etnz/macro/remote"
	"github.com/shopspring/decimal"
)

// Provider is the name of the provider in errors and metrics.
const Provider = macro.SourceBLS

// URL is the v2 timeseries endpoint.
const URL = "https://api.bls.gov/publicAPI/v2/timeseries/data/"

// Number of years a single request may span, without and with a registration key.
const (
	maxYears    = 10
	maxYearsKey = 20
)

// annual is the period of the annual average, published along monthly values.
const annual = "M13"

// Client fetches BLS series. The registration key is optional.
type Client struct {
	APIKey string
	URL    string
	HTTP   *http.Client
}

// New returns a client on the public endpoint.
func New(apiKey string, opts remote.Options) *Client {
	if opts.Cacheable == nil {
		opts.Cacheable = processed
	}
	return &Client{
		APIKey: apiKey,
		URL:    URL,
		HTTP:   remote.NewClient(Provider, opts),
	}
}

type request struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

// FetchSeries returns the monthly observations of series 'id' for the years
// covered by r. Annual averages are skipped, each month is dated on its first
// day. Errors are *macro.FetchError.
func (c *Client) FetchSeries(ctx context.Context, id string, r macro.Range) ([]macro.Point, error) {
	points, err := c.fetch(ctx, id, r)
	if err == nil && len(points) == 0 {
		err = macro.ErrEmptyResult
	}
	if err != nil {
		remote.CountFailure(Provider, err)
		return nil, &macro.FetchError{Provider: Provider, ID: id, Err: err}
	}
	return points, nil
}

func (c *Client) fetch(ctx context.Context, id string, r macro.Range) ([]macro.Point, error) {
	from, to := r.From.Year(), r.To.Year()
	if r.To.IsZero() {
		to = macro.Today().Year()
	}
	if r.From.IsZero() {
		from = to
	}
	span := maxYears
	if c.APIKey != "" {
		span = maxYearsKey
	}

	var points []macro.Point
	for start := from; start <= to; start += span {
		end := min(start+span-1, to)
		chunk, err := c.query(ctx, id, start, end)
		if err != nil {
			return nil, err
		}
		points = append(points, chunk...)
	}
	return points, nil
}

// query performs one request, over at most 'span' years.
func (c *Client) query(ctx context.Context, id string, startYear, endYear int) ([]macro.Point, error) {
	req := request{
		SeriesID:        []string{id},
		StartYear:       strconv.Itoa(startYear),
		EndYear:         strconv.Itoa(endYear),
		RegistrationKey: c.APIKey,
	}
	var jobj any
	if err := remote.PostJSON(ctx, c.HTTP, c.URL, req, &jobj); err != nil {
		return nil, err
	}
	if err := status(jobj); err != nil {
		return nil, err
	}

	// A missing path is not an error, just no data.
	jval, err := jsonpath.Get("$.Results.series[0].data", jobj)
	if err != nil {
		return nil, nil
	}
	rows, ok := jval.([]any)
	if !ok {
		return nil, fmt.Errorf("unexpected data %T", jval)
	}
	points := make([]macro.Point, 0, len(rows))
	for _, row := range rows {
		p, ok, err := parse(row)
		if err != nil {
			return nil, err
		}
		if ok {
			points = append(points, p)
		}
	}
	return points, nil
}

// status returns the failure reported in the response body. BLS answers 200
// even when the request is rejected.
func status(jobj any) error {
	jval, _ := jsonpath.Get("$.status", jobj)
	if s, _ := jval.(string); s != "REQUEST_NOT_PROCESSED" {
		return nil
	}
	var msgs []string
	jval, _ = jsonpath.Get("$.message", jobj)
	if list, ok := jval.([]any); ok {
		for _, m := range list {
			if s, ok := m.(string); ok {
				msgs = append(msgs, s)
			}
		}
	}
	msg := strings.Join(msgs, "; ")
	if strings.Contains(strings.ToLower(msg), "key") {
		return fmt.Errorf("%w: %s", macro.ErrAuth, msg)
	}
	return fmt.Errorf("%w: request not processed: %s", macro.ErrNetwork, msg)
}

// processed returns true if the body is a response that BLS did not reject.
func processed(body []byte) bool {
	var jobj any
	if err := json.Unmarshal(body, &jobj); err != nil {
		return false
	}
	return status(jobj) == nil
}

// parse reads one row of data: {"year": "2024", "period": "M05", "value": "4.0"}.
// It returns false for annual averages and unavailable values.
func parse(row any) (macro.Point, bool, error) {
	m, ok := row.(map[string]any)
	if !ok {
		return macro.Point{}, false, fmt.Errorf("unexpected row %v", row)
	}
	year, _ := m["year"].(string)
	period, _ := m["period"].(string)
	value, _ := m["value"].(string)

	if period == annual || !strings.HasPrefix(period, "M") {
		return macro.Point{}, false, nil
	}
	y, err := strconv.Atoi(year)
	if err != nil {
		return macro.Point{}, false, fmt.Errorf("invalid year %q: %w", year, err)
	}
	month, err := strconv.Atoi(period[1:])
	if err != nil || month < 1 || month > 12 {
		return macro.Point{}, false, fmt.Errorf("invalid period %q", period)
	}
	v, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		// "-" marks a value not available, e.g. during a shutdown.
		return macro.Point{}, false, nil
	}
	return macro.Point{Date: macro.NewDate(y, time.Month(month), 1), Value: v}, true, nil
}
