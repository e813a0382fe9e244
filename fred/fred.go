// Package fred reads series from FRED, the Federal Reserve Economic Data
// service of the St. Louis Fed.
//
// With an API key, observations come from the JSON API. Without one, public
// series are read from the fredgraph.csv export used by the FRED web site.
package fred

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/etnz/macro"
	"github.com/etnz/macro/remote"
	"github.com/shopspring/decimal"
)

// Provider is the name of the provider in errors and metrics.
const Provider = macro.SourceFRED

const (
	ObservationsURL = "https://api.stlouisfed.org/fred/series/observations"
	GraphURL        = "https://fred.stlouisfed.org/graph/fredgraph.csv"
)

// missing is FRED's marker for a missing observation.
const missing = "."

// Client fetches FRED series.
type Client struct {
	APIKey          string
	ObservationsURL string
	GraphURL        string
	HTTP            *http.Client
}

// New returns a client on the public endpoints. apiKey may be empty.
func New(apiKey string, opts remote.Options) *Client {
	if opts.Cacheable == nil {
		opts.Cacheable = notHTML
	}
	return &Client{
		APIKey:          apiKey,
		ObservationsURL: ObservationsURL,
		GraphURL:        GraphURL,
		HTTP:            remote.NewClient(Provider, opts),
	}
}

// HasKey returns true if the client is configured with an API key.
func (c *Client) HasKey() bool { return c.APIKey != "" }

// FetchSeries returns the observations of series 'id' over r. Missing
// observations are skipped. Errors are *macro.FetchError.
func (c *Client) FetchSeries(ctx context.Context, id string, r macro.Range) ([]macro.Point, error) {
	var points []macro.Point
	var err error
	if c.HasKey() {
		points, err = c.observations(ctx, id, r)
	} else {
		points, err = c.graph(ctx, id, r)
	}
	if err == nil && len(points) == 0 {
		err = macro.ErrEmptyResult
	}
	if err != nil {
		remote.CountFailure(Provider, err)
		return nil, &macro.FetchError{Provider: Provider, ID: id, Err: err}
	}
	return points, nil
}

type observation struct {
	Date  string `json:"date"`
	Value string `json:"value"`
}

type observationsResponse struct {
	Observations []observation `json:"observations"`
}

func (c *Client) observations(ctx context.Context, id string, r macro.Range) ([]macro.Point, error) {
	q := url.Values{}
	q.Set("series_id", id)
	q.Set("api_key", c.APIKey)
	q.Set("file_type", "json")
	if !r.From.IsZero() {
		q.Set("observation_start", r.From.String())
	}
	if !r.To.IsZero() {
		q.Set("observation_end", r.To.String())
	}

	var resp observationsResponse
	if err := remote.GetJSON(ctx, c.HTTP, c.ObservationsURL+"?"+q.Encode(), &resp); err != nil {
		// An unknown or malformed key is a 400 whose message names the variable.
		var se *remote.StatusError
		if errors.As(err, &se) && se.Code == http.StatusBadRequest && bytes.Contains(se.Body, []byte("api_key")) {
			return nil, fmt.Errorf("%w: %v", macro.ErrAuth, err)
		}
		return nil, err
	}

	points := make([]macro.Point, 0, len(resp.Observations))
	for _, o := range resp.Observations {
		p, ok, err := parse(o.Date, o.Value)
		if err != nil {
			return nil, err
		}
		if ok {
			points = append(points, p)
		}
	}
	return points, nil
}

func (c *Client) graph(ctx context.Context, id string, r macro.Range) ([]macro.Point, error) {
	q := url.Values{}
	q.Set("id", id)
	if !r.From.IsZero() {
		q.Set("cosd", r.From.String())
	}
	if !r.To.IsZero() {
		q.Set("coed", r.To.String())
	}
	body, err := remote.Get(ctx, c.HTTP, c.GraphURL+"?"+q.Encode())
	if err != nil {
		return nil, err
	}
	return parseGraph(bytes.NewReader(body), id)
}

// notHTML returns false for the html pages FRED answers with status 200 to
// requests it cannot serve, such as the graph export of an unknown series.
func notHTML(body []byte) bool {
	return !bytes.HasPrefix(bytes.TrimSpace(body), []byte("<"))
}

// parseGraph reads a fredgraph.csv export: a header line naming the date
// column and the series, then one observation per line.
func parseGraph(r io.Reader, id string) ([]macro.Point, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv: %w", err)
	}
	if len(header) < 2 || !strings.EqualFold(header[1], id) {
		// Unknown series are answered with an html page, not a csv.
		return nil, fmt.Errorf("unexpected csv header %q", strings.Join(header, ","))
	}

	var points []macro.Point
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		p, ok, err := parse(record[0], record[1])
		if err != nil {
			return nil, err
		}
		if ok {
			points = append(points, p)
		}
	}
	return points, nil
}

// parse returns the observation, or false if the value is missing.
func parse(date, value string) (macro.Point, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" || value == missing {
		return macro.Point{}, false, nil
	}
	d, err := macro.ParseDate(date)
	if err != nil {
		return macro.Point{}, false, fmt.Errorf("invalid observation date %q: %w", date, err)
	}
	v, err := decimal.NewFromString(value)
	if err != nil {
		return macro.Point{}, false, fmt.Errorf("invalid observation value %q on %s: %w", value, date, err)
	}
	return macro.Point{Date: d, Value: v}, true, nil
}
