// Package tradingeconomics reads the US economic calendar from the Trading
// Economics API.
//
// The free tier only serves a handful of countries and may return no US
// entries at all; callers get macro.ErrEmptyResult in that case.
package tradingeconomics

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/etnz/macro"
	"github.com/etnz/macro/remote"
)

// Provider is the name of the provider in errors and metrics.
const Provider = "tradingeconomics"

// URL is the base of the calendar endpoints.
const URL = "https://api.tradingeconomics.com/calendar/country/"

// Country is the only country kept from the feed.
const Country = "United States"

// Client fetches calendar events. It requires an API key.
type Client struct {
	APIKey string
	URL    string
	HTTP   *http.Client
}

// New returns a client on the public endpoint.
func New(apiKey string, opts remote.Options) *Client {
	return &Client{
		APIKey: apiKey,
		URL:    URL,
		HTTP:   remote.NewClient(Provider, opts),
	}
}

// HasKey returns true if the client is configured with an API key.
func (c *Client) HasKey() bool { return c.APIKey != "" }

type entry struct {
	Date     string `json:"Date"` // e.g "2024-06-05T12:15:00", UTC
	Country  string `json:"Country"`
	Category string `json:"Category"`
	Event    string `json:"Event"`
}

// FetchEvents returns the US events scheduled over r. Errors are
// *macro.FetchError.
func (c *Client) FetchEvents(ctx context.Context, r macro.Range) ([]macro.CalendarEvent, error) {
	events, err := c.fetch(ctx, r)
	if err == nil && len(events) == 0 {
		err = macro.ErrEmptyResult
	}
	if err != nil {
		remote.CountFailure(Provider, err)
		return nil, &macro.FetchError{Provider: Provider, ID: "calendar", Err: err}
	}
	return events, nil
}

func (c *Client) fetch(ctx context.Context, r macro.Range) ([]macro.CalendarEvent, error) {
	if !c.HasKey() {
		return nil, fmt.Errorf("%w: TRADING_ECON_API_KEY is not set", macro.ErrAuth)
	}
	q := url.Values{}
	q.Set("c", c.APIKey)
	q.Set("f", "json")
	addr := fmt.Sprintf("%s%s/%s/%s?%s", c.URL, url.PathEscape(strings.ToLower(Country)), r.From, r.To, q.Encode())

	var entries []entry
	if err := remote.GetJSON(ctx, c.HTTP, addr, &entries); err != nil {
		return nil, err
	}

	events := make([]macro.CalendarEvent, 0, len(entries))
	for _, e := range entries {
		if e.Country != Country {
			continue
		}
		d, err := parseDate(e.Date)
		if err != nil {
			log.Printf("skipping calendar entry %q: %v", e.Event, err)
			continue
		}
		name := e.Event
		if name == "" {
			name = e.Category
		}
		events = append(events, macro.CalendarEvent{Date: d, Country: e.Country, Event: name})
	}
	return events, nil
}

// parseDate reads the day of a calendar entry. The feed uses a timestamp
// without zone, or a plain date.
func parseDate(s string) (macro.Date, error) {
	for _, layout := range []string{"2006-01-02T15:04:05", time.DateOnly} {
		if t, err := time.Parse(layout, s); err == nil {
			return macro.DateOf(t), nil
		}
	}
	return macro.Date{}, fmt.Errorf("invalid event date %q", s)
}
