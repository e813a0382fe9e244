package macro

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

// fakeSource serves canned series, and counts calls.
type fakeSource struct {
	series map[string][]Point
	errs   map[string]error
	calls  map[string]int
}

func (f *fakeSource) FetchSeries(_ context.Context, id string, _ Range) ([]Point, error) {
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[id]++
	if err, ok := f.errs[id]; ok {
		return nil, err
	}
	return f.series[id], nil
}

type fakeEvents struct {
	events []CalendarEvent
	err    error
}

func (f fakeEvents) FetchEvents(context.Context, Range) ([]CalendarEvent, error) {
	return f.events, f.err
}

func monthly(from Date, values ...int64) []Point {
	res := make([]Point, len(values))
	for i, v := range values {
		res[i] = Point{Date: from.AddMonth(i), Value: decimal.NewFromInt(v)}
	}
	return res
}

func testCatalogue() *Catalogue {
	return &Catalogue{
		Title: "Test",
		Start: NewDate(2024, time.January, 1),
		Indicators: []Indicator{
			{ID: "CPI", Label: "CPI", Source: SourceFRED, Unit: "index"},
			{ID: "SECRET", Label: "Restricted", Source: SourceFRED, Unit: "%", Restricted: true},
			{ID: "AHE", Label: "Earnings", Source: SourceBLS, Unit: "USD", Currency: "USD"},
		},
		Charts: []ChartSpec{
			{Title: "Inflation", Lines: []LineSpec{
				{Name: "CPI YoY", Series: "CPI", Transform: TransformYoY},
				{Name: "Secret", Series: "SECRET"},
			}},
		},
		Keywords: DefaultKeywords,
	}
}

func TestBuild(t *testing.T) {
	today := NewDate(2025, time.March, 10)
	fred := &fakeSource{
		series: map[string][]Point{"CPI": monthly(NewDate(2024, 1, 1), 100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113)},
		errs:   map[string]error{"SECRET": &FetchError{Provider: "fred", ID: "SECRET", Err: ErrAuth}},
	}
	bls := &fakeSource{series: map[string][]Point{"AHE": {
		{Date: NewDate(2025, 1, 1), Value: decimal.RequireFromString("35.50")},
		{Date: NewDate(2025, 2, 1), Value: decimal.RequireFromString("35.62")},
	}}}
	events := fakeEvents{events: []CalendarEvent{
		{Date: today.Add(2), Country: "United States", Event: "FOMC Meeting"},
		{Date: today.Add(20), Country: "United States", Event: "CPI"},
	}}

	d := Build(context.Background(), testCatalogue(), map[string]SeriesFetcher{SourceFRED: fred, SourceBLS: bls}, events, today)

	if len(d.Tiles) != 3 {
		t.Fatalf("got %d tiles, want 3", len(d.Tiles))
	}
	cpi := d.Tiles[0]
	if cpi.Placeholder() || cpi.Value() != "113.00" || cpi.Delta() != "+1.00" {
		t.Errorf("CPI tile = %q %q", cpi.Value(), cpi.Delta())
	}

	secret := d.Tiles[1]
	if !secret.Placeholder() || secret.Value() != "—" {
		t.Errorf("restricted tile is not a placeholder: %+v", secret)
	}
	if !errors.Is(secret.Err, ErrAuth) || secret.Kind != "auth" {
		t.Errorf("restricted tile error = %v (%s), want ErrAuth", secret.Err, secret.Kind)
	}

	ahe := d.Tiles[2]
	if ahe.Value() != "$35.62" || ahe.Delta() != "+$0.12" {
		t.Errorf("earnings tile = %q %q", ahe.Value(), ahe.Delta())
	}

	// the CPI series is fetched once for the tile and the chart.
	if fred.calls["CPI"] != 1 {
		t.Errorf("CPI fetched %d times, want 1", fred.calls["CPI"])
	}

	lines := d.Charts[0].Lines
	if lines[0].Series == nil || lines[0].Series.Len() != 2 {
		t.Errorf("CPI YoY line = %+v", lines[0])
	}
	if lines[1].Series != nil || lines[1].Kind != "auth" {
		t.Errorf("restricted line = %+v", lines[1])
	}
	if got := len(d.Charts[0].Plotted()); got != 1 {
		t.Errorf("Plotted() = %d lines, want 1", got)
	}

	if len(d.Calendar.Events) != 1 || !d.Calendar.Events[0].Important || d.Calendar.Source != "feed" {
		t.Errorf("calendar = %+v", d.Calendar)
	}

	if err := d.Err(); !errors.Is(err, ErrAuth) {
		t.Errorf("Err() = %v, want ErrAuth", err)
	}
}

func TestBuild_Degraded(t *testing.T) {
	today := NewDate(2025, time.March, 10)
	fred := &fakeSource{errs: map[string]error{"CPI": fmt.Errorf("dial tcp: %w", ErrNetwork)}}
	cat := testCatalogue()
	// no bls client at all, no calendar feed, no schedule.
	d := Build(context.Background(), cat, map[string]SeriesFetcher{SourceFRED: fred}, nil, today)

	for _, tile := range d.Tiles {
		if !tile.Placeholder() {
			t.Errorf("tile %s is not a placeholder", tile.Indicator.ID)
		}
		var fe *FetchError
		if !errors.As(tile.Err, &fe) {
			t.Errorf("tile %s error %v is not a *FetchError", tile.Indicator.ID, tile.Err)
		}
	}
	if d.Tiles[0].Kind != "network" {
		t.Errorf("CPI tile kind = %q, want network", d.Tiles[0].Kind)
	}
	if d.Calendar.Kind != "auth" || d.Calendar.Source != "" {
		t.Errorf("calendar = %+v, want an auth placeholder", d.Calendar)
	}
}

func TestBuild_EmptySeries(t *testing.T) {
	today := NewDate(2025, time.March, 10)
	fred := &fakeSource{series: map[string][]Point{"CPI": {}}}
	d := Build(context.Background(), testCatalogue(), map[string]SeriesFetcher{SourceFRED: fred}, nil, today)
	if !errors.Is(d.Tiles[0].Err, ErrEmptyResult) {
		t.Errorf("empty series error = %v, want ErrEmptyResult", d.Tiles[0].Err)
	}
}

func TestBuild_CalendarFallback(t *testing.T) {
	today := NewDate(2025, time.July, 1)
	cat := testCatalogue()
	cat.Events = []CalendarEvent{
		{Date: NewDate(2025, time.July, 11), Country: "United States", Event: "CPI Release"},
		{Date: NewDate(2025, time.July, 30), Country: "United States", Event: "FOMC Meeting"},
	}
	feed := fakeEvents{err: &FetchError{Provider: "tradingeconomics", ID: "calendar", Err: ErrAuth}}

	d := Build(context.Background(), cat, nil, feed, today)

	if d.Calendar.Source != "schedule" || d.Calendar.Err != nil {
		t.Fatalf("calendar = %+v, want the schedule", d.Calendar)
	}
	if len(d.Calendar.Events) != 1 || d.Calendar.Events[0].Event != "CPI Release" {
		t.Errorf("events = %+v", d.Calendar.Events)
	}
}

func TestBuild_CalendarEmptyWindow(t *testing.T) {
	today := NewDate(2025, time.July, 1)
	feed := fakeEvents{events: []CalendarEvent{{Date: today.Add(30), Event: "FOMC Meeting"}}}
	d := Build(context.Background(), testCatalogue(), nil, feed, today)
	if !errors.Is(d.Calendar.Err, ErrEmptyResult) {
		t.Errorf("calendar error = %v, want ErrEmptyResult", d.Calendar.Err)
	}
}

// keylessSource is a fakeSource without an API key.
type keylessSource struct{ fakeSource }

func (*keylessSource) HasKey() bool { return false }

func TestFetchIndicator_RestrictedWithoutKey(t *testing.T) {
	src := &keylessSource{fakeSource{series: map[string][]Point{"SECRET": monthly(NewDate(2024, 1, 1), 1, 2)}}}
	ind := Indicator{ID: "SECRET", Source: SourceFRED, Restricted: true}
	sources := map[string]SeriesFetcher{SourceFRED: src}

	_, err := FetchIndicator(context.Background(), ind, sources, NewRange(NewDate(2024, 1, 1), NewDate(2025, 1, 1)))
	if !errors.Is(err, ErrAuth) {
		t.Errorf("FetchIndicator() error = %v, want ErrAuth", err)
	}
	if src.calls["SECRET"] != 0 {
		t.Errorf("restricted series was requested %d times without a key", src.calls["SECRET"])
	}

	ind.Restricted = false
	s, err := FetchIndicator(context.Background(), ind, sources, NewRange(NewDate(2024, 1, 1), NewDate(2025, 1, 1)))
	if err != nil || s.Len() != 2 {
		t.Errorf("FetchIndicator() = %v, %v, want 2 points", s, err)
	}
}
