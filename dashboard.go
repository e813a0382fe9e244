package macro

import (
	"context"
	"errors"
	"fmt"
)

// SeriesFetcher retrieves the raw observations of a series over a range of dates.
type SeriesFetcher interface {
	FetchSeries(ctx context.Context, id string, r Range) ([]Point, error)
}

// EventFetcher retrieves the calendar events scheduled over a range of dates.
type EventFetcher interface {
	FetchEvents(ctx context.Context, r Range) ([]CalendarEvent, error)
}

// KeyHolder is implemented by fetchers that can run without an API key. A
// restricted indicator is not requested from a fetcher that has none.
type KeyHolder interface {
	HasKey() bool
}

// Tile is a metric tile: the latest value of an indicator and its change from
// the previous observation.
type Tile struct {
	Indicator Indicator `json:"indicator"`
	Latest    *Point    `json:"latest,omitempty"`
	Change    *Change   `json:"change,omitempty"`
	Err       error     `json:"-"`
	Error     string    `json:"error,omitempty"`
	Kind      string    `json:"kind,omitempty"` // see ErrorKind
}

// Placeholder returns true if the tile has no value to show.
func (t Tile) Placeholder() bool { return t.Latest == nil }

// Value returns the formatted latest value, or "—" for a placeholder.
func (t Tile) Value() string {
	if t.Latest == nil {
		return "—"
	}
	if t.Indicator.Currency != "" {
		return M(t.Latest.Value, t.Indicator.Currency).String()
	}
	return t.Latest.Value.StringFixed(2)
}

// Delta returns the formatted signed change from the previous observation, or
// "" when there is none.
func (t Tile) Delta() string {
	if t.Change == nil {
		return ""
	}
	if t.Indicator.Currency != "" {
		return M(t.Change.Abs, t.Indicator.Currency).SignedString()
	}
	if t.Change.Abs.Round(2).IsZero() {
		return "-"
	}
	if t.Change.Abs.IsPositive() {
		return "+" + t.Change.Abs.StringFixed(2)
	}
	return t.Change.Abs.StringFixed(2)
}

// Line is a series plotted in a chart.
type Line struct {
	Name   string  `json:"name"`
	Color  string  `json:"color,omitempty"`
	Series *Series `json:"series,omitempty"`
	Err    error   `json:"-"`
	Error  string  `json:"error,omitempty"`
	Kind   string  `json:"kind,omitempty"`
}

// Chart is a titled set of lines.
type Chart struct {
	Title string `json:"title"`
	Lines []Line `json:"lines"`
}

// Plotted returns the lines that have data.
func (c Chart) Plotted() []Line {
	res := make([]Line, 0, len(c.Lines))
	for _, l := range c.Lines {
		if l.Series != nil && !l.Series.IsEmpty() {
			res = append(res, l)
		}
	}
	return res
}

// Sidebar is the list of upcoming calendar events.
type Sidebar struct {
	Window Range           `json:"window"`
	Events []CalendarEvent `json:"events"`
	Source string          `json:"source"` // "feed", "schedule" or "" when unavailable
	Err    error           `json:"-"`
	Error  string          `json:"error,omitempty"`
	Kind   string          `json:"kind,omitempty"`
}

// Dashboard is everything shown on the page, for one refresh.
type Dashboard struct {
	Title    string  `json:"title"`
	AsOf     Date    `json:"as_of"`
	Start    Date    `json:"start"`
	Tiles    []Tile  `json:"tiles"`
	Charts   []Chart `json:"charts"`
	Calendar Sidebar `json:"calendar"`
}

// Err joins all the errors that degraded an element of the dashboard.
func (d *Dashboard) Err() error {
	var errs []error
	seen := make(map[string]bool)
	add := func(err error) {
		if err != nil && !seen[err.Error()] {
			seen[err.Error()] = true
			errs = append(errs, err)
		}
	}
	for _, t := range d.Tiles {
		add(t.Err)
	}
	for _, c := range d.Charts {
		for _, l := range c.Lines {
			add(l.Err)
		}
	}
	add(d.Calendar.Err)
	return errors.Join(errs...)
}

// FetchIndicator retrieves the series of an indicator from the fetcher of its
// source. The error is always a *FetchError, an empty result is reported as
// ErrEmptyResult.
func FetchIndicator(ctx context.Context, ind Indicator, sources map[string]SeriesFetcher, r Range) (*Series, error) {
	fetcher, ok := sources[ind.Source]
	if !ok || fetcher == nil {
		return nil, &FetchError{Provider: ind.Source, ID: ind.ID, Err: fmt.Errorf("no client configured for source %q", ind.Source)}
	}
	if k, ok := fetcher.(KeyHolder); ok && ind.Restricted && !k.HasKey() {
		return nil, &FetchError{Provider: ind.Source, ID: ind.ID, Err: ErrAuth}
	}
	records, err := fetcher.FetchSeries(ctx, ind.ID, r)
	if err != nil {
		var fe *FetchError
		if errors.As(err, &fe) {
			return nil, err
		}
		return nil, &FetchError{Provider: ind.Source, ID: ind.ID, Err: err}
	}
	if len(records) == 0 {
		return nil, &FetchError{Provider: ind.Source, ID: ind.ID, Err: ErrEmptyResult}
	}
	return NewSeries(ind.ID, ind.Unit, records), nil
}

// Build fetches every series and the calendar of the catalogue, and assembles
// the dashboard as of 'today'.
//
// Build never fails: an element whose data could not be retrieved is left as a
// placeholder carrying its error. Each series is fetched at most once.
// When events is nil, or fails, the catalogue's fixed schedule is used instead.
func Build(ctx context.Context, cat *Catalogue, sources map[string]SeriesFetcher, events EventFetcher, today Date) *Dashboard {
	d := &Dashboard{
		Title: cat.Title,
		AsOf:  today,
		Start: cat.Start,
	}
	r := NewRange(cat.Start, today)

	type fetched struct {
		series *Series
		err    error
	}
	cache := make(map[string]fetched)
	get := func(id string) (*Series, error) {
		if f, ok := cache[id]; ok {
			return f.series, f.err
		}
		ind, ok := cat.Indicator(id)
		if !ok {
			return nil, &FetchError{Provider: "catalogue", ID: id, Err: fmt.Errorf("unknown series")}
		}
		s, err := FetchIndicator(ctx, ind, sources, r)
		cache[id] = fetched{s, err}
		return s, err
	}

	for _, ind := range cat.Indicators {
		tile := Tile{Indicator: ind}
		s, err := get(ind.ID)
		if err != nil {
			tile.Err, tile.Error, tile.Kind = err, err.Error(), ErrorKind(err)
		} else {
			if p, ok := s.Latest(); ok {
				tile.Latest = &p
			}
			if c, ok := s.Change(); ok {
				tile.Change = &c
			}
		}
		d.Tiles = append(d.Tiles, tile)
	}

	for _, spec := range cat.Charts {
		chart := Chart{Title: spec.Title}
		for _, ls := range spec.Lines {
			line := Line{Name: ls.Name, Color: ls.Color}
			s, err := get(ls.Series)
			if err == nil {
				s, err = s.Transform(ls.Transform)
			}
			if err == nil && s.IsEmpty() {
				err = &FetchError{Provider: "transform", ID: ls.Series + "/" + ls.Transform, Err: ErrEmptyResult}
			}
			if err != nil {
				line.Err, line.Error, line.Kind = err, err.Error(), ErrorKind(err)
			} else {
				line.Series = s
			}
			chart.Lines = append(chart.Lines, line)
		}
		d.Charts = append(d.Charts, chart)
	}

	d.Calendar = BuildSidebar(ctx, cat, events, today)
	return d
}

// BuildSidebar fetches the events of the next CalendarWindow days. The
// catalogue's schedule is used when events is nil or fails.
func BuildSidebar(ctx context.Context, cat *Catalogue, events EventFetcher, today Date) Sidebar {
	sb := Sidebar{Window: NewRange(today, today.Add(CalendarWindow))}

	var raw []CalendarEvent
	var err error
	if events != nil {
		raw, err = events.FetchEvents(ctx, sb.Window)
		if err == nil {
			sb.Source = "feed"
		}
	} else {
		err = &FetchError{Provider: "calendar", ID: "events", Err: fmt.Errorf("no calendar feed configured: %w", ErrAuth)}
	}
	if err != nil && len(cat.Events) > 0 {
		raw, err, sb.Source = cat.Events, nil, "schedule"
	}
	if err == nil {
		sb.Events = BuildCalendar(raw, today, cat.Keywords)
		if len(sb.Events) == 0 {
			err = &FetchError{Provider: "calendar", ID: sb.Window.String(), Err: ErrEmptyResult}
		}
	}
	if err != nil {
		sb.Err, sb.Error, sb.Kind = err, err.Error(), ErrorKind(err)
	}
	return sb
}
