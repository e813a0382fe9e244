package macro

import (
	"fmt"
	"iter"
	"slices"

	"github.com/shopspring/decimal"
)

// Point is a single observation of a series.
type Point struct {
	Date  Date            `json:"date"`
	Value decimal.Decimal `json:"value"`
}

// Series is a chronologically ordered sequence of observations.
//
// A Series is never modified once built: transformations return new ones.
type Series struct {
	ID     string  `json:"id"`
	Unit   string  `json:"unit,omitempty"`
	Points []Point `json:"points"`
}

// NewSeries returns a Series made of all the records, sorted by date.
//
// Every record is kept, duplicates included, in their original relative order
// when they share a date. An empty list of records gives an empty Series.
func NewSeries(id, unit string, records []Point) *Series {
	points := slices.Clone(records)
	if points == nil {
		points = []Point{}
	}
	slices.SortStableFunc(points, func(a, b Point) int { return a.Date.Compare(b.Date) })
	return &Series{ID: id, Unit: unit, Points: points}
}

// Len returns the number of observations.
func (s *Series) Len() int { return len(s.Points) }

// IsEmpty returns true if there is no observation.
func (s *Series) IsEmpty() bool { return len(s.Points) == 0 }

// Latest returns the most recent observation.
func (s *Series) Latest() (Point, bool) { return s.back(0) }

// Previous returns the observation just before the latest one.
func (s *Series) Previous() (Point, bool) { return s.back(1) }

func (s *Series) back(n int) (Point, bool) {
	i := len(s.Points) - 1 - n
	if i < 0 {
		return Point{}, false
	}
	return s.Points[i], true
}

// Values returns an iterator over all date/value pairs, in chronological order.
func (s *Series) Values() iter.Seq2[Date, decimal.Decimal] {
	return func(yield func(Date, decimal.Decimal) bool) {
		for _, p := range s.Points {
			if !yield(p.Date, p.Value) {
				return
			}
		}
	}
}

// Floats returns the values as float64, for plotting.
func (s *Series) Floats() []float64 {
	res := make([]float64, len(s.Points))
	for i, p := range s.Points {
		res[i] = p.Value.InexactFloat64()
	}
	return res
}

// Since returns the trailing part of the series starting at 'from' (included).
func (s *Series) Since(from Date) *Series {
	i, _ := slices.BinarySearchFunc(s.Points, from, func(p Point, d Date) int { return p.Date.Compare(d) })
	return &Series{ID: s.ID, Unit: s.Unit, Points: s.Points[i:]}
}

// Change describes the move from one observation to the next.
type Change struct {
	From Point           `json:"from"`
	To   Point           `json:"to"`
	Abs  decimal.Decimal `json:"abs"` // To - From
	Pct  Percent         `json:"pct"` // relative change, zero when From is zero
}

var hundred = decimal.NewFromInt(100)

// Change returns the change between the previous and the latest observation.
// It returns false when there are less than two observations.
func (s *Series) Change() (Change, bool) {
	to, ok := s.Latest()
	if !ok {
		return Change{}, false
	}
	from, ok := s.Previous()
	if !ok {
		return Change{}, false
	}
	c := Change{From: from, To: to, Abs: to.Value.Sub(from.Value)}
	if !from.Value.IsZero() {
		c.Pct = Percent(c.Abs.Div(from.Value).Mul(hundred).InexactFloat64())
	}
	return c, true
}

// PercentChange returns the series of percent changes over 'lag' observations,
// e.g a lag of 12 over a monthly series is the year-over-year change.
//
// The result starts at the observation number lag, and skips observations whose
// base value is zero. Its unit is "%".
func (s *Series) PercentChange(lag int) *Series {
	res := &Series{ID: fmt.Sprintf("%s/pct%d", s.ID, lag), Unit: "%", Points: []Point{}}
	if lag <= 0 {
		return res
	}
	for i := lag; i < len(s.Points); i++ {
		base := s.Points[i-lag].Value
		if base.IsZero() {
			continue
		}
		pct := s.Points[i].Value.Div(base).Sub(decimal.NewFromInt(1)).Mul(hundred).Round(4)
		res.Points = append(res.Points, Point{Date: s.Points[i].Date, Value: pct})
	}
	return res
}

// Transforms known by Transform.
const (
	TransformValue = "value"
	TransformYoY   = "yoy"
	TransformMoM   = "mom"
)

// CheckTransform returns an error if name is not a transform known by
// Transform.
func CheckTransform(name string) error {
	switch name {
	case "", TransformValue, TransformYoY, TransformMoM:
		return nil
	}
	return fmt.Errorf("unknown series transform %q", name)
}

// Transform applies a named transformation: "value" (or "") returns s itself,
// "yoy" and "mom" return the percent change over 12 and 1 observations.
func (s *Series) Transform(name string) (*Series, error) {
	switch name {
	case "", TransformValue:
		return s, nil
	case TransformYoY:
		return s.PercentChange(12), nil
	case TransformMoM:
		return s.PercentChange(1), nil
	default:
		return nil, CheckTransform(name)
	}
}
