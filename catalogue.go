package macro

import (
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"
)

// Series providers.
const (
	SourceFRED = "fred"
	SourceBLS  = "bls"
)

// Indicator describes a series shown as a metric tile.
type Indicator struct {
	ID       string `json:"id" yaml:"id"`             // provider's series identifier
	Label    string `json:"label" yaml:"label"`       // tile title
	Source   string `json:"source" yaml:"source"`     // "fred" or "bls"
	Unit     string `json:"unit" yaml:"unit"`         // unit label, e.g "%", "thous", "index"
	Currency string `json:"currency,omitempty" yaml:"currency"` // ISO code when the series is an amount of money
	// Restricted series cannot be read without an API key.
	Restricted bool `json:"restricted,omitempty" yaml:"restricted"`
}

// LineSpec is one line of a chart.
type LineSpec struct {
	Name      string `json:"name" yaml:"name"`
	Series    string `json:"series" yaml:"series"`       // Indicator ID
	Transform string `json:"transform" yaml:"transform"` // "value", "yoy" or "mom"
	Color     string `json:"color,omitempty" yaml:"color"`
}

// ChartSpec is a line chart made of one or more series.
type ChartSpec struct {
	Title string     `json:"title" yaml:"title"`
	Lines []LineSpec `json:"lines" yaml:"lines"`
}

// Catalogue is the content of a dashboard: which series to fetch, how to chart
// them and which calendar events matter.
type Catalogue struct {
	Title      string      `yaml:"title"`
	Start      Date        `yaml:"start"` // first observation date requested
	Indicators []Indicator `yaml:"indicators"`
	Charts     []ChartSpec `yaml:"charts"`
	Keywords   []string    `yaml:"keywords"`
	// Events is a fixed schedule, used when no calendar feed is available.
	Events []CalendarEvent `yaml:"events"`
}

// DefaultCatalogue returns the US employment, inflation and rates dashboard.
func DefaultCatalogue() *Catalogue {
	return &Catalogue{
		Title: "US Macro Dashboard",
		Start: NewDate(2018, time.January, 1),
		Indicators: []Indicator{
			{ID: "CEU0000000001", Label: "Non-Farm Payrolls (thous)", Source: SourceBLS, Unit: "thous"},
			{ID: "LNS14000000", Label: "Unemployment Rate (%)", Source: SourceBLS, Unit: "%"},
			{ID: "CES0500000003", Label: "Avg Hourly Earnings (USD)", Source: SourceBLS, Unit: "USD", Currency: "USD"},
			{ID: "CPIAUCSL", Label: "CPI", Source: SourceFRED, Unit: "index"},
			{ID: "CPILFESL", Label: "Core CPI", Source: SourceFRED, Unit: "index"},
			{ID: "PCEPI", Label: "PCE", Source: SourceFRED, Unit: "index"},
			{ID: "PCEPILFE", Label: "Core PCE", Source: SourceFRED, Unit: "index"},
			{ID: "FEDFUNDS", Label: "Fed Funds Rate", Source: SourceFRED, Unit: "%"},
		},
		Charts: []ChartSpec{
			{Title: "Inflation Trends", Lines: []LineSpec{
				{Name: "CPI YoY", Series: "CPIAUCSL", Transform: TransformYoY, Color: "#4c78a8"},
				{Name: "Core CPI YoY", Series: "CPILFESL", Transform: TransformYoY, Color: "#f58518"},
				{Name: "PCE YoY", Series: "PCEPI", Transform: TransformYoY, Color: "#54a24b"},
				{Name: "Core PCE YoY", Series: "PCEPILFE", Transform: TransformYoY, Color: "#e45756"},
			}},
			{Title: "Fed Funds Rate", Lines: []LineSpec{
				{Name: "Fed Funds Rate", Series: "FEDFUNDS", Transform: TransformValue, Color: "orange"},
			}},
			{Title: "CPI vs Fed Funds Rate", Lines: []LineSpec{
				{Name: "CPI YoY", Series: "CPIAUCSL", Transform: TransformYoY, Color: "steelblue"},
				{Name: "Fed Funds Rate", Series: "FEDFUNDS", Transform: TransformValue, Color: "orange"},
			}},
		},
		Keywords: slices.Clone(DefaultKeywords),
	}
}

// Indicator returns the indicator with that id.
func (c *Catalogue) Indicator(id string) (Indicator, bool) {
	i := slices.IndexFunc(c.Indicators, func(ind Indicator) bool { return ind.ID == id })
	if i < 0 {
		return Indicator{}, false
	}
	return c.Indicators[i], true
}

// Validate checks that the catalogue is consistent.
func (c *Catalogue) Validate() error {
	var errs error
	seen := make(map[string]bool)
	for _, ind := range c.Indicators {
		if ind.ID == "" {
			errs = errors.Join(errs, fmt.Errorf("indicator %q has no id", ind.Label))
			continue
		}
		if seen[ind.ID] {
			errs = errors.Join(errs, fmt.Errorf("indicator %q is declared twice", ind.ID))
		}
		seen[ind.ID] = true
		if ind.Source != SourceFRED && ind.Source != SourceBLS {
			errs = errors.Join(errs, fmt.Errorf("indicator %q has unknown source %q", ind.ID, ind.Source))
		}
	}
	for _, chart := range c.Charts {
		for _, line := range chart.Lines {
			if !seen[line.Series] {
				errs = errors.Join(errs, fmt.Errorf("chart %q: line %q uses undeclared series %q", chart.Title, line.Name, line.Series))
			}
			if err := CheckTransform(line.Transform); err != nil {
				errs = errors.Join(errs, fmt.Errorf("chart %q: line %q: %w", chart.Title, line.Name, err))
			}
		}
	}
	return errs
}

// DecodeCatalogue reads a yaml catalogue. Missing sections are taken from the
// default catalogue.
func DecodeCatalogue(r io.Reader) (*Catalogue, error) {
	def := DefaultCatalogue()
	c := new(Catalogue)
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("cannot decode catalogue: %w", err)
	}
	if c.Title == "" {
		c.Title = def.Title
	}
	if c.Start.IsZero() {
		c.Start = def.Start
	}
	if c.Indicators == nil {
		c.Indicators = def.Indicators
		if c.Charts == nil {
			c.Charts = def.Charts
		}
	}
	if c.Keywords == nil {
		c.Keywords = def.Keywords
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid catalogue: %w", err)
	}
	return c, nil
}

// LoadCatalogue reads the catalogue file at path, or returns the default
// catalogue if path is empty.
func LoadCatalogue(path string) (*Catalogue, error) {
	if path == "" {
		return DefaultCatalogue(), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return DecodeCatalogue(f)
}
