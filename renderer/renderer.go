// Package renderer turns a dashboard into markdown, for the terminal, and into
// an HTML page with SVG charts.
package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"slices"
	"strings"
	"text/template"

	"github.com/etnz/macro"
)

//go:embed templates
var templates embed.FS

// SparklineWidth is the number of characters of the sparklines.
const SparklineWidth = 32

// SeriesRows is the number of observations listed by RenderSeries.
const SeriesRows = 24

// Reason returns a human description of a failure kind (see macro.ErrorKind).
func Reason(kind string) string {
	switch kind {
	case "auth":
		return "API key missing or invalid"
	case "network":
		return "data source unreachable"
	case "empty":
		return "no data available"
	case "":
		return "not available"
	default:
		return "unavailable"
	}
}

var funcs = template.FuncMap{
	"reason": Reason,
	"spark": func(s *macro.Series) string {
		return Sparkline(s.Floats(), SparklineWidth)
	},
	"latest": func(s *macro.Series) string {
		p, ok := s.Latest()
		if !ok {
			return "—"
		}
		return fmt.Sprintf("%s (%s)", formatValue(p.Value.InexactFloat64(), s.Unit), p.Date)
	},
}

// RenderDashboard renders the whole dashboard to a markdown string.
func RenderDashboard(d *macro.Dashboard) string {
	partials := map[string]string{
		"dashboard_tiles":    "dashboard_tiles.md",
		"dashboard_charts":   "dashboard_charts.md",
		"dashboard_calendar": "dashboard_calendar.md",
	}
	return renderTemplate("dashboard", "dashboard.md", partials, d)
}

// RenderCalendar renders the calendar sidebar to a markdown string.
func RenderCalendar(sb macro.Sidebar) string {
	return renderTemplate("calendar", "dashboard_calendar.md", nil, sb)
}

// SeriesView is a single indicator with its recent observations.
type SeriesView struct {
	Indicator macro.Indicator
	Series    *macro.Series
	Rows      []SeriesRow // most recent first
}

// SeriesRow is an observation and its percent changes.
type SeriesRow struct {
	Date     macro.Date
	Value    string
	MoM, YoY string
}

// NewSeriesView lists the last n observations of s.
func NewSeriesView(ind macro.Indicator, s *macro.Series, n int) *SeriesView {
	v := &SeriesView{Indicator: ind, Series: s}
	mom, yoy := index(s.PercentChange(1)), index(s.PercentChange(12))
	for i := len(s.Points) - 1; i >= 0 && len(v.Rows) < n; i-- {
		p := s.Points[i]
		value := p.Value.StringFixed(2)
		if ind.Currency != "" {
			value = macro.M(p.Value, ind.Currency).String()
		}
		v.Rows = append(v.Rows, SeriesRow{Date: p.Date, Value: value, MoM: mom[p.Date], YoY: yoy[p.Date]})
	}
	return v
}

func index(s *macro.Series) map[macro.Date]string {
	res := make(map[macro.Date]string, s.Len())
	for d, v := range s.Values() {
		res[d] = macro.Percent(v.InexactFloat64()).SignedString()
	}
	return res
}

// RenderSeries renders a single indicator to a markdown string.
func RenderSeries(v *SeriesView) string {
	return renderTemplate("series", "series.md", nil, v)
}

// Notes returns the markdown notes about the data sources.
func Notes() string {
	content, err := fs.ReadFile(templates, "templates/notes.md")
	if err != nil {
		return ""
	}
	return string(content)
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, "templates/"+mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Funcs(funcs).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	// Sorted, so that failures are reported deterministically.
	names := make([]string, 0, len(partials))
	for name := range partials {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		file := partials[name]
		content, err := fs.ReadFile(templates, "templates/"+file)
		if err != nil {
			return fmt.Sprintf("error reading partial template %q: %v", file, err)
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
