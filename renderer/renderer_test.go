package renderer

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/etnz/macro"
	"github.com/shopspring/decimal"
)

type source map[string][]macro.Point

func (s source) FetchSeries(_ context.Context, id string, _ macro.Range) ([]macro.Point, error) {
	if id == "SECRET" {
		return nil, &macro.FetchError{Provider: "fred", ID: id, Err: macro.ErrAuth}
	}
	return s[id], nil
}

type events []macro.CalendarEvent

func (e events) FetchEvents(context.Context, macro.Range) ([]macro.CalendarEvent, error) {
	return e, nil
}

var today = macro.NewDate(2025, time.March, 10)

func monthly(values ...int64) []macro.Point {
	res := make([]macro.Point, len(values))
	for i, v := range values {
		res[i] = macro.Point{Date: macro.NewDate(2024, time.January, 1).AddMonth(i), Value: decimal.NewFromInt(v)}
	}
	return res
}

func testDashboard(t *testing.T) *macro.Dashboard {
	t.Helper()
	cat := &macro.Catalogue{
		Title: "Test Dashboard",
		Start: macro.NewDate(2024, time.January, 1),
		Indicators: []macro.Indicator{
			{ID: "CPI", Label: "CPI", Source: macro.SourceFRED, Unit: "index"},
			{ID: "SECRET", Label: "Restricted", Source: macro.SourceFRED, Unit: "%"},
			{ID: "AHE", Label: "Avg Hourly Earnings", Source: macro.SourceBLS, Unit: "USD", Currency: "USD"},
		},
		Charts: []macro.ChartSpec{
			{Title: "Inflation", Lines: []macro.LineSpec{
				{Name: "CPI YoY", Series: "CPI", Transform: macro.TransformYoY},
				{Name: "Secret", Series: "SECRET"},
			}},
		},
	}
	src := source{
		"CPI": monthly(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112, 113),
		"AHE": {
			{Date: macro.NewDate(2025, 1, 1), Value: decimal.RequireFromString("35.50")},
			{Date: macro.NewDate(2025, 2, 1), Value: decimal.RequireFromString("35.62")},
		},
	}
	ev := events{
		{Date: today.Add(2), Country: "United States", Event: "FOMC Meeting"},
		{Date: today.Add(3), Country: "United States", Event: "Retail Sales"},
	}
	sources := map[string]macro.SeriesFetcher{macro.SourceFRED: src, macro.SourceBLS: src}
	return macro.Build(context.Background(), cat, sources, ev, today)
}

func TestRenderDashboard(t *testing.T) {
	md := RenderDashboard(testDashboard(t))

	for _, want := range []string{
		"# Test Dashboard",
		"*As of 2025-03-10, observations since 2024-01-01*",
		"| CPI | 113.00 | +1.00 | 2025-02-01 |",
		"| Restricted | — | | *API key missing or invalid* |",
		"| Avg Hourly Earnings | $35.62 | +$0.12 | 2025-02-01 |",
		"### Inflation",
		"| Secret | — | *API key missing or invalid* |",
		"| 2025-03-12 | **FOMC Meeting** | ★ |",
		"| 2025-03-13 | Retail Sales |  |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("RenderDashboard() does not contain %q:\n%s", want, md)
		}
	}
	if strings.Contains(md, "error executing template") {
		t.Errorf("RenderDashboard() failed:\n%s", md)
	}
}

func TestRenderCalendar_Empty(t *testing.T) {
	sb := macro.Sidebar{Window: macro.NewRange(today, today.Add(14)), Kind: "auth"}
	md := RenderCalendar(sb)
	want := "*No events from 2025-03-10 to 2025-03-24: API key missing or invalid.*"
	if !strings.Contains(md, want) {
		t.Errorf("RenderCalendar() = %q, want %q", md, want)
	}
}

func TestRenderSeries(t *testing.T) {
	ind := macro.Indicator{ID: "CPI", Label: "CPI", Source: macro.SourceFRED, Unit: "index"}
	s := macro.NewSeries("CPI", "index", monthly(100, 101, 102, 103, 104, 105, 106, 107, 108, 109, 110, 111, 112))
	v := NewSeriesView(ind, s, 3)
	if len(v.Rows) != 3 || v.Rows[0].Date != macro.NewDate(2025, time.January, 1) {
		t.Fatalf("NewSeriesView() rows = %+v", v.Rows)
	}
	md := RenderSeries(v)
	for _, want := range []string{
		"# CPI",
		"| 2025-01-01 | 112.00 | +0.90% | +12.00% |",
		"| 2024-11-01 | 110.00 | +0.92% |  |",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("RenderSeries() does not contain %q:\n%s", want, md)
		}
	}
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderHTML(&buf, testDashboard(t), "Inflation is **cooling**.<script>alert(1)</script>"); err != nil {
		t.Fatalf("RenderHTML() error = %v", err)
	}
	html := buf.String()
	for _, want := range []string{
		"<title>Test Dashboard</title>",
		`<div class="tile placeholder auth">`,
		"$35.62",
		"<svg viewBox=\"0 0 720 240\"",
		"<path d=\"M",
		`<tr class="important"><td>2025-03-12</td><td>FOMC Meeting</td>`,
		"<strong>cooling</strong>",
		"Trading Economics",
	} {
		if !strings.Contains(html, want) {
			t.Errorf("RenderHTML() does not contain %q", want)
		}
	}
	if strings.Contains(html, "<script>") {
		t.Error("RenderHTML() renders raw html from the briefing")
	}
}

func TestSparkline(t *testing.T) {
	testCases := []struct {
		values []float64
		width  int
		want   string
	}{
		{nil, 10, ""},
		{[]float64{1, 2, 3, 4, 5, 6, 7, 8}, 10, "▁▂▃▄▅▆▇█"},
		{[]float64{3, 3, 3}, 10, "▅▅▅"},
		{[]float64{1, 1, 8, 8}, 2, "▁█"},
	}
	for _, tc := range testCases {
		if got := Sparkline(tc.values, tc.width); got != tc.want {
			t.Errorf("Sparkline(%v, %d) = %q, want %q", tc.values, tc.width, got, tc.want)
		}
	}
}

func TestNewPlot(t *testing.T) {
	s := macro.NewSeries("X", "%", monthly(1, 2, 3, 4))
	c := macro.Chart{Title: "X", Lines: []macro.Line{
		{Name: "x", Series: s},
		{Name: "missing", Kind: "network"},
	}}
	p := NewPlot(c, 720, 240)
	if len(p.Lines) != 1 || len(p.Missing) != 1 {
		t.Fatalf("NewPlot() lines = %d, missing = %d", len(p.Lines), len(p.Missing))
	}
	l := p.Lines[0]
	if !strings.HasPrefix(l.Path, "M44.0,") || strings.Count(l.Path, "L") != 3 {
		t.Errorf("NewPlot() path = %q", l.Path)
	}
	if l.Color != palette[0] || l.Latest != "4.00%" {
		t.Errorf("NewPlot() line = %+v", l)
	}
	if len(p.YTicks) == 0 {
		t.Error("NewPlot() has no y ticks")
	}
	for _, tick := range p.YTicks {
		if tick.Pos < p.Top || tick.Pos > p.Bottom {
			t.Errorf("y tick %v is out of the plot", tick)
		}
	}

	if !NewPlot(macro.Chart{Title: "empty"}, 720, 240).Empty() {
		t.Error("NewPlot() of an empty chart is not empty")
	}
}
