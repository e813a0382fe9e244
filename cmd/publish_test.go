package cmd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"text/template"
	"time"

	"github.com/etnz/macro"
	"github.com/shopspring/decimal"
)

type cannedSource map[string][]macro.Point

func (s cannedSource) FetchSeries(_ context.Context, id string, _ macro.Range) ([]macro.Point, error) {
	return s[id], nil
}

func TestWritePages(t *testing.T) {
	on := macro.NewDate(2025, time.March, 10)
	ind := macro.Indicator{ID: "FEDFUNDS", Label: "Fed Funds Rate", Source: macro.SourceFRED, Unit: "%"}
	cat := &macro.Catalogue{Title: "Rates", Start: macro.NewDate(2025, time.January, 1), Indicators: []macro.Indicator{ind}}
	src := cannedSource{"FEDFUNDS": {
		{Date: macro.NewDate(2025, time.January, 1), Value: decimal.RequireFromString("4.33")},
		{Date: macro.NewDate(2025, time.February, 1), Value: decimal.RequireFromString("4.33")},
	}}
	sources := map[string]macro.SeriesFetcher{macro.SourceFRED: src}
	d := macro.Build(context.Background(), cat, sources, nil, on)

	pages, err := dashboardPages(d)
	if err != nil {
		t.Fatalf("dashboardPages() error = %v", err)
	}
	s := macro.NewSeries(ind.ID, ind.Unit, src["FEDFUNDS"])
	pages = append(pages, seriesPage(ind, s, on))

	tpl := template.Must(template.New("fm").Parse("---\ntitle: {{.Title}}\ndate: {{.Date}}\npath: {{.Path}}\n---\n"))
	dir := t.TempDir()
	if err := writePages(dir, tpl, pages); err != nil {
		t.Fatalf("writePages() error = %v", err)
	}

	read := func(name string) string {
		t.Helper()
		content, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			t.Fatalf("missing page: %v", err)
		}
		return string(content)
	}

	index := read("index.md")
	if !strings.HasPrefix(index, "---\ntitle: Rates\ndate: 2025-03-10\npath: index.md\n---\n") {
		t.Errorf("index.md front matter:\n%s", index)
	}
	if !strings.Contains(index, "# Rates") {
		t.Errorf("index.md is not the dashboard:\n%s", index)
	}

	html := read("index.html")
	if strings.HasPrefix(html, "---") {
		t.Errorf("index.html has a front matter")
	}
	if !strings.Contains(html, "<html") {
		t.Errorf("index.html is not a page:\n%s", html)
	}

	series := read("series/FEDFUNDS.md")
	for _, want := range []string{"title: Fed Funds Rate", "# Fed Funds Rate", "| 2025-02-01 | 4.33 |"} {
		if !strings.Contains(series, want) {
			t.Errorf("series page is missing %q:\n%s", want, series)
		}
	}
}

func TestWritePages_NoFrontMatter(t *testing.T) {
	dir := t.TempDir()
	pages := []page{{Title: "x", Path: "a/b.md", Content: []byte("# x\n")}}
	if err := writePages(dir, nil, pages); err != nil {
		t.Fatalf("writePages() error = %v", err)
	}
	content, err := os.ReadFile(filepath.Join(dir, "a", "b.md"))
	if err != nil {
		t.Fatal(err)
	}
	if string(content) != "# x\n" {
		t.Errorf("content = %q, want %q", content, "# x\n")
	}
}
