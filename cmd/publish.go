package cmd

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"path"
	"path/filepath"
	"text/template"

	"github.com/etnz/macro"
	"github.com/etnz/macro/renderer"
	"github.com/google/subcommands"
)

// page is a file written by publish.
type page struct {
	Title   string
	Date    macro.Date
	Path    string // relative to the output directory
	Content []byte
}

type publishCmd struct {
	outputDir      string
	frontMatterTpl string
}

func (*publishCmd) Name() string { return "publish" }

func (*publishCmd) Synopsis() string { return "write a static snapshot of the dashboard" }

func (*publishCmd) Usage() string {
	return `mdash publish [-o <dir>] [-frontmatter <file>]

  Builds the dashboard and writes it as markdown and HTML, with one markdown
  page per indicator, to a directory:

    <dir>/index.md
    <dir>/index.html
    <dir>/series/<id>.md

  The front matter template receives .Title, .Date and .Path and is prepended
  to every markdown page.
`
}

func (c *publishCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.outputDir, "o", "site", "Root directory for the generated pages")
	f.StringVar(&c.frontMatterTpl, "frontmatter", "", "Path to a Go template file for the page front matter")
}

func (c *publishCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	var frontMatterTpl *template.Template
	if c.frontMatterTpl != "" {
		var err error
		frontMatterTpl, err = template.ParseFiles(c.frontMatterTpl)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to parse front matter template: %v\n", err)
			return subcommands.ExitFailure
		}
	}

	cat, err := Catalogue()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	sources, events := Sources()
	today := macro.Today()
	d := macro.Build(ctx, cat, sources, events, today)
	reportErrors(d.Err())

	pages, err := dashboardPages(d)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render the dashboard: %v\n", err)
		return subcommands.ExitFailure
	}
	// Series pages are fetched again, the disk cache makes it cheap.
	for _, ind := range cat.Indicators {
		s, err := macro.FetchIndicator(ctx, ind, sources, macro.NewRange(cat.Start, today))
		if err != nil {
			log.Printf("skipping series page %s: %v", ind.ID, err)
			continue
		}
		pages = append(pages, seriesPage(ind, s, today))
	}

	if err := writePages(c.outputDir, frontMatterTpl, pages); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Published %d pages to %s\n", len(pages), c.outputDir)
	return subcommands.ExitSuccess
}

// dashboardPages returns the markdown and the HTML rendering of the dashboard.
func dashboardPages(d *macro.Dashboard) ([]page, error) {
	var html bytes.Buffer
	if err := renderer.RenderHTML(&html, d, ""); err != nil {
		return nil, err
	}
	return []page{
		{Title: d.Title, Date: d.AsOf, Path: "index.md", Content: []byte(renderer.RenderDashboard(d))},
		{Title: d.Title, Date: d.AsOf, Path: "index.html", Content: html.Bytes()},
	}, nil
}

func seriesPage(ind macro.Indicator, s *macro.Series, on macro.Date) page {
	return page{
		Title:   ind.Label,
		Date:    on,
		Path:    path.Join("series", ind.ID+".md"),
		Content: []byte(renderer.RenderSeries(renderer.NewSeriesView(ind, s, renderer.SeriesRows))),
	}
}

// writePages writes the pages under dir, with the front matter prepended to
// markdown pages if tpl is not nil.
func writePages(dir string, tpl *template.Template, pages []page) error {
	for _, p := range pages {
		content := p.Content
		if tpl != nil && path.Ext(p.Path) == ".md" {
			fm, err := renderFrontMatter(tpl, p)
			if err != nil {
				return fmt.Errorf("failed to render front matter for %s: %w", p.Path, err)
			}
			content = append([]byte(fm+"\n"), content...)
		}

		fullPath := filepath.Join(dir, filepath.FromSlash(p.Path))
		if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
			return fmt.Errorf("failed to create output directory for file %s: %w", p.Path, err)
		}
		if err := os.WriteFile(fullPath, content, 0644); err != nil {
			return fmt.Errorf("failed to write file %s: %w", p.Path, err)
		}
		log.Printf("Generated %s", p.Path)
	}
	return nil
}

func renderFrontMatter(tpl *template.Template, p page) (string, error) {
	var fmBuffer bytes.Buffer
	if err := tpl.Execute(&fmBuffer, p); err != nil {
		return "", err
	}
	return fmBuffer.String(), nil
}
