package renderer

import (
	"bytes"
	"html/template"
	"io"
	"io/fs"
	"sync"

	"github.com/etnz/macro"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Chart size, in SVG user units.
const (
	ChartWidth  = 720
	ChartHeight = 240
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = sync.OnceValues(func() (*template.Template, error) {
	content, err := fs.ReadFile(templates, "templates/dashboard.html")
	if err != nil {
		return nil, err
	}
	return template.New("dashboard").Funcs(template.FuncMap{
		"reason": Reason,
		"add":    func(a, b float64) float64 { return a + b },
		"sub":    func(a, b float64) float64 { return a - b },
	}).Parse(string(content))
})

type pageData struct {
	*macro.Dashboard
	Plots    []Plot
	Notes    template.HTML
	Briefing template.HTML
}

// HTML converts markdown to HTML. Raw HTML in the source is omitted.
func HTML(src string) (template.HTML, error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(src), &buf); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// RenderHTML writes the dashboard as a standalone HTML page. briefing is
// optional markdown commentary shown below the charts.
func RenderHTML(w io.Writer, d *macro.Dashboard, briefing string) error {
	tmpl, err := page()
	if err != nil {
		return err
	}
	data := pageData{Dashboard: d}
	for _, c := range d.Charts {
		data.Plots = append(data.Plots, NewPlot(c, ChartWidth, ChartHeight))
	}
	if data.Notes, err = HTML(Notes()); err != nil {
		return err
	}
	if briefing != "" {
		if data.Briefing, err = HTML(briefing); err != nil {
			return err
		}
	}
	return tmpl.Execute(w, data)
}
