package renderer

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/etnz/macro"
)

// palette colors lines that don't have one.
var palette = []string{"#4c78a8", "#f58518", "#54a24b", "#e45756", "#72b7b2", "#b279a2"}

// Plot is the geometry of a line chart, ready to be drawn as SVG.
type Plot struct {
	Title         string
	Width, Height int
	Lines         []PlotLine
	XTicks        []Tick
	YTicks        []Tick
	// Missing are the lines that could not be plotted.
	Missing []macro.Line
	// Box is the plotting area.
	Left, Top, Right, Bottom float64
}

// PlotLine is a polyline of the plot.
type PlotLine struct {
	Name   string
	Color  string
	Path   string // SVG path data
	Latest string // formatted last value
}

// Tick is an axis graduation at position Pos.
type Tick struct {
	Pos   float64
	Label string
}

// Empty returns true if there is nothing to draw.
func (p Plot) Empty() bool { return len(p.Lines) == 0 }

// NewPlot computes the plot of chart c in a width x height box. Dates map to
// the horizontal axis linearly, values to the vertical one, with a small
// margin above and below.
func NewPlot(c macro.Chart, width, height int) Plot {
	p := Plot{
		Title:  c.Title,
		Width:  width,
		Height: height,
		Left:   44,
		Top:    8,
		Right:  float64(width) - 8,
		Bottom: float64(height) - 22,
	}
	for _, l := range c.Lines {
		if l.Series == nil || l.Series.IsEmpty() {
			p.Missing = append(p.Missing, l)
		}
	}
	lines := c.Plotted()
	if len(lines) == 0 {
		return p
	}

	var first, last macro.Date
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, l := range lines {
		for d, v := range l.Series.Values() {
			if first.IsZero() || d.Before(first) {
				first = d
			}
			if last.IsZero() || d.After(last) {
				last = d
			}
			f := v.InexactFloat64()
			lo, hi = min(lo, f), max(hi, f)
		}
	}
	if hi == lo {
		lo, hi = lo-1, hi+1
	}
	pad := (hi - lo) * 0.05
	lo, hi = lo-pad, hi+pad
	span := max(first.DaysUntil(last), 1)

	x := func(d macro.Date) float64 {
		return p.Left + float64(first.DaysUntil(d))/float64(span)*(p.Right-p.Left)
	}
	y := func(v float64) float64 {
		return p.Bottom - (v-lo)/(hi-lo)*(p.Bottom-p.Top)
	}

	for i, l := range lines {
		var b strings.Builder
		for d, v := range l.Series.Values() {
			cmd := "L"
			if b.Len() == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&b, "%s%.1f,%.1f ", cmd, x(d), y(v.InexactFloat64()))
		}
		color := l.Color
		if color == "" {
			color = palette[i%len(palette)]
		}
		latest, _ := l.Series.Latest()
		p.Lines = append(p.Lines, PlotLine{
			Name:   l.Name,
			Color:  color,
			Path:   strings.TrimSpace(b.String()),
			Latest: formatValue(latest.Value.InexactFloat64(), l.Series.Unit),
		})
	}

	for _, v := range niceTicks(lo, hi, 5) {
		p.YTicks = append(p.YTicks, Tick{Pos: y(v), Label: trimFloat(v)})
	}
	step := max(1, (last.Year()-first.Year()+1)/8)
	for year := first.Year() + 1; year <= last.Year(); year += step {
		p.XTicks = append(p.XTicks, Tick{Pos: x(macro.NewDate(year, time.January, 1)), Label: fmt.Sprint(year)})
	}
	if len(p.XTicks) == 0 {
		p.XTicks = []Tick{{Pos: x(first), Label: first.String()}, {Pos: x(last), Label: last.String()}}
	}
	return p
}

// niceTicks returns about n round values between lo and hi.
func niceTicks(lo, hi float64, n int) []float64 {
	raw := (hi - lo) / float64(n)
	mag := math.Pow(10, math.Floor(math.Log10(raw)))
	step := mag
	for _, m := range []float64{1, 2, 5, 10} {
		step = m * mag
		if step >= raw {
			break
		}
	}
	var res []float64
	for v := math.Ceil(lo/step) * step; v <= hi; v += step {
		res = append(res, math.Round(v/step)*step)
	}
	return res
}

func trimFloat(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func formatValue(v float64, unit string) string {
	if unit == "%" {
		return fmt.Sprintf("%.2f%%", v)
	}
	return fmt.Sprintf("%.2f", v)
}
