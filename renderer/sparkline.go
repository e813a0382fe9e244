package renderer

import (
	"math"
	"strings"
)

var ticks = []rune("▁▂▃▄▅▆▇█")

// Sparkline draws values as a line of block characters, at most width runes
// wide. Longer inputs are downsampled by averaging consecutive values.
func Sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return ""
	}
	values = downsample(values, width)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		lo, hi = min(lo, v), max(hi, v)
	}
	var b strings.Builder
	for _, v := range values {
		i := len(ticks) / 2
		if hi > lo {
			i = int((v - lo) / (hi - lo) * float64(len(ticks)-1))
		}
		b.WriteRune(ticks[i])
	}
	return b.String()
}

// downsample averages values into n buckets.
func downsample(values []float64, n int) []float64 {
	if len(values) <= n {
		return values
	}
	res := make([]float64, n)
	for i := range res {
		from, to := i*len(values)/n, (i+1)*len(values)/n
		var sum float64
		for _, v := range values[from:to] {
			sum += v
		}
		res[i] = sum / float64(to-from)
	}
	return res
}
