// Package chart renders the /analysis line charts.
package chart

import (
	"bytes"
	"fmt"

	gochart "github.com/wcharczuk/go-chart/v2"
)

// RenderLineChart draws ys against xs and returns a PNG.
func RenderLineChart(title, label string, xs, ys []float64) ([]byte, error) {
	if len(xs) == 0 || len(xs) != len(ys) {
		return nil, fmt.Errorf("chart %q: need matching non-empty series, got %d x and %d y", title, len(xs), len(ys))
	}

	graph := gochart.Chart{
		Title:  title,
		Width:  800,
		Height: 400,
		Background: gochart.Style{
			Padding: gochart.Box{Top: 50, Left: 20, Right: 20, Bottom: 20},
		},
		XAxis: gochart.XAxis{Name: "minutes"},
		YAxis: gochart.YAxis{Name: label},
		Series: []gochart.Series{
			gochart.ContinuousSeries{
				Name:    label,
				XValues: xs,
				YValues: ys,
			},
		},
	}

	// a flat line has a zero-height range, which go-chart refuses to draw
	if lo, hi := bounds(ys); lo == hi {
		graph.YAxis.Range = &gochart.ContinuousRange{Min: lo - 1, Max: hi + 1}
	}

	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	var buf bytes.Buffer
	if err := graph.Render(gochart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render chart %q: %w", title, err)
	}
	return buf.Bytes(), nil
}

func bounds(vs []float64) (lo, hi float64) {
	lo, hi = vs[0], vs[0]
	for _, v := range vs[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}
