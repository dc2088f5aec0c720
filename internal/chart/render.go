package chart

import (
	"fmt"
	"image/color"
	"math"
	"strconv"
	"strings"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"heartbot/internal/models"
)

// maxTickLabels bounds the number of labelled x ticks.
const maxTickLabels = 16

// Renderer draws a single field series as a line chart.
type Renderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewRenderer returns a renderer with a 12x8 inch canvas.
func NewRenderer() *Renderer {
	return &Renderer{Width: 12 * vg.Inch, Height: 8 * vg.Inch}
}

// CoerceValue parses a raw field value. Missing and empty values become 0.
func CoerceValue(raw *string) (float64, error) {
	if raw == nil || *raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(*raw), 64)
	if err != nil {
		return 0, fmt.Errorf("invalid value %q: %w", *raw, err)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("invalid value %q: not finite", *raw)
	}
	return v, nil
}

// CoerceSeries converts every point of a series with CoerceValue.
func CoerceSeries(s models.Series) ([]float64, error) {
	out := make([]float64, len(s))
	for i, p := range s {
		v, err := CoerceValue(p.Raw)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

// Render plots the series and saves it as a JPEG at path.
func (r *Renderer) Render(s models.Series, label, path string) error {
	values, err := CoerceSeries(s)
	if err != nil {
		return err
	}

	p := plot.New()
	p.Title.Text = "Thingspeak Data - " + label
	p.X.Label.Text = "Time"
	p.Y.Label.Text = "Value"

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, points, err := plotter.NewLinePoints(pts)
	if err != nil {
		return fmt.Errorf("build series: %w", err)
	}
	blue := color.RGBA{B: 255, A: 255}
	line.LineStyle.Color = blue
	points.GlyphStyle.Color = blue
	points.GlyphStyle.Shape = draw.CircleGlyph{}
	p.Add(line, points)
	p.Legend.Add(label, line, points)
	p.Legend.Top = true

	p.X.Tick.Marker = plot.ConstantTicks(timeTicks(s))
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("save chart %s: %w", path, err)
	}
	return nil
}

// timeTicks labels at most maxTickLabels evenly spaced points, always including the last.
func timeTicks(s models.Series) []plot.Tick {
	if len(s) == 0 {
		return nil
	}
	step := 1
	if len(s) > maxTickLabels {
		step = (len(s) + maxTickLabels - 1) / maxTickLabels
	}
	ticks := make([]plot.Tick, 0, len(s))
	for i, pt := range s {
		t := plot.Tick{Value: float64(i)}
		if i%step == 0 || i == len(s)-1 {
			t.Label = pt.Time
		}
		ticks = append(ticks, t)
	}
	return ticks
}
