// Package charts renders metric series as PNG images.
package charts

import (
	"bytes"
	"errors"
	"fmt"
	"image/color"
	"math"
	"strconv"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// Kind selects how a series is drawn.
type Kind string

const (
	Line    Kind = "line"
	Scatter Kind = "scatter"
	Bar     Kind = "bar"
)

// DPI is the fixed output resolution; pixel sizes map 1:1 to image bounds.
const DPI = 100

const (
	MinWidth      = 400
	MaxWidth      = 1200
	MinHeight     = 300
	MaxHeight     = 800
	DefaultWidth  = 800
	DefaultHeight = 600

	maxLegendLabel = 40
)

var (
	ErrNoSeries  = errors.New("no series to plot")
	ErrEmptyData = errors.New("series has no data points")

	gridColor = color.NRGBA{R: 0xb0, G: 0xb0, B: 0xb0, A: 0x4d}
)

func ParseKind(s string) (Kind, error) {
	switch k := Kind(s); k {
	case Line, Scatter, Bar:
		return k, nil
	}
	return "", fmt.Errorf("unknown chart type %q: expected line, scatter or bar", s)
}

// Options describe the whole image.
type Options struct {
	Title  string
	XLabel string
	YLabel string
	Width  int
	Height int
	Kind   Kind
	// Legend places a legend outside the plot area, to the right.
	Legend bool
}

// Series is one labelled sequence of (step, value) pairs.
type Series struct {
	Label  string
	Steps  []float64
	Values []float64
	Color  color.Color
}

func (s Series) xys() (plotter.XYs, error) {
	if len(s.Steps) != len(s.Values) {
		return nil, fmt.Errorf("series %q: %d steps for %d values", s.Label, len(s.Steps), len(s.Values))
	}
	if len(s.Values) == 0 {
		return nil, fmt.Errorf("series %q: %w", s.Label, ErrEmptyData)
	}
	pts := make(plotter.XYs, len(s.Values))
	for i := range s.Values {
		pts[i].X = s.Steps[i]
		pts[i].Y = s.Values[i]
	}
	return pts, nil
}

// Render draws every series on one set of axes and encodes the result as PNG.
func Render(opts Options, series ...Series) ([]byte, error) {
	if len(series) == 0 {
		return nil, ErrNoSeries
	}
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, fmt.Errorf("invalid image size %dx%d", opts.Width, opts.Height)
	}
	if opts.Kind == "" {
		opts.Kind = Line
	}
	if opts.Kind == Bar && len(series) > 1 {
		return nil, errors.New("bar charts take a single series")
	}

	p := plot.New()
	p.Title.Text = opts.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.Padding = vg.Points(8)
	p.X.Label.Text = opts.XLabel
	p.Y.Label.Text = opts.YLabel
	p.X.Label.TextStyle.Font.Size = vg.Points(12)
	p.Y.Label.TextStyle.Font.Size = vg.Points(12)

	grid := plotter.NewGrid()
	grid.Vertical.Color = gridColor
	grid.Horizontal.Color = gridColor
	p.Add(grid)

	legend := plot.NewLegend()
	legend.Top = true
	legend.Left = true
	legend.TextStyle.Font.Size = vg.Points(10)
	var labels []string

	width := vg.Length(opts.Width) * vg.Inch / DPI
	height := vg.Length(opts.Height) * vg.Inch / DPI

	for i, s := range series {
		if s.Color == nil {
			s.Color = Palette(i)
		}
		var (
			thumbs []plot.Thumbnailer
			err    error
		)
		switch opts.Kind {
		case Line:
			thumbs, err = addLine(p, s, len(series) > 1)
		case Scatter:
			thumbs, err = addScatter(p, s)
		case Bar:
			thumbs, err = addBar(p, s, width, opts.Width)
		default:
			err = fmt.Errorf("unknown chart type %q", opts.Kind)
		}
		if err != nil {
			return nil, err
		}
		if opts.Legend && s.Label != "" {
			label := truncate(s.Label, maxLegendLabel)
			legend.Add(label, thumbs...)
			labels = append(labels, label)
		}
	}

	canvas := vgimg.NewWith(vgimg.UseWH(width, height), vgimg.UseDPI(DPI))
	dc := draw.New(canvas)

	if len(labels) > 0 {
		pad := vg.Points(8)
		strip := legendWidth(legend, labels) + 2*pad
		if strip > width/3 {
			strip = width / 3
		}
		p.Draw(draw.Crop(dc, 0, -strip, 0, 0))
		legend.Draw(draw.Crop(dc, width-strip+pad, -pad, 0, -(pad + p.Title.TextStyle.Font.Size)))
	} else {
		p.Draw(dc)
	}

	var buf bytes.Buffer
	if _, err := (vgimg.PngCanvas{Canvas: canvas}).WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func addLine(p *plot.Plot, s Series, multi bool) ([]plot.Thumbnailer, error) {
	pts, err := s.xys()
	if err != nil {
		return nil, err
	}
	l, marks, err := plotter.NewLinePoints(pts)
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Label, err)
	}
	l.Color = s.Color
	l.Width = vg.Points(2)
	marks.Shape = draw.CircleGlyph{}
	marks.Color = s.Color
	marks.Radius = vg.Points(2)
	if multi {
		marks.Radius = vg.Points(1.5)
	}
	p.Add(l, marks)
	return []plot.Thumbnailer{l, marks}, nil
}

func addScatter(p *plot.Plot, s Series) ([]plot.Thumbnailer, error) {
	pts, err := s.xys()
	if err != nil {
		return nil, err
	}
	sc, err := plotter.NewScatter(pts)
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Label, err)
	}
	sc.Shape = draw.CircleGlyph{}
	sc.Color = withAlpha(s.Color, 0.7)
	sc.Radius = vg.Points(3)
	p.Add(sc)
	return []plot.Thumbnailer{sc}, nil
}

// addBar draws one bar per step on a nominal axis labelled with the steps.
func addBar(p *plot.Plot, s Series, width vg.Length, pixels int) ([]plot.Thumbnailer, error) {
	if _, err := s.xys(); err != nil {
		return nil, err
	}
	n := len(s.Values)
	bw := width * 0.8 / vg.Length(n)
	if bw < vg.Points(0.5) {
		bw = vg.Points(0.5)
	}
	bars, err := plotter.NewBarChart(plotter.Values(s.Values), bw)
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", s.Label, err)
	}
	bars.Color = withAlpha(s.Color, 0.7)
	bars.LineStyle.Width = 0
	p.Add(bars)
	p.NominalX(stepLabels(s.Steps, pixels/60)...)
	return []plot.Thumbnailer{bars}, nil
}

// stepLabels keeps at most limit evenly spaced labels; the rest are blank.
func stepLabels(steps []float64, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	every := int(math.Ceil(float64(len(steps)) / float64(limit)))
	if every < 1 {
		every = 1
	}
	out := make([]string, len(steps))
	for i, s := range steps {
		if i%every == 0 {
			out[i] = strconv.FormatFloat(s, 'f', -1, 64)
		}
	}
	return out
}

func legendWidth(l plot.Legend, labels []string) vg.Length {
	var widest vg.Length
	for _, label := range labels {
		if w := l.TextStyle.Rectangle(" " + label).Max.X; w > widest {
			widest = w
		}
	}
	return l.ThumbnailWidth + widest
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
