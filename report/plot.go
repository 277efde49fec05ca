// Package report renders evaluation results: the ROC figure, a JSON
// summary and a terminal table.
package report

import (
	"fmt"
	"image/color"
	"os"
	"strconv"
	"strings"

	"OnnxRocEval/roc"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"
)

// DefaultPalette is used in class order.
var DefaultPalette = []string{
	"#019EA9", "#F56E03", "#F08DA9", "#7974E7",
	"#00C143", "#4D9CDD", "#D5A358", "#B1C700",
}

type FigureOptions struct {
	Title        string
	XLabel       string
	YLabel       string
	WidthInches  float64
	HeightInches float64
	DPI          int
	Palette      []color.Color

	// Sizes in points.
	LineWidth       float64
	LegendLineWidth float64
	TitleSize       float64
	LabelSize       float64
	TickSize        float64
	LegendSize      float64

	Grid bool
}

func DefaultFigure() FigureOptions {
	palette := make([]color.Color, len(DefaultPalette))
	for i, hex := range DefaultPalette {
		palette[i], _ = ParseHexColor(hex)
	}
	return FigureOptions{
		Title:           "ROC Curve - Multiclass",
		XLabel:          "False Positive Rate / FPR",
		YLabel:          "True Positive Rate / TPR",
		WidthInches:     6,
		HeightInches:    8.5,
		DPI:             300,
		Palette:         palette,
		LineWidth:       1.5,
		LegendLineWidth: 2.5,
		TitleSize:       22,
		LabelSize:       18,
		TickSize:        18,
		LegendSize:      16,
		Grid:            true,
	}
}

// ParseHexColor accepts #RRGGBB and #RRGGBBAA.
func ParseHexColor(s string) (color.NRGBA, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(h) != 6 && len(h) != 8 {
		return color.NRGBA{}, fmt.Errorf("invalid color %q", s)
	}
	if len(h) == 6 {
		h += "ff"
	}
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}

func (o FigureOptions) color(i int) color.Color {
	if i < len(o.Palette) {
		return o.Palette[i]
	}
	return plotutil.Color(i - len(o.Palette))
}

// legendLine draws a legend swatch with its own width so thin curves stay
// readable in the legend.
type legendLine struct {
	style draw.LineStyle
}

func (l legendLine) Thumbnail(c *draw.Canvas) {
	y := c.Center().Y
	c.StrokeLine2(l.style, c.Min.X, y, c.Max.X, y)
}

// NewPlot builds the figure. Curves without a defined ROC are left out.
func NewPlot(curves []roc.Curve, o FigureOptions) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = o.Title
	p.Title.TextStyle.Font.Size = vg.Points(o.TitleSize)
	p.X.Label.Text = o.XLabel
	p.Y.Label.Text = o.YLabel
	for _, a := range []*plot.Axis{&p.X, &p.Y} {
		a.Label.TextStyle.Font.Size = vg.Points(o.LabelSize)
		a.Tick.Label.Font.Size = vg.Points(o.TickSize)
	}
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1.02

	if o.Grid {
		grid := plotter.NewGrid()
		for _, ls := range []*draw.LineStyle{&grid.Vertical, &grid.Horizontal} {
			ls.Width = vg.Points(0.5)
			ls.Dashes = []vg.Length{vg.Points(3), vg.Points(3)}
			ls.Color = color.NRGBA{A: 153}
		}
		p.Add(grid)
	}

	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.TextStyle.Font.Size = vg.Points(o.LegendSize)
	p.Legend.XOffs = -vg.Points(8)
	p.Legend.YOffs = vg.Points(8)

	for i, c := range curves {
		if !c.Defined() {
			continue
		}
		pts := make(plotter.XYs, len(c.FPR))
		for k := range c.FPR {
			pts[k].X = c.FPR[k]
			pts[k].Y = c.TPR[k]
		}
		line, err := plotter.NewLine(pts)
		if err != nil {
			return nil, fmt.Errorf("class %q: %w", c.Label, err)
		}
		line.LineStyle.Width = vg.Points(o.LineWidth)
		line.LineStyle.Color = o.color(i)
		p.Add(line)
		p.Legend.Add(fmt.Sprintf("%s  (AUC = %.2f)", c.Label, c.AUC), o.legend(line.LineStyle))
	}

	diag, err := plotter.NewLine(plotter.XYs{{X: 0, Y: 0}, {X: 1, Y: 1}})
	if err != nil {
		return nil, err
	}
	diag.LineStyle.Width = vg.Points(1)
	diag.LineStyle.Color = color.Black
	diag.LineStyle.Dashes = []vg.Length{vg.Points(5), vg.Points(3)}
	p.Add(diag)
	p.Legend.Add("Random", o.legend(diag.LineStyle))
	return p, nil
}

func (o FigureOptions) legend(ls draw.LineStyle) legendLine {
	ls.Width = vg.Points(o.LegendLineWidth)
	return legendLine{style: ls}
}

// Render draws the figure and writes it as PNG to path.
func Render(curves []roc.Curve, o FigureOptions, path string) error {
	p, err := NewPlot(curves, o)
	if err != nil {
		return err
	}
	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(o.WidthInches)*vg.Inch, vg.Length(o.HeightInches)*vg.Inch),
		vgimg.UseDPI(o.DPI),
	)
	p.Draw(draw.New(c))

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: c}).WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
