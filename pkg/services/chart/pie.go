package chart

import (
	"image/color"
	"math"

	"github.com/de-tools/sales-report/pkg/services/aggregate"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieChart implements plot.Plotter. Wedges start at 12 o'clock and run
// counter-clockwise in share order.
type pieChart struct {
	shares []aggregate.Share
	style  text.Style
}

var _ plot.Plotter = (*pieChart)(nil)

func (pc *pieChart) Plot(c draw.Canvas, _ *plot.Plot) {
	center := vg.Point{X: (c.Min.X + c.Max.X) / 2, Y: (c.Min.Y + c.Max.Y) / 2}
	side := c.Max.X - c.Min.X
	if h := c.Max.Y - c.Min.Y; h < side {
		side = h
	}
	radius := side / 2 * 0.72

	outline := draw.LineStyle{Color: color.White, Width: vg.Points(1)}
	angle := math.Pi / 2

	for i, s := range pc.shares {
		sweep := 2 * math.Pi * s.Percent / 100
		if sweep <= 0 {
			continue
		}

		var wedge vg.Path
		if sweep >= 2*math.Pi-1e-9 {
			wedge.Arc(center, radius, 0, 2*math.Pi)
		} else {
			wedge.Move(center)
			wedge.Arc(center, radius, angle, sweep)
		}
		wedge.Close()

		c.SetColor(palette[i%len(palette)])
		c.Fill(wedge)
		c.SetLineStyle(outline)
		c.Stroke(wedge)

		mid := angle + sweep/2
		cos, sin := vg.Length(math.Cos(mid)), vg.Length(math.Sin(mid))

		inner := pc.style
		inner.XAlign = draw.XCenter
		inner.YAlign = draw.YCenter
		c.FillText(inner, vg.Point{X: center.X + radius*0.6*cos, Y: center.Y + radius*0.6*sin}, s.PercentLabel())

		outer := pc.style
		outer.YAlign = draw.YCenter
		outer.XAlign = draw.XLeft
		if cos < 0 {
			outer.XAlign = draw.XRight
		}
		c.FillText(outer, vg.Point{X: center.X + radius*1.1*cos, Y: center.Y + radius*1.1*sin}, s.Label)

		angle += sweep
	}
}
