package chart

import (
	"bytes"
	"context"
	"fmt"
	"image/color"
	"math"

	"github.com/de-tools/sales-report/pkg/currency"
	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/services/aggregate"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

const (
	ChartBar = "bar"
	ChartPie = "pie"
)

// palette follows the matplotlib tab10 cycle
var palette = []color.Color{
	color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	color.RGBA{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	color.RGBA{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	color.RGBA{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	color.RGBA{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
	color.RGBA{R: 0xbc, G: 0xbd, B: 0x22, A: 0xff},
	color.RGBA{R: 0x17, G: 0xbe, B: 0xcf, A: 0xff},
}

type Options struct {
	Width    vg.Length
	Height   vg.Length
	Currency string
}

func DefaultOptions() Options {
	return Options{
		Width:    8 * vg.Inch,
		Height:   6 * vg.Inch,
		Currency: currency.DefaultSymbol,
	}
}

// Renderer turns aggregate mappings into PNG images
type Renderer interface {
	BarChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error)
	PieChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error)
}

type renderer struct {
	opts Options
}

func NewRenderer(opts Options) Renderer {
	defaults := DefaultOptions()
	if opts.Width <= 0 {
		opts.Width = defaults.Width
	}
	if opts.Height <= 0 {
		opts.Height = defaults.Height
	}
	if opts.Currency == "" {
		opts.Currency = defaults.Currency
	}
	return &renderer{opts: opts}
}

// BarChart draws one bar per category in the given order
func (r *renderer) BarChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error) {
	if len(totals) == 0 {
		return nil, &domain.RenderError{Chart: ChartBar, Err: aggregate.ErrNoCategories}
	}

	p := plot.New()
	p.Title.Text = "Total Sales by Product"
	p.X.Label.Text = "Product"
	p.Y.Label.Text = fmt.Sprintf("Total Sales (%s)", r.opts.Currency)

	values := make(plotter.Values, len(totals))
	names := make([]string, len(totals))
	for i, t := range totals {
		values[i] = t.Total.InexactFloat64()
		names[i] = t.Label
	}

	bars, err := plotter.NewBarChart(values, r.barWidth(len(totals)))
	if err != nil {
		return nil, &domain.RenderError{Chart: ChartBar, Err: err}
	}
	bars.Color = palette[0]
	bars.LineStyle.Width = vg.Length(0)

	grid := plotter.NewGrid()
	grid.Vertical.Color = nil

	p.Add(grid, bars)
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter
	p.Y.Tick.Marker = currencyTicks{symbol: r.opts.Currency}

	png, err := r.encode(p)
	if err != nil {
		return nil, &domain.RenderError{Chart: ChartBar, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Int("bars", len(totals)).
		Int("bytes", len(png)).
		Msg("bar chart rendered")
	return png, nil
}

// PieChart draws one wedge per category, annotated with its share
func (r *renderer) PieChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error) {
	shares, err := aggregate.Shares(totals)
	if err != nil {
		return nil, &domain.RenderError{Chart: ChartPie, Err: err}
	}

	p := plot.New()
	p.Title.Text = "Sales Distribution by Region"
	p.HideAxes()

	labelStyle := p.Legend.TextStyle
	labelStyle.Font.Size = vg.Points(11)
	p.Add(&pieChart{shares: shares, style: labelStyle})

	png, err := r.encode(p)
	if err != nil {
		return nil, &domain.RenderError{Chart: ChartPie, Err: err}
	}

	zerolog.Ctx(ctx).Debug().
		Int("slices", len(shares)).
		Int("bytes", len(png)).
		Msg("pie chart rendered")
	return png, nil
}

func (r *renderer) barWidth(n int) vg.Length {
	w := r.opts.Width * 0.6 / vg.Length(n)
	if w > vg.Points(40) {
		return vg.Points(40)
	}
	return w
}

// encode writes the plot as PNG into a buffer owned by this call
func (r *renderer) encode(p *plot.Plot) ([]byte, error) {
	w, err := p.WriterTo(r.opts.Width, r.opts.Height, "png")
	if err != nil {
		return nil, fmt.Errorf("create png canvas: %w", err)
	}

	var buf bytes.Buffer
	if _, err := w.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

// currencyTicks labels the major ticks of the default ticker as amounts
type currencyTicks struct {
	symbol string
}

func (c currencyTicks) Ticks(min, max float64) []plot.Tick {
	ticks := plot.DefaultTicks{}.Ticks(min, max)
	for i := range ticks {
		if ticks[i].Label == "" {
			continue
		}
		ticks[i].Label = currency.FormatWhole(decimal.NewFromFloat(ticks[i].Value), c.symbol)
	}
	return ticks
}
