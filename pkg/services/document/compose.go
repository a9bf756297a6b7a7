package document

import (
	"fmt"

	"github.com/de-tools/sales-report/pkg/currency"
	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/store/source"
)

const (
	DefaultTitle = "Sales Report"

	// ChartWidth and ChartHeight are the display size of both charts, in points
	ChartWidth  = 400
	ChartHeight = 300

	spacerHeight = 12
)

// Block is one element of the report flow
type Block interface {
	block()
}

type Heading struct {
	Text  string
	Level int // 1 for the title, 2 for sections
}

// Paragraph is laid out line by line; long lines wrap at word boundaries
type Paragraph struct {
	Lines []string
}

type Spacer struct {
	Height float64
}

type Image struct {
	Name   string
	Data   []byte
	Width  float64
	Height float64
}

type Table struct {
	Header []string
	Rows   [][]string
}

func (Heading) block()   {}
func (Paragraph) block() {}
func (Spacer) block()    {}
func (Image) block()     {}
func (Table) block()     {}

// Input carries everything the report shows. Sales must be the same
// sequence Summary and both charts were computed from.
type Input struct {
	Title    string
	Currency string
	Sales    []domain.Sale
	Summary  *domain.Summary
	BarChart []byte
	PieChart []byte
}

// Compose lays the report out as an ordered block sequence
func Compose(in Input) []Block {
	title := in.Title
	if title == "" {
		title = DefaultTitle
	}
	symbol := in.Currency
	if symbol == "" {
		symbol = currency.DefaultSymbol
	}
	gap := Spacer{Height: spacerHeight}

	return []Block{
		Heading{Text: title, Level: 1},
		gap,
		Heading{Text: "Executive Summary", Level: 2},
		gap,
		Paragraph{Lines: summaryLines(in.Summary, symbol)},
		gap,
		Heading{Text: "Sales by Product", Level: 2},
		gap,
		Image{Name: "bar", Data: in.BarChart, Width: ChartWidth, Height: ChartHeight},
		gap,
		Heading{Text: "Sales by Region", Level: 2},
		gap,
		Image{Name: "pie", Data: in.PieChart, Width: ChartWidth, Height: ChartHeight},
		gap,
		Heading{Text: "Detailed Sales Data", Level: 2},
		gap,
		DetailTable(in.Sales, symbol),
	}
}

func summaryLines(s *domain.Summary, symbol string) []string {
	return []string{
		fmt.Sprintf("This report analyzes sales data for the period %s to %s.",
			s.Period.StartLabel(), s.Period.EndLabel()),
		"Key findings include:",
		"• Total Sales: " + currency.Format(s.TotalSales, symbol),
		"• Average Sale: " + currency.Format(s.AverageSales, symbol),
		"• Top Performing Product: " + s.TopProduct,
		"• Top Performing Region: " + s.TopRegion,
	}
}

// DetailTable lists every sale in input order
func DetailTable(sales []domain.Sale, symbol string) Table {
	header := make([]string, len(source.Columns))
	copy(header, source.Columns)

	rows := make([][]string, 0, len(sales))
	for _, s := range sales {
		rows = append(rows, []string{
			s.DateLabel(),
			s.Product,
			currency.Format(s.Sales, symbol),
			s.Region,
		})
	}
	return Table{Header: header, Rows: rows}
}
