package document

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 40, 30))
	for x := 0; x < 40; x++ {
		for y := 0; y < 30; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 6), G: uint8(y * 8), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func salesFixture(n int) []domain.Sale {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	products := []string{"Widget", "Gadget", "Doohickey"}
	regions := []string{"East", "West", "North", "South"}

	sales := make([]domain.Sale, 0, n)
	for i := 0; i < n; i++ {
		sales = append(sales, domain.Sale{
			Line:    i + 2,
			Date:    start.AddDate(0, 0, i%31),
			Product: products[i%len(products)],
			Sales:   decimal.NewFromInt(int64(1000 + i*37)).Shift(-2),
			Region:  regions[i%len(regions)],
		})
	}
	return sales
}

func summaryFixture() *domain.Summary {
	return &domain.Summary{
		Records:      2,
		TotalSales:   decimal.RequireFromString("1234567.891"),
		AverageSales: decimal.RequireFromString("617283.9455"),
		TopProduct:   "Widget",
		TopRegion:    "East",
		Period: domain.DateRange{
			Start: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestCompose_BlockOrder(t *testing.T) {
	blocks := Compose(Input{
		Sales:    salesFixture(3),
		Summary:  summaryFixture(),
		BarChart: []byte("bar"),
		PieChart: []byte("pie"),
	})

	var outline []string
	for _, b := range blocks {
		switch v := b.(type) {
		case Heading:
			outline = append(outline, fmt.Sprintf("h%d:%s", v.Level, v.Text))
		case Image:
			outline = append(outline, "img:"+string(v.Data))
			assert.Equal(t, float64(ChartWidth), v.Width)
			assert.Equal(t, float64(ChartHeight), v.Height)
		case Paragraph:
			outline = append(outline, "p")
		case Table:
			outline = append(outline, "table")
		}
	}

	assert.Equal(t, []string{
		"h1:Sales Report",
		"h2:Executive Summary",
		"p",
		"h2:Sales by Product",
		"img:bar",
		"h2:Sales by Region",
		"img:pie",
		"h2:Detailed Sales Data",
		"table",
	}, outline)
}

func TestCompose_SummaryParagraph(t *testing.T) {
	blocks := Compose(Input{Title: "Q1", Currency: "$", Sales: salesFixture(1), Summary: summaryFixture()})

	assert.Equal(t, Heading{Text: "Q1", Level: 1}, blocks[0])

	var para Paragraph
	for _, b := range blocks {
		if p, ok := b.(Paragraph); ok {
			para = p
		}
	}
	assert.Equal(t, []string{
		"This report analyzes sales data for the period 2024-01-01 to 2024-01-31.",
		"Key findings include:",
		"• Total Sales: $1,234,567.89",
		"• Average Sale: $617,283.95",
		"• Top Performing Product: Widget",
		"• Top Performing Region: East",
	}, para.Lines)
}

func TestDetailTable_OneRowPerSale(t *testing.T) {
	sales := salesFixture(5)
	sales[4].Sales = decimal.RequireFromString("-1234.5")

	table := DetailTable(sales, "$")

	assert.Equal(t, []string{"Date", "Product", "Sales", "Region"}, table.Header)
	require.Len(t, table.Rows, len(sales))
	for i, s := range sales {
		assert.Equal(t, s.Date.Format("2006-01-02"), table.Rows[i][0])
		assert.Equal(t, s.Product, table.Rows[i][1])
		assert.Equal(t, s.Region, table.Rows[i][3])
	}
	assert.Equal(t, "$10.00", table.Rows[0][2])
	assert.Equal(t, "$10.37", table.Rows[1][2])
	assert.Equal(t, "-$1,234.50", table.Rows[4][2])
}

func TestCompose_DatesAsWritten(t *testing.T) {
	sales := salesFixture(2)
	sales[0].DateText = "01/01/2024"
	summary := summaryFixture()
	summary.Period.StartText = "01/01/2024"
	summary.Period.EndText = "2024/01/31"

	blocks := Compose(Input{Sales: sales, Summary: summary})

	para := blocks[4].(Paragraph)
	assert.Equal(t, "This report analyzes sales data for the period 01/01/2024 to 2024/01/31.", para.Lines[0])
	table := blocks[len(blocks)-1].(Table)
	assert.Equal(t, "01/01/2024", table.Rows[0][0])
	assert.Equal(t, "2024-01-02", table.Rows[1][0])
}

func TestBuilder_Build_WritesPDF(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sales_report_20240131.pdf")
	require.NoError(t, os.WriteFile(path, []byte("stale"), 0o644))

	img := pngBytes(t)
	blocks := Compose(Input{Sales: salesFixture(4), Summary: summaryFixture(), BarChart: img, PieChart: img})

	err := NewBuilder(DefaultLayout(), DefaultTitle).Build(context.Background(), blocks, path)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(data, []byte("%PDF")), "existing file replaced by a pdf")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp file left behind")
}

func TestBuilder_Build_FileMode(t *testing.T) {
	img := pngBytes(t)
	blocks := Compose(Input{Sales: salesFixture(2), Summary: summaryFixture(), BarChart: img, PieChart: img})

	t.Run("new report is world readable", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.pdf")

		require.NoError(t, NewBuilder(DefaultLayout(), DefaultTitle).Build(context.Background(), blocks, path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
	})

	t.Run("replaced report keeps its mode", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "report.pdf")
		require.NoError(t, os.WriteFile(path, []byte("stale"), 0o600))
		require.NoError(t, os.Chmod(path, 0o640))

		require.NoError(t, NewBuilder(DefaultLayout(), DefaultTitle).Build(context.Background(), blocks, path))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o640), info.Mode().Perm())
	})
}

func TestFlowWriter_Clip(t *testing.T) {
	b := NewBuilder(DefaultLayout(), DefaultTitle).(*pdfBuilder)
	pdf, err := b.newDocument()
	require.NoError(t, err)
	fw := newFlowWriter(pdf, b.layout)
	fw.newPage()
	require.NoError(t, fw.setFont(fontRegular, b.layout.CellFontSize, black))

	t.Run("short text unchanged", func(t *testing.T) {
		got, err := fw.clip("Widget", 100)
		require.NoError(t, err)
		assert.Equal(t, "Widget", got)
	})

	t.Run("long text fits its column", func(t *testing.T) {
		long := strings.Repeat("Deluxe Widget ", 6)

		got, err := fw.clip(long, 120)

		require.NoError(t, err)
		assert.True(t, strings.HasSuffix(got, "…"), got)
		assert.True(t, strings.HasPrefix(long, strings.TrimSuffix(got, "…")), got)
		w, err := pdf.MeasureTextWidth(got)
		require.NoError(t, err)
		assert.LessOrEqual(t, w, 120.0)
	})
}

func TestBuilder_Build_WideTable(t *testing.T) {
	sales := salesFixture(3)
	sales[1].Product = strings.Repeat("Deluxe Widget ", 6)
	img := pngBytes(t)
	path := filepath.Join(t.TempDir(), "report.pdf")

	err := NewBuilder(DefaultLayout(), DefaultTitle).Build(context.Background(),
		Compose(Input{Sales: sales, Summary: summaryFixture(), BarChart: img, PieChart: img}), path)

	require.NoError(t, err)
	assert.FileExists(t, path)
}

func TestBuilder_Render_Paginates(t *testing.T) {
	img := pngBytes(t)
	b := NewBuilder(DefaultLayout(), DefaultTitle).(*pdfBuilder)

	_, small, err := b.render(context.Background(), Compose(Input{Sales: salesFixture(1), Summary: summaryFixture(), BarChart: img, PieChart: img}))
	require.NoError(t, err)

	_, large, err := b.render(context.Background(), Compose(Input{Sales: salesFixture(150), Summary: summaryFixture(), BarChart: img, PieChart: img}))
	require.NoError(t, err)

	assert.GreaterOrEqual(t, small, 2, "two 300pt charts do not fit one letter page")
	assert.Greater(t, large, small)
}

func TestBuilder_Build_Failures(t *testing.T) {
	img := pngBytes(t)

	tests := []struct {
		name   string
		blocks func() []Block
		path   func(dir string) string
	}{
		{
			name: "malformed image buffer",
			blocks: func() []Block {
				return Compose(Input{Sales: salesFixture(2), Summary: summaryFixture(), BarChart: []byte("not a png"), PieChart: img})
			},
			path: func(dir string) string { return filepath.Join(dir, "report.pdf") },
		},
		{
			name: "empty image buffer",
			blocks: func() []Block {
				return Compose(Input{Sales: salesFixture(2), Summary: summaryFixture(), BarChart: img})
			},
			path: func(dir string) string { return filepath.Join(dir, "report.pdf") },
		},
		{
			name: "ragged table",
			blocks: func() []Block {
				return []Block{Table{Header: []string{"A", "B"}, Rows: [][]string{{"1"}}}}
			},
			path: func(dir string) string { return filepath.Join(dir, "report.pdf") },
		},
		{
			name: "unwritable output path",
			blocks: func() []Block {
				return Compose(Input{Sales: salesFixture(2), Summary: summaryFixture(), BarChart: img, PieChart: img})
			},
			path: func(dir string) string { return filepath.Join(dir, "missing", "report.pdf") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := tt.path(dir)

			err := NewBuilder(DefaultLayout(), DefaultTitle).Build(context.Background(), tt.blocks(), path)

			var buildErr *domain.DocumentBuildError
			require.ErrorAs(t, err, &buildErr)
			assert.Equal(t, path, buildErr.Path)

			entries, err := os.ReadDir(dir)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing written on failure")
		})
	}
}
