package export

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/de-tools/sales-report/pkg/currency"
	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/models/store"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// Reporter prints aggregates and archived runs as plain text tables
type Reporter struct {
	writer io.Writer
	symbol string
}

func NewReporter(writer io.Writer, symbol string) *Reporter {
	if writer == nil {
		writer = os.Stdout
	}
	if symbol == "" {
		symbol = currency.DefaultSymbol
	}
	return &Reporter{writer: writer, symbol: symbol}
}

func (r *Reporter) newTable() *tablewriter.Table {
	return tablewriter.NewTable(r.writer,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
	)
}

func (r *Reporter) render(header []string, rows [][]string) error {
	table := r.newTable()
	table.Header(header)
	if err := table.Bulk(rows); err != nil {
		return fmt.Errorf("failed to add table rows: %w", err)
	}
	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

// Summary prints the headline figures followed by both breakdowns
func (r *Reporter) Summary(s *domain.Summary) error {
	fmt.Fprintf(r.writer, "Period: %s to %s (%d days)\n\n",
		s.Period.StartLabel(), s.Period.EndLabel(), s.Period.Days())

	rows := [][]string{
		{"Records", strconv.Itoa(s.Records)},
		{"Total Sales", currency.Format(s.TotalSales, r.symbol)},
		{"Average Sale", currency.Format(s.AverageSales, r.symbol)},
		{"Top Product", s.TopProduct},
		{"Top Region", s.TopRegion},
	}
	if err := r.render([]string{"Metric", "Value"}, rows); err != nil {
		return err
	}

	fmt.Fprintln(r.writer)
	if err := r.Totals("Product", s.ProductTotals); err != nil {
		return err
	}
	fmt.Fprintln(r.writer)
	return r.Totals("Region", s.RegionTotals)
}

// Totals prints one row per category in the order given
func (r *Reporter) Totals(category string, totals []domain.CategoryTotal) error {
	rows := make([][]string, 0, len(totals))
	for _, t := range totals {
		rows = append(rows, []string{t.Label, currency.Format(t.Total, r.symbol)})
	}
	return r.render([]string{category, "Total Sales"}, rows)
}

func (r *Reporter) Runs(runs []store.ReportRun) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(r.writer, "No archived runs.")
		return err
	}

	rows := make([][]string, 0, len(runs))
	for _, run := range runs {
		rows = append(rows, []string{
			run.ID,
			run.GeneratedAt.Format("2006-01-02 15:04:05"),
			strconv.Itoa(run.Records),
			currency.Format(run.TotalSales, r.symbol),
			run.TopProduct,
			run.TopRegion,
			run.Output,
		})
	}
	return r.render([]string{"Run", "Generated", "Records", "Total Sales", "Top Product", "Top Region", "Output"}, rows)
}
