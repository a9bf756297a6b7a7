package report

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/de-tools/sales-report/pkg/adapters"
	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/models/store"
	"github.com/de-tools/sales-report/pkg/services/aggregate"
	"github.com/de-tools/sales-report/pkg/services/chart"
	"github.com/de-tools/sales-report/pkg/services/document"
	"github.com/de-tools/sales-report/pkg/store/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

const fileDateLayout = "20060102"

// Archive persists a finished run. sales.Store satisfies it.
type Archive interface {
	Add(ctx context.Context, run store.ReportRun, records []store.SaleRecord) error
}

type Options struct {
	Loader   source.Loader
	Renderer chart.Renderer
	Builder  document.Builder
	Archive  Archive // optional
	Clock    func() time.Time
	NewID    func() string
	Title    string
	Currency string
}

type Result struct {
	RunID      string
	OutputPath string
	Summary    *domain.Summary
	Sales      []domain.Sale
	Archived   bool
}

type Generator struct {
	opts Options
}

func NewGenerator(opts Options) *Generator {
	if opts.Loader == nil {
		opts.Loader = source.NewLoader()
	}
	if opts.Renderer == nil {
		opts.Renderer = chart.NewRenderer(chart.DefaultOptions())
	}
	if opts.Builder == nil {
		opts.Builder = document.NewBuilder(document.DefaultLayout(), opts.Title)
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Generator{opts: opts}
}

// FileName is the report name for a run started at t
func FileName(t time.Time) string {
	return fmt.Sprintf("sales_report_%s.pdf", t.Format(fileDateLayout))
}

// Run executes load, aggregate, chart and build once each, in that order.
// The first failing stage aborts the run and no report is left behind.
func (g *Generator) Run(ctx context.Context, input, outputDir string) (*Result, error) {
	startedAt := g.opts.Clock()
	runID := g.opts.NewID()

	logger := zerolog.Ctx(ctx).With().Str("run_id", runID).Logger()
	ctx = logger.WithContext(ctx)

	logger.Info().Str("input", input).Msg("loading sales data")
	sales, err := g.opts.Loader.Load(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("load sales data: %w", err)
	}
	logger.Debug().Int("records", len(sales)).Msg("sales data loaded")

	summary, err := aggregate.Summarize(sales)
	if err != nil {
		var emptyErr *domain.EmptyDatasetError
		if errors.As(err, &emptyErr) {
			emptyErr.Source = input
		}
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	logger.Debug().
		Str("total", summary.TotalSales.StringFixed(2)).
		Str("top_product", summary.TopProduct).
		Str("top_region", summary.TopRegion).
		Msg("sales aggregated")

	bar, err := g.opts.Renderer.BarChart(ctx, summary.ProductTotals)
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	pie, err := g.opts.Renderer.PieChart(ctx, summary.RegionTotals)
	if err != nil {
		return nil, fmt.Errorf("render charts: %w", err)
	}
	logger.Debug().Int("bar_bytes", len(bar)).Int("pie_bytes", len(pie)).Msg("charts rendered")

	blocks := document.Compose(document.Input{
		Title:    g.opts.Title,
		Currency: g.opts.Currency,
		Sales:    sales,
		Summary:  summary,
		BarChart: bar,
		PieChart: pie,
	})

	output := filepath.Join(outputDir, FileName(startedAt))
	if err := g.opts.Builder.Build(ctx, blocks, output); err != nil {
		return nil, fmt.Errorf("build report: %w", err)
	}
	logger.Info().Str("output", output).Msg("report written")

	result := &Result{
		RunID:      runID,
		OutputPath: output,
		Summary:    summary,
		Sales:      sales,
	}

	if g.opts.Archive != nil {
		run := adapters.MapSummaryToStoreRun(store.ReportRun{
			ID:          runID,
			GeneratedAt: startedAt,
			Source:      input,
			Output:      output,
		}, summary)
		records := adapters.MapDomainSalesToStoreRecords(runID, sales)
		// the report is already on disk, a failed archive only loses history
		if err := g.opts.Archive.Add(ctx, run, records); err != nil {
			logger.Warn().Err(err).Msg("failed to archive report run")
		} else {
			result.Archived = true
		}
	}

	return result, nil
}
