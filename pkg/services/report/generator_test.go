package report

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/models/store"
	"github.com/de-tools/sales-report/pkg/services/document"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockLoader struct {
	mock.Mock
}

func (m *MockLoader) Load(ctx context.Context, path string) ([]domain.Sale, error) {
	args := m.Called(ctx, path)
	sales, _ := args.Get(0).([]domain.Sale)
	return sales, args.Error(1)
}

type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) BarChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error) {
	args := m.Called(ctx, totals)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

func (m *MockRenderer) PieChart(ctx context.Context, totals []domain.CategoryTotal) ([]byte, error) {
	args := m.Called(ctx, totals)
	data, _ := args.Get(0).([]byte)
	return data, args.Error(1)
}

type MockBuilder struct {
	mock.Mock
}

func (m *MockBuilder) Build(ctx context.Context, blocks []document.Block, path string) error {
	args := m.Called(ctx, blocks, path)
	return args.Error(0)
}

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Add(ctx context.Context, run store.ReportRun, records []store.SaleRecord) error {
	args := m.Called(ctx, run, records)
	return args.Error(0)
}

// recordingBuilder keeps the composed blocks and delegates to the PDF builder
type recordingBuilder struct {
	document.Builder
	blocks []document.Block
}

func (r *recordingBuilder) Build(ctx context.Context, blocks []document.Block, path string) error {
	r.blocks = blocks
	return r.Builder.Build(ctx, blocks, path)
}

var runDate = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return runDate }

func fixedID() string { return "run-1" }

func testSales() []domain.Sale {
	day := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return []domain.Sale{
		{Line: 2, Date: day, Product: "Widget", Sales: decimal.RequireFromString("100.00"), Region: "East"},
		{Line: 3, Date: day.AddDate(0, 0, 1), Product: "Gadget", Sales: decimal.RequireFromString("50.00"), Region: "West"},
	}
}

func writeCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sales_data.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func reportFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "sales_report_20240315.pdf", FileName(runDate))
	assert.Equal(t, "sales_report_20241231.pdf", FileName(time.Date(2024, 12, 31, 23, 59, 0, 0, time.UTC)))
}

func TestGenerator_Run_StagesInOrder(t *testing.T) {
	// Given
	ctx := context.Background()
	sales := testSales()
	loader := new(MockLoader)
	renderer := new(MockRenderer)
	builder := new(MockBuilder)
	archive := new(MockArchive)

	loader.On("Load", mock.Anything, "in.csv").Return(sales, nil)
	renderer.On("BarChart", mock.Anything, mock.MatchedBy(func(totals []domain.CategoryTotal) bool {
		return len(totals) == 2 && totals[0].Label == "Widget" && totals[1].Label == "Gadget"
	})).Return([]byte("bar"), nil)
	renderer.On("PieChart", mock.Anything, mock.MatchedBy(func(totals []domain.CategoryTotal) bool {
		return len(totals) == 2 && totals[0].Label == "East" && totals[1].Label == "West"
	})).Return([]byte("pie"), nil)
	builder.On("Build", mock.Anything, mock.MatchedBy(func(blocks []document.Block) bool {
		return len(blocks) == 17
	}), filepath.Join("out", "sales_report_20240315.pdf")).Return(nil)
	archive.On("Add", mock.Anything, mock.MatchedBy(func(run store.ReportRun) bool {
		return run.ID == "run-1" && run.Records == 2 && run.TotalSales.Equal(decimal.NewFromInt(150)) &&
			run.AverageSales.Equal(decimal.NewFromInt(75)) && run.TopProduct == "Widget" && run.Source == "in.csv" &&
			run.GeneratedAt.Equal(runDate)
	}), mock.MatchedBy(func(records []store.SaleRecord) bool {
		return len(records) == 2 && records[0].RunID == "run-1" && records[1].Line == 3
	})).Return(nil)

	gen := NewGenerator(Options{
		Loader:   loader,
		Renderer: renderer,
		Builder:  builder,
		Archive:  archive,
		Clock:    fixedClock,
		NewID:    fixedID,
	})

	// When
	result, err := gen.Run(ctx, "in.csv", "out")

	// Then
	require.NoError(t, err)
	assert.Equal(t, "run-1", result.RunID)
	assert.Equal(t, filepath.Join("out", "sales_report_20240315.pdf"), result.OutputPath)
	assert.True(t, result.Summary.TotalSales.Equal(decimal.NewFromInt(150)))
	assert.True(t, result.Archived)
	loader.AssertExpectations(t)
	renderer.AssertExpectations(t)
	builder.AssertExpectations(t)
	archive.AssertExpectations(t)
}

func TestGenerator_Run_StageFailures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("boom")

	t.Run("loader failure stops the pipeline", func(t *testing.T) {
		loader := new(MockLoader)
		renderer := new(MockRenderer)
		builder := new(MockBuilder)
		loader.On("Load", mock.Anything, "in.csv").
			Return(nil, &domain.DataSourceError{Path: "in.csv", Err: boom})

		gen := NewGenerator(Options{Loader: loader, Renderer: renderer, Builder: builder, Clock: fixedClock})
		_, err := gen.Run(ctx, "in.csv", "out")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "load sales data")
		var dsErr *domain.DataSourceError
		assert.ErrorAs(t, err, &dsErr)
		renderer.AssertNotCalled(t, "BarChart", mock.Anything, mock.Anything)
		builder.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("empty dataset aborts before rendering", func(t *testing.T) {
		loader := new(MockLoader)
		renderer := new(MockRenderer)
		loader.On("Load", mock.Anything, "in.csv").Return([]domain.Sale{}, nil)

		gen := NewGenerator(Options{Loader: loader, Renderer: renderer, Builder: new(MockBuilder), Clock: fixedClock})
		_, err := gen.Run(ctx, "in.csv", "out")

		var emptyErr *domain.EmptyDatasetError
		require.ErrorAs(t, err, &emptyErr)
		assert.Equal(t, "in.csv", emptyErr.Source)
		renderer.AssertNotCalled(t, "BarChart", mock.Anything, mock.Anything)
	})

	t.Run("chart failure skips the document", func(t *testing.T) {
		loader := new(MockLoader)
		renderer := new(MockRenderer)
		builder := new(MockBuilder)
		loader.On("Load", mock.Anything, "in.csv").Return(testSales(), nil)
		renderer.On("BarChart", mock.Anything, mock.Anything).Return([]byte("bar"), nil)
		renderer.On("PieChart", mock.Anything, mock.Anything).
			Return(nil, &domain.RenderError{Chart: "pie", Err: boom})

		gen := NewGenerator(Options{Loader: loader, Renderer: renderer, Builder: builder, Clock: fixedClock})
		_, err := gen.Run(ctx, "in.csv", "out")

		require.Error(t, err)
		assert.Contains(t, err.Error(), "render pie chart")
		builder.AssertNotCalled(t, "Build", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("builder failure skips the archive", func(t *testing.T) {
		loader := new(MockLoader)
		renderer := new(MockRenderer)
		builder := new(MockBuilder)
		archive := new(MockArchive)
		loader.On("Load", mock.Anything, "in.csv").Return(testSales(), nil)
		renderer.On("BarChart", mock.Anything, mock.Anything).Return([]byte("bar"), nil)
		renderer.On("PieChart", mock.Anything, mock.Anything).Return([]byte("pie"), nil)
		builder.On("Build", mock.Anything, mock.Anything, mock.Anything).
			Return(&domain.DocumentBuildError{Path: "out", Err: boom})

		gen := NewGenerator(Options{Loader: loader, Renderer: renderer, Builder: builder, Archive: archive, Clock: fixedClock})
		_, err := gen.Run(ctx, "in.csv", "out")

		var buildErr *domain.DocumentBuildError
		assert.ErrorAs(t, err, &buildErr)
		archive.AssertNotCalled(t, "Add", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestGenerator_Run_ArchiveFailureKeepsReport(t *testing.T) {
	// Given
	loader := new(MockLoader)
	renderer := new(MockRenderer)
	builder := new(MockBuilder)
	archive := new(MockArchive)
	loader.On("Load", mock.Anything, "in.csv").Return(testSales(), nil)
	renderer.On("BarChart", mock.Anything, mock.Anything).Return([]byte("bar"), nil)
	renderer.On("PieChart", mock.Anything, mock.Anything).Return([]byte("pie"), nil)
	builder.On("Build", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	archive.On("Add", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	gen := NewGenerator(Options{Loader: loader, Renderer: renderer, Builder: builder, Archive: archive, Clock: fixedClock})

	// When
	result, err := gen.Run(context.Background(), "in.csv", "out")

	// Then
	require.NoError(t, err)
	assert.False(t, result.Archived)
}

func TestGenerator_Run_EndToEnd(t *testing.T) {
	newGenerator := func(rec *recordingBuilder) *Generator {
		return NewGenerator(Options{Builder: rec, Clock: fixedClock, NewID: fixedID})
	}

	t.Run("single record", func(t *testing.T) {
		// Given
		input := writeCSV(t, "Date,Product,Sales,Region\n2024-01-01,Widget,100.00,East\n")
		outDir := t.TempDir()
		rec := &recordingBuilder{Builder: document.NewBuilder(document.DefaultLayout(), "")}

		// When
		result, err := newGenerator(rec).Run(context.Background(), input, outDir)

		// Then
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(outDir, "sales_report_20240315.pdf"), result.OutputPath)
		assert.True(t, result.Summary.TotalSales.Equal(decimal.NewFromInt(100)))
		assert.Equal(t, "Widget", result.Summary.TopProduct)
		assert.Equal(t, "East", result.Summary.TopRegion)

		data, err := os.ReadFile(result.OutputPath)
		require.NoError(t, err)
		assert.Equal(t, "%PDF", string(data[:4]))
		assert.Equal(t, []string{"sales_report_20240315.pdf"}, reportFiles(t, outDir))

		table, ok := rec.blocks[len(rec.blocks)-1].(document.Table)
		require.True(t, ok)
		assert.Equal(t, [][]string{{"2024-01-01", "Widget", "$100.00", "East"}}, table.Rows)
	})

	t.Run("tied products resolve to the first seen", func(t *testing.T) {
		input := writeCSV(t, "Date,Product,Sales,Region\n"+
			"2024-01-01,Gadget,60,North\n"+
			"2024-01-02,Widget,100,South\n"+
			"2024-01-03,Gadget,40,North\n")
		rec := &recordingBuilder{Builder: document.NewBuilder(document.DefaultLayout(), "")}

		result, err := newGenerator(rec).Run(context.Background(), input, t.TempDir())

		require.NoError(t, err)
		assert.Equal(t, "Gadget", result.Summary.TopProduct)
		assert.Equal(t, "North", result.Summary.TopRegion)
	})

	t.Run("header only input writes nothing", func(t *testing.T) {
		input := writeCSV(t, "Date,Product,Sales,Region\n")
		outDir := t.TempDir()
		rec := &recordingBuilder{Builder: document.NewBuilder(document.DefaultLayout(), "")}

		_, err := newGenerator(rec).Run(context.Background(), input, outDir)

		var emptyErr *domain.EmptyDatasetError
		require.ErrorAs(t, err, &emptyErr)
		assert.Empty(t, reportFiles(t, outDir))
		assert.Nil(t, rec.blocks)
	})

	t.Run("negative sale flows into totals and the table", func(t *testing.T) {
		input := writeCSV(t, "Date,Product,Sales,Region\n"+
			"2024-01-01,Widget,100.00,East\n"+
			"2024-01-02,Widget,-5.00,West\n"+
			"2024-01-03,Gadget,20.00,West\n")
		rec := &recordingBuilder{Builder: document.NewBuilder(document.DefaultLayout(), "")}

		result, err := newGenerator(rec).Run(context.Background(), input, t.TempDir())

		require.NoError(t, err)
		assert.True(t, result.Summary.TotalSales.Equal(decimal.RequireFromString("115")))
		table := rec.blocks[len(rec.blocks)-1].(document.Table)
		require.Len(t, table.Rows, 3)
		assert.Equal(t, "-$5.00", table.Rows[1][2])
	})

	t.Run("negative region share fails the pie chart", func(t *testing.T) {
		input := writeCSV(t, "Date,Product,Sales,Region\n"+
			"2024-01-01,Widget,100.00,East\n"+
			"2024-01-02,Widget,-5.00,West\n")
		outDir := t.TempDir()
		rec := &recordingBuilder{Builder: document.NewBuilder(document.DefaultLayout(), "")}

		_, err := newGenerator(rec).Run(context.Background(), input, outDir)

		var renderErr *domain.RenderError
		require.ErrorAs(t, err, &renderErr)
		assert.Equal(t, "pie", renderErr.Chart)
		assert.Empty(t, reportFiles(t, outDir))
	})
}
