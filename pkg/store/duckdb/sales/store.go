package sales

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/de-tools/sales-report/pkg/models/store"
	"github.com/de-tools/sales-report/pkg/store/duckdb"
)

const (
	insertRunQuery = `
		INSERT INTO report_runs (
			id, generated_at, source, output, records, total_sales,
			average_sales, top_product, top_region, period_start, period_end
		) VALUES (
			?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?
		)`

	insertSaleQuery = `
		INSERT INTO sales_records (
			run_id, line, sale_date, product, amount, region
		) VALUES (
			?, ?, ?, ?, ?, ?
		)`

	listRunsQuery = `
		SELECT id, generated_at, source, output, records,
		       CAST(total_sales AS VARCHAR), CAST(average_sales AS VARCHAR),
		       top_product, top_region, period_start, period_end
		FROM report_runs
		ORDER BY generated_at DESC
		LIMIT ?`

	// totals keep the order in which each label first appeared in the source.
	// Amounts travel as text so decimal sums survive the driver exactly.
	totalsQuery = `
		SELECT %[1]s, CAST(SUM(amount) AS VARCHAR) AS total
		FROM sales_records
		WHERE run_id = ?
		GROUP BY %[1]s
		ORDER BY MIN(line)`
)

// Store archives report runs together with the records they were built from
type Store interface {
	Add(ctx context.Context, run store.ReportRun, records []store.SaleRecord) error
	ListRuns(ctx context.Context, limit int) ([]store.ReportRun, error)
	GetProductTotals(ctx context.Context, runID string) ([]store.CategoryTotal, error)
	GetRegionTotals(ctx context.Context, runID string) ([]store.CategoryTotal, error)
}

type salesStore struct {
	db *sql.DB
}

func NewStore(db *sql.DB) (Store, error) {
	if db == nil {
		return nil, fmt.Errorf("database connection is nil")
	}
	return &salesStore{db: db}, nil
}

// Add writes the run and its records atomically. When ctx carries a
// transaction (duckdb.WithTransaction) the caller owns commit and rollback.
func (s *salesStore) Add(ctx context.Context, run store.ReportRun, records []store.SaleRecord) (err error) {
	tx := duckdb.GetTransaction(ctx)
	owned := tx == nil
	if owned {
		tx, err = s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin transaction: %w", err)
		}
		defer func() {
			if err != nil {
				err = errors.Join(err, tx.Rollback())
			}
		}()
	}

	_, err = tx.ExecContext(ctx, insertRunQuery,
		run.ID,
		run.GeneratedAt,
		run.Source,
		run.Output,
		run.Records,
		run.TotalSales.String(),
		run.AverageSales.String(),
		run.TopProduct,
		run.TopRegion,
		run.PeriodStart,
		run.PeriodEnd,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(records) > 0 {
		if err = insertRecords(ctx, tx, run.ID, records); err != nil {
			return err
		}
	}

	if owned {
		if err = tx.Commit(); err != nil {
			return fmt.Errorf("commit: %w", err)
		}
	}
	return nil
}

func insertRecords(ctx context.Context, tx *sql.Tx, runID string, records []store.SaleRecord) error {
	stmt, err := tx.PrepareContext(ctx, insertSaleQuery)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, record := range records {
		_, err = stmt.ExecContext(ctx,
			runID,
			record.Line,
			record.Date,
			record.Product,
			record.Amount.String(),
			record.Region,
		)
		if err != nil {
			return fmt.Errorf("insert record at line %d: %w", record.Line, err)
		}
	}
	return nil
}

func (s *salesStore) ListRuns(ctx context.Context, limit int) ([]store.ReportRun, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, listRunsQuery, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	runs := make([]store.ReportRun, 0)
	for rows.Next() {
		var run store.ReportRun
		if err := rows.Scan(
			&run.ID,
			&run.GeneratedAt,
			&run.Source,
			&run.Output,
			&run.Records,
			&run.TotalSales,
			&run.AverageSales,
			&run.TopProduct,
			&run.TopRegion,
			&run.PeriodStart,
			&run.PeriodEnd,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

func (s *salesStore) GetProductTotals(ctx context.Context, runID string) ([]store.CategoryTotal, error) {
	return s.totals(ctx, "product", runID)
}

func (s *salesStore) GetRegionTotals(ctx context.Context, runID string) ([]store.CategoryTotal, error) {
	return s.totals(ctx, "region", runID)
}

// column is always one of the fixed names above, never user input
func (s *salesStore) totals(ctx context.Context, column, runID string) ([]store.CategoryTotal, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(totalsQuery, column), runID)
	if err != nil {
		return nil, fmt.Errorf("query %s totals: %w", column, err)
	}
	defer rows.Close()

	totals := make([]store.CategoryTotal, 0)
	for rows.Next() {
		var t store.CategoryTotal
		if err := rows.Scan(&t.Label, &t.Total); err != nil {
			return nil, fmt.Errorf("scan %s total: %w", column, err)
		}
		totals = append(totals, t)
	}
	return totals, rows.Err()
}
