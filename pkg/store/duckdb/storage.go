package duckdb

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"

	"github.com/marcboeker/go-duckdb/v2"
)

const ReportRunsSchema = `
	CREATE TABLE IF NOT EXISTS report_runs (
		id VARCHAR PRIMARY KEY,
		generated_at TIMESTAMP NOT NULL,
		source VARCHAR NOT NULL,
		output VARCHAR NOT NULL,
		records INTEGER NOT NULL,
		total_sales DECIMAL(38, 10) NOT NULL,
		average_sales DECIMAL(38, 10) NOT NULL,
		top_product VARCHAR NOT NULL,
		top_region VARCHAR NOT NULL,
		period_start DATE NOT NULL,
		period_end DATE NOT NULL
	);
`
const SalesRecordsSchema = `
	CREATE TABLE IF NOT EXISTS sales_records (
		run_id VARCHAR NOT NULL,
		line INTEGER NOT NULL,
		sale_date DATE NOT NULL,
		product VARCHAR NOT NULL,
		amount DECIMAL(38, 10) NOT NULL,
		region VARCHAR NOT NULL,
		PRIMARY KEY (run_id, line)
	);
`

var bootQueries = []string{
	ReportRunsSchema,
	SalesRecordsSchema,
}

type Settings struct {
	DbPath  string
	Threads int
}

// NewDB opens the archive database, creating the schema on every new connection
func NewDB(settings Settings) (*sql.DB, error) {
	if settings.DbPath == "" {
		return nil, fmt.Errorf("database path is required")
	}
	threads := settings.Threads
	if threads <= 0 {
		threads = 4
	}

	c, err := duckdb.NewConnector(fmt.Sprintf("%s?threads=%d", settings.DbPath, threads), func(exec driver.ExecerContext) error {
		for _, query := range bootQueries {
			_, err := exec.ExecContext(context.Background(), query, nil)
			if err != nil {
				return fmt.Errorf("boot schema: %w", err)
			}
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	db := sql.OpenDB(c)
	return db, nil
}
