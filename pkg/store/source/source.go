package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	ColumnDate    = "Date"
	ColumnProduct = "Product"
	ColumnSales   = "Sales"
	ColumnRegion  = "Region"
)

// Columns is the fixed header every source must carry, in display order
var Columns = []string{ColumnDate, ColumnProduct, ColumnSales, ColumnRegion}

var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
}

var (
	errMissingHeader = errors.New("missing header row")
	errMissingColumn = errors.New("required column not found in header")
)

// Loader reads sales records from a file
type Loader interface {
	Load(ctx context.Context, path string) ([]domain.Sale, error)
}

// rows yields raw rows with their 1-based line numbers; io.EOF ends the stream
type rows interface {
	Next() ([]string, int, error)
	Close() error
}

type fileLoader struct{}

// NewLoader returns a Loader that picks the reader from the file extension:
// .xlsx goes through excelize, everything else is read as CSV.
func NewLoader() Loader {
	return fileLoader{}
}

func (fileLoader) Load(ctx context.Context, path string) ([]domain.Sale, error) {
	return Load(ctx, path)
}

// Load reads every record of path in file order
func Load(ctx context.Context, path string) ([]domain.Sale, error) {
	logger := zerolog.Ctx(ctx)

	var (
		src          rows
		err          error
		excelSerials bool
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".xlsx", ".xlsm":
		src, err = openXLSX(path)
		excelSerials = true
	default:
		src, err = openCSV(path)
	}
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}
	defer src.Close()

	sales, err := readSales(ctx, path, src, excelSerials)
	if err != nil {
		return nil, err
	}

	logger.Debug().
		Str("path", path).
		Int("records", len(sales)).
		Msg("sales source loaded")
	return sales, nil
}

func readSales(ctx context.Context, path string, src rows, excelSerials bool) ([]domain.Sale, error) {
	header, _, err := src.Next()
	if errors.Is(err, io.EOF) {
		return nil, &domain.DataSourceError{Path: path, Err: errMissingHeader}
	}
	if err != nil {
		return nil, &domain.DataSourceError{Path: path, Err: err}
	}

	index, missing := columnIndex(header)
	if missing != "" {
		return nil, &domain.DataSourceError{Path: path, Line: 1, Column: missing, Err: errMissingColumn}
	}

	sales := make([]domain.Sale, 0)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		row, line, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &domain.DataSourceError{Path: path, Line: line, Err: err}
		}
		if blank(row) {
			continue
		}

		sale, parseErr := parseSale(row, line, index, excelSerials)
		if parseErr != nil {
			parseErr.Path = path
			return nil, parseErr
		}
		sales = append(sales, sale)
	}

	return sales, nil
}

// columnIndex maps each required column to its position; the second result
// names the first required column the header lacks.
func columnIndex(header []string) (map[string]int, string) {
	positions := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if _, seen := positions[name]; !seen {
			positions[name] = i
		}
	}

	index := make(map[string]int, len(Columns))
	for _, col := range Columns {
		pos, ok := positions[strings.ToLower(col)]
		if !ok {
			return nil, col
		}
		index[col] = pos
	}
	return index, ""
}

func parseSale(row []string, line int, index map[string]int, excelSerials bool) (domain.Sale, *domain.DataSourceError) {
	field := func(col string) (string, *domain.DataSourceError) {
		pos := index[col]
		if pos >= len(row) {
			return "", &domain.DataSourceError{
				Line:   line,
				Column: col,
				Err:    fmt.Errorf("row has %d fields, value missing", len(row)),
			}
		}
		return strings.TrimSpace(row[pos]), nil
	}

	rawDate, ferr := field(ColumnDate)
	if ferr != nil {
		return domain.Sale{}, ferr
	}
	date, serial, err := parseDate(rawDate, excelSerials)
	if err != nil {
		return domain.Sale{}, &domain.DataSourceError{Line: line, Column: ColumnDate, Err: err}
	}
	dateText := rawDate
	if serial {
		dateText = date.Format(dateLayouts[0])
	}

	product, ferr := field(ColumnProduct)
	if ferr != nil {
		return domain.Sale{}, ferr
	}

	rawSales, ferr := field(ColumnSales)
	if ferr != nil {
		return domain.Sale{}, ferr
	}
	amount, err := decimal.NewFromString(rawSales)
	if err != nil {
		return domain.Sale{}, &domain.DataSourceError{
			Line:   line,
			Column: ColumnSales,
			Err:    fmt.Errorf("invalid amount %q", rawSales),
		}
	}

	region, ferr := field(ColumnRegion)
	if ferr != nil {
		return domain.Sale{}, ferr
	}

	return domain.Sale{
		Line:     line,
		Date:     date,
		DateText: dateText,
		Product:  product,
		Sales:    amount,
		Region:   region,
	}, nil
}

// parseDate reports whether value was an Excel serial rather than text
func parseDate(value string, excelSerials bool) (time.Time, bool, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, false, nil
		}
	}
	if excelSerials {
		if serial, err := strconv.ParseFloat(value, 64); err == nil {
			t, err := excelize.ExcelDateToTime(serial, false)
			if err == nil {
				y, m, d := t.Date()
				return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true, nil
			}
		}
	}
	return time.Time{}, false, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", value)
}

func blank(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
