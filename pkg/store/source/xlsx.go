package source

import (
	"errors"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// xlsxRows streams the first worksheet of a workbook
type xlsxRows struct {
	file *excelize.File
	rows *excelize.Rows
	line int
}

func openXLSX(path string) (*xlsxRows, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		_ = f.Close()
		return nil, errors.New("workbook has no worksheets")
	}

	rows, err := f.Rows(sheets[0])
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheets[0], err)
	}

	return &xlsxRows{file: f, rows: rows}, nil
}

func (x *xlsxRows) Next() ([]string, int, error) {
	if !x.rows.Next() {
		if err := x.rows.Error(); err != nil {
			return nil, x.line, err
		}
		return nil, x.line, io.EOF
	}
	x.line++

	cols, err := x.rows.Columns(excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, x.line, err
	}
	return cols, x.line, nil
}

func (x *xlsxRows) Close() error {
	rowsErr := x.rows.Close()
	fileErr := x.file.Close()
	return errors.Join(rowsErr, fileErr)
}
