package source

import (
	"encoding/csv"
	"errors"
	"os"
)

type csvRows struct {
	file   *os.File
	reader *csv.Reader
}

func openCSV(path string) (*csvRows, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	return &csvRows{file: f, reader: r}, nil
}

func (c *csvRows) Next() ([]string, int, error) {
	record, err := c.reader.Read()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, parseErr.StartLine, err
		}
		return nil, 0, err
	}
	line, _ := c.reader.FieldPos(0)
	return record, line, nil
}

func (c *csvRows) Close() error {
	return c.file.Close()
}
