package domain

import "fmt"

// DataSourceError reports a missing, unreadable or malformed sales source
type DataSourceError struct {
	Path   string
	Line   int    // 0 when the failure is not tied to a line
	Column string // empty when the failure is not tied to a column
	Err    error
}

func (e *DataSourceError) Error() string {
	switch {
	case e.Line > 0 && e.Column != "":
		return fmt.Sprintf("data source %s: line %d, column %q: %v", e.Path, e.Line, e.Column, e.Err)
	case e.Line > 0:
		return fmt.Sprintf("data source %s: line %d: %v", e.Path, e.Line, e.Err)
	case e.Column != "":
		return fmt.Sprintf("data source %s: column %q: %v", e.Path, e.Column, e.Err)
	default:
		return fmt.Sprintf("data source %s: %v", e.Path, e.Err)
	}
}

func (e *DataSourceError) Unwrap() error { return e.Err }

// EmptyDatasetError is returned when a source holds a header but no records.
// A mean and an argmax over zero records are undefined, so no report is built.
type EmptyDatasetError struct {
	Source string
}

func (e *EmptyDatasetError) Error() string {
	if e.Source == "" {
		return "empty dataset: no sales records to summarize"
	}
	return fmt.Sprintf("empty dataset: %s contains no sales records", e.Source)
}

// RenderError reports a chart that could not be produced
type RenderError struct {
	Chart string
	Err   error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render %s chart: %v", e.Chart, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// DocumentBuildError reports a layout, serialization or disk failure
type DocumentBuildError struct {
	Path string
	Err  error
}

func (e *DocumentBuildError) Error() string {
	return fmt.Sprintf("build document %s: %v", e.Path, e.Err)
}

func (e *DocumentBuildError) Unwrap() error { return e.Err }
