package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const isoDate = "2006-01-02"

// Sale is one row of the sales source
type Sale struct {
	Line     int       // 1-based line in the source, header included
	Date     time.Time // 2024-01-01
	DateText string    // the date as written in the source
	Product  string    // Widget
	Sales    decimal.Decimal
	Region   string // East
}

// DateLabel is the date as the source wrote it, or ISO when unknown
func (s Sale) DateLabel() string {
	if s.DateText != "" {
		return s.DateText
	}
	return s.Date.Format(isoDate)
}

// CategoryTotal is the summed sales of every record sharing a label
type CategoryTotal struct {
	Label string
	Total decimal.Decimal
}
