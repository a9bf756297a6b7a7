package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Summary holds every figure derived from a sales sequence
type Summary struct {
	Records       int
	TotalSales    decimal.Decimal
	AverageSales  decimal.Decimal
	ProductTotals []CategoryTotal // first-seen order
	RegionTotals  []CategoryTotal // first-seen order
	TopProduct    string
	TopRegion     string
	Period        DateRange
}

// DateRange represents the span of dates covered by the report. The text
// fields keep the earliest and latest dates as written in the source.
type DateRange struct {
	Start     time.Time
	End       time.Time
	StartText string
	EndText   string
}

func (d DateRange) StartLabel() string {
	if d.StartText != "" {
		return d.StartText
	}
	return d.Start.Format(isoDate)
}

func (d DateRange) EndLabel() string {
	if d.EndText != "" {
		return d.EndText
	}
	return d.End.Format(isoDate)
}

// Days returns the number of calendar days covered, both ends included
func (d DateRange) Days() int {
	return int(d.End.Sub(d.Start).Hours()/24) + 1
}
