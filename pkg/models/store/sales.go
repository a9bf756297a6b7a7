package store

import (
	"time"

	"github.com/shopspring/decimal"
)

type SaleRecord struct {
	RunID   string
	Line    int
	Date    time.Time
	Product string
	Amount  decimal.Decimal
	Region  string
}

type ReportRun struct {
	ID           string
	GeneratedAt  time.Time
	Source       string
	Output       string
	Records      int
	TotalSales   decimal.Decimal
	AverageSales decimal.Decimal
	TopProduct   string
	TopRegion    string
	PeriodStart  time.Time
	PeriodEnd    time.Time
}

type CategoryTotal struct {
	Label string
	Total decimal.Decimal
}
