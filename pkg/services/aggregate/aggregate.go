// Package aggregate derives the summary figures of a sales report.
//
// Every function is pure: the same sales sequence always produces the same
// totals in the same order. Category totals keep first-seen order and ties
// for the top category resolve to the first label encountered.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/shopspring/decimal"
)

// Summarize computes totals, mean, per-category sums, top categories and the
// covered date range. An empty sequence yields *domain.EmptyDatasetError.
func Summarize(sales []domain.Sale) (*domain.Summary, error) {
	if len(sales) == 0 {
		return nil, &domain.EmptyDatasetError{}
	}

	total := decimal.Zero
	first := sales[0]
	period := domain.DateRange{
		Start:     first.Date,
		End:       first.Date,
		StartText: first.DateLabel(),
		EndText:   first.DateLabel(),
	}
	for _, s := range sales {
		total = total.Add(s.Sales)
		if s.Date.Before(period.Start) {
			period.Start, period.StartText = s.Date, s.DateLabel()
		}
		if s.Date.After(period.End) {
			period.End, period.EndText = s.Date, s.DateLabel()
		}
	}

	products := TotalsBy(sales, func(s domain.Sale) string { return s.Product })
	regions := TotalsBy(sales, func(s domain.Sale) string { return s.Region })

	return &domain.Summary{
		Records:       len(sales),
		TotalSales:    total,
		AverageSales:  total.Div(decimal.NewFromInt(int64(len(sales)))),
		ProductTotals: products,
		RegionTotals:  regions,
		TopProduct:    Top(products),
		TopRegion:     Top(regions),
		Period:        period,
	}, nil
}

// TotalsBy groups sales by key and sums the amounts, in first-seen order
func TotalsBy(sales []domain.Sale, key func(domain.Sale) string) []domain.CategoryTotal {
	totals := make([]domain.CategoryTotal, 0)
	positions := make(map[string]int)

	for _, s := range sales {
		label := key(s)
		pos, ok := positions[label]
		if !ok {
			pos = len(totals)
			positions[label] = pos
			totals = append(totals, domain.CategoryTotal{Label: label, Total: decimal.Zero})
		}
		totals[pos].Total = totals[pos].Total.Add(s.Sales)
	}
	return totals
}

// Top returns the label with the highest total; the first one wins a tie.
// It returns "" for no totals.
func Top(totals []domain.CategoryTotal) string {
	if len(totals) == 0 {
		return ""
	}
	best := totals[0]
	for _, t := range totals[1:] {
		if t.Total.GreaterThan(best.Total) {
			best = t
		}
	}
	return best.Label
}

// Share is one category's proportion of the whole
type Share struct {
	Label   string
	Value   float64
	Percent float64 // 0..100
}

// PercentLabel formats the share to one decimal place, e.g. "37.5%"
func (s Share) PercentLabel() string {
	return fmt.Sprintf("%.1f%%", s.Percent)
}

var (
	ErrNoCategories     = errors.New("no categories to chart")
	ErrNonPositiveTotal = errors.New("grand total must be positive")
)

// Shares converts totals into proportions of their sum. Proportions are only
// meaningful for non-negative parts of a positive whole.
func Shares(totals []domain.CategoryTotal) ([]Share, error) {
	if len(totals) == 0 {
		return nil, ErrNoCategories
	}

	grand := decimal.Zero
	for _, t := range totals {
		if t.Total.IsNegative() {
			return nil, fmt.Errorf("category %q has negative total %s", t.Label, t.Total.StringFixed(2))
		}
		grand = grand.Add(t.Total)
	}
	if !grand.IsPositive() {
		return nil, ErrNonPositiveTotal
	}

	hundred := decimal.NewFromInt(100)
	shares := make([]Share, 0, len(totals))
	for _, t := range totals {
		shares = append(shares, Share{
			Label:   t.Label,
			Value:   t.Total.InexactFloat64(),
			Percent: t.Total.Mul(hundred).Div(grand).InexactFloat64(),
		})
	}
	return shares, nil
}
