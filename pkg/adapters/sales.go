package adapters

import (
	"github.com/de-tools/sales-report/pkg/models/domain"
	"github.com/de-tools/sales-report/pkg/models/store"
)

func MapDomainSaleToStoreRecord(runID string, sale domain.Sale) store.SaleRecord {
	return store.SaleRecord{
		RunID:   runID,
		Line:    sale.Line,
		Date:    sale.Date,
		Product: sale.Product,
		Amount:  sale.Sales,
		Region:  sale.Region,
	}
}

func MapDomainSalesToStoreRecords(runID string, sales []domain.Sale) []store.SaleRecord {
	records := make([]store.SaleRecord, 0, len(sales))
	for _, sale := range sales {
		records = append(records, MapDomainSaleToStoreRecord(runID, sale))
	}
	return records
}

// MapSummaryToStoreRun flattens a summary into the archived run row
func MapSummaryToStoreRun(run store.ReportRun, summary *domain.Summary) store.ReportRun {
	run.Records = summary.Records
	run.TotalSales = summary.TotalSales
	run.AverageSales = summary.AverageSales.Round(2)
	run.TopProduct = summary.TopProduct
	run.TopRegion = summary.TopRegion
	run.PeriodStart = summary.Period.Start
	run.PeriodEnd = summary.Period.End
	return run
}

func MapStoreTotalsToDomain(totals []store.CategoryTotal) []domain.CategoryTotal {
	out := make([]domain.CategoryTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, domain.CategoryTotal{
			Label: t.Label,
			Total: t.Total,
		})
	}
	return out
}
