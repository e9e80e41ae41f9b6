package excel

import (
	"fmt"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/money"
	"github.com/xuri/excelize/v2"
)

const SalesSheet = "Sales"

var salesHeader = []any{"Date", "Sale ID", "Product", "Quantity", "Total"}

// Exporter формирует xlsx-отчёты.
type Exporter struct{}

func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportSales пишет продажи на лист Sales и добавляет итоговую строку.
func (Exporter) ExportSales(sales []usecase.SaleInfo) ([]byte, error) {
	const op = "excel.Exporter.ExportSales"

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SalesSheet); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := f.SetSheetRow(SalesSheet, "A1", &salesHeader); err != nil {
		return nil, e.Wrap(op, err)
	}

	var units, revenue int64
	for i, sale := range sales {
		row := []any{
			sale.CreatedAt.UTC().Format(time.DateTime),
			sale.ID,
			sale.ProductName,
			sale.QuantitySold,
			money.Format(sale.TotalPrice),
		}
		if err := f.SetSheetRow(SalesSheet, fmt.Sprintf("A%d", i+2), &row); err != nil {
			return nil, e.Wrap(op, err)
		}
		units += sale.QuantitySold
		revenue += sale.TotalPrice
	}

	totals := []any{"Total", "", "", units, money.Format(revenue)}
	if err := f.SetSheetRow(SalesSheet, fmt.Sprintf("A%d", len(sales)+2), &totals); err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := f.SetColWidth(SalesSheet, "A", "C", 24); err != nil {
		return nil, e.Wrap(op, err)
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return buf.Bytes(), nil
}
