package excel

import (
	"bytes"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestExporter_ExportSales(t *testing.T) {
	at := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	sales := []usecase.SaleInfo{
		{ID: "s2", ProductID: "p1", ProductName: "Widget", QuantitySold: 3, TotalPrice: 3000, CreatedAt: at.Add(time.Hour)},
		{ID: "s1", ProductID: "p2", ProductName: "Deleted product", QuantitySold: 1, TotalPrice: 250, CreatedAt: at},
	}

	data, err := NewExporter().ExportSales(sales)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SalesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)

	assert.Equal(t, []string{"Date", "Sale ID", "Product", "Quantity", "Total"}, rows[0])
	assert.Equal(t, []string{"2026-03-14 13:00:00", "s2", "Widget", "3", "30.00"}, rows[1])
	assert.Equal(t, "Deleted product", rows[2][2])
	assert.Equal(t, []string{"Total", "", "", "4", "32.50"}, rows[3])
}

func TestExporter_EmptyLedger(t *testing.T) {
	data, err := NewExporter().ExportSales(nil)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SalesSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "Total", rows[1][0])
}
