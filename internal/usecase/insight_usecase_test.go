package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsightUseCase_GenerateInsights(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	widget := addWidget(t, f)
	_, err := newSaleUC(f).RecordSale(ctx, usecase.NewRecordSaleReq(widget.ID, 2, ""))
	require.NoError(t, err)

	gen := &fakeGenerator{text: "Sales look healthy."}
	uc := usecase.NewInsightUC(f.products, f.sales, gen, f.log, domain.DefaultLowStockThreshold)

	res, err := uc.GenerateInsights(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Sales look healthy.", res.Text)
	assert.Equal(t, "test-model", res.Model)
	assert.Contains(t, gen.prompt, "Widget (ID: "+widget.ID+"): 3 in stock, price: 10.00")
	assert.Contains(t, gen.prompt, "Sold 2 unit(s) of Widget for 20.00")

	product, err := f.products.GetByID(ctx, widget.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), product.Quantity)
}

func TestInsightUseCase_Unavailable(t *testing.T) {
	f := newFixture(t)

	_, err := usecase.NewInsightUC(f.products, f.sales, nil, f.log, 5).GenerateInsights(context.Background())
	assert.ErrorIs(t, err, e.ErrServiceUnavailable)

	gen := &fakeGenerator{err: errors.New("403 forbidden")}
	_, err = usecase.NewInsightUC(f.products, f.sales, gen, f.log, 5).GenerateInsights(context.Background())
	assert.ErrorIs(t, err, e.ErrServiceUnavailable)
}

func TestBuildInsightPrompt(t *testing.T) {
	day := time.Date(2026, time.May, 2, 15, 0, 0, 0, time.UTC)

	empty := usecase.BuildInsightPrompt(nil, nil, 5)
	assert.Contains(t, empty, "No products in stock.")
	assert.Contains(t, empty, "No sales recorded.")
	assert.Contains(t, empty, "5 units or fewer")

	prompt := usecase.BuildInsightPrompt(
		[]domain.Product{{ID: "a", Name: "Apple", Price: 150, Quantity: 2}},
		[]domain.Sale{{ProductID: "gone", QuantitySold: 4, TotalPrice: 800, CreatedAt: day}},
		3,
	)
	assert.Contains(t, prompt, "- Apple (ID: a): 2 in stock, price: 1.50")
	assert.Contains(t, prompt, "- Sold 4 unit(s) of product ID gone for 8.00 on 2026-05-02")
	assert.Contains(t, prompt, "3 units or fewer")
}
