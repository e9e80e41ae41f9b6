package domain

import (
	"testing"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSale_CapturesTotalPrice(t *testing.T) {
	widget := Product{ID: "w", Name: "Widget", Price: 1000, Quantity: 5}

	sale, err := NewSale("s-1", widget, 3, now)
	require.NoError(t, err)

	assert.Equal(t, "w", sale.ProductID)
	assert.Equal(t, int64(3), sale.QuantitySold)
	assert.Equal(t, int64(3000), sale.TotalPrice)
	assert.Equal(t, now, sale.CreatedAt)
}

func TestNewSale_RejectsOversell(t *testing.T) {
	widget := Product{ID: "w", Price: 1000, Quantity: 2}

	_, err := NewSale("s-2", widget, 3, now)

	assert.ErrorIs(t, err, e.ErrInsufficientStock)
	available, _ := e.AvailableStock(err)
	assert.Equal(t, int64(2), available)
}

func TestNewSale_RejectsNonPositiveQuantity(t *testing.T) {
	widget := Product{ID: "w", Price: 1000, Quantity: 2}

	_, err := NewSale("s-3", widget, 0, now)
	assert.ErrorIs(t, err, e.ErrInvalidQuantity)

	_, err = NewSale("s-4", widget, -1, now)
	assert.ErrorIs(t, err, e.ErrInvalidQuantity)
}

func TestNewSale_RejectsOverflowingTotal(t *testing.T) {
	expensive := Product{ID: "w", Price: 100_000_000_000, Quantity: 2_000_000_000}

	sale, err := NewSale("s-5", expensive, 1_000_000_000, now)

	assert.ErrorIs(t, err, e.ErrAmountOverflow)
	assert.Nil(t, sale)
}

func TestProductName_FallsBackForDeletedProducts(t *testing.T) {
	index := IndexProducts([]Product{{ID: "a", Name: "Apple"}})

	assert.Equal(t, "Apple", ProductName(index, "a"))
	assert.Equal(t, DeletedProductName, ProductName(index, "gone"))
}
