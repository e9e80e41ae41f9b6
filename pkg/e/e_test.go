package e

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInsufficientStockError(t *testing.T) {
	err := Wrap("SaleUseCase.RecordSale", NewInsufficientStockError(2, 3))

	assert.ErrorIs(t, err, ErrInsufficientStock)
	available, ok := AvailableStock(err)
	assert.True(t, ok)
	assert.Equal(t, int64(2), available)
	assert.Contains(t, err.Error(), "available 2, requested 3")
}

func TestPersistence(t *testing.T) {
	cause := errors.New("connection reset")
	err := Persistence(cause)

	assert.ErrorIs(t, err, ErrPersistenceFailure)
	assert.ErrorIs(t, err, cause)
	assert.Nil(t, Persistence(nil))
	assert.Same(t, err, Persistence(err))
}

func TestPersistence_KeepsDomainErrors(t *testing.T) {
	notFound := fmt.Errorf("repo: %w", ErrProductNotFound)

	err := Persistence(notFound)

	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.NotErrorIs(t, err, ErrPersistenceFailure)
}

func TestUnavailable(t *testing.T) {
	err := Unavailable(errors.New("401"))

	assert.ErrorIs(t, err, ErrServiceUnavailable)
	assert.Nil(t, Unavailable(nil))
}
