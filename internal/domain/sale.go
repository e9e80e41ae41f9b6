package domain

import (
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/money"
)

// DeletedProductName — подпись для продаж, чей товар уже удалён.
const DeletedProductName = "Deleted product"

// Sale — неизменяемая запись о продаже.
// TotalPrice фиксируется в момент продажи и не зависит от последующих изменений цены.
type Sale struct {
	ID           string
	ProductID    string
	QuantitySold int64
	TotalPrice   int64 // в центах
	CreatedAt    time.Time
}

// NewSale проверяет, что продажа не превышает остаток товара, и считает итоговую сумму.
// Сумма, не помещающаяся в int64, отклоняется с ErrAmountOverflow.
func NewSale(id string, product Product, quantity int64, now time.Time) (*Sale, error) {
	if quantity < 1 {
		return nil, e.ErrInvalidQuantity
	}
	if quantity > product.Quantity {
		return nil, e.NewInsufficientStockError(product.Quantity, quantity)
	}

	total, err := money.Mul(product.Price, quantity)
	if err != nil {
		return nil, err
	}

	return &Sale{
		ID:           id,
		ProductID:    product.ID,
		QuantitySold: quantity,
		TotalPrice:   total,
		CreatedAt:    now,
	}, nil
}

// ProductName возвращает имя товара продажи или DeletedProductName, если товара больше нет.
func ProductName(products map[string]Product, productID string) string {
	if p, ok := products[productID]; ok {
		return p.Name
	}
	return DeletedProductName
}

// IndexProducts строит индекс товаров по идентификатору.
func IndexProducts(products []Product) map[string]Product {
	index := make(map[string]Product, len(products))
	for _, p := range products {
		index[p.ID] = p
	}
	return index
}
