package domain

import (
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
)

// Product описывает товар на складе
type Product struct {
	ID          string
	Name        string
	Price       int64 // Цена хранится в центах
	Quantity    int64 // Остаток на складе, никогда не уходит в минус
	Description string
	ImageKey    string // Ключ изображения в объектном хранилище, пусто если нет
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// ProductFields — редактируемые поля товара.
type ProductFields struct {
	Name        string
	Price       int64
	Quantity    int64
	Description string
}

// Validate проверяет поля товара: непустое имя, неотрицательные цена и остаток.
func (f ProductFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return e.ErrProductNameRequired
	}
	if f.Price < 0 {
		return e.ErrInvalidPrice
	}
	if f.Quantity < 0 {
		return e.ErrInvalidQuantity
	}
	return nil
}

// NewProduct создаёт товар с заданным идентификатором.
func NewProduct(id string, fields ProductFields, now time.Time) (*Product, error) {
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	return &Product{
		ID:          id,
		Name:        strings.TrimSpace(fields.Name),
		Price:       fields.Price,
		Quantity:    fields.Quantity,
		Description: strings.TrimSpace(fields.Description),
		CreatedAt:   now,
	}, nil
}

// WithFields возвращает копию товара с заменёнными полями. Идентификатор и изображение сохраняются.
func (p Product) WithFields(fields ProductFields, now time.Time) (Product, error) {
	if err := fields.Validate(); err != nil {
		return p, err
	}

	p.Name = strings.TrimSpace(fields.Name)
	p.Price = fields.Price
	p.Quantity = fields.Quantity
	p.Description = strings.TrimSpace(fields.Description)
	p.UpdatedAt = &now
	return p, nil
}

// WithStockDecremented возвращает копию товара с уменьшенным остатком.
// Остаток не может стать отрицательным.
func (p Product) WithStockDecremented(amount int64, now time.Time) (Product, error) {
	if amount < 1 {
		return p, e.ErrInvalidQuantity
	}
	if amount > p.Quantity {
		return p, e.NewInsufficientStockError(p.Quantity, amount)
	}

	p.Quantity -= amount
	p.UpdatedAt = &now
	return p, nil
}

// IsLowStock сообщает, что остаток не выше порога.
func (p Product) IsLowStock(threshold int64) bool {
	return p.Quantity <= threshold
}
