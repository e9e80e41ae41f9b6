package e

import (
	"errors"
	"fmt"
)

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки хранилища и внешних сервисов
	ErrPersistenceFailure  = fmt.Errorf("persistence failure")
	ErrServiceUnavailable  = fmt.Errorf("service unavailable")
	ErrImageStorageMissing = fmt.Errorf("image storage is not configured")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrInvalidJSON          = fmt.Errorf("invalid json body")
	ErrExpectedMultipart    = fmt.Errorf("expected multipart/form-data")
	ErrMissingFields        = fmt.Errorf("missing required fields")
	ErrProductNameRequired  = fmt.Errorf("product name is required")
	ErrProductIDRequired    = fmt.Errorf("product id is required")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("amount must have at most 2 decimal places")
	ErrInvalidQuantity      = fmt.Errorf("invalid quantity")
	ErrAmountOverflow       = fmt.Errorf("amount out of range")
	ErrInvalidGoal          = fmt.Errorf("invalid goal")
	ErrInvalidPeriod        = fmt.Errorf("invalid period")
	ErrNoImages             = fmt.Errorf("no image provided")
	ErrFileTooLarge         = fmt.Errorf("file too large")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// 404 / 409
	ErrProductNotFound   = fmt.Errorf("product not found")
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrDuplicateRequest  = fmt.Errorf("duplicate request")

	// 500
	ErrInternalServerError = fmt.Errorf("internal server error")

	// Конфигурация
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
)

// InsufficientStockError сообщает, сколько единиц товара доступно на момент продажи.
type InsufficientStockError struct {
	Available int64
	Requested int64
}

func (i *InsufficientStockError) Error() string {
	return fmt.Sprintf("%s: available %d, requested %d", ErrInsufficientStock.Error(), i.Available, i.Requested)
}

func (i *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// NewInsufficientStockError создаёт ошибку нехватки товара.
func NewInsufficientStockError(available, requested int64) error {
	return &InsufficientStockError{Available: available, Requested: requested}
}

// AvailableStock достаёт доступный остаток из цепочки ошибок.
func AvailableStock(err error) (int64, bool) {
	var stockErr *InsufficientStockError
	if errors.As(err, &stockErr) {
		return stockErr.Available, true
	}
	return 0, false
}

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}

// Persistence помечает ошибку хранилища как ErrPersistenceFailure, сохраняя исходную причину.
// Доменные ошибки (not found, нехватка товара) проходят без изменений.
func Persistence(err error) error {
	if err == nil || errors.Is(err, ErrPersistenceFailure) || isDomain(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrPersistenceFailure, err)
}

// Unavailable помечает ошибку внешнего сервиса как ErrServiceUnavailable.
func Unavailable(err error) error {
	if err == nil || errors.Is(err, ErrServiceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrServiceUnavailable, err)
}

func isDomain(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrInsufficientStock) ||
		errors.Is(err, ErrDuplicateRequest)
}
