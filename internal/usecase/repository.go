package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
)

// TxManager выполняет fn атомарно: либо применяются все записи, либо ни одной.
// Репозитории берут текущую транзакцию из переданного в fn контекста.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	// Update возвращает e.ErrProductNotFound, если товара нет.
	Update(ctx context.Context, product *domain.Product) error
	// Delete удаляет товар и возвращает ключ его изображения. Отсутствие товара не ошибка.
	Delete(ctx context.Context, id string) (string, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// GetForUpdate читает товар с блокировкой строки до конца транзакции.
	GetForUpdate(ctx context.Context, id string) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	// DecrementStock уменьшает остаток только если его хватает, иначе e.ErrInsufficientStock.
	DecrementStock(ctx context.Context, id string, amount int64) (*domain.Product, error)
	SetImageKey(ctx context.Context, id string, key string) error
}

type SaleRepository interface {
	Create(ctx context.Context, sale *domain.Sale) error
	// List возвращает продажи от новых к старым.
	List(ctx context.Context) ([]domain.Sale, error)
}

type GoalRepository interface {
	// Get возвращает нулевую цель, если она ещё не задавалась.
	Get(ctx context.Context) (*domain.Goal, error)
	Save(ctx context.Context, goal *domain.Goal) error
}

type ImageRepository interface {
	Upload(ctx context.Context, image *domain.Image) (string, error)
	Delete(ctx context.Context, key string) error
}

type CacheRepository interface {
	GetProducts(ctx context.Context, ids []string) (map[string]ProductInfo, error)
	SetProducts(ctx context.Context, products []ProductInfo) error
	DeleteProducts(ctx context.Context, ids []string) error
}

type IdempotencyRepository interface {
	// Reserve возвращает false, если ключ уже использован.
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	MarkAsPending(ctx context.Context, id int64) error
	MarkAsFailed(ctx context.Context, id int64) error
	// ReclaimStale возвращает в pending события, застрявшие в processing дольше olderThan.
	ReclaimStale(ctx context.Context, olderThan time.Duration) (int64, error)
}
