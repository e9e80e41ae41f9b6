package local

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
)

// Ключи коллекций в BlobStore.
const (
	productsKey = "products"
	salesKey    = "sales"
	goalKey     = "goal"
)

type viewKey struct{}

// Store сериализует изменения коллекций поверх BlobStore.
// Все записи идут под одним мьютексом, поэтому чтение-изменение-запись коллекции не теряет обновлений.
type Store struct {
	mu    sync.Mutex
	blobs BlobStore
}

func NewStore(blobs BlobStore) *Store {
	return &Store{blobs: blobs}
}

// Do выполняет fn атомарно. Репозитории внутри fn работают с представлением транзакции.
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	if _, ok := ctx.Value(viewKey{}).(BlobStore); ok {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobs.Atomic(ctx, func(view BlobStore) error {
		return fn(context.WithValue(ctx, viewKey{}, view))
	})
}

// mutate выполняет изменение в текущей транзакции или открывает новую.
func (s *Store) mutate(ctx context.Context, fn func(view BlobStore) error) error {
	if view, ok := ctx.Value(viewKey{}).(BlobStore); ok {
		return fn(view)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.blobs.Atomic(ctx, fn)
}

// reader возвращает представление транзакции из контекста или само хранилище.
func (s *Store) reader(ctx context.Context) BlobStore {
	if view, ok := ctx.Value(viewKey{}).(BlobStore); ok {
		return view
	}
	return s.blobs
}

type productRecord struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Price       int64      `json:"price"`
	Quantity    int64      `json:"quantity"`
	Description string     `json:"description,omitempty"`
	ImageKey    string     `json:"image_key,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type saleRecord struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	QuantitySold int64     `json:"quantity_sold"`
	TotalPrice   int64     `json:"total_price"`
	CreatedAt    time.Time `json:"created_at"`
}

type goalRecord struct {
	Amount    int64      `json:"amount"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

func loadJSON[T any](ctx context.Context, blobs BlobStore, key string) (T, error) {
	var v T

	data, err := blobs.Get(ctx, key)
	if err != nil {
		return v, e.Persistence(err)
	}
	if len(data) == 0 {
		return v, nil
	}

	if err := json.Unmarshal(data, &v); err != nil {
		return v, e.Persistence(e.Wrap("decode "+key, err))
	}
	return v, nil
}

func storeJSON(ctx context.Context, blobs BlobStore, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return e.Persistence(e.Wrap("encode "+key, err))
	}

	if err := blobs.Put(ctx, key, data); err != nil {
		return e.Persistence(err)
	}
	return nil
}

func loadProducts(ctx context.Context, blobs BlobStore) ([]productRecord, error) {
	return loadJSON[[]productRecord](ctx, blobs, productsKey)
}

func loadSales(ctx context.Context, blobs BlobStore) ([]saleRecord, error) {
	return loadJSON[[]saleRecord](ctx, blobs, salesKey)
}

func toProductRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Description: p.Description,
		ImageKey:    p.ImageKey,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:          r.ID,
		Name:        r.Name,
		Price:       r.Price,
		Quantity:    r.Quantity,
		Description: r.Description,
		ImageKey:    r.ImageKey,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func toSaleRecord(s *domain.Sale) saleRecord {
	return saleRecord{
		ID:           s.ID,
		ProductID:    s.ProductID,
		QuantitySold: s.QuantitySold,
		TotalPrice:   s.TotalPrice,
		CreatedAt:    s.CreatedAt,
	}
}

func (r saleRecord) toDomain() domain.Sale {
	return domain.Sale{
		ID:           r.ID,
		ProductID:    r.ProductID,
		QuantitySold: r.QuantitySold,
		TotalPrice:   r.TotalPrice,
		CreatedAt:    r.CreatedAt,
	}
}
