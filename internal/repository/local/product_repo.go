package local

import (
	"context"
	"slices"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

type ProductRepo struct {
	store *Store
}

func NewProductRepo(store *Store) *ProductRepo {
	return &ProductRepo{store: store}
}

func (r *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	return r.store.mutate(ctx, func(view BlobStore) error {
		products, err := loadProducts(ctx, view)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		products = append(products, toProductRecord(product))
		return storeJSON(ctx, view, productsKey, products)
	})
}

func (r *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	return r.modify(ctx, product.ID, func(rec *productRecord) error {
		image := rec.ImageKey
		*rec = toProductRecord(product)
		rec.ImageKey = image
		return nil
	})
}

func (r *ProductRepo) Delete(ctx context.Context, id string) (string, error) {
	var imageKey string

	err := r.store.mutate(ctx, func(view BlobStore) error {
		products, err := loadProducts(ctx, view)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		idx := slices.IndexFunc(products, func(p productRecord) bool { return p.ID == id })
		if idx < 0 {
			return nil
		}

		imageKey = products[idx].ImageKey
		products = slices.Delete(products, idx, idx+1)
		return storeJSON(ctx, view, productsKey, products)
	})

	return imageKey, err
}

func (r *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	products, err := loadProducts(ctx, r.store.reader(ctx))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	for _, p := range products {
		if p.ID == id {
			return p.toDomain(), nil
		}
	}

	return nil, e.ErrProductNotFound
}

// GetForUpdate не отличается от GetByID: внутри Store.Do записи уже сериализованы.
func (r *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	return r.GetByID(ctx, id)
}

func (r *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	records, err := loadProducts(ctx, r.store.reader(ctx))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	products := make([]domain.Product, 0, len(records))
	for _, rec := range records {
		products = append(products, *rec.toDomain())
	}

	return products, nil
}

func (r *ProductRepo) DecrementStock(ctx context.Context, id string, amount int64) (*domain.Product, error) {
	var result *domain.Product

	err := r.modify(ctx, id, func(rec *productRecord) error {
		next, err := rec.toDomain().WithStockDecremented(amount, time.Now().UTC())
		if err != nil {
			return err
		}

		*rec = toProductRecord(&next)
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (r *ProductRepo) SetImageKey(ctx context.Context, id string, key string) error {
	return r.modify(ctx, id, func(rec *productRecord) error {
		now := time.Now().UTC()
		rec.ImageKey = key
		rec.UpdatedAt = &now
		return nil
	})
}

// modify применяет fn к записи товара и сохраняет коллекцию.
func (r *ProductRepo) modify(ctx context.Context, id string, fn func(rec *productRecord) error) error {
	return r.store.mutate(ctx, func(view BlobStore) error {
		products, err := loadProducts(ctx, view)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		idx := slices.IndexFunc(products, func(p productRecord) bool { return p.ID == id })
		if idx < 0 {
			return e.ErrProductNotFound
		}

		if err := fn(&products[idx]); err != nil {
			return err
		}

		return storeJSON(ctx, view, productsKey, products)
	})
}
