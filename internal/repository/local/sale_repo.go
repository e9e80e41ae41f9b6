package local

import (
	"context"
	"slices"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/jimlawless/whereami"
)

type SaleRepo struct {
	store *Store
}

func NewSaleRepo(store *Store) *SaleRepo {
	return &SaleRepo{store: store}
}

// Create дописывает продажу в журнал. Записи журнала не изменяются и не удаляются.
func (r *SaleRepo) Create(ctx context.Context, sale *domain.Sale) error {
	return r.store.mutate(ctx, func(view BlobStore) error {
		sales, err := loadSales(ctx, view)
		if err != nil {
			return e.Wrap(whereami.WhereAmI(), err)
		}

		sales = append(sales, toSaleRecord(sale))
		return storeJSON(ctx, view, salesKey, sales)
	})
}

func (r *SaleRepo) List(ctx context.Context) ([]domain.Sale, error) {
	records, err := loadSales(ctx, r.store.reader(ctx))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	sales := make([]domain.Sale, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		sales = append(sales, records[i].toDomain())
	}
	slices.SortStableFunc(sales, func(a, b domain.Sale) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})

	return sales, nil
}
