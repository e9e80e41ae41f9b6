package pgdb

import (
	"context"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

// SaleRepo хранит журнал продаж. У product_id нет внешнего ключа: продажи переживают удаление товара.
type SaleRepo struct {
	pool *pgxpool.Pool
	conv converter.SaleConverter
}

func NewSaleRepo(pool *pgxpool.Pool, conv converter.SaleConverter) *SaleRepo {
	return &SaleRepo{
		pool: pool,
		conv: conv,
	}
}

func (s *SaleRepo) Create(ctx context.Context, sale *domain.Sale) error {
	model := s.conv.ToModel(sale)
	query := `
		INSERT INTO sales (id, product_id, quantity_sold, total_price, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := tr.QuerierFromCtx(ctx, s.pool).Exec(ctx, query,
		model.ID, model.ProductID, model.QuantitySold, model.TotalPrice, model.CreatedAt,
	)
	if err != nil {
		return e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

func (s *SaleRepo) List(ctx context.Context) ([]domain.Sale, error) {
	query := `
		SELECT id, product_id, quantity_sold, total_price, created_at
		FROM sales
		ORDER BY created_at DESC, id
	`

	rows, err := tr.QuerierFromCtx(ctx, s.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}
	defer rows.Close()

	result := make([]domain.Sale, 0)
	for rows.Next() {
		var model converter.SaleModel
		if err := rows.Scan(&model.ID, &model.ProductID, &model.QuantitySold, &model.TotalPrice, &model.CreatedAt); err != nil {
			return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
		}

		result = append(result, s.conv.ToEntity(&model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return result, nil
}
