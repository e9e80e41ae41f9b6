package pgdb

import (
	"context"
	"errors"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const productColumns = `id, name, price, quantity, description, image_key, created_at, updated_at`

// ProductRepo реализует репозиторий товаров поверх PostgreSQL.
// Внутри транзакции запросы идут через pgx.Tx из контекста, иначе через пул.
type ProductRepo struct {
	pool *pgxpool.Pool
	conv converter.ProductConverter
}

func NewProductRepo(pool *pgxpool.Pool, conv converter.ProductConverter) *ProductRepo {
	return &ProductRepo{
		pool: pool,
		conv: conv,
	}
}

func (p *ProductRepo) Create(ctx context.Context, product *domain.Product) error {
	model := p.conv.ToModel(product)
	query := `
		INSERT INTO products (id, name, price, quantity, description, image_key, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query,
		model.ID, model.Name, model.Price, model.Quantity, model.Description, model.ImageKey, model.CreatedAt,
	)
	if err != nil {
		return e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return nil
}

// Update заменяет редактируемые поля. Ключ изображения не трогается.
func (p *ProductRepo) Update(ctx context.Context, product *domain.Product) error {
	if malformedID(product.ID) {
		return e.ErrProductNotFound
	}

	model := p.conv.ToModel(product)
	query := `
		UPDATE products
		SET name = $2, price = $3, quantity = $4, description = $5, updated_at = COALESCE($6, NOW())
		WHERE id = $1
	`

	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query,
		model.ID, model.Name, model.Price, model.Quantity, model.Description, model.UpdatedAt,
	)
	if err != nil {
		return e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}
	if tag.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

func (p *ProductRepo) Delete(ctx context.Context, id string) (string, error) {
	if malformedID(id) {
		return "", nil
	}

	query := `DELETE FROM products WHERE id = $1 RETURNING image_key`

	var imageKey *string
	err := tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query, id).Scan(&imageKey)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	if imageKey == nil {
		return "", nil
	}
	return *imageKey, nil
}

func (p *ProductRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	return p.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

// GetForUpdate блокирует строку товара до конца текущей транзакции.
func (p *ProductRepo) GetForUpdate(ctx context.Context, id string) (*domain.Product, error) {
	if malformedID(id) {
		return nil, e.ErrProductNotFound
	}

	if _, err := tr.TxFromCtx(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return p.get(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1 FOR UPDATE`, id)
}

func (p *ProductRepo) List(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at, id`

	rows, err := tr.QuerierFromCtx(ctx, p.pool).Query(ctx, query)
	if err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}
	defer rows.Close()

	result := make([]domain.Product, 0)
	for rows.Next() {
		model, err := scanProduct(rows)
		if err != nil {
			return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
		}

		result = append(result, *p.conv.ToEntity(model))
	}

	if err := rows.Err(); err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return result, nil
}

// DecrementStock уменьшает остаток условным UPDATE, поэтому остаток не уходит в минус
// даже без предварительной блокировки строки.
func (p *ProductRepo) DecrementStock(ctx context.Context, id string, amount int64) (*domain.Product, error) {
	if amount < 1 {
		return nil, e.ErrInvalidQuantity
	}

	if malformedID(id) {
		return nil, e.ErrProductNotFound
	}

	q := tr.QuerierFromCtx(ctx, p.pool)
	query := `
		UPDATE products
		SET quantity = quantity - $2, updated_at = NOW()
		WHERE id = $1 AND quantity >= $2
		RETURNING ` + productColumns

	model, err := scanProduct(q.QueryRow(ctx, query, id, amount))
	if err == nil {
		return p.conv.ToEntity(model), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	// Условие не выполнилось: либо товара нет, либо не хватает остатка
	var available int64
	err = q.QueryRow(ctx, `SELECT quantity FROM products WHERE id = $1`, id).Scan(&available)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.ErrProductNotFound
	}
	if err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return nil, e.NewInsufficientStockError(available, amount)
}

func (p *ProductRepo) SetImageKey(ctx context.Context, id string, key string) error {
	if malformedID(id) {
		return e.ErrProductNotFound
	}

	query := `UPDATE products SET image_key = $2, updated_at = NOW() WHERE id = $1`

	tag, err := tr.QuerierFromCtx(ctx, p.pool).Exec(ctx, query, id, key)
	if err != nil {
		return e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}
	if tag.RowsAffected() == 0 {
		return e.ErrProductNotFound
	}

	return nil
}

func (p *ProductRepo) get(ctx context.Context, query string, id string) (*domain.Product, error) {
	if malformedID(id) {
		return nil, e.ErrProductNotFound
	}

	model, err := scanProduct(tr.QuerierFromCtx(ctx, p.pool).QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, e.ErrProductNotFound
	}
	if err != nil {
		return nil, e.Persistence(e.Wrap(whereami.WhereAmI(), err))
	}

	return p.conv.ToEntity(model), nil
}

func scanProduct(row pgx.Row) (*converter.ProductModel, error) {
	var model converter.ProductModel
	err := row.Scan(
		&model.ID, &model.Name, &model.Price, &model.Quantity, &model.Description,
		&model.ImageKey, &model.CreatedAt, &model.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &model, nil
}
