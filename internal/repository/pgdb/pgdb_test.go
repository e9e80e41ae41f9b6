package pgdb

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/tr"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// getPool подключается к POSTGRES_TEST_DSN и накатывает миграции из db/migrations.
func getPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := os.Getenv("POSTGRES_TEST_DSN")
	if dsn == "" {
		t.Skip("PostgreSQL not available: POSTGRES_TEST_DSN is not set")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Skipf("PostgreSQL not available: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Skipf("PostgreSQL not available: %v", err)
	}
	t.Cleanup(pool.Close)

	files, err := filepath.Glob(filepath.Join("..", "..", "..", "db", "migrations", "*.up.sql"))
	require.NoError(t, err)
	sort.Strings(files)
	for _, f := range files {
		sql, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(sql))
		require.NoError(t, err, f)
	}

	return pool
}

func insertProduct(t *testing.T, repo *ProductRepo, price, quantity int64) *domain.Product {
	t.Helper()

	p, err := domain.NewProduct(uuid.NewString(), domain.ProductFields{Name: "Widget", Price: price, Quantity: quantity}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Create(context.Background(), p))
	t.Cleanup(func() { _, _ = repo.Delete(context.Background(), p.ID) })
	return p
}

func TestProductRepo_MalformedIDIsNotFound(t *testing.T) {
	// Пул не нужен: запрос с таким id не доходит до PostgreSQL
	repo := NewProductRepo(nil, converter.ProductConverterImpl{})
	ctx := context.Background()

	_, err := repo.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	_, err = repo.GetForUpdate(ctx, "abc")
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	err = repo.Update(ctx, &domain.Product{ID: "abc", Name: "X"})
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	_, err = repo.DecrementStock(ctx, "abc", 1)
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	err = repo.SetImageKey(ctx, "abc", "abc/key.png")
	assert.ErrorIs(t, err, e.ErrProductNotFound)

	key, err := repo.Delete(ctx, "abc")
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestProductRepo_DecrementStockGuard(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	repo := NewProductRepo(pool, converter.ProductConverterImpl{})
	p := insertProduct(t, repo, 1000, 5)

	got, err := repo.DecrementStock(ctx, p.ID, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Quantity)

	_, err = repo.DecrementStock(ctx, p.ID, 3)
	require.ErrorIs(t, err, e.ErrInsufficientStock)
	available, _ := e.AvailableStock(err)
	assert.Equal(t, int64(2), available)

	_, err = repo.DecrementStock(ctx, uuid.NewString(), 1)
	assert.ErrorIs(t, err, e.ErrProductNotFound)
}

func TestProductRepo_UpdateAndDelete(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	repo := NewProductRepo(pool, converter.ProductConverterImpl{})
	p := insertProduct(t, repo, 100, 1)

	require.NoError(t, repo.SetImageKey(ctx, p.ID, "img/a.png"))
	updated, err := p.WithFields(domain.ProductFields{Name: "Gadget", Price: 300, Quantity: 7}, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, &updated))

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "Gadget", got.Name)
	assert.Equal(t, "img/a.png", got.ImageKey)

	missing := updated
	missing.ID = uuid.NewString()
	assert.ErrorIs(t, repo.Update(ctx, &missing), e.ErrProductNotFound)

	key, err := repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "img/a.png", key)

	key, err = repo.Delete(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, key)
}

func TestPgTxManager_RollbackKeepsStockAndLedger(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	products := NewProductRepo(pool, converter.ProductConverterImpl{})
	sales := NewSaleRepo(pool, converter.SaleConverterImpl{})
	txm := tr.NewPgTxManager(pool, pgx.TxOptions{})
	p := insertProduct(t, products, 1000, 5)

	err := txm.Do(ctx, func(ctx context.Context) error {
		locked, err := products.GetForUpdate(ctx, p.ID)
		if err != nil {
			return err
		}
		sale, err := domain.NewSale(uuid.NewString(), *locked, 3, time.Now().UTC())
		if err != nil {
			return err
		}
		if err := sales.Create(ctx, sale); err != nil {
			return err
		}
		// Второе списание не проходит условие и откатывает всю продажу
		if _, err := products.DecrementStock(ctx, p.ID, 3); err != nil {
			return err
		}
		_, err = products.DecrementStock(ctx, p.ID, 3)
		return err
	})
	require.ErrorIs(t, err, e.ErrInsufficientStock)

	got, err := products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got.Quantity)

	var count int
	require.NoError(t, pool.QueryRow(ctx, `SELECT COUNT(*) FROM sales WHERE product_id = $1`, p.ID).Scan(&count))
	assert.Zero(t, count)
}

func TestOutboxEventRepo_ReclaimAndFail(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	repo := NewOutboxEventRepo(pool, converter.OutboxEventConverterImpl{})
	txm := tr.NewPgTxManager(pool, pgx.TxOptions{})

	var created *usecase.OutboxEvent
	err := txm.Do(ctx, func(ctx context.Context) error {
		var err error
		created, err = repo.Create(ctx, usecase.NewOutboxEvent(
			uuid.NewString(), usecase.EventTypeSaleRecorded, uuid.NewString(), []byte("x"), time.Now().UTC(),
		))
		return err
	})
	require.NoError(t, err)

	status := func() (string, int) {
		var st string
		var attempts int
		require.NoError(t, pool.QueryRow(ctx,
			`SELECT status, attempts FROM outbox_events WHERE id = $1`, created.ID).Scan(&st, &attempts))
		return st, attempts
	}

	// Воркер взял событие час назад и пропал
	_, err = pool.Exec(ctx, `
		UPDATE outbox_events SET status = 'processing', processing_started_at = NOW() - INTERVAL '1 hour'
		WHERE id = $1`, created.ID)
	require.NoError(t, err)

	reclaimed, err := repo.ReclaimStale(ctx, time.Minute)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, reclaimed, int64(1))
	st, _ := status()
	assert.Equal(t, string(usecase.Pending), st)

	// Свежие события в processing не трогаются
	_, err = pool.Exec(ctx, `
		UPDATE outbox_events SET status = 'processing', processing_started_at = NOW() WHERE id = $1`, created.ID)
	require.NoError(t, err)
	_, err = repo.ReclaimStale(ctx, time.Hour)
	require.NoError(t, err)
	st, _ = status()
	assert.Equal(t, string(usecase.Processing), st)

	require.NoError(t, repo.MarkAsFailed(ctx, created.ID))
	st, attempts := status()
	assert.Equal(t, string(usecase.Failed), st)
	assert.Equal(t, 1, attempts)
}

func TestProductRepo_ConcurrentDecrements(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	repo := NewProductRepo(pool, converter.ProductConverterImpl{})
	p := insertProduct(t, repo, 100, 10)

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
	)
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DecrementStock(ctx, p.ID, 1); err == nil {
				succeeded.Add(1)
			}
		}()
	}
	wg.Wait()

	got, err := repo.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(10), succeeded.Load())
	assert.Equal(t, int64(0), got.Quantity)
}

func TestGoalRepo_Upsert(t *testing.T) {
	pool := getPool(t)
	ctx := context.Background()
	repo := NewGoalRepo(pool)

	g, err := domain.NewGoal(123456, time.Now().UTC())
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, g))

	got, err := repo.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(123456), got.Amount)
}
