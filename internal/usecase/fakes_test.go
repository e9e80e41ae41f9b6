package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/repository/local"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

type fixture struct {
	store    *local.Store
	products *local.ProductRepo
	sales    *local.SaleRepo
	goals    *local.GoalRepo
	cache    *fakeCache
	log      logger.Logger
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := local.NewStore(local.NewMemoryBlobStore())
	return &fixture{
		store:    store,
		products: local.NewProductRepo(store),
		sales:    local.NewSaleRepo(store),
		goals:    local.NewGoalRepo(store),
		cache:    newFakeCache(),
		log:      logger.NewNopLogger(),
	}
}

type fakeCache struct {
	mu      sync.Mutex
	items   map[string]usecase.ProductInfo
	deleted []string
	setCh   chan struct{}
}

func newFakeCache() *fakeCache {
	return &fakeCache{items: make(map[string]usecase.ProductInfo), setCh: make(chan struct{}, 16)}
}

func (c *fakeCache) GetProducts(_ context.Context, ids []string) (map[string]usecase.ProductInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	res := make(map[string]usecase.ProductInfo)
	for _, id := range ids {
		if p, ok := c.items[id]; ok {
			res[id] = p
		}
	}
	return res, nil
}

func (c *fakeCache) SetProducts(_ context.Context, products []usecase.ProductInfo) error {
	c.mu.Lock()
	for _, p := range products {
		c.items[p.ID] = p
	}
	c.mu.Unlock()

	c.setCh <- struct{}{}
	return nil
}

func (c *fakeCache) DeleteProducts(_ context.Context, ids []string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		delete(c.items, id)
	}
	c.deleted = append(c.deleted, ids...)
	return nil
}

func (c *fakeCache) deletedIDs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.deleted...)
}

type fakeImages struct {
	mu       sync.Mutex
	uploaded []string
	cleaned  []string
	err      error
}

func (f *fakeImages) UploadImage(_ context.Context, req *usecase.UploadImageReq) (string, error) {
	if f.err != nil {
		return "", f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	key := req.ProductID + "/" + req.Image.Name
	f.uploaded = append(f.uploaded, key)
	return key, nil
}

func (f *fakeImages) CleanupImages(keys []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cleaned = append(f.cleaned, keys...)
}

type fakeIdempotency struct {
	mu       sync.Mutex
	keys     map[string]bool
	released []string
	err      error
}

func newFakeIdempotency() *fakeIdempotency {
	return &fakeIdempotency{keys: make(map[string]bool)}
}

func (f *fakeIdempotency) Reserve(_ context.Context, key string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.keys[key] {
		return false, nil
	}
	f.keys[key] = true
	return true, nil
}

func (f *fakeIdempotency) Release(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.keys, key)
	f.released = append(f.released, key)
	return nil
}

type fakeOutbox struct {
	events []*usecase.OutboxEvent
	err    error
}

func (f *fakeOutbox) Create(_ context.Context, event *usecase.OutboxEvent) (*usecase.OutboxEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.events = append(f.events, event)
	return event, nil
}

func (f *fakeOutbox) GetAndMarkAsProcessing(context.Context, int) ([]*usecase.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutbox) MarkAsProcessed(context.Context, int64) error { return nil }

func (f *fakeOutbox) MarkAsPending(context.Context, int64) error { return nil }

func (f *fakeOutbox) MarkAsFailed(context.Context, int64) error { return nil }

func (f *fakeOutbox) ReclaimStale(context.Context, time.Duration) (int64, error) { return 0, nil }

type fakeEncoder struct{}

func (fakeEncoder) EncodeSaleRecorded(event *usecase.SaleRecordedEvent) ([]byte, error) {
	return []byte(event.SaleID), nil
}

type fakeExporter struct {
	got []usecase.SaleInfo
}

func (f *fakeExporter) ExportSales(sales []usecase.SaleInfo) ([]byte, error) {
	f.got = sales
	return []byte("xlsx"), nil
}

type fakeGenerator struct {
	prompt string
	text   string
	err    error
}

func (f *fakeGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	f.prompt = prompt
	return f.text, f.err
}

func (f *fakeGenerator) Model() string { return "test-model" }

// failingSaleRepo отказывает при записи продажи.
type failingSaleRepo struct {
	usecase.SaleRepository
}

var errDiskFull = errors.New("disk full")

func (failingSaleRepo) Create(context.Context, *domain.Sale) error {
	return errDiskFull
}
