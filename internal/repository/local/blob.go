package local

import (
	"context"
	"maps"
	"sync"
)

// BlobStore хранит целые коллекции как непрозрачные значения по имени.
type BlobStore interface {
	// Get возвращает nil, если ключа нет.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Atomic выполняет fn над представлением хранилища, записи которого
	// применяются целиком при успехе fn и отбрасываются при ошибке.
	Atomic(ctx context.Context, fn func(view BlobStore) error) error
}

// MemoryBlobStore — BlobStore в памяти процесса.
type MemoryBlobStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemoryBlobStore() *MemoryBlobStore {
	return &MemoryBlobStore{blobs: make(map[string][]byte)}
}

func (m *MemoryBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	data, ok := m.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), data...), nil
}

func (m *MemoryBlobStore) Put(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.blobs[key] = append([]byte(nil), data...)
	return nil
}

// Atomic копит записи fn в буфере и переносит их в хранилище одним шагом.
// При ошибке fn буфер выбрасывается и хранилище остаётся прежним.
func (m *MemoryBlobStore) Atomic(ctx context.Context, fn func(view BlobStore) error) error {
	tx := &memoryTx{parent: m, writes: make(map[string][]byte)}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	maps.Copy(m.blobs, tx.writes)
	return nil
}

// memoryTx — представление MemoryBlobStore с буферизованными записями.
type memoryTx struct {
	parent *MemoryBlobStore
	writes map[string][]byte
}

func (t *memoryTx) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := t.writes[key]; ok {
		return append([]byte(nil), data...), nil
	}
	return t.parent.Get(ctx, key)
}

func (t *memoryTx) Put(_ context.Context, key string, data []byte) error {
	t.writes[key] = append([]byte(nil), data...)
	return nil
}

func (t *memoryTx) Atomic(_ context.Context, fn func(view BlobStore) error) error {
	return fn(t)
}
