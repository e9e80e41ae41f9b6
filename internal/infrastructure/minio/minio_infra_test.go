package minio

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/cfg"
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/jitter"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeImageRepo struct {
	mu        sync.Mutex
	uploaded  []*domain.Image
	deleted   []string
	failTimes int
}

func (f *fakeImageRepo) Upload(_ context.Context, image *domain.Image) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploaded = append(f.uploaded, image)
	return image.ObjectKey, nil
}

func (f *fakeImageRepo) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTimes > 0 {
		f.failTimes--
		return errors.New("minio unavailable")
	}
	f.deleted = append(f.deleted, key)
	return nil
}

func newInfra(repo *fakeImageRepo) *MinioInfrastructure {
	infra := NewMinioInfrastructure(repo, &cfg.MinIOCfg{BucketName: "products", MaxImageSize: 8}, logger.NewNopLogger(), context.Background())
	infra.backoff = jitter.NewBackoff(time.Millisecond, 2*time.Millisecond)
	return infra
}

func TestMinioInfrastructure_UploadImage(t *testing.T) {
	repo := &fakeImageRepo{}
	infra := newInfra(repo)

	key, err := infra.UploadImage(context.Background(), usecase.NewUploadImageReq("p-1",
		*usecase.NewProductImage([]byte("png"), "image/png", 3, "a.png")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "p-1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))
	require.Len(t, repo.uploaded, 1)
	assert.Equal(t, "products", repo.uploaded[0].Bucket)
	assert.Equal(t, int64(3), repo.uploaded[0].Size)
}

func TestMinioInfrastructure_UploadImageRejectsBadInput(t *testing.T) {
	infra := newInfra(&fakeImageRepo{})

	_, err := infra.UploadImage(context.Background(), usecase.NewUploadImageReq("p",
		*usecase.NewProductImage([]byte("0123456789"), "image/png", 10, "big.png")))
	assert.ErrorIs(t, err, e.ErrFileTooLarge)

	_, err = infra.UploadImage(context.Background(), usecase.NewUploadImageReq("p",
		*usecase.NewProductImage([]byte("pdf"), "application/pdf", 3, "a.pdf")))
	assert.ErrorIs(t, err, e.ErrUnsupportedMediaType)
}

func TestMinioInfrastructure_CleanupRetries(t *testing.T) {
	repo := &fakeImageRepo{failTimes: 2}
	infra := newInfra(repo)

	infra.CleanupImages([]string{"a", "b"})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, infra.WaitForCleanup(ctx))

	assert.Equal(t, []string{"a", "b"}, repo.deleted)
}
