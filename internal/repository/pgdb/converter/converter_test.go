package converter

import (
	"testing"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestProductConverter_ImageKeyIsNullable(t *testing.T) {
	conv := ProductConverterImpl{}
	now := time.Now().UTC()

	model := conv.ToModel(&domain.Product{ID: "a", Name: "A", CreatedAt: now})
	assert.Nil(t, model.ImageKey)

	model = conv.ToModel(&domain.Product{ID: "a", ImageKey: "img.png"})
	if assert.NotNil(t, model.ImageKey) {
		assert.Equal(t, "img.png", *model.ImageKey)
	}

	entity := conv.ToEntity(&ProductModel{ID: "b", Quantity: 4})
	assert.Empty(t, entity.ImageKey)
	assert.Equal(t, int64(4), entity.Quantity)
}
