package converter

import "github.com/DRSN-tech/pos-backend/internal/usecase"

type ProductInfoConverter interface {
	ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel
	ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo
	ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel
}

// ProductInfoConverterImpl не хранит в кэше признак LowStock: он зависит от порога и считается при чтении.
type ProductInfoConverterImpl struct{}

func (ProductInfoConverterImpl) ToRedisModel(entity *usecase.ProductInfo) *ProductInfoRedisModel {
	if entity == nil {
		return nil
	}

	return &ProductInfoRedisModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Price:       entity.Price,
		Quantity:    entity.Quantity,
		Description: entity.Description,
		ImageKey:    entity.ImageKey,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

func (ProductInfoConverterImpl) ToUseCase(model *ProductInfoRedisModel) *usecase.ProductInfo {
	if model == nil {
		return nil
	}

	return &usecase.ProductInfo{
		ID:          model.ID,
		Name:        model.Name,
		Price:       model.Price,
		Quantity:    model.Quantity,
		Description: model.Description,
		ImageKey:    model.ImageKey,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
}

func (c ProductInfoConverterImpl) ToArrRedisModel(entities []usecase.ProductInfo) []ProductInfoRedisModel {
	result := make([]ProductInfoRedisModel, 0, len(entities))
	for i := range entities {
		result = append(result, *c.ToRedisModel(&entities[i]))
	}

	return result
}
