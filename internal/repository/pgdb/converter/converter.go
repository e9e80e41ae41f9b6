package converter

import (
	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
)

// ProductConverter преобразует сущности Product между domain и моделью PostgreSQL.
type ProductConverter interface {
	ToModel(entity *domain.Product) *ProductModel
	ToEntity(model *ProductModel) *domain.Product
}

// SaleConverter преобразует сущности Sale между domain и моделью PostgreSQL.
type SaleConverter interface {
	ToModel(entity *domain.Sale) *SaleModel
	ToEntity(model *SaleModel) domain.Sale
}

// OutboxEventConverter преобразует сущности OutboxEvent между usecase и моделью PostgreSQL.
type OutboxEventConverter interface {
	ToModel(entity *usecase.OutboxEvent) *OutboxEventModel
	ToEntity(model *OutboxEventModel) *usecase.OutboxEvent
	ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent
}

type ProductConverterImpl struct{}

func (ProductConverterImpl) ToModel(entity *domain.Product) *ProductModel {
	if entity == nil {
		return nil
	}

	var imageKey *string
	if entity.ImageKey != "" {
		key := entity.ImageKey
		imageKey = &key
	}

	return &ProductModel{
		ID:          entity.ID,
		Name:        entity.Name,
		Price:       entity.Price,
		Quantity:    entity.Quantity,
		Description: entity.Description,
		ImageKey:    imageKey,
		CreatedAt:   entity.CreatedAt,
		UpdatedAt:   entity.UpdatedAt,
	}
}

func (ProductConverterImpl) ToEntity(model *ProductModel) *domain.Product {
	if model == nil {
		return nil
	}

	product := &domain.Product{
		ID:          model.ID,
		Name:        model.Name,
		Price:       model.Price,
		Quantity:    model.Quantity,
		Description: model.Description,
		CreatedAt:   model.CreatedAt,
		UpdatedAt:   model.UpdatedAt,
	}
	if model.ImageKey != nil {
		product.ImageKey = *model.ImageKey
	}

	return product
}

type SaleConverterImpl struct{}

func (SaleConverterImpl) ToModel(entity *domain.Sale) *SaleModel {
	return &SaleModel{
		ID:           entity.ID,
		ProductID:    entity.ProductID,
		QuantitySold: entity.QuantitySold,
		TotalPrice:   entity.TotalPrice,
		CreatedAt:    entity.CreatedAt,
	}
}

func (SaleConverterImpl) ToEntity(model *SaleModel) domain.Sale {
	return domain.Sale{
		ID:           model.ID,
		ProductID:    model.ProductID,
		QuantitySold: model.QuantitySold,
		TotalPrice:   model.TotalPrice,
		CreatedAt:    model.CreatedAt,
	}
}

type OutboxEventConverterImpl struct{}

func (OutboxEventConverterImpl) ToModel(entity *usecase.OutboxEvent) *OutboxEventModel {
	if entity == nil {
		return nil
	}

	return &OutboxEventModel{
		ID:          entity.ID,
		EventID:     entity.EventID,
		EventType:   entity.EventType,
		ProductID:   entity.ProductID,
		Payload:     entity.Payload,
		Status:      entity.Status,
		Attempts:    entity.Attempts,
		CreatedAt:   entity.CreatedAt,
		ProcessedAt: entity.ProcessedAt,
	}
}

func (OutboxEventConverterImpl) ToEntity(model *OutboxEventModel) *usecase.OutboxEvent {
	if model == nil {
		return nil
	}

	return &usecase.OutboxEvent{
		ID:          model.ID,
		EventID:     model.EventID,
		EventType:   model.EventType,
		ProductID:   model.ProductID,
		Payload:     model.Payload,
		Status:      model.Status,
		Attempts:    model.Attempts,
		CreatedAt:   model.CreatedAt,
		ProcessedAt: model.ProcessedAt,
	}
}

func (c OutboxEventConverterImpl) ToArrEntity(models []*OutboxEventModel) []*usecase.OutboxEvent {
	result := make([]*usecase.OutboxEvent, 0, len(models))
	for _, model := range models {
		result = append(result, c.ToEntity(model))
	}

	return result
}
