package usecase

import (
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
)

// PRODUCT USECASE

// ProductReq — запрос на создание или изменение товара. Цена передаётся десятичной строкой ("10.00").
type ProductReq struct {
	Name        string
	Price       string
	Quantity    int64
	Description string
}

// ProductImage представляет изображение, загруженное через multipart/form-data.
type ProductImage struct {
	Data     []byte // байты изображения
	MimeType string // Content-Type из multipart (image/jpeg)
	Size     int64  // фактический размер в байтах
	Name     string // оригинальное имя файла (для логов)
}

// ProductInfo — DTO с информацией о товаре для внешнего использования.
type ProductInfo struct {
	ID          string
	Name        string
	Price       int64
	Quantity    int64
	Description string
	ImageKey    string
	LowStock    bool
	CreatedAt   time.Time
	UpdatedAt   *time.Time
}

// SALE USECASE

// RecordSaleReq — запрос на регистрацию продажи.
type RecordSaleReq struct {
	ProductID      string
	Quantity       int64
	IdempotencyKey string // необязательный, из заголовка Idempotency-Key
}

// SaleInfo — продажа с актуальным именем товара.
type SaleInfo struct {
	ID           string
	ProductID    string
	ProductName  string
	QuantitySold int64
	TotalPrice   int64
	CreatedAt    time.Time
}

// REPORT USECASE

type DashboardRes struct {
	domain.Dashboard
	LowStockThreshold int64
}

type GoalInfo struct {
	Amount    int64
	UpdatedAt *time.Time
}

// InsightRes — текст, сгенерированный моделью.
type InsightRes struct {
	Text        string
	Model       string
	GeneratedAt time.Time
}

// INFRASTUCTURE

// UploadImageReq — запрос на загрузку изображения товара.
type UploadImageReq struct {
	ProductID string
	Image     ProductImage
}

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
	// Failed — событие не будет доставлено: Kafka отклонила его или исчерпаны попытки.
	Failed OutboxStatus = "failed"
)

// EventTypeSaleRecorded — тип события о проведённой продаже.
const EventTypeSaleRecorded = "sale.recorded"

// OutboxEvent — событие, ожидающее отправки в Kafka.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	ProductID   string
	Payload     []byte
	Status      OutboxStatus
	Attempts    int // число неудачных отправок
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

// SaleRecordedEvent — содержимое события sale.recorded.
type SaleRecordedEvent struct {
	EventID      string
	SaleID       string
	ProductID    string
	QuantitySold int64
	TotalPrice   int64
	CreatedAt    time.Time
}

type WriteRawMessageReq struct {
	ProductID string
	Payload   []byte
}

// MAPPERS

func NewProductInfo(p domain.Product, lowStockThreshold int64) ProductInfo {
	return ProductInfo{
		ID:          p.ID,
		Name:        p.Name,
		Price:       p.Price,
		Quantity:    p.Quantity,
		Description: p.Description,
		ImageKey:    p.ImageKey,
		LowStock:    p.IsLowStock(lowStockThreshold),
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}

func NewArrProductInfo(products []domain.Product, lowStockThreshold int64) []ProductInfo {
	result := make([]ProductInfo, 0, len(products))
	for _, p := range products {
		result = append(result, NewProductInfo(p, lowStockThreshold))
	}
	return result
}

func NewSaleInfo(sale domain.Sale, productName string) SaleInfo {
	return SaleInfo{
		ID:           sale.ID,
		ProductID:    sale.ProductID,
		ProductName:  productName,
		QuantitySold: sale.QuantitySold,
		TotalPrice:   sale.TotalPrice,
		CreatedAt:    sale.CreatedAt,
	}
}

func NewGoalInfo(goal *domain.Goal) *GoalInfo {
	if goal == nil {
		return &GoalInfo{}
	}
	return &GoalInfo{Amount: goal.Amount, UpdatedAt: goal.UpdatedAt}
}

func NewProductReq(name, price string, quantity int64, description string) *ProductReq {
	return &ProductReq{
		Name:        name,
		Price:       price,
		Quantity:    quantity,
		Description: description,
	}
}

func NewRecordSaleReq(productID string, quantity int64, idempotencyKey string) *RecordSaleReq {
	return &RecordSaleReq{
		ProductID:      productID,
		Quantity:       quantity,
		IdempotencyKey: idempotencyKey,
	}
}

func NewProductImage(data []byte, mimeType string, size int64, name string) *ProductImage {
	return &ProductImage{
		Data:     data,
		MimeType: mimeType,
		Size:     size,
		Name:     name,
	}
}

func NewUploadImageReq(productID string, image ProductImage) *UploadImageReq {
	return &UploadImageReq{
		ProductID: productID,
		Image:     image,
	}
}

func NewSaleRecordedEvent(eventID string, sale *domain.Sale) *SaleRecordedEvent {
	return &SaleRecordedEvent{
		EventID:      eventID,
		SaleID:       sale.ID,
		ProductID:    sale.ProductID,
		QuantitySold: sale.QuantitySold,
		TotalPrice:   sale.TotalPrice,
		CreatedAt:    sale.CreatedAt,
	}
}

func NewOutboxEvent(eventID, eventType, productID string, payload []byte, createdAt time.Time) *OutboxEvent {
	return &OutboxEvent{
		EventID:   eventID,
		EventType: eventType,
		ProductID: productID,
		Payload:   payload,
		Status:    Pending,
		CreatedAt: createdAt,
	}
}

func NewWriteRawMessageReq(productID string, payload []byte) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		ProductID: productID,
		Payload:   payload,
	}
}
