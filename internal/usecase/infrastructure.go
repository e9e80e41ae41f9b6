package usecase

import "context"

type ImagesInfra interface {
	UploadImage(ctx context.Context, req *UploadImageReq) (string, error)
	CleanupImages(keys []string)
}

// InsightGenerator отправляет промпт в языковую модель и возвращает ответ.
type InsightGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	Model() string
}

type SalesExporter interface {
	ExportSales(sales []SaleInfo) ([]byte, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

type EventEncoder interface {
	EncodeSaleRecorded(event *SaleRecordedEvent) ([]byte, error)
}
