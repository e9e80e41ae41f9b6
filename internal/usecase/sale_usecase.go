package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/google/uuid"
)

// SaleUseCase регистрирует продажи и отдаёт их историю.
type SaleUseCase struct {
	txManager   TxManager
	productRepo ProductRepository
	saleRepo    SaleRepository
	cacheRepo   CacheRepository
	idempotency IdempotencyRepository // nil, если Redis не настроен
	outboxRepo  OutboxRepository      // nil, если Kafka не настроена
	encoder     EventEncoder
	exporter    SalesExporter
	logger      logger.Logger
}

func NewSaleUC(
	txManager TxManager,
	productRepo ProductRepository,
	saleRepo SaleRepository,
	cacheRepo CacheRepository,
	idempotency IdempotencyRepository,
	outboxRepo OutboxRepository,
	encoder EventEncoder,
	exporter SalesExporter,
	logger logger.Logger,
) *SaleUseCase {
	return &SaleUseCase{
		txManager:   txManager,
		productRepo: productRepo,
		saleRepo:    saleRepo,
		cacheRepo:   cacheRepo,
		idempotency: idempotency,
		outboxRepo:  outboxRepo,
		encoder:     encoder,
		exporter:    exporter,
		logger:      logger,
	}
}

// RecordSale атомарно добавляет продажу в журнал и уменьшает остаток товара.
// При любой ошибке внутри транзакции ни журнал, ни остаток не меняются.
func (s *SaleUseCase) RecordSale(ctx context.Context, req *RecordSaleReq) (_ *SaleInfo, err error) {
	const op = "SaleUseCase.RecordSale"

	if req == nil || strings.TrimSpace(req.ProductID) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}
	if req.Quantity < 1 {
		return nil, e.Wrap(op, e.ErrInvalidQuantity)
	}

	// Повторный запрос с тем же ключом отклоняется
	reserved, err := s.reserve(ctx, req.IdempotencyKey)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	defer func() {
		if err != nil && reserved {
			if relErr := s.idempotency.Release(context.WithoutCancel(ctx), req.IdempotencyKey); relErr != nil {
				s.logger.Warnf("Failed to release idempotency key %s: %v", req.IdempotencyKey, e.Wrap(op, relErr))
			}
		}
	}()

	var (
		sale    *domain.Sale
		product *domain.Product
	)
	err = s.txManager.Do(ctx, func(ctx context.Context) error {
		var err error

		product, err = s.productRepo.GetForUpdate(ctx, req.ProductID)
		if err != nil {
			return err
		}

		sale, err = domain.NewSale(uuid.NewString(), *product, req.Quantity, time.Now().UTC())
		if err != nil {
			return err
		}

		if err = s.saleRepo.Create(ctx, sale); err != nil {
			return err
		}

		if _, err = s.productRepo.DecrementStock(ctx, product.ID, sale.QuantitySold); err != nil {
			return err
		}

		return s.enqueueSaleEvent(ctx, sale)
	})
	if err != nil {
		if errors.Is(err, e.ErrPersistenceFailure) {
			s.logger.Errorf(err, "%s: sale for product %s was not recorded", op, req.ProductID)
		}
		return nil, e.Wrap(op, err)
	}

	// Удаление из кэша старого остатка товара
	if err := s.cacheRepo.DeleteProducts(ctx, []string{product.ID}); err != nil {
		s.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}

	info := NewSaleInfo(*sale, product.Name)
	return &info, nil
}

// ListSales возвращает продажи от новых к старым с текущими именами товаров.
func (s *SaleUseCase) ListSales(ctx context.Context) ([]SaleInfo, error) {
	const op = "SaleUseCase.ListSales"

	products, err := s.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sales, err := s.saleRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	index := domain.IndexProducts(products)
	result := make([]SaleInfo, 0, len(sales))
	for _, sale := range sales {
		result = append(result, NewSaleInfo(sale, domain.ProductName(index, sale.ProductID)))
	}

	return result, nil
}

// ExportSales формирует xlsx-файл с историей продаж.
func (s *SaleUseCase) ExportSales(ctx context.Context) ([]byte, error) {
	const op = "SaleUseCase.ExportSales"

	sales, err := s.ListSales(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	data, err := s.exporter.ExportSales(sales)
	if err != nil {
		s.logger.Errorf(err, "%s: failed to render workbook", op)
		return nil, e.Wrap(op, err)
	}

	return data, nil
}

// reserve резервирует ключ идемпотентности. Недоступность Redis не блокирует продажу.
func (s *SaleUseCase) reserve(ctx context.Context, key string) (bool, error) {
	if key == "" || s.idempotency == nil {
		return false, nil
	}

	ok, err := s.idempotency.Reserve(ctx, key)
	if err != nil {
		s.logger.Warnf("Idempotency check skipped for key %s: %v", key, err)
		return false, nil
	}
	if !ok {
		return false, e.ErrDuplicateRequest
	}

	return true, nil
}

// enqueueSaleEvent пишет событие sale.recorded в outbox в той же транзакции.
func (s *SaleUseCase) enqueueSaleEvent(ctx context.Context, sale *domain.Sale) error {
	if s.outboxRepo == nil || s.encoder == nil {
		return nil
	}

	eventID := uuid.NewString()
	payload, err := s.encoder.EncodeSaleRecorded(NewSaleRecordedEvent(eventID, sale))
	if err != nil {
		return err
	}

	_, err = s.outboxRepo.Create(ctx, NewOutboxEvent(eventID, EventTypeSaleRecorded, sale.ProductID, payload, sale.CreatedAt))
	return err
}
