package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/money"
	"github.com/google/uuid"
)

// ProductUseCase реализует бизнес-логику управления складом товаров.
type ProductUseCase struct {
	productRepo       ProductRepository
	imagesInfra       ImagesInfra // nil, если объектное хранилище не настроено
	cacheRepo         CacheRepository
	logger            logger.Logger
	lowStockThreshold int64
	cacheTimeout      time.Duration
}

func NewProductUC(
	productRepo ProductRepository,
	imagesInfra ImagesInfra,
	cacheRepo CacheRepository,
	logger logger.Logger,
	lowStockThreshold int64,
) *ProductUseCase {
	return &ProductUseCase{
		productRepo:       productRepo,
		imagesInfra:       imagesInfra,
		cacheRepo:         cacheRepo,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
		cacheTimeout:      500 * time.Millisecond,
	}
}

// AddProduct проверяет данные, присваивает товару новый UUID и сохраняет его.
func (p *ProductUseCase) AddProduct(ctx context.Context, req *ProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.AddProduct"

	fields, err := p.parseFields(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	product, err := domain.NewProduct(uuid.NewString(), fields, time.Now().UTC())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.productRepo.Create(ctx, product); err != nil {
		p.logger.Errorf(err, "%s: failed to create product %q", op, product.Name)
		return nil, e.Wrap(op, err)
	}

	info := NewProductInfo(*product, p.lowStockThreshold)
	return &info, nil
}

// UpdateProduct заменяет редактируемые поля товара. Для отсутствующего id состояние не меняется.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id string, req *ProductReq) (*ProductInfo, error) {
	const op = "ProductUseCase.UpdateProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}

	fields, err := p.parseFields(req)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	current, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	updated, err := current.WithFields(fields, time.Now().UTC())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := p.productRepo.Update(ctx, &updated); err != nil {
		if !errors.Is(err, e.ErrProductNotFound) {
			p.logger.Errorf(err, "%s: failed to update product %s", op, id)
		}
		return nil, e.Wrap(op, err)
	}
	p.invalidate(ctx, op, id)

	info := NewProductInfo(updated, p.lowStockThreshold)
	return &info, nil
}

// DeleteProduct удаляет товар. Продажи этого товара остаются в истории.
// Удаление отсутствующего товара ничего не делает.
func (p *ProductUseCase) DeleteProduct(ctx context.Context, id string) error {
	const op = "ProductUseCase.DeleteProduct"

	if strings.TrimSpace(id) == "" {
		return e.Wrap(op, e.ErrProductIDRequired)
	}

	imageKey, err := p.productRepo.Delete(ctx, id)
	if err != nil {
		p.logger.Errorf(err, "%s: failed to delete product %s", op, id)
		return e.Wrap(op, err)
	}
	p.invalidate(ctx, op, id)

	// Изображение удаляется в фоне
	if imageKey != "" && p.imagesInfra != nil {
		p.imagesInfra.CleanupImages([]string{imageKey})
	}

	return nil
}

// GetProduct возвращает товар, сначала пытаясь найти его в кэше.
func (p *ProductUseCase) GetProduct(ctx context.Context, id string) (*ProductInfo, error) {
	const op = "ProductUseCase.GetProduct"

	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}

	cached, err := p.cacheRepo.GetProducts(ctx, []string{id})
	if err == nil {
		if info, ok := cached[id]; ok {
			// Порог мог измениться после записи в кэш
			info.LowStock = info.Quantity <= p.lowStockThreshold
			return &info, nil
		}
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	info := NewProductInfo(*product, p.lowStockThreshold)

	// Фоновое добавление товара в кэш
	go func() {
		bgCtx, cancel := context.WithTimeout(context.Background(), p.cacheTimeout)
		defer cancel()

		// Продажа или правка между чтением и записью уже сбросила кэш: старую версию не кладём
		current, err := p.productRepo.GetByID(bgCtx, id)
		if err != nil || !sameRevision(*current, *product) {
			return
		}

		if err := p.cacheRepo.SetProducts(bgCtx, []ProductInfo{info}); err != nil {
			p.logger.Warnf("Failed to cache product in background: %v", e.Wrap(op, err))
		}
	}()

	return &info, nil
}

func (p *ProductUseCase) ListProducts(ctx context.Context) ([]ProductInfo, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.List(ctx)
	if err != nil {
		p.logger.Errorf(err, "%s: failed to list products", op)
		return nil, e.Wrap(op, err)
	}

	return NewArrProductInfo(products, p.lowStockThreshold), nil
}

// UploadProductImage загружает изображение в объектное хранилище и привязывает его к товару.
// Предыдущее изображение удаляется в фоне.
func (p *ProductUseCase) UploadProductImage(ctx context.Context, id string, image *ProductImage) (_ *ProductInfo, err error) {
	const op = "ProductUseCase.UploadProductImage"

	if p.imagesInfra == nil {
		return nil, e.Wrap(op, e.ErrImageStorageMissing)
	}
	if strings.TrimSpace(id) == "" {
		return nil, e.Wrap(op, e.ErrProductIDRequired)
	}
	if image == nil || len(image.Data) == 0 {
		return nil, e.Wrap(op, e.ErrNoImages)
	}

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	key, err := p.imagesInfra.UploadImage(ctx, NewUploadImageReq(id, *image))
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	// Если не удалось сохранить ключ, загруженный файл становится сиротой
	defer func() {
		if err != nil {
			p.logger.Warnf("Cleaning up orphaned image after failure. product_id: %s, error: %v", id, err)
			p.imagesInfra.CleanupImages([]string{key})
		}
	}()

	if err = p.productRepo.SetImageKey(ctx, id, key); err != nil {
		return nil, e.Wrap(op, err)
	}
	p.invalidate(ctx, op, id)

	if product.ImageKey != "" && product.ImageKey != key {
		p.imagesInfra.CleanupImages([]string{product.ImageKey})
	}

	product.ImageKey = key
	info := NewProductInfo(*product, p.lowStockThreshold)
	return &info, nil
}

// parseFields переводит запрос в поля доменной модели.
func (p *ProductUseCase) parseFields(req *ProductReq) (domain.ProductFields, error) {
	if req == nil {
		return domain.ProductFields{}, e.ErrMissingFields
	}
	if strings.TrimSpace(req.Name) == "" {
		return domain.ProductFields{}, e.ErrProductNameRequired
	}

	price, err := money.ParseCents(req.Price)
	if err != nil {
		return domain.ProductFields{}, err
	}

	fields := domain.ProductFields{
		Name:        req.Name,
		Price:       price,
		Quantity:    req.Quantity,
		Description: req.Description,
	}

	return fields, fields.Validate()
}

// invalidate удаляет товар из кэша. Ошибка кэша не прерывает операцию.
func (p *ProductUseCase) invalidate(ctx context.Context, op string, id string) {
	if err := p.cacheRepo.DeleteProducts(ctx, []string{id}); err != nil {
		p.logger.Warnf("Failed to delete products from cache: %v", e.Wrap(op, err))
	}
}

func sameRevision(a, b domain.Product) bool {
	if a.Quantity != b.Quantity || a.Price != b.Price {
		return false
	}
	if a.UpdatedAt == nil || b.UpdatedAt == nil {
		return a.UpdatedAt == b.UpdatedAt
	}
	return a.UpdatedAt.Equal(*b.UpdatedAt)
}
