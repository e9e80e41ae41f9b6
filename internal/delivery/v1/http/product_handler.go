package http

import (
	"net/http"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type ProductHandler struct {
	productUsecase usecase.ProductUC
	logger         logger.Logger
	maxImageSize   int64
}

// defaultMaxImageSize используется, если размер не задан конфигурацией MinIO.
const defaultMaxImageSize = 15 << 20

func NewProductHandler(productUsecase usecase.ProductUC, logger logger.Logger, maxImageSize int64) *ProductHandler {
	if maxImageSize <= 0 {
		maxImageSize = defaultMaxImageSize
	}
	return &ProductHandler{productUsecase: productUsecase, logger: logger, maxImageSize: maxImageSize}
}

// listProducts
//
//	@Summary	Список товаров
//	@Tags		products
//	@Produce	json
//	@Success	200	{array}		ProductResponse
//	@Failure	500	{object}	ErrorResponse
//	@Router		/products [get]
func (p *ProductHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := p.productUsecase.ListProducts(r.Context())
	if err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newArrProductResponse(products))
}

// addProduct
//
//	@Summary		Добавление товара
//	@Description	Создаёт товар с новым идентификатором
//	@Tags			products
//	@Accept			json
//	@Produce		json
//	@Param			product	body		ProductRequest	true	"Товар"
//	@Success		201		{object}	ProductResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации"
//	@Router			/products [post]
func (p *ProductHandler) addProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.AddProduct(r.Context(), req.toUseCase())
	if err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	p.logger.Infof("product %s created", product.ID)
	WriteSuccess(w, http.StatusCreated, newProductResponse(*product))
}

// getProduct
//
//	@Summary	Товар по идентификатору
//	@Tags		products
//	@Produce	json
//	@Param		id	path		string	true	"ID товара"
//	@Success	200	{object}	ProductResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/products/{id} [get]
func (p *ProductHandler) getProduct(w http.ResponseWriter, r *http.Request) {
	product, err := p.productUsecase.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(*product))
}

// updateProduct
//
//	@Summary	Изменение товара
//	@Tags		products
//	@Accept		json
//	@Produce	json
//	@Param		id		path		string			true	"ID товара"
//	@Param		product	body		ProductRequest	true	"Новые значения полей"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	404		{object}	ErrorResponse
//	@Router		/products/{id} [put]
func (p *ProductHandler) updateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.UpdateProduct(r.Context(), chi.URLParam(r, "id"), req.toUseCase())
	if err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(*product))
}

// deleteProduct
//
//	@Summary	Удаление товара
//	@Tags		products
//	@Param		id	path	string	true	"ID товара"
//	@Success	204
//	@Router		/products/{id} [delete]
func (p *ProductHandler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := p.productUsecase.DeleteProduct(r.Context(), chi.URLParam(r, "id")); err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// uploadImage
//
//	@Summary	Загрузка изображения товара
//	@Tags		products
//	@Accept		multipart/form-data
//	@Produce	json
//	@Param		id		path		string	true	"ID товара"
//	@Param		image	formData	file	true	"Изображение"
//	@Success	200		{object}	ProductResponse
//	@Failure	400		{object}	ErrorResponse
//	@Failure	413		{object}	ErrorResponse
//	@Failure	503		{object}	ErrorResponse	"Хранилище изображений не настроено"
//	@Router		/products/{id}/image [post]
func (p *ProductHandler) uploadImage(w http.ResponseWriter, r *http.Request) {
	const maxMemory = 8 << 20

	r.Body = http.MaxBytesReader(w, r.Body, p.maxImageSize+(1<<20))

	if err := ensureMultipartForm(r, maxMemory); err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), r.Header.Get("Content-Type"))
		WriteError(w, err)
		return
	}

	image, err := parseImage(r.MultipartForm.File["image"], p.maxImageSize)
	if err != nil {
		p.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	product, err := p.productUsecase.UploadProductImage(r.Context(), chi.URLParam(r, "id"), image)
	if err != nil {
		writeUseCaseError(w, p.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newProductResponse(*product))
}

// writeUseCaseError логирует серверные ошибки и отдаёт клиенту ответ.
func writeUseCaseError(w http.ResponseWriter, log logger.Logger, err error) {
	code, _ := ToHTTPResponse(err)
	if code >= http.StatusInternalServerError {
		log.Errorf(err, "%d request failed", code)
	} else {
		log.Warnf("%d %s", code, err.Error())
	}
	WriteError(w, err)
}
