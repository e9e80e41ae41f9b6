package http

import (
	"net/http"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
)

const (
	IdempotencyKeyHeader = "Idempotency-Key"
	xlsxContentType      = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

type SaleHandler struct {
	saleUsecase usecase.SaleUC
	logger      logger.Logger
}

func NewSaleHandler(saleUsecase usecase.SaleUC, logger logger.Logger) *SaleHandler {
	return &SaleHandler{saleUsecase: saleUsecase, logger: logger}
}

// recordSale
//
//	@Summary		Продажа товара
//	@Description	Списывает остаток и добавляет запись в журнал продаж. Обе операции атомарны.
//	@Tags			sales
//	@Accept			json
//	@Produce		json
//	@Param			sale			body		RecordSaleRequest	true	"Продажа"
//	@Param			Idempotency-Key	header		string				false	"Ключ идемпотентности"
//	@Success		201				{object}	SaleResponse
//	@Failure		400				{object}	ErrorResponse
//	@Failure		404				{object}	ErrorResponse
//	@Failure		409				{object}	ErrorResponse	"Недостаточно товара или повторный запрос"
//	@Router			/sales [post]
func (s *SaleHandler) recordSale(w http.ResponseWriter, r *http.Request) {
	var req RecordSaleRequest
	if err := decodeJSON(w, r, &req); err != nil {
		s.logger.Warnf("%d %s: %s", http.StatusBadRequest, e.ErrStatusBadRequest.Error(), err.Error())
		WriteError(w, err)
		return
	}

	sale, err := s.saleUsecase.RecordSale(r.Context(), usecase.NewRecordSaleReq(req.ProductID, req.Quantity, r.Header.Get(IdempotencyKeyHeader)))
	if err != nil {
		writeUseCaseError(w, s.logger, err)
		return
	}

	s.logger.Infof("sale %s recorded: product=%s quantity=%d", sale.ID, sale.ProductID, sale.QuantitySold)
	WriteSuccess(w, http.StatusCreated, newSaleResponse(*sale))
}

// listSales
//
//	@Summary	Журнал продаж, новые сверху
//	@Tags		sales
//	@Produce	json
//	@Success	200	{array}	SaleResponse
//	@Router		/sales [get]
func (s *SaleHandler) listSales(w http.ResponseWriter, r *http.Request) {
	sales, err := s.saleUsecase.ListSales(r.Context())
	if err != nil {
		writeUseCaseError(w, s.logger, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newArrSaleResponse(sales))
}

// exportSales
//
//	@Summary	Выгрузка журнала продаж в xlsx
//	@Tags		sales
//	@Produce	application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
//	@Success	200	{file}	binary
//	@Router		/sales/export [get]
func (s *SaleHandler) exportSales(w http.ResponseWriter, r *http.Request) {
	data, err := s.saleUsecase.ExportSales(r.Context())
	if err != nil {
		writeUseCaseError(w, s.logger, err)
		return
	}

	filename := "sales-" + time.Now().UTC().Format("20060102") + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		s.logger.Warnf("failed to write export: %v", err)
	}
}
