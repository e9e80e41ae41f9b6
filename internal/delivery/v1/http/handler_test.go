package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DRSN-tech/pos-backend/internal/infrastructure/excel"
	"github.com/DRSN-tech/pos-backend/internal/repository/local"
	"github.com/DRSN-tech/pos-backend/internal/repository/redis"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGenerator struct {
	text string
	err  error
}

func (s stubGenerator) GenerateText(context.Context, string) (string, error) { return s.text, s.err }
func (s stubGenerator) Model() string                                         { return "stub" }

func newTestAPI(t *testing.T, generator usecase.InsightGenerator) http.Handler {
	t.Helper()

	log := logger.NewNopLogger()
	store := local.NewStore(local.NewMemoryBlobStore())
	products := local.NewProductRepo(store)
	sales := local.NewSaleRepo(store)
	goals := local.NewGoalRepo(store)
	cache := redis.NopCacheRepo{}

	router := NewRouter(chi.NewRouter(), log)
	router.Init(UseCases{
		Product: usecase.NewProductUC(products, nil, cache, log, 5),
		Sale:    usecase.NewSaleUC(store, products, sales, cache, nil, nil, nil, excel.NewExporter(), log),
		Report:  usecase.NewReportUC(products, sales, goals, log, 5),
		Insight: usecase.NewInsightUC(products, sales, generator, log, 5),
	})

	return router.Handler()
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createWidget(t *testing.T, h http.Handler) ProductResponse {
	t.Helper()

	rec := doJSON(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Widget", "price": "10.00", "quantity": 5,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[ProductResponse](t, rec)
}

func TestAPI_WidgetSaleFlow(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)
	assert.Equal(t, "10.00", widget.Price)
	assert.True(t, widget.LowStock, "quantity equal to the threshold counts as low stock")

	rec := doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": widget.ID, "quantity": 3})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	sale := decode[SaleResponse](t, rec)
	assert.Equal(t, "30.00", sale.TotalPrice)
	assert.Equal(t, "Widget", sale.ProductName)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": widget.ID, "quantity": 3})
	require.Equal(t, http.StatusConflict, rec.Code)
	errResp := decode[ErrorResponse](t, rec)
	require.NotNil(t, errResp.Available)
	assert.Equal(t, int64(2), *errResp.Available)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products/"+widget.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	product := decode[ProductResponse](t, rec)
	assert.Equal(t, int64(2), product.Quantity)
	assert.True(t, product.LowStock)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/sales", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]SaleResponse](t, rec), 1)
}

func TestAPI_ProductValidation(t *testing.T) {
	h := newTestAPI(t, nil)

	tests := []struct {
		name string
		body any
	}{
		{"empty name", map[string]any{"name": "", "price": "1.00", "quantity": 1}},
		{"negative price", map[string]any{"name": "A", "price": "-1", "quantity": 1}},
		{"three decimals", map[string]any{"name": "A", "price": "1.005", "quantity": 1}},
		{"negative quantity", map[string]any{"name": "A", "price": "1", "quantity": -1}},
		{"malformed json", `{"name": "A",`},
		{"unknown field", map[string]any{"name": "A", "price": "1", "color": "red"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, h, http.MethodPost, "/api/v1/products", tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products", nil)
	assert.Empty(t, decode[[]ProductResponse](t, rec))
}

func TestAPI_PriceAcceptsJSONNumber(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/products", `{"name":"Gadget","price":12.5,"quantity":1}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "12.50", decode[ProductResponse](t, rec).Price)
}

func TestAPI_UpdateAndDelete(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)

	rec := doJSON(t, h, http.MethodPut, "/api/v1/products/"+widget.ID, map[string]any{
		"name": "Widget XL", "price": "12.00", "quantity": 9, "description": "bigger",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[ProductResponse](t, rec)
	assert.Equal(t, "Widget XL", updated.Name)
	assert.NotNil(t, updated.UpdatedAt)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/products/missing", map[string]any{"name": "X", "price": "1", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/products/"+widget.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/products/"+widget.ID, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products/"+widget.ID, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_SaleValidation(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": widget.ID, "quantity": 0})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": "nope", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_SaleTotalOverflowIsRejected(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Yacht", "price": "1000000000", "quantity": 2_000_000_000,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	yacht := decode[ProductResponse](t, rec)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": yacht.ID, "quantity": 1_000_000_000})
	assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = doJSON(t, h, http.MethodGet, "/api/v1/products/"+yacht.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(2_000_000_000), decode[ProductResponse](t, rec).Quantity)
}

func TestAPI_MalformedProductIDIsNotFound(t *testing.T) {
	h := newTestAPI(t, nil)

	rec := doJSON(t, h, http.MethodGet, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/products/abc", map[string]any{"name": "X", "price": "1", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = doJSON(t, h, http.MethodDelete, "/api/v1/products/abc", nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": "abc", "quantity": 1})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestAPI_DashboardAndGoal(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)
	doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": widget.ID, "quantity": 3})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/goal", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "0.00", decode[GoalResponse](t, rec).Amount)

	rec = doJSON(t, h, http.MethodPut, "/api/v1/goal", map[string]any{"amount": "60.00"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	for _, bad := range []string{"abc", "-5", "1.234"} {
		rec = doJSON(t, h, http.MethodPut, "/api/v1/goal", map[string]any{"amount": bad})
		assert.Equal(t, http.StatusBadRequest, rec.Code, bad)
		assert.Equal(t, e.ErrInvalidGoal.Error(), decode[ErrorResponse](t, rec).Message)
	}

	rec = doJSON(t, h, http.MethodGet, "/api/v1/dashboard", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[DashboardResponse](t, rec)
	assert.Equal(t, "30.00", dash.TotalRevenue)
	assert.Equal(t, int64(3), dash.TotalUnitsSold)
	assert.Equal(t, 1, dash.ProductCount)
	assert.Equal(t, 1, dash.LowStockCount)
	assert.Equal(t, "60.00", dash.Goal)
	assert.InDelta(t, 50.0, dash.GoalProgressPercent, 0.001)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/dashboard?period=month", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "month", decode[DashboardResponse](t, rec).Period)

	rec = doJSON(t, h, http.MethodGet, "/api/v1/dashboard?period=year", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAPI_ExportSales(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)
	doJSON(t, h, http.MethodPost, "/api/v1/sales", map[string]any{"product_id": widget.ID, "quantity": 1})

	rec := doJSON(t, h, http.MethodGet, "/api/v1/sales/export", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, xlsxContentType, rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), ".xlsx")
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("PK")))
}

func TestAPI_Insights(t *testing.T) {
	rec := doJSON(t, newTestAPI(t, nil), http.MethodPost, "/api/v1/insights", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, newTestAPI(t, stubGenerator{err: errors.New("quota exceeded")}), http.MethodPost, "/api/v1/insights", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, newTestAPI(t, stubGenerator{text: "Restock soon."}), http.MethodPost, "/api/v1/insights", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := decode[InsightResponse](t, rec)
	assert.Equal(t, "Restock soon.", res.Text)
	assert.Equal(t, "stub", res.Model)
}

func TestAPI_UploadImageWithoutStorage(t *testing.T) {
	h := newTestAPI(t, nil)
	widget := createWidget(t, h)

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("image", "a.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("\x89PNG\r\n\x1a\n0000"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products/"+widget.ID+"/image", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/v1/products/"+widget.ID+"/image", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestToHTTPResponse(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{e.NewInsufficientStockError(2, 3), http.StatusConflict},
		{e.ErrDuplicateRequest, http.StatusConflict},
		{e.Wrap("op", e.ErrProductNotFound), http.StatusNotFound},
		{e.ErrInvalidGoal, http.StatusBadRequest},
		{e.ErrInvalidQuantity, http.StatusBadRequest},
		{e.ErrAmountOverflow, http.StatusBadRequest},
		{e.Unavailable(errors.New("timeout")), http.StatusServiceUnavailable},
		{e.Persistence(errors.New("disk full")), http.StatusInternalServerError},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		code, _ := ToHTTPResponse(tt.err)
		assert.Equal(t, tt.code, code, tt.err.Error())
	}
}
