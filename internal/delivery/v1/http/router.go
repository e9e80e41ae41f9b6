package http

import (
	"net/http"

	_ "github.com/DRSN-tech/pos-backend/docs" // регистрация swagger-спецификации
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

// UseCases — зависимости, которые обслуживает HTTP API.
type UseCases struct {
	Product      usecase.ProductUC
	Sale         usecase.SaleUC
	Report       usecase.ReportUC
	Insight      usecase.InsightUC
	MaxImageSize int64
}

func (r *Router) Init(uc UseCases) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.RealIP)
	r.router.Use(middleware.Recoverer)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerProductRoutes(v1, NewProductHandler(uc.Product, r.logger, uc.MaxImageSize))
		registerSaleRoutes(v1, NewSaleHandler(uc.Sale, r.logger))
		registerReportRoutes(v1, NewReportHandler(uc.Report, uc.Insight, r.logger))
	})
}

func (r *Router) Handler() http.Handler {
	return r.router
}

func registerProductRoutes(router chi.Router, prHandler *ProductHandler) {
	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.addProduct)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
		pr.Post("/{id}/image", prHandler.uploadImage)
	})
}

func registerSaleRoutes(router chi.Router, saleHandler *SaleHandler) {
	router.Route("/sales", func(sr chi.Router) {
		sr.Get("/", saleHandler.listSales)
		sr.Post("/", saleHandler.recordSale)
		sr.Get("/export", saleHandler.exportSales)
	})
}

func registerReportRoutes(router chi.Router, reportHandler *ReportHandler) {
	router.Get("/dashboard", reportHandler.dashboard)
	router.Get("/goal", reportHandler.getGoal)
	router.Put("/goal", reportHandler.setGoal)
	router.Post("/insights", reportHandler.insights)
}
