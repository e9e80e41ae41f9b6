package usecase

import "context"

type ProductUC interface {
	AddProduct(ctx context.Context, req *ProductReq) (*ProductInfo, error)
	UpdateProduct(ctx context.Context, id string, req *ProductReq) (*ProductInfo, error)
	DeleteProduct(ctx context.Context, id string) error
	GetProduct(ctx context.Context, id string) (*ProductInfo, error)
	ListProducts(ctx context.Context) ([]ProductInfo, error)
	UploadProductImage(ctx context.Context, id string, image *ProductImage) (*ProductInfo, error)
}

type SaleUC interface {
	RecordSale(ctx context.Context, req *RecordSaleReq) (*SaleInfo, error)
	ListSales(ctx context.Context) ([]SaleInfo, error)
	ExportSales(ctx context.Context) ([]byte, error)
}

type ReportUC interface {
	Dashboard(ctx context.Context, period string) (*DashboardRes, error)
	GetGoal(ctx context.Context) (*GoalInfo, error)
	SetGoal(ctx context.Context, amount string) (*GoalInfo, error)
}

type InsightUC interface {
	GenerateInsights(ctx context.Context) (*InsightRes, error)
}
