package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/money"
)

// Amount — денежная сумма в запросе. Принимает и строку "10.00", и JSON-число 10.00;
// число сохраняется как исходный литерал, без округления через float64.
type Amount string

func (a *Amount) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*a = Amount(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number or a decimal string", e.ErrInvalidPrice)
	}
	*a = Amount(n.String())
	return nil
}

type ProductRequest struct {
	Name        string `json:"name"`
	Price       Amount `json:"price" swaggertype:"string" example:"10.00"`
	Quantity    int64  `json:"quantity"`
	Description string `json:"description"`
}

type ProductResponse struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Price       string     `json:"price" example:"10.00"`
	Quantity    int64      `json:"quantity"`
	Description string     `json:"description"`
	ImageKey    string     `json:"image_key,omitempty"`
	LowStock    bool       `json:"low_stock"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}

type RecordSaleRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int64  `json:"quantity"`
}

type SaleResponse struct {
	ID           string    `json:"id"`
	ProductID    string    `json:"product_id"`
	ProductName  string    `json:"product_name"`
	QuantitySold int64     `json:"quantity_sold"`
	TotalPrice   string    `json:"total_price" example:"30.00"`
	CreatedAt    time.Time `json:"created_at"`
}

type DashboardResponse struct {
	Period              string  `json:"period"`
	TotalRevenue        string  `json:"total_revenue"`
	TotalUnitsSold      int64   `json:"total_units_sold"`
	ProductCount        int     `json:"product_count"`
	LowStockCount       int     `json:"low_stock_count"`
	LowStockThreshold   int64   `json:"low_stock_threshold"`
	Goal                string  `json:"goal"`
	GoalProgressPercent float64 `json:"goal_progress_percent"`
}

type GoalRequest struct {
	Amount Amount `json:"amount" swaggertype:"string" example:"5000.00"`
}

type GoalResponse struct {
	Amount    string     `json:"amount"`
	UpdatedAt *time.Time `json:"updated_at,omitempty"`
}

type InsightResponse struct {
	Text        string    `json:"text"`
	Model       string    `json:"model"`
	GeneratedAt time.Time `json:"generated_at"`
}

func (p ProductRequest) toUseCase() *usecase.ProductReq {
	return usecase.NewProductReq(p.Name, string(p.Price), p.Quantity, p.Description)
}

func newProductResponse(info usecase.ProductInfo) ProductResponse {
	return ProductResponse{
		ID:          info.ID,
		Name:        info.Name,
		Price:       money.Format(info.Price),
		Quantity:    info.Quantity,
		Description: info.Description,
		ImageKey:    info.ImageKey,
		LowStock:    info.LowStock,
		CreatedAt:   info.CreatedAt,
		UpdatedAt:   info.UpdatedAt,
	}
}

func newArrProductResponse(infos []usecase.ProductInfo) []ProductResponse {
	result := make([]ProductResponse, 0, len(infos))
	for _, info := range infos {
		result = append(result, newProductResponse(info))
	}
	return result
}

func newSaleResponse(info usecase.SaleInfo) SaleResponse {
	return SaleResponse{
		ID:           info.ID,
		ProductID:    info.ProductID,
		ProductName:  info.ProductName,
		QuantitySold: info.QuantitySold,
		TotalPrice:   money.Format(info.TotalPrice),
		CreatedAt:    info.CreatedAt,
	}
}

func newArrSaleResponse(infos []usecase.SaleInfo) []SaleResponse {
	result := make([]SaleResponse, 0, len(infos))
	for _, info := range infos {
		result = append(result, newSaleResponse(info))
	}
	return result
}

func newDashboardResponse(res *usecase.DashboardRes) DashboardResponse {
	return DashboardResponse{
		Period:              string(res.Period),
		TotalRevenue:        money.Format(res.TotalRevenue),
		TotalUnitsSold:      res.TotalUnitsSold,
		ProductCount:        res.ProductCount,
		LowStockCount:       res.LowStockCount,
		LowStockThreshold:   res.LowStockThreshold,
		Goal:                money.Format(res.Goal),
		GoalProgressPercent: res.GoalProgressPercent,
	}
}

func newGoalResponse(info *usecase.GoalInfo) GoalResponse {
	return GoalResponse{
		Amount:    money.Format(info.Amount),
		UpdatedAt: info.UpdatedAt,
	}
}

func newInsightResponse(res *usecase.InsightRes) InsightResponse {
	return InsightResponse{
		Text:        res.Text,
		Model:       res.Model,
		GeneratedAt: res.GeneratedAt,
	}
}
