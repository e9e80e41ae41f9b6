package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/money"
)

// InsightUseCase формирует текстовый отчёт о продажах с помощью языковой модели.
// Состояние хранилища не изменяется.
type InsightUseCase struct {
	productRepo       ProductRepository
	saleRepo          SaleRepository
	generator         InsightGenerator // nil, если ключ API не задан
	logger            logger.Logger
	lowStockThreshold int64
}

func NewInsightUC(
	productRepo ProductRepository,
	saleRepo SaleRepository,
	generator InsightGenerator,
	logger logger.Logger,
	lowStockThreshold int64,
) *InsightUseCase {
	return &InsightUseCase{
		productRepo:       productRepo,
		saleRepo:          saleRepo,
		generator:         generator,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

func (i *InsightUseCase) GenerateInsights(ctx context.Context) (*InsightRes, error) {
	const op = "InsightUseCase.GenerateInsights"

	if i.generator == nil {
		return nil, e.Wrap(op, e.ErrServiceUnavailable)
	}

	products, err := i.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sales, err := i.saleRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	text, err := i.generator.GenerateText(ctx, BuildInsightPrompt(products, sales, i.lowStockThreshold))
	if err != nil {
		i.logger.Errorf(err, "%s: insight generation failed", op)
		return nil, e.Wrap(op, e.Unavailable(err))
	}

	return &InsightRes{
		Text:        text,
		Model:       i.generator.Model(),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// BuildInsightPrompt собирает промпт со списком товаров и продаж.
// Для продаж удалённых товаров подставляется идентификатор товара.
func BuildInsightPrompt(products []domain.Product, sales []domain.Sale, lowStockThreshold int64) string {
	var productLines strings.Builder
	for _, p := range products {
		fmt.Fprintf(&productLines, "- %s (ID: %s): %d in stock, price: %s\n", p.Name, p.ID, p.Quantity, money.Format(p.Price))
	}

	index := domain.IndexProducts(products)
	var saleLines strings.Builder
	for _, s := range sales {
		name := fmt.Sprintf("product ID %s", s.ProductID)
		if p, ok := index[s.ProductID]; ok {
			name = p.Name
		}
		fmt.Fprintf(&saleLines, "- Sold %d unit(s) of %s for %s on %s\n",
			s.QuantitySold, name, money.Format(s.TotalPrice), s.CreatedAt.UTC().Format(time.DateOnly))
	}

	productDetails := strings.TrimSpace(productLines.String())
	if productDetails == "" {
		productDetails = "No products in stock."
	}
	saleDetails := strings.TrimSpace(saleLines.String())
	if saleDetails == "" {
		saleDetails = "No sales recorded."
	}

	return fmt.Sprintf(`You are a business assistant specialized in sales data analysis for small business owners.
Analyze the following data from a small business and provide actionable insights.

**Products in stock:**
%s

**Sales history:**
%s

**Your task:**
Based on the data above, produce a concise report with the following sections:
1. **Performance summary:** a short summary of total sales and the overall state of the business.
2. **Best sellers:** identify the best performing products.
3. **Low stock:** list the products that need restocking urgently (%d units or fewer).
4. **Strategic suggestions:** give 2-3 clear, practical suggestions to increase sales or improve inventory management, for example promotions for slow movers, bundles of popular products or price adjustments.

Format the answer clearly with a heading for each section. Keep the language encouraging and direct.
`, productDetails, saleDetails, lowStockThreshold)
}
