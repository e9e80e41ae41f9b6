package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/logger"
	"github.com/DRSN-tech/pos-backend/pkg/money"
)

// ReportUseCase считает показатели дашборда и управляет целью по выручке.
type ReportUseCase struct {
	productRepo       ProductRepository
	saleRepo          SaleRepository
	goalRepo          GoalRepository
	logger            logger.Logger
	lowStockThreshold int64
}

func NewReportUC(
	productRepo ProductRepository,
	saleRepo SaleRepository,
	goalRepo GoalRepository,
	logger logger.Logger,
	lowStockThreshold int64,
) *ReportUseCase {
	return &ReportUseCase{
		productRepo:       productRepo,
		saleRepo:          saleRepo,
		goalRepo:          goalRepo,
		logger:            logger,
		lowStockThreshold: lowStockThreshold,
	}
}

// Dashboard пересчитывает все показатели по текущему состоянию хранилища.
func (r *ReportUseCase) Dashboard(ctx context.Context, period string) (*DashboardRes, error) {
	const op = "ReportUseCase.Dashboard"

	p, err := domain.ParsePeriod(period)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	products, err := r.productRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	sales, err := r.saleRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	goal, err := r.goalRepo.Get(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	dashboard := domain.Summarize(products, sales, goal.Amount, r.lowStockThreshold, p, time.Now().UTC())
	return &DashboardRes{Dashboard: dashboard, LowStockThreshold: r.lowStockThreshold}, nil
}

func (r *ReportUseCase) GetGoal(ctx context.Context) (*GoalInfo, error) {
	const op = "ReportUseCase.GetGoal"

	goal, err := r.goalRepo.Get(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return NewGoalInfo(goal), nil
}

// SetGoal перезаписывает цель. Нечисловые и отрицательные значения отклоняются с e.ErrInvalidGoal.
func (r *ReportUseCase) SetGoal(ctx context.Context, amount string) (*GoalInfo, error) {
	const op = "ReportUseCase.SetGoal"

	cents, err := money.ParseCents(amount)
	if err != nil {
		return nil, e.Wrap(op, fmt.Errorf("%w: %w", e.ErrInvalidGoal, err))
	}

	goal, err := domain.NewGoal(cents, time.Now().UTC())
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	if err := r.goalRepo.Save(ctx, goal); err != nil {
		r.logger.Errorf(err, "%s: failed to save goal", op)
		return nil, e.Wrap(op, err)
	}

	r.logger.Infof("Revenue goal set to %s", money.Format(goal.Amount))
	return NewGoalInfo(goal), nil
}
