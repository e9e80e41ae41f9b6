package usecase_test

import (
	"context"
	"testing"

	"github.com/DRSN-tech/pos-backend/internal/domain"
	"github.com/DRSN-tech/pos-backend/internal/usecase"
	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportUC(f *fixture) *usecase.ReportUseCase {
	return usecase.NewReportUC(f.products, f.sales, f.goals, f.log, domain.DefaultLowStockThreshold)
}

func TestReportUseCase_Dashboard(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := newReportUC(f)
	widget := addWidget(t, f)
	_, err := newProductUC(f, nil).AddProduct(ctx, usecase.NewProductReq("Bulk", "1.00", 100, ""))
	require.NoError(t, err)

	_, err = newSaleUC(f).RecordSale(ctx, usecase.NewRecordSaleReq(widget.ID, 3, ""))
	require.NoError(t, err)
	_, err = uc.SetGoal(ctx, "60.00")
	require.NoError(t, err)

	dash, err := uc.Dashboard(ctx, "")
	require.NoError(t, err)

	assert.Equal(t, domain.PeriodAll, dash.Period)
	assert.Equal(t, int64(3000), dash.TotalRevenue)
	assert.Equal(t, int64(3), dash.TotalUnitsSold)
	assert.Equal(t, 2, dash.ProductCount)
	assert.Equal(t, 1, dash.LowStockCount)
	assert.Equal(t, int64(6000), dash.Goal)
	assert.Equal(t, 50.0, dash.GoalProgressPercent)
	assert.Equal(t, domain.DefaultLowStockThreshold, dash.LowStockThreshold)

	monthly, err := uc.Dashboard(ctx, "month")
	require.NoError(t, err)
	assert.Equal(t, int64(3000), monthly.TotalRevenue)

	_, err = uc.Dashboard(ctx, "decade")
	assert.ErrorIs(t, err, e.ErrInvalidPeriod)
}

func TestReportUseCase_DashboardWithoutGoal(t *testing.T) {
	f := newFixture(t)

	dash, err := newReportUC(f).Dashboard(context.Background(), "all")
	require.NoError(t, err)
	assert.Equal(t, 0.0, dash.GoalProgressPercent)
	assert.Equal(t, int64(0), dash.TotalRevenue)
}

func TestReportUseCase_SetGoal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	uc := newReportUC(f)

	goal, err := uc.GetGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), goal.Amount)

	goal, err = uc.SetGoal(ctx, "5000.50")
	require.NoError(t, err)
	assert.Equal(t, int64(500050), goal.Amount)

	for _, bad := range []string{"", "abc", "-10", "1.234"} {
		_, err := uc.SetGoal(ctx, bad)
		assert.ErrorIs(t, err, e.ErrInvalidGoal, bad)
	}

	goal, err = uc.GetGoal(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(500050), goal.Amount, "rejected values keep the previous goal")
}
