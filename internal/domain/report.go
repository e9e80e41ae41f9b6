package domain

import (
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/DRSN-tech/pos-backend/pkg/money"
)

// DefaultLowStockThreshold — остаток, начиная с которого товар считается заканчивающимся.
const DefaultLowStockThreshold int64 = 5

// Period ограничивает продажи, которые учитываются в выручке и прогрессе цели.
type Period string

const (
	PeriodAll   Period = "all"   // все продажи за всё время
	PeriodMonth Period = "month" // текущий календарный месяц (UTC)
)

func ParsePeriod(s string) (Period, error) {
	switch Period(s) {
	case "", PeriodAll:
		return PeriodAll, nil
	case PeriodMonth:
		return PeriodMonth, nil
	default:
		return "", e.ErrInvalidPeriod
	}
}

// Contains сообщает, попадает ли момент t в период относительно now.
func (p Period) Contains(t, now time.Time) bool {
	if p != PeriodMonth {
		return true
	}
	t, now = t.UTC(), now.UTC()
	return t.Year() == now.Year() && t.Month() == now.Month()
}

// Dashboard — агрегаты для главного экрана.
type Dashboard struct {
	Period              Period
	TotalRevenue        int64
	TotalUnitsSold      int64
	ProductCount        int
	LowStockCount       int
	Goal                int64
	GoalProgressPercent float64
}

// TotalRevenue и TotalUnitsSold насыщаются на math.MaxInt64 вместо переполнения.
func TotalRevenue(sales []Sale) int64 {
	var total int64
	for _, s := range sales {
		total = money.SaturatingAdd(total, s.TotalPrice)
	}
	return total
}

func TotalUnitsSold(sales []Sale) int64 {
	var total int64
	for _, s := range sales {
		total = money.SaturatingAdd(total, s.QuantitySold)
	}
	return total
}

func LowStockCount(products []Product, threshold int64) int {
	count := 0
	for _, p := range products {
		if p.IsLowStock(threshold) {
			count++
		}
	}
	return count
}

// GoalProgressPercent возвращает revenue/goal*100, ограниченное отрезком [0, 100].
// Для goal <= 0 прогресс равен 0.
func GoalProgressPercent(revenue, goal int64) float64 {
	if goal <= 0 {
		return 0
	}
	return min(max(money.Percent(revenue, goal), 0), 100)
}

// FilterSales оставляет продажи, попавшие в период.
func FilterSales(sales []Sale, period Period, now time.Time) []Sale {
	if period != PeriodMonth {
		return sales
	}

	filtered := make([]Sale, 0, len(sales))
	for _, s := range sales {
		if period.Contains(s.CreatedAt, now) {
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Summarize считает все показатели дашборда заново по текущим спискам.
func Summarize(products []Product, sales []Sale, goal int64, threshold int64, period Period, now time.Time) Dashboard {
	scoped := FilterSales(sales, period, now)
	revenue := TotalRevenue(scoped)

	return Dashboard{
		Period:              period,
		TotalRevenue:        revenue,
		TotalUnitsSold:      TotalUnitsSold(scoped),
		ProductCount:        len(products),
		LowStockCount:       LowStockCount(products, threshold),
		Goal:                goal,
		GoalProgressPercent: GoalProgressPercent(revenue, goal),
	}
}
