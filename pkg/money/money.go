// Package money переводит денежные суммы между строковым десятичным видом и
// целым числом минимальных единиц (центов/копеек).
package money

import (
	"math"
	"strings"

	"github.com/DRSN-tech/pos-backend/pkg/e"
	"github.com/shopspring/decimal"
)

// MaxAmount — верхняя граница суммы: 1 млрд в основной валюте.
var MaxAmount = decimal.NewFromInt(1_000_000_000)

var hundred = decimal.NewFromInt(100)

// ParseCents converts a string like "599.99" or "600" to int64 cents.
// Returns error if:
// - invalid format or empty
// - more than 2 decimal places
// - negative value
// - exceeds MaxAmount
func ParseCents(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if d.IsNegative() || d.GreaterThan(MaxAmount) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Mul(hundred).Round(0).IntPart(), nil
}

// Format возвращает сумму в виде "1234.50".
func Format(cents int64) string {
	return decimal.New(cents, -2).StringFixed(2)
}

// Percent возвращает part/whole*100 с точностью до двух знаков.
func Percent(part, whole int64) float64 {
	if whole == 0 {
		return 0
	}
	return decimal.NewFromInt(part).
		Mul(hundred).
		Div(decimal.NewFromInt(whole)).
		Round(2).
		InexactFloat64()
}

// Mul возвращает price*quantity или ErrAmountOverflow, если произведение не помещается в int64.
// Оба множителя должны быть неотрицательными.
func Mul(price, quantity int64) (int64, error) {
	if price < 0 || quantity < 0 {
		return 0, e.ErrAmountOverflow
	}
	if quantity != 0 && price > math.MaxInt64/quantity {
		return 0, e.ErrAmountOverflow
	}
	return price * quantity, nil
}

// SaturatingAdd складывает неотрицательные суммы, останавливаясь на math.MaxInt64.
func SaturatingAdd(a, b int64) int64 {
	if b > 0 && a > math.MaxInt64-b {
		return math.MaxInt64
	}
	return a + b
}
