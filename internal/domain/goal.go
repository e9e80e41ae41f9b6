package domain

import (
	"time"

	"github.com/DRSN-tech/pos-backend/pkg/e"
)

// Goal — целевая выручка. Хранится одно значение без истории.
type Goal struct {
	Amount    int64 // в центах
	UpdatedAt *time.Time
}

func NewGoal(amount int64, now time.Time) (*Goal, error) {
	if amount < 0 {
		return nil, e.ErrInvalidGoal
	}
	return &Goal{Amount: amount, UpdatedAt: &now}, nil
}
