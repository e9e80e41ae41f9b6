package converter

import (
	"time"

	"github.com/DRSN-tech/pos-backend/internal/usecase"
)

// ProductModel представляет запись таблицы products в PostgreSQL.
type ProductModel struct {
	ID          string     `db:"id"`
	Name        string     `db:"name"`
	Price       int64      `db:"price"`
	Quantity    int64      `db:"quantity"`
	Description string     `db:"description"`
	ImageKey    *string    `db:"image_key"`
	CreatedAt   time.Time  `db:"created_at"`
	UpdatedAt   *time.Time `db:"updated_at"`
}

// SaleModel представляет запись таблицы sales в PostgreSQL.
type SaleModel struct {
	ID           string    `db:"id"`
	ProductID    string    `db:"product_id"`
	QuantitySold int64     `db:"quantity_sold"`
	TotalPrice   int64     `db:"total_price"`
	CreatedAt    time.Time `db:"created_at"`
}

// GoalModel представляет единственную запись таблицы revenue_goal.
type GoalModel struct {
	Amount    int64      `db:"amount"`
	UpdatedAt *time.Time `db:"updated_at"`
}

// OutboxEventModel представляет запись таблицы outbox_events.
type OutboxEventModel struct {
	ID          int64                `db:"id"`
	EventID     string               `db:"event_id"`
	EventType   string               `db:"event_type"`
	ProductID   string               `db:"product_id"`
	Payload     []byte               `db:"payload"`
	Status      usecase.OutboxStatus `db:"status"`
	Attempts    int                  `db:"attempts"`
	CreatedAt   time.Time            `db:"created_at"`
	ProcessedAt *time.Time           `db:"processed_at"`
}
