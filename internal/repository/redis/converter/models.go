package converter

import "time"

type ProductInfoRedisModel struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Price       int64      `json:"price"`
	Quantity    int64      `json:"quantity"`
	Description string     `json:"description,omitempty"`
	ImageKey    string     `json:"image_key,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   *time.Time `json:"updated_at,omitempty"`
}
