package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderCreatedEvent struct {
	OrderID   string          `json:"orderId"`
	UserID    string          `json:"userId"`
	Total     decimal.Decimal `json:"total"`
	Items     int             `json:"items"`
	CreatedAt time.Time       `json:"createdAt"`
}

type ReviewUpsertedEvent struct {
	ProductID string          `json:"productId"`
	UserID    string          `json:"userId"`
	Rating    int             `json:"rating"`
	Avg       decimal.Decimal `json:"avg"`
	Count     int             `json:"count"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
