package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusCompleted OrderStatus = "completed"
	StatusCancelled OrderStatus = "cancelled"
)

// CanTransition reports whether an admin status change is allowed.
// Orders only ever leave pending; completed and cancelled are terminal.
func CanTransition(from, to OrderStatus) bool {
	if from != StatusPending {
		return false
	}
	return to == StatusCompleted || to == StatusCancelled
}

// OrderItem is a snapshot taken at commit time. Name, PriceAtPurchase and
// ActivationCodes are frozen forever, even if the product changes later.
type OrderItem struct {
	ProductID       string          `json:"productId"`
	Name            string          `json:"name"`
	PriceAtPurchase decimal.Decimal `json:"priceAtPurchase"`
	Quantity        int             `json:"quantity"`
	ActivationCodes []string        `json:"activationCodes"`
}

type Order struct {
	ID        string          `json:"id"`
	UserID    string          `json:"userId"`
	Products  []OrderItem     `json:"products"`
	Status    OrderStatus     `json:"status"`
	Total     decimal.Decimal `json:"total"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}
