package http

import (
	"github.com/shopspring/decimal"

	"keyshop/internal/services"
)

type CreateOrderRequest struct {
	Products []services.OrderItemInput `json:"products"`
}

type ReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type SetBudgetRequest struct {
	Budget decimal.Decimal `json:"budget"`
}

type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}
