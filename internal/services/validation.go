package services

import (
	"fmt"

	"keyshop/internal/apperr"
)

// OrderItemInput is one line item of an incoming order. Quantity is optional
// and defaults to 1 when absent.
type OrderItemInput struct {
	ProductID string `json:"productId"`
	Quantity  *int   `json:"quantity,omitempty"`
}

func (it OrderItemInput) quantity() int {
	if it.Quantity == nil {
		return 1
	}
	return *it.Quantity
}

const (
	minRating        = 1
	maxRating        = 5
	minCommentLength = 3
	maxCommentLength = 1000
)

func ValidateOrderItems(items []OrderItemInput) error {
	if len(items) == 0 {
		return apperr.New(apperr.InvalidInput, "order has no items")
	}
	for i, it := range items {
		if it.ProductID == "" {
			return apperr.Newf(apperr.InvalidInput, "item %d has no product", i)
		}
		if it.Quantity != nil && *it.Quantity < 1 {
			return apperr.Newf(apperr.InvalidInput, "item %d has invalid quantity %d", i, *it.Quantity)
		}
	}
	return nil
}

func ValidateReview(rating int, comment string) error {
	if rating < minRating || rating > maxRating {
		return apperr.Newf(apperr.InvalidInput, "rating must be between %d and %d", minRating, maxRating)
	}
	if len(comment) < minCommentLength || len(comment) > maxCommentLength {
		return apperr.New(apperr.InvalidInput,
			fmt.Sprintf("comment length must be between %d and %d characters", minCommentLength, maxCommentLength))
	}
	return nil
}
