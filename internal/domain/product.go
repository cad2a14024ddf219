package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Stock struct {
	Total int `json:"total"`
}

// RatingSummary is the running aggregate over a product's reviews.
// Avg is always round(Sum/Count, 2), zero while Count is zero.
type RatingSummary struct {
	Count int             `json:"count"`
	Sum   int             `json:"sum"`
	Avg   decimal.Decimal `json:"avg"`
}

type Metadata struct {
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Product invariant: len(ActivationCodes) >= Stock.Total for a product that
// still has allocatable codes. Codes keep insertion order; reservations take
// from the front.
type Product struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Slug            string          `json:"slug,omitempty"`
	Type            string          `json:"type,omitempty"`
	Price           decimal.Decimal `json:"price"`
	Stock           Stock           `json:"stock"`
	ActivationCodes []string        `json:"activationCodes"`
	RatingSummary   RatingSummary   `json:"ratingSummary"`
	Metadata        Metadata        `json:"metadata"`
}
