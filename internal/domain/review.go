package domain

import "time"

// Review is keyed by (ProductID, UserID): at most one review per user per
// product. CreatedAt is set once; UpdatedAt refreshes on every write.
type Review struct {
	ProductID string    `json:"productId"`
	UserID    string    `json:"userId"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
