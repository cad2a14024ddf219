package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User budget is an internal ledger, never negative. It is mutated only by
// the admin budget-set action and the order commit debit.
type User struct {
	ID        string          `json:"id"`
	Role      string          `json:"role"`
	Budget    decimal.Decimal `json:"budget"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// Token maps a hashed bearer token to the identity it authenticates.
type Token struct {
	UserID string `json:"userId"`
}
