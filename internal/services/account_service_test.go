package services

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
)

func TestAccountService_EnsureAccount(t *testing.T) {
	st := newTestStore()
	svc := NewAccountService(st)

	assert.NoError(t, svc.EnsureAccount(context.Background(), "fresh"))

	u := getUser(t, st, "fresh")
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.Budget.IsZero())

	// A second sync leaves the account alone.
	seedUser(t, st, "fresh", "25.00")
	assert.NoError(t, svc.EnsureAccount(context.Background(), "fresh"))
	assert.True(t, getUser(t, st, "fresh").Budget.Equal(decimal.RequireFromString("25.00")))
}

func TestAccountService_SetBudget(t *testing.T) {
	st := newTestStore()
	seedUser(t, st, "u1", "10.00")
	svc := NewAccountService(st)

	u, err := svc.SetBudget(context.Background(), "u1", decimal.RequireFromString("99.999"))
	assert.NoError(t, err)
	assert.True(t, u.Budget.Equal(decimal.RequireFromString("100.00")), "budget = %s", u.Budget)

	_, err = svc.SetBudget(context.Background(), "u1", decimal.RequireFromString("-1"))
	assert.Equal(t, apperr.InvalidInput, apperr.KindOf(err))

	_, err = svc.SetBudget(context.Background(), "ghost", decimal.NewFromInt(5))
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}

func TestAccountService_GetAccount(t *testing.T) {
	st := newTestStore()
	seedUser(t, st, "u1", "42.00")
	svc := NewAccountService(st)

	u, err := svc.GetAccount(context.Background(), "u1")
	assert.NoError(t, err)
	assert.Equal(t, "u1", u.ID)

	_, err = svc.GetAccount(context.Background(), "ghost")
	assert.Equal(t, apperr.NotFound, apperr.KindOf(err))
}
