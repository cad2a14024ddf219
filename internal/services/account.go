package services

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/shopspring/decimal"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
	"keyshop/internal/store"
)

// debit subtracts amount from a user snapshot read inside the ambient
// transaction. The caller queues the write.
func debit(u *domain.User, amount decimal.Decimal, now time.Time) error {
	if u.Budget.IsNegative() {
		log.Printf("Account %s has a corrupted budget: %s", u.ID, u.Budget)
		return apperr.Newf(apperr.InvalidState, "account %s has a corrupted budget", u.ID)
	}
	if u.Budget.LessThan(amount) {
		return apperr.WithDetails(apperr.InsufficientBudget,
			"insufficient budget",
			map[string]any{
				"budget":  u.Budget,
				"total":   amount,
				"missing": amount.Sub(u.Budget),
			})
	}
	u.Budget = u.Budget.Sub(amount).Round(2)
	u.UpdatedAt = now
	return nil
}

type AccountService struct {
	store store.Store
}

func NewAccountService(st store.Store) *AccountService {
	return &AccountService{store: st}
}

// EnsureAccount creates the account document the first time an authenticated
// identity is seen. Existing accounts are left untouched.
func (s *AccountService) EnsureAccount(ctx context.Context, userID string) error {
	return s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var u domain.User
		err := tx.Get(ctx, store.CollectionUsers, userID, &u)
		if err == nil {
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		u = domain.User{
			ID:        userID,
			Role:      domain.RoleUser,
			Budget:    decimal.Zero,
			UpdatedAt: time.Now().UTC(),
		}
		return tx.Set(store.CollectionUsers, userID, &u)
	})
}

func (s *AccountService) GetAccount(ctx context.Context, userID string) (*domain.User, error) {
	var u domain.User
	if err := s.store.Get(ctx, store.CollectionUsers, userID, &u); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "user %s not found", userID)
		}
		return nil, err
	}
	return &u, nil
}

// SetBudget is the admin budget-set action.
func (s *AccountService) SetBudget(ctx context.Context, userID string, budget decimal.Decimal) (*domain.User, error) {
	if budget.IsNegative() {
		return nil, apperr.New(apperr.InvalidInput, "budget must not be negative")
	}
	var u domain.User
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		if err := tx.Get(ctx, store.CollectionUsers, userID, &u); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Newf(apperr.NotFound, "user %s not found", userID)
			}
			return err
		}
		u.Budget = budget.Round(2)
		u.UpdatedAt = time.Now().UTC()
		return tx.Set(store.CollectionUsers, userID, &u)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.New(apperr.Conflict, "budget update could not be committed, try again")
		}
		return nil, err
	}
	return &u, nil
}
