package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"keyshop/internal/domain"
	"keyshop/internal/store"
	"keyshop/internal/store/memory"
)

func seedUser(t *testing.T, st store.Store, id, budget string) {
	t.Helper()
	u := domain.User{
		ID:        id,
		Role:      domain.RoleUser,
		Budget:    decimal.RequireFromString(budget),
		UpdatedAt: time.Now().UTC(),
	}
	seedDoc(t, st, store.CollectionUsers, id, &u)
}

func seedProduct(t *testing.T, st store.Store, id, name, price string, stock int, codes []string) {
	t.Helper()
	now := time.Now().UTC()
	p := domain.Product{
		ID:              id,
		Name:            name,
		Price:           decimal.RequireFromString(price),
		Stock:           domain.Stock{Total: stock},
		ActivationCodes: codes,
		Metadata:        domain.Metadata{CreatedAt: now, UpdatedAt: now},
	}
	seedDoc(t, st, store.CollectionProducts, id, &p)
}

// seedOrder records a committed purchase so review eligibility checks pass.
func seedOrder(t *testing.T, st store.Store, orderID, userID, productID string) {
	t.Helper()
	now := time.Now().UTC()
	o := domain.Order{
		ID:     orderID,
		UserID: userID,
		Products: []domain.OrderItem{{
			ProductID:       productID,
			Name:            "seeded",
			PriceAtPurchase: decimal.RequireFromString("10.00"),
			Quantity:        1,
			ActivationCodes: []string{"seed-code"},
		}},
		Status:    domain.StatusPending,
		Total:     decimal.RequireFromString("10.00"),
		CreatedAt: now,
		UpdatedAt: now,
	}
	seedDoc(t, st, store.CollectionOrders, orderID, &o)
}

func seedDoc(t *testing.T, st store.Store, collection, id string, doc any) {
	t.Helper()
	err := st.RunTransaction(context.Background(), func(tx store.Tx) error {
		return tx.Set(collection, id, doc)
	})
	if err != nil {
		t.Fatalf("seed %s/%s: %v", collection, id, err)
	}
}

func getUser(t *testing.T, st store.Store, id string) domain.User {
	t.Helper()
	var u domain.User
	if err := st.Get(context.Background(), store.CollectionUsers, id, &u); err != nil {
		t.Fatalf("get user %s: %v", id, err)
	}
	return u
}

func getProduct(t *testing.T, st store.Store, id string) domain.Product {
	t.Helper()
	var p domain.Product
	if err := st.Get(context.Background(), store.CollectionProducts, id, &p); err != nil {
		t.Fatalf("get product %s: %v", id, err)
	}
	return p
}

func newTestStore() *memory.Store {
	return memory.New()
}

func makeCodes(prefix string, n int) []string {
	codes := make([]string, n)
	for i := range codes {
		codes[i] = fmt.Sprintf("%s-%03d", prefix, i+1)
	}
	return codes
}

func qty(n int) *int {
	return &n
}
