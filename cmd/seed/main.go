// Seeds the store with a small catalog, an admin, a regular user and their
// bearer tokens. Safe to re-run: existing documents are overwritten by id.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	httpctrl "keyshop/internal/controllers/http"
	"keyshop/internal/config"
	"keyshop/internal/domain"
	"keyshop/internal/store"
	"keyshop/internal/store/mysql"
)

type seedProduct struct {
	name  string
	slug  string
	typ   string
	price string
	stock int
}

var products = []seedProduct{
	{"Starfall Chronicles", "starfall-chronicles", "game", "29.99", 25},
	{"Neon Drift Racer", "neon-drift-racer", "game", "14.50", 40},
	{"Dungeon Forge", "dungeon-forge", "game", "49.99", 10},
	{"Mech Keyboard Pro", "mech-keyboard-pro", "peripheral", "89.00", 8},
	{"Precision Mouse X", "precision-mouse-x", "peripheral", "39.90", 15},
}

func main() {
	_ = config.Load() // loads .env for the MYSQL_* variables

	st, err := mysql.OpenFromEnv()
	if err != nil {
		log.Fatalf("store: connect: %v", err)
	}

	ctx := context.Background()
	now := time.Now().UTC()

	for i, sp := range products {
		price, err := decimal.NewFromString(sp.price)
		if err != nil {
			log.Fatalf("bad seed price %q: %v", sp.price, err)
		}
		codes := make([]string, sp.stock)
		for j := range codes {
			codes[j] = uuid.NewString()
		}
		p := domain.Product{
			ID:              fmt.Sprintf("prod-%03d", i+1),
			Name:            sp.name,
			Slug:            sp.slug,
			Type:            sp.typ,
			Price:           price,
			Stock:           domain.Stock{Total: sp.stock},
			ActivationCodes: codes,
			Metadata:        domain.Metadata{CreatedAt: now, UpdatedAt: now},
		}
		if err := put(ctx, st, store.CollectionProducts, p.ID, &p); err != nil {
			log.Fatalf("seed product %s: %v", p.ID, err)
		}
	}

	admin := domain.User{ID: "admin", Role: domain.RoleAdmin, Budget: decimal.Zero, UpdatedAt: now}
	user := domain.User{ID: "demo-user", Role: domain.RoleUser, Budget: decimal.RequireFromString("100.00"), UpdatedAt: now}
	for _, u := range []domain.User{admin, user} {
		if err := put(ctx, st, store.CollectionUsers, u.ID, &u); err != nil {
			log.Fatalf("seed user %s: %v", u.ID, err)
		}
	}

	tokens := map[string]string{
		"admin-token": admin.ID,
		"demo-token":  user.ID,
	}
	for plain, userID := range tokens {
		tok := domain.Token{UserID: userID}
		if err := put(ctx, st, store.CollectionTokens, httpctrl.HashToken(plain), &tok); err != nil {
			log.Fatalf("seed token for %s: %v", userID, err)
		}
		log.Printf("token for %s: %s", userID, plain)
	}

	log.Printf("Seeded %d products, 2 users, %d tokens", len(products), len(tokens))
}

func put(ctx context.Context, st store.Store, collection, id string, doc any) error {
	return st.RunTransaction(ctx, func(tx store.Tx) error {
		// Read first so an existing document is overwritten instead of
		// colliding on insert.
		var existing map[string]any
		if err := tx.Get(ctx, collection, id, &existing); err != nil && !errors.Is(err, store.ErrNotFound) {
			return err
		}
		return tx.Set(collection, id, doc)
	})
}
