package memory

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"golang.org/x/sync/errgroup"

	"keyshop/internal/store"
)

type counter struct {
	N int `json:"n"`
}

func TestStore_GetSetDelete(t *testing.T) {
	st := New()
	ctx := context.Background()

	var missing counter
	assert.ErrorIs(t, st.Get(ctx, "counters", "c1", &missing), store.ErrNotFound)

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		return tx.Set("counters", "c1", &counter{N: 7})
	})
	assert.NoError(t, err)

	var got counter
	assert.NoError(t, st.Get(ctx, "counters", "c1", &got))
	assert.Equal(t, 7, got.N)

	assert.NoError(t, st.Delete(ctx, "counters", "c1"))
	assert.ErrorIs(t, st.Get(ctx, "counters", "c1", &got), store.ErrNotFound)
	assert.ErrorIs(t, st.Delete(ctx, "counters", "c1"), store.ErrNotFound)
}

func TestStore_ListKeepsInsertionOrder(t *testing.T) {
	st := New()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("c%d", i)
		err := st.RunTransaction(ctx, func(tx store.Tx) error {
			return tx.Set("counters", id, &counter{N: i})
		})
		assert.NoError(t, err)
	}

	docs, err := st.List(ctx, "counters")
	assert.NoError(t, err)
	assert.Len(t, docs, 5)
	for i, doc := range docs {
		assert.Equal(t, fmt.Sprintf("c%d", i), doc.ID)
	}

	docs, err = st.List(ctx, "unknown")
	assert.NoError(t, err)
	assert.Empty(t, docs)
}

func TestStore_TransactionReadsItsOwnWrites(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		if err := tx.Set("counters", "c1", &counter{N: 1}); err != nil {
			return err
		}
		var c counter
		if err := tx.Get(ctx, "counters", "c1", &c); err != nil {
			return err
		}
		c.N++
		return tx.Set("counters", "c1", &c)
	})
	assert.NoError(t, err)

	var got counter
	assert.NoError(t, st.Get(ctx, "counters", "c1", &got))
	assert.Equal(t, 2, got.N)
}

func TestStore_FailedTransactionWritesNothing(t *testing.T) {
	st := New()
	ctx := context.Background()
	boom := errors.New("boom")

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		if err := tx.Set("counters", "c1", &counter{N: 1}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	var got counter
	assert.ErrorIs(t, st.Get(ctx, "counters", "c1", &got), store.ErrNotFound)
}

func TestStore_DeleteInsideTransaction(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		return tx.Set("counters", "c1", &counter{N: 1})
	})
	assert.NoError(t, err)

	err = st.RunTransaction(ctx, func(tx store.Tx) error {
		var c counter
		if err := tx.Get(ctx, "counters", "c1", &c); err != nil {
			return err
		}
		tx.Delete("counters", "c1")
		var gone counter
		return assertNotFound(tx.Get(ctx, "counters", "c1", &gone))
	})
	assert.NoError(t, err)

	var got counter
	assert.ErrorIs(t, st.Get(ctx, "counters", "c1", &got), store.ErrNotFound)
}

func assertNotFound(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return fmt.Errorf("expected not found, got %v", err)
}

func TestStore_ConcurrentIncrementsRetryToCorrectTotal(t *testing.T) {
	st := New()
	ctx := context.Background()

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		return tx.Set("counters", "c1", &counter{})
	})
	assert.NoError(t, err)

	// Contending increments must either retry and land, or fail as a
	// conflict; committed effects never get lost.
	const workers = 4
	applied := 0
	var g errgroup.Group
	results := make([]error, workers)
	for i := 0; i < workers; i++ {
		i := i
		g.Go(func() error {
			results[i] = st.RunTransaction(ctx, func(tx store.Tx) error {
				var c counter
				if err := tx.Get(ctx, "counters", "c1", &c); err != nil {
					return err
				}
				c.N++
				return tx.Set("counters", "c1", &c)
			})
			return nil
		})
	}
	assert.NoError(t, g.Wait())

	for _, err := range results {
		if err == nil {
			applied++
		} else {
			assert.ErrorIs(t, err, store.ErrConflict)
		}
	}

	var got counter
	assert.NoError(t, st.Get(ctx, "counters", "c1", &got))
	assert.Equal(t, applied, got.N)
}

func TestStore_CancelledContext(t *testing.T) {
	st := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := st.RunTransaction(ctx, func(tx store.Tx) error {
		return tx.Set("counters", "c1", &counter{N: 1})
	})
	assert.ErrorIs(t, err, context.Canceled)

	var got counter
	assert.ErrorIs(t, st.Get(context.Background(), "counters", "c1", &got), store.ErrNotFound)
}
