package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
	rabbit "keyshop/internal/infra/rabbitmq"
	"keyshop/internal/store"
)

type OrderService struct {
	store       store.Store
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
}

func NewOrderService(st store.Store, pub rabbit.PublisherInterface) *OrderService {
	return &OrderService{
		store:     st,
		publisher: pub,
	}
}

func (s *OrderService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

type OrderResult struct {
	Order           *domain.Order   `json:"order"`
	RemainingBudget decimal.Decimal `json:"remainingBudget"`
}

// CreateOrder commits an order as one optimistic transaction: debit the
// user's budget, decrement stock and allocate activation codes for every line
// item, and persist the order. All or nothing; a conflicting concurrent
// commit retries the whole function from fresh reads.
//
// Prices always come from the product documents read inside the transaction,
// never from the request. The budget check runs after all items are priced so
// a shortfall reports authoritative numbers.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, items []OrderItemInput) (*OrderResult, error) {
	if err := ValidateOrderItems(items); err != nil {
		return nil, err
	}

	var (
		order     domain.Order
		remaining decimal.Decimal
	)
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var user domain.User
		if err := tx.Get(ctx, store.CollectionUsers, userID, &user); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Newf(apperr.NotFound, "user %s not found", userID)
			}
			return err
		}

		now := time.Now().UTC()
		total := decimal.Zero
		lineItems := make([]domain.OrderItem, 0, len(items))

		for _, it := range items {
			qty := it.quantity()

			var p domain.Product
			if err := tx.Get(ctx, store.CollectionProducts, it.ProductID, &p); err != nil {
				if errors.Is(err, store.ErrNotFound) {
					return apperr.Newf(apperr.NotFound, "product %s not found", it.ProductID)
				}
				return err
			}

			codes, err := reserve(&p, qty)
			if err != nil {
				return err
			}

			total = total.Add(p.Price.Mul(decimal.NewFromInt(int64(qty))))
			lineItems = append(lineItems, domain.OrderItem{
				ProductID:       p.ID,
				Name:            p.Name,
				PriceAtPurchase: p.Price,
				Quantity:        qty,
				ActivationCodes: codes,
			})

			p.Metadata.UpdatedAt = now
			// A later line item for the same product reads this queued write,
			// so duplicates see already-decremented state.
			if err := tx.Set(store.CollectionProducts, p.ID, &p); err != nil {
				return err
			}
		}

		total = total.Round(2)
		if err := debit(&user, total, now); err != nil {
			return err
		}
		if err := tx.Set(store.CollectionUsers, userID, &user); err != nil {
			return err
		}

		order = domain.Order{
			ID:        uuid.NewString(),
			UserID:    userID,
			Products:  lineItems,
			Status:    domain.StatusPending,
			Total:     total,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := tx.Set(store.CollectionOrders, order.ID, &order); err != nil {
			return err
		}
		remaining = user.Budget
		return nil
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.New(apperr.Conflict, "order could not be committed, please retry")
		}
		return nil, err
	}

	s.invalidateCatalogCache(ctx)
	go s.publishOrderCreated(context.Background(), &order)

	return &OrderResult{Order: &order, RemainingBudget: remaining}, nil
}

func (s *OrderService) GetOrderById(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := s.store.Get(ctx, store.CollectionOrders, id, &o); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "order %s not found", id)
		}
		return nil, err
	}
	return &o, nil
}

func (s *OrderService) ListOrders(ctx context.Context) ([]domain.Order, error) {
	return s.listOrders(ctx, "")
}

func (s *OrderService) ListOrdersByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return s.listOrders(ctx, userID)
}

func (s *OrderService) listOrders(ctx context.Context, userID string) ([]domain.Order, error) {
	docs, err := s.store.List(ctx, store.CollectionOrders)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(docs))
	for _, doc := range docs {
		var o domain.Order
		if err := json.Unmarshal(doc.Payload, &o); err != nil {
			return nil, err
		}
		if userID != "" && o.UserID != userID {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// UpdateStatus is the admin status transition. Only the status and updatedAt
// fields ever change on a committed order.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, next domain.OrderStatus) (*domain.Order, error) {
	var o domain.Order
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		if err := tx.Get(ctx, store.CollectionOrders, orderID, &o); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Newf(apperr.NotFound, "order %s not found", orderID)
			}
			return err
		}
		if !domain.CanTransition(o.Status, next) {
			return apperr.Newf(apperr.InvalidInput, "cannot transition order from %s to %s", o.Status, next)
		}
		o.Status = next
		o.UpdatedAt = time.Now().UTC()
		return tx.Set(store.CollectionOrders, orderID, &o)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.New(apperr.Conflict, "status update could not be committed, try again")
		}
		return nil, err
	}
	return &o, nil
}

func (s *OrderService) invalidateCatalogCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, catalogCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate catalog cache: %v", err)
	}
}

func (s *OrderService) publishOrderCreated(ctx context.Context, order *domain.Order) {
	if s.publisher == nil {
		return
	}
	evt := domain.OrderCreatedEvent{
		OrderID:   order.ID,
		UserID:    order.UserID,
		Total:     order.Total,
		Items:     len(order.Products),
		CreatedAt: order.CreatedAt,
	}
	if err := s.publisher.Publish(ctx, "order.created", evt); err != nil {
		log.Printf("Failed to publish order.created event: %v", err)
	}
}
