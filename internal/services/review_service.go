package services

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"

	"keyshop/internal/apperr"
	"keyshop/internal/domain"
	rabbit "keyshop/internal/infra/rabbitmq"
	"keyshop/internal/store"
)

type ReviewService struct {
	store       store.Store
	publisher   rabbit.PublisherInterface
	redisClient *redis.Client
}

func NewReviewService(st store.Store, pub rabbit.PublisherInterface) *ReviewService {
	return &ReviewService{
		store:     st,
		publisher: pub,
	}
}

func (s *ReviewService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// UpsertReview creates or replaces the caller's review of a product and
// recomputes the product's rating aggregate in the same transaction, so the
// aggregate never drifts from the set of reviews even under concurrent
// writers. The purchase-eligibility check runs outside the transaction; it
// gates access, it does not guard the ledger.
func (s *ReviewService) UpsertReview(ctx context.Context, productID, userID string, rating int, comment string) (*domain.Review, error) {
	if err := ValidateReview(rating, comment); err != nil {
		return nil, err
	}

	purchased, err := s.hasPurchased(ctx, productID, userID)
	if err != nil {
		return nil, err
	}
	if !purchased {
		return nil, apperr.New(apperr.Forbidden, "product was not purchased by this user")
	}

	var (
		review  domain.Review
		summary domain.RatingSummary
	)
	err = s.store.RunTransaction(ctx, func(tx store.Tx) error {
		var p domain.Product
		if err := tx.Get(ctx, store.CollectionProducts, productID, &p); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return apperr.Newf(apperr.NotFound, "product %s not found", productID)
			}
			return err
		}

		now := time.Now().UTC()
		reviewID := store.ReviewKey(productID, userID)

		var existing domain.Review
		switch err := tx.Get(ctx, store.CollectionReviews, reviewID, &existing); {
		case err == nil:
			// Replace the old rating's contribution; count is unchanged.
			p.RatingSummary.Sum += rating - existing.Rating
			review = domain.Review{
				ProductID: productID,
				UserID:    userID,
				Rating:    rating,
				Comment:   comment,
				CreatedAt: existing.CreatedAt,
				UpdatedAt: now,
			}
		case errors.Is(err, store.ErrNotFound):
			p.RatingSummary.Count++
			p.RatingSummary.Sum += rating
			review = domain.Review{
				ProductID: productID,
				UserID:    userID,
				Rating:    rating,
				Comment:   comment,
				CreatedAt: now,
				UpdatedAt: now,
			}
		default:
			return err
		}

		p.RatingSummary.Avg = averageRating(p.RatingSummary.Sum, p.RatingSummary.Count)
		p.Metadata.UpdatedAt = now
		summary = p.RatingSummary

		if err := tx.Set(store.CollectionReviews, reviewID, &review); err != nil {
			return err
		}
		return tx.Set(store.CollectionProducts, productID, &p)
	})
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperr.New(apperr.Conflict, "review could not be committed, please retry")
		}
		return nil, err
	}

	s.invalidateCatalogCache(ctx)
	go s.publishReviewUpserted(context.Background(), &review, summary)

	return &review, nil
}

// ListReviews returns all reviews of a product in insertion order.
func (s *ReviewService) ListReviews(ctx context.Context, productID string) ([]domain.Review, error) {
	docs, err := s.store.List(ctx, store.CollectionReviews)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Review, 0, len(docs))
	for _, doc := range docs {
		var r domain.Review
		if err := json.Unmarshal(doc.Payload, &r); err != nil {
			return nil, err
		}
		if r.ProductID != productID {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func averageRating(sum, count int) decimal.Decimal {
	if count == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(sum)).
		Div(decimal.NewFromInt(int64(count))).
		Round(2)
}

func (s *ReviewService) hasPurchased(ctx context.Context, productID, userID string) (bool, error) {
	docs, err := s.store.List(ctx, store.CollectionOrders)
	if err != nil {
		return false, err
	}
	for _, doc := range docs {
		var o domain.Order
		if err := json.Unmarshal(doc.Payload, &o); err != nil {
			return false, err
		}
		if o.UserID != userID {
			continue
		}
		for _, item := range o.Products {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

func (s *ReviewService) invalidateCatalogCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, catalogCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate catalog cache: %v", err)
	}
}

func (s *ReviewService) publishReviewUpserted(ctx context.Context, review *domain.Review, summary domain.RatingSummary) {
	if s.publisher == nil {
		return
	}
	evt := domain.ReviewUpsertedEvent{
		ProductID: review.ProductID,
		UserID:    review.UserID,
		Rating:    review.Rating,
		Avg:       summary.Avg,
		Count:     summary.Count,
		UpdatedAt: review.UpdatedAt,
	}
	if err := s.publisher.Publish(ctx, "review.upserted", evt); err != nil {
		log.Printf("Failed to publish review.upserted event: %v", err)
	}
}
