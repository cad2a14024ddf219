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
	"keyshop/internal/store"
)

const (
	catalogCacheKey = "catalog:products"
	catalogCacheTTL = time.Minute
)

type CatalogService struct {
	store       store.Store
	redisClient *redis.Client
}

func NewCatalogService(st store.Store) *CatalogService {
	return &CatalogService{store: st}
}

func (s *CatalogService) SetRedisClient(client *redis.Client) {
	s.redisClient = client
}

// ListProducts serves the catalog through a short-lived cache. Any product
// mutation (admin CRUD, order commit, review upsert) invalidates it.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	if s.redisClient != nil {
		cached, err := s.redisClient.Get(ctx, catalogCacheKey).Result()
		if err == nil {
			var products []domain.Product
			if err := json.Unmarshal([]byte(cached), &products); err == nil {
				return products, nil
			}
		}
	}

	docs, err := s.store.List(ctx, store.CollectionProducts)
	if err != nil {
		return nil, err
	}
	products := make([]domain.Product, 0, len(docs))
	for _, doc := range docs {
		var p domain.Product
		if err := json.Unmarshal(doc.Payload, &p); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if s.redisClient != nil {
		if data, err := json.Marshal(products); err == nil {
			s.redisClient.Set(ctx, catalogCacheKey, data, catalogCacheTTL)
		}
	}
	return products, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := s.store.Get(ctx, store.CollectionProducts, id, &p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.Newf(apperr.NotFound, "product %s not found", id)
		}
		return nil, err
	}
	return &p, nil
}

type CreateProductInput struct {
	Name            string          `json:"name"`
	Slug            string          `json:"slug"`
	Type            string          `json:"type"`
	Price           decimal.Decimal `json:"price"`
	Stock           domain.Stock    `json:"stock"`
	ActivationCodes []string        `json:"activationCodes"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, in CreateProductInput) (*domain.Product, error) {
	if in.Name == "" {
		return nil, apperr.New(apperr.InvalidInput, "product name is required")
	}
	if !in.Price.IsPositive() {
		return nil, apperr.New(apperr.InvalidInput, "product price must be positive")
	}
	if in.Stock.Total < 0 {
		return nil, apperr.New(apperr.InvalidInput, "stock must not be negative")
	}
	if len(in.ActivationCodes) < in.Stock.Total {
		return nil, apperr.New(apperr.InvalidInput, "activation codes must cover the stock total")
	}
	seen := make(map[string]struct{}, len(in.ActivationCodes))
	for _, code := range in.ActivationCodes {
		if code == "" {
			return nil, apperr.New(apperr.InvalidInput, "activation codes must not be empty")
		}
		if _, dup := seen[code]; dup {
			return nil, apperr.Newf(apperr.InvalidInput, "duplicate activation code %s", code)
		}
		seen[code] = struct{}{}
	}

	now := time.Now().UTC()
	p := domain.Product{
		ID:              uuid.NewString(),
		Name:            in.Name,
		Slug:            in.Slug,
		Type:            in.Type,
		Price:           in.Price.Round(2),
		Stock:           in.Stock,
		ActivationCodes: append([]string(nil), in.ActivationCodes...),
		Metadata:        domain.Metadata{CreatedAt: now, UpdatedAt: now},
	}
	err := s.store.RunTransaction(ctx, func(tx store.Tx) error {
		return tx.Set(store.CollectionProducts, p.ID, &p)
	})
	if err != nil {
		return nil, err
	}
	s.invalidateCache(ctx)
	return &p, nil
}

func (s *CatalogService) DeleteProduct(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, store.CollectionProducts, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return apperr.Newf(apperr.NotFound, "product %s not found", id)
		}
		return err
	}
	s.invalidateCache(ctx)
	return nil
}

func (s *CatalogService) invalidateCache(ctx context.Context) {
	if s.redisClient == nil {
		return
	}
	if err := s.redisClient.Del(ctx, catalogCacheKey).Err(); err != nil {
		log.Printf("Failed to invalidate catalog cache: %v", err)
	}
}
