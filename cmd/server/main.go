package main

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"

	httpctrl "keyshop/internal/controllers/http"
	"keyshop/internal/config"
	"keyshop/internal/infra/rabbitmq"
	"keyshop/internal/services"
	"keyshop/internal/store"
	"keyshop/internal/store/memory"
	"keyshop/internal/store/mysql"
)

func main() {
	cfg := config.Load()

	var (
		st  store.Store
		err error
	)
	switch cfg.StoreBackend {
	case "memory":
		st = memory.New()
		log.Println("Using in-memory store")
	default:
		st, err = mysql.OpenFromEnv()
		if err != nil {
			log.Fatalf("store: connect: %v", err)
		}
	}

	var publisher rabbitmq.PublisherInterface
	if cfg.AMQPURL != "" {
		pub, err := rabbitmq.NewPublisher(cfg.AMQPURL, cfg.Exchange)
		if err != nil {
			log.Fatalf("failed to init publisher: %v", err)
		}
		defer pub.Close()
		publisher = pub
	}

	orders := services.NewOrderService(st, publisher)
	reviews := services.NewReviewService(st, publisher)
	catalog := services.NewCatalogService(st)
	accounts := services.NewAccountService(st)

	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:         cfg.RedisAddr,
			DB:           0,
			PoolSize:     200,
			MinIdleConns: 20,
			DialTimeout:  2 * time.Second,
			ReadTimeout:  500 * time.Millisecond,
			WriteTimeout: 500 * time.Millisecond,
		})
		orders.SetRedisClient(redisClient)
		reviews.SetRedisClient(redisClient)
		catalog.SetRedisClient(redisClient)
	}

	handler := httpctrl.NewHandler(st, orders, reviews, catalog, accounts)

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	handler.RegisterRoutes(r)

	log.Printf("Starting storefront on %s", cfg.HTTPAddr)
	if err := r.Run(cfg.HTTPAddr); err != nil {
		log.Fatalf("server run: %v", err)
	}
}
