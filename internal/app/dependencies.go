package app

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/cache"
	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/postgres"
)

// Dependencies содержит хранилища и кэш, собранные по конфигурации.
type Dependencies struct {
	Users   domain.UserRepository
	Carts   domain.CartRepository
	Catalog domain.ProductCatalog
	Outbox  domain.OutboxRepository
	Settler domain.SettlementStore
	Cache   cache.CartCache

	store       *postgres.Store
	redisClient *redis.Client
}

// NewDependencies инициализирует хранилище и кэш по конфигурации.
func NewDependencies(ctx context.Context, cfg Config, logger *log.Entry) (*Dependencies, error) {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	deps := &Dependencies{}
	switch cfg.Storage {
	case StoragePostgres:
		store, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		if err := store.MigrateUp(); err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("apply migrations: %w", err)
		}
		deps.store = store
		deps.Users = postgres.NewUserRepository(store)
		deps.Carts = postgres.NewCartRepository(store)
		deps.Catalog = postgres.NewProductCatalog(store)
		deps.Outbox = postgres.NewOutboxRepository(store)
		deps.Settler = postgres.NewSettlementStore(store)
		logger.Info("postgres storage initialized")
	default:
		users := memory.NewUserRepository()
		carts := memory.NewCartRepository()
		outboxRepo := memory.NewOutboxRepository()
		deps.Users = users
		deps.Carts = carts
		deps.Outbox = outboxRepo
		deps.Catalog = demoCatalog()
		deps.Settler = memory.NewSettlementStore(users, carts, outboxRepo)
		logger.Info("in-memory storage initialized")
	}

	if cfg.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := client.Ping(ctx).Err(); err != nil {
			// Кэш не критичен для работы: корзины читаются из хранилища.
			logger.WithError(err).Warn("redis is unreachable, continuing without cart cache")
			_ = client.Close()
		} else {
			deps.redisClient = client
			deps.Cache = cache.NewRedisCache(client)
			logger.WithField("addr", cfg.RedisAddr).Info("redis cart cache initialized")
		}
	}

	return deps, nil
}

// Close освобождает подключения.
func (d *Dependencies) Close(logger *log.Entry) {
	if d.redisClient != nil {
		if err := d.redisClient.Close(); err != nil {
			logger.WithError(err).Warn("failed to close redis client")
		}
	}
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			logger.WithError(err).Warn("failed to close postgres store")
		}
	}
}

// PostgresStore возвращает открытое подключение к PostgreSQL (nil в memory-режиме).
func (d *Dependencies) PostgresStore() *postgres.Store {
	return d.store
}

// RedisClient возвращает подключение к Redis (nil, если кэш выключен).
func (d *Dependencies) RedisClient() *redis.Client {
	return d.redisClient
}

// demoCatalog возвращает каталог для локальной разработки; в postgres-режиме
// товары сеются миграциями.
func demoCatalog() domain.ProductCatalog {
	return memory.NewProductCatalog(
		domain.ProductSnapshot{ID: "prod-ceramic-mug", Name: "Ceramic Mug", Category: "Kitchen", CostMinor: 10000, Rating: 4},
		domain.ProductSnapshot{ID: "prod-desk-lamp", Name: "Desk Lamp", Category: "Home", CostMinor: 25000, Rating: 5},
		domain.ProductSnapshot{ID: "prod-yoga-mat", Name: "Yoga Mat", Category: "Sports", CostMinor: 15000, Rating: 4},
		domain.ProductSnapshot{ID: "prod-headphones", Name: "Wireless Headphones", Category: "Electronics", CostMinor: 45000, Rating: 5},
		domain.ProductSnapshot{ID: "prod-water-bottle", Name: "Steel Water Bottle", Category: "Kitchen", CostMinor: 8000, Rating: 3},
	)
}
