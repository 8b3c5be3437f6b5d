package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

const (
	defaultBaseTTL  = 15 * time.Minute
	ttlJitterSlices = 5
)

// RedisCache хранит сериализованные корзины в Redis с TTL.
type RedisCache struct {
	client  *redis.Client
	baseTTL time.Duration
}

// NewRedisCache создаёт кэш корзин поверх готового Redis-клиента.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:  client,
		baseTTL: defaultBaseTTL,
	}
}

// Get возвращает корзину из кэша или ErrCacheMiss.
func (r *RedisCache) Get(ctx context.Context, email string) (domain.Cart, error) {
	data, err := r.client.Get(ctx, cacheKey(email)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Cart{}, ErrCacheMiss
	}
	if err != nil {
		return domain.Cart{}, fmt.Errorf("redis get: %w", err)
	}

	var entry cartEntry
	if err := json.Unmarshal(data, &entry); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cached cart: %w", err)
	}
	return entry.toDomain(), nil
}

// Set записывает корзину с TTL. Джиттер размазывает одновременное протухание.
func (r *RedisCache) Set(ctx context.Context, email string, cart domain.Cart) error {
	data, err := json.Marshal(newCartEntry(cart))
	if err != nil {
		return fmt.Errorf("marshal cart: %w", err)
	}

	jitter := time.Duration(rand.Intn(ttlJitterSlices)) * time.Minute
	if err := r.client.Set(ctx, cacheKey(email), data, r.baseTTL+jitter).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Delete инвалидирует закэшированную корзину.
func (r *RedisCache) Delete(ctx context.Context, email string) error {
	if err := r.client.Del(ctx, cacheKey(email)).Err(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

// Ping проверяет доступность Redis (для health check).
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func cacheKey(email string) string {
	return "cart:" + email
}

// cartEntry — сериализуемое представление корзины в кэше.
type cartEntry struct {
	Email     string            `json:"email"`
	Lines     []domain.CartLine `json:"lines"`
	Version   int64             `json:"version"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

func newCartEntry(cart domain.Cart) cartEntry {
	return cartEntry{
		Email:     cart.Email,
		Lines:     cart.Lines,
		Version:   cart.Version,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}
}

func (e cartEntry) toDomain() domain.Cart {
	return domain.Cart{
		Email:     e.Email,
		Lines:     e.Lines,
		Version:   e.Version,
		CreatedAt: e.CreatedAt,
		UpdatedAt: e.UpdatedAt,
	}
}

var _ CartCache = (*RedisCache)(nil)
