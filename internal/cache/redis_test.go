package cache

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

func testCart() domain.Cart {
	now := time.Now().UTC().Truncate(time.Second)
	return domain.Cart{
		Email: "shopper@example.com",
		Lines: []domain.CartLine{
			{
				ID:      "line-1",
				Product: domain.ProductSnapshot{ID: "prod-1", Name: "Ceramic Mug", CostMinor: 100},
				Qty:     2,
				AddedAt: now,
			},
		},
		Version:   3,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartEntryRoundTrip(t *testing.T) {
	cart := testCart()

	entry := newCartEntry(cart)
	restored := entry.toDomain()

	if restored.Email != cart.Email || restored.Version != cart.Version {
		t.Fatalf("metadata lost on round-trip: %+v", restored)
	}
	if len(restored.Lines) != 1 || restored.Lines[0].Product.CostMinor != 100 {
		t.Fatalf("lines lost on round-trip: %+v", restored.Lines)
	}
}

func openRedisCacheForIntegrationTest(t *testing.T) *RedisCache {
	t.Helper()

	addr := strings.TrimSpace(os.Getenv("CARTSVC_REDIS_TEST_ADDR"))
	if addr == "" {
		addr = "localhost:6379"
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("redis is not available for integration tests: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return NewRedisCache(client)
}

func TestRedisCacheIntegration_SetGetDelete(t *testing.T) {
	cache := openRedisCacheForIntegrationTest(t)
	ctx := context.Background()
	cart := testCart()

	if err := cache.Set(ctx, cart.Email, cart); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, err := cache.Get(ctx, cart.Email)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Version != cart.Version || len(got.Lines) != 1 {
		t.Fatalf("unexpected cached cart: %+v", got)
	}

	if err := cache.Delete(ctx, cart.Email); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := cache.Get(ctx, cart.Email); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss after delete, got %v", err)
	}
}

func TestRedisCacheIntegration_Miss(t *testing.T) {
	cache := openRedisCacheForIntegrationTest(t)

	if _, err := cache.Get(context.Background(), "ghost@example.com"); !errors.Is(err, ErrCacheMiss) {
		t.Fatalf("expected ErrCacheMiss, got %v", err)
	}
}
