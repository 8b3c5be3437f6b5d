package cache

import (
	"context"
	"errors"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// CartCache — опциональный кэш корзин перед репозиторием.
// Любая мутация корзины обязана инвалидировать запись.
type CartCache interface {
	Get(ctx context.Context, email string) (domain.Cart, error)
	Set(ctx context.Context, email string, cart domain.Cart) error
	Delete(ctx context.Context, email string) error
}

// ErrCacheMiss возвращается, когда ключа нет в кэше.
var ErrCacheMiss = errors.New("cache miss")
