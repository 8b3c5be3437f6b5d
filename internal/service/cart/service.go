package cart

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/cache"
	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
)

// maxSaveAttempts ограничивает retry при конфликте версий;
// после исчерпания попыток операция завершается ErrVersionConflict.
const maxSaveAttempts = 3

// Service — движок корзины и checkout. Правила членства в корзине,
// обновления количеств и атомарное списание живут здесь; хранение — в
// репозиториях, аутентификация и валидация формы запроса — уровнем выше.
type Service struct {
	users   domain.UserRepository
	carts   domain.CartRepository
	catalog domain.ProductCatalog
	settler domain.SettlementStore
	cache   cache.CartCache
	metrics *metrics.CartMetrics
	logger  *log.Entry
}

// Options — опциональные зависимости движка.
type Options struct {
	// Cache включает read-through кэш корзин; nil — кэш выключен.
	Cache cache.CartCache
	// Metrics включает счётчики операций; nil — метрики выключены.
	Metrics *metrics.CartMetrics
	Logger  *log.Entry
}

// NewService конструирует движок с зависимостями.
func NewService(
	users domain.UserRepository,
	carts domain.CartRepository,
	catalog domain.ProductCatalog,
	settler domain.SettlementStore,
	opts Options,
) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "cart-service")
	}
	return &Service{
		users:   users,
		carts:   carts,
		catalog: catalog,
		settler: settler,
		cache:   opts.Cache,
		metrics: opts.Metrics,
		logger:  logger,
	}
}

// GetCart возвращает корзину пользователя или ErrCartNotFound.
func (s *Service) GetCart(ctx context.Context, user domain.User) (domain.Cart, error) {
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, user.Email)
		switch {
		case err == nil:
			s.recordOp(metrics.OpGetCart, metrics.ResultOK)
			s.recordCache(true)
			return cached, nil
		case errors.Is(err, cache.ErrCacheMiss):
			s.recordCache(false)
		default:
			s.logger.WithError(err).Warn("cart cache read failed, falling back to repository")
		}
	}

	cart, err := s.carts.GetByEmail(user.Email)
	if err != nil {
		s.recordOp(metrics.OpGetCart, resultLabel(err))
		return domain.Cart{}, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, user.Email, cart); err != nil {
			s.logger.WithError(err).Warn("cart cache write failed")
		}
	}

	s.recordOp(metrics.OpGetCart, metrics.ResultOK)
	return cart, nil
}

// AddProduct добавляет товар в корзину пользователя. Корзина создаётся
// лениво при первом добавлении; повторное добавление того же товара
// завершается ErrProductAlreadyInCart — из двух конкурентных добавлений
// одного товара выигрывает ровно одно.
func (s *Service) AddProduct(ctx context.Context, user domain.User, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		s.recordOp(metrics.OpAddProduct, metrics.ResultInvalidRequest)
		return domain.Cart{}, domain.ErrQuantityInvalid
	}

	product, err := s.catalog.GetByID(productID)
	if err != nil {
		s.recordOp(metrics.OpAddProduct, resultLabel(err))
		return domain.Cart{}, err
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		now := time.Now().UTC()
		line := domain.CartLine{
			ID:      uuid.NewString(),
			Product: product,
			Qty:     qty,
			AddedAt: now,
		}

		cart, err := s.carts.GetByEmail(user.Email)
		if errors.Is(err, domain.ErrCartNotFound) {
			cart = domain.Cart{
				Email:     user.Email,
				Lines:     []domain.CartLine{line},
				CreatedAt: now,
				UpdatedAt: now,
			}
			if err := s.carts.Create(cart); err != nil {
				if domain.IsVersionConflict(err) {
					// Гонку за создание выиграл другой запрос: перечитываем.
					s.recordConflict()
					continue
				}
				s.recordOp(metrics.OpAddProduct, metrics.ResultInternal)
				return domain.Cart{}, fmt.Errorf("create cart: %w", err)
			}
			s.invalidateCache(ctx, user.Email)
			s.recordOp(metrics.OpAddProduct, metrics.ResultOK)
			return cart, nil
		}
		if err != nil {
			s.recordOp(metrics.OpAddProduct, metrics.ResultInternal)
			return domain.Cart{}, fmt.Errorf("load cart: %w", err)
		}

		if cart.FindLine(productID) >= 0 {
			s.recordOp(metrics.OpAddProduct, metrics.ResultConflict)
			return domain.Cart{}, domain.ErrProductAlreadyInCart
		}

		cart.Lines = append(cart.Lines, line)
		cart.UpdatedAt = now
		if err := s.carts.Save(cart); err != nil {
			if domain.IsVersionConflict(err) {
				s.recordConflict()
				continue
			}
			s.recordOp(metrics.OpAddProduct, metrics.ResultInternal)
			return domain.Cart{}, fmt.Errorf("save cart: %w", err)
		}
		cart.Version++

		s.invalidateCache(ctx, user.Email)
		s.recordOp(metrics.OpAddProduct, metrics.ResultOK)
		return cart, nil
	}

	s.recordOp(metrics.OpAddProduct, metrics.ResultConflict)
	return domain.Cart{}, domain.ErrVersionConflict
}

// UpdateQuantity заменяет количество уже существующей позиции;
// снимок товара при этом не меняется.
func (s *Service) UpdateQuantity(ctx context.Context, user domain.User, productID string, qty int32) (domain.Cart, error) {
	if qty <= 0 {
		s.recordOp(metrics.OpUpdateQuantity, metrics.ResultInvalidRequest)
		return domain.Cart{}, domain.ErrQuantityInvalid
	}

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.carts.GetByEmail(user.Email)
		if errors.Is(err, domain.ErrCartNotFound) {
			s.recordOp(metrics.OpUpdateQuantity, metrics.ResultInvalidRequest)
			return domain.Cart{}, domain.ErrCartMissing
		}
		if err != nil {
			s.recordOp(metrics.OpUpdateQuantity, metrics.ResultInternal)
			return domain.Cart{}, fmt.Errorf("load cart: %w", err)
		}

		if _, err := s.catalog.GetByID(productID); err != nil {
			s.recordOp(metrics.OpUpdateQuantity, resultLabel(err))
			return domain.Cart{}, err
		}

		idx := cart.FindLine(productID)
		if idx < 0 {
			s.recordOp(metrics.OpUpdateQuantity, metrics.ResultInvalidRequest)
			return domain.Cart{}, domain.ErrProductNotInCart
		}

		cart.Lines[idx].Qty = qty
		cart.UpdatedAt = time.Now().UTC()
		if err := s.carts.Save(cart); err != nil {
			if domain.IsVersionConflict(err) {
				s.recordConflict()
				continue
			}
			s.recordOp(metrics.OpUpdateQuantity, metrics.ResultInternal)
			return domain.Cart{}, fmt.Errorf("save cart: %w", err)
		}
		cart.Version++

		s.invalidateCache(ctx, user.Email)
		s.recordOp(metrics.OpUpdateQuantity, metrics.ResultOK)
		return cart, nil
	}

	s.recordOp(metrics.OpUpdateQuantity, metrics.ResultConflict)
	return domain.Cart{}, domain.ErrVersionConflict
}

// RemoveProduct удаляет позицию с указанным товаром. Удаление идёт по
// идентификатору позиции, а не по индексу: конкурентная перестановка
// позиций не приведёт к удалению чужой строки. Последняя удалённая
// позиция оставляет пустую запись корзины.
func (s *Service) RemoveProduct(ctx context.Context, user domain.User, productID string) error {
	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.carts.GetByEmail(user.Email)
		if errors.Is(err, domain.ErrCartNotFound) {
			s.recordOp(metrics.OpRemoveProduct, metrics.ResultInvalidRequest)
			return domain.ErrCartMissing
		}
		if err != nil {
			s.recordOp(metrics.OpRemoveProduct, metrics.ResultInternal)
			return fmt.Errorf("load cart: %w", err)
		}

		idx := cart.FindLine(productID)
		if idx < 0 {
			s.recordOp(metrics.OpRemoveProduct, metrics.ResultInvalidRequest)
			return domain.ErrProductNotInCart
		}

		lineID := cart.Lines[idx].ID
		remaining := make([]domain.CartLine, 0, len(cart.Lines)-1)
		for _, line := range cart.Lines {
			if line.ID == lineID {
				continue
			}
			remaining = append(remaining, line)
		}
		cart.Lines = remaining
		cart.UpdatedAt = time.Now().UTC()

		if err := s.carts.Save(cart); err != nil {
			if domain.IsVersionConflict(err) {
				s.recordConflict()
				continue
			}
			s.recordOp(metrics.OpRemoveProduct, metrics.ResultInternal)
			return fmt.Errorf("save cart: %w", err)
		}

		s.invalidateCache(ctx, user.Email)
		s.recordOp(metrics.OpRemoveProduct, metrics.ResultOK)
		return nil
	}

	s.recordOp(metrics.OpRemoveProduct, metrics.ResultConflict)
	return domain.ErrVersionConflict
}

func (s *Service) invalidateCache(ctx context.Context, email string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, email); err != nil {
		s.logger.WithError(err).WithField("email", email).Warn("cart cache invalidation failed")
	}
}

func (s *Service) recordOp(op, result string) {
	if s.metrics != nil {
		s.metrics.RecordOperation(op, result)
	}
}

func (s *Service) recordConflict() {
	if s.metrics != nil {
		s.metrics.RecordSaveConflict()
	}
}

func (s *Service) recordCache(hit bool) {
	if s.metrics == nil {
		return
	}
	if hit {
		s.metrics.RecordCacheHit()
	} else {
		s.metrics.RecordCacheMiss()
	}
}

// resultLabel сопоставляет ошибку движка значению лейбла `result`.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case domain.IsNotFound(err):
		return metrics.ResultNotFound
	case domain.IsInvalidRequest(err):
		return metrics.ResultInvalidRequest
	case domain.IsConflict(err):
		return metrics.ResultConflict
	default:
		return metrics.ResultInternal
	}
}
