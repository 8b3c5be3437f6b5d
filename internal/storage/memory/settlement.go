package memory

import (
	"fmt"
	"sync"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

const refundAttempts = 3

// settlementStoreInMemory применяет списание через публичные интерфейсы
// репозиториев по протоколу с компенсацией: сперва дебет кошелька, затем
// очистка корзины; при неудаче очистки дебет откатывается возвратом средств.
// Собственный mutex сериализует конкурентные checkout между собой.
type settlementStoreInMemory struct {
	mu     sync.Mutex
	users  domain.UserRepository
	carts  domain.CartRepository
	outbox domain.OutboxRepository
}

// NewSettlementStore создаёт in-memory реализацию SettlementStore
// поверх переданных репозиториев.
func NewSettlementStore(users domain.UserRepository, carts domain.CartRepository, outbox domain.OutboxRepository) domain.SettlementStore {
	return &settlementStoreInMemory{
		users:  users,
		carts:  carts,
		outbox: outbox,
	}
}

// Settle выполняет дебет и очистку как единое целое с проверкой версий.
func (s *settlementStoreInMemory) Settle(req domain.SettlementRequest) (domain.User, domain.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, err := s.users.GetByEmail(req.Email)
	if err != nil {
		return domain.User{}, domain.Cart{}, err
	}
	if user.Version != req.UserVersion {
		return domain.User{}, domain.Cart{}, domain.ErrVersionConflict
	}

	cart, err := s.carts.GetByEmail(req.Email)
	if err != nil {
		return domain.User{}, domain.Cart{}, err
	}
	if cart.Version != req.CartVersion {
		return domain.User{}, domain.Cart{}, domain.ErrVersionConflict
	}

	// Перепроверяем баланс на свежем чтении: гард движка мог устареть.
	if !user.CanAfford(req.TotalMinor) {
		return domain.User{}, domain.Cart{}, domain.ErrInsufficientBalance
	}

	user.BalanceMinor -= req.TotalMinor
	user.UpdatedAt = req.Now
	if err := s.users.Save(user); err != nil {
		if domain.IsVersionConflict(err) {
			return domain.User{}, domain.Cart{}, domain.ErrVersionConflict
		}
		return domain.User{}, domain.Cart{}, fmt.Errorf("debit wallet: %w", err)
	}
	user.Version++

	cart.Lines = nil
	cart.UpdatedAt = req.Now
	if err := s.carts.Save(cart); err != nil {
		// Дебет уже применён: возвращаем средства, иначе состояние частично.
		if refundErr := s.refund(req.Email, req.TotalMinor); refundErr != nil {
			return domain.User{}, domain.Cart{}, fmt.Errorf("%w: clear cart failed (%v), refund failed (%v)",
				domain.ErrSettlementInconsistent, err, refundErr)
		}
		if domain.IsVersionConflict(err) {
			return domain.User{}, domain.Cart{}, domain.ErrVersionConflict
		}
		return domain.User{}, domain.Cart{}, fmt.Errorf("clear cart: %w", err)
	}
	cart.Version++

	if _, err := s.outbox.Enqueue(req.Event); err != nil {
		return domain.User{}, domain.Cart{}, fmt.Errorf("enqueue settlement event: %w", err)
	}

	return user, cart, nil
}

// refund компенсирует дебет. Параллельное обновление адреса может бить по
// версии, поэтому возврат повторяется с перечитыванием записи.
func (s *settlementStoreInMemory) refund(email string, amountMinor int64) error {
	var lastErr error
	for attempt := 0; attempt < refundAttempts; attempt++ {
		user, err := s.users.GetByEmail(email)
		if err != nil {
			return err
		}
		user.BalanceMinor += amountMinor
		if err := s.users.Save(user); err != nil {
			lastErr = err
			if domain.IsVersionConflict(err) {
				continue
			}
			return err
		}
		return nil
	}
	return lastErr
}

var _ domain.SettlementStore = (*settlementStoreInMemory)(nil)
