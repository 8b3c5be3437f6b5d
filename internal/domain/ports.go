package domain

import (
	"context"
	"time"
)

// SettlementRequest описывает атомарное списание: дебет кошелька и очистку
// корзины с проверкой версий обеих записей.
type SettlementRequest struct {
	Email       string
	UserVersion int64
	CartVersion int64
	TotalMinor  int64
	// Event ставится в outbox той же единицей работы, что и списание.
	Event OutboxMessage
	Now   time.Time
}

// SettlementStore применяет списание как единое целое: читатель никогда не
// увидит задебетованный кошелёк при непустой корзине и наоборот.
type SettlementStore interface {
	// Settle возвращает обновлённые записи либо одну из ошибок:
	// ErrUserNotFound, ErrCartNotFound, ErrInsufficientBalance,
	// ErrVersionConflict. Частично применённое списание поднимается
	// как ErrSettlementInconsistent.
	Settle(req SettlementRequest) (User, Cart, error)
}

// AuthResolver сопоставляет учётные данные запроса пользователю.
// Движок корзины доверяет полученному User и не перепроверяет его.
type AuthResolver interface {
	Resolve(ctx context.Context, credential string) (User, error)
}

// OutboxPublisher публикует события из transactional outbox.
type OutboxPublisher interface {
	// Publish передаёт событие наружу; должен быть идемпотентным.
	Publish(event OutboxMessage) error
}

// OutboxMessage хранит данные для публикуемого события.
type OutboxMessage struct {
	ID            string
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

// OutboxStats описывает текущее состояние backlog transactional outbox.
type OutboxStats struct {
	PendingCount    int
	OldestPendingAt time.Time
}
