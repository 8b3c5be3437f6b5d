package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

type settlementStore struct {
	db *sql.DB
}

// NewSettlementStore создаёт PostgreSQL-реализацию SettlementStore.
// Дебет кошелька, очистка корзины и запись outbox-события выполняются
// в одной транзакции: частично применённое списание невозможно.
func NewSettlementStore(store *Store) domain.SettlementStore {
	return &settlementStore{db: store.DB()}
}

func (s *settlementStore) Settle(req domain.SettlementRequest) (domain.User, domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	email := normalizeEmail(req.Email)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.User{}, domain.Cart{}, fmt.Errorf("begin settle tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Условный дебет: версия и достаточность баланса проверяются
	// самим UPDATE, гонка с параллельной мутацией проигрывается здесь.
	var user domain.User
	err = tx.QueryRowContext(ctx, `
		UPDATE users
		SET balance_minor = balance_minor - $2,
		    version = version + 1,
		    updated_at = $3
		WHERE email = $1
		  AND version = $4
		  AND balance_minor >= $2
		RETURNING email, name, balance_minor, address, version, created_at, updated_at
	`, email, req.TotalMinor, req.Now, req.UserVersion).Scan(
		&user.Email, &user.Name, &user.BalanceMinor, &user.Address,
		&user.Version, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.diagnoseUserFailure(ctx, tx, email, req)
			return domain.User{}, domain.Cart{}, err
		}
		err = fmt.Errorf("debit wallet: %w", err)
		return domain.User{}, domain.Cart{}, err
	}

	var cart domain.Cart
	err = tx.QueryRowContext(ctx, `
		UPDATE carts
		SET lines = '[]'::jsonb,
		    version = version + 1,
		    updated_at = $2
		WHERE email = $1
		  AND version = $3
		RETURNING email, version, created_at, updated_at
	`, email, req.Now, req.CartVersion).Scan(
		&cart.Email, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = s.diagnoseCartFailure(ctx, tx, email)
			return domain.User{}, domain.Cart{}, err
		}
		err = fmt.Errorf("clear cart: %w", err)
		return domain.User{}, domain.Cart{}, err
	}
	cart.Lines = []domain.CartLine{}

	event := req.Event
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if err = enqueueTx(ctx, tx, event); err != nil {
		return domain.User{}, domain.Cart{}, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit settle tx: %w", err)
		return domain.User{}, domain.Cart{}, err
	}

	return user, cart, nil
}

// diagnoseUserFailure различает причины отказа условного дебета.
func (s *settlementStore) diagnoseUserFailure(ctx context.Context, tx *sql.Tx, email string, req domain.SettlementRequest) error {
	var (
		version int64
		balance int64
	)
	err := tx.QueryRowContext(ctx, `
		SELECT version, balance_minor FROM users WHERE email = $1
	`, email).Scan(&version, &balance)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrUserNotFound
	}
	if err != nil {
		return fmt.Errorf("diagnose debit failure: %w", err)
	}
	if version != req.UserVersion {
		return domain.ErrVersionConflict
	}
	if balance < req.TotalMinor {
		return domain.ErrInsufficientBalance
	}
	return domain.ErrVersionConflict
}

func (s *settlementStore) diagnoseCartFailure(ctx context.Context, tx *sql.Tx, email string) error {
	var found string
	err := tx.QueryRowContext(ctx, `SELECT email FROM carts WHERE email = $1`, email).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrCartNotFound
	}
	if err != nil {
		return fmt.Errorf("diagnose clear failure: %w", err)
	}
	return domain.ErrVersionConflict
}

var _ domain.SettlementStore = (*settlementStore)(nil)
