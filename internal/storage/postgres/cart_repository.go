package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository создаёт PostgreSQL-реализацию CartRepository.
// Позиции хранятся как JSONB-документ: корзина читается и пишется целиком,
// снимки товаров лежат внутри позиций.
func NewCartRepository(store *Store) domain.CartRepository {
	return &cartRepository{db: store.DB()}
}

func (r *cartRepository) GetByEmail(email string) (domain.Cart, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var (
		cart     domain.Cart
		rawLines []byte
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT email, lines, version, created_at, updated_at
		FROM carts
		WHERE email = $1
	`, normalizeEmail(email)).Scan(
		&cart.Email, &rawLines, &cart.Version, &cart.CreatedAt, &cart.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Cart{}, domain.ErrCartNotFound
		}
		return domain.Cart{}, fmt.Errorf("select cart: %w", err)
	}

	if err := json.Unmarshal(rawLines, &cart.Lines); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart lines: %w", err)
	}
	return cart, nil
}

func (r *cartRepository) Create(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rawLines, err := marshalLines(cart.Lines)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (email, lines, version, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5)
	`,
		normalizeEmail(cart.Email), rawLines, cart.Version, cart.CreatedAt, cart.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrVersionConflict
		}
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *cartRepository) Save(cart domain.Cart) error {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	rawLines, err := marshalLines(cart.Lines)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
		UPDATE carts
		SET lines = $2,
		    version = version + 1,
		    updated_at = $3
		WHERE email = $1
		  AND version = $4
	`,
		normalizeEmail(cart.Email), rawLines, cart.UpdatedAt, cart.Version,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		exists, err := r.cartExists(ctx, cart.Email)
		if err != nil {
			return err
		}
		if !exists {
			return domain.ErrCartNotFound
		}
		return domain.ErrVersionConflict
	}
	return nil
}

func (r *cartRepository) cartExists(ctx context.Context, email string) (bool, error) {
	var found string
	err := r.db.QueryRowContext(ctx, `SELECT email FROM carts WHERE email = $1`, normalizeEmail(email)).Scan(&found)
	if err == nil {
		return true, nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return false, fmt.Errorf("check cart exists: %w", err)
}

func marshalLines(lines []domain.CartLine) ([]byte, error) {
	if lines == nil {
		lines = []domain.CartLine{}
	}
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("marshal cart lines: %w", err)
	}
	return raw, nil
}

var _ domain.CartRepository = (*cartRepository)(nil)
