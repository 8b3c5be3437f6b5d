package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

type productCatalog struct {
	db *sql.DB
}

// NewProductCatalog создаёт read-only каталог товаров поверх PostgreSQL.
func NewProductCatalog(store *Store) domain.ProductCatalog {
	return &productCatalog{db: store.DB()}
}

func (c *productCatalog) GetByID(id string) (domain.ProductSnapshot, error) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	var product domain.ProductSnapshot
	err := c.db.QueryRowContext(ctx, `
		SELECT id, name, category, cost_minor, rating, image_url
		FROM products
		WHERE id = $1
	`, id).Scan(
		&product.ID, &product.Name, &product.Category,
		&product.CostMinor, &product.Rating, &product.ImageURL,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ProductSnapshot{}, domain.ErrProductNotFound
		}
		return domain.ProductSnapshot{}, fmt.Errorf("select product: %w", err)
	}
	return product, nil
}

var _ domain.ProductCatalog = (*productCatalog)(nil)
