package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// productCatalogInMemory — in-memory каталог товаров, read-only для движка.
type productCatalogInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.ProductSnapshot
}

// NewProductCatalog создаёт каталог с заданным набором товаров.
func NewProductCatalog(products ...domain.ProductSnapshot) *productCatalogInMemory {
	catalog := &productCatalogInMemory{
		items: make(map[string]domain.ProductSnapshot, len(products)),
	}
	for _, p := range products {
		catalog.items[p.ID] = p
	}
	return catalog
}

// GetByID возвращает снимок товара или ErrProductNotFound.
func (c *productCatalogInMemory) GetByID(id string) (domain.ProductSnapshot, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	product, ok := c.items[id]
	if !ok {
		return domain.ProductSnapshot{}, domain.ErrProductNotFound
	}
	return product, nil
}

// Put добавляет или заменяет товар; каталогом владеет внешняя подсистема,
// поэтому метод нужен только для наполнения в тестах и локальных запусках.
func (c *productCatalogInMemory) Put(product domain.ProductSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[product.ID] = product
}

var _ domain.ProductCatalog = (*productCatalogInMemory)(nil)
