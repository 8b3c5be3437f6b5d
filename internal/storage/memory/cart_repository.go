package memory

import (
	"sync"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// cartRepositoryInMemory — простая in-memory реализация CartRepository.
type cartRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.Cart
}

// NewCartRepository возвращает in-memory репозиторий корзин.
func NewCartRepository() domain.CartRepository {
	return &cartRepositoryInMemory{
		items: make(map[string]domain.Cart),
	}
}

// GetByEmail возвращает корзину или ErrCartNotFound.
func (r *cartRepositoryInMemory) GetByEmail(email string) (domain.Cart, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.items[normalizeEmail(email)]
	if !ok {
		return domain.Cart{}, domain.ErrCartNotFound
	}
	// Возвращаем копию позиций, чтобы избежать непредсказуемых мутаций извне.
	cart.Lines = cloneLines(cart.Lines)
	return cart, nil
}

// Create сохраняет новую корзину, если для email её ещё нет.
func (r *cartRepositoryInMemory) Create(cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(cart.Email)
	if _, exists := r.items[key]; exists {
		return domain.ErrVersionConflict
	}
	cart.Lines = cloneLines(cart.Lines)
	r.items[key] = cart
	return nil
}

// Save перезаписывает корзину, проверяя версию (optimistic locking).
func (r *cartRepositoryInMemory) Save(cart domain.Cart) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(cart.Email)
	current, ok := r.items[key]
	if !ok {
		return domain.ErrCartNotFound
	}
	if current.Version != cart.Version {
		return domain.ErrVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	cart.Version++
	cart.Lines = cloneLines(cart.Lines)
	r.items[key] = cart
	return nil
}

func cloneLines(lines []domain.CartLine) []domain.CartLine {
	cloned := make([]domain.CartLine, len(lines))
	copy(cloned, lines)
	return cloned
}

var _ domain.CartRepository = (*cartRepositoryInMemory)(nil)
