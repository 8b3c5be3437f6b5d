package memory

import (
	"strings"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// userRepositoryInMemory — простая in-memory реализация UserRepository.
type userRepositoryInMemory struct {
	mu    sync.RWMutex
	items map[string]domain.User
}

// NewUserRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewUserRepository() domain.UserRepository {
	return &userRepositoryInMemory{
		items: make(map[string]domain.User),
	}
}

// Create сохраняет нового пользователя, если email ещё не занят.
func (r *userRepositoryInMemory) Create(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	if _, exists := r.items[key]; exists {
		return domain.ErrEmailTaken
	}
	r.items[key] = user
	return nil
}

// GetByEmail возвращает пользователя или ErrUserNotFound.
func (r *userRepositoryInMemory) GetByEmail(email string) (domain.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, ok := r.items[normalizeEmail(email)]
	if !ok {
		return domain.User{}, domain.ErrUserNotFound
	}
	return user, nil
}

// UpdateAddress меняет адрес доставки; версия записи растёт, чтобы
// конкурентный Save по старому снимку проиграл гонку.
func (r *userRepositoryInMemory) UpdateAddress(email, address string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(email)
	current, ok := r.items[key]
	if !ok {
		return domain.ErrUserNotFound
	}
	current.Address = address
	current.UpdatedAt = time.Now().UTC()
	current.Version++
	r.items[key] = current
	return nil
}

// Save перезаписывает пользователя, проверяя версию (optimistic locking).
func (r *userRepositoryInMemory) Save(user domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := normalizeEmail(user.Email)
	current, ok := r.items[key]
	if !ok {
		return domain.ErrUserNotFound
	}
	if current.Version != user.Version {
		return domain.ErrVersionConflict
	}
	// Инкрементируем версию перед сохранением.
	user.Version++
	r.items[key] = user
	return nil
}

// normalizeEmail приводит ключ к нижнему регистру: email регистронезависим.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

var _ domain.UserRepository = (*userRepositoryInMemory)(nil)
