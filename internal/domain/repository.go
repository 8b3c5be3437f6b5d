package domain

// UserRepository описывает требования к хранилищу пользователей.
type UserRepository interface {
	// Create сохраняет нового пользователя. Возвращает ErrEmailTaken,
	// если email уже занят.
	Create(user User) error
	// GetByEmail возвращает пользователя или ErrUserNotFound.
	GetByEmail(email string) (User, error)
	// UpdateAddress меняет адрес доставки, не трогая остальные поля.
	UpdateAddress(email, address string) error
	// Save применяет обновления к пользователю с учётом optimistic locking.
	Save(user User) error
}

// CartRepository описывает требования к хранилищу корзин.
// Бизнес-правил здесь нет: репозиторий только транслирует операции в хранилище.
type CartRepository interface {
	// GetByEmail возвращает корзину пользователя или ErrCartNotFound.
	GetByEmail(email string) (Cart, error)
	// Create сохраняет новую корзину. Возвращает ErrVersionConflict,
	// если корзина для этого email уже существует.
	Create(cart Cart) error
	// Save перезаписывает полный набор позиций с учётом optimistic locking.
	Save(cart Cart) error
}

// ProductCatalog — read-only доступ к каталогу товаров.
// Создание и ценообразование товаров принадлежат другой подсистеме.
type ProductCatalog interface {
	// GetByID возвращает снимок товара или ErrProductNotFound.
	GetByID(id string) (ProductSnapshot, error)
}

// OutboxRepository позволяет сохранять события для последующей публикации.
type OutboxRepository interface {
	Enqueue(msg OutboxMessage) (OutboxMessage, error)
	PullPending(limit int) ([]OutboxMessage, error)
	Stats() (OutboxStats, error)
	MarkSent(id string) error
	MarkFailed(id string) error
}
