package domain

import "errors"

var (
	// ErrUserNotFound возвращается, если пользователь не найден в хранилище.
	ErrUserNotFound = errors.New("user not found")
	// ErrEmailTaken возвращается при попытке регистрации на занятый email.
	ErrEmailTaken = errors.New("email already taken")
	// ErrInvalidEmail — строка не является корректным email.
	ErrInvalidEmail = errors.New("invalid email")
	// ErrNameEmpty — имя пользователя обязательно при регистрации.
	ErrNameEmpty = errors.New("name must not be empty")
	// ErrAddressInvalid — адрес доставки слишком короткий или совпадает с сентинелом.
	ErrAddressInvalid = errors.New("invalid address")
	// ErrCartNotFound возвращается, если у пользователя нет корзины.
	ErrCartNotFound = errors.New("user does not have a cart")
	// ErrCartMissing — корзины нет там, где операция требует её наличия.
	ErrCartMissing = errors.New("no cart; use add instead")
	// ErrCartEmpty — попытка оформить заказ по пустой корзине.
	ErrCartEmpty = errors.New("cart is empty")
	// ErrProductNotFound — товар отсутствует в каталоге.
	ErrProductNotFound = errors.New("product does not exist")
	// ErrProductNotInCart — товара нет среди позиций корзины.
	ErrProductNotInCart = errors.New("product not in cart")
	// ErrProductAlreadyInCart — товар уже добавлен в корзину (уникальность позиций).
	ErrProductAlreadyInCart = errors.New("product already in cart")
	// ErrQuantityInvalid — количество должно быть строго положительным.
	ErrQuantityInvalid = errors.New("quantity must be greater than zero")
	// ErrAddressNotSet — адрес доставки не задан, checkout невозможен.
	ErrAddressNotSet = errors.New("address not set")
	// ErrInsufficientBalance — на кошельке недостаточно средств под итог корзины.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrVersionConflict сигнализирует о конфликте версий при сохранении записи.
	ErrVersionConflict = errors.New("version conflict")
	// ErrSettlementInconsistent — списание и очистка корзины применились не как единое целое.
	// Такое состояние требует внешней сверки и никогда не маскируется.
	ErrSettlementInconsistent = errors.New("settlement left inconsistent state")
	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")
)

// IsNotFound проверяет, относится ли ошибка к классу "сущность отсутствует".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrCartNotFound)
}

// IsInvalidRequest проверяет, является ли ошибка нарушением бизнес-предусловия.
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrCartMissing) ||
		errors.Is(err, ErrCartEmpty) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrProductNotInCart) ||
		errors.Is(err, ErrQuantityInvalid) ||
		errors.Is(err, ErrAddressNotSet) ||
		errors.Is(err, ErrAddressInvalid) ||
		errors.Is(err, ErrInvalidEmail) ||
		errors.Is(err, ErrNameEmpty) ||
		errors.Is(err, ErrInsufficientBalance)
}

// IsConflict проверяет, является ли ошибка нарушением уникальности
// или проигранной гонкой за запись.
func IsConflict(err error) bool {
	return errors.Is(err, ErrProductAlreadyInCart) ||
		errors.Is(err, ErrEmailTaken) ||
		errors.Is(err, ErrVersionConflict)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}
