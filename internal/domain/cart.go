package domain

import "time"

// CartLine — одна позиция корзины: снимок товара и количество.
type CartLine struct {
	// ID позволяет однозначно удалить позицию независимо от её индекса.
	ID string `json:"id"`
	// Product — копия полей каталога на момент добавления.
	Product ProductSnapshot `json:"product"`
	// Qty — количество единиц, всегда строго положительное.
	Qty int32 `json:"qty"`
	// AddedAt фиксирует момент появления позиции в корзине.
	AddedAt time.Time `json:"added_at"`
}

// Cart агрегирует позиции покупателя. На один email — не более одной корзины.
type Cart struct {
	Email     string
	Lines     []CartLine
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEmpty сообщает, пуста ли корзина.
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// TotalMinor считает итог корзины: сумма qty × cost по всем позициям.
func (c *Cart) TotalMinor() int64 {
	var total int64
	for _, line := range c.Lines {
		total += int64(line.Qty) * line.Product.CostMinor
	}
	return total
}

// FindLine возвращает индекс позиции с указанным товаром или -1.
func (c *Cart) FindLine(productID string) int {
	for i, line := range c.Lines {
		if line.Product.ID == productID {
			return i
		}
	}
	return -1
}

// ValidateInvariants проверяет инварианты корзины и возвращает список замечаний.
func (c *Cart) ValidateInvariants() []error {
	var errs []error

	seen := make(map[string]struct{}, len(c.Lines))
	for _, line := range c.Lines {
		if line.Qty <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if _, dup := seen[line.Product.ID]; dup {
			errs = append(errs, ErrProductAlreadyInCart)
		}
		seen[line.Product.ID] = struct{}{}
	}

	return errs
}
