package domain

import "time"

const (
	// DefaultAddress — сентинел «адрес не задан», назначается при регистрации.
	DefaultAddress = "ADDRESS_NOT_SET"
	// DefaultBalanceMinor — стартовый баланс кошелька в минорных единицах (500.00).
	DefaultBalanceMinor = int64(50000)
)

// User — покупатель с кошельком и адресом доставки. Ключ идентичности — email.
type User struct {
	Email        string
	Name         string
	BalanceMinor int64
	Address      string
	Version      int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasSetAddress сообщает, задан ли адрес доставки (не сентинел и не пустая строка).
func (u *User) HasSetAddress() bool {
	return u.Address != "" && u.Address != DefaultAddress
}

// CanAfford проверяет, покрывает ли баланс кошелька указанную сумму.
func (u *User) CanAfford(amountMinor int64) bool {
	return u.BalanceMinor >= amountMinor
}
