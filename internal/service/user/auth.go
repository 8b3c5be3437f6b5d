package user

import (
	"context"
	"strings"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// EmailAuthResolver трактует bearer-credential как email пользователя.
// NOTE: подходит только для локальной разработки и тестов; в бою здесь
// должна стоять проверка подписанного токена.
type EmailAuthResolver struct {
	users domain.UserRepository
}

// NewEmailAuthResolver возвращает резолвер поверх репозитория пользователей.
func NewEmailAuthResolver(users domain.UserRepository) *EmailAuthResolver {
	return &EmailAuthResolver{users: users}
}

// Resolve сопоставляет credential пользователю или возвращает ErrUserNotFound.
func (r *EmailAuthResolver) Resolve(ctx context.Context, credential string) (domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(credential))
	if email == "" {
		return domain.User{}, domain.ErrUserNotFound
	}
	return r.users.GetByEmail(email)
}

var _ domain.AuthResolver = (*EmailAuthResolver)(nil)
