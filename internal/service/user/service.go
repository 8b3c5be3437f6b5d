package user

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// minAddressLength отсекает заведомо неполные адреса доставки.
const minAddressLength = 20

// Service — регистрация пользователей и управление профилем.
// Кошелёк создаётся вместе с пользователем со стартовым балансом.
type Service struct {
	users  domain.UserRepository
	logger *log.Entry
}

// NewService конструирует сервис пользователей.
func NewService(users domain.UserRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "user-service")
	}
	return &Service{users: users, logger: logger}
}

// Register создаёт пользователя со стартовым балансом и незаданным адресом.
// Занятый email возвращается как ErrEmailTaken.
func (s *Service) Register(ctx context.Context, email, name string) (domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if _, err := mail.ParseAddress(email); err != nil {
		return domain.User{}, fmt.Errorf("%w: %q is not a valid email", domain.ErrInvalidEmail, email)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.User{}, domain.ErrNameEmpty
	}

	now := time.Now().UTC()
	user := domain.User{
		Email:        email,
		Name:         name,
		BalanceMinor: domain.DefaultBalanceMinor,
		Address:      domain.DefaultAddress,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(user); err != nil {
		return domain.User{}, err
	}

	s.logger.WithField("email", email).Info("user registered")
	return user, nil
}

// GetByEmail возвращает пользователя или ErrUserNotFound.
func (s *Service) GetByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.users.GetByEmail(strings.ToLower(strings.TrimSpace(email)))
}

// SetAddress задаёт адрес доставки. Слишком короткий адрес отклоняется,
// сентинел задать нельзя.
func (s *Service) SetAddress(ctx context.Context, email, address string) (domain.User, error) {
	address = strings.TrimSpace(address)
	if len(address) < minAddressLength || address == domain.DefaultAddress {
		return domain.User{}, domain.ErrAddressInvalid
	}

	email = strings.ToLower(strings.TrimSpace(email))
	if err := s.users.UpdateAddress(email, address); err != nil {
		return domain.User{}, fmt.Errorf("update address: %w", err)
	}

	updated, err := s.users.GetByEmail(email)
	if err != nil {
		return domain.User{}, fmt.Errorf("reload user: %w", err)
	}

	s.logger.WithField("email", email).Info("address updated")
	return updated, nil
}
