package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/metrics"
)

// EventTypeCheckoutSettled — тип события успешного списания.
const EventTypeCheckoutSettled = "checkout.settled"

// settledLine — позиция корзины в payload события списания.
type settledLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Qty       int32  `json:"qty"`
	CostMinor int64  `json:"cost_minor"`
}

// settledPayload — payload события checkout.settled.
type settledPayload struct {
	Email      string        `json:"email"`
	TotalMinor int64         `json:"total_minor"`
	Lines      []settledLine `json:"lines"`
	SettledAt  time.Time     `json:"settled_at"`
}

// Checkout оформляет корзину пользователя: проверяет гарды в строгом
// порядке (наличие корзины, непустота, заданный адрес, достаточный баланс)
// и применяет списание как единое целое. Конфликт версий перечитывает
// состояние и повторяет все гарды с нуля; исчерпание попыток — ErrVersionConflict.
func (s *Service) Checkout(ctx context.Context, user domain.User) (domain.Cart, error) {
	start := time.Now()

	for attempt := 0; attempt < maxSaveAttempts; attempt++ {
		cart, err := s.carts.GetByEmail(user.Email)
		if err != nil {
			s.recordOp(metrics.OpCheckout, resultLabel(err))
			return domain.Cart{}, err
		}
		if cart.IsEmpty() {
			s.recordOp(metrics.OpCheckout, metrics.ResultInvalidRequest)
			return domain.Cart{}, domain.ErrCartEmpty
		}

		// Баланс, адрес и версия берутся свежим чтением, а не из
		// аутентифицированного снимка запроса.
		current, err := s.users.GetByEmail(user.Email)
		if err != nil {
			s.recordOp(metrics.OpCheckout, resultLabel(err))
			return domain.Cart{}, fmt.Errorf("load user: %w", err)
		}
		if !current.HasSetAddress() {
			s.recordOp(metrics.OpCheckout, metrics.ResultInvalidRequest)
			return domain.Cart{}, domain.ErrAddressNotSet
		}

		total := cart.TotalMinor()
		if !current.CanAfford(total) {
			s.recordOp(metrics.OpCheckout, metrics.ResultInvalidRequest)
			return domain.Cart{}, domain.ErrInsufficientBalance
		}

		now := time.Now().UTC()
		event, err := buildSettledEvent(cart, total, now)
		if err != nil {
			s.recordOp(metrics.OpCheckout, metrics.ResultInternal)
			return domain.Cart{}, err
		}

		settledUser, settledCart, err := s.settler.Settle(domain.SettlementRequest{
			Email:       current.Email,
			UserVersion: current.Version,
			CartVersion: cart.Version,
			TotalMinor:  total,
			Event:       event,
			Now:         now,
		})
		if err != nil {
			if domain.IsVersionConflict(err) {
				// Конкурентная мутация между чтением и списанием:
				// гарды пересчитываются по свежему состоянию.
				s.recordConflict()
				continue
			}
			if errors.Is(err, domain.ErrSettlementInconsistent) {
				s.logger.WithError(err).WithField("email", current.Email).
					Error("settlement left partial state, reconciliation required")
				s.recordOp(metrics.OpCheckout, metrics.ResultInternal)
				return domain.Cart{}, err
			}
			s.recordOp(metrics.OpCheckout, resultLabel(err))
			if domain.IsNotFound(err) || domain.IsInvalidRequest(err) {
				return domain.Cart{}, err
			}
			return domain.Cart{}, fmt.Errorf("settle checkout: %w", err)
		}

		s.invalidateCache(ctx, current.Email)
		s.recordOp(metrics.OpCheckout, metrics.ResultOK)
		if s.metrics != nil {
			s.metrics.RecordCheckoutDuration(time.Since(start))
		}
		s.logger.WithFields(log.Fields{
			"email":         current.Email,
			"total_minor":   total,
			"balance_minor": settledUser.BalanceMinor,
			"lines":         len(cart.Lines),
		}).Info("checkout settled")

		return settledCart, nil
	}

	s.recordOp(metrics.OpCheckout, metrics.ResultConflict)
	return domain.Cart{}, domain.ErrVersionConflict
}

// buildSettledEvent собирает outbox-событие списания по содержимому корзины.
func buildSettledEvent(cart domain.Cart, totalMinor int64, settledAt time.Time) (domain.OutboxMessage, error) {
	lines := make([]settledLine, 0, len(cart.Lines))
	for _, line := range cart.Lines {
		lines = append(lines, settledLine{
			ProductID: line.Product.ID,
			Name:      line.Product.Name,
			Qty:       line.Qty,
			CostMinor: line.Product.CostMinor,
		})
	}

	payload, err := json.Marshal(settledPayload{
		Email:      cart.Email,
		TotalMinor: totalMinor,
		Lines:      lines,
		SettledAt:  settledAt,
	})
	if err != nil {
		return domain.OutboxMessage{}, fmt.Errorf("marshal settlement event: %w", err)
	}

	return domain.OutboxMessage{
		AggregateType: "cart",
		AggregateID:   cart.Email,
		EventType:     EventTypeCheckoutSettled,
		Payload:       payload,
	}, nil
}
