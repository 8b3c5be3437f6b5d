package domain_test

import (
	"fmt"
	"testing"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

func TestIsNotFound(t *testing.T) {
	for _, err := range []error{domain.ErrUserNotFound, domain.ErrCartNotFound} {
		if !domain.IsNotFound(err) {
			t.Fatalf("expected %v to be not-found", err)
		}
	}
	if domain.IsNotFound(domain.ErrCartEmpty) {
		t.Fatal("cart-empty must not be not-found")
	}
}

func TestIsInvalidRequest(t *testing.T) {
	invalid := []error{
		domain.ErrCartMissing,
		domain.ErrCartEmpty,
		domain.ErrProductNotFound,
		domain.ErrProductNotInCart,
		domain.ErrQuantityInvalid,
		domain.ErrAddressNotSet,
		domain.ErrInsufficientBalance,
	}
	for _, err := range invalid {
		if !domain.IsInvalidRequest(err) {
			t.Fatalf("expected %v to be invalid-request", err)
		}
	}
	if domain.IsInvalidRequest(domain.ErrCartNotFound) {
		t.Fatal("cart-not-found must not be invalid-request")
	}
	if domain.IsInvalidRequest(domain.ErrVersionConflict) {
		t.Fatal("version conflict must not be invalid-request")
	}
}

func TestIsConflict(t *testing.T) {
	conflicts := []error{
		domain.ErrProductAlreadyInCart,
		domain.ErrEmailTaken,
		domain.ErrVersionConflict,
	}
	for _, err := range conflicts {
		if !domain.IsConflict(err) {
			t.Fatalf("expected %v to be conflict", err)
		}
	}
	if domain.IsConflict(domain.ErrCartEmpty) {
		t.Fatal("cart-empty must not be conflict")
	}
}

func TestIsVersionConflict_Wrapped(t *testing.T) {
	wrapped := fmt.Errorf("save cart: %w", domain.ErrVersionConflict)
	if !domain.IsVersionConflict(wrapped) {
		t.Fatal("expected wrapped version conflict to be detected")
	}
	if !domain.IsConflict(wrapped) {
		t.Fatal("expected wrapped version conflict to be conflict")
	}
}
