package memory_test

import (
	"testing"
	"time"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/storage/memory"
)

func newCart() domain.Cart {
	now := time.Now().UTC()
	return domain.Cart{
		Email: "user@example.com",
		Lines: []domain.CartLine{
			{
				ID:      "line-1",
				Product: domain.ProductSnapshot{ID: "prod-1", Name: "Ceramic Mug", CostMinor: 100},
				Qty:     2,
				AddedAt: now,
			},
		},
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestCartRepository_CreateGet(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()

	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByEmail(cart.Email)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Email != cart.Email || len(stored.Lines) != 1 {
		t.Fatalf("unexpected stored cart: %+v", stored)
	}
}

func TestCartRepository_GetMissing(t *testing.T) {
	repo := memory.NewCartRepository()

	_, err := repo.GetByEmail("nobody@example.com")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not-found, got %v", err)
	}
}

func TestCartRepository_CreateDuplicate(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()

	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := repo.Create(cart); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict on duplicate create, got %v", err)
	}
}

func TestCartRepository_Save(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.GetByEmail(cart.Email)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	stored.Lines[0].Qty = 7
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.GetByEmail(cart.Email)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if updated.Lines[0].Qty != 7 {
		t.Fatalf("expected qty 7, got %d", updated.Lines[0].Qty)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}
}

func TestCartRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	cart.Version = 42
	if err := repo.Save(cart); !domain.IsVersionConflict(err) {
		t.Fatalf("expected version conflict, got %v", err)
	}
}

func TestCartRepository_GetReturnsCopy(t *testing.T) {
	repo := memory.NewCartRepository()
	cart := newCart()
	if err := repo.Create(cart); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	first, err := repo.GetByEmail(cart.Email)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	first.Lines[0].Qty = 99

	second, err := repo.GetByEmail(cart.Email)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if second.Lines[0].Qty != 2 {
		t.Fatalf("stored cart mutated through returned copy: qty=%d", second.Lines[0].Qty)
	}
}
