package rest

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
)

// CartHandler обслуживает HTTP-операции над корзиной.
type CartHandler struct {
	engine *cart.Service
}

// NewCartHandler конструирует обработчик корзины.
func NewCartHandler(engine *cart.Service) *CartHandler {
	return &CartHandler{engine: engine}
}

type addProductRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type updateQuantityRequest struct {
	ProductID string `json:"product_id"`
	Qty       int32  `json:"qty"`
}

type cartLineResponse struct {
	ID      string                 `json:"id"`
	Product domain.ProductSnapshot `json:"product"`
	Qty     int32                  `json:"qty"`
	AddedAt time.Time              `json:"added_at"`
}

type cartResponse struct {
	Email      string             `json:"email"`
	Lines      []cartLineResponse `json:"lines"`
	TotalMinor int64              `json:"total_minor"`
	UpdatedAt  time.Time          `json:"updated_at"`
}

func newCartResponse(c domain.Cart) cartResponse {
	lines := make([]cartLineResponse, 0, len(c.Lines))
	for _, line := range c.Lines {
		lines = append(lines, cartLineResponse{
			ID:      line.ID,
			Product: line.Product,
			Qty:     line.Qty,
			AddedAt: line.AddedAt,
		})
	}
	return cartResponse{
		Email:      c.Email,
		Lines:      lines,
		TotalMinor: c.TotalMinor(),
		UpdatedAt:  c.UpdatedAt,
	}
}

// Get возвращает корзину аутентифицированного пользователя.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	got, err := h.engine.GetCart(r.Context(), user)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(got))
}

// Add добавляет товар в корзину.
func (h *CartHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	var req addProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	got, err := h.engine.AddProduct(r.Context(), user, req.ProductID, req.Qty)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(got))
}

// UpdateQuantity заменяет количество существующей позиции.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	var req updateQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.ProductID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product_id is required")
		return
	}

	got, err := h.engine.UpdateQuantity(r.Context(), user, req.ProductID, req.Qty)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(got))
}

// Remove удаляет товар из корзины.
func (h *CartHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	productID := chi.URLParam(r, "productID")
	if productID == "" {
		respondError(w, http.StatusBadRequest, "invalid_request", "product id is required")
		return
	}

	if err := h.engine.RemoveProduct(r.Context(), user, productID); err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusNoContent, nil)
}

// Checkout оформляет корзину и списывает итог с кошелька.
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	user, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	got, err := h.engine.Checkout(r.Context(), user)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(got))
}
