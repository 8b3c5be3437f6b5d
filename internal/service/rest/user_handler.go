package rest

import (
	"encoding/json"
	"net/http"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/user"
)

// UserHandler обслуживает регистрацию и профиль пользователя.
type UserHandler struct {
	users *user.Service
}

// NewUserHandler конструирует обработчик пользователей.
func NewUserHandler(users *user.Service) *UserHandler {
	return &UserHandler{users: users}
}

type registerRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
}

type setAddressRequest struct {
	Address string `json:"address"`
}

type userResponse struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	BalanceMinor int64  `json:"balance_minor"`
	Address      string `json:"address"`
	AddressSet   bool   `json:"address_set"`
}

func newUserResponse(u domain.User) userResponse {
	return userResponse{
		Email:        u.Email,
		Name:         u.Name,
		BalanceMinor: u.BalanceMinor,
		Address:      u.Address,
		AddressSet:   u.HasSetAddress(),
	}
}

// Register создаёт нового пользователя.
func (h *UserHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	got, err := h.users.Register(r.Context(), req.Email, req.Name)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, newUserResponse(got))
}

// Me возвращает профиль аутентифицированного пользователя.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	authed, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	// Свежие баланс и адрес читаются из хранилища, а не из снимка аутентификации.
	got, err := h.users.GetByEmail(r.Context(), authed.Email)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(got))
}

// SetAddress задаёт адрес доставки.
func (h *UserHandler) SetAddress(w http.ResponseWriter, r *http.Request) {
	authed, ok := userFromContext(r.Context())
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user")
		return
	}

	var req setAddressRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	got, err := h.users.SetAddress(r.Context(), authed.Email, req.Address)
	if err != nil {
		respondDomainError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, newUserResponse(got))
}
