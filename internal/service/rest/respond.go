package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

// errorResponse — тело ответа при ошибке.
type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.WithError(err).Error("encode response failed")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, errorResponse{Error: message, Code: code})
}

// respondDomainError переводит ошибку движка в HTTP-статус.
// Повторное добавление товара считается ошибкой запроса, а не конфликтом
// ресурса, поэтому отдаёт 400.
func respondDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProductAlreadyInCart):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case domain.IsNotFound(err):
		respondError(w, http.StatusNotFound, "not_found", err.Error())
	case domain.IsInvalidRequest(err):
		respondError(w, http.StatusBadRequest, "invalid_request", err.Error())
	case domain.IsConflict(err):
		respondError(w, http.StatusConflict, "conflict", err.Error())
	default:
		log.WithError(err).Error("request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}
