package rest

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/cart"
	"github.com/vladislavdragonenkov/cartsvc/internal/service/user"
)

// requestTimeout ограничивает время обработки одного запроса.
const requestTimeout = 30 * time.Second

// NewRouter собирает HTTP API сервиса: регистрация открыта, остальные
// маршруты требуют bearer-credential.
func NewRouter(engine *cart.Service, users *user.Service, resolver domain.AuthResolver) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))

	cartHandler := NewCartHandler(engine)
	userHandler := NewUserHandler(users)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/users", userHandler.Register)

		r.Group(func(r chi.Router) {
			r.Use(authMiddleware(resolver))

			r.Get("/users/me", userHandler.Me)
			r.Put("/users/me/address", userHandler.SetAddress)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", cartHandler.Get)
				r.Post("/", cartHandler.Add)
				r.Put("/", cartHandler.UpdateQuantity)
				r.Delete("/{productID}", cartHandler.Remove)
				r.Post("/checkout", cartHandler.Checkout)
			})
		})
	})

	return r
}
