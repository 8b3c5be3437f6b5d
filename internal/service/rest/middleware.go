package rest

import (
	"context"
	"net/http"
	"strings"

	"github.com/vladislavdragonenkov/cartsvc/internal/domain"
)

type contextKey string

// userContextKey хранит аутентифицированного пользователя в контексте запроса.
const userContextKey contextKey = "authenticated-user"

// authMiddleware резолвит bearer-credential в пользователя и кладёт его
// в контекст. Запросы без валидного credential получают 401.
func authMiddleware(resolver domain.AuthResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			credential := bearerCredential(r)
			if credential == "" {
				respondError(w, http.StatusUnauthorized, "unauthorized", "missing bearer credential")
				return
			}

			user, err := resolver.Resolve(r.Context(), credential)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "unauthorized", "unknown credential")
				return
			}

			ctx := context.WithValue(r.Context(), userContextKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func bearerCredential(r *http.Request) string {
	header := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// userFromContext возвращает пользователя, положенного authMiddleware.
func userFromContext(ctx context.Context) (domain.User, bool) {
	user, ok := ctx.Value(userContextKey).(domain.User)
	return user, ok
}
