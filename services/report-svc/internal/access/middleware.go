// services/report-svc/internal/access/middleware.go
package access

import (
	"net/http"
	"strings"

	"assethub/pkg/passhash"
)

// Middleware извлекает identity из Bearer токена и кладёт её в контекст.
// Запрос без токена или с невалидным токеном проходит дальше анонимным,
// решение о доступе принимает AccessPolicy на конкретной операции.
func Middleware(manager *passhash.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" || manager == nil {
				next.ServeHTTP(w, r)
				return
			}

			claims, err := manager.ValidateToken(token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			identity := &Identity{
				UserID:   claims.UserID,
				Username: claims.Username,
				Role:     claims.Role,
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), identity)))
		})
	}
}

// bearerToken достаёт токен из заголовка Authorization
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
