package middleware

import (
	"net/http"
	"strings"

	"github.com/eventhub-pro/eventhub-api/models"
	"github.com/eventhub-pro/eventhub-api/utils"
)

const (
	msgNoToken      = "Access denied. No token provided."
	msgInvalidToken = "Invalid or expired token"
	msgForbidden    = "Access denied"
)

// Authenticate требует заголовок "Authorization: Bearer <token>".
func Authenticate(secret []byte) func(http.Handler) http.Handler {
	return authenticate(secret, false)
}

// AuthenticateWS дополнительно принимает токен в параметре ?token=,
// так как браузер не может задать заголовок при открытии WebSocket.
func AuthenticateWS(secret []byte) func(http.Handler) http.Handler {
	return authenticate(secret, true)
}

func authenticate(secret []byte, allowQuery bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" && allowQuery {
				token = r.URL.Query().Get("token")
			}
			if token == "" {
				writeMessage(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			claims, err := utils.ParseToken(secret, token)
			if err != nil {
				writeMessage(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx := WithIdentity(r.Context(), Identity{
				UserID: claims.UserID,
				Email:  claims.Email,
				Role:   claims.Role,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Authorize пропускает только пользователей с одной из ролей.
// Должен стоять после Authenticate.
func Authorize(roles ...models.UserRole) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeMessage(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			for _, role := range roles {
				if role == id.Role {
					next.ServeHTTP(w, r)
					return
				}
			}

			writeMessage(w, http.StatusForbidden, msgForbidden)
		})
	}
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}
