package middleware

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/eventhub-pro/eventhub-api/models"
)

type contextKey string

const identityContextKey contextKey = "identity"

// Identity - аутентифицированный пользователь текущего запроса.
type Identity struct {
	UserID int
	Email  string
	Role   models.UserRole
}

func (i Identity) IsAdmin() bool {
	return i.Role == models.RoleAdmin
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityContextKey).(Identity)
	return id, ok && id.UserID > 0
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": message})
}
