package middleware

import (
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/auth"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
)

func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor, ok := ActorFromContext(r.Context())
		if !ok {
			response.HandleError(w, auth.ErrInvalidToken)
			return
		}

		if actor.Role != user.RoleAdmin {
			response.Forbidden(w, user.ErrAdminAccessRequired.Error())
			return
		}

		next.ServeHTTP(w, r)
	})
}
