package middleware

import (
	"fmt"
	"net/http"

	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/auth"
	"github.com/cmlabs-hris/admin-portal-backend/internal/domain/user"
	"github.com/cmlabs-hris/admin-portal-backend/internal/handler/http/response"
)

// RequireReviewer requires hr or admin role
func RequireReviewer(next http.Handler) http.Handler {
	return requireRoles(user.ErrReviewerAccessRequired, user.RoleHR, user.RoleAdmin)(next)
}

// RequireApprover requires a role that may decide access requests
func RequireApprover(next http.Handler) http.Handler {
	return requireRoles(user.ErrApproverAccessRequired, user.RoleManager, user.RoleHR, user.RoleAdmin)(next)
}

func requireRoles(denied error, roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.HandleError(w, auth.ErrInvalidToken)
				return
			}
			for _, role := range roles {
				if actor.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.Forbidden(w, denied.Error())
		})
	}
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			actor, ok := ActorFromContext(r.Context())
			if !ok {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(actor.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, actor.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
