package auth

import (
	"log/slog"
	"net/http"

	coreUser "github.com/frahmantamala/performance-tracker/internal/core/user"
	"github.com/frahmantamala/performance-tracker/internal/transport"
)

type RBACAuthorization struct {
	*transport.BaseHandler
}

func NewRBACAuthorization(logger *slog.Logger) *RBACAuthorization {
	return &RBACAuthorization{BaseHandler: transport.NewBaseHandler(logger)}
}

// RequireRoles admits requests whose principal holds one of roles.
func (ra *RBACAuthorization) RequireRoles(roles ...coreUser.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				ra.Logger.Warn("authorization check failed: user not found in context")
				ra.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			if !user.HasRole(roles...) {
				ra.Logger.WarnContext(r.Context(), "access denied: insufficient role",
					"user_id", user.ID,
					"role", user.Role,
					"required_roles", roles)
				ra.WriteError(w, http.StatusForbidden, "insufficient role for this action")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func (ra *RBACAuthorization) RequireManager() func(http.Handler) http.Handler {
	return ra.RequireRoles(coreUser.RoleManager, coreUser.RoleHRAdmin)
}

func (ra *RBACAuthorization) RequireHRAdmin() func(http.Handler) http.Handler {
	return ra.RequireRoles(coreUser.RoleHRAdmin)
}
