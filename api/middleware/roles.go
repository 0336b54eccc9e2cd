package middleware

import (
	"net/http"

	"github.com/angelmondragon/canteen-coupons/api/responses"
	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
	"github.com/angelmondragon/canteen-coupons/pkg/enums"
	pkgerrors "github.com/angelmondragon/canteen-coupons/pkg/errors"
	"github.com/angelmondragon/canteen-coupons/pkg/logger"
)

// guard rejects requests whose principal fails allow. Anonymous callers get
// 401; authenticated callers that fail the check get 403.
func guard(logg *logger.Logger, message string, allow func(pkgAuth.Principal) bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := pkgAuth.PrincipalFromContext(r.Context())
			if !p.IsAuthenticated() {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required"))
				return
			}
			if !allow(p) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, message))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func RequireAuthenticated(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, "authentication required", func(pkgAuth.Principal) bool { return true })
}

func RequireAdmin(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, "admin role required", pkgAuth.Principal.IsAdmin)
}

// RequireSuperAdmin admits only the reserved super admin account.
func RequireSuperAdmin(reservedEmployeeID string, logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, "super admin required", func(p pkgAuth.Principal) bool {
		return p.IsSuperAdmin(reservedEmployeeID)
	})
}

func RequireContractor(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, "contractor account required", pkgAuth.Principal.IsContractor)
}

// RequireEmployee admits any logged-in employee regardless of role.
func RequireEmployee(logg *logger.Logger) func(http.Handler) http.Handler {
	return guard(logg, "employee account required", func(p pkgAuth.Principal) bool {
		return p.Kind == enums.PrincipalKindEmployee && p.Employee != nil
	})
}

// RequireEmployeeRole admits employees holding any of roles.
func RequireEmployeeRole(logg *logger.Logger, roles ...enums.EmployeeRole) func(http.Handler) http.Handler {
	return guard(logg, "role required", func(p pkgAuth.Principal) bool {
		return p.HasEmployeeRole(roles...)
	})
}
