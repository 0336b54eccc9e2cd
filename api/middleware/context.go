package middleware

import (
	"context"
	"fmt"

	pkgAuth "github.com/angelmondragon/canteen-coupons/pkg/auth"
)

// principalScope names the caller for per-account keys, e.g. "employee:7".
// Anonymous callers get an empty scope.
func principalScope(ctx context.Context) string {
	p := pkgAuth.PrincipalFromContext(ctx)
	if !p.IsAuthenticated() {
		return ""
	}
	return fmt.Sprintf("%s:%d", p.Kind, p.AccountID())
}
