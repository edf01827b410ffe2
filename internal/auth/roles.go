package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/contractor-portal/internal/domain"
	"github.com/spec-kit/contractor-portal/pkg/util/errorutil"
)

// RequireRole ensures the authenticated user holds one of the allowed roles.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return errorutil.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[principal.User.Role]; !exists {
			return errorutil.NewForbidden("insufficient role")
		}
		return c.Next()
	}
}

// RequireAdmin guards the approval back office.
func RequireAdmin() fiber.Handler {
	return RequireRole(domain.RoleAdmin)
}
