package middleware

import (
	"context"
	"strings"

	"coinvest-api/internal/core/domain"
	"coinvest-api/internal/core/services"
	"coinvest-api/internal/pkg/jwt"
	"coinvest-api/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

const (
	localsPrincipal = "principal"
	localsClaims    = "claims"
)

// Authenticator resolves bearer tokens; implemented by services.IdentityService
type Authenticator interface {
	VerifyToken(token string) (*jwt.Claims, error)
	Authenticate(ctx context.Context, token string) (*domain.Principal, error)
}

// extractToken reads the access_token cookie, then the Authorization header
func extractToken(c *fiber.Ctx) string {
	// 1. Try to get token from cookie first
	if token := c.Cookies("access_token"); token != "" {
		return token
	}

	// 2. If not in cookie, try Authorization header
	authHeader := c.Get("Authorization")
	if strings.HasPrefix(authHeader, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	}
	return ""
}

// AuthMiddleware authenticates the caller and stores the principal in locals
func AuthMiddleware(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := auth.Authenticate(c.UserContext(), extractToken(c))
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(localsPrincipal, principal)
		return c.Next()
	}
}

// RequireToken only verifies the token; used before a profile exists
func RequireToken(auth Authenticator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := auth.VerifyToken(extractToken(c))
		if err != nil {
			return response.FromError(c, err)
		}

		c.Locals(localsClaims, claims)
		return c.Next()
	}
}

// RoleMiddleware requires the authenticated principal to hold role
func RoleMiddleware(role domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := services.Authorize(CurrentPrincipal(c), role); err != nil {
			return response.FromError(c, err)
		}
		return c.Next()
	}
}

// AdminOnly middleware allows only the admin role
func AdminOnly() fiber.Handler {
	return RoleMiddleware(domain.RoleAdmin)
}

// CurrentPrincipal returns the principal set by AuthMiddleware, or nil
func CurrentPrincipal(c *fiber.Ctx) *domain.Principal {
	p, _ := c.Locals(localsPrincipal).(*domain.Principal)
	return p
}

// CurrentClaims returns the claims set by RequireToken, or nil
func CurrentClaims(c *fiber.Ctx) *jwt.Claims {
	claims, _ := c.Locals(localsClaims).(*jwt.Claims)
	return claims
}
