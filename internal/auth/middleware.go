package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"
)

// LocalsUserID is the fiber.Locals key under which RequireToken stores the
// authenticated user's ID.
const LocalsUserID = "userID"

// RequireToken creates Fiber middleware that validates the bearer token on
// the Authorization header. On success the token subject is stored in
// fiber.Locals for downstream handlers.
func RequireToken(authority *TokenAuthority) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token := bearerToken(c)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		claims, err := authority.Verify(token)
		if err != nil {
			log.Debug().Err(err).Msg("rejected bearer token")

			return fiber.NewError(fiber.StatusUnauthorized, "invalid or expired token")
		}

		c.Locals(LocalsUserID, claims.Subject)

		return c.Next()
	}
}

// RequirePermission creates Fiber middleware that requires a specific
// permission. It must run after RequireToken.
func RequirePermission(authService *Service, permission string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		hasPermission, err := authService.HasPermission(userID, permission)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Str("permission", permission).
				Msg("failed to check permission")

			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		if !hasPermission {
			log.Warn().Str("user_id", userID).Str("permission", permission).
				Msg("user lacks required permission")

			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}

// RequireAnyPermission creates Fiber middleware that requires at least one
// of the given permissions. It must run after RequireToken.
func RequireAnyPermission(authService *Service, permissions ...string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := CurrentUserID(c)
		if userID == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "missing bearer token")
		}

		hasPermission, err := authService.HasAnyPermission(userID, permissions)
		if err != nil {
			log.Error().Err(err).Str("user_id", userID).Strs("permissions", permissions).
				Msg("failed to check permissions")

			return fiber.NewError(fiber.StatusInternalServerError, "internal server error")
		}

		if !hasPermission {
			log.Warn().Str("user_id", userID).Strs("permissions", permissions).
				Msg("user lacks required permissions")

			return fiber.NewError(fiber.StatusForbidden, "insufficient permissions")
		}

		return c.Next()
	}
}

// CurrentUserID returns the authenticated user's ID from the request
// context, or the empty string when RequireToken did not run.
func CurrentUserID(c *fiber.Ctx) string {
	userID, _ := c.Locals(LocalsUserID).(string)

	return userID
}

func bearerToken(c *fiber.Ctx) string {
	header := c.Get(fiber.HeaderAuthorization)

	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}

	return strings.TrimSpace(header[len(prefix):])
}
