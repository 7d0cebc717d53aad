package auth

import (
	"fmt"
	"strings"

	"logitrack-backend/internal/config"
	"logitrack-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
)

const (
	CtxUserIDKey  = "user_id"
	CtxProfileKey = "user_profile"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization header is missing")
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return fiber.NewError(fiber.StatusUnauthorized, "Authorization format must be 'Bearer <token>'")
		}

		tokenStr := parts[1]

		token, err := jwt.ParseWithClaims(tokenStr, &JWTCustomClaims{}, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			return fiber.NewError(fiber.StatusUnauthorized, "Invalid or expired token")
		}

		claims, ok := token.Claims.(*JWTCustomClaims)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not parse token claims")
		}

		c.Locals(CtxUserIDKey, claims.UserID)
		c.Locals(CtxProfileKey, claims.Profile)

		return c.Next()
	}
}

// RequireProfile gates a route to the given profiles. A valid token with a
// profile outside the set is rejected as unauthorized; 403 is reserved for
// ownership violations inside the handlers.
func RequireProfile(allowed ...models.UserProfile) fiber.Handler {
	return func(c *fiber.Ctx) error {
		profile, ok := c.Locals(CtxProfileKey).(models.UserProfile)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Could not resolve profile from token")
		}

		for _, p := range allowed {
			if p == profile {
				return c.Next()
			}
		}
		return fiber.NewError(fiber.StatusUnauthorized, "Profile not allowed for this operation")
	}
}

// UserID returns the authenticated user id set by JWTMiddleware.
func UserID(c *fiber.Ctx) uint {
	id, _ := c.Locals(CtxUserIDKey).(uint)
	return id
}

// Profile returns the authenticated profile set by JWTMiddleware.
func Profile(c *fiber.Ctx) models.UserProfile {
	profile, _ := c.Locals(CtxProfileKey).(models.UserProfile)
	return profile
}
