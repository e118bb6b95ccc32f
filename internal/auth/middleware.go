package auth

import (
	"strings"

	"estoque-backend/internal/apperr"
	"estoque-backend/internal/config"

	"github.com/gofiber/fiber/v2"
)

const (
	CtxUserIDKey    = "user_id"
	CtxUserEmailKey = "user_email"
)

func JWTMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authHeader := c.Get(fiber.HeaderAuthorization)
		if authHeader == "" {
			return apperr.New(fiber.StatusUnauthorized, "Cabeçalho Authorization ausente", nil)
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			return apperr.New(fiber.StatusUnauthorized, "Authorization deve ter o formato 'Bearer <token>'", nil)
		}

		claims, err := ParseToken(cfg.JWTSecret, strings.TrimSpace(parts[1]))
		if err != nil {
			return apperr.Wrap(apperr.ErrUnauthorized, err)
		}
		userID, err := claims.UserID()
		if err != nil {
			return apperr.Wrap(apperr.ErrUnauthorized, err)
		}

		c.Locals(CtxUserIDKey, userID)
		c.Locals(CtxUserEmailKey, claims.Email)

		return c.Next()
	}
}

// Actor is the authenticated caller as stored in the request locals.
type Actor struct {
	ID    int64
	Email string
}

// CurrentActor returns the caller set by JWTMiddleware; ok is false on public routes.
func CurrentActor(c *fiber.Ctx) (Actor, bool) {
	id, ok := c.Locals(CtxUserIDKey).(int64)
	if !ok {
		return Actor{}, false
	}
	email, _ := c.Locals(CtxUserEmailKey).(string)
	return Actor{ID: id, Email: email}, true
}
