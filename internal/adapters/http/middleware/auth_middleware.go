package middleware

import (
	"errors"
	"strings"

	"gie-wallet/internal/config"
	"gie-wallet/internal/core/domain"
	"gie-wallet/internal/core/services"
	"gie-wallet/internal/pkg/jwt"
	"gie-wallet/internal/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// AccessTokenCookie names the wallet access token cookie
const AccessTokenCookie = "access_token"

// LocalSession is the fiber.Locals key of the authenticated *domain.WalletSession
const LocalSession = "walletSession"

// AuthMiddleware requires a valid access token bound to a live wallet session
func AuthMiddleware(cfg *config.Config, wallets *services.WalletService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// 1. Cookie first, then Authorization header
		accessToken := c.Cookies(AccessTokenCookie)
		if accessToken == "" {
			authHeader := c.Get("Authorization")
			if strings.HasPrefix(authHeader, "Bearer ") {
				accessToken = strings.TrimPrefix(authHeader, "Bearer ")
			}
		}

		if accessToken == "" {
			return response.Unauthorized(c, "Access token required")
		}

		// 2. Validate token
		claims, err := jwt.ValidateAccessToken(accessToken, cfg.JWT.Secret)
		if err != nil {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return response.Unauthorized(c, "Access token expired")
			}
			return response.Unauthorized(c, "Invalid access token")
		}

		// 3. Load the wallet session it points at
		session, err := wallets.Session(c.UserContext(), claims.SessionID)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrSessionExpired):
				return response.Unauthorized(c, "Wallet session expired")
			case errors.Is(err, domain.ErrSessionNotFound):
				return response.Unauthorized(c, "Wallet session closed")
			default:
				return err
			}
		}

		c.Locals(LocalSession, session)
		return c.Next()
	}
}

// CurrentSession returns the session set by AuthMiddleware
func CurrentSession(c *fiber.Ctx) (*domain.WalletSession, bool) {
	session, ok := c.Locals(LocalSession).(*domain.WalletSession)
	return session, ok
}
