// Package identity verifies tokens minted by the external identity
// provider and decides admin capability. The provider's verdict on who the
// caller is gets trusted completely; this service only maps it to an
// allow-list policy.
package identity

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

const contextKey = "identity"

type Identity struct {
	UID     string `json:"uid"`
	Email   string `json:"email,omitempty"`
	IsAdmin bool   `json:"isAdmin"`
}

// AdminPolicy decides whether an identity may perform privileged
// operations. Injected so the allow-list can later be swapped for a real
// policy engine.
type AdminPolicy func(id Identity) bool

// AllowList grants admin to the listed emails, case-insensitive.
func AllowList(emails []string) AdminPolicy {
	allowed := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		allowed[strings.ToLower(strings.TrimSpace(e))] = struct{}{}
	}
	return func(id Identity) bool {
		if id.Email == "" {
			return false
		}
		_, ok := allowed[strings.ToLower(id.Email)]
		return ok
	}
}

type Middleware struct {
	Secret []byte
	Policy AdminPolicy
}

// Require authenticates the Bearer token and stores the resolved identity
// in the request context.
func (m *Middleware) Require(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if !strings.HasPrefix(header, "Bearer ") {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}

		token, err := jwt.Parse(strings.TrimPrefix(header, "Bearer "), func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
			}
			return m.Secret, nil
		})
		if err != nil || !token.Valid {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid token claims")
		}
		uid, ok := claims["sub"].(string)
		if !ok || uid == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid subject claim")
		}

		id := Identity{UID: uid}
		if email, ok := claims["email"].(string); ok {
			id.Email = email
		}
		if m.Policy != nil {
			id.IsAdmin = m.Policy(id)
		}

		c.Set(contextKey, id)
		return next(c)
	}
}

// AdminOnly gates privileged operations; use after Require.
func (m *Middleware) AdminOnly(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := From(c)
		if !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing token")
		}
		if !id.IsAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin only")
		}
		return next(c)
	}
}

func From(c echo.Context) (Identity, bool) {
	id, ok := c.Get(contextKey).(Identity)
	return id, ok
}

// Set is a test hook for handler tests that bypass the middleware.
func Set(c echo.Context, id Identity) {
	c.Set(contextKey, id)
}
