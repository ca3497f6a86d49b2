package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"context"  // context bounds the blacklist lookup
	"errors"   // errors unwraps service errors
	"net/http" // HTTP status codes for responses
	"strings"  // string utilities for prefix checking and trimming
	"time"

	"github.com/labstack/echo/v4" // Echo framework used for defining middleware and handlers

	"github.com/iliyamo/food-journal-api/internal/service"
)

// Context keys set by BearerAuth.
const (
	ctxUserID      = "user_id"
	ctxAccessToken = "access_token"
)

// Authenticator answers "who is presenting this token".  It is satisfied by
// *service.SessionValidator.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (uint64, error)
}

// BearerAuth returns an Echo middleware that requires an
// `Authorization: Bearer <token>` header and resolves it to a user id via
// auth.  A missing or malformed header is rejected with 403 before auth is
// consulted; a token auth refuses yields 401.  On success handlers can
// read the user id and raw token with UserID and AccessToken.
func BearerAuth(auth Authenticator, timeout time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return notAuthenticated(c)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), timeout)
			defer cancel()
			uid, err := auth.Authenticate(ctx, raw)
			if err != nil {
				status := http.StatusInternalServerError
				if service.KindOf(err) == service.KindUnauthorized {
					status = http.StatusUnauthorized
					c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
				}
				return c.JSON(status, echo.Map{"detail": errorMessage(err)})
			}

			c.Set(ctxUserID, uid)
			c.Set(ctxAccessToken, raw)
			return next(c)
		}
	}
}

// BearerToken only requires that an `Authorization: Bearer <token>` header
// is present and stores the raw token for AccessToken.  The token is not
// verified, so a handler behind it accepts revoked and expired tokens.
// Logout uses it: revoking a dead token again is harmless.
func BearerToken() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c)
			if !ok {
				return notAuthenticated(c)
			}
			c.Set(ctxAccessToken, raw)
			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
	raw = strings.TrimSpace(raw)
	if !ok || !strings.EqualFold(scheme, "Bearer") || raw == "" {
		return "", false
	}
	return raw, true
}

func notAuthenticated(c echo.Context) error {
	return c.JSON(http.StatusForbidden, echo.Map{"detail": "Not authenticated"})
}

func errorMessage(err error) string {
	var e *service.Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "Could not validate credentials"
}
