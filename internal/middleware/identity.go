package middleware

// identity.go defines accessors for the values BearerAuth stores in the
// Echo context, shared by handlers and the other middleware.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user id, or false on routes that did
// not pass through BearerAuth.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id != 0
}

// AccessToken returns the raw bearer token of the current request.
func AccessToken(c echo.Context) (string, bool) {
	tok, ok := c.Get(ctxAccessToken).(string)
	return tok, ok && tok != ""
}

// userLabel is the user id as a string, or "guest" when unauthenticated.
func userLabel(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "guest"
}
