package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/iliyamo/food-journal-api/internal/service"
)

// statusFor maps a service error kind to its HTTP status.
func statusFor(k service.Kind) int {
	switch k {
	case service.KindValidation:
		return http.StatusBadRequest
	case service.KindConflict:
		return http.StatusConflict
	case service.KindUnauthorized:
		return http.StatusUnauthorized
	case service.KindForbidden:
		return http.StatusForbidden
	case service.KindNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"detail": message}.  Internal causes are
// logged, never sent.
func writeError(c echo.Context, log *zap.Logger, err error) error {
	var se *service.Error
	if !errors.As(err, &se) {
		log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"detail": service.MsgUnexpected})
	}
	if se.Kind == service.KindInternal && se.Err != nil {
		log.Error(se.Message, zap.String("path", c.Path()), zap.Error(se.Err))
	}
	if se.Kind == service.KindUnauthorized {
		c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	}
	return c.JSON(statusFor(se.Kind), echo.Map{"detail": se.Message})
}

// decode binds the request into dst and runs the struct validator.  On
// failure it returns a message for a 422 response.
func decode(c echo.Context, dst interface{}) (string, bool) {
	if err := c.Bind(dst); err != nil {
		return "invalid body", false
	}
	if err := c.Validate(dst); err != nil {
		return err.Error(), false
	}
	return "", true
}
