package presenter

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/totegamma/carelog"
)

// OK wraps a successful response.
func OK(c echo.Context, payload any) error {
	return c.JSON(http.StatusOK, payload)
}

func BadRequest(c echo.Context, err error) error {
	return respond(c, http.StatusBadRequest, err.Error())
}

func BadRequestMessage(c echo.Context, msg string) error {
	return respond(c, http.StatusBadRequest, msg)
}

func Forbidden(c echo.Context, err error) error {
	return respond(c, http.StatusForbidden, err.Error())
}

func NotFound(c echo.Context, msg string) error {
	return respond(c, http.StatusNotFound, msg)
}

func Conflict(c echo.Context, err error) error {
	return respond(c, http.StatusConflict, err.Error())
}

func Unavailable(c echo.Context, msg string) error {
	return respond(c, http.StatusServiceUnavailable, msg)
}

func InternalError(c echo.Context, err error) error {
	slog.ErrorContext(
		c.Request().Context(), "internal error",
		slog.String("module", "rest"),
		slog.String("path", c.Path()),
		slog.String("error", err.Error()),
	)
	return c.JSON(http.StatusInternalServerError, carelog.ErrorResponse{Error: err.Error()})
}

func respond(c echo.Context, code int, msg string) error {
	slog.DebugContext(
		c.Request().Context(), http.StatusText(code),
		slog.String("module", "rest"),
		slog.String("path", c.Path()),
		slog.String("error", msg),
	)
	return c.JSON(code, carelog.ErrorResponse{Error: msg})
}
