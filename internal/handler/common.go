package handler

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

// dbTimeout bounds every repository call made by a handler.
const dbTimeout = 5 * time.Second

func dbCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), dbTimeout)
}

// parseID reads a positive integer path parameter.
func parseID(c echo.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	return id, err == nil && id > 0
}

func badRequest(c echo.Context, msg string) error {
	return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
}

func notFound(c echo.Context, msg string) error {
	return c.JSON(http.StatusNotFound, echo.Map{"error": msg})
}

// bindAndValidate binds the request into dst and runs its validate tags.
// The returned error is already written to the client.
func bindAndValidate(c echo.Context, dst any) (ok bool, err error) {
	if err := c.Bind(dst); err != nil {
		return false, badRequest(c, "invalid body")
	}
	if err := validation.Struct(dst); err != nil {
		return false, respondError(c, err)
	}
	return true, nil
}

// respondError maps domain errors to HTTP outcomes. Anything unknown is
// logged and reported as 500 without details.
func respondError(c echo.Context, err error) error {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "validation failed", "fields": verr.Fields})
	case errors.Is(err, repository.ErrInvalidQuery):
		return badRequest(c, err.Error())
	case errors.Is(err, bcrypt.ErrPasswordTooLong):
		return badRequest(c, "password must be at most 72 bytes")
	case errors.Is(err, storage.ErrNoFilename), errors.Is(err, storage.ErrInvalidExtension):
		return badRequest(c, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		return notFound(c, err.Error())
	case errors.Is(err, repository.ErrForbidden):
		return c.JSON(http.StatusForbidden, echo.Map{"error": err.Error()})
	case errors.Is(err, repository.ErrUsernameExists), errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"error": err.Error()})
	case errors.Is(err, context.DeadlineExceeded):
		logging.Error().Err(err).Str("route", c.Path()).Msg("request timed out")
		return c.JSON(http.StatusGatewayTimeout, echo.Map{"error": "timeout"})
	}
	logging.Error().Err(err).Str("method", c.Request().Method).Str("route", c.Path()).Msg("request failed")
	return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
}

// optional returns nil for an empty string.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

var errBadID = errors.New("invalid id")
