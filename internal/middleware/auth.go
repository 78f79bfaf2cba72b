package middleware

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/model"
	"github.com/iliyamo/movie-review-api/internal/utils"
)

// Messages of the three distinguishable authentication failures.
const (
	MsgNotAuthenticated = "not authenticated"
	MsgInvalidToken     = "invalid token"
	MsgUserNotFound     = "user not found"
)

// UserFinder is the part of the user repository JWTAuth needs.
type UserFinder interface {
	Get(ctx context.Context, q model.UserQuery) (model.User, bool, error)
}

func unauthorized(c echo.Context, msg string) error {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg})
}

// JWTAuth validates a Bearer access token, loads the user it was issued
// for and stores both in the context (see UserID and CurrentUser). A
// missing header, a bad token and a deleted user each answer 401 with
// their own message.
func JWTAuth(secret string, users UserFinder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			scheme, raw, found := strings.Cut(auth, " ")
			if !found || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(raw) == "" {
				return unauthorized(c, MsgNotAuthenticated)
			}

			id, err := utils.ParseAccessToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return unauthorized(c, MsgInvalidToken)
			}

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()
			u, ok, err := users.Get(ctx, model.UserQuery{ID: &id})
			if err != nil {
				logging.Error().Err(err).Uint64("user_id", id).Msg("auth: load user")
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			if !ok {
				return unauthorized(c, MsgUserNotFound)
			}

			c.Set(ctxUserID, u.ID)
			c.Set(ctxUser, u)
			return next(c)
		}
	}
}
