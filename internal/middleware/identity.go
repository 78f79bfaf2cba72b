package middleware

// identity.go holds the context keys set by JWTAuth and the accessors that
// handlers and other middleware use to read them.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/model"
)

const (
	ctxUserID = "user_id"
	ctxUser   = "user"
)

// UserID returns the id of the authenticated user.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(ctxUserID).(uint64)
	return id, ok && id > 0
}

// CurrentUser returns the user loaded by JWTAuth.
func CurrentUser(c echo.Context) (model.User, bool) {
	u, ok := c.Get(ctxUser).(model.User)
	return u, ok
}

// userKey identifies the caller in rate-limit keys; "anon" when no user is
// authenticated.
func userKey(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
