package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health is used by load balancers and monitoring to check the process is
// up. It returns plain text "ok".
func Health(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

// Root answers the index route.
func Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "Hello World"})
}
