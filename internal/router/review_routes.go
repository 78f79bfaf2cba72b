package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-review-api/internal/handler"
)

// registerReviews registers reviews and likes. Writing, editing, deleting
// and liking require a valid access token; ownership is checked in the
// handlers.
func registerReviews(e *echo.Echo, r *handler.ReviewHandler, l *handler.LikeHandler, g guards) {
	pub, auth := g.public(), g.protected()

	e.POST("/reviews", r.Create, auth...)
	e.GET("/reviews/:id", r.Get, pub...)
	e.PATCH("/reviews/:id", r.Update, auth...)
	e.DELETE("/reviews/:id", r.Delete, auth...)
	e.GET("/reviews/:id/like_count", r.LikeCount, pub...)
	e.GET("/reviews/:id/is_liked", r.IsLiked, auth...)

	e.POST("/likes/reviews/:id/like", l.Like, auth...)
	e.POST("/likes/reviews/:id/unlike", l.Unlike, auth...)
}
