package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
)

// registerMovies registers the movie catalogue. Reads go through the Redis
// response cache; every successful write drops the cached pages.
func registerMovies(e *echo.Echo, h *handler.MovieHandler, g guards, cache config.CacheConfig, rdb *redis.Client) {
	read := append(g.public(), middleware.ResponseCache(cache, rdb))
	write := append(g.public(), middleware.InvalidateCache(cache, rdb))

	e.GET("/movies", h.List, read...)
	e.GET("/movies/:id", h.Get, read...)

	e.POST("/movies", h.Create, write...)
	e.PATCH("/movies/:id", h.Update, write...)
	e.DELETE("/movies/:id", h.Delete, write...)
	e.POST("/movies/:id/poster_image", h.UploadPoster, write...)
}
