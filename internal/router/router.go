package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/middleware"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/storage"
)

// Deps is everything the route handlers need.
type Deps struct {
	Cfg       config.Config
	Repos     *repository.Set
	Files     *storage.Files
	Events    queue.Publisher
	Redis     *redis.Client // nil disables rate limiting and caching
	RateLimit config.RateLimitConfig
	Cache     config.CacheConfig
}

// guards holds the middleware shared by the route files: auth for
// protected routes and the rate limiter, which runs after auth so that it
// can key on the user.
type guards struct {
	auth echo.MiddlewareFunc
	rl   echo.MiddlewareFunc
}

func (g guards) public() []echo.MiddlewareFunc    { return []echo.MiddlewareFunc{g.rl} }
func (g guards) protected() []echo.MiddlewareFunc { return []echo.MiddlewareFunc{g.auth, g.rl} }

// Register wires every route of the API onto e.
func Register(e *echo.Echo, d Deps) {
	e.Use(middleware.Observe())

	g := guards{
		auth: middleware.JWTAuth(d.Cfg.JWTSecret, d.Repos.Users),
		rl:   middleware.RateLimit(d.RateLimit, d.Redis),
	}

	RegisterRoutes(e)
	registerUsers(e, handler.NewUserHandler(d.Cfg, d.Repos, d.Files), g)
	registerMovies(e, handler.NewMovieHandler(d.Repos, d.Files), g, d.Cache, d.Redis)
	registerReviews(e, handler.NewReviewHandler(d.Repos, d.Files, d.Events), handler.NewLikeHandler(d.Repos, d.Events), g)
}

// RegisterRoutes registers the routes that are neither rate limited nor
// authenticated: index, health check and Prometheus metrics.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/", handler.Root)
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// registerUsers registers account management and login. Routes under
// /users/me act on the authenticated user.
func registerUsers(e *echo.Echo, h *handler.UserHandler, g guards) {
	pub, auth := g.public(), g.protected()

	e.POST("/users", h.Create, pub...)
	e.GET("/users", h.List, pub...)
	e.GET("/users/search", h.Search, pub...)
	e.POST("/users/login", h.Login, pub...)

	e.GET("/users/me", h.Me, auth...)
	e.PATCH("/users/me", h.UpdateMe, auth...)
	e.DELETE("/users/me", h.DeleteMe, auth...)
	e.POST("/users/me/profile_image", h.UploadProfileImage, auth...)

	e.GET("/users/:id", h.Get, pub...)
}
