package main // Entry point package

import (
	"context"
	"database/sql"
	"errors"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/movie-review-api/internal/config"
	"github.com/iliyamo/movie-review-api/internal/database"
	"github.com/iliyamo/movie-review-api/internal/handler"
	"github.com/iliyamo/movie-review-api/internal/logging"
	"github.com/iliyamo/movie-review-api/internal/queue"
	"github.com/iliyamo/movie-review-api/internal/repository"
	"github.com/iliyamo/movie-review-api/internal/router"
	"github.com/iliyamo/movie-review-api/internal/storage"
	"github.com/iliyamo/movie-review-api/internal/utils"
	"github.com/iliyamo/movie-review-api/internal/validation"
)

func main() {
	if err := config.LoadDotEnv(); err != nil {
		logging.Warn().Err(err).Msg("could not read .env")
	}
	cfg, err := config.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, db, err := openRepositories(ctx, cfg)
	if err != nil {
		logging.Fatal().Err(err).Str("backend", cfg.StoreBackend).Msg("storage init failed")
	}
	if db != nil {
		defer db.Close()
	}

	if cfg.SeedDummy {
		rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0))
		if err := repository.SeedDummy(ctx, repos, utils.Hasher(cfg.BcryptCost), rng); err != nil {
			logging.Fatal().Err(err).Msg("seeding dummy data failed")
		}
		logging.Info().Msg("dummy data seeded")
	}

	rdb := config.NewRedisClient()
	if rdb == nil {
		logging.Warn().Msg("redis unavailable, rate limiting and caching disabled")
	} else {
		defer rdb.Close()
	}

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.RabbitMQURL != "" {
		events = queue.NewAMQPPublisher(cfg.RabbitMQURL)
		if cfg.StartConsumer {
			go func() {
				err := queue.NewConsumer(cfg.RabbitMQURL, cfg.ActivityLogPath).Run(ctx)
				if err != nil && !errors.Is(err, context.Canceled) {
					logging.Error().Err(err).Msg("activity consumer stopped")
				}
			}()
		}
	} else {
		logging.Info().Msg("RABBITMQ_URL not set, activity events disabled")
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = handler.JSONSerializer{}
	e.Validator = validation.Echo{}
	e.Use(echomw.Recover())

	router.Register(e, router.Deps{
		Cfg:       cfg,
		Repos:     repos,
		Files:     storage.NewFiles(cfg.MediaDir),
		Events:    events,
		Redis:     rdb,
		RateLimit: config.LoadRateLimitConfig(),
		Cache:     config.LoadCacheConfig(),
	})

	addr := ":" + cfg.Port
	go func() {
		logging.Info().Str("addr", addr).Str("env", cfg.Env).Str("backend", repos.Backend).Msg("listening")
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Fatal().Err(err).Msg("server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logging.Error().Err(err).Msg("shutdown failed")
	}
	logging.Info().Msg("server stopped")
}

// openRepositories selects the storage backend. db is nil for the memory
// backend.
func openRepositories(ctx context.Context, cfg config.Config) (*repository.Set, *sql.DB, error) {
	var driver, dsn string
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return repository.NewMemory(), nil, nil
	case config.BackendMySQL:
		driver = database.DriverMySQL
		dsn = database.MySQLDSN(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	case config.BackendSQLite:
		var err error
		driver = database.DriverSQLite
		if dsn, err = database.SQLiteDSN(cfg.SQLitePath); err != nil {
			return nil, nil, err
		}
	}

	db, err := database.Open(driver, dsn)
	if err != nil {
		return nil, nil, err
	}
	if err := database.Migrate(ctx, db, driver); err != nil {
		db.Close()
		return nil, nil, err
	}
	return repository.NewSQL(db), db, nil
}
