package config // package config loads application configuration from environment variables

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Storage backends selectable through STORE_BACKEND.
const (
	BackendMemory = "memory"
	BackendMySQL  = "mysql"
	BackendSQLite = "sqlite"
)

// Config holds all runtime configuration values. Each field corresponds to
// an environment variable.
type Config struct {
	Env  string // APP_ENV (dev, test, prod)
	Port string // APP_PORT

	StoreBackend string // STORE_BACKEND: memory | mysql | sqlite
	DBUser       string // DB_USER (mysql)
	DBPass       string // DB_PASS (mysql, may be empty)
	DBHost       string // DB_HOST (mysql)
	DBPort       string // DB_PORT (mysql)
	DBName       string // DB_NAME (mysql)
	SQLitePath   string // SQLITE_PATH (sqlite)

	JWTSecret    string // JWT_SECRET
	AccessTTLMin int    // ACCESS_TOKEN_TTL_MIN
	BcryptCost   int    // BCRYPT_COST

	MediaDir string // MEDIA_DIR, root of uploaded images

	RabbitMQURL     string // RABBITMQ_URL; empty disables activity events
	ActivityLogPath string // ACTIVITY_LOG_PATH
	StartConsumer   bool   // ACTIVITY_CONSUMER_ENABLED

	SeedDummy bool // SEED_DUMMY

	LogLevel  string // LOG_LEVEL
	LogFormat string // LOG_FORMAT: json | console
}

// Load reads the configuration from the environment. All missing or
// invalid required variables are reported together in one error.
func Load() (Config, error) {
	var req required
	cfg := Config{
		Env:             envStr("APP_ENV", "dev"),
		Port:            envStr("APP_PORT", "8000"),
		StoreBackend:    strings.ToLower(envStr("STORE_BACKEND", BackendMemory)),
		SQLitePath:      envStr("SQLITE_PATH", filepath.Join("data", "movies.db")),
		JWTSecret:       req.str("JWT_SECRET"),
		AccessTTLMin:    req.integer("ACCESS_TOKEN_TTL_MIN", 30),
		BcryptCost:      req.integer("BCRYPT_COST", 10),
		MediaDir:        envStr("MEDIA_DIR", "media"),
		RabbitMQURL:     envStr("RABBITMQ_URL", envStr("AMQP_URL", "")),
		ActivityLogPath: envStr("ACTIVITY_LOG_PATH", filepath.Join("logs", "activity.log")),
		StartConsumer:   envBool("ACTIVITY_CONSUMER_ENABLED", true),
		SeedDummy:       envBool("SEED_DUMMY", false),
		LogLevel:        envStr("LOG_LEVEL", "info"),
		LogFormat:       envStr("LOG_FORMAT", "json"),
	}

	switch cfg.StoreBackend {
	case BackendMemory, BackendSQLite:
	case BackendMySQL:
		cfg.DBUser = req.str("DB_USER")
		cfg.DBPass = envStr("DB_PASS", "")
		cfg.DBHost = req.str("DB_HOST")
		cfg.DBPort = envStr("DB_PORT", "3306")
		cfg.DBName = req.str("DB_NAME")
	default:
		req.errs = append(req.errs, fmt.Errorf("invalid STORE_BACKEND %q (want memory, mysql or sqlite)", cfg.StoreBackend))
	}
	if cfg.AccessTTLMin <= 0 {
		req.errs = append(req.errs, fmt.Errorf("ACCESS_TOKEN_TTL_MIN must be positive, got %d", cfg.AccessTTLMin))
	}

	if err := req.err(); err != nil {
		return Config{}, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}
