package database

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMySQLDSN(t *testing.T) {
	assert.Equal(t,
		"app:secret@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC",
		MySQLDSN("app", "secret", "db", "3306", "movies"))
	assert.Equal(t,
		"app@tcp(db:3306)/movies?charset=utf8mb4&parseTime=true&loc=UTC",
		MySQLDSN("app", "", "db", "3306", "movies"))
}

func TestOpenAndMigrate_SQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "test.db")
	dsn, err := SQLiteDSN(path)
	require.NoError(t, err)

	db, err := Open(DriverSQLite, dsn)
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	require.NoError(t, Migrate(ctx, db, DriverSQLite))
	// idempotent
	require.NoError(t, Migrate(ctx, db, DriverSQLite))

	_, err = os.Stat(path)
	assert.NoError(t, err)

	for _, table := range []string{"users", "movies", "reviews", "review_likes"} {
		var name string
		err := db.QueryRowContext(ctx,
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&name)
		assert.NoError(t, err, table)
	}
}

func TestMigrate_UnknownDriver(t *testing.T) {
	err := Migrate(context.Background(), nil, "postgres")
	assert.Error(t, err)
}
