package testdb

import (
	"context"
	"database/sql"
	"io"
	"log/slog"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/postgres"
	"github.com/stretchr/testify/require"
)

// URLEnvVar names the variable holding the test database connection URL.
const URLEnvVar = "TASKFLOW_TEST_DATABASE_URL"

// Timeout bounds setup queries.
const Timeout = 30 * time.Second

// DatabaseURL returns the test database URL, or "" when none is configured.
func DatabaseURL() string {
	return os.Getenv(URLEnvVar)
}

// ShouldSkip reports whether database tests cannot run here.
func ShouldSkip() bool {
	return DatabaseURL() == ""
}

// Logger returns a logger that discards everything.
func Logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// Open connects to the test database and migrates it from an empty schema.
// The connection is closed when the test ends. The test is skipped when no
// database is configured.
func Open(t *testing.T) *sql.DB {
	t.Helper()

	dbURL := DatabaseURL()
	if dbURL == "" {
		t.Skipf("%s not set", URLEnvVar)
	}

	ctx, cancel := context.WithTimeout(context.Background(), Timeout)
	defer cancel()

	db, err := postgres.Open(ctx, config.DatabaseConfig{URL: dbURL, MaxOpenConns: 10, MaxIdleConns: 2})
	require.NoError(t, err, "failed to connect to %s", MaskURL(dbURL))
	t.Cleanup(func() { _ = db.Close() })

	require.NoError(t, postgres.Migrate(ctx, db, "reset", Logger()), "failed to reset schema")
	require.NoError(t, postgres.Migrate(ctx, db, "up", Logger()), "failed to apply migrations")
	return db
}

// MaskURL hides the password in a connection URL so it can be logged.
func MaskURL(dbURL string) string {
	u, err := url.Parse(dbURL)
	if err != nil {
		return "invalid-url"
	}
	if u.User != nil {
		if _, ok := u.User.Password(); ok {
			u.User = url.UserPassword(u.User.Username(), "xxxxx")
		}
	}
	return u.String()
}
