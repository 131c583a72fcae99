package main

import (
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/mocks"
	"github.com/phrazzld/taskflow-api/internal/notify"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Port:                   8080,
			LogLevel:               "error",
			AllowedOrigin:          "https://app.example.com",
			ShutdownTimeoutSeconds: 5,
		},
		Auth: config.AuthConfig{
			JWTSecret:                    strings.Repeat("k", 32),
			BcryptCost:                   4,
			RegisterTokenLifetimeMinutes: 60,
			LoginTokenLifetimeMinutes:    1440,
			LoginRatePerMinute:           1,
			LoginBurst:                   2,
		},
		Notify: config.NotifyConfig{
			Backend:     "memory",
			QueueSize:   16,
			WorkerCount: 1,
		},
	}
}

// newTestApplication builds an application over in-memory stores. db stays
// nil, so /health does not ping a database.
func newTestApplication(t *testing.T) *application {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	auditStore := &mocks.TestifyMockAuditStore{}
	auditStore.On("Append", mock.Anything, mock.Anything).Return(nil)

	app, err := newApplication(testConfig(), logger, stores{
		users: mocks.NewMockUserStore(),
		tasks: mocks.NewMockTaskStore(),
		audit: auditStore,
	}, notify.NewHub(logger))
	require.NoError(t, err)
	return app
}

func TestNewApplication_RejectsShortSecret(t *testing.T) {
	cfg := testConfig()
	cfg.Auth.JWTSecret = "short"
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	_, err := newApplication(cfg, logger, stores{
		users: mocks.NewMockUserStore(),
		tasks: mocks.NewMockTaskStore(),
		audit: &mocks.TestifyMockAuditStore{},
	}, notify.NewHub(logger))
	require.Error(t, err)
}
