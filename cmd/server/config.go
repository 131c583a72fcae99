package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskflow-api/internal/config"
	"github.com/phrazzld/taskflow-api/internal/platform/logger"
)

// loadConfig loads the configuration and installs the default logger.
func loadConfig(configFile string) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	log.Info("server configuration loaded",
		"port", cfg.Server.Port,
		"log_level", cfg.Server.LogLevel,
		"notify_backend", cfg.Notify.Backend)
	log.Debug("auth configuration",
		"jwt_secret_present", cfg.Auth.JWTSecret != "",
		"bcrypt_cost", cfg.Auth.BcryptCost)

	return cfg, log, nil
}
