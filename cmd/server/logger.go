package main

import (
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskvault-api/internal/config"
	"github.com/phrazzld/taskvault-api/internal/platform/logger"
)

// setupAppLogger configures and initializes the application logger based on
// config settings. The returned logger is also installed as slog's default.
func setupAppLogger(cfg *config.Config) (*slog.Logger, error) {
	l, err := logger.Setup(logger.Config{
		Level: cfg.Server.LogLevel,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	return l, nil
}
