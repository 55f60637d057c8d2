package commands

import (
	"fmt"

	"github.com/marmos91/newsletter/internal/logger"
	"github.com/marmos91/newsletter/pkg/config"
)

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	return "search path"
}
