package logging

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds the process logger. level is any zap level name ("debug",
// "info", ...); dev selects the human-readable console encoder.
func New(level string, dev bool) (*zap.Logger, error) {
	lvl := zap.NewAtomicLevel()
	if level != "" {
		parsed, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("log level %q: %w", level, err)
		}
		lvl = parsed
	}

	config := zap.NewProductionConfig()
	if dev {
		config = zap.NewDevelopmentConfig()
	}
	config.Level = lvl

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}
