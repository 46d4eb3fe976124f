package common

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger creates a new zap logger with the given name.
// The logger is configured based on the centralized Config.
func NewLogger(name string) (*zap.Logger, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	return NewLoggerWithConfig(name, cfg)
}

// NewLoggerWithConfig creates a new zap logger with the given name and config.
func NewLoggerWithConfig(name string, cfg *Config) (*zap.Logger, error) {
	var config zap.Config
	if cfg.App.ENV == "production" {
		config = zap.NewProductionConfig()
	} else {
		config = zap.NewDevelopmentConfig()
	}
	// 콘솔 출력과 섞이지 않도록 로그는 항상 stderr로 보냅니다.
	config.OutputPaths = []string{"stderr"}

	if cfg.App.LogLevel != "" {
		level, err := zap.ParseAtomicLevel(cfg.App.LogLevel)
		if err == nil {
			config.Level = level
		}
	}

	logger, err := config.Build()
	if err != nil {
		return nil, err
	}

	if name != "" {
		return logger.Named(name), nil
	}

	return logger, nil
}

// NewCLILogger creates a logger for interactive commands.
// Unless verbose is set, only warnings and errors are printed.
func NewCLILogger(name string, cfg *Config, verbose bool) (*zap.Logger, error) {
	logger, err := NewLoggerWithConfig(name, cfg)
	if err != nil {
		return nil, err
	}
	if verbose {
		return logger, nil
	}
	return logger.WithOptions(zap.IncreaseLevel(zapcore.WarnLevel)), nil
}

// MustNewLogger creates a new logger and panics if it fails.
func MustNewLogger(name string) *zap.Logger {
	logger, err := NewLogger(name)
	if err != nil {
		panic(err)
	}
	return logger
}
