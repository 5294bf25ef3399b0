// Package logger constructs the zap logger shared by all components.
package logger

import (
	"fmt"

	"go.uber.org/zap"
)

// New builds a sugared logger. Debug mode uses the development configuration
// with console output; otherwise the production configuration applies.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		log *zap.Logger
		err error
	)
	if debug {
		cfg := zap.NewDevelopmentConfig()
		cfg.OutputPaths = []string{"stdout"}
		log, err = cfg.Build()
	} else {
		log, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	zap.ReplaceGlobals(log)
	return log.Sugar(), nil
}

// NewNop returns a no-op logger for tests.
func NewNop() *zap.SugaredLogger {
	return zap.NewNop().Sugar()
}
