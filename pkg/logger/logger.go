// Package logger provides the logging hook used across the client and a
// zap-backed default. Components accept the Interface and never require a
// concrete logger; a nil logger silently discards output.
package logger

import (
	"go.uber.org/zap"
)

// Interface is the minimal logging surface the client depends on.
type Interface interface {
	Infof(format string, a ...interface{})
}

// NewLogger instantiates the default logger. Depending on the verbose flag
// it either prints everything or only high priority messages (of at least
// warning level).
func NewLogger(verbose bool) *zap.SugaredLogger {
	var logger *zap.Logger

	if verbose {
		logger = newVerboseLogger()
	} else {
		logger = newSilentLogger()
	}

	defer logger.Sync()
	return logger.Sugar()
}

func newVerboseLogger() *zap.Logger {
	logger, _ := getDevelopmentConfig().Build()
	return logger
}

func newSilentLogger() *zap.Logger {
	cfg := getDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	logger, _ := cfg.Build()
	return logger
}

func getDevelopmentConfig() zap.Config {
	return zap.NewDevelopmentConfig()
}

type optionalLogger struct {
	log Interface
}

func (l optionalLogger) Infof(format string, a ...interface{}) {
	if l.log != nil {
		l.log.Infof(format, a...)
	}
}

// NewOptionalLogger wraps a possibly nil logger so that callers never have
// to nil-check before logging.
func NewOptionalLogger(log Interface) Interface {
	return optionalLogger{log: log}
}
