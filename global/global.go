// Package global holds the handful of process-wide singletons that are
// genuinely stateless from the routing core's point of view: the logger and
// the viper instance used to discover where the config file lives. The
// active config, the Tracker, and the decision ring are deliberately NOT
// here — each is owned by its own component behind an explicit reference.
package global

import (
	"sync"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var (
	mu            sync.RWMutex
	globalLogger  *zap.Logger
	globalSLogger *zap.SugaredLogger
	globalViper   *viper.Viper
)

// InitLogger installs the process-wide logger. Safe to call more than once
// (e.g. on config reload changing the log level); readers always see a
// fully-built logger, never a half-initialized one.
func InitLogger(logger *zap.Logger) {
	mu.Lock()
	defer mu.Unlock()
	globalLogger = logger
	globalSLogger = logger.Sugar()
}

// GetLogger returns the process-wide structured logger, or a no-op logger
// if InitLogger hasn't run yet.
func GetLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if globalLogger == nil {
		return zap.NewNop()
	}
	return globalLogger
}

// GetSlogger returns the sugared variant of the process-wide logger, handy
// for the printf-style call sites scattered through cmd/ and web/.
func GetSlogger() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	if globalSLogger == nil {
		return zap.NewNop().Sugar()
	}
	return globalSLogger
}

// Viper returns the process-wide viper instance used for config-file
// discovery, creating it on first use.
func Viper() *viper.Viper {
	mu.Lock()
	defer mu.Unlock()
	if globalViper == nil {
		globalViper = viper.New()
	}
	return globalViper
}
