// Package config builds the process-wide logger from a models.ZapConfig,
// following the same tee-core construction this lineage has always used:
// a debug/info/error split across rotated files, plus an optional
// colorized console core.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/qdispatch/qdispatch/models"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// BuildLogger constructs a *zap.Logger from the given config, rooted under
// ~/.qdispatch/<directory>.
func BuildLogger(z models.ZapConfig) (*zap.Logger, error) {
	homeDir, _ := os.UserHomeDir()
	logPath := filepath.Join(homeDir, models.WorkDir, z.Directory)
	if err := os.MkdirAll(logPath, os.ModePerm); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(z.Level)); err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", z.Level, err)
	}
	encCfg := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		MessageKey:     "msg",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.SecondsDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}
	fileEncoder := zapcore.NewJSONEncoder(encCfg)
	rotated := func(name string) zapcore.WriteSyncer {
		return zapcore.AddSync(&lumberjack.Logger{
			Filename:   filepath.Join(logPath, name),
			MaxSize:    z.MaxSizeMB,
			MaxBackups: z.MaxBackups,
			MaxAge:     z.MaxAgeDays,
			Compress:   z.Compress,
		})
	}
	debugPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl <= zapcore.DebugLevel && lvl >= level
	})
	lowPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl > zapcore.DebugLevel && lvl < zapcore.ErrorLevel && lvl >= level
	})
	highPriority := zap.LevelEnablerFunc(func(lvl zapcore.Level) bool {
		return lvl >= zapcore.ErrorLevel && lvl >= level
	})
	cores := []zapcore.Core{
		zapcore.NewCore(fileEncoder, rotated("debug.log"), debugPriority),
		zapcore.NewCore(fileEncoder, rotated("info.log"), lowPriority),
		zapcore.NewCore(fileEncoder, rotated("error.log"), highPriority),
	}
	if z.LogInConsole {
		consoleCfg := encCfg
		consoleCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
		consoleEncoder := zapcore.NewConsoleEncoder(consoleCfg)
		cores = append(cores, zapcore.NewCore(consoleEncoder, zapcore.Lock(os.Stdout),
			zap.LevelEnablerFunc(func(lvl zapcore.Level) bool { return lvl >= level })))
	}
	core := zapcore.NewTee(cores...)
	opts := []zap.Option{zap.AddCaller()}
	if podName := os.Getenv("POD_NAME"); podName != "" {
		opts = append(opts, zap.Fields(zap.String("pod", podName)))
	}
	return zap.New(core, opts...), nil
}
