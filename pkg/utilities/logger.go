package utilities

import (
	"fmt"
	"os"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level string
	Dev   bool
	// File, when set, receives a copy of every entry through a rotating writer.
	File        string
	RotateEvery time.Duration
	MaxAge      time.Duration
}

// ConfigFromEnv reads minimal config from env vars.
func ConfigFromEnv() Config {
	dev := os.Getenv("LOG_DEV") == "1"
	lvl := os.Getenv("LOG_LEVEL")
	if lvl == "" {
		if dev {
			lvl = "debug"
		} else {
			lvl = "info"
		}
	}
	return Config{
		Level:       lvl,
		Dev:         dev,
		File:        os.Getenv("LOG_FILE"),
		RotateEvery: time.Duration(EnvInt("LOG_ROTATE_HOURS", 24)) * time.Hour,
		MaxAge:      time.Duration(EnvInt("LOG_MAX_AGE_DAYS", 14)) * 24 * time.Hour,
	}
}

func levelFromString(l string) zapcore.Level {
	switch l {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Init initializes and returns a *zap.Logger
func Init(cfg Config) (*zap.Logger, error) {
	lvl := levelFromString(cfg.Level)
	if cfg.Dev {
		c := zap.NewDevelopmentConfig()
		c.Level = zap.NewAtomicLevelAt(lvl)
		return c.Build()
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(os.Stdout), lvl)
	if cfg.File != "" {
		w, err := rotatingWriter(cfg)
		if err != nil {
			return nil, err
		}
		fileCore := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), lvl)
		core = zapcore.NewTee(core, fileCore)
	}
	opts := []zap.Option{zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)}
	return zap.New(core, opts...), nil
}

// rotatingWriter writes to cfg.File.<date> and keeps cfg.File as a symlink to
// the current segment.
func rotatingWriter(cfg Config) (*rotatelogs.RotateLogs, error) {
	rotate := cfg.RotateEvery
	if rotate <= 0 {
		rotate = 24 * time.Hour
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 14 * 24 * time.Hour
	}
	w, err := rotatelogs.New(
		cfg.File+".%Y%m%d%H",
		rotatelogs.WithLinkName(cfg.File),
		rotatelogs.WithRotationTime(rotate),
		rotatelogs.WithMaxAge(maxAge),
	)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	return w, nil
}
