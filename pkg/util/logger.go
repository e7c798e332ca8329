package util

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	glogger *zap.Logger
	logOnce sync.Once
)

// SetupLogger configures the global logger. Without a filename the logger
// writes to stderr; with one it rotates through lumberjack.
func SetupLogger(opts *LogOptions) {
	level := zapcore.InfoLevel
	if opts != nil && opts.Level != "" {
		if err := level.Set(opts.Level); err != nil {
			level = zapcore.InfoLevel
		}
	}

	var syncer zapcore.WriteSyncer
	if opts != nil && opts.Filename != "" {
		syncer = zapcore.AddSync(&lumberjack.Logger{
			Filename:   opts.Filename,
			MaxSize:    opts.MaxSize,
			MaxAge:     opts.MaxDays,
			MaxBackups: opts.MaxBackups,
		})
	} else {
		syncer = zapcore.AddSync(os.Stderr)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		syncer,
		level,
	)
	glogger = zap.New(core, zap.AddStacktrace(zapcore.FatalLevel))
}

func logger() *zap.Logger {
	logOnce.Do(func() {
		if glogger == nil {
			SetupLogger(nil)
		}
	})
	return glogger
}

func Debug(msg string, fields ...zap.Field) {
	logger().Debug(msg, fields...)
}

func Info(msg string, fields ...zap.Field) {
	logger().Info(msg, fields...)
}

func Warn(msg string, fields ...zap.Field) {
	logger().Warn(msg, fields...)
}

func Error(msg string, fields ...zap.Field) {
	logger().Error(msg, fields...)
}
