package log

import (
	"fmt"
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

/**
 * @file: log.go
 * @description: zap logger bootstrap
 */

var (
	mu     sync.RWMutex
	logger *zap.Logger
	sugar  *zap.SugaredLogger
)

// LogConfig holds logger configuration options.
type LogConfig struct {
	Output     string // stdout or file
	Path       string
	Level      string
	KeepDays   int // days to keep rotated files
	RotateSize int // max size of a single file (MB)
	RotateNum  int // number of rotated files to keep
}

// SetDefaults returns the default logger configuration.
func SetDefaults() *LogConfig {
	return &LogConfig{
		Output:     "stdout",
		Path:       "./logs",
		Level:      "info",
		KeepDays:   7,
		RotateSize: 100,
		RotateNum:  10,
	}
}

// Validate normalizes the configuration before use.
func (c *LogConfig) Validate() error {
	if c.Output == "file" {
		if c.Path == "" {
			return fmt.Errorf("log path is required when output is 'file'")
		}
		if c.RotateSize <= 0 {
			c.RotateSize = 100
		}
		if c.RotateNum <= 0 {
			c.RotateNum = 10
		}
		if c.KeepDays <= 0 {
			c.KeepDays = 7
		}
	}
	return nil
}

// NewLog initializes the global logger and returns the zap.SugaredLogger.
func NewLog(conf *LogConfig) (*zap.SugaredLogger, error) {
	if err := conf.Validate(); err != nil {
		return nil, fmt.Errorf("invalid log config: %w", err)
	}

	var writeSyncer zapcore.WriteSyncer
	switch conf.Output {
	case "file":
		writeSyncer = getFileLogWriter(conf)
	default:
		writeSyncer = zapcore.AddSync(os.Stdout)
	}

	core := zapcore.NewCore(getEncoder(), writeSyncer, zapLevel(ParseLogLevel(conf.Level)))
	newLogger := zap.New(core, zap.AddCallerSkip(1), zap.AddCaller())

	mu.Lock()
	logger = newLogger
	sugar = newLogger.Sugar()
	mu.Unlock()

	return sugar, nil
}

func getEncoder() zapcore.Encoder {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(encoderConfig)
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	case FatalLevel:
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

// Sync flushes buffered log entries.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	if logger != nil {
		_ = logger.Sync()
	}
}

func init() {
	// keep the package-level funcs usable before NewLog runs (tests, init paths)
	l, _ := zap.NewDevelopment(zap.AddCallerSkip(1))
	logger = l
	sugar = l.Sugar()
}
