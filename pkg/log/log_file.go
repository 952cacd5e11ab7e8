package log

import (
	"fmt"

	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

/**
 * @file: log_file.go
 * @description: logger writer file
 */

const filename string = "firelater.LOG"

// getFileLogWriter returns the WriteSyncer for logging to a file.
func getFileLogWriter(config *LogConfig) zapcore.WriteSyncer {
	lumberJackLogger := &lumberjack.Logger{
		Filename:   fmt.Sprintf("%s/%s", config.Path, filename),
		MaxSize:    config.RotateSize,
		MaxBackups: config.RotateNum,
		MaxAge:     config.KeepDays,
		Compress:   true,
	}
	return zapcore.AddSync(lumberJackLogger)
}
