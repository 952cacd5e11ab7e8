package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, ParseLogLevel("debug"))
	assert.Equal(t, InfoLevel, ParseLogLevel("info"))
	assert.Equal(t, WarnLevel, ParseLogLevel("warn"))
	assert.Equal(t, ErrorLevel, ParseLogLevel("error"))
	assert.Equal(t, FatalLevel, ParseLogLevel("fatal"))
	assert.Equal(t, InfoLevel, ParseLogLevel("nonsense"))
}

func TestLogLevelString(t *testing.T) {
	assert.Equal(t, "debug", DebugLevel.String())
	assert.Equal(t, "fatal", FatalLevel.String())
	assert.Equal(t, "unknown", LogLevel(42).String())
}

func TestNewLogStdout(t *testing.T) {
	sugared, err := NewLog(SetDefaults())
	require.NoError(t, err)
	require.NotNil(t, sugared)

	// package-level funcs must use the new logger without panicking
	Infof("log initialized: %s", "ok")
	Sync()
}

func TestValidateFileOutput(t *testing.T) {
	conf := &LogConfig{Output: "file"}
	err := conf.Validate()
	require.Error(t, err)

	conf.Path = t.TempDir()
	require.NoError(t, conf.Validate())
	assert.Equal(t, 100, conf.RotateSize)
	assert.Equal(t, 10, conf.RotateNum)
	assert.Equal(t, 7, conf.KeepDays)
}
