package logger

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewWritesJSONToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	log, err := New(Config{Level: "debug", OutputFile: path})
	require.NoError(t, err)
	log.Debug("file checked", zap.String("extension", "png"))
	require.NoError(t, log.Sync())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &entry))
	assert.Equal(t, "DEBUG", entry["level"])
	assert.Equal(t, "file checked", entry["msg"])
	assert.Equal(t, "png", entry["extension"])
	assert.Equal(t, "filesig", entry["service"])
}

func TestNewAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	for _, msg := range []string{"first", "second"} {
		log, err := New(Config{OutputFile: path, Service: "filecheck"})
		require.NoError(t, err)
		log.Info(msg)
		require.NoError(t, log.Sync())
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"service":"filecheck"`)
	assert.Contains(t, lines[1], "second")
}

func TestLevelFallsBackToInfo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.txt")

	log, err := New(Config{Level: "loud", Format: "console", OutputFile: path})
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zap.DebugLevel))
	assert.True(t, log.Core().Enabled(zap.InfoLevel))
}

func TestNewBadPath(t *testing.T) {
	_, err := New(Config{OutputFile: filepath.Join(t.TempDir(), "missing", "log.txt")})
	assert.Error(t, err)
}
