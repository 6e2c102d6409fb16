// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package observability

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]zapcore.Level{
		"debug":   zap.DebugLevel,
		"INFO":    zap.InfoLevel,
		"warning": zap.WarnLevel,
		"error":   zap.ErrorLevel,
	} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestSetupLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "mflow.log")
	log, err := SetupLogger(LogConfig{Level: "debug", Format: "json", Outputs: []string{path}})
	require.NoError(t, err)

	log.Debug("session opened", zap.Int("channel", 3))
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"channel":3`), string(data))
}

func TestSetupLoggerLevelFilters(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mflow.log")
	log, err := SetupLogger(LogConfig{Level: "warn", Format: "json", Outputs: []string{path}})
	require.NoError(t, err)

	log.Info("dropped")
	log.Warn("kept")
	_ = log.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "dropped")
	assert.Contains(t, string(data), "kept")
}

func TestSetupLoggerRotation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rotated.log")
	log, err := SetupLogger(LogConfig{
		Outputs:  []string{path},
		Rotation: Rotation{Enable: true, MaxSizeMB: 1, MaxBackups: 1},
	})
	require.NoError(t, err)
	log.Info("engine started")
	_ = log.Sync()

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSetupLoggerRejectsLevel(t *testing.T) {
	_, err := SetupLogger(LogConfig{Level: "verbose"})
	assert.Error(t, err)
}
