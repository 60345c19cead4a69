package logger

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsolatedLoggerWritesJSONLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scheduler.log")
	l := NewIsolatedLogger(path)

	l.Debug("SCHEDULER", "dropped below info", nil)
	l.Info("SCHEDULER", "sweep finished", map[string]interface{}{"owners": 3})
	l.Error("SCHEDULER", "rebuild failed", map[string]interface{}{"error": "boom"})
	require.NoError(t, l.Sync())

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var lines []map[string]interface{}
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &entry))
		lines = append(lines, entry)
	}
	require.Len(t, lines, 2)

	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, "SCHEDULER", lines[0]["module"])
	assert.Equal(t, "sweep finished", lines[0]["message"])
	assert.Equal(t, float64(3), lines[0]["details"].(map[string]interface{})["owners"])

	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "boom", lines[1]["error_ref"])
}

func TestNopLogger(t *testing.T) {
	var l ILogger = NewNopLogger()
	assert.NotPanics(t, func() {
		l.Warn("TEST", "nothing", nil)
		_ = l.Sync()
	})
}
