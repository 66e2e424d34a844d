package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingGivesDefaults(t *testing.T) {
	dir := t.TempDir()
	s, err := Load(dir, "PCIT1-A")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "PCIT1-A.yaml"), s.Path())
	assert.Equal(t, "Simulation", s.Connection.Port)
	assert.Equal(t, 230400, s.Connection.BaudRate)
	assert.Equal(t, 15*time.Second, s.Connection.TimeoutDuration())
	assert.Equal(t, time.Second, s.Connection.IntervalDuration())
	assert.True(t, s.Plot.Enabled)
	assert.Equal(t, 1, s.Plot.Autoscript)
}

func TestSaveAndReload(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	s, err := Load(dir, "bench")
	require.NoError(t, err)

	s.Connection.Port = "/dev/ttyACM0"
	s.Connection.BaudRate = 115200
	s.Plot.Script = "y = d[1]\n"
	s.Plot.FileNumber = 12
	s.Plot.History = 500
	require.NoError(t, s.Save())

	got, err := Load(dir, "bench")
	require.NoError(t, err)
	assert.Equal(t, s.Connection, got.Connection)
	assert.Equal(t, s.Plot, got.Plot)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestLoadRejectsBadValues(t *testing.T) {
	dir := t.TempDir()
	bad := map[string]string{
		"baud":     "connection:\n  baud_rate: 300\n",
		"timeout":  "connection:\n  timeout_s: 0\n",
		"mode":     "plot:\n  autoscript: 12\n",
		"history":  "plot:\n  history: -1\n",
		"garbage":  "connection: [",
		"interval": "connection:\n  interval_s: -2\n",
	}
	for name, body := range bad {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+".yaml"), []byte(body), 0o644))
		_, err := Load(dir, name)
		assert.Error(t, err, name)
	}
}

func TestSaveWithoutPath(t *testing.T) {
	s := Defaults()
	assert.Error(t, s.Save())
}
