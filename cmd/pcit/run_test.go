package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

func TestApplyRunFlagsOnlyChanged(t *testing.T) {
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })
	script := filepath.Join(t.TempDir(), "plot.txt")
	require.NoError(t, os.WriteFile(script, []byte("y = d[1]\n"), 0o644))

	s := settings.Defaults()
	s.Plot.History = 400
	s.Connection.Port = "/dev/ttyUSB3"

	f := runCmd.Flags()
	require.NoError(t, f.Set("baud", "115200"))
	require.NoError(t, f.Set("interval", "250ms"))
	require.NoError(t, f.Set("script-file", script))
	require.NoError(t, applyRunFlags(runCmd, &s))

	assert.Equal(t, 115200, s.Connection.BaudRate)
	assert.Equal(t, 0.25, s.Connection.Interval)
	assert.Equal(t, "/dev/ttyUSB3", s.Connection.Port, "unset flags keep saved values")
	assert.Equal(t, 400, s.Plot.History)
	assert.Equal(t, int(plotscript.ModeEdit), s.Plot.Autoscript)
	assert.Equal(t, "y = d[1]\n", s.Plot.Script)

	require.NoError(t, f.Set("autoscript", "pairs"))
	require.NoError(t, applyRunFlags(runCmd, &s))
	assert.Equal(t, int(plotscript.ModePairs), s.Plot.Autoscript)

	require.NoError(t, f.Set("baud", "300"))
	assert.Error(t, applyRunFlags(runCmd, &s))
}
