package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/pcit_cli_linux/databox"
	"github.com/Thiagojm/pcit_cli_linux/dataplot"
	"github.com/Thiagojm/pcit_cli_linux/monitor"
	"github.com/Thiagojm/pcit_cli_linux/pcit1"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/portscan"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

// resetFlags puts every flag back to its default so commands can be run
// again within one test binary.
func resetFlags(c *cobra.Command) {
	reset := func(f *pflag.Flag) {
		_ = f.Value.Set(f.DefValue)
		f.Changed = false
	}
	c.Flags().VisitAll(reset)
	c.PersistentFlags().VisitAll(reset)
	for _, sub := range c.Commands() {
		resetFlags(sub)
	}
}

// execute runs the root command with args against a fresh settings dir.
func execute(t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	return executeContext(context.Background(), t, dir, args...)
}

func executeContext(ctx context.Context, t *testing.T, dir string, args ...string) (string, error) {
	t.Helper()
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs(append([]string{"--log-level", "error", "--settings-dir", dir}, args...))
	err := rootCmd.ExecuteContext(ctx)
	return out.String(), err
}

func stubPorts(t *testing.T, ports []portscan.PortInfo, err error, bridges []portscan.Bridge) {
	t.Helper()
	prevList, prevUSB := listPorts, usbBridges
	listPorts = func() ([]portscan.PortInfo, error) { return ports, err }
	usbBridges = func() []portscan.Bridge { return bridges }
	t.Cleanup(func() { listPorts, usbBridges = prevList, prevUSB })
}

var simOnly = []portscan.PortInfo{{Name: pcit1.SimulationPort, Description: pcit1.SimulationPort, Simulation: true}}

func TestPortsCommand(t *testing.T) {
	stubPorts(t, []portscan.PortInfo{
		{Name: "/dev/ttyUSB0", Description: "CP2102 (/dev/ttyUSB0)"},
		{Name: "/dev/ttyACM0", Description: "Arduino Uno (/dev/ttyACM0)"},
		simOnly[0],
	}, nil, []portscan.Bridge{{VID: 0x2341, PID: 0x0043, Vendor: "Arduino"}})

	out, err := execute(t, t.TempDir(), "ports")
	require.NoError(t, err)
	assert.Equal(t, "   1  CP2102 (/dev/ttyUSB0)\n"+
		"*  2  Arduino Uno (/dev/ttyACM0)\n"+
		"   3  Simulation\n"+
		"usb     Arduino (2341:0043)\n", out)
}

func TestPortsCommandListError(t *testing.T) {
	stubPorts(t, nil, errors.New("enumerating ports: permission denied"), nil)
	_, err := execute(t, t.TempDir(), "ports")
	assert.ErrorContains(t, err, "permission denied")
}

func TestReadCommandSimulation(t *testing.T) {
	stubPorts(t, simOnly, nil, nil)
	dir := t.TempDir()

	out, err := execute(t, dir, "read", "--port", "Simulation")
	require.NoError(t, err)
	assert.Regexp(t, regexp.MustCompile(`^1\t\d+\n$`), out)

	out, err = execute(t, dir, "read", "--all", "-p", "Simulation")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.GreaterOrEqual(t, len(lines), 1)
	assert.LessOrEqual(t, len(lines), 9)
	assert.True(t, strings.HasPrefix(lines[0], "1\t"))
}

func TestReadCommandRejectsBadSettings(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PCIT1-A.yaml"), []byte("connection:\n  baud_rate: 300\n"), 0o644))
	_, err := execute(t, dir, "read")
	assert.ErrorContains(t, err, "baud rate")
}

func writeCounts(t *testing.T, path string, configure func(*settings.Plot)) {
	t.Helper()
	s := settings.Defaults()
	p := dataplot.New(&s.Plot)
	for i := 0; i < 12; i++ {
		require.NoError(t, p.AppendRow([]float64{float64(i), float64(45 + i%7)}, monitor.Ckeys))
	}
	if configure != nil {
		configure(&s.Plot)
	}
	require.NoError(t, p.Save(path))
}

func TestScriptCommand(t *testing.T) {
	path := filepath.Join(t.TempDir(), "counts.csv")
	writeCounts(t, path, nil)

	out, err := execute(t, t.TempDir(), "script", "--mode", "pairs", path)
	require.NoError(t, err)
	assert.Contains(t, out, "x = ( d[0] )\ny = ( d[1] )\n")
	assert.Contains(t, out, "xlabels = ( 'Time (s)' )")

	_, err = execute(t, t.TempDir(), "script", "--mode", "sideways", path)
	assert.Error(t, err)
}

func TestPlotCommandUsesFileSettingsUnlessOverridden(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "counts.csv")
	writeCounts(t, path, func(s *settings.Plot) {
		s.Autoscript = int(plotscript.ModeEdit)
		s.Script = "y = d[7]"
	})

	// the script stored in the file is used and fails
	_, err := execute(t, dir, "plot", path)
	var se *plotscript.ScriptError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.NoFileExists(t, filepath.Join(dir, "counts.png"))

	png := filepath.Join(dir, "out", "shared.png")
	out, err := execute(t, dir, "plot", "--autoscript", "shared", "-o", png, path)
	require.NoError(t, err)
	assert.Equal(t, png+"\n", out)
	raw, err := os.ReadFile(png)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("\x89PNG")))

	script := filepath.Join(dir, "plot.txt")
	require.NoError(t, os.WriteFile(script, []byte("y = d['Counts (C)']\nx = d[0]\n"), 0o644))
	out, err = execute(t, dir, "plot", "--script-file", script, "--histogram=false", path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "counts.png")+"\n", out)
	assert.FileExists(t, filepath.Join(dir, "counts.png"))
}

func TestDumpCommandMissingPort(t *testing.T) {
	_, err := execute(t, t.TempDir(), "dump", filepath.Join(t.TempDir(), "ttyNONE"))
	assert.ErrorContains(t, err, "open")
}

func TestRunCommandSimulation(t *testing.T) {
	stubPorts(t, simOnly, nil, nil)
	dir := t.TempDir()
	logPath := filepath.Join(dir, "run.csv")

	out, err := execute(t, dir, "run", "--port", "Simulation", "--no-term",
		"--duration", "150ms", "--interval", "20ms", "--history", "50", "--log-file", logPath)
	require.NoError(t, err)
	assert.Contains(t, out, "[SIMULATION]")
	assert.Contains(t, out, "logging to "+logPath)

	s, err := settings.Load(dir, "PCIT1-A")
	require.NoError(t, err)
	assert.Equal(t, pcit1.SimulationPort, s.Connection.Port)
	assert.Equal(t, 50, s.Plot.History)
	assert.InDelta(t, 0.02, s.Connection.Interval, 1e-9)

	b := databox.New()
	require.NoError(t, b.Load(logPath, false))
	assert.Equal(t, monitor.Ckeys, b.Ckeys())
	assert.Positive(t, b.Rows())
}

func TestRunCommandStopsOnCancel(t *testing.T) {
	stubPorts(t, simOnly, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	// a cancelled parent ends the run after the first poll
	_, err := executeContext(ctx, t, t.TempDir(), "run", "--no-term", "--port", "Simulation")
	assert.NoError(t, err)
}
