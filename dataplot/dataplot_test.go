package dataplot

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/pcit_cli_linux/databox"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

var keys = []string{"Time (s)", "Counts (C)"}

func newPlot(t *testing.T) (*Plot, *settings.Plot) {
	t.Helper()
	s := settings.Defaults().Plot
	p := New(&s)
	p.now = func() time.Time { return time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC) }
	return p, &s
}

func fill(t *testing.T, p *Plot, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		require.NoError(t, p.AppendRow([]float64{float64(i), float64(45 + i%10)}, keys))
	}
}

func TestAppendRowUsesHistory(t *testing.T) {
	p, s := newPlot(t)
	s.History = 5
	fill(t, p, 12)
	assert.Equal(t, 5, p.Box.Rows())
}

func TestPlotGeneratesScript(t *testing.T) {
	p, s := newPlot(t)
	fill(t, p, 20)
	p.Output = filepath.Join(t.TempDir(), "plot.png")

	require.NoError(t, p.Plot())
	assert.Contains(t, s.Script, "y = ( d[1] )")
	require.Len(t, p.Figure().Series, 1)
	assert.Len(t, p.Figure().Series[0].Y, 20)

	_, err := os.Stat(p.Output)
	assert.NoError(t, err)
}

func TestPlotDisabledOrEmpty(t *testing.T) {
	p, s := newPlot(t)
	require.NoError(t, p.Plot())
	assert.Empty(t, p.Figure().Series)

	fill(t, p, 3)
	s.Enabled = false
	require.NoError(t, p.Plot())
	assert.Empty(t, p.Figure().Series)
}

func TestPlotScriptErrorKeepsPreviousFigure(t *testing.T) {
	p, s := newPlot(t)
	fill(t, p, 4)
	require.NoError(t, p.Plot())

	s.Autoscript = int(plotscript.ModeEdit)
	s.Script = "y = d[7]"
	err := p.Plot()
	var se *plotscript.ScriptError
	require.True(t, errors.As(err, &se))
	assert.Len(t, p.Figure().Series, 1)
	assert.Equal(t, "y = d[7]", p.Script(), "edit mode keeps the user's script")
}

func TestLogFile(t *testing.T) {
	p, _ := newPlot(t)
	fill(t, p, 2)
	path := filepath.Join(t.TempDir(), "log.csv")
	require.NoError(t, p.StartLog(path, keys))
	assert.Equal(t, path, p.LogPath())
	fill(t, p, 3)
	p.StopLog()
	fill(t, p, 1)
	assert.Equal(t, "", p.LogPath())

	b := databox.New()
	require.NoError(t, b.Load(path, false))
	assert.Equal(t, 5, b.Rows())
	created, _ := b.Header(databox.HeaderLogCreated)
	assert.Equal(t, "Tue Jan  2 03:04:05 2024", created)
}

func TestSaveLoadSettings(t *testing.T) {
	p, s := newPlot(t)
	fill(t, p, 6)
	s.History = 250
	s.Multi = false
	s.Note = "source A"
	path := filepath.Join(t.TempDir(), "run.csv")
	require.NoError(t, p.Save(path))

	q, qs := newPlot(t)
	require.NoError(t, q.Load(path, true, false))
	assert.Equal(t, 0, q.Box.Rows())
	assert.Equal(t, 250, qs.History)
	assert.False(t, qs.Multi)
	assert.Equal(t, "source A", qs.Note)

	r, rs := newPlot(t)
	require.NoError(t, r.Load(path, false, true))
	assert.Equal(t, 6, r.Box.Rows())
	assert.Equal(t, 0, rs.History)
	assert.Len(t, r.Figure().Series, 1)
}

func TestLoadRejectsBadSettings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.csv")
	require.NoError(t, os.WriteFile(path, []byte("#DataboxPlot.multi\t\"maybe\"\na,b\n1,2\n"), 0o644))
	p, _ := newPlot(t)
	assert.Error(t, p.Load(path, false, false))
}

func TestAutosave(t *testing.T) {
	p, s := newPlot(t)
	_, err := p.Autosave()
	assert.ErrorIs(t, err, ErrAutosaveOff)

	fill(t, p, 3)
	s.AutosaveDir = t.TempDir()
	s.AutosaveName = "counts.csv"
	s.FileNumber = 4

	path, err := p.Autosave()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.AutosaveDir, "0004 counts.csv"), path)
	path, err = p.Autosave()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(s.AutosaveDir, "0005 counts.csv"), path)
	assert.Equal(t, 6, s.FileNumber)
}

func TestClear(t *testing.T) {
	p, _ := newPlot(t)
	fill(t, p, 3)
	require.NoError(t, p.Plot())
	p.Clear()
	assert.Equal(t, 0, p.Box.Len())
	assert.Empty(t, p.Figure().Series)
}
