package plotscript

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Thiagojm/pcit_cli_linux/databox"
)

func box(t *testing.T, keys []string, rows ...[]float64) *databox.Box {
	t.Helper()
	b := databox.New()
	for _, r := range rows {
		require.NoError(t, b.AppendRow(r, keys, 0))
	}
	return b
}

func TestGenerateShared(t *testing.T) {
	b := box(t, []string{"Time (s)", "Counts (C)"}, []float64{0, 48}, []float64{1, 52})
	s := Generator{}.Generate(ModeShared, b)
	assert.Equal(t, "x = ( d[0] )\ny = ( d[1] )\n\nxlabels = 'Time (s)'\nylabels = ( 'Counts (C)' )\n", s)

	fig, err := Eval(s, b)
	require.NoError(t, err)
	require.Len(t, fig.Series, 1)
	assert.Equal(t, []float64{0, 1}, fig.Series[0].X)
	assert.Equal(t, []float64{48, 52}, fig.Series[0].Y)
	assert.Equal(t, "Time (s)", fig.Series[0].XLabel)
	assert.Equal(t, "Counts (C)", fig.Series[0].YLabel)
}

func TestGenerateEveryModeEvaluates(t *testing.T) {
	keys := []string{"t", "a", "b", "c", "e", "f"}
	b := box(t, keys, []float64{0, 1, 2, 3, 4, 5}, []float64{1, 2, 3, 4, 5, 6})
	want := map[Mode]int{
		ModeShared:       5,
		ModePairs:        3,
		ModeTriples:      4,
		ModeSharedErrors: 2,
		ModeIndex:        6,
	}
	for mode, n := range want {
		fig, err := Eval(Generator{}.Generate(mode, b), b)
		require.NoError(t, err, mode.String())
		assert.Len(t, fig.Series, n, mode.String())
	}

	fig, err := Eval(Generator{}.Generate(ModeSharedErrors, b), b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, fig.Series[0].EY)
	assert.Equal(t, "c", fig.Series[1].YLabel)
}

func TestGenerateSmallBoxes(t *testing.T) {
	empty := databox.New()
	fig, err := Eval(Generator{}.Generate(ModeShared, empty), empty)
	require.NoError(t, err)
	assert.Empty(t, fig.Series)

	one := box(t, []string{"only"}, []float64{3}, []float64{4})
	fig, err = Eval(Generator{}.Generate(ModePairs, one), one)
	require.NoError(t, err)
	require.Len(t, fig.Series, 1)
	assert.Nil(t, fig.Series[0].X)
	assert.Equal(t, "Data Point", fig.Series[0].XLabel)

	assert.Equal(t, "", Generator{}.Generate(ModeEdit, one))
}

func TestGenerateQuotesKeys(t *testing.T) {
	b := box(t, []string{"it's", `a\b`}, []float64{1, 2})
	fig, err := Eval(Generator{}.Generate(ModeShared, b), b)
	require.NoError(t, err)
	assert.Equal(t, "it's", fig.Series[0].XLabel)
	assert.Equal(t, `a\b`, fig.Series[0].YLabel)
}

func TestUserMode(t *testing.T) {
	b := box(t, []string{"t", "c"}, []float64{1, 2})
	_, err := Eval(Generator{}.Generate(ModeUser, b), b)
	assert.Error(t, err)

	g := Generator{Custom: func(Data) string { return "y = d['c'] * 10" }}
	fig, err := Eval(g.Generate(ModeUser, b), b)
	require.NoError(t, err)
	assert.Equal(t, []float64{20}, fig.Series[0].Y)
}

func TestEvalExpressions(t *testing.T) {
	b := box(t, []string{"t", "c"},
		[]float64{0, 4}, []float64{1, 9}, []float64{2, 16}, []float64{3, 25})

	fig, err := Eval("x = d[0][-2:]; y = sqrt(d['c'][-2:]) - 1 # tail\nylabels = 'root'", b)
	require.NoError(t, err)
	assert.Equal(t, []float64{2, 3}, fig.Series[0].X)
	assert.Equal(t, []float64{3, 4}, fig.Series[0].Y)
	assert.Equal(t, "root", fig.Series[0].YLabel)

	fig, err = Eval("y = [d[1], d[1] / 2,]\nx = None\ney = 0.5", b)
	require.NoError(t, err)
	require.Len(t, fig.Series, 2)
	assert.Nil(t, fig.Series[1].X)
	assert.Equal(t, []float64{2, 4.5, 8, 12.5}, fig.Series[1].Y)
	assert.Equal(t, []float64{0.5, 0.5, 0.5, 0.5}, fig.Series[1].EY)
	assert.Equal(t, "y", fig.Series[1].YLabel)

	fig, err = Eval("c = d[-1]\ny = (\n  c,\n  -c\n)\nx = d[0]", b)
	require.NoError(t, err)
	assert.Equal(t, []float64{-4, -9, -16, -25}, fig.Series[1].Y)
}

func TestEvalErrors(t *testing.T) {
	b := box(t, []string{"t", "c"}, []float64{0, 4}, []float64{1, 9})

	cases := map[string]string{
		"no y":          "x = d[0]",
		"bad column":    "y = d[5]",
		"bad key":       "y = d['nope']",
		"undefined":     "y = z",
		"syntax":        "y = (d[0]",
		"string":        "y = 'oops",
		"length":        "x = d[0][0:1]\ny = d[1]",
		"mismatch ops":  "y = d[0][0:1] + d[1]",
		"reassign d":    "d = 3",
		"bad char":      "y = d[0] @ 2",
		"ey count":      "y = (d[0], d[1], d[1])\ney = (1, 2)",
		"label type":    "y = d[1]\nylabels = 3",
		"trailing junk": "y = d[1] d[0]",
	}
	for name, src := range cases {
		_, err := Eval(src, b)
		var se *ScriptError
		assert.True(t, errors.As(err, &se), name)
	}
}

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{
		"1":          ModeShared,
		"x=d[0]":     ModeShared,
		"pairs":      ModePairs,
		"x=d[0], ey": ModeSharedErrors,
		"index":      ModeIndex,
		"Edit":       ModeEdit,
	} {
		m, err := ParseMode(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, m, in)
	}
	_, err := ParseMode("9")
	assert.Error(t, err)
	_, err = ParseMode("bogus")
	assert.Error(t, err)
	assert.Len(t, Modes(), 7)
}
