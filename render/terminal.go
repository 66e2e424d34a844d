package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/buger/goterm"

	"github.com/Thiagojm/pcit_cli_linux/plotscript"
)

// Chart renders the first series of fig as an ASCII line chart, a
// histogram when hist is set. It returns a short message instead when there
// is not enough spread in the data to scale a chart.
func Chart(fig plotscript.Figure, hist bool, width, height int) string {
	if len(fig.Series) == 0 {
		return "waiting for data"
	}
	s := fig.Series[0]

	var xs, ys []float64
	xlabel, ylabel := s.XLabel, s.YLabel
	if hist {
		h := Histogram(s.Y)
		xs, ys = h.Centers(), h.Counts
		xlabel, ylabel = s.YLabel, "Occurrences"
	} else {
		pts, _ := points(s)
		for _, p := range pts {
			xs = append(xs, p.X)
			ys = append(ys, p.Y)
		}
	}
	if !spread(xs) || !spread(ys) {
		return fmt.Sprintf("waiting for data (%d points)", len(s.Y))
	}
	if xlabel == "" {
		xlabel = "x"
	}
	if ylabel == "" {
		ylabel = "y"
	}

	data := new(goterm.DataTable)
	data.AddColumn(xlabel)
	data.AddColumn(ylabel)
	for i := range xs {
		data.AddRow(xs[i], ys[i])
	}
	chart := goterm.NewLineChart(width, height)
	chart.Flags = goterm.DRAW_RELATIVE
	return chart.Draw(data)
}

// spread reports whether vs has at least two distinct values.
func spread(vs []float64) bool {
	for _, v := range vs[min(1, len(vs)):] {
		if v != vs[0] {
			return true
		}
	}
	return false
}

// Screen redraws a status block and chart in place on a terminal.
type Screen struct {
	Width, Height int
}

// Draw clears the terminal and prints status lines followed by the chart.
func (s Screen) Draw(status []string, chart string) {
	goterm.Clear()
	goterm.MoveCursor(1, 1)
	for _, line := range status {
		goterm.Println(line)
	}
	goterm.Println(chart)
	goterm.Flush()
}

// Size returns the chart size for the current terminal, falling back to
// the configured size.
func (s Screen) Size(statusLines int) (int, int) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = goterm.Width() - 2
	}
	if h <= 0 {
		h = goterm.Height() - statusLines - 2
	}
	return max(w, 20), max(h, 8)
}

// WriteStatus prints status lines to w without terminal control codes.
func WriteStatus(w io.Writer, status []string) error {
	_, err := io.WriteString(w, strings.Join(status, "\n")+"\n")
	return err
}
