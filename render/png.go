// Package render draws plot figures to PNG files and to the terminal.
package render

import (
	"fmt"
	"math"
	"os"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/Thiagojm/pcit_cli_linux/plotscript"
)

// Plotter renders a plotscript.Figure.
type Plotter struct {
	// Title is drawn above the first panel.
	Title string
	// Multi draws one panel per series instead of overlaying them.
	Multi bool
	// LinkX gives every panel the same x range.
	LinkX bool
	// Histogram bins each series' y values instead of drawing y against x.
	Histogram bool
	Width     vg.Length
	Height    vg.Length
}

// Defaults for Plotter sizes.
const (
	DefaultWidth  = 8 * vg.Inch
	DefaultHeight = 5 * vg.Inch
)

// Render draws fig and writes it to path as PNG.
func (p Plotter) Render(fig plotscript.Figure, path string) error {
	plots, err := p.Plots(fig)
	if err != nil {
		return err
	}
	w, h := p.Width, p.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
		if p.Multi && len(plots) > 1 {
			h = vg.Length(len(plots)) * 3 * vg.Inch
		}
	}

	img := vgimg.New(w, h)
	dc := draw.New(img)
	grid := make([][]*plot.Plot, len(plots))
	for i := range plots {
		grid[i] = []*plot.Plot{plots[i]}
	}
	tiles := draw.Tiles{Rows: len(plots), Cols: 1, PadTop: vg.Points(4), PadBottom: vg.Points(4), PadX: vg.Points(4), PadY: vg.Points(8)}
	canvases := plot.Align(grid, tiles, dc)
	for i := range plots {
		plots[i].Draw(canvases[i][0])
	}

	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if _, err := (vgimg.PngCanvas{Canvas: img}).WriteTo(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// Plots builds the panels without drawing them.
func (p Plotter) Plots(fig plotscript.Figure) ([]*plot.Plot, error) {
	if len(fig.Series) == 0 {
		pl := plot.New()
		pl.Title.Text = p.title("no data")
		return []*plot.Plot{pl}, nil
	}

	var plots []*plot.Plot
	var shared *plot.Plot
	for i, s := range fig.Series {
		pl := shared
		if pl == nil || p.Multi {
			pl = plot.New()
			plots = append(plots, pl)
			if len(plots) == 1 {
				pl.Title.Text = p.title("")
			}
			if !p.Multi {
				shared = pl
				pl.Legend.Top = true
			}
		}
		if err := p.add(pl, i, s); err != nil {
			return nil, fmt.Errorf("series %d: %w", i, err)
		}
	}

	if p.Multi && p.LinkX && len(plots) > 1 {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, pl := range plots {
			lo, hi = math.Min(lo, pl.X.Min), math.Max(hi, pl.X.Max)
		}
		for _, pl := range plots {
			pl.X.Min, pl.X.Max = lo, hi
		}
	}
	return plots, nil
}

func (p Plotter) title(fallback string) string {
	if p.Title != "" {
		return p.Title
	}
	return fallback
}

func (p Plotter) add(pl *plot.Plot, i int, s plotscript.Series) error {
	col := plotutil.Color(i)
	if p.Histogram {
		h := Histogram(s.Y)
		if len(h.Counts) == 0 {
			return nil
		}
		bars := &plotter.Histogram{FillColor: col, LineStyle: plotter.DefaultLineStyle, Width: h.Edges[1] - h.Edges[0]}
		for b := range h.Counts {
			bars.Bins = append(bars.Bins, plotter.HistogramBin{Min: h.Edges[b], Max: h.Edges[b+1], Weight: h.Counts[b]})
		}
		pl.Add(bars)
		pl.X.Label.Text = s.YLabel
		pl.Y.Label.Text = "Occurrences"
		if !p.Multi {
			pl.Legend.Add(s.YLabel, bars)
		}
		return nil
	}

	pts, errs := points(s)
	if len(pts) == 0 {
		return nil
	}
	line, scatter, err := plotter.NewLinePoints(pts)
	if err != nil {
		return err
	}
	line.Color = col
	scatter.Color = col
	scatter.Shape = plotutil.Shape(i)
	pl.Add(line, scatter)

	if errs != nil {
		bars, err := plotter.NewYErrorBars(struct {
			plotter.XYs
			plotter.YErrors
		}{pts, errs})
		if err != nil {
			return err
		}
		bars.Color = col
		pl.Add(bars)
	}

	pl.X.Label.Text = s.XLabel
	pl.Y.Label.Text = s.YLabel
	if !p.Multi {
		pl.Legend.Add(s.YLabel, line, scatter)
	}
	return nil
}

// points pairs x and y, dropping non-finite points.
func points(s plotscript.Series) (plotter.XYs, plotter.YErrors) {
	var pts plotter.XYs
	var errs plotter.YErrors
	for j, y := range s.Y {
		x := float64(j)
		if s.X != nil {
			x = s.X[j]
		}
		if !finite(x) || !finite(y) {
			continue
		}
		pts = append(pts, plotter.XY{X: x, Y: y})
		if s.EY != nil {
			e := s.EY[j]
			if !finite(e) {
				e = 0
			}
			errs = append(errs, struct{ Low, High float64 }{e, e})
		}
	}
	return pts, errs
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
