// Package dataplot ties a data box to its plot script, renderer, log file
// and autosave counter.
package dataplot

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Thiagojm/pcit_cli_linux/databox"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/render"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

// settingsPrefix prefixes plot settings stored in data file headers.
const settingsPrefix = "DataboxPlot."

// ErrAutosaveOff is returned by Autosave when no target is configured.
var ErrAutosaveOff = errors.New("autosave is not configured")

// Plot is a data box plus everything needed to show and save it.
type Plot struct {
	Box       *databox.Box
	Settings  *settings.Plot
	Generator plotscript.Generator
	// Output is the PNG written by Plot; empty skips rendering.
	Output string
	Title  string

	logger *databox.Logger
	fig    plotscript.Figure
	now    func() time.Time
}

// New returns a plot backed by s. Changes made through the plot (script
// text, file number) are written back to s.
func New(s *settings.Plot) *Plot {
	return &Plot{Box: databox.New(), Settings: s, now: time.Now}
}

// AppendRow appends to the box with the configured history and, when a
// log file is open, to the log file.
func (p *Plot) AppendRow(row []float64, ckeys []string) error {
	if err := p.Box.AppendRow(row, ckeys, p.Settings.History); err != nil {
		return err
	}
	if p.logger != nil {
		return p.logger.Append(row)
	}
	return nil
}

// StartLog saves the current data to path and appends every later row to it.
func (p *Plot) StartLog(path string, ckeys []string) error {
	l, err := databox.StartLog(p.Box, path, ckeys, p.Settings.Note, p.now())
	if err != nil {
		return err
	}
	p.logger = l
	log.Info().Str("path", path).Msg("logging data")
	return nil
}

// StopLog stops appending rows.
func (p *Plot) StopLog() { p.logger = nil }

// LogPath returns the open log file, or "".
func (p *Plot) LogPath() string {
	if p.logger == nil {
		return ""
	}
	return p.logger.Path()
}

// Mode returns the configured autoscript mode.
func (p *Plot) Mode() plotscript.Mode { return plotscript.Mode(p.Settings.Autoscript) }

// Script returns the script to run, regenerating it unless the mode is
// ModeEdit. The generated text replaces the stored script.
func (p *Plot) Script() string {
	if p.Mode() != plotscript.ModeEdit {
		p.Settings.Script = p.Generator.Generate(p.Mode(), p.Box)
	}
	return p.Settings.Script
}

// Evaluate runs the script. A disabled plot or an empty box yields an
// empty figure.
func (p *Plot) Evaluate() (plotscript.Figure, error) {
	if !p.Settings.Enabled || p.Box.Len() == 0 {
		return plotscript.Figure{}, nil
	}
	return plotscript.Eval(p.Script(), p.Box)
}

// Plotter returns the renderer configured from the settings.
func (p *Plot) Plotter() render.Plotter {
	return render.Plotter{
		Title:     p.Title,
		Multi:     p.Settings.Multi,
		LinkX:     p.Settings.LinkX,
		Histogram: p.Settings.Histogram,
	}
}

// Plot evaluates the script and renders Output. On a script error the
// previous figure is kept and the error returned.
func (p *Plot) Plot() error {
	fig, err := p.Evaluate()
	if err != nil {
		return fmt.Errorf("plot script: %w", err)
	}
	p.fig = fig
	if p.Output == "" {
		return nil
	}
	return p.Plotter().Render(fig, p.Output)
}

// Figure returns the result of the last successful Plot.
func (p *Plot) Figure() plotscript.Figure { return p.fig }

// Clear drops data and header.
func (p *Plot) Clear() {
	p.Box.Clear()
	p.fig = plotscript.Figure{}
}

// Save writes the box with the plot settings in its header.
func (p *Plot) Save(path string) error {
	p.Box.SetHeader(databox.HeaderNote, p.Settings.Note)
	for _, kv := range p.settingsHeader() {
		p.Box.SetHeader(settingsPrefix+kv[0], kv[1])
	}
	return p.Box.Save(path, true)
}

// Load reads path. With justSettings only the stored plot settings are
// applied; with justData the settings in the file are ignored.
func (p *Plot) Load(path string, justSettings, justData bool) error {
	src := p.Box
	if justSettings {
		src = databox.New()
		src.Delimiter = p.Box.Delimiter
	}
	if err := src.Load(path, justSettings); err != nil {
		return err
	}
	if !justData {
		if err := p.applyHeader(src); err != nil {
			return fmt.Errorf("settings in %s: %w", path, err)
		}
	}
	if justSettings {
		return nil
	}
	return p.Plot()
}

// Autosave saves to "<dir>/<NNNN> <name>" and increments the file number.
func (p *Plot) Autosave() (string, error) {
	if p.Settings.AutosaveDir == "" || p.Settings.AutosaveName == "" {
		return "", ErrAutosaveOff
	}
	path := databox.AutosavePath(p.Settings.AutosaveDir, p.Settings.AutosaveName, p.Settings.FileNumber)
	if err := p.Save(path); err != nil {
		return "", err
	}
	p.Settings.FileNumber++
	return path, nil
}

func (p *Plot) settingsHeader() [][2]string {
	s := p.Settings
	return [][2]string{
		{"autoscript", strconv.Itoa(s.Autoscript)},
		{"script", s.Script},
		{"enabled", strconv.FormatBool(s.Enabled)},
		{"multi", strconv.FormatBool(s.Multi)},
		{"link_x", strconv.FormatBool(s.LinkX)},
		{"histogram", strconv.FormatBool(s.Histogram)},
		{"history", strconv.Itoa(s.History)},
		{"file_number", strconv.Itoa(s.FileNumber)},
		{"note", s.Note},
	}
}

// applyHeader copies any plot settings found in b's header.
func (p *Plot) applyHeader(b *databox.Box) error {
	s := *p.Settings
	var err error
	get := func(key string) (string, bool) { return b.Header(settingsPrefix + key) }
	atoi := func(key string, dst *int) {
		if v, ok := get(key); ok && err == nil {
			*dst, err = strconv.Atoi(v)
		}
	}
	boolean := func(key string, dst *bool) {
		if v, ok := get(key); ok && err == nil {
			*dst, err = strconv.ParseBool(v)
		}
	}
	str := func(key string, dst *string) {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	atoi("autoscript", &s.Autoscript)
	str("script", &s.Script)
	boolean("enabled", &s.Enabled)
	boolean("multi", &s.Multi)
	boolean("link_x", &s.LinkX)
	boolean("histogram", &s.Histogram)
	atoi("history", &s.History)
	atoi("file_number", &s.FileNumber)
	str("note", &s.Note)
	if err != nil {
		return err
	}
	if s.Autoscript < 0 || s.Autoscript >= len(plotscript.Modes()) {
		return fmt.Errorf("autoscript mode %d out of range", s.Autoscript)
	}
	*p.Settings = s
	return nil
}
