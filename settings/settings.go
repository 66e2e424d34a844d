// Package settings persists the connection and plot choices between runs,
// one YAML file per named instance.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/Thiagojm/pcit_cli_linux/pcit1"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
)

// DefaultDir holds settings files when no directory is given.
const DefaultDir = "pcit_settings"

// Connection is the serial panel state.
type Connection struct {
	Port     string  `yaml:"port"`
	BaudRate int     `yaml:"baud_rate"`
	Timeout  float64 `yaml:"timeout_s"`
	Interval float64 `yaml:"interval_s"`
}

// TimeoutDuration returns Timeout as a duration.
func (c Connection) TimeoutDuration() time.Duration { return seconds(c.Timeout) }

// IntervalDuration returns Interval as a duration.
func (c Connection) IntervalDuration() time.Duration { return seconds(c.Interval) }

func seconds(s float64) time.Duration { return time.Duration(s * float64(time.Second)) }

// Plot is the data plot state.
type Plot struct {
	Autoscript int    `yaml:"autoscript"`
	Script     string `yaml:"script"`
	Enabled    bool   `yaml:"enabled"`
	Multi      bool   `yaml:"multi"`
	LinkX      bool   `yaml:"link_x"`
	Histogram  bool   `yaml:"histogram"`
	// History is the number of rows kept in memory, 0 for all.
	History      int    `yaml:"history"`
	FileNumber   int    `yaml:"file_number"`
	Note         string `yaml:"note"`
	AutosaveDir  string `yaml:"autosave_dir"`
	AutosaveName string `yaml:"autosave_name"`
}

// Settings is everything stored for one instance.
type Settings struct {
	Connection Connection `yaml:"connection"`
	Plot       Plot       `yaml:"plot"`

	path string
}

// Defaults returns the settings used on first run.
func Defaults() Settings {
	return Settings{
		Connection: Connection{
			Port:     pcit1.SimulationPort,
			BaudRate: pcit1.DefaultBaudRate,
			Timeout:  pcit1.DefaultTimeout.Seconds(),
			Interval: 1,
		},
		Plot: Plot{
			Autoscript: int(plotscript.ModeShared),
			Enabled:    true,
			Multi:      true,
			LinkX:      true,
			Histogram:  true,
			Note:       "Note",
		},
	}
}

// Load reads <dir>/<name>.yaml. A missing file yields Defaults.
func Load(dir, name string) (*Settings, error) {
	if dir == "" {
		dir = DefaultDir
	}
	s := Defaults()
	s.path = filepath.Join(dir, name+".yaml")

	raw, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return &s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}
	if err := yaml.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("parse settings %s: %w", s.path, err)
	}
	return &s, s.Validate()
}

// Path returns the file the settings are saved to.
func (s *Settings) Path() string { return s.path }

// Validate checks values a hand-edited file could get wrong.
func (s *Settings) Validate() error {
	if !pcit1.ValidBaudRate(s.Connection.BaudRate) {
		return fmt.Errorf("settings %s: unsupported baud rate %d", s.path, s.Connection.BaudRate)
	}
	if s.Connection.Timeout <= 0 {
		return fmt.Errorf("settings %s: timeout must be positive", s.path)
	}
	if s.Connection.Interval <= 0 {
		return fmt.Errorf("settings %s: interval must be positive", s.path)
	}
	if s.Plot.Autoscript < 0 || s.Plot.Autoscript >= len(plotscript.Modes()) {
		return fmt.Errorf("settings %s: autoscript mode %d out of range", s.path, s.Plot.Autoscript)
	}
	if s.Plot.History < 0 {
		return fmt.Errorf("settings %s: history must not be negative", s.path)
	}
	return nil
}

// Save writes the settings, replacing the file atomically.
func (s *Settings) Save() error {
	if s.path == "" {
		return errors.New("settings have no path")
	}
	raw, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create settings dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".settings-*")
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save settings: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save settings: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
