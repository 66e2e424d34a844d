// Package monitor polls a PCIT1-A on a fixed interval and feeds each
// reading into a data plot.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/Thiagojm/pcit_cli_linux/dataplot"
	"github.com/Thiagojm/pcit_cli_linux/pcit1"
	"github.com/Thiagojm/pcit_cli_linux/render"
)

// Column keys of the rows appended on every tick.
const (
	TimeKey  = "Time (s)"
	CountKey = "Counts (C)"
)

// Ckeys are the column keys in row order.
var Ckeys = []string{TimeKey, CountKey}

// DefaultInterval is the polling period.
const DefaultInterval = time.Second

// maxConsecutiveErrors read failures in a row trigger Reconnect.
const maxConsecutiveErrors = 3

// Device is the part of *pcit1.Device the loop uses.
type Device interface {
	ReadAll(ctx context.Context) ([]pcit1.Reading, error)
	Disconnect() error
	Simulation() bool
	Port() string
}

// Monitor drives the polling loop.
type Monitor struct {
	Device Device
	Plot   *dataplot.Plot
	// Interval between polls, DefaultInterval when zero.
	Interval time.Duration
	// AutosaveEvery saves the plot every n ticks; zero disables it.
	AutosaveEvery int
	// Screen, when set, is redrawn after every tick.
	Screen *render.Screen
	// Reconnect, when set, replaces Device after repeated read errors.
	// Partial-line timeouts do not count. A simulated device is never
	// swapped in.
	Reconnect func() Device

	t0       time.Time
	now      func() time.Time
	ticks    int
	rows     int
	failures int
	last     pcit1.Reading
}

// New returns a monitor for dev feeding p.
func New(dev Device, p *dataplot.Plot) *Monitor {
	return &Monitor{Device: dev, Plot: p, now: time.Now}
}

// Start records the time origin. It is kept when the monitor is started
// again, e.g. after reconnecting with a new Device.
func (m *Monitor) Start() {
	if m.now == nil {
		m.now = time.Now
	}
	if m.t0.IsZero() {
		m.t0 = m.now()
	}
}

// Tick polls the device once, appends one row per reading stamped with the
// elapsed time, and refreshes the plot. Device and plot script errors are
// logged, not returned; only errors that stop data from being recorded are.
func (m *Monitor) Tick(ctx context.Context) (int, error) {
	m.Start()
	m.ticks++
	t := m.now().Sub(m.t0).Seconds()

	readings, err := m.Device.ReadAll(ctx)
	switch {
	case err == nil, errors.Is(err, pcit1.ErrTimeout):
		m.failures = 0
	case ctx.Err() == nil:
		m.failures++
	}
	if err != nil && ctx.Err() == nil {
		log.Warn().Err(err).Str("port", m.Device.Port()).Msg("read")
	}
	if m.failures >= maxConsecutiveErrors && m.Reconnect != nil {
		m.reconnect()
	}
	for _, r := range readings {
		if err := m.Plot.AppendRow([]float64{t, float64(r.Count)}, Ckeys); err != nil {
			return 0, fmt.Errorf("append row: %w", err)
		}
		m.last = r
		m.rows++
	}

	if err := m.Plot.Plot(); err != nil {
		log.Warn().Err(err).Msg("plot")
	}
	if m.AutosaveEvery > 0 && m.ticks%m.AutosaveEvery == 0 {
		path, err := m.Plot.Autosave()
		switch {
		case errors.Is(err, dataplot.ErrAutosaveOff):
		case err != nil:
			log.Warn().Err(err).Msg("autosave")
		default:
			log.Debug().Str("path", path).Msg("autosaved")
		}
	}
	if m.Screen != nil {
		m.draw()
	}
	return len(readings), nil
}

// Run ticks immediately and then every Interval until ctx is done, then
// disconnects the device.
func (m *Monitor) Run(ctx context.Context) error {
	interval := m.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	m.Start()
	defer func() {
		if err := m.Device.Disconnect(); err != nil {
			log.Warn().Err(err).Msg("disconnect")
		}
	}()

	log.Info().Str("port", m.Device.Port()).Bool("simulation", m.Device.Simulation()).
		Dur("interval", interval).Msg("polling")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		if _, err := m.Tick(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Status summarizes the session for display.
func (m *Monitor) Status() []string {
	m.Start()
	mode := "connected"
	if m.Device.Simulation() {
		mode = "SIMULATION"
	}
	lines := []string{
		fmt.Sprintf("PCIT1-A  %s  [%s]  %s", m.Device.Port(), mode, m.now().Format(time.TimeOnly)),
		fmt.Sprintf("ticks %d  rows %d (kept %d)  last iteration %d count %d",
			m.ticks, m.rows, m.Plot.Box.Rows(), m.last.Iteration, m.last.Count),
	}
	if p := m.Plot.LogPath(); p != "" {
		lines = append(lines, "logging to "+p)
	}
	return lines
}

// reconnect swaps in a fresh device. A device that came back in simulation
// mode means the port is still gone; it is dropped and the old, closed
// device keeps failing so the next tick tries again.
func (m *Monitor) reconnect() {
	old := m.Device.Port()
	if err := m.Device.Disconnect(); err != nil {
		log.Warn().Err(err).Str("port", old).Msg("disconnect")
	}
	dev := m.Reconnect()
	if dev.Simulation() {
		_ = dev.Disconnect()
		log.Warn().Str("port", old).Msg("device not back, retrying")
		return
	}
	m.Device = dev
	m.failures = 0
	log.Info().Str("from", old).Str("to", dev.Port()).Msg("reconnected")
}

func (m *Monitor) draw() {
	status := m.Status()
	w, h := m.Screen.Size(len(status))
	m.Screen.Draw(status, render.Chart(m.Plot.Figure(), m.Plot.Settings.Histogram, w, h))
}
