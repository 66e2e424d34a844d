package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/Thiagojm/pcit_cli_linux/dataplot"
	"github.com/Thiagojm/pcit_cli_linux/monitor"
	"github.com/Thiagojm/pcit_cli_linux/pcit1"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/portscan"
	"github.com/Thiagojm/pcit_cli_linux/render"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

var runOpts struct {
	port          string
	baud          int
	timeout       time.Duration
	interval      time.Duration
	history       int
	autoscript    string
	scriptFile    string
	png           string
	logFile       string
	note          string
	autosaveDir   string
	autosaveName  string
	autosaveEvery int
	duration      time.Duration
	noTerm        bool
	reconnect     bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll the counter and plot the counts",
	Long: `Run connects to the counter and polls it every interval, appending a
"Time (s)", "Counts (C)" row per reported line. Without a usable port it
runs on simulated data. The plot is redrawn in the terminal and, with
--png, written to an image after every poll. Settings given on the command
line are remembered for the next run.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(settingsDir, name)
		if err != nil {
			return err
		}
		if err := applyRunFlags(cmd, s); err != nil {
			return err
		}

		choice := s.Connection.Port
		opts := pcit1.Options{
			BaudRate: s.Connection.BaudRate,
			Timeout:  s.Connection.TimeoutDuration(),
		}
		dev := pcit1.Open(resolvePort(choice), opts)
		s.Connection.Port = dev.Port()

		p := dataplot.New(&s.Plot)
		p.Output = runOpts.png
		p.Title = name
		if runOpts.logFile != "" {
			if err := p.StartLog(runOpts.logFile, monitor.Ckeys); err != nil {
				_ = dev.Disconnect()
				return err
			}
		}

		m := monitor.New(dev, p)
		m.Interval = s.Connection.IntervalDuration()
		m.AutosaveEvery = runOpts.autosaveEvery
		if !runOpts.noTerm && term.IsTerminal(int(os.Stdout.Fd())) {
			m.Screen = &render.Screen{}
		}
		if runOpts.reconnect && !dev.Simulation() {
			// The bridge may come back under another path.
			m.Reconnect = func() monitor.Device { return pcit1.Open(resolvePort(choice), opts) }
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		if runOpts.duration > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, runOpts.duration)
			defer cancel()
		}

		err = m.Run(ctx)
		if serr := s.Save(); serr != nil {
			log.Warn().Err(serr).Str("path", s.Path()).Msg("save settings")
		}
		if m.Screen == nil {
			_ = render.WriteStatus(cmd.OutOrStdout(), m.Status())
		}
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return nil
	},
}

// applyRunFlags overlays explicitly set flags on the saved settings.
func applyRunFlags(cmd *cobra.Command, s *settings.Settings) error {
	f := cmd.Flags()
	c, pl := &s.Connection, &s.Plot
	if f.Changed("port") {
		c.Port = runOpts.port
	}
	if f.Changed("baud") {
		c.BaudRate = runOpts.baud
	}
	if f.Changed("timeout") {
		c.Timeout = runOpts.timeout.Seconds()
	}
	if f.Changed("interval") {
		c.Interval = runOpts.interval.Seconds()
	}
	if f.Changed("history") {
		pl.History = runOpts.history
	}
	if f.Changed("note") {
		pl.Note = runOpts.note
	}
	if f.Changed("autosave-dir") {
		pl.AutosaveDir = runOpts.autosaveDir
	}
	if f.Changed("autosave-name") {
		pl.AutosaveName = runOpts.autosaveName
	}
	if err := applyScriptFlags(cmd, pl, runOpts.autoscript, runOpts.scriptFile); err != nil {
		return err
	}
	return s.Validate()
}

// applyScriptFlags sets the autoscript mode and, from a file, the script
// text. A script file implies edit mode unless a mode is also given.
func applyScriptFlags(cmd *cobra.Command, pl *settings.Plot, mode, file string) error {
	f := cmd.Flags()
	if f.Changed("script-file") {
		raw, err := os.ReadFile(file)
		if err != nil {
			return fmt.Errorf("read script: %w", err)
		}
		pl.Script = string(raw)
		pl.Autoscript = int(plotscript.ModeEdit)
	}
	if f.Changed("autoscript") {
		m, err := plotscript.ParseMode(mode)
		if err != nil {
			return err
		}
		pl.Autoscript = int(m)
	}
	return nil
}

// resolvePort maps a port choice onto a device path. Listing failures are
// logged and the choice is used as given.
func resolvePort(choice string) string {
	ports, err := listPorts()
	if err != nil {
		log.Warn().Err(err).Msg("list ports")
		return choice
	}
	p, err := portscan.Resolve(choice, ports)
	if err != nil {
		log.Warn().Err(err).Str("port", choice).Msg("resolve port")
		return choice
	}
	return p.Name
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOpts.port, "port", "p", pcit1.SimulationPort, "port path, number from 'pcit ports', or description substring")
	f.IntVarP(&runOpts.baud, "baud", "b", pcit1.DefaultBaudRate, "baud rate")
	f.DurationVar(&runOpts.timeout, "timeout", pcit1.DefaultTimeout, "time allowed to complete a partial line")
	f.DurationVarP(&runOpts.interval, "interval", "i", monitor.DefaultInterval, "polling interval")
	f.IntVar(&runOpts.history, "history", 0, "rows kept in memory, 0 for all")
	f.StringVar(&runOpts.autoscript, "autoscript", "shared", "plot script mode (edit, shared, pairs, triples, errors, index, user)")
	f.StringVar(&runOpts.scriptFile, "script-file", "", "read the plot script from a file")
	f.StringVar(&runOpts.png, "png", "", "write the plot to this PNG after every poll")
	f.StringVar(&runOpts.logFile, "log-file", "", "append every row to this CSV file")
	f.StringVar(&runOpts.note, "note", "", "note stored in log and autosave headers")
	f.StringVar(&runOpts.autosaveDir, "autosave-dir", "", "directory for numbered autosaves")
	f.StringVar(&runOpts.autosaveName, "autosave-name", "", "file name for numbered autosaves, e.g. counts.csv")
	f.IntVar(&runOpts.autosaveEvery, "autosave-every", 0, "autosave every n polls, 0 disables")
	f.DurationVarP(&runOpts.duration, "duration", "d", 0, "stop after this long, 0 runs until interrupted")
	f.BoolVar(&runOpts.noTerm, "no-term", false, "do not draw the terminal chart; implied when stdout is not a terminal")
	f.BoolVar(&runOpts.reconnect, "reconnect", false, "reopen the port after repeated read errors")
	rootCmd.AddCommand(runCmd)
}
