// pcit reads a PCIT1-A pulse counter over serial, logs the counts and
// plots them to PNG files and the terminal.
package main

import (
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/Thiagojm/pcit_cli_linux/settings"
)

var (
	logLevel    string
	settingsDir string
	name        string
)

var rootCmd = &cobra.Command{
	Use:   "pcit",
	Short: "PCIT1-A pulse counter monitor",
	Long: `pcit connects to a PCIT1-A pulse counter on a serial port, or
simulates one, and records the counts it reports. Data can be logged to
CSV or Excel files and plotted with a small plot script language.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level, err := zerolog.ParseLevel(logLevel)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(level)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly})
		return nil
	},
}

func init() {
	f := rootCmd.PersistentFlags()
	f.StringVar(&logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&settingsDir, "settings-dir", settings.DefaultDir, "directory holding saved settings")
	f.StringVar(&name, "name", "PCIT1-A", "instance name; settings are stored in <settings-dir>/<name>.yaml")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
