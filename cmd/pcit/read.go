package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Thiagojm/pcit_cli_linux/pcit1"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

var readOpts struct {
	port    string
	baud    int
	timeout time.Duration
	all     bool
}

var readCmd = &cobra.Command{
	Use:   "read",
	Short: "Read one line from the counter",
	Long: `Read waits for one complete line from the counter and prints its
iteration and count. With --all it prints every line already buffered
instead. The saved port and baud rate are used unless given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(settingsDir, name)
		if err != nil {
			return err
		}
		port, baud, timeout := s.Connection.Port, s.Connection.BaudRate, s.Connection.TimeoutDuration()
		if cmd.Flags().Changed("port") {
			port = readOpts.port
		}
		if cmd.Flags().Changed("baud") {
			baud = readOpts.baud
		}
		if cmd.Flags().Changed("timeout") {
			timeout = readOpts.timeout
		}

		dev := pcit1.Open(resolvePort(port), pcit1.Options{BaudRate: baud, Timeout: timeout})
		defer dev.Disconnect()

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		if readOpts.all {
			// Give a real counter one report period to fill the buffer.
			if !dev.Simulation() {
				time.Sleep(time.Second)
			}
			readings, err := dev.ReadAll(ctx)
			for _, r := range readings {
				fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", r.Iteration, r.Count)
			}
			return err
		}
		r, err := dev.ReadLine(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d\t%d\n", r.Iteration, r.Count)
		return nil
	},
}

func init() {
	f := readCmd.Flags()
	f.StringVarP(&readOpts.port, "port", "p", pcit1.SimulationPort, "port path, number from 'pcit ports', or description substring")
	f.IntVarP(&readOpts.baud, "baud", "b", pcit1.DefaultBaudRate, "baud rate")
	f.DurationVar(&readOpts.timeout, "timeout", pcit1.DefaultTimeout, "time to wait for a line")
	f.BoolVarP(&readOpts.all, "all", "a", false, "print every buffered line")
	rootCmd.AddCommand(readCmd)
}
