package main

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.bug.st/serial"

	"github.com/Thiagojm/pcit_cli_linux/pcit1"
)

var (
	dumpBaud    int
	dumpBytes   int
	dumpTimeout time.Duration
)

var dumpCmd = &cobra.Command{
	Use:   "dump PORT",
	Short: "Open a port and hex-dump the first bytes received",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode := &serial.Mode{
			BaudRate: dumpBaud,
			Parity:   serial.NoParity,
			DataBits: 8,
			StopBits: serial.OneStopBit,
		}
		port, err := serial.Open(args[0], mode)
		if err != nil {
			return fmt.Errorf("open %s: %w", args[0], err)
		}
		defer port.Close()
		if err := port.SetReadTimeout(dumpTimeout); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "opened %s at %d baud\n", args[0], dumpBaud)

		buf := make([]byte, dumpBytes)
		n, err := port.Read(buf)
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		if n == 0 {
			fmt.Fprintf(out, "no data within %s\n", dumpTimeout)
			return nil
		}
		fmt.Fprintf(out, "read %d bytes\n%s", n, hex.Dump(buf[:n]))
		return nil
	},
}

func init() {
	dumpCmd.Flags().IntVar(&dumpBaud, "baud", pcit1.DefaultBaudRate, "baud rate")
	dumpCmd.Flags().IntVar(&dumpBytes, "bytes", 64, "maximum bytes to read")
	dumpCmd.Flags().DurationVar(&dumpTimeout, "timeout", 2*time.Second, "read timeout")
	rootCmd.AddCommand(dumpCmd)
}
