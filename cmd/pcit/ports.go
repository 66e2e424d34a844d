package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Thiagojm/pcit_cli_linux/portscan"
)

// replaced in tests
var (
	listPorts  = portscan.List
	usbBridges = portscan.Bridges
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List serial ports",
	Long: `Ports lists the serial ports that can be passed to run --port, by
path or by number. The default choice is marked with '*'. USB serial
bridges seen on the bus are listed as well.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ports, err := listPorts()
		if err != nil {
			return err
		}
		def := portscan.DefaultIndex(ports)
		out := cmd.OutOrStdout()
		for i, p := range ports {
			mark := " "
			if i == def {
				mark = "*"
			}
			fmt.Fprintf(out, "%s %2d  %s\n", mark, i+1, p.Description)
		}
		for _, b := range usbBridges() {
			fmt.Fprintf(out, "usb     %s\n", b)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(portsCmd)
}
