package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Thiagojm/pcit_cli_linux/databox"
	"github.com/Thiagojm/pcit_cli_linux/dataplot"
	"github.com/Thiagojm/pcit_cli_linux/plotscript"
	"github.com/Thiagojm/pcit_cli_linux/settings"
)

var plotOpts struct {
	png        string
	autoscript string
	scriptFile string
	histogram  bool
	multi      bool
}

var plotCmd = &cobra.Command{
	Use:   "plot FILE",
	Short: "Plot a saved data file to PNG",
	Long: `Plot loads a CSV or .xlsx data file, evaluates its plot script and
writes a PNG. Plot settings stored in the file are used unless a mode or
script is given on the command line.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s := settings.Defaults()
		p := dataplot.New(&s.Plot)
		p.Title = args[0]

		overridden := cmd.Flags().Changed("autoscript") || cmd.Flags().Changed("script-file")
		if err := p.Box.Load(args[0], false); err != nil {
			return err
		}
		if !overridden {
			// Settings only; the data is already loaded.
			if err := p.Load(args[0], true, false); err != nil {
				return err
			}
		}
		if err := applyScriptFlags(cmd, &s.Plot, plotOpts.autoscript, plotOpts.scriptFile); err != nil {
			return err
		}
		if cmd.Flags().Changed("histogram") {
			s.Plot.Histogram = plotOpts.histogram
		}
		if cmd.Flags().Changed("multi") {
			s.Plot.Multi = plotOpts.multi
		}
		s.Plot.Enabled = true

		p.Output = plotOpts.png
		if p.Output == "" {
			p.Output = strings.TrimSuffix(args[0], filepath.Ext(args[0])) + ".png"
		}
		if err := p.Plot(); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), p.Output)
		return nil
	},
}

var scriptOpts struct {
	mode string
}

var scriptCmd = &cobra.Command{
	Use:   "script FILE",
	Short: "Print the generated plot script for a data file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		mode, err := plotscript.ParseMode(scriptOpts.mode)
		if err != nil {
			return err
		}
		b := databox.New()
		if err := b.Load(args[0], false); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), plotscript.Generator{}.Generate(mode, b))
		return nil
	},
}

func init() {
	f := plotCmd.Flags()
	f.StringVarP(&plotOpts.png, "png", "o", "", "output image, default FILE with a .png extension")
	f.StringVar(&plotOpts.autoscript, "autoscript", "shared", "plot script mode (edit, shared, pairs, triples, errors, index, user)")
	f.StringVar(&plotOpts.scriptFile, "script-file", "", "read the plot script from a file")
	f.BoolVar(&plotOpts.histogram, "histogram", true, "plot a histogram of each trace's y values instead of the trace")
	f.BoolVar(&plotOpts.multi, "multi", true, "one panel per trace")
	rootCmd.AddCommand(plotCmd)

	scriptCmd.Flags().StringVarP(&scriptOpts.mode, "mode", "m", "shared", "autoscript mode (edit, shared, pairs, triples, errors, index, user)")
	rootCmd.AddCommand(scriptCmd)
}
