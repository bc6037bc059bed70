package main

import (
	"flag"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// newRootCmd builds the command tree; main and the tests share it.
func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "heaprange",
		Short:        "Compute alias ranges for abstract heap descriptions",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			mode, err := cmd.Flags().GetString("color")
			if err != nil {
				return err
			}
			switch mode {
			case "on":
				color.NoColor = false
			case "off":
				color.NoColor = true
			}
			return nil
		},
	}

	rootCmd.AddCommand(newDumpCmd())
	rootCmd.AddCommand(newSnapshotCmd())
	rootCmd.AddCommand(newResolveCmd())
	rootCmd.AddCommand(newOverlapCmd())
	rootCmd.AddCommand(newCoveringCmd())

	rootCmd.PersistentFlags().String("color", "auto", "colorize output (auto|on|off)")
	rootCmd.PersistentFlags().Int("jobs", 0, "maximum number of description files processed in parallel (0 = GOMAXPROCS)")

	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	rootCmd.PersistentFlags().AddGoFlagSet(fs)
	return rootCmd
}

func main() {
	defer klog.Flush()
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
