package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot FILE...",
		Short: "Write the computed heap ranges of each description as yaml or msgpack",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := cmd.Flags().GetString("format")
			if err != nil {
				return err
			}
			if format != "yaml" && format != "msgpack" {
				return fmt.Errorf("unsupported format %q, want yaml or msgpack", format)
			}
			units, err := loadUnitsForCmd(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for i, unit := range units {
				snap := unit.Tree.Snapshot()
				var b []byte
				if format == "msgpack" {
					b, err = snap.EncodeMsgpack()
				} else {
					b, err = snap.EncodeYAML()
					if i > 0 {
						b = append([]byte("---\n"), b...)
					}
				}
				if err != nil {
					return fmt.Errorf("%s: %w", args[i], err)
				}
				if _, err := out.Write(b); err != nil {
					return err
				}
			}
			return nil
		},
	}
	cmd.Flags().String("format", "yaml", "output format (yaml|msgpack)")
	return cmd
}
