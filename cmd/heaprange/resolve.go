package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newResolveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "resolve FILE...",
		Short: "Evaluate the resolve entries of each description",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := loadUnitsForCmd(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, unit := range units {
				for _, res := range unit.Resolves {
					addr, err := unit.Resolve(res)
					if err != nil {
						return err
					}
					kind := "runtime"
					if res.Known {
						kind = "constant"
					}
					fmt.Fprintf(out, "%s[%s %d] -> %s ", res.Family, kind, res.Index, addr)
					rangeColor.Fprintf(out, "%s\n", addr.Heap.Range())
				}
			}
			return nil
		},
	}
}
