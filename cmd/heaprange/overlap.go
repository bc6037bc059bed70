package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newOverlapCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "overlap FILE HEAP HEAP",
		Short: "Report whether two heaps of a description may alias",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := loadUnitsForCmd(cmd, args[:1])
			if err != nil {
				return err
			}
			tree := units[0].Tree
			overlap, err := tree.Overlaps(args[1], args[2])
			if err != nil {
				return err
			}
			a, _ := tree.Get(args[1])
			b, _ := tree.Get(args[2])
			verdict := "disjoint"
			if overlap {
				verdict = "overlap"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s %s %s: %s\n",
				a.Name(), a.Range(), a.Range().Relate(b.Range()), b.Name(), b.Range(), verdict)
			return nil
		},
	}
}
