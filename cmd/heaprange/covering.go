package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/henderiw/heaprange/pkg/heaprange"
	"github.com/spf13/cobra"
)

func newCoveringCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "covering FILE SLOT|BEGIN-END|top",
		Short: "List the heap owning a slot, or the heaps inside a range",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			units, err := loadUnitsForCmd(cmd, args[:1])
			if err != nil {
				return err
			}
			tree := units[0].Tree
			out := cmd.OutOrStdout()

			if args[1] != "top" && !strings.Contains(args[1], "-") {
				slot, err := strconv.ParseUint(args[1], 10, 32)
				if err != nil {
					return fmt.Errorf("invalid slot %q: %w", args[1], err)
				}
				n := tree.Covering(uint32(slot))
				if n == nil {
					return fmt.Errorf("no heap covers slot %d of %s", slot, tree.Name())
				}
				fmt.Fprintf(out, "%s %s\n", n.Chain(), n.Range())
				return nil
			}

			rng, err := heaprange.ParseRange(args[1])
			if err != nil {
				return err
			}
			for _, n := range tree.Within(rng) {
				writeHeap(out, n, len(tree.Parents(n))+1)
			}
			return nil
		},
	}
}
