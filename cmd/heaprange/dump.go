package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/henderiw/heaprange/pkg/abstractheap"
	"github.com/henderiw/heaprange/pkg/heaprange"
	"github.com/spf13/cobra"
	"k8s.io/apimachinery/pkg/labels"
)

var (
	treeColor  = color.New(color.FgYellow, color.Bold)
	heapColor  = color.New(color.FgCyan)
	rangeColor = color.New(color.FgGreen)
)

func newDumpCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dump FILE...",
		Short: "Print the heap tree of each description with its computed ranges",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selector, err := cmd.Flags().GetString("selector")
			if err != nil {
				return err
			}
			var sel labels.Selector
			if selector != "" {
				if sel, err = labels.Parse(selector); err != nil {
					return fmt.Errorf("invalid selector %q: %w", selector, err)
				}
			}
			units, err := loadUnitsForCmd(cmd, args)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, unit := range units {
				if sel != nil {
					if err := writeSelected(out, unit.Tree, sel); err != nil {
						return err
					}
					continue
				}
				writeTree(out, unit.Tree)
			}
			return nil
		},
	}
	cmd.Flags().String("selector", "", "only list heaps whose labels match this selector")
	return cmd
}

func writeTree(w io.Writer, tree *abstractheap.Tree) {
	span := tree.Span()
	treeColor.Fprintf(w, "%s %s %d slots\n", tree.Name(), span, span.Width())
	iter := tree.Iterate()
	for iter.Next() {
		writeHeap(w, iter.Node(), iter.Depth()+1)
	}
}

func writeSelected(w io.Writer, tree *abstractheap.Tree, sel labels.Selector) error {
	treeColor.Fprintf(w, "%s %s\n", tree.Name(), sel)
	nodes := tree.GetByLabel(sel)
	ranges := make([]heaprange.Range, 0, len(nodes))
	for _, n := range nodes {
		writeHeap(w, n, 1)
		ranges = append(ranges, n.Range())
	}
	merged, ok := heaprange.Merge(ranges)
	if !ok {
		return fmt.Errorf("tree %s: selection holds an empty range", tree.Name())
	}
	spans := make([]string, 0, len(merged))
	for _, r := range merged {
		spans = append(spans, r.String())
	}
	fmt.Fprintf(w, "  covers %s\n", strings.Join(spans, " "))
	return nil
}

func writeHeap(w io.Writer, n *abstractheap.Node, depth int) {
	fmt.Fprint(w, strings.Repeat("  ", depth))
	heapColor.Fprintf(w, "%s", n.Name())
	fmt.Fprintf(w, "(%d)", n.Offset())
	rangeColor.Fprintf(w, "%s", n.Range())
	if l := n.Labels(); len(l) > 0 {
		fmt.Fprintf(w, " {%s}", l)
	}
	fmt.Fprintln(w)
}
