package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/henderiw/heaprange/pkg/config"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
	"k8s.io/klog/v2"
)

// loadUnits loads, builds and computes every description file. Each file
// gets its own tree, so files are processed in parallel without sharing
// state; results keep the order of files.
func loadUnits(ctx context.Context, files []string, jobs int) ([]*config.Unit, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	units := make([]*config.Unit, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, max(len(files), 1)))
	for i, path := range files {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			cfg, err := config.Load(path)
			if err != nil {
				return err
			}
			unit, err := cfg.Build()
			if err != nil {
				return err
			}
			end, err := unit.Compute()
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			klog.V(1).InfoS("computed description", "file", path, "tree", unit.Tree.Name(), "heaps", unit.Tree.Size(), "end", end)
			units[i] = unit
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return units, nil
}

func loadUnitsForCmd(cmd *cobra.Command, files []string) ([]*config.Unit, error) {
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return nil, err
	}
	return loadUnits(cmd.Context(), files, jobs)
}
