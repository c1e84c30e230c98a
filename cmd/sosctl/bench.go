package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/store"
)

var (
	benchArena    arenaFlags
	benchWorkload workloadFlags
)

func init() {
	cmd := newBenchCmd()
	benchArena.register(cmd)
	benchWorkload.register(cmd)
	rootCmd.AddCommand(cmd)
}

func newBenchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bench",
		Short: "Run a random create/remove workload against a store",
		Long: `The bench command fills a binned arena with random objects, removes random
live objects, reads each one back before removal and verifies the allocator at
the end.

Example:
  sosctl bench --capacity 1048576 --ops 50000
  sosctl bench --byte-order big --mmap --json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBench(cmd)
		},
	}
}

func runBench(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	a, err := benchArena.allocator()
	if err != nil {
		return err
	}

	s, err := store.New(a, store.WithLogger(newLogger()), store.WithOwnedAllocator())
	if err != nil {
		_ = a.Close()
		return err
	}
	defer s.Close()

	res, err := runWorkload(s, benchWorkload)
	if err != nil {
		return err
	}

	if jsonOut {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "ops:        %d (%.0f ops/s)\n", res.Ops, res.OpsPerSec)
	fmt.Fprintf(out, "created:    %d\n", res.Created)
	fmt.Fprintf(out, "removed:    %d\n", res.Removed)
	fmt.Fprintf(out, "exhausted:  %d\n", res.Exhausted)
	fmt.Fprintf(out, "live:       %d objects, %d encoded bytes\n", res.Store.Objects, res.Store.EncodedBytes)
	fmt.Fprintf(out, "allocator:  %s\n", a.Details())
	printVerbose(out, "%s", a.Layout())

	return nil
}
