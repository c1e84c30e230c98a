package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/alloc"
)

func init() {
	rootCmd.AddCommand(newInspectCmd())
}

func newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <image>",
		Short: "Verify an arena image and summarize its blocks",
		Long: `The inspect command checks the image header and checksum, walks the
boundary tags of the arena and reports block counts and sizes.

Example:
  sosctl inspect arena.img
  sosctl inspect arena.img --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, args[0])
		},
	}
}

func runInspect(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read image: %w", err)
	}

	stats, err := alloc.InspectImage(data)
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}

	if jsonOut {
		return printJSON(out, stats)
	}

	fmt.Fprintf(out, "image:      %s (%d bytes, %s, %s-endian)\n", path, stats.ImageSize, stats.Compression, stats.ByteOrder)
	fmt.Fprintf(out, "capacity:   %d bytes, %d bins\n", stats.Capacity, stats.NumBins)
	fmt.Fprintf(out, "blocks:     %d\n", stats.TotalBlocks)
	fmt.Fprintf(out, "occupied:   %d blocks, %d bytes\n", stats.OccupiedBlocks, stats.OccupiedBytes)
	fmt.Fprintf(out, "free:       %d blocks, %d bytes, largest %d\n", stats.FreeBlocks, stats.FreeBytes, stats.LargestFreeBlock)

	return nil
}
