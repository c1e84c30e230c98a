package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/compress"
	"github.com/arloliu/sos/format"
	"github.com/arloliu/sos/store"
)

var (
	imageArena       arenaFlags
	imageWorkload    workloadFlags
	imageCompression string
)

func init() {
	cmd := newImageCmd()
	imageArena.register(cmd)
	imageWorkload.register(cmd)
	cmd.Flags().StringVar(&imageCompression, "compression", "zstd", "Image compression: none, zstd, s2 or lz4")
	rootCmd.AddCommand(cmd)
}

func newImageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "image <output>",
		Short: "Run a workload and write a compressed arena image",
		Long: `The image command runs the bench workload and writes a checksummed,
compressed snapshot of the raw arena for offline inspection.

Example:
  sosctl image arena.img
  sosctl image arena.img --compression lz4 --ops 2000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runImage(cmd, args[0])
		},
	}
}

// ImageResult describes a written image.
type ImageResult struct {
	Path           string  `json:"path"`
	Compression    string  `json:"compression"`
	ArenaSize      int64   `json:"arena_size"`
	ImageSize      int64   `json:"image_size"`
	Ratio          float64 `json:"ratio"`
	SpaceSavingPct float64 `json:"space_saving_pct"`
}

func runImage(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	ct, ok := format.ParseCompression(imageCompression)
	if !ok {
		return fmt.Errorf("unknown compression %q", imageCompression)
	}

	a, err := imageArena.allocator()
	if err != nil {
		return err
	}

	s, err := store.New(a, store.WithLogger(newLogger()), store.WithOwnedAllocator())
	if err != nil {
		_ = a.Close()
		return err
	}
	defer s.Close()

	if _, err := runWorkload(s, imageWorkload); err != nil {
		return err
	}

	img, err := a.Image(ct)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}

	stats := compress.CompressionStats{
		Algorithm:      ct,
		OriginalSize:   int64(a.Capacity()),
		CompressedSize: int64(len(img)),
	}
	res := ImageResult{
		Path:           path,
		Compression:    ct.String(),
		ArenaSize:      stats.OriginalSize,
		ImageSize:      stats.CompressedSize,
		Ratio:          stats.CompressionRatio(),
		SpaceSavingPct: stats.SpaceSavings(),
	}

	if jsonOut {
		return printJSON(out, res)
	}

	fmt.Fprintf(out, "wrote %s: %d byte arena -> %d byte image (%s, %.1f%% saved)\n",
		res.Path, res.ArenaSize, res.ImageSize, res.Compression, res.SpaceSavingPct)
	printVerbose(out, "%s\n", a.Details())

	return nil
}
