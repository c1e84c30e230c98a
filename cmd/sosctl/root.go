package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/alloc"
	"github.com/arloliu/sos/endian"
)

var (
	// Global flags
	verbose bool
	jsonOut bool
)

var rootCmd = &cobra.Command{
	Use:   "sosctl",
	Short: "Exercise and inspect shared object store arenas",
	Long: `sosctl drives the binned arena allocator and object store: it runs
allocation workloads, exports compressed arena images, inspects images offline
and loads msgpack documents into a store.`,
	Version:       "0.1.0",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output and debug logs")
	rootCmd.PersistentFlags().BoolVar(&jsonOut, "json", false, "Output in JSON format")
}

func execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newLogger returns a text logger on stderr, at debug level in verbose mode.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// printJSON outputs data as indented JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	return encoder.Encode(v)
}

// printVerbose prints a message if verbose mode is enabled
func printVerbose(w io.Writer, format string, args ...any) {
	if verbose {
		fmt.Fprintf(w, format, args...)
	}
}

// arenaFlags are shared by commands that build an allocator.
type arenaFlags struct {
	capacity  int
	byteOrder string
	mmap      bool
}

func (f *arenaFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.capacity, "capacity", 1<<20, "Arena capacity in bytes")
	cmd.Flags().StringVar(&f.byteOrder, "byte-order", "little", "Arena byte order: little, big or native")
	cmd.Flags().BoolVar(&f.mmap, "mmap", false, "Back the arena with an anonymous memory mapping")
}

func (f *arenaFlags) allocator() (*alloc.Binned, error) {
	opts := []alloc.Option{alloc.WithLogger(newLogger())}

	switch f.byteOrder {
	case "little":
		opts = append(opts, alloc.WithByteOrder(endian.GetLittleEndianEngine()))
	case "big":
		opts = append(opts, alloc.WithByteOrder(endian.GetBigEndianEngine()))
	case "native":
		opts = append(opts, alloc.WithByteOrder(endian.GetNativeEngine()))
	default:
		return nil, fmt.Errorf("unknown byte order %q, want little, big or native", f.byteOrder)
	}
	if f.mmap {
		opts = append(opts, alloc.WithMmap())
	}

	return alloc.NewBinned(f.capacity, opts...)
}
