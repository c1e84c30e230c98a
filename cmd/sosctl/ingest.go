package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/store"
)

var ingestArena arenaFlags

func init() {
	cmd := newIngestCmd()
	ingestArena.register(cmd)
	rootCmd.AddCommand(cmd)
}

func newIngestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ingest <file>",
		Short: "Store a msgpack document and print it back from the arena",
		Long: `The ingest command decodes a msgpack map or array, stores it in a fresh
arena and prints the object read back through a view. Use "-" to read stdin.

Example:
  sosctl ingest doc.msgpack
  sosctl ingest doc.msgpack --verbose
  cat doc.msgpack | sosctl ingest - --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIngest(cmd, args[0])
		},
	}
}

// IngestResult is the JSON form of an ingested object.
type IngestResult struct {
	Handle      uint64 `json:"handle"`
	Block       int    `json:"block"`
	EncodedSize int    `json:"encoded_size"`
	Object      any    `json:"object"`
}

func runIngest(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(cmd.InOrStdin())
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read document: %w", err)
	}

	a, err := ingestArena.allocator()
	if err != nil {
		return err
	}

	s, err := store.New(a, store.WithLogger(newLogger()), store.WithOwnedAllocator())
	if err != nil {
		_ = a.Close()
		return err
	}
	defer s.Close()

	h, err := s.ImportMsgpack(data)
	if err != nil {
		return err
	}
	p, err := s.Pointer(h)
	if err != nil {
		return err
	}
	size, err := s.Size(h)
	if err != nil {
		return err
	}

	var (
		root any
		dump string
	)
	if m, err := s.MapView(h); err == nil {
		root, dump = m, m.Dump()
	} else {
		l, err := s.ListView(h)
		if err != nil {
			return err
		}
		root, dump = l, l.Dump()
	}

	if jsonOut {
		plain, err := toPlain(root)
		if err != nil {
			return err
		}

		return printJSON(out, IngestResult{Handle: uint64(h), Block: int(p), EncodedSize: size, Object: plain})
	}

	fmt.Fprintf(out, "handle %d at block %d, %d encoded bytes\n", h, p, size)
	if err := printTree(out, root, 0); err != nil {
		return err
	}
	printVerbose(out, "%s", dump)

	return nil
}

// printTree writes one line per value, indenting nested containers.
func printTree(w io.Writer, v any, depth int) error {
	pad := strings.Repeat("  ", depth)

	switch x := v.(type) {
	case codec.MapView:
		it := x.Iterator()
		for it.Next() {
			if err := printEntry(w, pad, it.Key(), it.Value(), depth); err != nil {
				return err
			}
		}

		return it.Err()
	case codec.ListView:
		it := x.Iterator()
		for it.Next() {
			if err := printEntry(w, pad, fmt.Sprintf("[%d]", it.Index()), it.Value(), depth); err != nil {
				return err
			}
		}

		return it.Err()
	default:
		return fmt.Errorf("unexpected root %T", v)
	}
}

func printEntry(w io.Writer, pad, label string, v any, depth int) error {
	switch x := v.(type) {
	case codec.MapView, codec.ListView:
		fmt.Fprintf(w, "%s%s:\n", pad, label)
		return printTree(w, x, depth+1)
	case string:
		fmt.Fprintf(w, "%s%s: %q (%T)\n", pad, label, x, x)
	default:
		fmt.Fprintf(w, "%s%s: %v (%T)\n", pad, label, x, x)
	}

	return nil
}

// toPlain converts views into maps and slices for JSON output.
func toPlain(v any) (any, error) {
	switch x := v.(type) {
	case codec.MapView:
		out := make(map[string]any)
		for k, item := range x.All() {
			p, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out[k] = p
		}
		_, err := x.Count()

		return out, err
	case codec.ListView:
		out := []any{}
		for _, item := range x.All() {
			p, err := toPlain(item)
			if err != nil {
				return nil, err
			}
			out = append(out, p)
		}
		_, err := x.Count()

		return out, err
	default:
		return v, nil
	}
}
