package alloc

import (
	"errors"
	"log/slog"

	"github.com/arloliu/sos/arena"
	"github.com/arloliu/sos/endian"
	"github.com/arloliu/sos/internal/options"
)

type config struct {
	engine endian.EndianEngine
	mmap   bool
	logger *slog.Logger
}

func newConfig(opts []Option) (*config, error) {
	cfg := &config{
		engine: endian.GetLittleEndianEngine(),
		logger: slog.Default(),
	}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *config) arenaOptions() []arena.Option {
	opts := []arena.Option{arena.WithByteOrder(c.engine)}
	if c.mmap {
		opts = append(opts, arena.WithMmap())
	}

	return opts
}

// Option configures an allocator.
type Option = options.Option[*config]

// WithByteOrder sets the byte order of boundary tags, free-list pointers and
// payload values. Defaults to little-endian.
func WithByteOrder(engine endian.EndianEngine) Option {
	return options.New(func(c *config) error {
		if engine == nil {
			return errors.New("alloc: nil byte order")
		}
		c.engine = engine

		return nil
	})
}

// WithMmap places the arena in an anonymous memory mapping, outside the Go heap.
func WithMmap() Option {
	return options.NoError(func(c *config) { c.mmap = true })
}

// WithLogger sets the logger for lifecycle and integrity messages.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
