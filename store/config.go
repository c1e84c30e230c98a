package store

import (
	"log/slog"

	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/internal/options"
)

type config struct {
	logger      *slog.Logger
	encoderOpts []codec.EncoderOption
	ownAlloc    bool
}

// Option configures a Store.
type Option = options.Option[*config]

// WithLogger sets the logger for object lifecycle messages.
// Defaults to slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	})
}

// WithEncoderOptions passes options to the store encoder. The byte order
// always follows the allocator and cannot be overridden.
func WithEncoderOptions(opts ...codec.EncoderOption) Option {
	return options.NoError(func(c *config) {
		c.encoderOpts = append(c.encoderOpts, opts...)
	})
}

// WithOwnedAllocator makes Close also close the allocator.
func WithOwnedAllocator() Option {
	return options.NoError(func(c *config) { c.ownAlloc = true })
}
