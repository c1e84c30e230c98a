package options

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type testConfig struct {
	capacity int
	name     string
	mmap     bool
}

var errNegative = errors.New("capacity cannot be negative")

func withCapacity(n int) Option[*testConfig] {
	return New(func(c *testConfig) error {
		if n < 0 {
			return errNegative
		}
		c.capacity = n

		return nil
	})
}

func withName(name string) Option[*testConfig] {
	return NoError(func(c *testConfig) { c.name = name })
}

func withMmap() Option[*testConfig] {
	return NoError(func(c *testConfig) { c.mmap = true })
}

func TestApply(t *testing.T) {
	t.Run("applies options in order", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withCapacity(10), withName("arena"), withMmap(), withCapacity(20))
		require.NoError(t, err)
		require.Equal(t, 20, cfg.capacity)
		require.Equal(t, "arena", cfg.name)
		require.True(t, cfg.mmap)
	})

	t.Run("stops at first error", func(t *testing.T) {
		cfg := &testConfig{}
		err := Apply(cfg, withCapacity(5), withCapacity(-1), withName("skipped"))
		require.ErrorIs(t, err, errNegative)
		require.Equal(t, 5, cfg.capacity)
		require.Empty(t, cfg.name)
	})

	t.Run("empty and nil options", func(t *testing.T) {
		cfg := &testConfig{}
		require.NoError(t, Apply(cfg))
		require.NoError(t, Apply[*testConfig](cfg, nil, withMmap()))
		require.True(t, cfg.mmap)
	})
}

func TestOptionWithPrimitive(t *testing.T) {
	var n int
	opt := NoError(func(p *int) { *p = 42 })
	require.NoError(t, opt.apply(&n))
	require.Equal(t, 42, n)
}
