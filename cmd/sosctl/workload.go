package main

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/spf13/cobra"

	"github.com/arloliu/sos/codec"
	"github.com/arloliu/sos/errs"
	"github.com/arloliu/sos/store"
)

type workloadFlags struct {
	ops      int
	seed     uint64
	maxItems int
	keep     float64
}

func (f *workloadFlags) register(cmd *cobra.Command) {
	cmd.Flags().IntVar(&f.ops, "ops", 10000, "Number of create/remove operations")
	cmd.Flags().Uint64Var(&f.seed, "seed", 1, "Random seed")
	cmd.Flags().IntVar(&f.maxItems, "max-items", 16, "Maximum entries per generated object")
	cmd.Flags().Float64Var(&f.keep, "keep", 0.6, "Probability that an operation creates rather than removes")
}

// WorkloadResult summarizes a random create/remove run.
type WorkloadResult struct {
	Ops       int           `json:"ops"`
	Created   int           `json:"created"`
	Removed   int           `json:"removed"`
	Exhausted int           `json:"exhausted"`
	Verified  int           `json:"verified"`
	Duration  time.Duration `json:"duration_ns"`
	OpsPerSec float64       `json:"ops_per_sec"`
	Store     store.Stats   `json:"store"`
}

// runWorkload creates random objects and removes random live ones, reading
// every object back before it is removed.
func runWorkload(s *store.Store, f workloadFlags) (WorkloadResult, error) {
	if f.ops < 0 || f.maxItems < 1 {
		return WorkloadResult{}, fmt.Errorf("invalid workload: ops=%d max-items=%d", f.ops, f.maxItems)
	}

	rng := rand.New(rand.NewPCG(f.seed, f.seed^0x9e3779b97f4a7c15))
	res := WorkloadResult{Ops: f.ops}
	var live []store.Handle

	start := time.Now()
	for range f.ops {
		if len(live) == 0 || rng.Float64() < f.keep {
			h, err := s.CreateMap(randomMap(rng, f.maxItems))
			if errors.Is(err, errs.ErrNoSpace) {
				res.Exhausted++
				continue
			}
			if err != nil {
				return res, err
			}
			live = append(live, h)
			res.Created++

			continue
		}

		i := rng.IntN(len(live))
		h := live[i]
		view, err := s.MapView(h)
		if err != nil {
			return res, err
		}
		if _, err := view.Count(); err != nil {
			return res, fmt.Errorf("object %d unreadable: %w", h, err)
		}
		res.Verified++

		if err := s.Remove(h); err != nil {
			return res, err
		}
		live[i] = live[len(live)-1]
		live = live[:len(live)-1]
		res.Removed++
	}
	res.Duration = time.Since(start)
	if res.Duration > 0 {
		res.OpsPerSec = float64(f.ops) / res.Duration.Seconds()
	}

	res.Store = s.Stats()
	if !res.Store.AllocatorIntact {
		return res, fmt.Errorf("allocator integrity check failed after %d operations", f.ops)
	}

	return res, nil
}

func randomMap(rng *rand.Rand, maxItems int) *codec.Map {
	m := codec.NewMap()
	n := 1 + rng.IntN(maxItems)
	for i := range n {
		key := fmt.Sprintf("f%d", i)
		switch rng.IntN(8) {
		case 0:
			m.PutInt8(key, int8(rng.IntN(256)-128))
		case 1:
			m.PutInt16(key, int16(rng.IntN(1<<16)-1<<15))
		case 2:
			m.PutInt32(key, rng.Int32())
		case 3:
			m.PutInt64(key, rng.Int64())
		case 4:
			m.PutFloat32(key, rng.Float32())
		case 5:
			m.PutFloat64(key, rng.NormFloat64())
		case 6:
			m.PutString(key, randomString(rng, 1+rng.IntN(64)))
		default:
			m.PutList(key, codec.NewList(rng.Int32(), randomString(rng, 8)))
		}
	}

	return m
}

func randomString(rng *rand.Rand, n int) string {
	const alphabet = "abcdefghijklmnopqrstuvwxyz0123456789"

	b := make([]byte, n)
	for i := range b {
		b[i] = alphabet[rng.IntN(len(alphabet))]
	}

	return string(b)
}
