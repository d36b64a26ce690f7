// Package model generates synthetic network-performance samples under a fixed
// causal model: latent network and server delays drive the observed TTFB, a
// two-branch mixture produces packet loss, and throughput is derived from all
// three through a cost model with multiplicative noise.
//
// Reproducibility contract: every row consumes its own random sub-stream,
// seeded deterministically from (seed, row index). Within a row the draw
// order is fixed: log-normal rtt, log-normal server delay, one uniform branch
// draw for the loss mixture, one uniform loss draw only when the congested
// branch is taken, one uniform noise draw. Reordering these draws breaks
// cross-run reproducibility and is a breaking change.
package model

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

// ErrInvalidArgument marks caller errors such as a non-positive sample count.
var ErrInvalidArgument = errors.New("invalid argument")

// Sample is one generated row. ServerDelay is a latent driver of TTFB; it is
// kept on the row for debuggability but the CSV persistence contract exposes
// only the four observed columns.
type Sample struct {
	RTT         float64 `json:"rtt"`
	ServerDelay float64 `json:"server_delay"`
	TTFB        float64 `json:"ttfb"`
	Loss        float64 `json:"loss"`
	Throughput  float64 `json:"throughput"`
}

// Generator produces tables of independent samples. A Generator is immutable
// and safe for concurrent use; each Generate call derives all of its
// randomness from the seed it is given.
type Generator struct {
	params  Params
	workers int
}

// Option configures a Generator.
type Option func(*Generator)

// WithWorkers sets how many goroutines fill rows. Output is identical for any
// worker count because rows are sub-seeded individually.
func WithWorkers(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.workers = n
		}
	}
}

// New creates a Generator with the given calibration.
func New(params Params, opts ...Option) *Generator {
	g := &Generator{params: params, workers: 1}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Params returns the generator's calibration.
func (g *Generator) Params() Params {
	return g.params
}

// Generate produces exactly n rows from the given seed. Two calls with the
// same (n, seed) and calibration yield bit-identical tables, and the first n
// rows of a longer run equal the shorter run's table.
func (g *Generator) Generate(n int, seed int64) (*Table, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: sample count must be >= 1, got %d", ErrInvalidArgument, n)
	}
	if err := g.params.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	samples := make([]Sample, n)
	if g.workers <= 1 {
		for i := range samples {
			samples[i] = g.sampleRow(seed, i)
		}
		return newTable(samples, seed, g.params), nil
	}

	workers := g.workers
	if workers > n {
		workers = n
	}
	var wg sync.WaitGroup
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		lo := w * chunk
		hi := lo + chunk
		if hi > n {
			hi = n
		}
		if lo >= hi {
			break
		}
		wg.Add(1)
		go func(lo, hi int) {
			defer wg.Done()
			for i := lo; i < hi; i++ {
				samples[i] = g.sampleRow(seed, i)
			}
		}(lo, hi)
	}
	wg.Wait()
	return newTable(samples, seed, g.params), nil
}

// sampleRow executes the per-row draw pipeline on the row's own sub-stream.
func (g *Generator) sampleRow(seed int64, index int) Sample {
	p := g.params
	src := rand.NewSource(rowSeed(seed, index))
	rng := rand.New(src)

	networkDelay := distuv.LogNormal{Mu: p.RTTMeanLog, Sigma: p.RTTSigmaLog, Src: src}
	serverDelay := distuv.LogNormal{Mu: p.DelayMeanLog, Sigma: p.DelaySigmaLog, Src: src}
	lossDraw := distuv.Uniform{Min: p.LossMin, Max: p.LossMax, Src: src}
	noiseDraw := distuv.Uniform{Min: p.NoiseMin, Max: p.NoiseMax, Src: src}

	rtt := networkDelay.Rand()
	delay := serverDelay.Rand()
	ttfb := rtt + delay

	loss := 0.0
	if rng.Float64() < p.LossProbability {
		loss = lossDraw.Rand()
	}

	return Sample{
		RTT:         rtt,
		ServerDelay: delay,
		TTFB:        ttfb,
		Loss:        loss,
		Throughput:  p.Throughput(rtt, ttfb, loss, noiseDraw.Rand()),
	}
}

// rowSeed mixes the table seed and row index into an independent stream seed
// (SplitMix64 finalizer). Rows must not share a stream, otherwise parallel
// fill and prefix stability both break.
func rowSeed(seed int64, index int) uint64 {
	z := uint64(seed) + 0x9e3779b97f4a7c15*uint64(index+1)
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}
