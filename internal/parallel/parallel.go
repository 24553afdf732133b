// Package parallel fans kernel work out over goroutines.
package parallel

import (
	"runtime"
	"sync"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per goroutine to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4, // Kernel items are whole FFT rows, not scalars.
	}
}

// Sequential returns a configuration that runs everything on the calling goroutine.
func Sequential() Config {
	return Config{Enabled: false, NumWorkers: 1, MinChunkSize: 1}
}

// For executes f(i) for i in [0, n) with optional parallelism.
// Falls back to sequential execution if parallelism is disabled or n is too small.
func For(n int, f func(i int), cfg Config) {
	if !cfg.Enabled || cfg.NumWorkers <= 1 || n < cfg.MinChunkSize {
		for i := 0; i < n; i++ {
			f(i)
		}
		return
	}

	var wg sync.WaitGroup
	chunkSize := max((n+cfg.NumWorkers-1)/cfg.NumWorkers, cfg.MinChunkSize, 1)

	for start := 0; start < n; start += chunkSize {
		end := min(start+chunkSize, n)
		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			for i := s; i < e; i++ {
				f(i)
			}
		}(start, end)
	}
	wg.Wait()
}

// ForBatch iterates the outer*inner grid, e.g. (batch, filter) pairs of a convolution.
func ForBatch(outer, inner int, f func(o, i int), cfg Config) {
	For(outer*inner, func(k int) {
		f(k/inner, k%inner)
	}, cfg)
}

// ForChunks splits [0, n) into fixed chunks of chunkSize and calls f once per
// chunk with its index and bounds. Chunk boundaries do not depend on the
// worker count, so per-chunk results can be combined deterministically.
func ForChunks(n, chunkSize int, f func(chunk, start, end int), cfg Config) int {
	if chunkSize <= 0 {
		chunkSize = n
	}
	if n == 0 {
		return 0
	}
	numChunks := (n + chunkSize - 1) / chunkSize
	For(numChunks, func(c int) {
		start := c * chunkSize
		f(c, start, min(start+chunkSize, n))
	}, cfg)
	return numChunks
}
