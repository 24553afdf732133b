package accel

import (
	"sync"

	"github.com/cwbudde/algo-fft/gpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"
)

// maxPlansPerLength caps idle plans kept for one FFT length.
const maxPlansPerLength = 64

// fftWorker is a plan together with its host staging buffers.
// A worker is owned by one goroutine between Acquire and Release.
type fftWorker struct {
	plan  *gpu.Plan[complex128]
	in    []complex128
	out   []complex128
	scale float64 // Applied after Inverse so that Inverse(Forward(x)) == x.
}

// PlanPool reuses FFT plans keyed by transform length.
type PlanPool struct {
	opts  gpu.PlanOptions
	scale float64

	mu     sync.Mutex
	idle   map[int][]*fftWorker
	closed bool

	// Statistics
	created  uint64
	poolHits uint64
}

// PoolStats reports plan pool usage.
type PoolStats struct {
	Created  uint64 // Plans created on the accelerator
	PoolHits uint64 // Acquires served from idle plans
	Idle     int    // Plans currently idle
}

func newPlanPool(opts gpu.PlanOptions) *PlanPool {
	return &PlanPool{
		opts:  opts,
		scale: 1,
		idle:  make(map[int][]*fftWorker),
	}
}

// Acquire returns a worker for FFTs of length n.
func (p *PlanPool) Acquire(n int) (*fftWorker, error) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, ErrClosed
	}
	if free := p.idle[n]; len(free) > 0 {
		w := free[len(free)-1]
		p.idle[n] = free[:len(free)-1]
		p.poolHits++
		p.mu.Unlock()
		return w, nil
	}
	scale := p.scale
	p.mu.Unlock()

	plan, err := gpu.NewPlan[complex128](n, p.opts)
	if err != nil {
		return nil, errors.Wrapf(err, "create fft plan of length %d", n)
	}

	p.mu.Lock()
	p.created++
	p.mu.Unlock()
	klog.V(2).Infof("accel: created fft plan of length %d on device %d", n, p.opts.DeviceIndex)

	return &fftWorker{
		plan:  plan,
		in:    make([]complex128, n),
		out:   make([]complex128, n),
		scale: scale,
	}, nil
}

// Release returns a worker to the pool. Workers beyond the idle cap, or
// released after Close, are destroyed.
func (p *PlanPool) Release(w *fftWorker) {
	if w == nil {
		return
	}
	n := w.plan.Len()

	p.mu.Lock()
	if p.closed || len(p.idle[n]) >= maxPlansPerLength {
		p.mu.Unlock()
		closePlan(w)
		return
	}
	p.idle[n] = append(p.idle[n], w)
	p.mu.Unlock()
}

// isClosed reports whether Close has been called.
func (p *PlanPool) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}

// Stats returns a snapshot of the pool counters.
func (p *PlanPool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	idle := 0
	for _, free := range p.idle {
		idle += len(free)
	}
	return PoolStats{Created: p.created, PoolHits: p.poolHits, Idle: idle}
}

// Close destroys every idle plan. Plans still acquired are destroyed on Release.
func (p *PlanPool) Close() {
	p.mu.Lock()
	idle := p.idle
	p.idle = make(map[int][]*fftWorker)
	p.closed = true
	p.mu.Unlock()

	for _, free := range idle {
		for _, w := range free {
			closePlan(w)
		}
	}
}

// setScale fixes the inverse normalization for workers created afterwards.
func (p *PlanPool) setScale(scale float64) {
	p.mu.Lock()
	p.scale = scale
	for _, free := range p.idle {
		for _, w := range free {
			w.scale = scale
		}
	}
	p.mu.Unlock()
}

func closePlan(w *fftWorker) {
	if err := w.plan.Close(); err != nil {
		klog.Warningf("accel: closing fft plan of length %d: %v", w.plan.Len(), err)
	}
}
