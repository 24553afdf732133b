package accel

import (
	"math/bits"
	"math/cmplx"
	"sync"

	"github.com/pkg/errors"

	"github.com/born-ml/fftconv/internal/parallel"
)

// nextPow2 returns the smallest power of two >= n, and at least 2.
func nextPow2(n int) int {
	if n <= 2 {
		return 2
	}
	return 1 << bits.Len(uint(n-1))
}

func isPow2(n int) bool {
	return n >= 2 && n&(n-1) == 0
}

// halfLen is the number of non-redundant coefficients of a real signal's FFT of length n.
func halfLen(n int) int {
	return n/2 + 1
}

// rfft places src at offset in a zeroed frame of the plan length and stores
// the first len(dst) coefficients of its FFT in dst.
func (w *fftWorker) rfft(dst []complex128, src []float64, offset int) error {
	clear(w.in)
	for i, v := range src {
		w.in[offset+i] = complex(v, 0)
	}
	if err := w.plan.Forward(w.out, w.in); err != nil {
		return errors.Wrap(err, "forward fft")
	}
	copy(dst, w.out[:len(dst)])
	return nil
}

// irfft rebuilds the full Hermitian spectrum from half, inverts it and stores
// real samples [from, from+len(dst)) in dst. Imaginary parts of the DC and
// Nyquist coefficients are ignored.
func (w *fftWorker) irfft(dst []float64, half []complex128, from int) error {
	n := len(w.in)
	clear(w.in)
	copy(w.in, half)
	for k := 1; k < len(half); k++ {
		if n-k >= len(half) {
			w.in[n-k] = cmplx.Conj(half[k])
		}
	}
	if err := w.plan.Inverse(w.out, w.in); err != nil {
		return errors.Wrap(err, "inverse fft")
	}
	for i := range dst {
		dst[i] = real(w.out[from+i]) * w.scale
	}
	return nil
}

// compress zeroes the top indexBack coefficients of a half spectrum.
func compress(half []complex128, indexBack int) {
	if indexBack > 0 {
		clear(half[len(half)-indexBack:])
	}
}

// mulConjAdd accumulates a * conj(b) into acc.
func mulConjAdd(acc, a, b []complex128) {
	for k := range acc {
		acc[k] += a[k] * cmplx.Conj(b[k])
	}
}

// mulAdd accumulates a * b into acc.
func mulAdd(acc, a, b []complex128) {
	for k := range acc {
		acc[k] += a[k] * b[k]
	}
}

// firstError keeps the first error reported by concurrent tasks.
type firstError struct {
	mu  sync.Mutex
	err error
}

func (e *firstError) set(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
}

func (e *firstError) get() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// forEach runs f(worker, i) for i in [0, n), each call holding a worker for
// FFTs of length size.
func (b *Backend) forEach(n, size int, f func(w *fftWorker, i int) error) error {
	var failed firstError
	parallel.For(n, func(i int) {
		if failed.get() != nil {
			return
		}
		w, err := b.plans.Acquire(size)
		if err != nil {
			failed.set(err)
			return
		}
		defer b.plans.Release(w)
		failed.set(f(w, i))
	}, b.cfg.Parallel)
	return failed.get()
}

// forGrid runs f(worker, o, i) over the outer*inner grid, each call holding a
// worker for FFTs of length size.
func (b *Backend) forGrid(outer, inner, size int, f func(w *fftWorker, o, i int) error) error {
	var failed firstError
	parallel.ForBatch(outer, inner, func(o, i int) {
		if failed.get() != nil {
			return
		}
		w, err := b.plans.Acquire(size)
		if err != nil {
			failed.set(err)
			return
		}
		defer b.plans.Release(w)
		failed.set(f(w, o, i))
	}, b.cfg.Parallel)
	return failed.get()
}

// spectrum converts an interleaved [..., H, 2] buffer to complex values.
func spectrum(interleaved []float64) []complex128 {
	out := make([]complex128, len(interleaved)/2)
	for i := range out {
		out[i] = complex(interleaved[2*i], interleaved[2*i+1])
	}
	return out
}

// interleave converts complex values to a re/im interleaved buffer.
func interleave(values []complex128) []float64 {
	out := make([]float64, 2*len(values))
	for i, v := range values {
		out[2*i] = real(v)
		out[2*i+1] = imag(v)
	}
	return out
}
