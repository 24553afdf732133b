package accel

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/internal/tensor"
)

// convGeometry holds the sizes shared by the forward and backward kernels.
type convGeometry struct {
	N, C, F int // Batch, channels, filters
	W, WW   int // Input and filter widths
	Pad     int // Zero padding on each side of the input
	Wp      int // Padded input width
	Wout    int // Output width
	L       int // FFT length
	H       int // Half-spectrum length
}

func newConvGeometry(n, c, f, w, ww, pad int) (convGeometry, error) {
	g := convGeometry{N: n, C: c, F: f, W: w, WW: ww, Pad: pad}
	if pad < 0 {
		return g, errors.Wrapf(ErrShape, "negative padding %d", pad)
	}
	g.Wp = w + 2*pad
	g.Wout = g.Wp - ww + 1
	if g.Wout <= 0 {
		return g, errors.Wrapf(ErrShape, "filter width %d exceeds padded input width %d", ww, g.Wp)
	}
	g.L = nextPow2(g.Wp + ww - 1)
	g.H = halfLen(g.L)
	return g, nil
}

// ConvForward computes the 1-D cross-correlation of x[N,C,W] with filters
// w[F,C,WW] in the frequency domain and adds bias[F].
//
// padding and indexBack are one-element descriptors. indexBack zeroes that
// many of the highest frequency coefficients of both spectra before they are
// multiplied; 0 keeps the exact result.
//
// Returns [out[N,F,Wout], xfft[N,C,H,2], yfft[F,C,H,2]], where the spectra
// are the compressed half spectra with interleaved real and imaginary parts.
func (b *Backend) ConvForward(x, w, bias, padding, indexBack *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if b.plans.isClosed() {
		return nil, errors.Wrap(ErrClosed, "conv forward")
	}
	if err := sameFloatDType(x, w, bias); err != nil {
		return nil, errors.Wrap(err, "conv forward")
	}
	xs, ws := x.Shape(), w.Shape()
	if len(xs) != 3 || len(ws) != 3 {
		return nil, errors.Wrapf(ErrShape, "conv forward: input %v and filter %v must be rank 3", xs, ws)
	}
	if xs[1] != ws[1] {
		return nil, errors.Wrapf(ErrShape, "conv forward: input channels %d != filter channels %d", xs[1], ws[1])
	}
	if bias.NumElements() != ws[0] {
		return nil, errors.Wrapf(ErrShape, "conv forward: bias %v for %d filters", bias.Shape(), ws[0])
	}
	pad, err := descriptor("padding", padding)
	if err != nil {
		return nil, errors.Wrap(err, "conv forward")
	}
	back, err := descriptor("index_back", indexBack)
	if err != nil {
		return nil, errors.Wrap(err, "conv forward")
	}

	g, err := newConvGeometry(xs[0], xs[1], ws[0], xs[2], ws[2], pad)
	if err != nil {
		return nil, errors.Wrap(err, "conv forward")
	}
	if back < 0 || back >= g.H {
		return nil, errors.Wrapf(ErrIndexBack, "conv forward: index_back %d not in [0, %d)", back, g.H)
	}
	klog.V(2).Infof("accel: conv forward x=%v w=%v pad=%d index_back=%d fft=%d", xs, ws, pad, back, g.L)

	// Spectra of every input row and every filter row.
	xv, wv := x.Float64s(), w.Float64s()
	xSpec := make([]complex128, g.N*g.C*g.H)
	err = b.forEach(g.N*g.C, g.L, func(fw *fftWorker, row int) error {
		half := xSpec[row*g.H : (row+1)*g.H]
		if err := fw.rfft(half, xv[row*g.W:(row+1)*g.W], g.Pad); err != nil {
			return err
		}
		compress(half, back)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv forward: input spectra")
	}
	ySpec := make([]complex128, g.F*g.C*g.H)
	err = b.forEach(g.F*g.C, g.L, func(fw *fftWorker, row int) error {
		half := ySpec[row*g.H : (row+1)*g.H]
		if err := fw.rfft(half, wv[row*g.WW:(row+1)*g.WW], 0); err != nil {
			return err
		}
		compress(half, back)
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv forward: filter spectra")
	}

	// out[n,f] = IFFT(sum_c X[n,c] * conj(Y[f,c]))[:Wout] + bias[f]
	bv := bias.Float64s()
	out := make([]float64, g.N*g.F*g.Wout)
	err = b.forGrid(g.N, g.F, g.L, func(fw *fftWorker, n, f int) error {
		k := n*g.F + f
		acc := make([]complex128, g.H)
		for c := 0; c < g.C; c++ {
			mulConjAdd(acc, xSpec[(n*g.C+c)*g.H:(n*g.C+c+1)*g.H], ySpec[(f*g.C+c)*g.H:(f*g.C+c+1)*g.H])
		}
		row := out[k*g.Wout : (k+1)*g.Wout]
		if err := fw.irfft(row, acc, 0); err != nil {
			return err
		}
		for t := range row {
			row[t] += bv[f]
		}
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv forward: inverse")
	}

	return b.outputs(x.DType(),
		result{out, tensor.Shape{g.N, g.F, g.Wout}},
		result{interleave(xSpec), tensor.Shape{g.N, g.C, g.H, 2}},
		result{interleave(ySpec), tensor.Shape{g.F, g.C, g.H, 2}},
	)
}

type result struct {
	data  []float64
	shape tensor.Shape
}

// outputs allocates kernel results on the backend device.
func (b *Backend) outputs(dtype tensor.DataType, results ...result) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(results))
	for i, r := range results {
		t, err := tensor.FromFloat64s(r.data, r.shape, dtype, b.cfg.Device)
		if err != nil {
			return nil, errors.Wrapf(err, "allocate output %d", i)
		}
		out[i] = t
	}
	return out, nil
}

// descriptor reads a one-element int64 descriptor tensor.
func descriptor(name string, t *tensor.RawTensor) (int, error) {
	if t.DType() != tensor.Int64 {
		return 0, errors.Wrapf(ErrDType, "%s descriptor must be int64, got %s", name, t.DType())
	}
	if t.NumElements() != 1 {
		return 0, errors.Wrapf(ErrShape, "%s descriptor must hold one element, got shape %v", name, t.Shape())
	}
	return int(t.Int64s()[0]), nil
}

// sameFloatDType checks that every tensor has the first tensor's floating point dtype.
func sameFloatDType(ts ...*tensor.RawTensor) error {
	dt := ts[0].DType()
	if !dt.IsFloat() {
		return errors.Wrapf(ErrDType, "%s", dt)
	}
	for _, t := range ts[1:] {
		if t.DType() != dt {
			return errors.Wrapf(ErrDType, "%s mixed with %s", t.DType(), dt)
		}
	}
	return nil
}
