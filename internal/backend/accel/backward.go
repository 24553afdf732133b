package accel

import (
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/internal/tensor"
)

// ConvBackward computes the gradients of ConvForward from the output gradient
// dout[N,F,Wout] and the spectra xfft[N,C,H,2], yfft[F,C,H,2] saved by the
// matching forward call.
//
// inputWidth and filterWidth are the W and WW descriptors of that call and
// fftSize is its FFT length. A spectrum length other than fftSize/2+1 fails
// with ErrFFTSizeMismatch.
//
// Returns [dx[N,C,W], dw[F,C,WW], db[F]].
func (b *Backend) ConvBackward(dout, xfft, yfft, inputWidth, filterWidth, fftSize *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if b.plans.isClosed() {
		return nil, errors.Wrap(ErrClosed, "conv backward")
	}
	if err := sameFloatDType(dout, xfft, yfft); err != nil {
		return nil, errors.Wrap(err, "conv backward")
	}
	g, err := backwardGeometry(dout, xfft, yfft, inputWidth, filterWidth, fftSize)
	if err != nil {
		return nil, errors.Wrap(err, "conv backward")
	}
	klog.V(2).Infof("accel: conv backward dout=%v W=%d WW=%d pad=%d fft=%d", dout.Shape(), g.W, g.WW, g.Pad, g.L)

	xSpec := spectrum(xfft.Float64s())
	ySpec := spectrum(yfft.Float64s())
	dv := dout.Float64s()

	// D[n,f] = FFT(dout[n,f])
	dSpec := make([]complex128, g.N*g.F*g.H)
	err = b.forEach(g.N*g.F, g.L, func(fw *fftWorker, row int) error {
		return fw.rfft(dSpec[row*g.H:(row+1)*g.H], dv[row*g.Wout:(row+1)*g.Wout], 0)
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv backward: gradient spectra")
	}

	// dw[f,c] = IFFT(sum_n X[n,c] * conj(D[n,f]))[:WW]
	dw := make([]float64, g.F*g.C*g.WW)
	err = b.forGrid(g.F, g.C, g.L, func(fw *fftWorker, f, c int) error {
		k := f*g.C + c
		acc := make([]complex128, g.H)
		for n := 0; n < g.N; n++ {
			mulConjAdd(acc, xSpec[(n*g.C+c)*g.H:(n*g.C+c+1)*g.H], dSpec[(n*g.F+f)*g.H:(n*g.F+f+1)*g.H])
		}
		return fw.irfft(dw[k*g.WW:(k+1)*g.WW], acc, 0)
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv backward: filter gradient")
	}

	// dx[n,c] = IFFT(sum_f D[n,f] * Y[f,c])[pad:pad+W]
	dx := make([]float64, g.N*g.C*g.W)
	err = b.forGrid(g.N, g.C, g.L, func(fw *fftWorker, n, c int) error {
		k := n*g.C + c
		acc := make([]complex128, g.H)
		for f := 0; f < g.F; f++ {
			mulAdd(acc, dSpec[(n*g.F+f)*g.H:(n*g.F+f+1)*g.H], ySpec[(f*g.C+c)*g.H:(f*g.C+c+1)*g.H])
		}
		return fw.irfft(dx[k*g.W:(k+1)*g.W], acc, g.Pad)
	})
	if err != nil {
		return nil, errors.Wrap(err, "conv backward: input gradient")
	}

	db := make([]float64, g.F)
	for n := 0; n < g.N; n++ {
		for f := 0; f < g.F; f++ {
			for _, v := range dv[(n*g.F+f)*g.Wout : (n*g.F+f+1)*g.Wout] {
				db[f] += v
			}
		}
	}

	return b.outputs(dout.DType(),
		result{dx, tensor.Shape{g.N, g.C, g.W}},
		result{dw, tensor.Shape{g.F, g.C, g.WW}},
		result{db, tensor.Shape{g.F}},
	)
}

// backwardGeometry recovers the forward geometry from the backward arguments.
func backwardGeometry(dout, xfft, yfft, inputWidth, filterWidth, fftSize *tensor.RawTensor) (convGeometry, error) {
	var g convGeometry
	ds, xs, ys := dout.Shape(), xfft.Shape(), yfft.Shape()
	if len(ds) != 3 || len(xs) != 4 || len(ys) != 4 || xs[3] != 2 || ys[3] != 2 {
		return g, errors.Wrapf(ErrShape, "dout %v, xfft %v, yfft %v: want [N,F,Wout], [N,C,H,2], [F,C,H,2]", ds, xs, ys)
	}

	w, err := descriptor("W", inputWidth)
	if err != nil {
		return g, err
	}
	ww, err := descriptor("WW", filterWidth)
	if err != nil {
		return g, err
	}
	size, err := descriptor("fft_size", fftSize)
	if err != nil {
		return g, err
	}

	g = convGeometry{N: ds[0], F: ds[1], Wout: ds[2], C: xs[1], W: w, WW: ww, L: size, H: xs[2]}
	if !isPow2(size) {
		return g, errors.Wrapf(ErrFFTSizeMismatch, "fft_size %d is not a power of two", size)
	}
	if g.H != halfLen(size) || ys[2] != g.H {
		return g, errors.Wrapf(ErrFFTSizeMismatch, "spectra lengths %d and %d do not match fft_size %d", g.H, ys[2], size)
	}
	if xs[0] != g.N || ys[0] != g.F || ys[1] != g.C {
		return g, errors.Wrapf(ErrShape, "dout %v does not match xfft %v and yfft %v", ds, xs, ys)
	}
	if w <= 0 || ww <= 0 {
		return g, errors.Wrapf(ErrShape, "widths W=%d WW=%d must be positive", w, ww)
	}

	g.Wp = g.Wout + ww - 1
	twoPad := g.Wp - w
	if twoPad < 0 || twoPad%2 != 0 {
		return g, errors.Wrapf(ErrShape, "output width %d is not reachable from W=%d and WW=%d", g.Wout, w, ww)
	}
	g.Pad = twoPad / 2
	if g.Wp+ww-1 > size {
		return g, errors.Wrapf(ErrFFTSizeMismatch, "fft_size %d shorter than linear correlation length %d", size, g.Wp+ww-1)
	}
	return g, nil
}
