package fftconv

import (
	"github.com/pkg/errors"

	"github.com/born-ml/fftconv/internal/tensor"
)

// ErrNoSavedContext is returned by Conv1DFunction.Backward before a successful Forward.
var ErrNoSavedContext = errors.New("fftconv: backward called before forward")

// Conv1DFunction records one FFT convolution for differentiation.
//
// Forward keeps the input and filter spectra so that Backward does not
// transform them again, together with the widths and FFT length that the
// backward kernel needs to reproduce the forward geometry.
type Conv1DFunction struct {
	kernels   Kernels
	padding   int64
	indexBack int64

	input  *tensor.RawTensor
	filter *tensor.RawTensor
	bias   *tensor.RawTensor
	output *tensor.RawTensor

	// Saved by Forward.
	xfft        *tensor.RawTensor
	yfft        *tensor.RawTensor
	inputWidth  *tensor.RawTensor
	filterWidth *tensor.RawTensor
	fftSize     *tensor.RawTensor
}

// NewConv1DFunction creates a convolution with the given zero padding and index-back.
func NewConv1DFunction(k Kernels, padding, indexBack int) *Conv1DFunction {
	return &Conv1DFunction{
		kernels:   k,
		padding:   int64(padding),
		indexBack: int64(indexBack),
	}
}

// Forward convolves input[N,C,W] with filter[F,C,WW], adds bias[F] and
// returns the [N,F,Wout] result.
func (fn *Conv1DFunction) Forward(input, filter, bias *tensor.RawTensor) (*tensor.RawTensor, error) {
	device := fn.kernels.Device()
	outs, err := Forward(fn.kernels, input, filter, bias,
		tensor.Descriptor(fn.padding, device),
		tensor.Descriptor(fn.indexBack, device))
	if err != nil {
		return nil, err
	}

	fn.input, fn.filter, fn.bias = input, filter, bias
	fn.output, fn.xfft, fn.yfft = outs[0], outs[1], outs[2]
	fn.inputWidth = tensor.Descriptor(int64(input.Shape()[2]), device)
	fn.filterWidth = tensor.Descriptor(int64(filter.Shape()[2]), device)
	fn.fftSize = tensor.Descriptor(int64(2*(fn.xfft.Shape()[2]-1)), device)
	return fn.output, nil
}

// Backward returns [dInput, dFilter, dBias] for the output gradient dout.
func (fn *Conv1DFunction) Backward(dout *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	if fn.xfft == nil {
		return nil, ErrNoSavedContext
	}
	return Backward(fn.kernels, dout, fn.xfft, fn.yfft, fn.inputWidth, fn.filterWidth, fn.fftSize)
}

// Inputs returns the input tensors of the last Forward.
func (fn *Conv1DFunction) Inputs() []*tensor.RawTensor {
	return []*tensor.RawTensor{fn.input, fn.filter, fn.bias}
}

// Output returns the output tensor of the last Forward.
func (fn *Conv1DFunction) Output() *tensor.RawTensor {
	return fn.output
}

// Spectra returns the saved input and filter spectra.
func (fn *Conv1DFunction) Spectra() (xfft, yfft *tensor.RawTensor) {
	return fn.xfft, fn.yfft
}
