// Package fftconv exposes the accelerator kernels as guarded entry points and
// collects them in an extension call table.
//
// Every entry point validates all of its tensor arguments with the guard
// package before the kernel runs. A tensor off the kernel's device, or with a
// non-contiguous layout, panics with a *guard.PreconditionError and the kernel
// is never called.
package fftconv

import (
	"github.com/born-ml/fftconv/internal/guard"
	"github.com/born-ml/fftconv/internal/tensor"
)

// Kernels is implemented by backends that provide the FFT convolution and
// reduction kernels.
type Kernels interface {
	tensor.Backend

	// ConvForward returns [out, xfft, yfft].
	ConvForward(input, filter, bias, padding, indexBack *tensor.RawTensor) ([]*tensor.RawTensor, error)

	// ConvBackward returns [dx, dw, db].
	ConvBackward(dout, xfft, yfft, inputWidth, filterWidth, fftSize *tensor.RawTensor) ([]*tensor.RawTensor, error)

	// PlusReduce returns the sum of all elements.
	PlusReduce(input *tensor.RawTensor) (float32, error)
}

// Forward runs the FFT convolution forward kernel.
//
// input is [N,C,W], filter [F,C,WW], bias [F]; padding and indexBack are
// one-element descriptors. Returns [out[N,F,Wout], xfft, yfft].
func Forward(k Kernels, input, filter, bias, padding, indexBack *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	args := []guard.Arg{
		guard.Named("input", input),
		guard.Named("filter", filter),
		guard.Named("bias", bias),
		guard.Named("padding", padding),
		guard.Named("index_back", indexBack),
	}
	return guard.Run(k.Device(), args, func() ([]*tensor.RawTensor, error) {
		return k.ConvForward(input, filter, bias, padding, indexBack)
	})
}

// Backward runs the FFT convolution backward kernel with the spectra saved by
// Forward. inputWidth and filterWidth are the W and WW descriptors and
// fftSize the transform length of the matching forward call. Returns [dx, dw, db].
func Backward(k Kernels, dout, xfft, yfft, inputWidth, filterWidth, fftSize *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	args := []guard.Arg{
		guard.Named("dout", dout),
		guard.Named("xfft", xfft),
		guard.Named("yfft", yfft),
		guard.Named("W", inputWidth),
		guard.Named("WW", filterWidth),
		guard.Named("fft_size", fftSize),
	}
	return guard.Run(k.Device(), args, func() ([]*tensor.RawTensor, error) {
		return k.ConvBackward(dout, xfft, yfft, inputWidth, filterWidth, fftSize)
	})
}

// PlusReduce sums every element of input.
func PlusReduce(k Kernels, input *tensor.RawTensor) (float32, error) {
	return guard.Run(k.Device(), []guard.Arg{guard.Named("input", input)}, func() (float32, error) {
		return k.PlusReduce(input)
	})
}
