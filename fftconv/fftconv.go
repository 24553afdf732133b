// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fftconv

import (
	"github.com/born-ml/fftconv/internal/fftconv"
	"github.com/born-ml/fftconv/internal/guard"
	"github.com/born-ml/fftconv/tensor"
)

// Kernels is implemented by backends that provide the convolution and reduction kernels.
type Kernels = fftconv.Kernels

// Module is an extension call table.
type Module = fftconv.Module

// Def describes a registered entry point.
type Def = fftconv.Def

// Result is what a table call returns.
type Result = fftconv.Result

// Option configures a Module.
type Option = fftconv.Option

// Conv1DFunction records one convolution for its backward pass.
type Conv1DFunction = fftconv.Conv1DFunction

// PreconditionError reports a tensor rejected before reaching a kernel.
type PreconditionError = guard.PreconditionError

// Entry point names.
const (
	NameForward    = fftconv.NameForward
	NameBackward   = fftconv.NameBackward
	NamePlusReduce = fftconv.NamePlusReduce
)

// Errors, matchable with errors.Is.
var (
	ErrNotRegistered  = fftconv.ErrNotRegistered
	ErrArity          = fftconv.ErrArity
	ErrNoSavedContext = fftconv.ErrNoSavedContext
)

// NewModule builds the call table for k. Only plus_reduce is registered by default.
func NewModule(k Kernels, opts ...Option) *Module {
	return fftconv.NewModule(k, opts...)
}

// WithConvolution registers the forward and backward entry points.
func WithConvolution() Option {
	return fftconv.WithConvolution()
}

// NewConv1DFunction creates a convolution with the given zero padding and index-back.
func NewConv1DFunction(k Kernels, padding, indexBack int) *Conv1DFunction {
	return fftconv.NewConv1DFunction(k, padding, indexBack)
}

// Forward runs the guarded convolution forward kernel.
func Forward(k Kernels, input, filter, bias, padding, indexBack *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return fftconv.Forward(k, input, filter, bias, padding, indexBack)
}

// Backward runs the guarded convolution backward kernel.
func Backward(k Kernels, dout, xfft, yfft, inputWidth, filterWidth, fftSize *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	return fftconv.Backward(k, dout, xfft, yfft, inputWidth, filterWidth, fftSize)
}

// PlusReduce runs the guarded reduction kernel.
func PlusReduce(k Kernels, input *tensor.RawTensor) (float32, error) {
	return fftconv.PlusReduce(k, input)
}

// Catch runs fn and returns the *PreconditionError it panicked with, or nil.
func Catch(fn func()) *PreconditionError {
	return guard.Catch(fn)
}
