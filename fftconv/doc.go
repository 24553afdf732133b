// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fftconv exposes FFT-based 1-D convolution and whole-tensor
// reduction as guarded entry points and as an extension call table.
//
// # Entry points
//
//   - Forward(k, input, filter, bias, padding, index_back) -> [out, xfft, yfft]
//   - Backward(k, dout, xfft, yfft, W, WW, fft_size) -> [dx, dw, db]
//   - PlusReduce(k, input) -> float32
//
// Every tensor argument must be contiguous and tagged with the kernel
// backend's device. A violation panics with a *PreconditionError naming the
// argument before the kernel runs; use Catch to turn it into a value.
//
// # Call table
//
// NewModule registers only plus_reduce. The convolution entry points join
// the table when WithConvolution is passed:
//
//	module := fftconv.NewModule(backend, fftconv.WithConvolution())
//	for _, def := range module.Defs() {
//	    fmt.Println(def)
//	}
//	res, err := module.Call("forward", x, w, b, pad, back)
package fftconv
