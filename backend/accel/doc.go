// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package accel provides the accelerator backend for the FFT convolution
// and reduction kernels.
//
// # Overview
//
// The backend runs its FFTs through the algo-fft GPU plan API
// (github.com/cwbudde/algo-fft/gpu). A GPU backend must be registered with
// that package before New is called; otherwise New fails with
// ErrNoAccelerator. There is no CPU fallback.
//
// Plans are pooled per transform length, so repeated calls with the same
// geometry reuse accelerator resources. Independent rows of a call are fanned
// out over goroutines.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fftconv/backend/accel"
//	    "github.com/born-ml/fftconv/fftconv"
//	)
//
//	func main() {
//	    backend, err := accel.New(accel.DefaultConfig())
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer backend.Close()
//
//	    module := fftconv.NewModule(backend)
//	    res, err := module.Call("plus_reduce", x)
//	}
package accel
