// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fftconv_test

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-fft/gpu"

	"github.com/born-ml/fftconv/backend/accel"
	"github.com/born-ml/fftconv/fftconv"
	"github.com/born-ml/fftconv/tensor"
)

// TestPublicAPI exercises the facade end to end on the mock GPU backend.
func TestPublicAPI(t *testing.T) {
	gpu.RegisterMockBackend()

	backend, err := accel.New(accel.DefaultConfig())
	if err != nil {
		t.Fatalf("accel.New: %v", err)
	}
	defer backend.Close()

	module := fftconv.NewModule(backend)
	if defs := module.Defs(); len(defs) != 1 || defs[0].Name != fftconv.NamePlusReduce {
		t.Fatalf("default table = %v", defs)
	}

	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, tensor.CUDA)
	if err != nil {
		t.Fatal(err)
	}
	res, err := module.Call(fftconv.NamePlusReduce, x)
	if err != nil {
		t.Fatalf("plus_reduce: %v", err)
	}
	if res.Scalar != 10 {
		t.Errorf("plus_reduce = %v, want 10", res.Scalar)
	}

	if _, err := module.Call(fftconv.NameForward); !errors.Is(err, fftconv.ErrNotRegistered) {
		t.Errorf("forward without opt-in: err = %v", err)
	}

	perr := fftconv.Catch(func() { _, _ = fftconv.PlusReduce(backend, x.To(tensor.CPU)) })
	if perr == nil || perr.Tensor != "input" {
		t.Errorf("host tensor: precondition error = %v", perr)
	}
}
