// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package accel

import (
	internalaccel "github.com/born-ml/fftconv/internal/backend/accel"
	"github.com/born-ml/fftconv/tensor"
)

// Backend represents the accelerator backend implementation.
type Backend = internalaccel.Backend

// Config configures the accelerator backend.
type Config = internalaccel.Config

// PoolStats reports FFT plan reuse.
type PoolStats = internalaccel.PoolStats

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// Kernel faults, matchable with errors.Is.
var (
	ErrNoAccelerator   = internalaccel.ErrNoAccelerator
	ErrShape           = internalaccel.ErrShape
	ErrDType           = internalaccel.ErrDType
	ErrIndexBack       = internalaccel.ErrIndexBack
	ErrFFTSizeMismatch = internalaccel.ErrFFTSizeMismatch
	ErrClosed          = internalaccel.ErrClosed
)

// DefaultConfig returns the configuration for the first CUDA device.
func DefaultConfig() Config {
	return internalaccel.DefaultConfig()
}

// New creates an accelerator backend.
//
// Example:
//
//	gpu.RegisterMockBackend() // or a real algo-fft GPU backend
//	backend, err := accel.New(accel.DefaultConfig())
func New(cfg Config) (*Backend, error) {
	return internalaccel.New(cfg)
}
