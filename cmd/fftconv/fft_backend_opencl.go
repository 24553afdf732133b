//go:build opencl

package main

import "github.com/cwbudde/algo-fft/gpu"

func init() {
	fftBackends["opencl"] = func() gpu.Backend { return &gpu.OpenCLBackend{} }
}
