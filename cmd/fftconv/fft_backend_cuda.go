//go:build cuda

package main

import "github.com/cwbudde/algo-fft/gpu"

func init() {
	fftBackends["cuda"] = func() gpu.Backend { return &gpu.CUDABackend{} }
}
