package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cwbudde/algo-fft/gpu"
	"k8s.io/klog/v2"
)

// fftBackends lists the algo-fft GPU backends compiled into this binary.
// Hardware backends are added by files built with the cuda or opencl tags.
var fftBackends = map[string]func() gpu.Backend{
	"mock": func() gpu.Backend { return gpu.NewMockBackend() },
}

// autoOrder is the preference order of the "auto" backend.
var autoOrder = []string{"cuda", "opencl", "mock"}

// registerFFTBackend registers the named backend with algo-fft. "auto"
// picks the first available backend in autoOrder.
func registerFFTBackend(name string) error {
	if name == "auto" {
		for _, candidate := range autoOrder {
			ctor, ok := fftBackends[candidate]
			if !ok {
				continue
			}
			b := ctor()
			if !b.Available() {
				klog.V(1).Infof("fft backend %s unavailable", candidate)
				continue
			}
			if candidate == "mock" {
				klog.Warningf("no accelerator FFT backend available, using the mock backend")
			}
			gpu.RegisterBackend(b)
			return nil
		}
		return fmt.Errorf("no FFT backend available")
	}

	ctor, ok := fftBackends[name]
	if !ok {
		return fmt.Errorf("unknown fft backend %q (available: auto, %s)", name, strings.Join(fftBackendNames(), ", "))
	}
	gpu.RegisterBackend(ctor())
	return nil
}

func fftBackendNames() []string {
	names := make([]string, 0, len(fftBackends))
	for name := range fftBackends {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
