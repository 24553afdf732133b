// Package accel implements the accelerator backend: FFT-based 1-D convolution
// (forward and backward) and a whole-tensor sum.
//
// FFTs run through the algo-fft GPU plan API, so whichever GPU backend is
// registered with github.com/cwbudde/algo-fft/gpu executes the transforms.
// Tensor buffers stay addressable from the host and carry the backend's
// device tag.
package accel

import (
	"math"

	"github.com/cwbudde/algo-fft/gpu"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/internal/parallel"
	"github.com/born-ml/fftconv/internal/tensor"
)

// Config configures the accelerator backend.
type Config struct {
	Device      tensor.Device   // Device tag of tensors the backend accepts and produces.
	DeviceIndex int             // Accelerator ordinal passed to the FFT backend.
	StreamCount int             // Execution streams per FFT plan.
	ReduceChunk int             // Elements per partial sum in PlusReduce.
	Parallel    parallel.Config // Host fan-out of independent rows.
}

// DefaultConfig returns the configuration for the first CUDA device.
func DefaultConfig() Config {
	return Config{
		Device:      tensor.CUDA,
		DeviceIndex: 0,
		StreamCount: 1,
		ReduceChunk: 4096,
		Parallel:    parallel.DefaultConfig(),
	}
}

// Backend executes kernels on an accelerator.
type Backend struct {
	cfg   Config
	info  gpu.BackendInfo
	plans *PlanPool
}

// New creates an accelerator backend. It fails with ErrNoAccelerator when the
// configured device is not an accelerator or no FFT backend is usable.
func New(cfg Config) (*Backend, error) {
	if !cfg.Device.IsAccelerator() {
		return nil, errors.Wrapf(ErrNoAccelerator, "device %s is not an accelerator", cfg.Device)
	}
	if cfg.StreamCount <= 0 {
		cfg.StreamCount = 1
	}
	if cfg.ReduceChunk <= 0 {
		cfg.ReduceChunk = DefaultConfig().ReduceChunk
	}

	info, ok := gpu.CurrentBackendInfo()
	if !ok {
		return nil, errors.Wrap(ErrNoAccelerator, gpu.ErrNoBackend.Error())
	}

	b := &Backend{
		cfg:  cfg,
		info: info,
		plans: newPlanPool(gpu.PlanOptions{
			DeviceIndex: cfg.DeviceIndex,
			StreamCount: cfg.StreamCount,
		}),
	}
	if err := b.calibrate(); err != nil {
		b.plans.Close()
		if errors.Is(err, gpu.ErrNoBackend) || errors.Is(err, gpu.ErrBackendUnavailable) {
			return nil, errors.Wrap(ErrNoAccelerator, err.Error())
		}
		return nil, errors.Wrapf(err, "accel: probe %s device %d", info.Name, cfg.DeviceIndex)
	}

	klog.V(1).Infof("accel: %s backend %s (%s) on %s:%d", info.Name, info.Version, info.Description, cfg.Device, cfg.DeviceIndex)
	return b, nil
}

// calibrate runs a length-2 round trip to learn the inverse normalization.
// Some FFT backends scale the inverse by 1/n, others leave it unscaled.
func (b *Backend) calibrate() error {
	w, err := b.plans.Acquire(2)
	if err != nil {
		return err
	}
	defer b.plans.Release(w)

	w.in[0], w.in[1] = 1, 0
	if err := w.plan.Forward(w.out, w.in); err != nil {
		return errors.Wrap(err, "forward")
	}
	copy(w.in, w.out)
	if err := w.plan.Inverse(w.out, w.in); err != nil {
		return errors.Wrap(err, "inverse")
	}

	gain := real(w.out[0])
	if gain <= 0 || math.IsNaN(gain) || math.IsInf(gain, 0) {
		return errors.Errorf("unexpected round-trip gain %v", gain)
	}
	scale := 1 / gain
	b.plans.setScale(scale)
	w.scale = scale
	klog.V(2).Infof("accel: inverse fft scale %g", scale)
	return nil
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return "accel/" + b.info.Name
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return b.cfg.Device
}

// Config returns the backend configuration.
func (b *Backend) Config() Config {
	return b.cfg
}

// PoolStats reports FFT plan reuse.
func (b *Backend) PoolStats() PoolStats {
	return b.plans.Stats()
}

// Close releases every pooled FFT plan.
func (b *Backend) Close() {
	b.plans.Close()
}
