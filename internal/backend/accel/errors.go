package accel

import "github.com/pkg/errors"

// Kernel faults. They are returned wrapped with call context; match them with errors.Is.
var (
	// ErrNoAccelerator is returned when no accelerator FFT backend can be used.
	ErrNoAccelerator = errors.New("accel: no accelerator backend available")

	// ErrShape is returned when tensor shapes are inconsistent with each other.
	ErrShape = errors.New("accel: shape mismatch")

	// ErrDType is returned for element types a kernel does not support.
	ErrDType = errors.New("accel: unsupported dtype")

	// ErrIndexBack is returned when the index-back descriptor is outside [0, H).
	ErrIndexBack = errors.New("accel: index-back out of range")

	// ErrFFTSizeMismatch is returned when the FFT-size descriptor does not match the spectra.
	ErrFFTSizeMismatch = errors.New("accel: fft size mismatch")

	// ErrClosed is returned by kernels called after Close.
	ErrClosed = errors.New("accel: backend closed")
)
