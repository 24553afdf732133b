package tensor

// Backend describes a compute backend that owns a device.
//
// Implementations:
//   - accel: FFT convolution and reduction kernels on an accelerator FFT context
type Backend interface {
	// Name returns a short backend identifier.
	Name() string

	// Device returns the device whose tensors the backend accepts and produces.
	Device() Device
}
