package guard

import (
	"fmt"

	"github.com/born-ml/fftconv/internal/tensor"
)

// Property names the precondition a tensor violated.
type Property int

// Checked properties.
const (
	// Present: the tensor argument is not nil.
	Present Property = iota
	// OnDevice: the tensor resides on the kernel's accelerator.
	OnDevice
	// Contiguous: the tensor has canonical row-major strides.
	Contiguous
)

// String returns the property name.
func (p Property) String() string {
	switch p {
	case Present:
		return "present"
	case OnDevice:
		return "on-device"
	case Contiguous:
		return "contiguous"
	default:
		return "unknown"
	}
}

// PreconditionError reports a tensor that must not reach a kernel.
// It is a programming error at the call site; there is no recovery path.
type PreconditionError struct {
	Tensor   string        // Argument name, e.g. "input"
	Property Property      // Violated property
	Want     tensor.Device // Required device (OnDevice only)
	Got      tensor.Device // Actual device (OnDevice only)
}

// Error implements the error interface.
func (e *PreconditionError) Error() string {
	switch e.Property {
	case Present:
		return fmt.Sprintf("%s must not be nil", e.Tensor)
	case OnDevice:
		return fmt.Sprintf("%s must be a %s tensor (got %s)", e.Tensor, e.Want, e.Got)
	case Contiguous:
		return fmt.Sprintf("%s must be contiguous", e.Tensor)
	default:
		return fmt.Sprintf("%s violates %s", e.Tensor, e.Property)
	}
}
