// Package guard validates tensors before they reach an accelerator kernel.
//
// Each check is a pure function returning a *PreconditionError. Inputs and
// Run compose them into the gate applied at every kernel entry point: all
// arguments are checked first, and the first failure is raised as a panic
// carrying the typed error, so no kernel work starts for an invalid call.
package guard

import (
	"github.com/gomlx/exceptions"

	"github.com/born-ml/fftconv/internal/tensor"
)

// Arg is a tensor argument together with the name used in error messages.
type Arg struct {
	Name string
	T    *tensor.RawTensor
}

// Named pairs a tensor with its argument name.
func Named(name string, t *tensor.RawTensor) Arg {
	return Arg{Name: name, T: t}
}

// CheckDevice verifies the tensor resides on device.
func CheckDevice(a Arg, device tensor.Device) error {
	if a.T == nil {
		return &PreconditionError{Tensor: a.Name, Property: Present}
	}
	if a.T.Device() != device {
		return &PreconditionError{Tensor: a.Name, Property: OnDevice, Want: device, Got: a.T.Device()}
	}
	return nil
}

// CheckContiguous verifies the tensor memory layout has no gaps.
func CheckContiguous(a Arg) error {
	if a.T == nil {
		return &PreconditionError{Tensor: a.Name, Property: Present}
	}
	if !a.T.IsContiguous() {
		return &PreconditionError{Tensor: a.Name, Property: Contiguous}
	}
	return nil
}

// CheckInput runs the device check and then the contiguity check.
func CheckInput(a Arg, device tensor.Device) error {
	if err := CheckDevice(a, device); err != nil {
		return err
	}
	return CheckContiguous(a)
}

// Validate checks every argument in order and returns the first failure.
func Validate(device tensor.Device, args ...Arg) error {
	for _, a := range args {
		if err := CheckInput(a, device); err != nil {
			return err
		}
	}
	return nil
}

// Inputs validates every argument and panics with the first *PreconditionError.
func Inputs(device tensor.Device, args ...Arg) {
	if err := Validate(device, args...); err != nil {
		panic(err)
	}
}

// Run is the scoped guard: it calls kernel only after every argument passed
// validation, and returns the kernel's results unchanged.
func Run[R any](device tensor.Device, args []Arg, kernel func() (R, error)) (R, error) {
	Inputs(device, args...)
	return kernel()
}

// Catch runs fn and returns the *PreconditionError it panicked with, or nil.
// Panics of any other type propagate.
func Catch(fn func()) *PreconditionError {
	return exceptions.TryCatch[*PreconditionError](fn)
}
