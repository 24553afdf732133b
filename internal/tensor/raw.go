package tensor

import (
	"fmt"
	"strings"
	"unsafe"
)

// Device represents the compute device for tensor operations.
type Device int

// Supported compute devices. Everything except CPU is an accelerator.
const (
	CPU Device = iota
	CUDA
	Vulkan
	Metal
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case CUDA:
		return "CUDA"
	case Vulkan:
		return "Vulkan"
	case Metal:
		return "Metal"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// IsAccelerator reports whether the device is a compute accelerator.
func (d Device) IsAccelerator() bool {
	switch d {
	case CUDA, Vulkan, Metal, WebGPU:
		return true
	default:
		return false
	}
}

// ParseDevice converts a case-insensitive device name ("cuda", "cpu", ...) to a Device.
func ParseDevice(name string) (Device, error) {
	for _, d := range []Device{CPU, CUDA, Vulkan, Metal, WebGPU} {
		if strings.EqualFold(name, d.String()) {
			return d, nil
		}
	}
	return CPU, fmt.Errorf("unknown device %q", name)
}

// RawTensor is the low-level tensor representation.
//
// A RawTensor is a view over a byte buffer: shape, strides and offset are in
// elements. Views created by Transpose and Narrow share the buffer with their
// source, so they may be non-contiguous.
type RawTensor struct {
	data   []byte   // Shared buffer
	shape  Shape    // Tensor dimensions
	stride []int    // Memory strides in elements
	dtype  DataType // Runtime type information
	device Device   // Device the buffer is attributed to
	offset int      // Offset in elements for views
}

// NewRaw creates a new RawTensor with the given shape and type.
// Memory is allocated and zeroed.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if err := shape.Validate(); err != nil {
		return nil, fmt.Errorf("invalid shape: %w", err)
	}

	return &RawTensor{
		data:   make([]byte, shape.NumElements()*dtype.Size()),
		shape:  shape.Clone(),
		stride: shape.ComputeStrides(),
		dtype:  dtype,
		device: device,
	}, nil
}

// Shape returns the tensor's shape.
func (r *RawTensor) Shape() Shape {
	return r.shape
}

// Strides returns the tensor's memory strides.
func (r *RawTensor) Strides() []int {
	return r.stride
}

// Offset returns the element offset of the view into its buffer.
func (r *RawTensor) Offset() int {
	return r.offset
}

// DType returns the tensor's data type.
func (r *RawTensor) DType() DataType {
	return r.dtype
}

// Device returns the tensor's compute device.
func (r *RawTensor) Device() Device {
	return r.device
}

// NumElements returns the total number of elements.
func (r *RawTensor) NumElements() int {
	return r.shape.NumElements()
}

// ByteSize returns the logical memory size in bytes.
func (r *RawTensor) ByteSize() int {
	return r.NumElements() * r.dtype.Size()
}

// IsContiguous reports whether the elements are laid out without gaps in
// row-major order. Dimensions of size 1 do not constrain their stride.
func (r *RawTensor) IsContiguous() bool {
	expected := r.shape.ComputeStrides()
	for i, dim := range r.shape {
		if dim == 1 {
			continue
		}
		if r.stride[i] != expected[i] {
			return false
		}
	}
	return true
}

// Data returns the raw bytes of a contiguous tensor.
// WARNING: Direct access to underlying memory. Panics for non-contiguous views.
func (r *RawTensor) Data() []byte {
	r.mustBeContiguous("Data")
	start := r.offset * r.dtype.Size()
	return r.data[start : start+r.ByteSize()]
}

// AsFloat32 interprets the data as []float32.
// Panics if the tensor's dtype is not Float32 or the tensor is not contiguous.
func (r *RawTensor) AsFloat32() []float32 {
	if r.dtype != Float32 {
		panic(fmt.Sprintf("tensor dtype is %s, not float32", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float32)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsFloat64 interprets the data as []float64.
// Panics if the tensor's dtype is not Float64 or the tensor is not contiguous.
func (r *RawTensor) AsFloat64() []float64 {
	if r.dtype != Float64 {
		panic(fmt.Sprintf("tensor dtype is %s, not float64", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*float64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// AsInt64 interprets the data as []int64.
// Panics if the tensor's dtype is not Int64 or the tensor is not contiguous.
func (r *RawTensor) AsInt64() []int64 {
	if r.dtype != Int64 {
		panic(fmt.Sprintf("tensor dtype is %s, not int64", r.dtype))
	}
	data := r.Data()
	//nolint:gosec // unsafe.Slice for zero-copy access, bounds checked by NumElements()
	return unsafe.Slice((*int64)(unsafe.Pointer(&data[0])), r.NumElements())
}

// bufferIndex maps a logical row-major index to an element index in the buffer.
func (r *RawTensor) bufferIndex(flat int) int {
	idx := r.offset
	for i := len(r.shape) - 1; i >= 0; i-- {
		dim := r.shape[i]
		idx += (flat % dim) * r.stride[i]
		flat /= dim
	}
	return idx
}

// Float64At returns the element at logical row-major position flat, converted to float64.
// Works for any layout.
func (r *RawTensor) Float64At(flat int) float64 {
	if flat < 0 || flat >= r.NumElements() {
		panic(fmt.Sprintf("index %d out of bounds for %d elements", flat, r.NumElements()))
	}
	return r.loadFloat64(r.bufferIndex(flat))
}

// Float64s copies all elements in logical row-major order, converted to float64.
func (r *RawTensor) Float64s() []float64 {
	n := r.NumElements()
	out := make([]float64, n)
	if r.IsContiguous() {
		switch r.dtype {
		case Float32:
			for i, v := range r.AsFloat32() {
				out[i] = float64(v)
			}
		case Float64:
			copy(out, r.AsFloat64())
		case Int64:
			for i, v := range r.AsInt64() {
				out[i] = float64(v)
			}
		}
		return out
	}
	for i := range out {
		out[i] = r.loadFloat64(r.bufferIndex(i))
	}
	return out
}

// Int64s copies all elements in logical row-major order, converted to int64.
// Floating point values are truncated toward zero.
func (r *RawTensor) Int64s() []int64 {
	n := r.NumElements()
	out := make([]int64, n)
	for i := range out {
		idx := r.bufferIndex(i)
		if r.dtype == Int64 {
			out[i] = *(*int64)(r.elemPtr(idx))
			continue
		}
		out[i] = int64(r.loadFloat64(idx))
	}
	return out
}

// elemPtr returns a pointer to the element at buffer index idx.
func (r *RawTensor) elemPtr(idx int) unsafe.Pointer {
	//nolint:gosec // element index computed from shape and strides
	return unsafe.Pointer(&r.data[idx*r.dtype.Size()])
}

func (r *RawTensor) loadFloat64(idx int) float64 {
	p := r.elemPtr(idx)
	switch r.dtype {
	case Float32:
		return float64(*(*float32)(p))
	case Float64:
		return *(*float64)(p)
	case Int64:
		return float64(*(*int64)(p))
	default:
		panic(fmt.Sprintf("unsupported dtype %s", r.dtype))
	}
}

func (r *RawTensor) storeFloat64(idx int, v float64) {
	p := r.elemPtr(idx)
	switch r.dtype {
	case Float32:
		*(*float32)(p) = float32(v)
	case Float64:
		*(*float64)(p) = v
	case Int64:
		*(*int64)(p) = int64(v)
	default:
		panic(fmt.Sprintf("unsupported dtype %s", r.dtype))
	}
}

// Clone creates a contiguous deep copy of the tensor on the same device.
func (r *RawTensor) Clone() *RawTensor {
	return r.To(r.device)
}

// Contiguous returns the tensor itself when it is already contiguous,
// otherwise a packed copy.
func (r *RawTensor) Contiguous() *RawTensor {
	if r.IsContiguous() {
		return r
	}
	return r.Clone()
}

// To copies the tensor into a new contiguous buffer attributed to device.
func (r *RawTensor) To(device Device) *RawTensor {
	out, err := NewRaw(r.shape, r.dtype, device)
	if err != nil {
		panic(fmt.Sprintf("to: %v", err))
	}
	if r.IsContiguous() {
		copy(out.data, r.Data())
		return out
	}
	size := r.dtype.Size()
	for i := 0; i < r.NumElements(); i++ {
		src := r.bufferIndex(i) * size
		copy(out.data[i*size:(i+1)*size], r.data[src:src+size])
	}
	return out
}

// String returns a human-readable description of the tensor.
func (r *RawTensor) String() string {
	layout := "contiguous"
	if !r.IsContiguous() {
		layout = "strided"
	}
	return fmt.Sprintf("Tensor[%s]%v on %s (%s)", r.dtype, r.shape, r.device, layout)
}

func (r *RawTensor) mustBeContiguous(op string) {
	if !r.IsContiguous() {
		panic(fmt.Sprintf("%s: tensor %v is not contiguous, call Contiguous() first", op, r.shape))
	}
}
