// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/fftconv/internal/tensor"
)

// DType is a constraint for tensor element types: float32, float64, int64.
type DType = tensor.DType

// DataType represents the runtime element type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
	Int64   DataType = tensor.Int64
)

// Device represents the device a tensor is attributed to.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	Vulkan Device = tensor.Vulkan
	Metal  Device = tensor.Metal
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// RawTensor is the low-level tensor representation.
//
// RawTensor provides:
//   - Shape and type information via Shape(), DType(), Device()
//   - Layout information via Strides(), Offset(), IsContiguous()
//   - Typed data access via AsFloat32(), AsFloat64(), AsInt64()
//   - Views via Transpose(), Narrow(), Reshape()
//
// Example:
//
//	raw, _ := tensor.NewRaw(tensor.Shape{2, 3}, tensor.Float32, tensor.CUDA)
//	view := raw.Transpose()     // [3, 2], strided
//	packed := view.Contiguous() // contiguous copy
type RawTensor = tensor.RawTensor

// Backend is implemented by compute backends.
type Backend = tensor.Backend

// ParseDevice converts a case-insensitive device name to a Device.
func ParseDevice(name string) (Device, error) {
	return tensor.ParseDevice(name)
}

// NewRaw creates a zero-filled tensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a tensor holding a copy of data.
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// FromFloat64s creates a tensor of dtype from float64 values.
func FromFloat64s(data []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.FromFloat64s(data, shape, dtype, device)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.Zeros(shape, dtype, device)
}

// Descriptor creates a one-element int64 tensor, as taken by the padding,
// index-back, width and FFT-size arguments of the convolution kernels.
func Descriptor(v int64, device Device) *RawTensor {
	return tensor.Descriptor(v, device)
}

// Values copies the elements of r in logical order, converted to T.
func Values[T DType](r *RawTensor) []T {
	return tensor.Values[T](r)
}
