package tensor

import "fmt"

// FromSlice creates a tensor from a Go slice on the given device.
// The slice is copied into the tensor's memory.
//
// Example:
//
//	x, err := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, tensor.CUDA)
func FromSlice[T DType](data []T, shape Shape, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	var dummy T
	raw, err := NewRaw(shape, inferDataType(dummy), device)
	if err != nil {
		return nil, err
	}

	switch d := any(data).(type) {
	case []float32:
		copy(raw.AsFloat32(), d)
	case []float64:
		copy(raw.AsFloat64(), d)
	case []int64:
		copy(raw.AsInt64(), d)
	}
	return raw, nil
}

// FromFloat64s creates a tensor of the given dtype from float64 values.
// Values are converted element by element.
func FromFloat64s(data []float64, shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	if shape.NumElements() != len(data) {
		return nil, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}

	raw, err := NewRaw(shape, dtype, device)
	if err != nil {
		return nil, err
	}
	for i, v := range data {
		raw.storeFloat64(i, v)
	}
	return raw, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return NewRaw(shape, dtype, device)
}

// Descriptor creates a one-element int64 tensor holding v.
// Descriptors carry sizes such as padding, index-back, widths and FFT sizes.
func Descriptor(v int64, device Device) *RawTensor {
	raw, err := FromSlice([]int64{v}, Shape{1}, device)
	if err != nil {
		panic(err) // Shape{1} always matches one element
	}
	return raw
}

// Values copies the elements of r in logical order, converted to T.
func Values[T DType](r *RawTensor) []T {
	var dummy T
	out := make([]T, r.NumElements())
	if inferDataType(dummy) == Int64 {
		for i, v := range r.Int64s() {
			out[i] = T(v)
		}
		return out
	}
	for i, v := range r.Float64s() {
		out[i] = T(v)
	}
	return out
}
