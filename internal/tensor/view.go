package tensor

import "fmt"

// Transpose returns a view with permuted dimensions sharing the buffer.
// With no axes all dimensions are reversed. The view is usually not contiguous.
func (r *RawTensor) Transpose(axes ...int) *RawTensor {
	ndim := len(r.shape)

	if len(axes) == 0 {
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	}

	if len(axes) != ndim {
		panic(fmt.Sprintf("transpose: axes length %d != ndim %d", len(axes), ndim))
	}

	seen := make([]bool, ndim)
	for _, ax := range axes {
		if ax < 0 || ax >= ndim {
			panic(fmt.Sprintf("transpose: invalid axis %d for %dD tensor", ax, ndim))
		}
		if seen[ax] {
			panic(fmt.Sprintf("transpose: duplicate axis %d", ax))
		}
		seen[ax] = true
	}

	shape := make(Shape, ndim)
	stride := make([]int, ndim)
	for i, ax := range axes {
		shape[i] = r.shape[ax]
		stride[i] = r.stride[ax]
	}

	return &RawTensor{
		data:   r.data,
		shape:  shape,
		stride: stride,
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}
}

// Narrow returns a view restricted to [start, start+length) along dim.
//
// Narrowing any dimension but the outermost one produces a view with gaps
// between rows, so it is not contiguous.
func (r *RawTensor) Narrow(dim, start, length int) *RawTensor {
	if dim < 0 {
		dim += len(r.shape)
	}
	if dim < 0 || dim >= len(r.shape) {
		panic(fmt.Sprintf("narrow: dimension %d out of range for %dD tensor", dim, len(r.shape)))
	}
	if start < 0 || length <= 0 || start+length > r.shape[dim] {
		panic(fmt.Sprintf("narrow: range [%d, %d) out of bounds for dimension %d (size %d)",
			start, start+length, dim, r.shape[dim]))
	}

	shape := r.shape.Clone()
	shape[dim] = length

	return &RawTensor{
		data:   r.data,
		shape:  shape,
		stride: append([]int(nil), r.stride...),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset + start*r.stride[dim],
	}
}

// Reshape returns a view with a new shape and the same elements.
// Only contiguous tensors can be reshaped without a copy.
func (r *RawTensor) Reshape(newShape Shape) (*RawTensor, error) {
	if err := newShape.Validate(); err != nil {
		return nil, fmt.Errorf("reshape: invalid shape: %w", err)
	}
	if newShape.NumElements() != r.NumElements() {
		return nil, fmt.Errorf("reshape: incompatible shapes: %v -> %v (different number of elements)",
			r.shape, newShape)
	}
	if !r.IsContiguous() {
		return nil, fmt.Errorf("reshape: tensor %v is not contiguous", r.shape)
	}

	return &RawTensor{
		data:   r.data,
		shape:  newShape.Clone(),
		stride: newShape.ComputeStrides(),
		dtype:  r.dtype,
		device: r.device,
		offset: r.offset,
	}, nil
}
