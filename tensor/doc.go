// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the tensor value type accepted by the FFT
// convolution kernels.
//
// # Overview
//
// A RawTensor carries:
//   - a device tag (CPU or an accelerator such as CUDA)
//   - a shape and row-major strides, which decide contiguity
//   - an element type (float32, float64, or int64 for descriptors)
//   - a byte buffer, shared by views
//
// Kernels only accept contiguous tensors tagged with their own device.
// Views produced by Transpose and Narrow share the buffer and are usually
// strided; call Contiguous to pack them and To to retag a copy for another
// device.
//
// # Basic Usage
//
//	import "github.com/born-ml/fftconv/tensor"
//
//	func main() {
//	    x, _ := tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, tensor.CUDA)
//	    pad := tensor.Descriptor(1, tensor.CUDA)
//	    _ = x.IsContiguous() // true
//	    _ = pad.Int64s()     // [1]
//	}
package tensor
