package serialization

import (
	"encoding/binary"

	"github.com/x448/float16"

	"github.com/born-ml/fftconv/internal/tensor"
)

// SafeTensors dtype strings.
const (
	DTypeF32 = "F32"
	DTypeF64 = "F64"
	DTypeI64 = "I64"
	DTypeF16 = "F16" // Read only, widened to Float32
)

// metadataKey is the reserved header entry for string metadata.
const metadataKey = "__metadata__"

// TensorHeader represents a tensor in the SafeTensors header.
type TensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// TensorMeta describes a tensor located in the data section.
type TensorMeta struct {
	Name   string
	DType  tensor.DataType
	Shape  tensor.Shape
	Offset int64 // Bytes from the start of the data section
	Size   int64 // Size in bytes
	Half   bool  // Stored as F16
}

// storedElemSize returns the element size in the data section.
func (m TensorMeta) storedElemSize() int {
	if m.Half {
		return 2
	}
	return m.DType.Size()
}

// widenHalf decodes little-endian F16 values into dst.
func widenHalf(dst []float32, src []byte) {
	for i := range dst {
		dst[i] = float16.Frombits(binary.LittleEndian.Uint16(src[2*i:])).Float32()
	}
}

// dtypeToSafeTensors converts tensor.DataType to a SafeTensors dtype string.
func dtypeToSafeTensors(dt tensor.DataType) (string, bool) {
	switch dt {
	case tensor.Float32:
		return DTypeF32, true
	case tensor.Float64:
		return DTypeF64, true
	case tensor.Int64:
		return DTypeI64, true
	default:
		return "", false
	}
}

// safeTensorsToDtype converts a SafeTensors dtype string to tensor.DataType.
func safeTensorsToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeF16:
		return tensor.Float32, true
	case DTypeF32:
		return tensor.Float32, true
	case DTypeF64:
		return tensor.Float64, true
	case DTypeI64:
		return tensor.Int64, true
	default:
		return 0, false
	}
}
