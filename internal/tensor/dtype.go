// Package tensor provides the tensor value type shared by the validation gate,
// the accelerator kernels and the extension call table.
package tensor

// DType is a constraint for supported tensor element types.
type DType interface {
	~float32 | ~float64 | ~int64
}

// DataType represents runtime type information for tensors.
type DataType int

// Supported data types for tensors.
//
// Float32 and Float64 carry numeric payloads. Int64 carries descriptors
// such as padding amounts, widths and FFT sizes.
const (
	Float32 DataType = iota
	Float64
	Int64
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32:
		return 4
	case Float64, Int64:
		return 8
	default:
		panic("unknown data type")
	}
}

// IsFloat reports whether the data type is a floating point type.
func (dt DataType) IsFloat() bool {
	return dt == Float32 || dt == Float64
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	case Int64:
		return "int64"
	default:
		return "unknown"
	}
}

// inferDataType infers DataType from a generic type T.
func inferDataType[T DType](dummy T) DataType {
	switch any(dummy).(type) {
	case float32:
		return Float32
	case float64:
		return Float64
	case int64:
		return Int64
	default:
		panic("unsupported type")
	}
}
