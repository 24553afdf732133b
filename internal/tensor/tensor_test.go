package tensor

import (
	"testing"
)

// Test helpers

func assertEqualShape(t *testing.T, expected, actual Shape, msg string) {
	t.Helper()
	if !expected.Equal(actual) {
		t.Errorf("%s: expected shape %v, got %v", msg, expected, actual)
	}
}

// DType Tests

func TestDataTypeSize(t *testing.T) {
	tests := []struct {
		dtype DataType
		size  int
	}{
		{Float32, 4},
		{Float64, 8},
		{Int64, 8},
	}

	for _, tt := range tests {
		if got := tt.dtype.Size(); got != tt.size {
			t.Errorf("%s.Size() = %d, want %d", tt.dtype, got, tt.size)
		}
	}
}

func TestDataTypeIsFloat(t *testing.T) {
	if !Float32.IsFloat() || !Float64.IsFloat() {
		t.Error("float types should report IsFloat")
	}
	if Int64.IsFloat() {
		t.Error("int64 should not report IsFloat")
	}
}

// Shape Tests

func TestShapeNumElements(t *testing.T) {
	tests := []struct {
		shape Shape
		want  int
	}{
		{Shape{}, 1},
		{Shape{4}, 4},
		{Shape{1, 1, 4}, 4},
		{Shape{2, 3, 4}, 24},
	}

	for _, tt := range tests {
		if got := tt.shape.NumElements(); got != tt.want {
			t.Errorf("%v.NumElements() = %d, want %d", tt.shape, got, tt.want)
		}
	}
}

func TestShapeValidate(t *testing.T) {
	if err := (Shape{2, 3}).Validate(); err != nil {
		t.Errorf("valid shape rejected: %v", err)
	}
	if err := (Shape{2, 0}).Validate(); err == nil {
		t.Error("zero dimension should be rejected")
	}
	if err := (Shape{-1}).Validate(); err == nil {
		t.Error("negative dimension should be rejected")
	}
}

func TestShapeComputeStrides(t *testing.T) {
	strides := Shape{2, 3, 4}.ComputeStrides()
	want := []int{12, 4, 1}
	for i := range want {
		if strides[i] != want[i] {
			t.Fatalf("strides = %v, want %v", strides, want)
		}
	}
}

func TestShapeString(t *testing.T) {
	if got := (Shape{1, 1, 4}).String(); got != "[1,1,4]" {
		t.Errorf("String() = %q, want [1,1,4]", got)
	}
}

// Device Tests

func TestDeviceIsAccelerator(t *testing.T) {
	if CPU.IsAccelerator() {
		t.Error("CPU must not be an accelerator")
	}
	for _, d := range []Device{CUDA, Vulkan, Metal, WebGPU} {
		if !d.IsAccelerator() {
			t.Errorf("%s should be an accelerator", d)
		}
	}
}

func TestParseDevice(t *testing.T) {
	d, err := ParseDevice("cuda")
	if err != nil || d != CUDA {
		t.Errorf("ParseDevice(cuda) = %v, %v", d, err)
	}
	d, err = ParseDevice("WebGPU")
	if err != nil || d != WebGPU {
		t.Errorf("ParseDevice(WebGPU) = %v, %v", d, err)
	}
	if _, err := ParseDevice("tpu"); err == nil {
		t.Error("unknown device should fail")
	}
}
