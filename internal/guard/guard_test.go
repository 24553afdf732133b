package guard

import (
	"errors"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fftconv/internal/tensor"
)

func onDevice(t *testing.T, device tensor.Device) *tensor.RawTensor {
	t.Helper()
	return must.M1(tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, tensor.Shape{2, 3}, device))
}

func TestCheckDevice(t *testing.T) {
	require.NoError(t, CheckDevice(Named("input", onDevice(t, tensor.CUDA)), tensor.CUDA))

	err := CheckDevice(Named("input", onDevice(t, tensor.CPU)), tensor.CUDA)
	var perr *PreconditionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "input", perr.Tensor)
	assert.Equal(t, OnDevice, perr.Property)
	assert.Equal(t, tensor.CUDA, perr.Want)
	assert.Equal(t, tensor.CPU, perr.Got)
	assert.Equal(t, "input must be a CUDA tensor (got CPU)", err.Error())
}

func TestCheckContiguous(t *testing.T) {
	x := onDevice(t, tensor.CUDA)
	require.NoError(t, CheckContiguous(Named("filter", x)))

	err := CheckContiguous(Named("filter", x.Transpose()))
	require.Error(t, err)
	assert.Equal(t, "filter must be contiguous", err.Error())
}

func TestCheckInputOrder(t *testing.T) {
	// Wrong device and strided: the device failure is reported first.
	x := onDevice(t, tensor.CPU).Transpose()
	err := CheckInput(Named("bias", x), tensor.CUDA)
	var perr *PreconditionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, OnDevice, perr.Property)
}

func TestCheckNil(t *testing.T) {
	err := CheckInput(Named("padding", nil), tensor.CUDA)
	require.Error(t, err)
	assert.Equal(t, "padding must not be nil", err.Error())
}

func TestValidateReportsFirstFailure(t *testing.T) {
	good := onDevice(t, tensor.CUDA)
	err := Validate(tensor.CUDA,
		Named("input", good),
		Named("filter", good.Transpose()),
		Named("bias", onDevice(t, tensor.CPU)),
	)
	var perr *PreconditionError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "filter", perr.Tensor)
}

func TestRunSkipsKernelOnFailure(t *testing.T) {
	calls := 0
	kernel := func() (float32, error) {
		calls++
		return 1, nil
	}

	perr := Catch(func() {
		_, _ = Run(tensor.CUDA, []Arg{Named("input", onDevice(t, tensor.CPU))}, kernel)
	})
	require.NotNil(t, perr)
	assert.Equal(t, "input", perr.Tensor)
	assert.Zero(t, calls)

	got, err := Run(tensor.CUDA, []Arg{Named("input", onDevice(t, tensor.CUDA))}, kernel)
	require.NoError(t, err)
	assert.Equal(t, float32(1), got)
	assert.Equal(t, 1, calls)
}

func TestCatchPropagatesOtherPanics(t *testing.T) {
	assert.Panics(t, func() {
		Catch(func() { panic("boom") })
	})
	assert.Nil(t, Catch(func() {}))
}

func TestPropertyString(t *testing.T) {
	assert.Equal(t, "present", Present.String())
	assert.Equal(t, "on-device", OnDevice.String())
	assert.Equal(t, "contiguous", Contiguous.String())
}
