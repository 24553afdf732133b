package fftconv

import (
	"os"
	"testing"

	"github.com/cwbudde/algo-fft/gpu"
	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/fftconv/internal/backend/accel"
	"github.com/born-ml/fftconv/internal/guard"
	"github.com/born-ml/fftconv/internal/tensor"
)

func TestMain(m *testing.M) {
	gpu.RegisterMockBackend()
	os.Exit(m.Run())
}

// countingKernels records kernel invocations without computing anything.
type countingKernels struct {
	forward, backward, reduce int
}

func (k *countingKernels) Name() string          { return "counting" }
func (k *countingKernels) Device() tensor.Device { return tensor.CUDA }

func (k *countingKernels) ConvForward(input, _, _, _, _ *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	k.forward++
	return []*tensor.RawTensor{input, input, input}, nil
}

func (k *countingKernels) ConvBackward(dout, _, _, _, _, _ *tensor.RawTensor) ([]*tensor.RawTensor, error) {
	k.backward++
	return []*tensor.RawTensor{dout, dout, dout}, nil
}

func (k *countingKernels) PlusReduce(_ *tensor.RawTensor) (float32, error) {
	k.reduce++
	return 42, nil
}

func (k *countingKernels) calls() int {
	return k.forward + k.backward + k.reduce
}

func onCUDA(shape ...int) *tensor.RawTensor {
	return must.M1(tensor.Zeros(tensor.Shape(shape), tensor.Float32, tensor.CUDA))
}

// invalidVariants returns an off-device tensor and a strided view of t.
func invalidVariants(t *tensor.RawTensor) map[string]*tensor.RawTensor {
	wide := must.M1(tensor.Zeros(tensor.Shape{2, 4}, tensor.Float32, tensor.CUDA))
	return map[string]*tensor.RawTensor{
		"host":    t.To(tensor.CPU),
		"strided": wide.Transpose(),
		"missing": nil,
	}
}

func TestEntryPoints_RejectBeforeKernel(t *testing.T) {
	entries := map[string]struct {
		names []string
		run   func(k Kernels, a []*tensor.RawTensor)
	}{
		NameForward: {
			names: []string{"input", "filter", "bias", "padding", "index_back"},
			run: func(k Kernels, a []*tensor.RawTensor) {
				_, _ = Forward(k, a[0], a[1], a[2], a[3], a[4])
			},
		},
		NameBackward: {
			names: []string{"dout", "xfft", "yfft", "W", "WW", "fft_size"},
			run: func(k Kernels, a []*tensor.RawTensor) {
				_, _ = Backward(k, a[0], a[1], a[2], a[3], a[4], a[5])
			},
		},
		NamePlusReduce: {
			names: []string{"input"},
			run: func(k Kernels, a []*tensor.RawTensor) {
				_, _ = PlusReduce(k, a[0])
			},
		},
	}

	for entry, e := range entries {
		for pos, name := range e.names {
			for variant, bad := range invalidVariants(onCUDA(3)) {
				t.Run(entry+"/"+name+"/"+variant, func(t *testing.T) {
					k := &countingKernels{}
					args := make([]*tensor.RawTensor, len(e.names))
					for i := range args {
						args[i] = onCUDA(3)
					}
					args[pos] = bad

					perr := guard.Catch(func() { e.run(k, args) })
					require.NotNil(t, perr, "expected a precondition failure")
					assert.Equal(t, name, perr.Tensor)
					assert.Zero(t, k.calls(), "kernel must not run")
				})
			}
		}
	}
}

func TestEntryPoints_ValidArgs(t *testing.T) {
	k := &countingKernels{}

	_, err := Forward(k, onCUDA(1, 1, 4), onCUDA(1, 1, 2), onCUDA(1), onCUDA(1), onCUDA(1))
	require.NoError(t, err)
	_, err = Backward(k, onCUDA(1, 1, 3), onCUDA(1, 1, 3, 2), onCUDA(1, 1, 3, 2), onCUDA(1), onCUDA(1), onCUDA(1))
	require.NoError(t, err)
	v, err := PlusReduce(k, onCUDA(2, 2))
	require.NoError(t, err)

	assert.Equal(t, float32(42), v)
	assert.Equal(t, 1, k.forward)
	assert.Equal(t, 1, k.backward)
	assert.Equal(t, 1, k.reduce)
}

func TestNewModule_DefaultTable(t *testing.T) {
	m := NewModule(&countingKernels{})

	defs := m.Defs()
	require.Len(t, defs, 1)
	assert.Equal(t, NamePlusReduce, defs[0].Name)
	assert.Equal(t, "plus_reduce (CUDA)", defs[0].Doc)
	assert.Equal(t, 1, defs[0].Arity())

	for _, name := range []string{NameForward, NameBackward, "conv"} {
		_, ok := m.Lookup(name)
		assert.False(t, ok, name)
		_, err := m.Call(name, onCUDA(1))
		assert.ErrorIs(t, err, ErrNotRegistered, name)
	}
}

func TestNewModule_WithConvolution(t *testing.T) {
	m := NewModule(&countingKernels{}, WithConvolution())

	var names []string
	for _, d := range m.Defs() {
		names = append(names, d.Name)
	}
	assert.Equal(t, []string{NameForward, NameBackward, NamePlusReduce}, names)

	fwd, ok := m.Lookup(NameForward)
	require.True(t, ok)
	assert.Equal(t, 5, fwd.Arity())
	assert.Equal(t, "Conv forward (CUDA)", fwd.Doc)
	assert.Contains(t, fwd.String(), "forward(input, filter, bias, padding, index_back)")

	bwd, ok := m.Lookup(NameBackward)
	require.True(t, ok)
	assert.Equal(t, []string{"dout", "xfft", "yfft", "W", "WW", "fft_size"}, bwd.Args)
}

func TestModule_CallArity(t *testing.T) {
	k := &countingKernels{}
	m := NewModule(k, WithConvolution())

	_, err := m.Call(NamePlusReduce)
	assert.ErrorIs(t, err, ErrArity)
	_, err = m.Call(NameForward, onCUDA(1), onCUDA(1))
	assert.ErrorIs(t, err, ErrArity)
	assert.Zero(t, k.calls())

	res, err := m.Call(NameForward, onCUDA(1, 1, 4), onCUDA(1, 1, 2), onCUDA(1), onCUDA(1), onCUDA(1))
	require.NoError(t, err)
	assert.Len(t, res.Tensors, 3)
	assert.Equal(t, 1, k.forward)
}

func TestModule_CallRejectsHostTensor(t *testing.T) {
	k := &countingKernels{}
	m := NewModule(k)

	host := must.M1(tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, tensor.CPU))
	perr := guard.Catch(func() { _, _ = m.Call(NamePlusReduce, host) })
	require.NotNil(t, perr)
	assert.Equal(t, "input must be a CUDA tensor (got CPU)", perr.Error())
	assert.Zero(t, k.reduce)
}

func newAccel(t *testing.T) *accel.Backend {
	t.Helper()
	b := must.M1(accel.New(accel.DefaultConfig()))
	t.Cleanup(b.Close)
	return b
}

func TestModule_PlusReduceEndToEnd(t *testing.T) {
	m := NewModule(newAccel(t))

	x := must.M1(tensor.FromSlice([]float32{1, 2, 3, 4}, tensor.Shape{1, 1, 4}, tensor.CUDA))
	require.True(t, x.IsContiguous())

	res, err := m.Call(NamePlusReduce, x)
	require.NoError(t, err)
	assert.Equal(t, float32(10), res.Scalar)
}

func TestConv1DFunction_BackwardBeforeForward(t *testing.T) {
	fn := NewConv1DFunction(newAccel(t), 0, 0)
	_, err := fn.Backward(onCUDA(1, 1, 6))
	assert.ErrorIs(t, err, ErrNoSavedContext)
}

func TestConv1DFunction_RoundTrip(t *testing.T) {
	b := newAccel(t)
	fn := NewConv1DFunction(b, 1, 0)

	x := must.M1(tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6, 7, 8}, tensor.Shape{1, 1, 8}, tensor.CUDA))
	w := must.M1(tensor.FromSlice([]float64{0, 1, 0}, tensor.Shape{1, 1, 3}, tensor.CUDA))
	bias := must.M1(tensor.FromSlice([]float64{1}, tensor.Shape{1}, tensor.CUDA))

	out, err := fn.Forward(x, w, bias)
	require.NoError(t, err)
	assert.Same(t, out, fn.Output())
	assert.Equal(t, []*tensor.RawTensor{x, w, bias}, fn.Inputs())
	assert.InDeltaSlice(t, []float64{2, 3, 4, 5, 6, 7, 8, 9}, out.AsFloat64(), 1e-9)

	xfft, yfft := fn.Spectra()
	assert.Equal(t, tensor.Shape{1, 1, 9, 2}, xfft.Shape())
	assert.Equal(t, tensor.Shape{1, 1, 9, 2}, yfft.Shape())

	dout := must.M1(tensor.FromSlice([]float64{1, 1, 1, 1, 1, 1, 1, 1}, tensor.Shape{1, 1, 8}, tensor.CUDA))
	grads, err := fn.Backward(dout)
	require.NoError(t, err)
	require.Len(t, grads, 3)

	// With a centered impulse, every input position reaches exactly one output.
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1, 1, 1, 1}, grads[0].AsFloat64(), 1e-9)
	// dw[k] = sum_t x[t+k-1] over the padded input.
	assert.True(t, floats.EqualApprox([]float64{28, 36, 35}, grads[1].AsFloat64(), 1e-9))
	assert.InDeltaSlice(t, []float64{8}, grads[2].AsFloat64(), 1e-9)
}

func TestConv1DFunction_RejectsHostInput(t *testing.T) {
	fn := NewConv1DFunction(newAccel(t), 0, 0)
	host := must.M1(tensor.Zeros(tensor.Shape{1, 1, 8}, tensor.Float64, tensor.CPU))

	perr := guard.Catch(func() { _, _ = fn.Forward(host, onCUDA(1, 1, 3), onCUDA(1)) })
	require.NotNil(t, perr)
	assert.Equal(t, "input", perr.Tensor)
	assert.Nil(t, fn.Output())
}
