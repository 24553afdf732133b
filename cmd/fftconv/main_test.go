package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/janpfeifer/must"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fftconv/internal/serialization"
	"github.com/born-ml/fftconv/tensor"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	app := newApp()
	var buf bytes.Buffer
	app.Writer = &buf
	app.ErrWriter = &buf
	err := app.Run(context.Background(), append([]string{"fftconv"}, args...))
	return buf.String(), err
}

func writeInputs(t *testing.T, name string, tensors map[string]*tensor.RawTensor) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, serialization.WriteSafeTensors(path, tensors, nil))
	return path
}

func cpuTensor[T tensor.DType](data []T, shape ...int) *tensor.RawTensor {
	return must.M1(tensor.FromSlice(data, tensor.Shape(shape), tensor.CPU))
}

func TestReduce(t *testing.T) {
	in := writeInputs(t, "x.safetensors", map[string]*tensor.RawTensor{
		"input": cpuTensor([]float32{1, 2, 3, 4}, 1, 1, 4),
	})

	out, err := run(t, "reduce", "--in", in)
	require.NoError(t, err)
	assert.Equal(t, "10\n", out)
}

func TestReduce_NamedTensor(t *testing.T) {
	in := writeInputs(t, "x.safetensors", map[string]*tensor.RawTensor{
		"weights": cpuTensor([]float64{0.5, 0.25, 0.25}, 3),
	})

	out, err := run(t, "reduce", "--in", in, "--name", "weights")
	require.NoError(t, err)
	assert.Equal(t, "1\n", out)

	_, err = run(t, "reduce", "--in", in)
	assert.ErrorContains(t, err, `tensor "input" not found`)
}

func TestReduce_NoUploadIsRejected(t *testing.T) {
	in := writeInputs(t, "x.safetensors", map[string]*tensor.RawTensor{
		"input": cpuTensor([]float32{1, 2, 3, 4}, 4),
	})

	_, err := run(t, "reduce", "--in", in, "--no-upload")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "input must be a CUDA tensor (got CPU)")
}

func TestOps(t *testing.T) {
	out, err := run(t, "ops")
	require.NoError(t, err)
	assert.Equal(t, "plus_reduce(input) \"plus_reduce (CUDA)\"\n", out)

	out, err = run(t, "ops", "--enable-conv")
	require.NoError(t, err)
	assert.Contains(t, out, "forward(input, filter, bias, padding, index_back)")
	assert.Contains(t, out, "backward(dout, xfft, yfft, W, WW, fft_size)")
}

func TestUnknownDevice(t *testing.T) {
	_, err := run(t, "ops", "--device", "tpu")
	assert.ErrorContains(t, err, `unknown device "tpu"`)

	_, err = run(t, "ops", "--device", "cpu")
	assert.Error(t, err)
}

func TestUnknownFFTBackend(t *testing.T) {
	_, err := run(t, "ops", "--fft-backend", "fftw")
	assert.ErrorContains(t, err, "unknown fft backend")
}

func convInputs(t *testing.T) string {
	return writeInputs(t, "conv.safetensors", map[string]*tensor.RawTensor{
		"input":  cpuTensor([]float64{1, 2, 3, 4, 5, 6, 7, 8}, 1, 1, 8),
		"filter": cpuTensor([]float64{0, 1, 0}, 1, 1, 3),
		"bias":   cpuTensor([]float64{1}, 1),
	})
}

func TestForward_RequiresOptIn(t *testing.T) {
	_, err := run(t, "forward", "--in", convInputs(t), "--padding", "1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--enable-conv")
}

func TestForwardBackward(t *testing.T) {
	dir := t.TempDir()
	fwdOut := filepath.Join(dir, "forward.safetensors")

	_, err := run(t, "forward", "--enable-conv", "--in", convInputs(t), "--padding", "1", "--out", fwdOut)
	require.NoError(t, err)

	saved, meta, err := serialization.ReadSafeTensors(fwdOut, tensor.CPU)
	require.NoError(t, err)
	assert.Equal(t, "fftconv "+version, meta["producer"])
	assert.Equal(t, "accel/mock", meta["backend"])
	assert.Len(t, meta["run_id"], 36)
	assert.InDeltaSlice(t, []float64{2, 3, 4, 5, 6, 7, 8, 9}, saved["out"].Float64s(), 1e-9)
	assert.Equal(t, tensor.Shape{1, 1, 9, 2}, saved["xfft"].Shape())
	assert.Equal(t, []int64{8}, saved["W"].Int64s())
	assert.Equal(t, []int64{3}, saved["WW"].Int64s())
	assert.Equal(t, []int64{16}, saved["fft_size"].Int64s())

	dout := writeInputs(t, "dout.safetensors", map[string]*tensor.RawTensor{
		"dout": cpuTensor([]float64{1, 1, 1, 1, 1, 1, 1, 1}, 1, 1, 8),
	})
	bwdOut := filepath.Join(dir, "backward.safetensors")
	_, err = run(t, "backward", "--enable-conv", "--in", fwdOut, "--in", dout, "--out", bwdOut)
	require.NoError(t, err)

	grads, _, err := serialization.ReadSafeTensors(bwdOut, tensor.CPU)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1, 1, 1, 1, 1, 1, 1, 1}, grads["dx"].Float64s(), 1e-9)
	assert.InDeltaSlice(t, []float64{28, 36, 35}, grads["dw"].Float64s(), 1e-9)
	assert.InDeltaSlice(t, []float64{8}, grads["db"].Float64s(), 1e-9)
}

func TestCall_PrintsShapes(t *testing.T) {
	_, err := run(t, "call", "forward", "--enable-conv", "--in", convInputs(t))
	assert.ErrorContains(t, err, `tensor "padding" not found`)

	in := writeInputs(t, "all.safetensors", map[string]*tensor.RawTensor{
		"x":   cpuTensor([]float32{1, 2, 3}, 1, 1, 3),
		"w":   cpuTensor([]float32{2, 1}, 1, 1, 2),
		"b":   cpuTensor([]float32{0}, 1),
		"pad": cpuTensor([]int64{0}, 1),
		"ib":  cpuTensor([]int64{0}, 1),
	})
	out, err := run(t, "call", "forward", "--enable-conv", "--in", in, "--args", "x,w,b,pad,ib")
	require.NoError(t, err)
	assert.Contains(t, out, "out [1,1,2] float32 8 B\n")
	assert.Contains(t, out, "fft_size [1] int64 8 B\n")

	out, err = run(t, "call", "plus_reduce", "--in", in, "--args", "x")
	require.NoError(t, err)
	assert.Equal(t, "6\n", out)
}

func TestCall_MissingName(t *testing.T) {
	_, err := run(t, "call", "--in", "unused.safetensors")
	assert.ErrorContains(t, err, "missing entry point name")
}

func TestInspect(t *testing.T) {
	in := writeInputs(t, "x.safetensors", map[string]*tensor.RawTensor{
		"input":  cpuTensor(make([]float32, 2048), 2, 1024),
		"filter": cpuTensor([]float64{1, 2, 3}, 1, 1, 3),
	})

	out, err := run(t, "inspect", in)
	require.NoError(t, err)
	assert.Contains(t, out, "input")
	assert.Contains(t, out, "[2,1024]")
	assert.Contains(t, out, "2,048")
	assert.Contains(t, out, "8.2 kB")
	assert.Contains(t, out, "2 tensors, 2,051 elements")

	_, err = run(t, "inspect")
	assert.Error(t, err)
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "fftconv "+version)
	assert.Contains(t, out, "compiled fft backends:")
	assert.Contains(t, out, "mock")
}

func TestMain(m *testing.M) {
	// Keep tests independent of a user config file.
	must.M(os.Setenv("XDG_CONFIG_HOME", os.TempDir()+"/fftconv-test-nonexistent"))
	os.Exit(m.Run())
}
