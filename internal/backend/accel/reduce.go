package accel

import (
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/floats"

	"github.com/born-ml/fftconv/internal/parallel"
	"github.com/born-ml/fftconv/internal/tensor"
)

// PlusReduce sums every element of x.
//
// Elements are summed in fixed-size chunks in parallel and the partial sums
// are combined in chunk order, so the result depends only on the element
// sequence and not on scheduling or on the logical shape.
func (b *Backend) PlusReduce(x *tensor.RawTensor) (float32, error) {
	if b.plans.isClosed() {
		return 0, errors.Wrap(ErrClosed, "plus_reduce")
	}
	switch x.DType() {
	case tensor.Float32, tensor.Float64, tensor.Int64:
	default:
		return 0, errors.Wrapf(ErrDType, "plus_reduce: %s", x.DType())
	}

	values := x.Float64s()
	partials := make([]float64, (len(values)+b.cfg.ReduceChunk-1)/b.cfg.ReduceChunk)
	parallel.ForChunks(len(values), b.cfg.ReduceChunk, func(c, start, end int) {
		partials[c] = floats.Sum(values[start:end])
	}, b.cfg.Parallel)

	return float32(floats.Sum(partials)), nil
}
