package fftconv

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/internal/tensor"
)

// Call table errors.
var (
	// ErrNotRegistered is returned by Call for names missing from the table.
	ErrNotRegistered = errors.New("fftconv: entry point not registered")

	// ErrArity is returned by Call when the argument count does not match.
	ErrArity = errors.New("fftconv: wrong number of arguments")
)

// Entry point names.
const (
	NameForward    = "forward"
	NameBackward   = "backward"
	NamePlusReduce = "plus_reduce"
)

// Result holds what an entry point returns: tensors for the convolution
// entry points, a scalar for plus_reduce.
type Result struct {
	Tensors []*tensor.RawTensor
	Scalar  float32
}

// Def describes one registered entry point.
type Def struct {
	Name string
	Doc  string
	Args []string // Argument names, in call order

	call func(args []*tensor.RawTensor) (Result, error)
}

// Arity returns the number of tensor arguments.
func (d Def) Arity() int {
	return len(d.Args)
}

// String formats the definition as a signature.
func (d Def) String() string {
	return fmt.Sprintf("%s(%s) %q", d.Name, strings.Join(d.Args, ", "), d.Doc)
}

// Option configures a Module.
type Option func(*moduleOptions)

type moduleOptions struct {
	convolution bool
}

// WithConvolution registers the forward and backward convolution entry points.
// They are left out of the table unless this option is given.
func WithConvolution() Option {
	return func(o *moduleOptions) {
		o.convolution = true
	}
}

// Module is the extension call table of one kernel backend.
type Module struct {
	kernels Kernels
	defs    []Def
	byName  map[string]int
}

// NewModule builds the call table for k. Only plus_reduce is registered by default.
func NewModule(k Kernels, opts ...Option) *Module {
	var o moduleOptions
	for _, opt := range opts {
		opt(&o)
	}

	m := &Module{kernels: k, byName: make(map[string]int)}
	device := k.Device().String()

	if o.convolution {
		m.def(Def{
			Name: NameForward,
			Doc:  fmt.Sprintf("Conv forward (%s)", device),
			Args: []string{"input", "filter", "bias", "padding", "index_back"},
			call: func(a []*tensor.RawTensor) (Result, error) {
				out, err := Forward(k, a[0], a[1], a[2], a[3], a[4])
				return Result{Tensors: out}, err
			},
		})
		m.def(Def{
			Name: NameBackward,
			Doc:  fmt.Sprintf("Conv backward (%s)", device),
			Args: []string{"dout", "xfft", "yfft", "W", "WW", "fft_size"},
			call: func(a []*tensor.RawTensor) (Result, error) {
				out, err := Backward(k, a[0], a[1], a[2], a[3], a[4], a[5])
				return Result{Tensors: out}, err
			},
		})
	}
	m.def(Def{
		Name: NamePlusReduce,
		Doc:  fmt.Sprintf("plus_reduce (%s)", device),
		Args: []string{"input"},
		call: func(a []*tensor.RawTensor) (Result, error) {
			v, err := PlusReduce(k, a[0])
			return Result{Scalar: v}, err
		},
	})

	klog.V(1).Infof("fftconv: module for %s with %d entry points", k.Name(), len(m.defs))
	return m
}

func (m *Module) def(d Def) {
	m.byName[d.Name] = len(m.defs)
	m.defs = append(m.defs, d)
}

// Defs returns the registered entry points in registration order.
func (m *Module) Defs() []Def {
	out := make([]Def, len(m.defs))
	copy(out, m.defs)
	return out
}

// Lookup returns the definition registered under name.
func (m *Module) Lookup(name string) (Def, bool) {
	i, ok := m.byName[name]
	if !ok {
		return Def{}, false
	}
	return m.defs[i], true
}

// Kernels returns the backend the table dispatches to.
func (m *Module) Kernels() Kernels {
	return m.kernels
}

// Call invokes the entry point registered under name.
// Precondition failures panic with *guard.PreconditionError as they do when
// the entry point is called directly.
func (m *Module) Call(name string, args ...*tensor.RawTensor) (Result, error) {
	d, ok := m.Lookup(name)
	if !ok {
		return Result{}, errors.Wrapf(ErrNotRegistered, "%q", name)
	}
	if len(args) != d.Arity() {
		return Result{}, errors.Wrapf(ErrArity, "%s takes %d tensors (%s), got %d", name, d.Arity(), strings.Join(d.Args, ", "), len(args))
	}
	klog.V(2).Infof("fftconv: call %s", name)
	return d.call(args)
}
