package main

import (
	"context"
	"strings"

	"github.com/cwbudde/algo-fft/gpu"
	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/fftconv"
	"github.com/born-ml/fftconv/internal/serialization"
	"github.com/born-ml/fftconv/tensor"
)

var (
	forwardOutputs  = []string{"out", "xfft", "yfft", "W", "WW", "fft_size"}
	backwardOutputs = []string{"dx", "dw", "db"}
	backwardInputs  = []string{"dout", "xfft", "yfft", "W", "WW", "fft_size"}
)

func inFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:     "in",
		Usage:    "SafeTensors input file (repeatable; later files override earlier names)",
		Required: true,
	}
}

func outFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  "out",
		Usage: "SafeTensors output file (prints shapes when empty)",
	}
}

func opsCmd() *cli.Command {
	return &cli.Command{
		Name:  "ops",
		Usage: "List the registered entry points",
		Flags: backendFlags(),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()
			for _, d := range s.module.Defs() {
				printf(cmd, "%s\n", d)
			}
			return nil
		},
	}
}

func reduceCmd() *cli.Command {
	return &cli.Command{
		Name:  "reduce",
		Usage: "Sum every element of a tensor with plus_reduce",
		Flags: withBackendFlags(
			inFlag(),
			&cli.StringFlag{Name: "name", Usage: "tensor to reduce", Value: "input"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			tensors, err := s.load(cmd.StringSlice("in"))
			if err != nil {
				return err
			}
			args, err := pick(tensors, cmd.String("name"))
			if err != nil {
				return err
			}
			res, err := s.call(fftconv.NamePlusReduce, args...)
			if err != nil {
				return err
			}
			printf(cmd, "%g\n", res.Scalar)
			return nil
		},
	}
}

func callCmd() *cli.Command {
	return &cli.Command{
		Name:      "call",
		Usage:     "Invoke a registered entry point by name",
		ArgsUsage: "NAME",
		Flags: withBackendFlags(
			inFlag(),
			outFlag(),
			&cli.StringSliceFlag{Name: "args", Usage: "input tensor names in call order (default: the entry point's argument names)"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			name := cmd.Args().First()
			if name == "" {
				return errors.New("missing entry point name")
			}
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			argNames := cmd.StringSlice("args")
			if len(argNames) == 0 {
				if d, ok := s.module.Lookup(name); ok {
					argNames = d.Args
				}
			}
			tensors, err := s.load(cmd.StringSlice("in"))
			if err != nil {
				return err
			}
			args, err := pick(tensors, argNames...)
			if err != nil {
				return err
			}
			res, err := s.call(name, args...)
			if err != nil {
				return err
			}

			switch name {
			case fftconv.NameForward:
				return s.emit(cmd, forwardOutputs, s.withDescriptors(args, res.Tensors))
			case fftconv.NameBackward:
				return s.emit(cmd, backwardOutputs, res.Tensors)
			default:
				printf(cmd, "%g\n", res.Scalar)
				return nil
			}
		},
	}
}

func forwardCmd() *cli.Command {
	return &cli.Command{
		Name:  "forward",
		Usage: "Run the FFT convolution forward pass",
		Flags: withBackendFlags(
			inFlag(),
			outFlag(),
			&cli.Int64Flag{Name: "padding", Usage: "zero padding on each side"},
			&cli.Int64Flag{Name: "index-back", Usage: "highest frequency coefficients to drop"},
		),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			tensors, err := s.load(cmd.StringSlice("in"))
			if err != nil {
				return err
			}
			args, err := pick(tensors, "input", "filter", "bias")
			if err != nil {
				return err
			}
			args = append(args, s.descriptor(cmd.Int64("padding")), s.descriptor(cmd.Int64("index-back")))

			res, err := s.call(fftconv.NameForward, args...)
			if err != nil {
				return err
			}
			return s.emit(cmd, forwardOutputs, s.withDescriptors(args, res.Tensors))
		},
	}
}

func backwardCmd() *cli.Command {
	return &cli.Command{
		Name:  "backward",
		Usage: "Run the FFT convolution backward pass on saved forward outputs",
		Flags: withBackendFlags(inFlag(), outFlag()),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			s, err := openSession(cmd)
			if err != nil {
				return err
			}
			defer s.Close()

			tensors, err := s.load(cmd.StringSlice("in"))
			if err != nil {
				return err
			}
			args, err := pick(tensors, backwardInputs...)
			if err != nil {
				return err
			}
			res, err := s.call(fftconv.NameBackward, args...)
			if err != nil {
				return err
			}
			return s.emit(cmd, backwardOutputs, res.Tensors)
		},
	}
}

func versionCmd() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Print version and FFT backend information",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "fft-backend", Value: "auto", Destination: &fftBackend},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			printf(cmd, "fftconv %s\n", version)
			if err := registerFFTBackend(fftBackend); err != nil {
				printf(cmd, "fft backend: none (%v)\n", err)
				return nil
			}
			if info, ok := gpu.CurrentBackendInfo(); ok {
				printf(cmd, "fft backend: %s %s\n", info.Name, info.Version)
			}
			printf(cmd, "compiled fft backends: %s\n", strings.Join(fftBackendNames(), ", "))
			return nil
		},
	}
}

// withDescriptors appends the W, WW and fft_size descriptors that the
// backward pass needs to the forward results.
func (s *session) withDescriptors(args, outs []*tensor.RawTensor) []*tensor.RawTensor {
	input, filter, xfft := args[0], args[1], outs[1]
	return append(outs,
		s.descriptor(int64(input.Shape()[2])),
		s.descriptor(int64(filter.Shape()[2])),
		s.descriptor(int64(2*(xfft.Shape()[2]-1))),
	)
}

// emit writes results to --out, or prints their shapes when it is empty.
func (s *session) emit(cmd *cli.Command, names []string, results []*tensor.RawTensor) error {
	if len(results) != len(names) {
		return errors.Errorf("expected %d results, got %d", len(names), len(results))
	}
	path := cmd.String("out")
	if path == "" {
		for i, name := range names {
			printf(cmd, "%s %v %s %s\n", name, results[i].Shape(), results[i].DType(), humanize.Bytes(uint64(results[i].ByteSize())))
		}
		return nil
	}

	tensors := make(map[string]*tensor.RawTensor, len(names))
	for i, name := range names {
		tensors[name] = results[i]
	}
	meta := map[string]string{
		"producer": "fftconv " + version,
		"backend":  s.backend.Name(),
		"run_id":   uuid.NewString(),
	}
	if err := serialization.WriteSafeTensors(path, tensors, meta); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	klog.V(1).Infof("wrote %d tensors to %s (run %s)", len(tensors), path, meta["run_id"])
	return nil
}
