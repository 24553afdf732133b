package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/janpfeifer/must"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"
	"k8s.io/klog/v2"

	"github.com/born-ml/fftconv/backend/accel"
	"github.com/born-ml/fftconv/fftconv"
	"github.com/born-ml/fftconv/internal/serialization"
	"github.com/born-ml/fftconv/tensor"
)

// session is an accelerator backend with its call table, set up from flags and config.
type session struct {
	backend *accel.Backend
	module  *fftconv.Module
	device  tensor.Device
}

func openSession(cmd *cli.Command) (*session, error) {
	cfg, err := loadConfig(configFile)
	if err != nil {
		return nil, err
	}
	applyConfig(cmd, cfg)
	setupLogging(verbosity)

	if err := registerFFTBackend(fftBackend); err != nil {
		return nil, err
	}
	dev, err := tensor.ParseDevice(device)
	if err != nil {
		return nil, err
	}

	acfg := accel.DefaultConfig()
	acfg.Device = dev
	acfg.DeviceIndex = int(deviceIndex)
	acfg.StreamCount = int(streamCount)
	backend, err := accel.New(acfg)
	if err != nil {
		return nil, err
	}

	var opts []fftconv.Option
	if enableConv {
		opts = append(opts, fftconv.WithConvolution())
	}
	return &session{
		backend: backend,
		module:  fftconv.NewModule(backend, opts...),
		device:  dev,
	}, nil
}

func (s *session) Close() {
	s.backend.Close()
}

// load reads tensors from SafeTensors files; later files override earlier
// names. Tensors are copied to the accelerator unless --no-upload is set.
func (s *session) load(paths []string) (map[string]*tensor.RawTensor, error) {
	if len(paths) == 0 {
		return nil, errors.New("no input files (use --in)")
	}
	all := make(map[string]*tensor.RawTensor)
	for _, path := range paths {
		tensors, _, err := serialization.ReadSafeTensors(path, tensor.CPU)
		if err != nil {
			return nil, errors.Wrapf(err, "load %s", path)
		}
		for name, t := range tensors {
			if !noUpload {
				t = t.To(s.device)
			}
			all[name] = t
		}
		klog.V(1).Infof("loaded %d tensors from %s", len(tensors), path)
	}
	return all, nil
}

// descriptor creates a descriptor tensor where loaded tensors would live.
func (s *session) descriptor(v int64) *tensor.RawTensor {
	if noUpload {
		return tensor.Descriptor(v, tensor.CPU)
	}
	return tensor.Descriptor(v, s.device)
}

// call invokes a table entry and converts a precondition panic into an error.
func (s *session) call(name string, args ...*tensor.RawTensor) (fftconv.Result, error) {
	var (
		res fftconv.Result
		err error
	)
	perr := fftconv.Catch(func() {
		res, err = s.module.Call(name, args...)
	})
	if perr != nil {
		return fftconv.Result{}, errors.Wrapf(perr, "%s: precondition failed", name)
	}
	if errors.Is(err, fftconv.ErrNotRegistered) && (name == fftconv.NameForward || name == fftconv.NameBackward) {
		return res, errors.Wrap(err, "pass --enable-conv or set enable_conv: true in the config")
	}
	return res, err
}

// pick returns the named tensors in order.
func pick(tensors map[string]*tensor.RawTensor, names ...string) ([]*tensor.RawTensor, error) {
	out := make([]*tensor.RawTensor, len(names))
	for i, name := range names {
		t, ok := tensors[name]
		if !ok {
			return nil, errors.Errorf("tensor %q not found in inputs", name)
		}
		out[i] = t
	}
	return out, nil
}

func setupLogging(level int64) {
	fs := flag.NewFlagSet("klog", flag.ContinueOnError)
	klog.InitFlags(fs)
	must.M(fs.Set("logtostderr", "true"))
	must.M(fs.Set("v", strconv.FormatInt(level, 10)))
}

func output(cmd *cli.Command) io.Writer {
	if w := cmd.Root().Writer; w != nil {
		return w
	}
	return os.Stdout
}

func printf(cmd *cli.Command, format string, args ...any) {
	_, _ = fmt.Fprintf(output(cmd), format, args...)
}
