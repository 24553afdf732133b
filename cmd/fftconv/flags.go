package main

import "github.com/urfave/cli/v3"

var (
	configFile  string
	device      string
	deviceIndex int64
	streamCount int64
	fftBackend  string
	verbosity   int64
	noUpload    bool
	enableConv  bool
)

func backendFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Usage:       "path to config.yaml (default $XDG_CONFIG_HOME/fftconv/config.yaml)",
			Destination: &configFile,
		},
		&cli.StringFlag{
			Name:        "device",
			Usage:       "accelerator device tag (cuda, vulkan, metal, webgpu)",
			Value:       "cuda",
			Destination: &device,
		},
		&cli.Int64Flag{
			Name:        "device-index",
			Usage:       "accelerator ordinal",
			Destination: &deviceIndex,
		},
		&cli.Int64Flag{
			Name:        "streams",
			Usage:       "execution streams per FFT plan",
			Value:       1,
			Destination: &streamCount,
		},
		&cli.StringFlag{
			Name:        "fft-backend",
			Usage:       "FFT backend (auto, mock, and cuda/opencl when built with those tags)",
			Value:       "auto",
			Destination: &fftBackend,
		},
		&cli.BoolFlag{
			Name:        "enable-conv",
			Usage:       "register the forward and backward convolution entry points",
			Destination: &enableConv,
		},
		&cli.BoolFlag{
			Name:        "no-upload",
			Usage:       "pass tensors to the kernels without copying them to the accelerator",
			Destination: &noUpload,
		},
		&cli.Int64Flag{
			Name:        "verbosity",
			Aliases:     []string{"v"},
			Usage:       "klog verbosity level",
			Destination: &verbosity,
		},
	}
}

func withBackendFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, backendFlags()...)
}
