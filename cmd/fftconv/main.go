// Command fftconv runs the FFT convolution extension entry points on
// SafeTensors files.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

const version = "v0.1.0-dev"

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newApp() *cli.Command {
	return &cli.Command{
		Name:  "fftconv",
		Usage: "FFT convolution extension runner",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return cli.ShowAppHelp(cmd)
		},
		Commands: []*cli.Command{
			opsCmd(),
			reduceCmd(),
			callCmd(),
			forwardCmd(),
			backwardCmd(),
			inspectCmd(),
			versionCmd(),
		},
	}
}
