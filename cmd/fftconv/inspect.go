package main

import (
	"context"
	"sort"

	"github.com/charmbracelet/lipgloss"
	lgtable "github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v3"

	"github.com/born-ml/fftconv/internal/serialization"
	"github.com/born-ml/fftconv/tensor"
)

var (
	headerRowStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
)

func newPlainTable() *lgtable.Table {
	return lgtable.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("99"))).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row < 0 {
				return headerRowStyle
			}
			if col >= 3 {
				return cellStyle.Align(lipgloss.Right)
			}
			return cellStyle
		})
}

func inspectCmd() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "List the tensors and metadata of a SafeTensors file",
		ArgsUsage: "FILE",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			path := cmd.Args().First()
			if path == "" {
				return errors.New("missing SafeTensors file")
			}
			tensors, meta, err := serialization.ReadSafeTensors(path, tensor.CPU)
			if err != nil {
				return err
			}

			names := make([]string, 0, len(tensors))
			for name := range tensors {
				names = append(names, name)
			}
			sort.Strings(names)

			table := newPlainTable().Headers("Name", "DType", "Shape", "Elements", "Bytes")
			var elements, bytes int
			for _, name := range names {
				t := tensors[name]
				elements += t.NumElements()
				bytes += t.ByteSize()
				table.Row(name, t.DType().String(), t.Shape().String(),
					humanize.Comma(int64(t.NumElements())),
					humanize.Bytes(uint64(t.ByteSize())))
			}
			printf(cmd, "%s\n", table.Render())
			printf(cmd, "%s tensors, %s elements, %s\n",
				humanize.Comma(int64(len(names))), humanize.Comma(int64(elements)), humanize.Bytes(uint64(bytes)))

			if len(meta) > 0 {
				keys := make([]string, 0, len(meta))
				for k := range meta {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				mt := newPlainTable().Headers("Metadata", "Value")
				for _, k := range keys {
					mt.Row(k, meta[k])
				}
				printf(cmd, "%s\n", mt.Render())
			}
			return nil
		},
	}
}
