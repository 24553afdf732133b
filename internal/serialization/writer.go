package serialization

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/fftconv/internal/tensor"
)

// SafeTensorsWriter writes tensors in SafeTensors format.
type SafeTensorsWriter struct {
	file   *os.File
	closed bool
}

// NewSafeTensorsWriter creates a new SafeTensors file writer.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: output path is chosen by the caller
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}

	return &SafeTensorsWriter{file: file}, nil
}

// WriteSafeTensors writes tensors to a SafeTensors file.
// Tensors are written in alphabetical order by name.
func WriteSafeTensors(path string, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	writer, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}

	if err := writer.WriteTensors(tensors, metadata); err != nil {
		_ = writer.Close()
		return err
	}
	return writer.Close()
}

// WriteTensors writes the tensors and optional metadata to the file.
func (w *SafeTensorsWriter) WriteTensors(tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}
	buf := bufio.NewWriter(w.file)
	if err := WriteTo(buf, tensors, metadata); err != nil {
		return err
	}
	return buf.Flush()
}

// WriteTo encodes tensors in SafeTensors format to out.
// Strided views are packed before their bytes are written.
func WriteTo(out io.Writer, tensors map[string]*tensor.RawTensor, metadata map[string]string) error {
	names := make([]string, 0, len(tensors))
	for name := range tensors {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		names = append(names, name)
	}
	sort.Strings(names)

	header := make(map[string]any, len(names)+1)
	if len(metadata) > 0 {
		header[metadataKey] = metadata
	}

	var offset int64
	packed := make([]*tensor.RawTensor, len(names))
	for i, name := range names {
		raw := tensors[name].Contiguous()
		dtype, ok := dtypeToSafeTensors(raw.DType())
		if !ok {
			return fmt.Errorf("tensor %q: %w: %s", name, ErrUnsupportedDType, raw.DType())
		}

		shape := make([]int64, len(raw.Shape()))
		for j, dim := range raw.Shape() {
			shape[j] = int64(dim)
		}
		size := int64(raw.ByteSize())
		header[name] = TensorHeader{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{offset, offset + size},
		}
		packed[i] = raw
		offset += size
	}

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(out, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := out.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	for i, raw := range packed {
		if _, err := out.Write(raw.Data()); err != nil {
			return fmt.Errorf("failed to write tensor %s: %w", names[i], err)
		}
	}
	return nil
}

// Close closes the writer and the underlying file.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	return w.file.Close()
}
