package serialization

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/born-ml/fftconv/internal/tensor"
)

// ReadSafeTensors loads every tensor of a SafeTensors file onto device.
func ReadSafeTensors(path string, device tensor.Device) (map[string]*tensor.RawTensor, map[string]string, error) {
	//nolint:gosec // G304: input path is chosen by the caller
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()

	return ReadFrom(bufio.NewReader(file), device)
}

// ReadFrom decodes a SafeTensors stream. Tensors are attributed to device.
// F16 tensors are widened to Float32.
func ReadFrom(in io.Reader, device tensor.Device) (map[string]*tensor.RawTensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(in, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", truncated(err))
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%w: %d bytes", ErrHeaderTooLarge, headerSize)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(in, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", truncated(err))
	}
	metas, metadata, err := parseHeader(headerJSON)
	if err != nil {
		return nil, nil, err
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if err := ValidateTensorOffsets(metas, int64(len(data))); err != nil {
		return nil, nil, err
	}

	tensors := make(map[string]*tensor.RawTensor, len(metas))
	for _, m := range metas {
		raw, err := tensor.NewRaw(m.Shape, m.DType, device)
		if err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", m.Name, err)
		}
		if m.Half {
			widenHalf(raw.AsFloat32(), data[m.Offset:m.Offset+m.Size])
		} else {
			copy(raw.Data(), data[m.Offset:m.Offset+m.Size])
		}
		tensors[m.Name] = raw
	}
	return tensors, metadata, nil
}

// parseHeader decodes the JSON header into tensor metadata sorted by name.
func parseHeader(headerJSON []byte) ([]TensorMeta, map[string]string, error) {
	var entries map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &entries); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}
	if len(entries) > MaxTensorCount+1 {
		return nil, nil, &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(entries), MaxTensorCount),
		}
	}

	var metadata map[string]string
	metas := make([]TensorMeta, 0, len(entries))
	for name, msg := range entries {
		if name == metadataKey {
			if err := json.Unmarshal(msg, &metadata); err != nil {
				return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
			}
			continue
		}
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}

		var h TensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, fmt.Errorf("tensor %q: failed to parse header: %w", name, err)
		}
		dtype, ok := safeTensorsToDtype(h.DType)
		if !ok {
			return nil, nil, fmt.Errorf("tensor %q: %w: %s", name, ErrUnsupportedDType, h.DType)
		}
		shape := make(tensor.Shape, len(h.Shape))
		for i, dim := range h.Shape {
			shape[i] = int(dim)
		}
		if err := shape.Validate(); err != nil {
			return nil, nil, fmt.Errorf("tensor %q: %w", name, err)
		}
		if err := checkShapeSize(name, shape, dtype.Size()); err != nil {
			return nil, nil, err
		}

		metas = append(metas, TensorMeta{
			Name:   name,
			DType:  dtype,
			Shape:  shape,
			Offset: h.DataOffsets[0],
			Size:   h.DataOffsets[1] - h.DataOffsets[0],
			Half:   h.DType == DTypeF16,
		})
	}

	sort.Slice(metas, func(i, j int) bool { return metas[i].Name < metas[j].Name })
	return metas, metadata, nil
}

// checkShapeSize rejects shapes whose byte size does not fit in an int.
func checkShapeSize(name string, shape tensor.Shape, elemSize int) error {
	limit := math.MaxInt / elemSize
	n := 1
	for _, dim := range shape {
		if dim > limit/n {
			return &ValidationError{
				Type:    "invalid_shape",
				Tensor:  name,
				Details: fmt.Sprintf("shape %v overflows", shape),
			}
		}
		n *= dim
	}
	return nil
}

func truncated(err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return ErrTruncated
	}
	return err
}
