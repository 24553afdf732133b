package serialization

import (
	"fmt"
	"sort"
	"strings"
)

// Validation limits for resource protection.
const (
	MaxHeaderSize    = 100 * 1024 * 1024 // 100MB - maximum header size
	MaxTensorCount   = 100_000           // Maximum number of tensors in a file
	MaxTensorNameLen = 4096              // Maximum tensor name length
)

// ValidateTensorOffsets checks that tensor byte ranges match their shapes,
// stay inside the data section and do not overlap.
func ValidateTensorOffsets(tensors []TensorMeta, dataSize int64) error {
	if len(tensors) > MaxTensorCount {
		return &ValidationError{
			Type:    "too_many_tensors",
			Details: fmt.Sprintf("got %d, max %d", len(tensors), MaxTensorCount),
		}
	}

	// Sort tensors by offset for efficient overlap detection.
	sorted := make([]TensorMeta, len(tensors))
	copy(sorted, tensors)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].Offset < sorted[j].Offset
	})

	for i, t := range sorted {
		// Check for negative values (potential integer overflow attacks).
		if t.Offset < 0 || t.Size < 0 {
			return &ValidationError{
				Type:    "negative_offset",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset=%d, size=%d (negative values not allowed)", t.Offset, t.Size),
			}
		}

		if want := int64(t.Shape.NumElements() * t.storedElemSize()); t.Size != want {
			return &ValidationError{
				Type:    "size_mismatch",
				Tensor:  t.Name,
				Details: fmt.Sprintf("%d bytes for %v, want %d", t.Size, t.Shape, want),
			}
		}

		// Check bounds - prevent reading beyond file.
		if t.Offset+t.Size > dataSize {
			return &ValidationError{
				Type:    "out_of_bounds",
				Tensor:  t.Name,
				Details: fmt.Sprintf("offset %d + size %d > data_size %d", t.Offset, t.Size, dataSize),
			}
		}

		// Check for overlap with next tensor (data leakage prevention).
		if i < len(sorted)-1 {
			next := sorted[i+1]
			if t.Offset+t.Size > next.Offset {
				return &ValidationError{
					Type:    "offset_overlap",
					Tensor:  t.Name,
					Tensor2: next.Name,
					Details: fmt.Sprintf("regions [%d-%d] and [%d-%d] overlap",
						t.Offset, t.Offset+t.Size, next.Offset, next.Offset+next.Size),
				}
			}
		}
	}

	return nil
}

// ValidateTensorName rejects empty names, the reserved metadata key and names
// with path separators, traversal or null bytes.
func ValidateTensorName(name string) error {
	if name == "" || name == metadataKey {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "empty or reserved",
		}
	}
	if len(name) > MaxTensorNameLen {
		return &ValidationError{
			Type:    "name_too_long",
			Tensor:  name,
			Details: fmt.Sprintf("length %d > max %d", len(name), MaxTensorNameLen),
		}
	}

	// Path traversal prevention - critical for security.
	if strings.Contains(name, "..") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains '..' (path traversal attempt)",
		}
	}

	// Prevent absolute paths and directory separators.
	if strings.Contains(name, "/") || strings.Contains(name, "\\") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains path separator (/ or \\)",
		}
	}

	// Prevent null bytes (can bypass length checks in some contexts).
	if strings.Contains(name, "\x00") {
		return &ValidationError{
			Type:    "invalid_name",
			Tensor:  name,
			Details: "contains null byte",
		}
	}

	return nil
}
