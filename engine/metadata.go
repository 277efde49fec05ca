package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	iface "OnnxRocEval/interface"
)

// Metadata is the JSON sidecar exported next to the ONNX model.
type Metadata struct {
	InputName   string   `json:"input_name,omitempty"`
	OutputName  string   `json:"output_name,omitempty"`
	InputShape  []int64  `json:"input_shape,omitempty"`
	OutputShape []int64  `json:"output_shape,omitempty"`
	Classes     []string `json:"classes,omitempty"`
	ImageSize   int      `json:"image_size,omitempty"`
	Layout      string   `json:"layout,omitempty"`
	Softmax     bool     `json:"softmax,omitempty"`
}

var ErrShapeMismatch = errors.New("shape mismatch")

// LoadMetadata reads the sidecar. A missing file is not an error when
// optional is set; the zero Metadata is returned and every field falls
// back to the model's own input/output description.
func LoadMetadata(path string, optional bool) (Metadata, error) {
	var meta Metadata
	if path == "" {
		return meta, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return meta, nil
		}
		return meta, fmt.Errorf("failed to read metadata: %w", err)
	}
	if err := json.Unmarshal(raw, &meta); err != nil {
		return meta, fmt.Errorf("failed to parse metadata %s: %w", path, err)
	}
	return meta, nil
}

// resolveInputShape fills in batch size one and derives the spatial
// dimensions from the image size when the model leaves them dynamic.
func (m Metadata) resolveInputShape(size int, layout iface.Layout) ([]int64, error) {
	shape := append([]int64(nil), m.InputShape...)
	if len(shape) == 0 {
		if size <= 0 {
			return nil, fmt.Errorf("%w: no input shape and no image size", ErrShapeMismatch)
		}
		if layout == iface.NCHW {
			return []int64{1, 3, int64(size), int64(size)}, nil
		}
		return []int64{1, int64(size), int64(size), 3}, nil
	}
	if len(shape) != 4 {
		return nil, fmt.Errorf("%w: input must be rank 4, got %v", ErrShapeMismatch, shape)
	}
	shape[0] = 1
	hw := []int{1, 2}
	ch := 3
	if layout == iface.NCHW {
		hw = []int{2, 3}
		ch = 1
	}
	for _, i := range hw {
		if shape[i] <= 0 {
			if size <= 0 {
				return nil, fmt.Errorf("%w: dynamic spatial dimension needs image_size", ErrShapeMismatch)
			}
			shape[i] = int64(size)
		}
	}
	if shape[ch] <= 0 {
		shape[ch] = 3
	}
	if shape[ch] != 3 {
		return nil, fmt.Errorf("%w: expected 3 channels in %s input, got %v", ErrShapeMismatch, layout, shape)
	}
	if shape[hw[0]] != shape[hw[1]] {
		return nil, fmt.Errorf("%w: non-square input %v", ErrShapeMismatch, shape)
	}
	return shape, nil
}

func (m Metadata) resolveOutputShape(classes int) ([]int64, error) {
	shape := append([]int64(nil), m.OutputShape...)
	if len(shape) == 0 {
		if classes <= 0 {
			return nil, fmt.Errorf("%w: output width unknown", ErrShapeMismatch)
		}
		return []int64{1, int64(classes)}, nil
	}
	if len(shape) != 2 {
		return nil, fmt.Errorf("%w: output must be rank 2, got %v", ErrShapeMismatch, shape)
	}
	shape[0] = 1
	if shape[1] <= 0 {
		if classes <= 0 {
			return nil, fmt.Errorf("%w: dynamic output width needs classes", ErrShapeMismatch)
		}
		shape[1] = int64(classes)
	}
	if classes > 0 && shape[1] != int64(classes) {
		return nil, fmt.Errorf("%w: model emits %d scores for %d classes", ErrShapeMismatch, shape[1], classes)
	}
	return shape, nil
}
