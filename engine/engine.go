package engine

import (
	"fmt"
	"os"
	"strings"

	iface "OnnxRocEval/interface"
	"OnnxRocEval/logger"

	ort "github.com/yalue/onnxruntime_go"
	"go.uber.org/zap"
)

// ParseLayout accepts NHWC or NCHW in any case; empty means NHWC.
func ParseLayout(s string) (iface.Layout, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "", string(iface.NHWC):
		return iface.NHWC, nil
	case string(iface.NCHW):
		return iface.NCHW, nil
	}
	return "", fmt.Errorf("unsupported tensor layout %q", s)
}

// Classifier runs an ONNX image classifier with batch size one.
type Classifier struct {
	info         iface.ModelInfo
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

var _ iface.Classifier = (*Classifier)(nil)

// NewClassifier loads modelPath into an ONNX Runtime session. Fields left
// empty in meta are taken from the model's own input/output description.
func NewClassifier(modelPath string, meta Metadata, libraryPath string) (*Classifier, error) {
	if _, err := os.Stat(modelPath); err != nil {
		return nil, fmt.Errorf("model %s: %w", modelPath, err)
	}
	if err := initEnvironment(libraryPath); err != nil {
		return nil, err
	}
	c, err := newClassifier(modelPath, meta)
	if err != nil {
		_ = ort.DestroyEnvironment()
		return nil, err
	}
	return c, nil
}

func initEnvironment(libraryPath string) error {
	if ort.IsInitialized() {
		return nil
	}
	lib, err := LocateSharedLibrary(libraryPath)
	if err != nil {
		logger.Log().Warn("onnxruntime shared library not found, using loader default", zap.Error(err))
	} else {
		logger.Log().Debug("using onnxruntime shared library", zap.String("path", lib))
		ort.SetSharedLibraryPath(lib)
	}
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("failed to initialize ONNX environment: %w", err)
	}
	return nil
}

func newClassifier(modelPath string, meta Metadata) (*Classifier, error) {
	inputs, outputs, err := ort.GetInputOutputInfo(modelPath)
	if err != nil {
		return nil, fmt.Errorf("failed to inspect model %s: %w", modelPath, err)
	}
	if len(inputs) != 1 || len(outputs) < 1 {
		return nil, fmt.Errorf("%w: expected one image input, model has %d inputs and %d outputs",
			ErrShapeMismatch, len(inputs), len(outputs))
	}
	if meta.InputName == "" {
		meta.InputName = inputs[0].Name
	}
	if meta.OutputName == "" {
		meta.OutputName = outputs[0].Name
	}
	if len(meta.InputShape) == 0 {
		meta.InputShape = inputs[0].Dimensions
	}
	if len(meta.OutputShape) == 0 {
		meta.OutputShape = outputs[0].Dimensions
	}

	layout, err := ParseLayout(meta.Layout)
	if err != nil {
		return nil, err
	}
	inShape, err := meta.resolveInputShape(meta.ImageSize, layout)
	if err != nil {
		return nil, err
	}
	outShape, err := meta.resolveOutputShape(len(meta.Classes))
	if err != nil {
		return nil, err
	}
	size := int(inShape[1])
	if layout == iface.NCHW {
		size = int(inShape[2])
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(inShape...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}
	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(outShape...))
	if err != nil {
		_ = inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}
	session, err := ort.NewAdvancedSession(modelPath,
		[]string{meta.InputName}, []string{meta.OutputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		nil)
	if err != nil {
		_ = inputTensor.Destroy()
		_ = outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session: %w", err)
	}

	return &Classifier{
		info: iface.ModelInfo{
			ModelPath:  modelPath,
			InputName:  meta.InputName,
			OutputName: meta.OutputName,
			InputShape: inShape,
			Classes:    append([]string(nil), meta.Classes...),
			ImageSize:  size,
			Layout:     layout,
			Softmax:    meta.Softmax,
		},
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

func (c *Classifier) Info() iface.ModelInfo {
	return c.info
}

// Predict runs one image. The returned slice is owned by the caller.
func (c *Classifier) Predict(tensor []float32) ([]float32, error) {
	in := c.inputTensor.GetData()
	if len(tensor) != len(in) {
		return nil, fmt.Errorf("%w: expected %d input values, got %d", ErrShapeMismatch, len(in), len(tensor))
	}
	copy(in, tensor)
	if err := c.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}
	return append([]float32(nil), c.outputTensor.GetData()...), nil
}

func (c *Classifier) Close() {
	if c.inputTensor != nil {
		_ = c.inputTensor.Destroy()
		c.inputTensor = nil
	}
	if c.outputTensor != nil {
		_ = c.outputTensor.Destroy()
		c.outputTensor = nil
	}
	if c.session != nil {
		_ = c.session.Destroy()
		c.session = nil
	}
	_ = ort.DestroyEnvironment()
}
