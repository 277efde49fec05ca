package iface

// Layout of an image tensor fed to the classifier.
type Layout string

const (
	NHWC Layout = "NHWC"
	NCHW Layout = "NCHW"
)

// ModelInfo describes a loaded classifier.
type ModelInfo struct {
	ModelPath  string
	InputName  string
	OutputName string
	InputShape []int64
	Classes    []string
	ImageSize  int
	Layout     Layout
	Softmax    bool
}

// Classifier maps one preprocessed image tensor to a score per class.
// Implementations are not safe for concurrent use.
type Classifier interface {
	Predict(tensor []float32) ([]float32, error)
	Info() ModelInfo
	Close()
}
