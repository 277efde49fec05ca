package eval

import (
	"context"
	"errors"
	"image"
	"image/png"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"OnnxRocEval/dataset"
	iface "OnnxRocEval/interface"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockClassifier scores by mean brightness: dark images lean to class 0,
// bright ones to the last class.
type MockClassifier struct {
	classes []string
	logits  bool
	calls   int
}

func (m *MockClassifier) Predict(tensor []float32) ([]float32, error) {
	m.calls++
	var mean float32
	for _, v := range tensor {
		mean += v
	}
	mean /= float32(len(tensor))
	k := len(m.classes)
	out := make([]float32, k)
	var sum float32
	for j := range out {
		centre := float32(j) / float32(k-1)
		d := mean - centre
		out[j] = 1 / (0.05 + d*d)
		sum += out[j]
	}
	for j := range out {
		if m.logits {
			out[j] = float32(math.Log(float64(out[j])))
		} else {
			out[j] /= sum
		}
	}
	return out, nil
}

func (m *MockClassifier) Info() iface.ModelInfo {
	return iface.ModelInfo{ModelPath: "mock", Classes: m.classes, ImageSize: 4, Layout: iface.NHWC}
}

func (m *MockClassifier) Close() {}

type sliceSource struct {
	samples []dataset.Sample
	tensors [][]float32
	pos     int
}

func (s *sliceSource) Len() int { return len(s.samples) }

func (s *sliceSource) Next() (dataset.Sample, []float32, error) {
	if s.pos >= len(s.samples) {
		return dataset.Sample{}, nil, io.EOF
	}
	s.pos++
	return s.samples[s.pos-1], s.tensors[s.pos-1], nil
}

type countingObserver struct{ n int }

func (c *countingObserver) ObserveInference(time.Duration) { c.n++ }

func writeTree(t *testing.T, counts map[string][]uint8) string {
	t.Helper()
	root := t.TempDir()
	for class, levels := range counts {
		for i, level := range levels {
			dir := filepath.Join(root, class)
			require.NoError(t, os.MkdirAll(dir, 0o755))
			img := image.NewGray(image.Rect(0, 0, 6, 6))
			for p := range img.Pix {
				img.Pix[p] = level
			}
			f, err := os.Create(filepath.Join(dir, string(rune('a'+i))+".png"))
			require.NoError(t, err)
			require.NoError(t, png.Encode(f, img))
			require.NoError(t, f.Close())
		}
	}
	return root
}

func loaderFor(t *testing.T, root string) (*dataset.Dataset, *dataset.Loader) {
	t.Helper()
	ci, err := dataset.ResolveClasses(root, nil, nil)
	require.NoError(t, err)
	ds, err := dataset.Open(root, ci, dataset.NativeDecoder{}.Extensions())
	require.NoError(t, err)
	return ds, dataset.NewLoader(ds, dataset.NativeDecoder{}, dataset.LoaderOptions{
		Size: 4, Layout: iface.NHWC, Rescale: 1.0 / 255,
	})
}

func TestRunSyntheticValidationSet(t *testing.T) {
	root := writeTree(t, map[string][]uint8{
		"a_dark":   {0, 10, 20},
		"b_mid":    {120, 128, 135},
		"c_bright": {240, 250},
	})
	ds, loader := loaderFor(t, root)
	labels := ds.Classes.Labels()
	mock := &MockClassifier{classes: labels}
	obs := &countingObserver{}

	res, err := Run(context.Background(), mock, loader, labels, Options{ProgressEvery: 2, Observer: obs})
	require.NoError(t, err)

	p := res.Predictions
	assert.Equal(t, len(ds.Samples), p.Rows())
	assert.Equal(t, len(ds.Samples), mock.calls)
	assert.Equal(t, len(ds.Samples), obs.n)
	assert.Equal(t, ds.Labels(), p.Truth)
	for i, row := range p.Matrix {
		var sum float64
		for _, v := range row {
			sum += v
		}
		assert.InDelta(t, 1.0, sum, 1e-5, "row %d", i)
	}
	for i, row := range res.OneHot {
		var ones float64
		for _, v := range row {
			ones += v
		}
		assert.Equal(t, 1.0, ones, "row %d", i)
	}
	require.Len(t, res.Curves, 3)
	for _, c := range res.Curves {
		assert.InDelta(t, 1.0, c.AUC, 1e-12, c.Label)
	}
	assert.InDelta(t, 1.0, res.MacroAUC, 1e-12)
}

func TestRunIsDeterministic(t *testing.T) {
	root := writeTree(t, map[string][]uint8{
		"cat": {30, 90, 200},
		"dog": {60, 180, 220, 100},
	})
	run := func() *Result {
		ds, loader := loaderFor(t, root)
		res, err := Run(context.Background(), &MockClassifier{classes: ds.Classes.Labels()}, loader, ds.Classes.Labels(), Options{})
		require.NoError(t, err)
		return res
	}
	first, second := run(), run()
	assert.Equal(t, first.Predictions.Matrix, second.Predictions.Matrix)
	for i := range first.Curves {
		assert.Equal(t, math.Float64bits(first.Curves[i].AUC), math.Float64bits(second.Curves[i].AUC))
		assert.Equal(t, first.Curves[i].TPR, second.Curves[i].TPR)
	}
}

func TestPredictSoftmax(t *testing.T) {
	src := &sliceSource{
		samples: []dataset.Sample{{Path: "x", Class: 0}, {Path: "y", Class: 1}},
		tensors: [][]float32{{0.1, 0.1}, {0.9, 0.9}},
	}
	labels := []string{"lo", "hi"}

	_, err := Predict(context.Background(), &MockClassifier{classes: labels, logits: true}, src, labels, Options{})
	assert.ErrorIs(t, err, ErrNotDistribution)

	src.pos = 0
	p, err := Predict(context.Background(), &MockClassifier{classes: labels, logits: true}, src, labels, Options{Softmax: true})
	require.NoError(t, err)
	assert.Greater(t, p.Matrix[0][0], p.Matrix[0][1])
	assert.Greater(t, p.Matrix[1][1], p.Matrix[1][0])
}

func TestPredictShapeMismatch(t *testing.T) {
	src := &sliceSource{
		samples: []dataset.Sample{{Path: "x"}},
		tensors: [][]float32{{0.5}},
	}
	_, err := Predict(context.Background(), &MockClassifier{classes: []string{"a", "b"}}, src, []string{"a", "b", "c"}, Options{})
	assert.ErrorContains(t, err, "2 scores for 3 classes")
}

func TestPredictCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	src := &sliceSource{samples: []dataset.Sample{{Path: "x"}}, tensors: [][]float32{{0}}}
	_, err := Predict(ctx, &MockClassifier{classes: []string{"a", "b"}}, src, []string{"a", "b"}, Options{})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestPredictEmpty(t *testing.T) {
	_, err := Predict(context.Background(), &MockClassifier{classes: []string{"a", "b"}}, &sliceSource{}, []string{"a", "b"}, Options{})
	assert.ErrorIs(t, err, dataset.ErrEmptyDataset)
}

func TestSoftmax(t *testing.T) {
	row := []float64{1000, 1000, 998}
	Softmax(row)
	var sum float64
	for _, v := range row {
		assert.False(t, math.IsNaN(v))
		sum += v
	}
	assert.InDelta(t, 1.0, sum, 1e-12)
	assert.Equal(t, row[0], row[1])
}

func TestValidate(t *testing.T) {
	p := &Predictions{Paths: []string{"a"}, Matrix: [][]float64{{0.5, 0.6}}}
	assert.ErrorIs(t, p.Validate(DefaultTolerance), ErrNotDistribution)
	p.Matrix[0] = []float64{1.2, -0.2}
	assert.ErrorIs(t, p.Validate(DefaultTolerance), ErrNotDistribution)
	p.Matrix[0] = []float64{0.3, 0.7}
	assert.NoError(t, p.Validate(DefaultTolerance))
}

func TestScoreKeepsUndefinedClasses(t *testing.T) {
	p := &Predictions{
		Labels: []string{"a", "b", "empty"},
		Truth:  []int{0, 1},
		Paths:  []string{"x", "y"},
		Matrix: [][]float64{{0.9, 0.05, 0.05}, {0.1, 0.8, 0.1}},
	}
	res, err := Score(p)
	require.NoError(t, err)
	assert.False(t, res.Curves[2].Defined())
	assert.True(t, math.IsNaN(res.Curves[2].AUC))
	assert.InDelta(t, 1.0, res.MacroAUC, 1e-12)
}
