// Package eval runs a classifier over a validation set and scores it.
package eval

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"OnnxRocEval/dataset"
	iface "OnnxRocEval/interface"
	"OnnxRocEval/logger"
	"OnnxRocEval/roc"

	"go.uber.org/zap"
)

var ErrNotDistribution = errors.New("prediction row is not a probability distribution")

// DefaultTolerance bounds |sum(row) - 1|.
const DefaultTolerance = 1e-3

// Source yields preprocessed samples in order; dataset.Loader is one.
type Source interface {
	Len() int
	Next() (dataset.Sample, []float32, error)
}

// Observer receives the wall time of every Predict call.
type Observer interface {
	ObserveInference(d time.Duration)
}

type Options struct {
	Softmax       bool
	Tolerance     float64
	ProgressEvery int
	Observer      Observer
}

// Predictions is the prediction matrix aligned row by row with the ground
// truth vector.
type Predictions struct {
	Labels  []string
	Truth   []int
	Paths   []string
	Matrix  [][]float64
	Elapsed time.Duration
}

func (p *Predictions) Rows() int { return len(p.Matrix) }

// Validate checks every row is non-negative and sums to 1 within tol.
func (p *Predictions) Validate(tol float64) error {
	for i, row := range p.Matrix {
		var sum float64
		for j, v := range row {
			if math.IsNaN(v) || v < 0 {
				return fmt.Errorf("%w: row %d (%s) column %d is %v", ErrNotDistribution, i, p.Paths[i], j, v)
			}
			sum += v
		}
		if math.Abs(sum-1) > tol {
			return fmt.Errorf("%w: row %d (%s) sums to %.6f; set softmax if the model emits logits",
				ErrNotDistribution, i, p.Paths[i], sum)
		}
	}
	return nil
}

// Predict runs src through c with batch size one. Rows follow src order.
func Predict(ctx context.Context, c iface.Classifier, src Source, labels []string, opts Options) (*Predictions, error) {
	if opts.Tolerance <= 0 {
		opts.Tolerance = DefaultTolerance
	}
	n := src.Len()
	p := &Predictions{
		Labels: append([]string(nil), labels...),
		Truth:  make([]int, 0, n),
		Paths:  make([]string, 0, n),
		Matrix: make([][]float64, 0, n),
	}
	start := time.Now()
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		s, tensor, err := src.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		t0 := time.Now()
		out, err := c.Predict(tensor)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Path, err)
		}
		if opts.Observer != nil {
			opts.Observer.ObserveInference(time.Since(t0))
		}
		if len(out) != len(labels) {
			return nil, fmt.Errorf("%s: model returned %d scores for %d classes", s.Path, len(out), len(labels))
		}
		row := make([]float64, len(out))
		for j, v := range out {
			row[j] = float64(v)
		}
		if opts.Softmax {
			Softmax(row)
		}
		p.Matrix = append(p.Matrix, row)
		p.Truth = append(p.Truth, s.Class)
		p.Paths = append(p.Paths, s.Path)
		if opts.ProgressEvery > 0 && len(p.Matrix)%opts.ProgressEvery == 0 {
			logger.S().Infof("inference progress %d/%d", len(p.Matrix), n)
		}
	}
	p.Elapsed = time.Since(start)
	if len(p.Matrix) == 0 {
		return nil, dataset.ErrEmptyDataset
	}
	if err := p.Validate(opts.Tolerance); err != nil {
		return nil, err
	}
	return p, nil
}

// Softmax rewrites row in place, shifted by its max for stability.
func Softmax(row []float64) {
	if len(row) == 0 {
		return
	}
	hi := row[0]
	for _, v := range row[1:] {
		if v > hi {
			hi = v
		}
	}
	var sum float64
	for i, v := range row {
		row[i] = math.Exp(v - hi)
		sum += row[i]
	}
	for i := range row {
		row[i] /= sum
	}
}

// Result is everything a report needs.
type Result struct {
	Predictions *Predictions
	OneHot      [][]float64
	Curves      []roc.Curve
	MacroAUC    float64
}

// Score one-hot encodes the ground truth and computes a curve per class.
// Undefined curves are logged and kept with NaN AUC.
func Score(p *Predictions) (*Result, error) {
	onehot, err := roc.OneHot(p.Truth, len(p.Labels))
	if err != nil {
		return nil, err
	}
	curves, err := roc.MultiClass(p.Matrix, onehot, p.Labels)
	if err != nil {
		return nil, err
	}
	for _, c := range curves {
		if !c.Defined() {
			logger.Log().Warn("skipping class without a ROC curve",
				zap.String("class", c.Label), zap.Error(c.Err))
		}
	}
	return &Result{
		Predictions: p,
		OneHot:      onehot,
		Curves:      curves,
		MacroAUC:    roc.MacroAUC(curves),
	}, nil
}

// Run is Predict followed by Score.
func Run(ctx context.Context, c iface.Classifier, src Source, labels []string, opts Options) (*Result, error) {
	p, err := Predict(ctx, c, src, labels, opts)
	if err != nil {
		return nil, err
	}
	logger.Log().Info("inference done",
		zap.Int("images", p.Rows()), zap.Duration("elapsed", p.Elapsed))
	return Score(p)
}
