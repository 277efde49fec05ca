// Package roc computes one-vs-rest ROC curves and their area.
package roc

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"
)

var ErrUndefinedCurve = errors.New("roc curve undefined")

// Curve holds the ROC points of one class in increasing FPR order, from
// (0,0) to (1,1). Threshold[i] is the score cut producing point i; the
// first one is +Inf.
type Curve struct {
	Label     string
	FPR       []float64
	TPR       []float64
	Threshold []float64
	AUC       float64
	// Positives and Negatives count the samples on each side of the
	// one-vs-rest split.
	Positives int
	Negatives int
	// Err is set (and AUC is NaN) when the class has no positives or no
	// negatives.
	Err error
}

func (c Curve) Defined() bool { return c.Err == nil }

// OneHot encodes labels as a len(labels) x classes indicator matrix.
func OneHot(labels []int, classes int) ([][]float64, error) {
	out := make([][]float64, len(labels))
	for i, l := range labels {
		if l < 0 || l >= classes {
			return nil, fmt.Errorf("label %d at row %d outside [0,%d)", l, i, classes)
		}
		row := make([]float64, classes)
		row[l] = 1
		out[i] = row
	}
	return out, nil
}

// Compute sweeps every distinct score as a threshold. A sample is
// predicted positive when its score is >= the threshold.
func Compute(scores []float64, positives []bool) (Curve, error) {
	if len(scores) != len(positives) {
		return Curve{}, fmt.Errorf("%d scores for %d labels", len(scores), len(positives))
	}
	c := Curve{AUC: math.NaN()}
	for i, p := range positives {
		if math.IsNaN(scores[i]) {
			return c, fmt.Errorf("score %d is NaN", i)
		}
		if p {
			c.Positives++
		} else {
			c.Negatives++
		}
	}
	if c.Positives == 0 || c.Negatives == 0 {
		c.Err = fmt.Errorf("%w: %d positive and %d negative samples", ErrUndefinedCurve, c.Positives, c.Negatives)
		return c, c.Err
	}

	// stat.ROC wants scores ascending and reorders its inputs.
	y := append([]float64(nil), scores...)
	classes := append([]bool(nil), positives...)
	stat.SortWeightedLabeled(y, classes, nil)
	c.TPR, c.FPR, c.Threshold = stat.ROC(nil, y, classes, nil)
	c.AUC = integrate.Trapezoidal(c.FPR, c.TPR)
	return c, nil
}

// MultiClass computes one curve per column of pred against the matching
// one-hot column. Classes without positives or negatives come back with
// Err set instead of failing the whole set.
func MultiClass(pred, onehot [][]float64, labels []string) ([]Curve, error) {
	if len(pred) != len(onehot) {
		return nil, fmt.Errorf("%d prediction rows for %d ground truth rows", len(pred), len(onehot))
	}
	if len(pred) == 0 {
		return nil, errors.New("no predictions")
	}
	k := len(labels)
	for i := range pred {
		if len(pred[i]) != k || len(onehot[i]) != k {
			return nil, fmt.Errorf("row %d: want %d columns, got %d predictions and %d labels",
				i, k, len(pred[i]), len(onehot[i]))
		}
	}

	curves := make([]Curve, k)
	scores := make([]float64, len(pred))
	positives := make([]bool, len(pred))
	for j := 0; j < k; j++ {
		for i := range pred {
			scores[i] = pred[i][j]
			positives[i] = onehot[i][j] == 1
		}
		c, err := Compute(scores, positives)
		if err != nil && !errors.Is(err, ErrUndefinedCurve) {
			return nil, fmt.Errorf("class %q: %w", labels[j], err)
		}
		c.Label = labels[j]
		curves[j] = c
	}
	return curves, nil
}

// MacroAUC averages the AUC of the defined curves; NaN if there are none.
func MacroAUC(curves []Curve) float64 {
	var sum float64
	var n int
	for _, c := range curves {
		if c.Defined() {
			sum += c.AUC
			n++
		}
	}
	if n == 0 {
		return math.NaN()
	}
	return sum / float64(n)
}
