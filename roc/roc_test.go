package roc

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOneHot(t *testing.T) {
	m, err := OneHot([]int{2, 0, 1, 2}, 3)
	require.NoError(t, err)
	require.Len(t, m, 4)
	for i, row := range m {
		var ones int
		for _, v := range row {
			if v == 1 {
				ones++
			} else {
				assert.Equal(t, 0.0, v)
			}
		}
		assert.Equal(t, 1, ones, "row %d", i)
	}
	assert.Equal(t, []float64{0, 0, 1}, m[0])

	_, err = OneHot([]int{3}, 3)
	assert.Error(t, err)
	_, err = OneHot([]int{-1}, 3)
	assert.Error(t, err)
}

func TestComputePerfectSeparator(t *testing.T) {
	c, err := Compute(
		[]float64{0.9, 0.1, 0.8, 0.2, 0.95},
		[]bool{true, false, true, false, true},
	)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.AUC, 1e-12)
	assert.Equal(t, 3, c.Positives)
	assert.Equal(t, 2, c.Negatives)
	assert.Equal(t, 0.0, c.FPR[0])
	assert.Equal(t, 0.0, c.TPR[0])
	assert.InDelta(t, 1.0, c.FPR[len(c.FPR)-1], 1e-12)
	assert.InDelta(t, 1.0, c.TPR[len(c.TPR)-1], 1e-12)
	assert.True(t, math.IsInf(c.Threshold[0], 1))
}

func TestComputeInverted(t *testing.T) {
	c, err := Compute([]float64{0.1, 0.9}, []bool{true, false})
	require.NoError(t, err)
	assert.Equal(t, 0.0, c.AUC)
}

func TestComputeConstantScores(t *testing.T) {
	c, err := Compute([]float64{0.5, 0.5, 0.5, 0.5}, []bool{true, false, false, true})
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 1}, c.FPR)
	assert.Equal(t, []float64{0, 1}, c.TPR)
	assert.Equal(t, 0.5, c.AUC)
}

func TestComputeCoinFlip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	n := 20000
	scores := make([]float64, n)
	positives := make([]bool, n)
	for i := range scores {
		scores[i] = rng.Float64()
		positives[i] = rng.Intn(2) == 1
	}
	c, err := Compute(scores, positives)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, c.AUC, 0.02)
}

func TestComputeKnownCurve(t *testing.T) {
	// Two of the four positive/negative pairs are ordered correctly and
	// one is tied: AUC = (2 + 0.5) / 4.
	c, err := Compute([]float64{0.8, 0.4, 0.6, 0.4}, []bool{true, true, false, false})
	require.NoError(t, err)
	assert.InDelta(t, 0.625, c.AUC, 1e-12)
	assert.Equal(t, []float64{0, 0.5, 0.5, 1}, c.TPR)
	assert.Equal(t, []float64{0, 0, 0.5, 1}, c.FPR)
}

func TestComputeDoesNotMutateInput(t *testing.T) {
	scores := []float64{0.3, 0.1, 0.2}
	positives := []bool{true, false, true}
	_, err := Compute(scores, positives)
	require.NoError(t, err)
	assert.Equal(t, []float64{0.3, 0.1, 0.2}, scores)
	assert.Equal(t, []bool{true, false, true}, positives)
}

func TestComputeUndefined(t *testing.T) {
	c, err := Compute([]float64{0.2, 0.4}, []bool{false, false})
	assert.ErrorIs(t, err, ErrUndefinedCurve)
	assert.False(t, c.Defined())
	assert.True(t, math.IsNaN(c.AUC))

	_, err = Compute([]float64{0.2}, []bool{false, true})
	assert.Error(t, err)

	_, err = Compute([]float64{math.NaN(), 0.1}, []bool{true, false})
	assert.Error(t, err)
}

func TestMultiClass(t *testing.T) {
	pred := [][]float64{
		{0.8, 0.1, 0.1},
		{0.7, 0.2, 0.1},
		{0.1, 0.8, 0.1},
		{0.2, 0.6, 0.2},
	}
	onehot, err := OneHot([]int{0, 0, 1, 1}, 3)
	require.NoError(t, err)

	curves, err := MultiClass(pred, onehot, []string{"a", "b", "c"})
	require.NoError(t, err)
	require.Len(t, curves, 3)
	assert.Equal(t, "a", curves[0].Label)
	assert.InDelta(t, 1.0, curves[0].AUC, 1e-12)
	assert.InDelta(t, 1.0, curves[1].AUC, 1e-12)
	assert.ErrorIs(t, curves[2].Err, ErrUndefinedCurve)
	assert.InDelta(t, 1.0, MacroAUC(curves), 1e-12)

	again, err := MultiClass(pred, onehot, []string{"a", "b", "c"})
	require.NoError(t, err)
	for i := range curves {
		assert.Equal(t, curves[i].FPR, again[i].FPR)
		assert.Equal(t, curves[i].TPR, again[i].TPR)
		assert.Equal(t, math.Float64bits(curves[i].AUC), math.Float64bits(again[i].AUC))
	}

	_, err = MultiClass(pred[:2], onehot, []string{"a", "b", "c"})
	assert.Error(t, err)
	_, err = MultiClass(pred, onehot, []string{"a", "b"})
	assert.Error(t, err)
}

func TestMacroAUCNoDefined(t *testing.T) {
	assert.True(t, math.IsNaN(MacroAUC([]Curve{{Err: ErrUndefinedCurve}})))
}
