package ml

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestF1ScoreSingleRowSingleClass(t *testing.T) {
	f1, err := F1Score([]float64{0}, []float64{0}, AverageWeighted)
	require.NoError(t, err)
	assert.Equal(t, 1.0, f1)
}

func TestF1ScoreWeighted(t *testing.T) {
	labels := []float64{0, 0, 0, 1}
	preds := []float64{0, 0, 1, 1}

	// class 0: p=1 r=2/3 f1=0.8; class 1: p=0.5 r=1 f1=2/3
	f1, err := F1Score(labels, preds, AverageWeighted)
	require.NoError(t, err)
	assert.InDelta(t, 0.75*0.8+0.25*(2.0/3.0), f1, 1e-12)

	macro, err := F1Score(labels, preds, AverageMacro)
	require.NoError(t, err)
	assert.InDelta(t, (0.8+2.0/3.0)/2, macro, 1e-12)

	binary, err := F1Score(labels, preds, AverageBinary)
	require.NoError(t, err)
	assert.InDelta(t, 2.0/3.0, binary, 1e-12)
}

func TestF1ScoreAllWrong(t *testing.T) {
	f1, err := F1Score([]float64{0, 1}, []float64{1, 0}, AverageWeighted)
	require.NoError(t, err)
	assert.Equal(t, 0.0, f1)
}

func TestF1ScoreErrors(t *testing.T) {
	_, err := F1Score(nil, nil, AverageWeighted)
	assert.ErrorIs(t, err, ErrEmptyDataset)

	_, err = F1Score([]float64{1}, []float64{1, 0}, AverageWeighted)
	assert.ErrorIs(t, err, ErrLengthMismatch)

	_, err = F1Score([]float64{1}, []float64{1}, "micro-ish")
	assert.ErrorIs(t, err, ErrUnknownAverage)
}

func TestMulticlassEvaluatorReadsColumns(t *testing.T) {
	frame, err := NewFrame([]string{ColQuality, "prediction"}, [][]float64{{0, 1, 1}, {0, 1, 0}})
	require.NoError(t, err)

	f1, err := MulticlassEvaluator{LabelCol: ColQuality, PredictionCol: "prediction"}.Evaluate(frame)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, f1, 0.0)
	assert.LessOrEqual(t, f1, 1.0)
}

func TestNormalizeAverage(t *testing.T) {
	avg, err := NormalizeAverage("")
	require.NoError(t, err)
	assert.Equal(t, AverageWeighted, avg)

	avg, err = NormalizeAverage(" MACRO ")
	require.NoError(t, err)
	assert.Equal(t, AverageMacro, avg)
}
