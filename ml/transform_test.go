package ml

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBinarizeLabel(t *testing.T) {
	frame, err := NewFrame([]string{ColQuality}, [][]float64{{3, 5, 7, 7.5, 8, 9}})
	require.NoError(t, err)

	out, err := BinarizeLabel(frame, ColQuality, 7)
	require.NoError(t, err)

	got, err := out.Column(ColQuality)
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 0, 0, 1, 1, 1}, got)

	original, err := frame.Column(ColQuality)
	require.NoError(t, err)
	assert.Equal(t, []float64{3, 5, 7, 7.5, 8, 9}, original, "input frame must not change")
}

func TestBinarizeLabelMissingColumn(t *testing.T) {
	frame, err := NewFrame([]string{"a"}, [][]float64{{1}})
	require.NoError(t, err)
	_, err = BinarizeLabel(frame, ColQuality, 7)
	assert.ErrorIs(t, err, ErrColumnNotFound)
}

func TestVectorAssemblerUsesColumnOrder(t *testing.T) {
	frame, err := NewFrame([]string{"a", "b", "c"}, [][]float64{{1, 4}, {2, 5}, {3, 6}})
	require.NoError(t, err)

	out, err := VectorAssembler{InputCols: []string{"a", "b"}, OutputCol: "features"}.Transform(frame)
	require.NoError(t, err)

	features, err := out.Vector("features")
	require.NoError(t, err)
	r, c := features.Dims()
	assert.Equal(t, 2, r)
	assert.Equal(t, 2, c)
	assert.Equal(t, []float64{1, 2}, features.RawRowView(0))
	assert.Equal(t, []float64{4, 5}, features.RawRowView(1))
}

func TestVectorAssemblerRejectsNaN(t *testing.T) {
	frame, err := NewFrame([]string{"a"}, [][]float64{{1, math.NaN()}})
	require.NoError(t, err)
	_, err = VectorAssembler{InputCols: []string{"a"}, OutputCol: "features"}.Transform(frame)
	assert.ErrorIs(t, err, ErrInvalidValue)
}

func TestFrameWithColumnLengthMismatch(t *testing.T) {
	frame, err := NewFrame([]string{"a"}, [][]float64{{1, 2}})
	require.NoError(t, err)
	_, err = frame.WithColumn("b", []float64{1})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}
