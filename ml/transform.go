package ml

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// BinarizeLabel rewrites col in place of the frame: values strictly greater
// than threshold become 1, everything else 0.
func BinarizeLabel(f *Frame, col string, threshold float64) (*Frame, error) {
	values, err := f.Column(col)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(values))
	for i, v := range values {
		if v > threshold {
			out[i] = 1
		}
	}
	return f.WithColumn(col, out)
}

// VectorAssembler packs scalar columns into one feature vector per row.
type VectorAssembler struct {
	InputCols []string
	OutputCol string
}

// Transform attaches OutputCol as a rows x len(InputCols) matrix. Non-finite
// values are rejected.
func (a VectorAssembler) Transform(f *Frame) (*Frame, error) {
	if len(a.InputCols) == 0 {
		return nil, fmt.Errorf("%w: assembler has no input columns", ErrColumnNotFound)
	}
	cols := make([][]float64, len(a.InputCols))
	for j, name := range a.InputCols {
		col, err := f.Column(name)
		if err != nil {
			return nil, err
		}
		cols[j] = col
	}

	rows := f.Len()
	data := make([]float64, rows*len(cols))
	for i := 0; i < rows; i++ {
		for j, col := range cols {
			v := col[i]
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%w: row %d column %s is %v", ErrInvalidValue, i+1, a.InputCols[j], v)
			}
			data[i*len(cols)+j] = v
		}
	}
	if rows == 0 {
		return nil, ErrEmptyDataset
	}
	return f.WithVector(a.OutputCol, mat.NewDense(rows, len(cols), data))
}
