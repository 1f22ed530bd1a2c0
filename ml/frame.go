package ml

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Frame is a small column-major table of float64 columns. Vector columns
// (assembled features) are stored separately as dense row-major matrices.
type Frame struct {
	names   []string
	columns [][]float64
	vectors map[string]*mat.Dense
	rows    int
}

// NewFrame builds a frame from equally sized columns.
func NewFrame(names []string, columns [][]float64) (*Frame, error) {
	if len(names) != len(columns) {
		return nil, fmt.Errorf("%w: %d names for %d columns", ErrLengthMismatch, len(names), len(columns))
	}
	rows := 0
	if len(columns) > 0 {
		rows = len(columns[0])
	}
	for i, col := range columns {
		if len(col) != rows {
			return nil, fmt.Errorf("%w: column %s has %d rows, want %d", ErrLengthMismatch, names[i], len(col), rows)
		}
	}
	return &Frame{
		names:   append([]string(nil), names...),
		columns: append([][]float64(nil), columns...),
		vectors: map[string]*mat.Dense{},
		rows:    rows,
	}, nil
}

func (f *Frame) Len() int { return f.rows }

// Columns returns the scalar column names in order.
func (f *Frame) Columns() []string {
	return append([]string(nil), f.names...)
}

func (f *Frame) Column(name string) ([]float64, error) {
	for i, n := range f.names {
		if n == name {
			return f.columns[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrColumnNotFound, name)
}

// WithColumn returns a frame where the named column is replaced, or appended
// when it does not exist yet. The receiver is left untouched.
func (f *Frame) WithColumn(name string, values []float64) (*Frame, error) {
	if len(values) != f.rows {
		return nil, fmt.Errorf("%w: column %s has %d rows, want %d", ErrLengthMismatch, name, len(values), f.rows)
	}
	next := f.clone()
	for i, n := range next.names {
		if n == name {
			next.columns[i] = values
			return next, nil
		}
	}
	next.names = append(next.names, name)
	next.columns = append(next.columns, values)
	return next, nil
}

// WithVector attaches a vector column with one matrix row per frame row.
func (f *Frame) WithVector(name string, m *mat.Dense) (*Frame, error) {
	r, _ := m.Dims()
	if r != f.rows {
		return nil, fmt.Errorf("%w: vector %s has %d rows, want %d", ErrLengthMismatch, name, r, f.rows)
	}
	next := f.clone()
	next.vectors[name] = m
	return next, nil
}

func (f *Frame) Vector(name string) (*mat.Dense, error) {
	m, ok := f.vectors[name]
	if !ok {
		return nil, fmt.Errorf("%w: vector %s", ErrColumnNotFound, name)
	}
	return m, nil
}

func (f *Frame) clone() *Frame {
	vectors := make(map[string]*mat.Dense, len(f.vectors))
	for k, v := range f.vectors {
		vectors[k] = v
	}
	return &Frame{
		names:   append([]string(nil), f.names...),
		columns: append([][]float64(nil), f.columns...),
		vectors: vectors,
		rows:    f.rows,
	}
}
