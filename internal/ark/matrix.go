package ark

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major matrix of float64 values. A matrix may have
// zero rows, in which case it also has zero columns.
type Matrix struct {
	rows int
	cols int
	data []float64
}

// NewMatrix builds a matrix from row slices. Every row must have the same
// non-zero width. The values are copied.
func NewMatrix(rows [][]float64) (*Matrix, error) {
	if len(rows) == 0 {
		return &Matrix{}, nil
	}
	cols := len(rows[0])
	if cols == 0 {
		return nil, ErrEmptyRow
	}
	data := make([]float64, 0, len(rows)*cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInconsistentRowWidth, i, len(row), cols)
		}
		data = append(data, row...)
	}
	return &Matrix{rows: len(rows), cols: cols, data: data}, nil
}

// NewMatrixFromData wraps row-major data of the given shape without copying.
func NewMatrixFromData(rows, cols int, data []float64) (*Matrix, error) {
	if rows < 0 || cols < 0 || (cols != 0 && rows > math.MaxInt/cols) {
		return nil, fmt.Errorf("ark: invalid shape %dx%d", rows, cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("ark: data length %d does not match shape %dx%d", len(data), rows, cols)
	}
	if rows > 0 && cols == 0 {
		return nil, ErrEmptyRow
	}
	if rows == 0 {
		return &Matrix{}, nil
	}
	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

// Rows returns the number of rows.
func (m *Matrix) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Matrix) Cols() int { return m.cols }

// At returns the value at row i, column j. It panics when out of range.
func (m *Matrix) At(i, j int) float64 {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("ark: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
	return m.data[i*m.cols+j]
}

// Row returns row i as a slice aliasing the matrix storage.
func (m *Matrix) Row(i int) []float64 {
	return m.data[i*m.cols : (i+1)*m.cols : (i+1)*m.cols]
}

// Data returns the row-major backing slice.
func (m *Matrix) Data() []float64 { return m.data }

// Equal reports whether both matrices have the same shape and bitwise
// identical values.
func (m *Matrix) Equal(other *Matrix) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.rows != other.rows || m.cols != other.cols {
		return false
	}
	for i, v := range m.data {
		if math.Float64bits(v) != math.Float64bits(other.data[i]) {
			return false
		}
	}
	return true
}

// Dense converts the matrix to a gonum dense matrix sharing no storage.
// It returns nil for an empty matrix since gonum rejects zero dimensions.
func (m *Matrix) Dense() *mat.Dense {
	if m.rows == 0 {
		return nil
	}
	data := make([]float64, len(m.data))
	copy(data, m.data)
	return mat.NewDense(m.rows, m.cols, data)
}
