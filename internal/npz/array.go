package npz

import (
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/sbinet/npyio"
)

var (
	// ErrBadHeader is returned for members that are not valid NPY data.
	ErrBadHeader = errors.New("npz: malformed npy header")
	// ErrUnsupportedDType is returned for element types other than float32/float64.
	ErrUnsupportedDType = errors.New("npz: unsupported dtype")
	// ErrUnsupportedShape is returned for arrays with more than two dimensions
	// or a shape the member cannot hold.
	ErrUnsupportedShape = errors.New("npz: unsupported shape")
)

// readArray decodes one NPY stream of at most limit bytes into row-major
// float64 values. 0-D arrays become 1x1, 1-D arrays a single row, and any
// shape with a zero dimension an empty matrix.
func readArray(r io.Reader, limit uint64) (rows, cols int, data []float64, err error) {
	nr, err := npyio.NewReader(r)
	if err != nil {
		return 0, 0, nil, fmt.Errorf("%w: %v", ErrBadHeader, err)
	}
	descr := nr.Header.Descr

	size, err := elementSize(descr.Type)
	if err != nil {
		return 0, 0, nil, err
	}
	rows, cols, err = matrixShape(descr.Shape)
	if err != nil {
		return 0, 0, nil, err
	}
	if rows == 0 || cols == 0 {
		return 0, 0, nil, nil
	}
	if cols > math.MaxInt/rows || rows*cols > math.MaxInt/size || uint64(rows*cols*size) > limit {
		return 0, 0, nil, fmt.Errorf("%w: %v does not fit in %d bytes", ErrUnsupportedShape, descr.Shape, limit)
	}

	n := rows * cols
	if size == 4 {
		raw := make([]float32, n)
		if err := nr.Read(&raw); err != nil {
			return 0, 0, nil, fmt.Errorf("read npy payload: %w", err)
		}
		data = make([]float64, n)
		for i, v := range raw {
			data[i] = float64(v)
		}
	} else {
		data = make([]float64, n)
		if err := nr.Read(&data); err != nil {
			return 0, 0, nil, fmt.Errorf("read npy payload: %w", err)
		}
	}
	if descr.Fortran && len(descr.Shape) == 2 {
		data = transpose(data, rows, cols)
	}
	return rows, cols, data, nil
}

func elementSize(descr string) (int, error) {
	switch strings.TrimLeft(descr, "<>|=") {
	case "f8":
		return 8, nil
	case "f4":
		return 4, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnsupportedDType, descr)
	}
}

func matrixShape(shape []int) (rows, cols int, err error) {
	for _, d := range shape {
		if d < 0 {
			return 0, 0, fmt.Errorf("%w: %v", ErrUnsupportedShape, shape)
		}
	}
	switch len(shape) {
	case 0:
		return 1, 1, nil
	case 1:
		return 1, shape[0], nil
	case 2:
		return shape[0], shape[1], nil
	default:
		return 0, 0, fmt.Errorf("%w: %d dimensions", ErrUnsupportedShape, len(shape))
	}
}

// transpose converts column-major values of a rows x cols array to row-major.
func transpose(values []float64, rows, cols int) []float64 {
	out := make([]float64, len(values))
	for c := 0; c < cols; c++ {
		for r := 0; r < rows; r++ {
			out[r*cols+c] = values[c*rows+r]
		}
	}
	return out
}
