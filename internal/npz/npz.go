package npz

import (
	"archive/zip"
	"fmt"
	"io"
	"log/slog"
	"strings"

	npyz "github.com/sbinet/npyio/npz"
	"gonum.org/v1/gonum/mat"

	"kaldiark/internal/ark"
	"kaldiark/internal/logging"
)

const memberSuffix = ".npy"

// Writer exports archives as .npz data.
type Writer struct {
	Logger *slog.Logger
}

// Write stores every matrix of a as a "<id>.npy" float64 member, in archive
// order. Empty matrices are written with shape (0, 0).
func (w Writer) Write(dst io.Writer, a *ark.Archive) error {
	logger := w.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	zw := npyz.NewWriter(dst)
	for id, m := range a.All() {
		if err := zw.Write(id+memberSuffix, memberMatrix(m)); err != nil {
			_ = zw.Close()
			return fmt.Errorf("npz: write member %q: %w", id, err)
		}
		logger.Debug("npz member written", logging.String("id", id), logging.Int("rows", m.Rows()), logging.Int("cols", m.Cols()))
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("npz: finalize: %w", err)
	}
	return nil
}

func memberMatrix(m *ark.Matrix) mat.Matrix {
	if m.Rows() == 0 {
		return emptyMatrix{}
	}
	return m.Dense()
}

// emptyMatrix is a 0x0 mat.Matrix; gonum's Dense cannot have zero dimensions.
type emptyMatrix struct{}

func (emptyMatrix) Dims() (int, int) { return 0, 0 }

func (emptyMatrix) At(i, j int) float64 { panic(mat.ErrIndexOutOfRange) }

func (e emptyMatrix) T() mat.Matrix { return e }

// Read loads every .npy member of an .npz into an archive keyed by member
// name without the suffix. Members are taken in ZIP directory order.
func Read(r io.ReaderAt, size int64) (*ark.Archive, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("npz: open: %w", err)
	}
	return readMembers(zr.File)
}

// ReadFile is Read for a path on disk.
func ReadFile(path string) (*ark.Archive, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("npz: open %s: %w", path, err)
	}
	defer zr.Close()
	return readMembers(zr.File)
}

func readMembers(files []*zip.File) (*ark.Archive, error) {
	a := ark.NewArchive()
	for _, f := range files {
		if !strings.HasSuffix(f.Name, memberSuffix) {
			continue
		}
		id := strings.TrimSuffix(f.Name, memberSuffix)
		if a.Has(id) {
			return nil, fmt.Errorf("npz: member %q: %w", f.Name, ark.ErrDuplicateIdentifier)
		}
		m, err := readMember(f)
		if err != nil {
			return nil, fmt.Errorf("npz: member %q: %w", f.Name, err)
		}
		if err := a.Set(id, m); err != nil {
			return nil, fmt.Errorf("npz: member %q: %w", f.Name, err)
		}
	}
	return a, nil
}

func readMember(f *zip.File) (*ark.Matrix, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	rows, cols, data, err := readArray(rc, f.UncompressedSize64)
	if err != nil {
		return nil, err
	}
	return ark.NewMatrixFromData(rows, cols, data)
}
