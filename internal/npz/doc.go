// Package npz exports archives as NumPy .npz files and loads them back.
//
// Each matrix becomes a "<id>.npy" float64 member with shape (rows, cols),
// encoded by github.com/sbinet/npyio from the matrix's gonum view; empty
// matrices are stored with shape (0, 0). Loading accepts float32 and float64
// members in either byte order, C or Fortran order, with 0 to 2 dimensions,
// and rejects headers whose shape does not fit the member payload.
package npz
