package utils

import (
	"fmt"

	"gonum.org/v1/gonum/blas/blas64"
	"gonum.org/v1/gonum/mat"
)

// Matrix is the local dense storage leaf, backed by the gonum raw
// representation: a row-major blas64.General with an explicit leading
// dimension (stride between consecutive rows). A Matrix either owns its
// buffer or views memory owned elsewhere; a locked view additionally rejects
// mutation. A Matrix never communicates. Whole-block operations run through
// *mat.Dense on the same buffer, so a swapped-in BLAS implementation
// (lapack_cgo.go) accelerates them.
type Matrix struct {
	raw     blas64.General
	viewing bool // buffer owned by the caller; Resize is rejected
	locked  bool // read-only; Set and Data are rejected
}

func NewMatrix(nr, nc int, dataO ...[]float64) (R Matrix) {
	var (
		ldim = nc
		data []float64
	)
	if ldim < 1 {
		ldim = 1
	}
	if len(dataO) != 0 {
		data = dataO[0]
		if len(data) != nr*nc {
			err := fmt.Errorf("mismatch in allocation: NewMatrix nr,nc = %v,%v, len(data[0]) = %v", nr, nc, len(dataO[0]))
			panic(err)
		}
	} else {
		data = make([]float64, nr*nc)
	}
	R = Matrix{
		raw: blas64.General{
			Rows:   nr,
			Cols:   nc,
			Stride: ldim,
			Data:   data,
		},
	}
	return
}

// AttachMatrix binds to an externally owned buffer. The returned Matrix never
// frees the buffer and rejects Resize.
func AttachMatrix(nr, nc, ldim int, data []float64) (R Matrix) {
	checkAttachDims(nr, nc, ldim, len(data))
	R = Matrix{
		raw: blas64.General{
			Rows:   nr,
			Cols:   nc,
			Stride: ldim,
			Data:   data,
		},
		viewing: true,
	}
	return
}

// LockedAttachMatrix is AttachMatrix with mutation rejected as well.
func LockedAttachMatrix(nr, nc, ldim int, data []float64) (R Matrix) {
	R = AttachMatrix(nr, nc, ldim, data)
	R.locked = true
	return
}

func checkAttachDims(nr, nc, ldim, dataLen int) {
	if ldim < nc || ldim < 1 {
		panic(fmt.Errorf("attach: leading dimension %d too small for width %d", ldim, nc))
	}
	if nr > 0 && nc > 0 && dataLen < (nr-1)*ldim+nc {
		panic(fmt.Errorf("attach: buffer length %d too small for %d x %d with ldim %d",
			dataLen, nr, nc, ldim))
	}
}

func (m Matrix) Dims() (nr, nc int) { return m.raw.Rows, m.raw.Cols }
func (m Matrix) LDim() int          { return m.raw.Stride }
func (m Matrix) IsView() bool       { return m.viewing }
func (m Matrix) IsLocked() bool     { return m.locked }

func (m Matrix) At(i, j int) float64 {
	m.checkBounds(i, j)
	return m.raw.Data[i*m.raw.Stride+j]
}

func (m Matrix) Set(i, j int, val float64) Matrix { // Changes receiver
	m.checkWritable()
	m.checkBounds(i, j)
	m.raw.Data[i*m.raw.Stride+j] = val
	return m
}

func (m Matrix) Update(i, j int, add float64) Matrix { // Changes receiver
	m.checkWritable()
	m.checkBounds(i, j)
	m.raw.Data[i*m.raw.Stride+j] += add
	return m
}

// Data exposes the backing buffer for mutation, eg. by pack/unpack loops.
func (m Matrix) Data() []float64 {
	m.checkWritable()
	return m.raw.Data
}

// LockedData exposes the backing buffer read-only.
func (m Matrix) LockedData() []float64 {
	return m.raw.Data
}

// Resize reallocates storage for the new dimensions, zero filled. An optional
// leading dimension may be supplied; it defaults to the new width. Resizing a
// view is a caller error.
func (m *Matrix) Resize(nr, nc int, ldimO ...int) {
	if m.viewing {
		panic(fmt.Errorf("resize of a %d x %d matrix view", m.raw.Rows, m.raw.Cols))
	}
	var (
		ldim = nc
	)
	if len(ldimO) != 0 {
		ldim = ldimO[0]
	}
	if ldim < nc {
		panic(fmt.Errorf("resize: leading dimension %d too small for width %d", ldim, nc))
	}
	if ldim < 1 {
		ldim = 1
	}
	need := 0
	if nr > 0 {
		need = (nr-1)*ldim + nc
	}
	if need > cap(m.raw.Data) {
		m.raw.Data = make([]float64, need)
	} else {
		m.raw.Data = m.raw.Data[:need]
		for i := range m.raw.Data {
			m.raw.Data[i] = 0
		}
	}
	m.raw.Rows, m.raw.Cols, m.raw.Stride = nr, nc, ldim
}

func (m Matrix) Copy() (R Matrix) { // Does not change receiver
	R = NewMatrix(m.raw.Rows, m.raw.Cols)
	if m.raw.Rows > 0 && m.raw.Cols > 0 {
		R.Dense().Copy(m.Dense())
	}
	return
}

func (m Matrix) Transpose() (R Matrix) { // Does not change receiver
	R = NewMatrix(m.raw.Cols, m.raw.Rows)
	if m.raw.Rows > 0 && m.raw.Cols > 0 {
		R.Dense().Copy(m.Dense().T())
	}
	return
}

func (m Matrix) Zero() Matrix { // Changes receiver
	m.checkWritable()
	if m.raw.Rows > 0 && m.raw.Cols > 0 {
		m.Dense().Zero()
	}
	return m
}

// Dense adapts the buffer to a gonum *mat.Dense without copying, preserving
// the leading dimension. The zero-sized case returns an empty Dense.
func (m Matrix) Dense() (D *mat.Dense) {
	D = &mat.Dense{}
	if m.raw.Rows == 0 || m.raw.Cols == 0 {
		return
	}
	D.SetRawMatrix(m.raw)
	return
}

func (m Matrix) checkWritable() {
	if m.locked {
		panic(fmt.Errorf("attempt to write to a locked %d x %d matrix view",
			m.raw.Rows, m.raw.Cols))
	}
}

func (m Matrix) checkBounds(i, j int) {
	if i < 0 || i >= m.raw.Rows || j < 0 || j >= m.raw.Cols {
		panic(fmt.Errorf("index out of bounds: index = %d,%d, max_bounds = %d,%d",
			i, j, m.raw.Rows-1, m.raw.Cols-1))
	}
}
