package dist

import (
	"fmt"

	"github.com/notargets/distmat/comm"
	"github.com/notargets/distmat/utils"
)

// DistMat is a matrix partitioned over a process grid: global dimensions, a
// distribution descriptor, and the local dense block this process owns. One
// concrete type carries every supported layout; the kind pair is runtime
// state and the redistribution entry points dispatch on it.
//
// For MD layouts the Root field holds the owning diagonal path; for Circ
// layouts it holds the owning process's VC rank; otherwise it is zero.
type DistMat struct {
	height, width      int
	colDist, rowDist   Dist
	colAlign, rowAlign int
	colConstrained     bool
	rowConstrained     bool
	root               int
	grid               *Grid

	mat utils.Matrix
}

// NewDistMat creates an empty matrix with the given layout and zero
// alignments.
func NewDistMat(g *Grid, colDist, rowDist Dist) (m *DistMat) {
	m = &DistMat{
		colDist: colDist,
		rowDist: rowDist,
		grid:    g,
		mat:     utils.NewMatrix(0, 0),
	}
	return
}

// NewDistMatWithDims creates and sizes a matrix in one step.
func NewDistMatWithDims(g *Grid, colDist, rowDist Dist, height, width int) (m *DistMat) {
	m = NewDistMat(g, colDist, rowDist)
	m.Resize(height, width)
	return
}

func (m *DistMat) Height() int    { return m.height }
func (m *DistMat) Width() int     { return m.width }
func (m *DistMat) ColDist() Dist  { return m.colDist }
func (m *DistMat) RowDist() Dist  { return m.rowDist }
func (m *DistMat) ColAlign() int  { return m.colAlign }
func (m *DistMat) RowAlign() int  { return m.rowAlign }
func (m *DistMat) Root() int      { return m.root }
func (m *DistMat) Grid() *Grid    { return m.grid }
func (m *DistMat) Viewing() bool  { return m.mat.IsView() }
func (m *DistMat) Locked() bool   { return m.mat.IsLocked() }
func (m *DistMat) ColStride() int { return m.grid.DistSize(m.colDist) }
func (m *DistMat) RowStride() int { return m.grid.DistSize(m.rowDist) }

// ColRank and RowRank are this process's ranks in the two axis distributions.
func (m *DistMat) ColRank() int { return m.grid.DistRank(m.colDist) }
func (m *DistMat) RowRank() int { return m.grid.DistRank(m.rowDist) }

// ColShift is the first global row index stored locally; RowShift likewise
// for columns.
func (m *DistMat) ColShift() int {
	return Shift(m.ColRank(), m.colAlign, m.ColStride())
}

func (m *DistMat) RowShift() int {
	return Shift(m.RowRank(), m.rowAlign, m.RowStride())
}

func (m *DistMat) LocalHeight() int { nr, _ := m.mat.Dims(); return nr }
func (m *DistMat) LocalWidth() int  { _, nc := m.mat.Dims(); return nc }

// Participating reports whether this process holds any of the matrix: false
// off the owning root for Circ layouts and off the owning diagonal path for
// MD layouts.
func (m *DistMat) Participating() bool {
	if m.colDist == Circ || m.rowDist == Circ {
		return m.grid.VCRank() == m.root
	}
	if m.colDist == MD || m.rowDist == MD {
		return m.grid.DiagPath() == m.root
	}
	return true
}

// DistData captures the layout descriptor.
func (m *DistMat) DistData() DistData {
	return DistData{
		ColDist:  m.colDist,
		RowDist:  m.rowDist,
		ColAlign: m.colAlign,
		RowAlign: m.rowAlign,
		Root:     m.root,
		Grid:     m.grid,
	}
}

// Matrix exposes the mutable local block; LockedMatrix the read-only view of
// it.
func (m *DistMat) Matrix() *utils.Matrix { return &m.mat }

func (m *DistMat) LockedMatrix() utils.Matrix { return m.mat }

// Resize sets the global dimensions and reallocates local storage to
// Length(height, colShift, colStride) x Length(width, rowShift, rowStride).
// Resizing a view is a precondition violation; nothing is mutated once a
// violation is detected.
func (m *DistMat) Resize(height, width int, ldimO ...int) {
	if height < 0 || width < 0 {
		preconditionf("resize to %d x %d", height, width)
	}
	if m.mat.IsView() {
		preconditionf("resize of a %d x %d matrix view", m.height, m.width)
	}
	m.height, m.width = height, width
	lh, lw := 0, 0
	if m.Participating() {
		lh = Length(height, m.ColShift(), m.ColStride())
		lw = Length(width, m.RowShift(), m.RowStride())
	}
	m.mat.Resize(lh, lw, ldimO...)
}

// localDimsMatch verifies the distributed-matrix invariant for the current
// local block.
func (m *DistMat) localDimsMatch() bool {
	lh, lw := 0, 0
	if m.Participating() {
		lh = Length(m.height, m.ColShift(), m.ColStride())
		lw = Length(m.width, m.RowShift(), m.RowStride())
	}
	return lh == m.LocalHeight() && lw == m.LocalWidth()
}

// GlobalRow recovers the global row index of a local row; GlobalCol likewise.
func (m *DistMat) GlobalRow(iLocal int) int {
	return GlobalIndex(iLocal, m.ColShift(), m.ColStride())
}

func (m *DistMat) GlobalCol(jLocal int) int {
	return GlobalIndex(jLocal, m.RowShift(), m.RowStride())
}

// RowOwner is the col-distribution rank owning global row i; ColOwner the
// row-distribution rank owning global column j.
func (m *DistMat) RowOwner(i int) int { return Owner(i, m.colAlign, m.ColStride()) }
func (m *DistMat) ColOwner(j int) int { return Owner(j, m.rowAlign, m.RowStride()) }

// IsLocalRow reports whether this process stores global row i.
func (m *DistMat) IsLocalRow(i int) bool {
	return m.Participating() && m.RowOwner(i) == m.ColRank()
}

func (m *DistMat) IsLocalCol(j int) bool {
	return m.Participating() && m.ColOwner(j) == m.RowRank()
}

// LocalRow is the local position of global row i on its owner.
func (m *DistMat) LocalRow(i int) int { return LocalIndex(i, m.ColStride()) }
func (m *DistMat) LocalCol(j int) int { return LocalIndex(j, m.RowStride()) }

func (m *DistMat) GetLocal(iLocal, jLocal int) float64 {
	return m.mat.At(iLocal, jLocal)
}

func (m *DistMat) SetLocal(iLocal, jLocal int, val float64) {
	m.mat.Set(iLocal, jLocal, val)
}

func (m *DistMat) UpdateLocal(iLocal, jLocal int, add float64) {
	m.mat.Update(iLocal, jLocal, add)
}

// Set writes global element (i, j) on every process that stores it; a no-op
// elsewhere. No communication.
func (m *DistMat) Set(i, j int, val float64) {
	m.checkIndex(i, j)
	if m.IsLocalRow(i) && m.IsLocalCol(j) {
		m.mat.Set(m.LocalRow(i), m.LocalCol(j), val)
	}
}

// Update adds to global element (i, j) on every process that stores it.
func (m *DistMat) Update(i, j int, add float64) {
	m.checkIndex(i, j)
	if m.IsLocalRow(i) && m.IsLocalCol(j) {
		m.mat.Update(m.LocalRow(i), m.LocalCol(j), add)
	}
}

// Get returns global element (i, j) on every process. Collective: the owner
// broadcasts over the grid unless every process already holds a replica.
func (m *DistMat) Get(i, j int) float64 {
	m.checkIndex(i, j)
	owner := m.ownerVCRank(i, j)
	if m.RedundantComm().Size() == m.grid.Size() {
		// Fully replicated; purely local.
		return m.mat.At(m.LocalRow(i), m.LocalCol(j))
	}
	var send []float64
	if m.grid.VCRank() == owner {
		send = []float64{m.mat.At(m.LocalRow(i), m.LocalCol(j))}
	}
	recv := m.grid.VCComm().Broadcast(send, owner)
	return recv[0]
}

// ownerVCRank locates one process holding global element (i, j).
func (m *DistMat) ownerVCRank(i, j int) int {
	var (
		g = m.grid
	)
	switch {
	case m.colDist == Circ || m.rowDist == Circ:
		return m.root
	case m.colDist == MD || m.rowDist == MD:
		var k int
		if m.colDist == MD {
			k = Owner(i, m.colAlign, m.ColStride())
		} else {
			k = Owner(j, m.rowAlign, m.RowStride())
		}
		row := k % g.Height()
		col := mod(k+m.root, g.Width())
		return row + col*g.Height()
	}
	row, col := 0, 0
	switch m.colDist {
	case MC:
		row = Owner(i, m.colAlign, g.Height())
	case MR:
		col = Owner(i, m.colAlign, g.Width())
	case VC:
		return Owner(i, m.colAlign, g.Size())
	case VR:
		return g.VRToVC(Owner(i, m.colAlign, g.Size()))
	}
	switch m.rowDist {
	case MC:
		row = Owner(j, m.rowAlign, g.Height())
	case MR:
		col = Owner(j, m.rowAlign, g.Width())
	case VC:
		return Owner(j, m.rowAlign, g.Size())
	case VR:
		return g.VRToVC(Owner(j, m.rowAlign, g.Size()))
	}
	return row + col*g.Height()
}

// DistComm, RedundantComm and CrossComm are the grid groups this layout
// distributes over, replicates over, and roots over.
func (m *DistMat) DistComm() *comm.Comm {
	return m.grid.DistComm(m.colDist, m.rowDist)
}

func (m *DistMat) RedundantComm() *comm.Comm {
	return m.grid.RedundantComm(m.colDist, m.rowDist)
}

func (m *DistMat) CrossComm() *comm.Comm {
	return m.grid.CrossComm(m.colDist, m.rowDist)
}

func (m *DistMat) checkIndex(i, j int) {
	if i < 0 || i >= m.height || j < 0 || j >= m.width {
		preconditionf("global index (%d,%d) out of bounds for %d x %d matrix",
			i, j, m.height, m.width)
	}
}

// String describes the layout for diagnostics.
func (m *DistMat) String() string {
	return fmt.Sprintf("%d x %d [%v,%v] align (%d,%d) root %d on %d x %d grid",
		m.height, m.width, m.colDist, m.rowDist, m.colAlign, m.rowAlign,
		m.root, m.grid.Height(), m.grid.Width())
}
