package dist

import "github.com/notargets/distmat/utils"

// The alignment family adopts another layout's alignments where the axis
// kinds are compatible: an exact kind match or its partial relative adopts
// the alignment directly, a scattered (cyclic-vector) relative adopts it
// modulo this matrix's stride, and a replicated or single-owner axis imposes
// no constraint. Anything else is a nonsensical alignment unless the caller
// allows the mismatch.

func (m *DistMat) ColConstrained() bool { return m.colConstrained }
func (m *DistMat) RowConstrained() bool { return m.rowConstrained }

// FreeAlignments releases both alignment constraints.
func (m *DistMat) FreeAlignments() {
	m.colConstrained = false
	m.rowConstrained = false
}

// AlignCols sets the column-axis alignment. Changing the alignment of a
// non-empty matrix empties it first; realigning a view is a precondition
// violation.
func (m *DistMat) AlignCols(align int, constrain bool) {
	if align < 0 || align >= m.ColStride() {
		preconditionf("column alignment %d out of range [0,%d)", align, m.ColStride())
	}
	if align != m.colAlign {
		if m.mat.IsView() {
			preconditionf("realignment of a matrix view")
		}
		m.empty()
		m.colAlign = align
	}
	if constrain {
		m.colConstrained = true
	}
}

// AlignRows sets the row-axis alignment, with the same rules as AlignCols.
func (m *DistMat) AlignRows(align int, constrain bool) {
	if align < 0 || align >= m.RowStride() {
		preconditionf("row alignment %d out of range [0,%d)", align, m.RowStride())
	}
	if align != m.rowAlign {
		if m.mat.IsView() {
			preconditionf("realignment of a matrix view")
		}
		m.empty()
		m.rowAlign = align
	}
	if constrain {
		m.rowConstrained = true
	}
}

// Align sets both alignments.
func (m *DistMat) Align(colAlign, rowAlign int, constrain bool) {
	m.AlignCols(colAlign, constrain)
	m.AlignRows(rowAlign, constrain)
}

// SetRoot changes the owning root (VC rank for Circ, diagonal path for MD).
func (m *DistMat) SetRoot(root int) {
	max := 1
	switch {
	case m.colDist == Circ || m.rowDist == Circ:
		max = m.grid.Size()
	case m.colDist == MD || m.rowDist == MD:
		max = m.grid.GCD()
	}
	if root < 0 || root >= max {
		preconditionf("root %d out of range [0,%d)", root, max)
	}
	if root != m.root {
		if m.mat.IsView() {
			preconditionf("changing the root of a matrix view")
		}
		m.empty()
		m.root = root
	}
}

// AlignColsWith adopts a compatible column alignment from the descriptor.
func (m *DistMat) AlignColsWith(data DistData, constrain, allowMismatch bool) {
	assertSameGridData(m, data)
	m.adoptRoot(data)
	U := m.colDist
	switch {
	case data.ColDist == U || data.ColDist == Partial(U):
		m.AlignCols(data.ColAlign, constrain)
	case data.RowDist == U || data.RowDist == Partial(U):
		m.AlignCols(data.RowAlign, constrain)
	case data.ColDist == Scattered(U):
		m.AlignCols(data.ColAlign%m.ColStride(), constrain)
	case data.RowDist == Scattered(U):
		m.AlignCols(data.RowAlign%m.ColStride(), constrain)
	default:
		if U != Star && U != Circ &&
			data.ColDist != Star && data.RowDist != Star &&
			data.ColDist != Circ && data.RowDist != Circ &&
			!allowMismatch {
			preconditionf("nonsensical alignment: [%v,%v] columns with [%v,%v]",
				m.colDist, m.rowDist, data.ColDist, data.RowDist)
		}
	}
}

// AlignRowsWith adopts a compatible row alignment from the descriptor.
func (m *DistMat) AlignRowsWith(data DistData, constrain, allowMismatch bool) {
	assertSameGridData(m, data)
	m.adoptRoot(data)
	V := m.rowDist
	switch {
	case data.ColDist == V || data.ColDist == Partial(V):
		m.AlignRows(data.ColAlign, constrain)
	case data.RowDist == V || data.RowDist == Partial(V):
		m.AlignRows(data.RowAlign, constrain)
	case data.ColDist == Scattered(V):
		m.AlignRows(data.ColAlign%m.RowStride(), constrain)
	case data.RowDist == Scattered(V):
		m.AlignRows(data.RowAlign%m.RowStride(), constrain)
	default:
		if V != Star && V != Circ &&
			data.ColDist != Star && data.RowDist != Star &&
			data.ColDist != Circ && data.RowDist != Circ &&
			!allowMismatch {
			preconditionf("nonsensical alignment: [%v,%v] rows with [%v,%v]",
				m.colDist, m.rowDist, data.ColDist, data.RowDist)
		}
	}
}

// adoptRoot carries a rooted descriptor's root over when this matrix has a
// rooted axis of its own.
func (m *DistMat) adoptRoot(data DistData) {
	sourceRooted := data.ColDist == Circ || data.RowDist == Circ ||
		data.ColDist == MD || data.RowDist == MD
	selfRooted := m.colDist == Circ || m.rowDist == Circ ||
		m.colDist == MD || m.rowDist == MD
	if sourceRooted && selfRooted {
		m.SetRoot(data.Root)
	}
}

// AlignWith adopts both alignments.
func (m *DistMat) AlignWith(data DistData, constrain, allowMismatch bool) {
	m.AlignColsWith(data, constrain, allowMismatch)
	m.AlignRowsWith(data, constrain, allowMismatch)
}

func (m *DistMat) empty() {
	m.height, m.width = 0, 0
	m.mat.Resize(0, 0)
}

// Attach binds the matrix to externally owned memory holding this process's
// local block, row-major with the given leading dimension. The matrix never
// frees the buffer and a later Resize is a precondition violation.
func (m *DistMat) Attach(height, width, colAlign, rowAlign, root int,
	buf []float64, ldim int, g *Grid) {
	m.attach(height, width, colAlign, rowAlign, root, buf, ldim, g, false)
}

// LockedAttach is Attach with mutation through the view rejected as well.
func (m *DistMat) LockedAttach(height, width, colAlign, rowAlign, root int,
	buf []float64, ldim int, g *Grid) {
	m.attach(height, width, colAlign, rowAlign, root, buf, ldim, g, true)
}

func (m *DistMat) attach(height, width, colAlign, rowAlign, root int,
	buf []float64, ldim int, g *Grid, locked bool) {
	// Validate everything up front: after a violation the receiver must be
	// exactly as it was.
	var (
		cs = g.DistSize(m.colDist)
		rs = g.DistSize(m.rowDist)
	)
	if colAlign < 0 || colAlign >= cs || rowAlign < 0 || rowAlign >= rs {
		preconditionf("attach: alignment (%d,%d) out of range for strides (%d,%d)",
			colAlign, rowAlign, cs, rs)
	}
	rootMax := 1
	switch {
	case m.colDist == Circ || m.rowDist == Circ:
		rootMax = g.Size()
	case m.colDist == MD || m.rowDist == MD:
		rootMax = g.GCD()
	}
	if root < 0 || root >= rootMax {
		preconditionf("attach: root %d out of range [0,%d)", root, rootMax)
	}
	m.grid = g
	m.colAlign, m.rowAlign = colAlign, rowAlign
	m.colConstrained, m.rowConstrained = true, true
	m.root = root
	m.height, m.width = height, width
	lh, lw := 0, 0
	if m.Participating() {
		lh = Length(height, m.ColShift(), m.ColStride())
		lw = Length(width, m.RowShift(), m.RowStride())
	}
	if locked {
		m.mat = utils.LockedAttachMatrix(lh, lw, ldim, buf)
	} else {
		m.mat = utils.AttachMatrix(lh, lw, ldim, buf)
	}
}

// shallowSwap exchanges all state between two matrices, buffers included.
// A metadata-level swap: no element data is copied.
func shallowSwap(a, b *DistMat) {
	*a, *b = *b, *a
}
