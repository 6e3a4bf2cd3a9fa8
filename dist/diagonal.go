package dist

// Diagonal access for [MC,MR] matrices. The owners of an offset diagonal
// form one diagonal path of the grid, so the diagonal itself is naturally an
// [MD,*] column vector rooted at that path. With the vector aligned to the
// diagonal every transfer is local: each process reads or writes only the
// diagonal entries it already owns.

// DiagonalLength is the number of entries on the offset diagonal. Offset 0
// is the main diagonal, positive offsets sit above it, negative below.
func (m *DistMat) DiagonalLength(offset int) int {
	var (
		h = m.height - max(-offset, 0)
		w = m.width - max(offset, 0)
	)
	return max(min(h, w), 0)
}

// DiagonalRoot is the diagonal path owning the offset diagonal.
func (m *DistMat) DiagonalRoot(offset int) int {
	m.checkDiagonalLayout()
	var (
		g        = m.grid
		ownerRow = Owner(max(-offset, 0), m.colAlign, g.Height())
		ownerCol = Owner(max(offset, 0), m.rowAlign, g.Width())
	)
	return g.DiagPathOf(ownerRow, ownerCol)
}

// DiagonalAlign is the path position of the offset diagonal's first entry.
func (m *DistMat) DiagonalAlign(offset int) int {
	m.checkDiagonalLayout()
	var (
		g        = m.grid
		ownerRow = Owner(max(-offset, 0), m.colAlign, g.Height())
		ownerCol = Owner(max(offset, 0), m.rowAlign, g.Width())
	)
	return g.DiagPathRankOf(ownerRow, ownerCol)
}

// AlignedWithDiagonal reports whether the [MD,*] vector d sits exactly on
// m's offset diagonal, making diagonal transfers communication-free.
func (m *DistMat) AlignedWithDiagonal(d *DistMat, offset int) bool {
	m.checkDiagonalLayout()
	if d.colDist != MD || d.rowDist != Star {
		return false
	}
	return d.root == m.DiagonalRoot(offset) && d.colAlign == m.DiagonalAlign(offset)
}

// AlignWithDiagonal constrains the [MD,*] vector d onto m's offset diagonal.
func (m *DistMat) AlignWithDiagonal(d *DistMat, offset int) {
	m.checkDiagonalLayout()
	assertSameGrids(m, d)
	if d.colDist != MD || d.rowDist != Star {
		preconditionf("diagonal alignment requires an [MD,*] vector, have [%v,%v]",
			d.colDist, d.rowDist)
	}
	d.SetRoot(m.DiagonalRoot(offset))
	d.AlignCols(m.DiagonalAlign(offset), true)
}

// GetDiagonal extracts the offset diagonal into a fresh [MD,*] column
// vector aligned with it. Zero communication.
func (m *DistMat) GetDiagonal(offset int) (d *DistMat) {
	m.checkDiagonalLayout()
	d = NewDistMat(m.grid, MD, Star)
	m.AlignWithDiagonal(d, offset)
	d.Resize(m.DiagonalLength(offset), 1)
	if !d.Participating() {
		return
	}
	var (
		iOff   = max(-offset, 0)
		jOff   = max(offset, 0)
		stride = m.grid.LCM()
		dShift = d.ColShift()
	)
	for k := 0; k < d.LocalHeight(); k++ {
		kg := dShift + k*stride
		d.mat.Set(k, 0, m.GetLocal(m.LocalRow(kg+iOff), m.LocalCol(kg+jOff)))
	}
	return
}

// SetDiagonal overwrites the offset diagonal from a [MD,*] column vector,
// which must be aligned with the diagonal. Zero communication.
func (m *DistMat) SetDiagonal(d *DistMat, offset int) {
	m.checkDiagonalLayout()
	assertSameGrids(m, d)
	assertNotLocked(m)
	if !m.AlignedWithDiagonal(d, offset) {
		preconditionf("diagonal source not aligned with the offset %d diagonal", offset)
	}
	if d.height != m.DiagonalLength(offset) || d.width != 1 {
		preconditionf("diagonal source is %d x %d, want %d x 1",
			d.height, d.width, m.DiagonalLength(offset))
	}
	if !d.Participating() {
		return
	}
	var (
		iOff   = max(-offset, 0)
		jOff   = max(offset, 0)
		stride = m.grid.LCM()
		dShift = d.ColShift()
	)
	for k := 0; k < d.LocalHeight(); k++ {
		kg := dShift + k*stride
		m.SetLocal(m.LocalRow(kg+iOff), m.LocalCol(kg+jOff), d.mat.At(k, 0))
	}
}

func (m *DistMat) checkDiagonalLayout() {
	if m.colDist != MC || m.rowDist != MR {
		preconditionf("diagonal access requires an [MC,MR] layout, have [%v,%v]",
			m.colDist, m.rowDist)
	}
}
