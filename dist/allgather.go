package dist

import "github.com/notargets/distmat/comm"

// The gather-all family removes a partitioned axis: each process contributes
// its local block, a gather-all collective over the axis communicator leaves
// every participant holding the concatenation ordered by grid coordinate,
// and a strided unpack interleaves the pieces into place.

// colAllGather turns [U,V] into [*,V] for U in {MC, MR, VC, VR}.
func colAllGather(B, A *DistMat) {
	if A.rowDist != Star && B.rowAlign != A.rowAlign {
		preconditionf("unaligned column all-gather not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	var (
		c      = A.grid.DistComm(A.colDist, Star)
		stride = A.ColStride()
		h      = A.height
		lw     = A.LocalWidth()
	)
	parts := c.AllGather(packLocal(A))
	for k, part := range parts {
		shift := Shift(k, A.colAlign, stride)
		lh := Length(h, shift, stride)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, part), 0, 1, 0, 1,
			B.mat, shift, stride, 0, 1, lh, lw)
	}
}

// rowAllGather turns [U,V] into [U,*] for V in {MC, MR, VC, VR}.
func rowAllGather(B, A *DistMat) {
	if A.colDist != Star && B.colAlign != A.colAlign {
		preconditionf("unaligned row all-gather not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	var (
		c      = A.grid.DistComm(Star, A.rowDist)
		stride = A.RowStride()
		w      = A.width
		lh     = A.LocalHeight()
	)
	parts := c.AllGather(packLocal(A))
	for k, part := range parts {
		shift := Shift(k, A.rowAlign, stride)
		lw := Length(w, shift, stride)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, part), 0, 1, 0, 1,
			B.mat, 0, 1, shift, stride, lh, lw)
	}
}

// allGather removes both axes of [MC,MR] or [MR,MC] in one collective over
// the full grid.
func allGather(B, A *DistMat) {
	var (
		c  = A.DistComm()
		cs = A.ColStride()
		rs = A.RowStride()
		h  = A.height
		w  = A.width
	)
	parts := c.AllGather(packLocal(A))
	for q, part := range parts {
		var (
			rowShift = Shift(q%cs, A.colAlign, cs)
			colShift = Shift(q/cs, A.rowAlign, rs)
			lh       = Length(h, rowShift, cs)
			lw       = Length(w, colShift, rs)
		)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, part), 0, 1, 0, 1,
			B.mat, rowShift, cs, colShift, rs, lh, lw)
	}
}

// partialUnionComm is the sub-communicator spanning the grid dimension a
// cyclic-vector kind folds away when reduced to its partial relative, plus
// the partial stride and this process's rank under the partial kind.
func partialUnionComm(A *DistMat, vec Dist) (union *comm.Comm, partStride, partRank int) {
	g := A.grid
	switch vec {
	case VC:
		return g.RowComm(), g.Height(), g.Row()
	case VR:
		return g.ColComm(), g.Width(), g.Col()
	}
	preconditionf("no partial relative for %v", vec)
	return nil, 0, 0
}

// partialColAllGather turns [VC,*] into [MC,*] (and [VR,*] into [MR,*]):
// the same gather restricted to one physical grid dimension, cutting
// communication volume by the other dimension's stride.
func partialColAllGather(B, A *DistMat) {
	union, part, partRank := partialUnionComm(A, A.colDist)
	if B.colAlign != A.colAlign%B.ColStride() {
		preconditionf("unaligned partial column all-gather not implemented: "+
			"align %d vs %d mod %d", B.colAlign, A.colAlign, B.ColStride())
	}
	var (
		p      = A.ColStride()
		uSize  = p / part
		h      = A.height
		lw     = A.LocalWidth()
		bShift = B.ColShift()
	)
	parts := union.AllGather(packLocal(A))
	for k, buf := range parts {
		var (
			vecRank = partRank + k*part
			shift   = Shift(vecRank, A.colAlign, p)
			lh      = Length(h, shift, p)
			off     = (shift - bShift) / part
		)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, buf), 0, 1, 0, 1,
			B.mat, off, uSize, 0, 1, lh, lw)
	}
}

// partialRowAllGather turns [*,VC] into [*,MC] (and [*,VR] into [*,MR]).
func partialRowAllGather(B, A *DistMat) {
	union, part, partRank := partialUnionComm(A, A.rowDist)
	if B.rowAlign != A.rowAlign%B.RowStride() {
		preconditionf("unaligned partial row all-gather not implemented: "+
			"align %d vs %d mod %d", B.rowAlign, A.rowAlign, B.RowStride())
	}
	var (
		p      = A.RowStride()
		uSize  = p / part
		w      = A.width
		lh     = A.LocalHeight()
		bShift = B.RowShift()
	)
	parts := union.AllGather(packLocal(A))
	for k, buf := range parts {
		var (
			vecRank = partRank + k*part
			shift   = Shift(vecRank, A.rowAlign, p)
			lw      = Length(w, shift, p)
			off     = (shift - bShift) / part
		)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, buf), 0, 1, 0, 1,
			B.mat, 0, 1, off, uSize, lh, lw)
	}
}

// mdColAllGather turns [MD,*] into [*,*]: a gather along the owning diagonal
// path, then a broadcast across paths so every process holds the result.
func mdColAllGather(B, A *DistMat) {
	var (
		g      = A.grid
		stride = g.LCM()
		h      = A.height
		w      = A.width
	)
	parts := g.MDComm().AllGather(packLocal(A))
	if A.Participating() {
		for k, part := range parts {
			shift := Shift(k, A.colAlign, stride)
			lh := Length(h, shift, stride)
			if lh == 0 || w == 0 {
				continue
			}
			copyStrided(bufMatrix(lh, w, part), 0, 1, 0, 1,
				B.mat, shift, stride, 0, 1, lh, w)
		}
	}
	broadcastAcrossPaths(B, A.root)
}

// mdRowAllGather turns [*,MD] into [*,*].
func mdRowAllGather(B, A *DistMat) {
	var (
		g      = A.grid
		stride = g.LCM()
		h      = A.height
		w      = A.width
	)
	parts := g.MDComm().AllGather(packLocal(A))
	if A.Participating() {
		for k, part := range parts {
			shift := Shift(k, A.rowAlign, stride)
			lw := Length(w, shift, stride)
			if lw == 0 || h == 0 {
				continue
			}
			copyStrided(bufMatrix(h, lw, part), 0, 1, 0, 1,
				B.mat, 0, 1, shift, stride, h, lw)
		}
	}
	broadcastAcrossPaths(B, A.root)
}

// broadcastAcrossPaths copies a path-complete [*,*] result to the processes
// of the other diagonal paths. Root is the owning path: within each
// perpendicular group the member ranks coincide with path indices.
func broadcastAcrossPaths(B *DistMat, rootPath int) {
	g := B.grid
	if g.GCD() == 1 {
		return
	}
	var send []float64
	if g.DiagPath() == rootPath {
		send = packLocal(B)
	}
	recv := g.MDPerpComm().Broadcast(send, rootPath)
	lh, lw := B.LocalHeight(), B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	copyStrided(bufMatrix(lh, lw, recv), 0, 1, 0, 1, B.mat, 0, 1, 0, 1, lh, lw)
}
