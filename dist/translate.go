package dist

import "github.com/notargets/distmat/utils"

// Vector-order translation and the single-owner protocols. Switching [VC,*]
// to [VR,*] keeps every element on the grid but reassigns owners by the
// other rank order, so each process trades an uneven set of rows with every
// other one: a variable-count all-to-all. The Circ protocols concentrate the
// matrix on one process or fan it back out.

// colTranslate converts between the two cyclic-vector column orders,
// [VC,*] <-> [VR,*].
func colTranslate(B, A *DistMat) {
	if A.rowDist != Star && B.rowAlign != A.rowAlign {
		preconditionf("unaligned translation not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	var (
		g      = A.grid
		p      = g.Size()
		lw     = A.LocalWidth()
		aShift = A.ColShift()
		toVR   = B.colDist == VR
		send   = make([][]float64, p)
	)
	for t := 0; t < A.LocalHeight(); t++ {
		i := aShift + t*p
		d := Owner(i, B.colAlign, p)
		if toVR {
			d = g.VRToVC(d)
		}
		for j := 0; j < lw; j++ {
			send[d] = append(send[d], A.mat.At(t, j))
		}
	}
	recv := g.VCComm().AllToAll(send)
	var (
		bShift = B.ColShift()
		pos    = utils.NewIndex(p)
	)
	for t := 0; t < B.LocalHeight(); t++ {
		i := bShift + t*p
		s := Owner(i, A.colAlign, p)
		if A.colDist == VR {
			s = g.VRToVC(s)
		}
		for j := 0; j < lw; j++ {
			B.mat.Set(t, j, recv[s][pos[s]])
			pos[s]++
		}
	}
}

// rowTranslate converts [*,VC] <-> [*,VR].
func rowTranslate(B, A *DistMat) {
	if A.colDist != Star && B.colAlign != A.colAlign {
		preconditionf("unaligned translation not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	var (
		g      = A.grid
		p      = g.Size()
		lh     = A.LocalHeight()
		aShift = A.RowShift()
		toVR   = B.rowDist == VR
		send   = make([][]float64, p)
	)
	for t := 0; t < A.LocalWidth(); t++ {
		j := aShift + t*p
		d := Owner(j, B.rowAlign, p)
		if toVR {
			d = g.VRToVC(d)
		}
		for i := 0; i < lh; i++ {
			send[d] = append(send[d], A.mat.At(i, t))
		}
	}
	recv := g.VCComm().AllToAll(send)
	var (
		bShift = B.RowShift()
		pos    = utils.NewIndex(p)
	)
	for t := 0; t < B.LocalWidth(); t++ {
		j := bShift + t*p
		s := Owner(j, A.rowAlign, p)
		if A.rowDist == VR {
			s = g.VRToVC(s)
		}
		for i := 0; i < lh; i++ {
			B.mat.Set(i, t, recv[s][pos[s]])
			pos[s]++
		}
	}
}

// gatherToRoot concentrates [MC,MR] onto the single owner of [Circ,Circ].
func gatherToRoot(B, A *DistMat) {
	var (
		g     = A.grid
		cs    = A.ColStride()
		rs    = A.RowStride()
		parts = g.VCComm().Gather(packLocal(A), B.root)
	)
	if !B.Participating() {
		return
	}
	for q, part := range parts {
		var (
			rowShift = Shift(q%cs, A.colAlign, cs)
			colShift = Shift(q/cs, A.rowAlign, rs)
			lh       = Length(A.height, rowShift, cs)
			lw       = Length(A.width, colShift, rs)
		)
		if lh == 0 || lw == 0 {
			continue
		}
		copyStrided(bufMatrix(lh, lw, part), 0, 1, 0, 1,
			B.mat, rowShift, cs, colShift, rs, lh, lw)
	}
}

// scatterFromRoot fans [Circ,Circ] out to [MC,MR].
func scatterFromRoot(B, A *DistMat) {
	var (
		g     = A.grid
		cs    = B.ColStride()
		rs    = B.RowStride()
		parts [][]float64
	)
	if A.Participating() {
		parts = make([][]float64, g.Size())
		for q := range parts {
			var (
				rowShift = Shift(q%cs, B.colAlign, cs)
				colShift = Shift(q/cs, B.rowAlign, rs)
				lh       = Length(A.height, rowShift, cs)
				lw       = Length(A.width, colShift, rs)
				buf      = make([]float64, lh*lw)
			)
			if lh > 0 && lw > 0 {
				copyStrided(A.mat, rowShift, cs, colShift, rs,
					bufMatrix(lh, lw, buf), 0, 1, 0, 1, lh, lw)
			}
			parts[q] = buf
		}
	}
	recv := g.VCComm().Scatter(parts, A.root)
	lh, lw := B.LocalHeight(), B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	copyStrided(bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

// broadcastFromRoot replicates [Circ,Circ] everywhere as [Star,Star].
func broadcastFromRoot(B, A *DistMat) {
	var send []float64
	if A.Participating() {
		send = packLocal(A)
	}
	recv := A.grid.VCComm().Broadcast(send, A.root)
	lh, lw := B.LocalHeight(), B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	copyStrided(bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

// rootFilter reduces [Star,Star] to [Circ,Circ] with a local copy at the
// owner and zero communication.
func rootFilter(B, A *DistMat) {
	if !B.Participating() {
		return
	}
	copyStrided(A.mat, 0, 1, 0, 1, B.mat, 0, 1, 0, 1,
		B.LocalHeight(), B.LocalWidth())
}
