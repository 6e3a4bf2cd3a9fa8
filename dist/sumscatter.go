package dist

import (
	"fmt"
	"os"
	"sync"
)

// The reduce-scatter family folds a replicated axis carrying partial sums
// into a partitioned destination: each process packs one contiguous portion
// per destination owner, a single reduce-scatter collective sums the
// portions elementwise and delivers each owner its own, and a strided
// unpack accumulates the result locally. Portions are padded to the maximum
// owner length so the collective sees uniform counts.

// SumScatter overwrites B with the reduce-scatter of A. A's replicated axis
// is assumed to hold per-process partial contributions; their sum lands
// partitioned per B's layout.
//
// Collective over B's grid.
func SumScatter(B, A *DistMat) {
	assertSameGrids(B, A)
	assertNotLocked(B)
	assertDims(A)
	B.Resize(A.height, A.width)
	B.mat.Zero()
	SumScatterUpdate(1, B, A)
}

// SumScatterUpdate accumulates alpha times the reduce-scatter of A into B.
// B must already have A's global dimensions.
//
// Collective over B's grid.
func SumScatterUpdate(alpha float64, B, A *DistMat) {
	assertSameGrids(B, A)
	assertNotLocked(B)
	assertDims(A)
	assertConforming(B, A)
	switch {
	case A.colDist == Star && B.colDist == MC && A.rowDist == B.rowDist:
		colSumScatter(alpha, B, A)
	case A.rowDist == Star && B.rowDist == MR && A.colDist == B.colDist:
		rowSumScatter(alpha, B, A)
	case A.colDist == Star && A.rowDist == Star && B.colDist == MC && B.rowDist == MR:
		sumScatter(alpha, B, A)
	case A.colDist == MC && B.colDist == VC && A.rowDist == B.rowDist:
		partialColSumScatter(alpha, B, A)
	case A.rowDist == MR && B.rowDist == VR && A.colDist == B.colDist:
		partialRowSumScatter(alpha, B, A)
	default:
		preconditionf("unsupported sum-scatter [%v,%v] -> [%v,%v]",
			A.colDist, A.rowDist, B.colDist, B.rowDist)
	}
}

// colSumScatter folds [*,X] into [MC,X] over the column communicator.
func colSumScatter(alpha float64, B, A *DistMat) {
	if A.rowDist != Star && B.rowAlign != A.rowAlign {
		preconditionf("unaligned sum-scatter not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	var (
		c       = B.grid.ColComm()
		s       = B.ColStride()
		h       = A.height
		lw      = A.LocalWidth()
		portion = MaxLength(h, s) * lw
		send    = make([]float64, s*portion)
	)
	for k := 0; k < s; k++ {
		shift := Shift(k, B.colAlign, s)
		lhk := Length(h, shift, s)
		if lhk == 0 || lw == 0 {
			continue
		}
		copyStrided(A.mat, shift, s, 0, 1,
			bufMatrix(lhk, lw, send[k*portion:]), 0, 1, 0, 1, lhk, lw)
	}
	recv := c.ReduceScatter(send, portion)
	lh := B.LocalHeight()
	if lh == 0 || lw == 0 {
		return
	}
	accumStrided(alpha, bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

// rowSumScatter folds [X,*] into [X,MR] over the row communicator.
func rowSumScatter(alpha float64, B, A *DistMat) {
	if A.colDist != Star && B.colAlign != A.colAlign {
		preconditionf("unaligned sum-scatter not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	var (
		c       = B.grid.RowComm()
		s       = B.RowStride()
		w       = A.width
		lh      = A.LocalHeight()
		portion = lh * MaxLength(w, s)
		send    = make([]float64, s*portion)
	)
	for k := 0; k < s; k++ {
		shift := Shift(k, B.rowAlign, s)
		lwk := Length(w, shift, s)
		if lwk == 0 || lh == 0 {
			continue
		}
		copyStrided(A.mat, 0, 1, shift, s,
			bufMatrix(lh, lwk, send[k*portion:]), 0, 1, 0, 1, lh, lwk)
	}
	recv := c.ReduceScatter(send, portion)
	lw := B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	accumStrided(alpha, bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

// sumScatter folds [*,*] into [MC,MR] in one collective over the full grid,
// ordered by distribution rank.
func sumScatter(alpha float64, B, A *DistMat) {
	var (
		g       = B.grid
		cs      = B.ColStride()
		rs      = B.RowStride()
		h       = A.height
		w       = A.width
		portion = MaxLength(h, cs) * MaxLength(w, rs)
		send    = make([]float64, g.Size()*portion)
	)
	for q := 0; q < g.Size(); q++ {
		var (
			rowShift = Shift(q%cs, B.colAlign, cs)
			colShift = Shift(q/cs, B.rowAlign, rs)
			lhq      = Length(h, rowShift, cs)
			lwq      = Length(w, colShift, rs)
		)
		if lhq == 0 || lwq == 0 {
			continue
		}
		copyStrided(A.mat, rowShift, cs, colShift, rs,
			bufMatrix(lhq, lwq, send[q*portion:]), 0, 1, 0, 1, lhq, lwq)
	}
	recv := g.VCComm().ReduceScatter(send, portion)
	lh, lw := B.LocalHeight(), B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	accumStrided(alpha, bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

var cacheWarnOnce sync.Once

// partialColSumScatter folds [MC,X] into [VC,X] over the union of the grid
// dimension the vector kind adds. Only the stride ratio's worth of data
// moves per process.
func partialColSumScatter(alpha float64, B, A *DistMat) {
	if A.rowDist != Star && B.rowAlign != A.rowAlign {
		preconditionf("unaligned sum-scatter not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	if A.colAlign != B.colAlign%A.ColStride() {
		preconditionf("unaligned sum-scatter not implemented: "+
			"align %d vs %d mod %d", A.colAlign, B.colAlign, A.ColStride())
	}
	if A.width > A.height {
		cacheWarnOnce.Do(func() {
			fmt.Fprintln(os.Stderr,
				"warning: partial column sum-scatter of a wide matrix "+
					"strides cache-unfriendly; consider a row variant")
		})
	}
	var (
		union, part, partRank = partialUnionComm(B, B.colDist)
		p                     = B.ColStride()
		uSize                 = p / part
		h                     = A.height
		lw                    = A.LocalWidth()
		aShift                = A.ColShift()
		portion               = MaxLength(h, p) * lw
		send                  = make([]float64, uSize*portion)
	)
	for k := 0; k < uSize; k++ {
		var (
			vecRank = partRank + k*part
			shift   = Shift(vecRank, B.colAlign, p)
			lhk     = Length(h, shift, p)
			off     = (shift - aShift) / part
		)
		if lhk == 0 || lw == 0 {
			continue
		}
		copyStrided(A.mat, off, uSize, 0, 1,
			bufMatrix(lhk, lw, send[k*portion:]), 0, 1, 0, 1, lhk, lw)
	}
	recv := union.ReduceScatter(send, portion)
	lh := B.LocalHeight()
	if lh == 0 || lw == 0 {
		return
	}
	accumStrided(alpha, bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}

// partialRowSumScatter folds [X,MR] into [X,VR].
func partialRowSumScatter(alpha float64, B, A *DistMat) {
	if A.colDist != Star && B.colAlign != A.colAlign {
		preconditionf("unaligned sum-scatter not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	if A.rowAlign != B.rowAlign%A.RowStride() {
		preconditionf("unaligned sum-scatter not implemented: "+
			"align %d vs %d mod %d", A.rowAlign, B.rowAlign, A.RowStride())
	}
	var (
		union, part, partRank = partialUnionComm(B, B.rowDist)
		p                     = B.RowStride()
		uSize                 = p / part
		w                     = A.width
		lh                    = A.LocalHeight()
		aShift                = A.RowShift()
		portion               = lh * MaxLength(w, p)
		send                  = make([]float64, uSize*portion)
	)
	for k := 0; k < uSize; k++ {
		var (
			vecRank = partRank + k*part
			shift   = Shift(vecRank, B.rowAlign, p)
			lwk     = Length(w, shift, p)
			off     = (shift - aShift) / part
		)
		if lwk == 0 || lh == 0 {
			continue
		}
		copyStrided(A.mat, 0, 1, off, uSize,
			bufMatrix(lh, lwk, send[k*portion:]), 0, 1, 0, 1, lh, lwk)
	}
	recv := union.ReduceScatter(send, portion)
	lw := B.LocalWidth()
	if lh == 0 || lw == 0 {
		return
	}
	accumStrided(alpha, bufMatrix(lh, lw, recv), 0, 1, 0, 1,
		B.mat, 0, 1, 0, 1, lh, lw)
}
