package dist

// The select family refines a replicated axis without communication: every
// entry a process needs under the finer layout is already present in its
// local block, so the protocol is a strided local copy.

// filter handles pairs where each axis either keeps its kind or goes from
// replicated to partitioned. An axis that keeps its kind must keep its
// alignment too.
func filter(B, A *DistMat) {
	var (
		si0, siStride = 0, 1
		sj0, sjStride = 0, 1
	)
	if A.colDist == Star && B.colDist != Star {
		si0, siStride = B.ColShift(), B.ColStride()
	} else if B.colAlign != A.colAlign {
		preconditionf("unaligned selection not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	if A.rowDist == Star && B.rowDist != Star {
		sj0, sjStride = B.RowShift(), B.RowStride()
	} else if B.rowAlign != A.rowAlign {
		preconditionf("unaligned selection not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	if !B.Participating() {
		return
	}
	copyStrided(A.mat, si0, siStride, sj0, sjStride,
		B.mat, 0, 1, 0, 1, B.LocalHeight(), B.LocalWidth())
}

// partialColFilter refines a grid-dimension column kind to its scattered
// vector kind, [MC,*] -> [VC,*] or [MR,*] -> [VR,*]. The finer stride is a
// multiple of the coarser one, so the selection walks the source block with
// stride equal to the stride ratio.
func partialColFilter(B, A *DistMat) {
	if A.rowDist != Star && B.rowAlign != A.rowAlign {
		preconditionf("unaligned partial column selection not implemented: "+
			"row align %d vs %d", B.rowAlign, A.rowAlign)
	}
	if A.colAlign != B.colAlign%A.ColStride() {
		preconditionf("unaligned partial column selection not implemented: "+
			"align %d vs %d mod %d", A.colAlign, B.colAlign, A.ColStride())
	}
	var (
		off    = (B.ColShift() - A.ColShift()) / A.ColStride()
		stride = B.ColStride() / A.ColStride()
	)
	copyStrided(A.mat, off, stride, 0, 1,
		B.mat, 0, 1, 0, 1, B.LocalHeight(), B.LocalWidth())
}

// partialRowFilter refines [*,MC] -> [*,VC] or [*,MR] -> [*,VR].
func partialRowFilter(B, A *DistMat) {
	if A.colDist != Star && B.colAlign != A.colAlign {
		preconditionf("unaligned partial row selection not implemented: "+
			"column align %d vs %d", B.colAlign, A.colAlign)
	}
	if A.rowAlign != B.rowAlign%A.RowStride() {
		preconditionf("unaligned partial row selection not implemented: "+
			"align %d vs %d mod %d", A.rowAlign, B.rowAlign, A.RowStride())
	}
	var (
		off    = (B.RowShift() - A.RowShift()) / A.RowStride()
		stride = B.RowStride() / A.RowStride()
	)
	copyStrided(A.mat, 0, 1, off, stride,
		B.mat, 0, 1, 0, 1, B.LocalHeight(), B.LocalWidth())
}
