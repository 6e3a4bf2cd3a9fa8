package dist

// Copy redistributes A into B's layout: after the call B describes the same
// global matrix as A, laid out per B's kind pair. The protocol is selected by
// a lookup keyed by (source layout, destination layout): a purely local
// select when B refines a replicated axis of A, a gather-all collective when
// B replicates a partitioned axis, a translation collective for
// vector-order or single-owner changes, and a [*,*] routing fallback for
// supported pairs without a direct path. Alignments not related by the
// expected modular relationship are rejected; the general unaligned
// repacking path is not implemented.
//
// Collective: every process of the grid must call Copy with the same pair.
func Copy(B, A *DistMat) {
	assertSameGrids(B, A)
	assertNotLocked(B)
	assertDims(A)
	if B == A {
		return
	}
	data := A.DistData()
	if !B.colConstrained {
		B.AlignColsWith(data, false, true)
	}
	if !B.rowConstrained {
		B.AlignRowsWith(data, false, true)
	}
	B.Resize(A.height, A.width)

	key := pairKey{A.colDist, A.rowDist, B.colDist, B.rowDist}
	if fn, ok := copyFuncs[key]; ok {
		fn(B, A)
		return
	}

	// Routing fallback through a fully replicated intermediate.
	up := pairKey{A.colDist, A.rowDist, Star, Star}
	down := pairKey{Star, Star, B.colDist, B.rowDist}
	upFn, upOK := copyFuncs[up]
	downFn, downOK := copyFuncs[down]
	if !upOK || !downOK {
		preconditionf("unsupported redistribution [%v,%v] -> [%v,%v]",
			A.colDist, A.rowDist, B.colDist, B.rowDist)
	}
	mid := NewDistMat(A.grid, Star, Star)
	mid.Resize(A.height, A.width)
	upFn(mid, A)
	downFn(B, mid)
}

type pairKey struct {
	srcCol, srcRow, dstCol, dstRow Dist
}

type copyFunc func(B, A *DistMat)

var copyFuncs = map[pairKey]copyFunc{}

func register(srcCol, srcRow, dstCol, dstRow Dist, fn copyFunc) {
	copyFuncs[pairKey{srcCol, srcRow, dstCol, dstRow}] = fn
}

func init() {
	samePairs := [][2]Dist{
		{MC, MR}, {MR, MC},
		{MC, Star}, {Star, MC}, {MR, Star}, {Star, MR},
		{VC, Star}, {Star, VC}, {VR, Star}, {Star, VR},
		{MD, Star}, {Star, MD},
		{Star, Star}, {Circ, Circ},
	}
	for _, p := range samePairs {
		register(p[0], p[1], p[0], p[1], localCopy)
	}

	// Gather-all: remove a partitioned axis.
	register(MC, MR, Star, MR, colAllGather)
	register(MR, MC, Star, MC, colAllGather)
	register(MC, Star, Star, Star, colAllGather)
	register(MR, Star, Star, Star, colAllGather)
	register(VC, Star, Star, Star, colAllGather)
	register(VR, Star, Star, Star, colAllGather)
	register(MD, Star, Star, Star, mdColAllGather)
	register(MC, MR, MC, Star, rowAllGather)
	register(MR, MC, MR, Star, rowAllGather)
	register(Star, MC, Star, Star, rowAllGather)
	register(Star, MR, Star, Star, rowAllGather)
	register(Star, VC, Star, Star, rowAllGather)
	register(Star, VR, Star, Star, rowAllGather)
	register(Star, MD, Star, Star, mdRowAllGather)
	register(MC, MR, Star, Star, allGather)
	register(MR, MC, Star, Star, allGather)
	register(VC, Star, MC, Star, partialColAllGather)
	register(VR, Star, MR, Star, partialColAllGather)
	register(Star, VC, Star, MC, partialRowAllGather)
	register(Star, VR, Star, MR, partialRowAllGather)

	// Local select: refine a replicated axis.
	for _, p := range samePairs {
		if p[0] == Star && p[1] == Star || p[0] == Circ {
			continue
		}
		register(Star, Star, p[0], p[1], filter)
	}
	register(Star, MR, MC, MR, filter)
	register(Star, MC, MR, MC, filter)
	register(MC, Star, MC, MR, filter)
	register(MR, Star, MR, MC, filter)
	register(MC, Star, VC, Star, partialColFilter)
	register(MR, Star, VR, Star, partialColFilter)
	register(Star, MC, Star, VC, partialRowFilter)
	register(Star, MR, Star, VR, partialRowFilter)

	// Vector-order and single-owner translations.
	register(VC, Star, VR, Star, colTranslate)
	register(VR, Star, VC, Star, colTranslate)
	register(Star, VC, Star, VR, rowTranslate)
	register(Star, VR, Star, VC, rowTranslate)
	register(MC, MR, Circ, Circ, gatherToRoot)
	register(Circ, Circ, MC, MR, scatterFromRoot)
	register(Circ, Circ, Star, Star, broadcastFromRoot)
	register(Star, Star, Circ, Circ, rootFilter)
}

// localCopy handles identical kind pairs: aligned layouts need only a local
// copy and zero communication calls.
func localCopy(B, A *DistMat) {
	if B.colAlign != A.colAlign || B.rowAlign != A.rowAlign || B.root != A.root {
		preconditionf("unaligned [%v,%v] copy not implemented: "+
			"align (%d,%d) vs (%d,%d)", A.colDist, A.rowDist,
			B.colAlign, B.rowAlign, A.colAlign, A.rowAlign)
	}
	if !B.Participating() {
		return
	}
	copyStrided(A.mat, 0, 1, 0, 1, B.mat, 0, 1, 0, 1, A.LocalHeight(), A.LocalWidth())
}

// packLocal compacts this process's local block into a contiguous row-major
// send buffer.
func packLocal(A *DistMat) []float64 {
	lh, lw := A.LocalHeight(), A.LocalWidth()
	buf := make([]float64, lh*lw)
	copyStrided(A.mat, 0, 1, 0, 1, bufMatrix(lh, lw, buf), 0, 1, 0, 1, lh, lw)
	return buf
}
