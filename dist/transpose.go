package dist

// TransposeCopy overwrites B with the transpose of A, laid out per B's kind
// pair. When A's layout is already the crosswise match of B's the transpose
// is purely local; otherwise A is first redistributed into the crosswise
// layout and then transposed in place, so the communication cost is that of
// the underlying Copy.
//
// Collective over the shared grid.
func TransposeCopy(B, A *DistMat) {
	assertSameGrids(B, A)
	assertNotLocked(B)
	assertDims(A)

	if crosswiseAligned(B, A) {
		B.Resize(A.width, A.height)
		transposeLocal(B, A)
		return
	}

	aTmp := NewDistMat(B.grid, B.rowDist, B.colDist)
	if B.colConstrained {
		aTmp.AlignRows(B.colAlign, true)
	}
	if B.rowConstrained {
		aTmp.AlignCols(B.rowAlign, true)
	}
	if rooted(B.colDist) || rooted(B.rowDist) {
		aTmp.SetRoot(B.root)
	}
	Copy(aTmp, A)

	if !B.colConstrained {
		B.colAlign = aTmp.rowAlign
	}
	if !B.rowConstrained {
		B.rowAlign = aTmp.colAlign
	}
	B.root = aTmp.root
	B.Resize(A.width, A.height)
	transposeLocal(B, aTmp)
}

// crosswiseAligned reports whether A's layout is exactly B's with the axes
// swapped, so transposition needs no communication.
func crosswiseAligned(B, A *DistMat) bool {
	return A.colDist == B.rowDist && A.rowDist == B.colDist &&
		A.colAlign == B.rowAlign && A.rowAlign == B.colAlign &&
		A.root == B.root
}

func rooted(d Dist) bool { return d == Circ || d == MD }

func transposeLocal(B, A *DistMat) {
	if !B.Participating() {
		return
	}
	lh, lw := B.LocalHeight(), B.LocalWidth()
	for i := 0; i < lh; i++ {
		for j := 0; j < lw; j++ {
			B.mat.Set(i, j, A.mat.At(j, i))
		}
	}
}
