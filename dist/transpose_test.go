package dist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func checkTransposed(t *testing.T, B *DistMat, srcHeight int) {
	t.Helper()
	if !B.Participating() {
		return
	}
	for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
		for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
			assert.Equal(t,
				entry(B.GlobalCol(jLoc), B.GlobalRow(iLoc), srcHeight),
				B.GetLocal(iLoc, jLoc))
		}
	}
}

func TestTransposeCopy(t *testing.T) {
	// A crosswise destination transposes without communication.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 5, 7)
		fillEntries(A)
		B := NewDistMat(g, MR, MC)
		g.ResetCounts()
		TransposeCopy(B, A)
		assert.Equal(t, uint64(0), g.Counts().Collectives())
		assert.Equal(t, 7, B.Height())
		assert.Equal(t, 5, B.Width())
		checkTransposed(t, B, 5)

		V := NewDistMatWithDims(g, VC, Star, 9, 2)
		fillEntries(V)
		W := NewDistMat(g, Star, VC)
		g.ResetCounts()
		TransposeCopy(W, V)
		assert.Equal(t, uint64(0), g.Counts().Collectives())
		checkTransposed(t, W, 9)
	})
	// A same-layout destination redistributes first, then transposes.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 5, 7)
		fillEntries(A)
		B := NewDistMat(g, MC, MR)
		TransposeCopy(B, A)
		checkTransposed(t, B, 5)
	})
	// Nonzero alignments ride along crosswise: a constrained destination
	// keeps its alignments, an unconstrained one adopts the source's swapped.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 6, 6)
		A.Align(1, 2, false)
		fillEntries(A)

		B := NewDistMat(g, MC, MR)
		B.Align(1, 0, true)
		TransposeCopy(B, A)
		assert.Equal(t, 1, B.ColAlign())
		assert.Equal(t, 0, B.RowAlign())
		checkTransposed(t, B, 6)

		C := NewDistMat(g, MR, MC)
		TransposeCopy(C, A)
		assert.Equal(t, 2, C.ColAlign())
		assert.Equal(t, 1, C.RowAlign())
		checkTransposed(t, C, 6)
	})
	// Rooted destinations transpose onto their own root.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 4, 6)
		fillEntries(A)
		B := NewDistMat(g, Circ, Circ)
		B.SetRoot(4)
		TransposeCopy(B, A)
		assert.Equal(t, 4, B.Root())
		assert.Equal(t, B.grid.VCRank() == 4, B.Participating())
		checkTransposed(t, B, 4)
	})
	// Degenerate shapes.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 0, 5)
		B := NewDistMat(g, MR, MC)
		TransposeCopy(B, A)
		assert.Equal(t, 5, B.Height())
		assert.Equal(t, 0, B.Width())

		V := NewDistMatWithDims(g, MC, MR, 1, 1)
		fillEntries(V)
		W := NewDistMat(g, MR, MC)
		TransposeCopy(W, V)
		checkTransposed(t, W, 1)
	})
}
