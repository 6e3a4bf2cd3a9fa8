package dist

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// Each process fills its replicated copy with the canonical pattern, so the
// reduce-scatter of R identical contributions is R times the pattern.

func TestSumScatter(t *testing.T) {
	// [*,*] -> [MC,MR] folds the full grid's contributions.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, Star, Star, 7, 5)
		fillEntries(A)
		B := NewDistMat(g, MC, MR)
		SumScatter(B, A)
		scale := float64(g.Size())
		for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(B.GlobalRow(iLoc), B.GlobalCol(jLoc), 7),
					B.GetLocal(iLoc, jLoc))
			}
		}
	})
	// [*,MR] -> [MC,MR] folds only the column communicator.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, Star, MR, 7, 5)
		fillEntries(A)
		B := NewDistMat(g, MC, MR)
		SumScatter(B, A)
		scale := float64(g.Height())
		for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(B.GlobalRow(iLoc), B.GlobalCol(jLoc), 7),
					B.GetLocal(iLoc, jLoc))
			}
		}
	})
	// [MC,*] -> [MC,MR] folds only the row communicator.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, Star, 7, 5)
		fillEntries(A)
		B := NewDistMat(g, MC, MR)
		SumScatter(B, A)
		scale := float64(g.Width())
		for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(B.GlobalRow(iLoc), B.GlobalCol(jLoc), 7),
					B.GetLocal(iLoc, jLoc))
			}
		}
	})
	// Partial variants fold the union dimension into the vector kind.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, Star, 11, 3)
		fillEntries(A)
		B := NewDistMat(g, VC, Star)
		SumScatter(B, A)
		scale := float64(g.Width())
		for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(B.GlobalRow(iLoc), B.GlobalCol(jLoc), 11),
					B.GetLocal(iLoc, jLoc))
			}
		}

		C := NewDistMatWithDims(g, Star, MR, 3, 11)
		fillEntries(C)
		D := NewDistMat(g, Star, VR)
		SumScatter(D, C)
		scale = float64(g.Height())
		for jLoc := 0; jLoc < D.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < D.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(D.GlobalRow(iLoc), D.GlobalCol(jLoc), 3),
					D.GetLocal(iLoc, jLoc))
			}
		}
	})
}

func TestSumScatterUpdate(t *testing.T) {
	// Update accumulates alpha times the folded sum onto B.
	runOnGrid(t, 2, 2, func(g *Grid) {
		A := NewDistMatWithDims(g, Star, Star, 5, 5)
		fillEntries(A)
		B := NewDistMatWithDims(g, MC, MR, 5, 5)
		fillEntries(B)
		SumScatterUpdate(2, B, A)
		// B = pattern + 2 * gridSize * pattern.
		scale := 1 + 2*float64(g.Size())
		for jLoc := 0; jLoc < B.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < B.LocalHeight(); iLoc++ {
				assert.Equal(t,
					scale*entry(B.GlobalRow(iLoc), B.GlobalCol(jLoc), 5),
					B.GetLocal(iLoc, jLoc))
			}
		}
	})
	// Dimension mismatches and unsupported pairs are rejected.
	runOnGrid(t, 2, 2, func(g *Grid) {
		A := NewDistMatWithDims(g, Star, Star, 5, 5)
		B := NewDistMatWithDims(g, MC, MR, 4, 5)
		assert.Panics(t, func() { SumScatterUpdate(1, B, A) })

		C := NewDistMatWithDims(g, VC, Star, 5, 5)
		assert.Panics(t, func() { SumScatterUpdate(1, C, A) })
	})
	// A constrained misaligned destination is rejected, not repacked.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, Star, 6, 3)
		fillEntries(A)
		B := NewDistMat(g, VC, Star)
		B.AlignCols(3, true)
		B.Resize(6, 3)
		assert.Panics(t, func() { SumScatterUpdate(1, B, A) })
	})
}

// The round trip of a fold and its gather: summing replicated copies into a
// partitioned layout and gathering back multiplies the pattern exactly, so
// equality is exact in floating point.
func TestSumScatterGatherRoundTrip(t *testing.T) {
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, Star, Star, 7, 5)
		fillEntries(A)
		B := NewDistMat(g, MC, MR)
		SumScatter(B, A)
		S := NewDistMat(g, Star, Star)
		Copy(S, B)
		scale := float64(g.Size())
		for jLoc := 0; jLoc < S.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < S.LocalHeight(); iLoc++ {
				assert.InDelta(t,
					scale*entry(S.GlobalRow(iLoc), S.GlobalCol(jLoc), 7),
					S.GetLocal(iLoc, jLoc), 1e-12)
			}
		}
	})
}
