package dist

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiagonal(t *testing.T) {
	// Extraction on a grid with two diagonal paths, every offset of a
	// non-square matrix, verified against a replicated gather.
	runOnGrid(t, 2, 4, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 7, 6)
		fillEntries(A)
		for offset := -3; offset <= 3; offset++ {
			var (
				iOff = max(-offset, 0)
				jOff = max(offset, 0)
				n    = A.DiagonalLength(offset)
			)
			require.Equal(t, min(7-iOff, 6-jOff), n)

			d := A.GetDiagonal(offset)
			assert.True(t, A.AlignedWithDiagonal(d, offset))
			assert.Equal(t, n, d.Height())
			assert.Equal(t, 1, d.Width())

			S := NewDistMat(g, Star, Star)
			Copy(S, d)
			for k := 0; k < n; k++ {
				assert.Equal(t, entry(k+iOff, k+jOff, 7), S.Get(k, 0))
			}
		}
	})
	// Extraction is communication-free and respects nonzero alignments.
	runOnGrid(t, 2, 4, func(g *Grid) {
		A := NewDistMat(g, MC, MR)
		A.Align(1, 3, true)
		A.Resize(6, 6)
		fillEntries(A)
		g.ResetCounts()
		d := A.GetDiagonal(-1)
		assert.Equal(t, uint64(0), g.Counts().Collectives())
		assert.True(t, A.AlignedWithDiagonal(d, -1))

		S := NewDistMat(g, Star, Star)
		Copy(S, d)
		for k := 0; k < d.Height(); k++ {
			assert.Equal(t, entry(k+1, k, 6), S.Get(k, 0))
		}
	})
	// Coprime grid dimensions give a single path holding every process.
	runOnGrid(t, 2, 3, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 5, 5)
		fillEntries(A)
		d := A.GetDiagonal(0)
		assert.True(t, d.Participating())
		assert.Equal(t, 0, A.DiagonalRoot(0))

		S := NewDistMat(g, Star, Star)
		Copy(S, d)
		for k := 0; k < 5; k++ {
			assert.Equal(t, entry(k, k, 5), S.Get(k, 0))
		}
	})
}

func TestSetDiagonal(t *testing.T) {
	// Round trip: extract, scale in place, write back.
	runOnGrid(t, 2, 4, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 7, 6)
		fillEntries(A)
		for _, offset := range []int{-2, 0, 1} {
			d := A.GetDiagonal(offset)
			if d.Participating() {
				for k := 0; k < d.LocalHeight(); k++ {
					d.UpdateLocal(k, 0, 100)
				}
			}
			g.ResetCounts()
			A.SetDiagonal(d, offset)
			assert.Equal(t, uint64(0), g.Counts().Collectives())
		}
		var (
			iOff = func(off int) int { return max(-off, 0) }
			jOff = func(off int) int { return max(off, 0) }
			onD  = func(i, j, off int) bool {
				k := i - iOff(off)
				return k >= 0 && k == j-jOff(off) && k < 7 && j < 6
			}
		)
		for jLoc := 0; jLoc < A.LocalWidth(); jLoc++ {
			for iLoc := 0; iLoc < A.LocalHeight(); iLoc++ {
				var (
					i    = A.GlobalRow(iLoc)
					j    = A.GlobalCol(jLoc)
					want = entry(i, j, 7)
				)
				if onD(i, j, -2) || onD(i, j, 0) || onD(i, j, 1) {
					want += 100
				}
				assert.Equal(t, want, A.GetLocal(iLoc, jLoc))
			}
		}
	})
	// An explicitly aligned vector writes back the same way an extracted one
	// does.
	runOnGrid(t, 2, 4, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 6, 6)
		fillEntries(A)
		d := NewDistMat(g, MD, Star)
		A.AlignWithDiagonal(d, 2)
		d.Resize(A.DiagonalLength(2), 1)
		if d.Participating() {
			for k := 0; k < d.LocalHeight(); k++ {
				d.SetLocal(k, 0, -1)
			}
		}
		A.SetDiagonal(d, 2)
		S := NewDistMat(g, Star, Star)
		Copy(S, A)
		for k := 0; k < 4; k++ {
			assert.Equal(t, -1.0, S.Get(k, k+2))
		}
	})
	// Misaligned or misshapen sources and non-[MC,MR] layouts are rejected.
	runOnGrid(t, 2, 4, func(g *Grid) {
		A := NewDistMatWithDims(g, MC, MR, 6, 6)
		d := A.GetDiagonal(0)
		assert.Panics(t, func() { A.SetDiagonal(d, 1) })

		v := NewDistMatWithDims(g, VC, Star, 6, 1)
		assert.Panics(t, func() { A.SetDiagonal(v, 0) })

		W := NewDistMatWithDims(g, VC, Star, 6, 6)
		assert.Panics(t, func() { W.GetDiagonal(0) })
	})
}
