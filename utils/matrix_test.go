package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatrix(t *testing.T) {
	// At / Set / Update
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		nr, nc := M.Dims()
		assert.Equal(t, 2, nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, 6., M.At(1, 2))
		M.Set(0, 1, 10)
		M.Update(0, 1, 0.5)
		assert.Equal(t, 10.5, M.At(0, 1))
		assert.Panics(t, func() { M.At(2, 0) })
	}
	// Transpose
	{
		M := NewMatrix(2, 3, []float64{
			1, 2, 3,
			4, 5, 6,
		})
		A := M.Transpose()
		aNr, aNc := A.Dims()
		assert.Equal(t, 3, aNr)
		assert.Equal(t, 2, aNc)
		assert.Equal(t, []float64{1, 4, 2, 5, 3, 6}, A.LockedData())
	}
	// Copy is deep
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		C := M.Copy()
		M.Set(0, 0, -1)
		assert.Equal(t, 1., C.At(0, 0))
	}
	// Zero
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		M.Zero()
		assert.Equal(t, []float64{0, 0, 0, 0}, M.LockedData())
	}
	// Resize reuses or grows storage and zero fills
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		M.Resize(3, 3)
		nr, nc := M.Dims()
		assert.Equal(t, 3, nr)
		assert.Equal(t, 3, nc)
		assert.Equal(t, 0., M.At(0, 0))
		M.Resize(0, 5)
		nr, _ = M.Dims()
		assert.Equal(t, 0, nr)
	}
	// Dense adapts without copying
	{
		M := NewMatrix(2, 2, []float64{1, 2, 3, 4})
		D := M.Dense()
		D.Set(1, 1, 40)
		assert.Equal(t, 40., M.At(1, 1))
	}
}

func TestMatrixViews(t *testing.T) {
	// An attached view shares the caller's buffer
	{
		buf := []float64{1, 2, 3, 4, 5, 6}
		V := AttachMatrix(2, 3, 3, buf)
		assert.True(t, V.IsView())
		V.Set(0, 0, -1)
		assert.Equal(t, -1., buf[0])
		assert.Panics(t, func() { V.Resize(3, 3) })
	}
	// Leading dimension larger than width skips padding columns
	{
		buf := []float64{1, 2, 99, 3, 4, 99}
		V := AttachMatrix(2, 2, 3, buf)
		assert.Equal(t, 3., V.At(1, 0))
		assert.Equal(t, 4., V.At(1, 1))
	}
	// Whole-block operations on a padded view respect the leading dimension
	{
		buf := []float64{1, 2, 99, 3, 4, 99}
		V := AttachMatrix(2, 2, 3, buf)
		C := V.Copy()
		assert.Equal(t, []float64{1, 2, 3, 4}, C.LockedData())
		A := V.Transpose()
		assert.Equal(t, []float64{1, 3, 2, 4}, A.LockedData())
		V.Zero()
		assert.Equal(t, []float64{0, 0, 99, 0, 0, 99}, buf)
	}
	// A locked view rejects mutation
	{
		buf := []float64{1, 2, 3, 4}
		L := LockedAttachMatrix(2, 2, 2, buf)
		assert.True(t, L.IsLocked())
		assert.Panics(t, func() { L.Set(0, 0, 0) })
		assert.Panics(t, func() { L.Data() })
		assert.Equal(t, buf, L.LockedData())
	}
	// Undersized buffers are rejected up front
	{
		assert.Panics(t, func() { AttachMatrix(2, 3, 3, make([]float64, 5)) })
		assert.Panics(t, func() { AttachMatrix(2, 3, 2, make([]float64, 6)) })
		assert.NotPanics(t, func() { AttachMatrix(0, 3, 3, nil) })
	}
}

func TestParallelFor(t *testing.T) {
	// Buckets cover the range exactly once with max imbalance one
	{
		pm := NewPartitionMap(4, 10)
		covered := make([]int, 10)
		for n := 0; n < 4; n++ {
			kMin, kMax := pm.GetBucketRange(n)
			assert.True(t, pm.GetBucketDimension(n) >= 2)
			assert.True(t, pm.GetBucketDimension(n) <= 3)
			for k := kMin; k < kMax; k++ {
				covered[k]++
			}
		}
		for _, c := range covered {
			assert.Equal(t, 1, c)
		}
	}
	// ParallelFor visits every index exactly once
	{
		var (
			seen = make([]int32, 100)
		)
		ParallelFor(4, 100, func(kMin, kMax int) {
			for k := kMin; k < kMax; k++ {
				seen[k]++
			}
		})
		for _, c := range seen {
			assert.Equal(t, int32(1), c)
		}
	}
	// Tiny ranges run inline
	{
		calls := 0
		ParallelFor(8, 3, func(kMin, kMax int) {
			calls++
			assert.Equal(t, 0, kMin)
			assert.Equal(t, 3, kMax)
		})
		assert.Equal(t, 1, calls)
	}
}
