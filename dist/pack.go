package dist

import (
	"runtime"

	"github.com/notargets/distmat/utils"
)

// Every protocol decomposes into a local pack loop into a contiguous send
// buffer, one collective, and a local unpack loop into the destination.
// copyStrided and accumStrided are those loops: they move a rows x cols
// element lattice between two local matrices, each side addressed by a
// starting index and a stride per axis. The iterations carry no dependency
// and large blocks are split across cores.

const parallelPackThreshold = 1 << 14

func packThreads(rows, cols int) int {
	if rows*cols < parallelPackThreshold {
		return 1
	}
	return runtime.NumCPU()
}

func copyStrided(src utils.Matrix, si0, siStride, sj0, sjStride int,
	dst utils.Matrix, di0, diStride, dj0, djStride int, rows, cols int) {
	var (
		sData = src.LockedData()
		dData = dst.Data()
		sLD   = src.LDim()
		dLD   = dst.LDim()
	)
	utils.ParallelFor(packThreads(rows, cols), rows, func(rMin, rMax int) {
		for r := rMin; r < rMax; r++ {
			sRow := (si0 + r*siStride) * sLD
			dRow := (di0 + r*diStride) * dLD
			for c := 0; c < cols; c++ {
				dData[dRow+dj0+c*djStride] = sData[sRow+sj0+c*sjStride]
			}
		}
	})
}

func accumStrided(alpha float64, src utils.Matrix, si0, siStride, sj0, sjStride int,
	dst utils.Matrix, di0, diStride, dj0, djStride int, rows, cols int) {
	var (
		sData = src.LockedData()
		dData = dst.Data()
		sLD   = src.LDim()
		dLD   = dst.LDim()
	)
	utils.ParallelFor(packThreads(rows, cols), rows, func(rMin, rMax int) {
		for r := rMin; r < rMax; r++ {
			sRow := (si0 + r*siStride) * sLD
			dRow := (di0 + r*diStride) * dLD
			for c := 0; c < cols; c++ {
				dData[dRow+dj0+c*djStride] += alpha * sData[sRow+sj0+c*sjStride]
			}
		}
	})
}

// bufMatrix adapts a contiguous row-major buffer to the local-matrix shape
// the pack loops traffic in.
func bufMatrix(rows, cols int, buf []float64) utils.Matrix {
	ld := cols
	if ld < 1 {
		ld = 1
	}
	return utils.AttachMatrix(rows, cols, ld, buf)
}
