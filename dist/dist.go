// Package dist implements the distribution and redistribution engine for
// dense matrices partitioned over a 2D process grid: the index arithmetic
// mapping global indices onto grid coordinates, the descriptor metadata for a
// layout, the distributed matrix type, and the communication protocols that
// convert data from one layout to another.
package dist

import (
	"strings"

	"github.com/pkg/errors"
)

// Dist is one axis's distribution kind, a closed enumeration. A full layout
// is the pair (column-axis kind, row-axis kind); the column axis governs row
// indices and the row axis governs column indices.
type Dist uint8

const (
	// MC deals indices block-cyclically to the grid's column dimension
	// (stride = grid height).
	MC Dist = iota
	// MR deals indices block-cyclically to the grid's row dimension
	// (stride = grid width).
	MR
	// MD distributes indices along a diagonal path of processes
	// (stride = lcm(height, width)). The diagonal of a matrix covers the
	// entire grid if and only if the grid dimensions are coprime.
	MD
	// VC deals indices cyclically to all processes in column-major rank
	// order (stride = grid size).
	VC
	// VR deals indices cyclically to all processes in row-major rank order.
	VR
	// Star replicates every index on every process (stride 1).
	Star
	// Circ stores every index on a single owning root (stride 1).
	Circ
)

func (d Dist) String() string {
	switch d {
	case MC:
		return "MC"
	case MR:
		return "MR"
	case MD:
		return "MD"
	case VC:
		return "VC"
	case VR:
		return "VR"
	case Star:
		return "*"
	case Circ:
		return "o"
	}
	return "?"
}

// ParseDist recovers a kind from its String form. "STAR" and "CIRC" are
// accepted alongside the symbolic "*" and "o".
func ParseDist(s string) (Dist, error) {
	switch strings.ToUpper(s) {
	case "MC":
		return MC, nil
	case "MR":
		return MR, nil
	case "MD":
		return MD, nil
	case "VC":
		return VC, nil
	case "VR":
		return VR, nil
	case "*", "STAR":
		return Star, nil
	case "O", "CIRC":
		return Circ, nil
	}
	return Star, errors.Errorf("unknown distribution kind %q", s)
}

// Partial gives the relative of d distributed over only one physical grid
// dimension: Partial(VC) = MC, Partial(VR) = MR.
func Partial(d Dist) Dist {
	switch d {
	case VC:
		return MC
	case VR:
		return MR
	}
	return d
}

// Scattered is the inverse relation: the cyclic-vector refinement of a
// one-dimensional kind. Scattered(MC) = VC, Scattered(MR) = VR.
func Scattered(d Dist) Dist {
	switch d {
	case MC:
		return VC
	case MR:
		return VR
	}
	return d
}

// DistData describes a layout without owning data: the kind pair, the
// alignments, the owning root for single-owner and diagonal layouts, and the
// grid the layout lives on. Two descriptors compare equal exactly when they
// describe the same layout on the same grid instance.
type DistData struct {
	ColDist, RowDist   Dist
	ColAlign, RowAlign int
	Root               int
	Grid               *Grid
}

// Shift is the local starting offset along one axis for the given rank:
// the first global index the rank owns.
func Shift(rank, align, stride int) int {
	return ((rank-align)%stride + stride) % stride
}

// Length is the number of local indices along an axis of global extent n for
// the given shift and stride. Summed over shift = 0..stride-1 it partitions
// n exactly: every global index has one owner.
func Length(n, shift, stride int) int {
	if n <= shift {
		return 0
	}
	return (n - shift + stride - 1) / stride
}

// MaxLength bounds Length over all shifts; protocol buffers are sized with it.
func MaxLength(n, stride int) int {
	return Length(n, 0, stride)
}

// Owner is the rank owning global index i along an axis with the given
// alignment and stride.
func Owner(i, align, stride int) int {
	return (i + align) % stride
}

// LocalIndex is the owner-local position of global index i.
func LocalIndex(i, stride int) int {
	return i / stride
}

// GlobalIndex recovers the global index of local position k on a rank with
// the given shift.
func GlobalIndex(k, shift, stride int) int {
	return shift + k*stride
}
