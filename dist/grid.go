package dist

import (
	"github.com/notargets/distmat/comm"
)

// Grid arranges the members of a communicator into a height x width process
// grid and derives the communication groups the layouts need. A Grid is
// immutable once constructed; every process holds its own Grid value but all
// of them share the underlying communicator state.
//
// Rank-to-coordinate order is column-major and fixed for the grid's lifetime:
// VC rank = row + col*height, VR rank = col + row*width.
type Grid struct {
	height, width int
	rank          int // VC rank within the grid
	row, col      int

	gcd, lcm int
	diagPath int // (col - row) mod gcd; invariant along a diagonal walk
	mdRank   int // position along this process's diagonal path

	vcComm, vrComm   *comm.Comm
	colComm, rowComm *comm.Comm
	mdComm           *comm.Comm // same diagonal path, size lcm
	mdPerpComm       *comm.Comm // same path position across paths, size gcd
	self             *comm.Comm
}

// NewGrid builds a height x width grid over the given communicator, whose
// rank order defines the column-major VC order. Collective: every member
// must call it. The communicator size must equal height*width.
func NewGrid(c *comm.Comm, height, width int) (g *Grid) {
	if height < 1 || width < 1 {
		preconditionf("grid dimensions must be positive, got %d x %d", height, width)
	}
	if c.Size() != height*width {
		preconditionf("grid %d x %d requires %d processes, communicator has %d",
			height, width, height*width, c.Size())
	}
	var (
		rank = c.Rank()
		row  = rank % height
		col  = rank / height
	)
	g = &Grid{
		height: height,
		width:  width,
		rank:   rank,
		row:    row,
		col:    col,
		gcd:    gcd(height, width),
	}
	g.lcm = height * width / g.gcd
	g.diagPath = mod(col-row, g.gcd)
	g.mdRank = diagPathRank(row, col, g.diagPath, height, width, g.lcm)

	g.vcComm = c.Dup()
	g.vrComm = c.Split(0, col+row*width)
	g.colComm = c.Split(col, row)
	g.rowComm = c.Split(row, col)
	g.mdComm = c.Split(g.diagPath, g.mdRank)
	g.mdPerpComm = c.Split(g.mdRank, g.diagPath)
	g.self = comm.NewSelf()
	return
}

func gcd(a, b int) int {
	for b != 0 {
		a, b = b, a%b
	}
	return a
}

func mod(a, s int) int {
	return (a%s + s) % s
}

// diagPathRank solves k = row (mod height), k = col-path (mod width) for the
// unique k in [0, lcm): the position of process (row, col) along its
// diagonal walk.
func diagPathRank(row, col, path, height, width, lcm int) (k int) {
	want := mod(col-path, width)
	for k = row; k < lcm; k += height {
		if k%width == want {
			return
		}
	}
	// The walk visits every process of the path exactly once, so the loop
	// always terminates above.
	panic(PreconditionError{Msg: "diagonal path position not found"})
}

func (g *Grid) Height() int { return g.height }
func (g *Grid) Width() int  { return g.width }
func (g *Grid) Size() int   { return g.height * g.width }
func (g *Grid) Rank() int   { return g.rank }
func (g *Grid) Row() int    { return g.row }
func (g *Grid) Col() int    { return g.col }
func (g *Grid) GCD() int    { return g.gcd }
func (g *Grid) LCM() int    { return g.lcm }

// VCRank and VRRank are this process's ranks in the two cyclic-vector orders.
func (g *Grid) VCRank() int { return g.rank }
func (g *Grid) VRRank() int { return g.col + g.row*g.width }

// VCToVR converts a VC rank to the VR rank of the same process.
func (g *Grid) VCToVR(vc int) int {
	row, col := vc%g.height, vc/g.height
	return col + row*g.width
}

// VRToVC converts a VR rank to the VC rank of the same process.
func (g *Grid) VRToVC(vr int) int {
	row, col := vr/g.width, vr%g.width
	return row + col*g.height
}

// DiagPath is this process's diagonal path; DiagPathRank its position on it.
func (g *Grid) DiagPath() int     { return g.diagPath }
func (g *Grid) DiagPathRank() int { return g.mdRank }

// DiagPathOf and DiagPathRankOf answer the same for arbitrary coordinates.
func (g *Grid) DiagPathOf(row, col int) int {
	return mod(col-row, g.gcd)
}

func (g *Grid) DiagPathRankOf(row, col int) int {
	return diagPathRank(row, col, g.DiagPathOf(row, col), g.height, g.width, g.lcm)
}

func (g *Grid) VCComm() *comm.Comm     { return g.vcComm }
func (g *Grid) VRComm() *comm.Comm     { return g.vrComm }
func (g *Grid) ColComm() *comm.Comm    { return g.colComm }
func (g *Grid) RowComm() *comm.Comm    { return g.rowComm }
func (g *Grid) MDComm() *comm.Comm     { return g.mdComm }
func (g *Grid) MDPerpComm() *comm.Comm { return g.mdPerpComm }
func (g *Grid) SelfComm() *comm.Comm   { return g.self }

// Counts sums this process's collective tallies across all grid
// communicators. ResetCounts clears them; together they bound the
// communication a protocol issued.
func (g *Grid) Counts() (total comm.Counts) {
	for _, c := range g.comms() {
		total = total.Add(c.Counts())
	}
	return
}

// SetProfiler attaches p to every grid communicator held by this process.
func (g *Grid) SetProfiler(p *comm.Profiler) {
	for _, c := range g.comms() {
		c.SetProfiler(p)
	}
}

func (g *Grid) ResetCounts() {
	for _, c := range g.comms() {
		c.ResetCounts()
	}
}

func (g *Grid) comms() []*comm.Comm {
	return []*comm.Comm{
		g.vcComm, g.vrComm, g.colComm, g.rowComm,
		g.mdComm, g.mdPerpComm, g.self,
	}
}

// DistSize is the stride of one distribution kind on this grid.
func (g *Grid) DistSize(d Dist) int {
	switch d {
	case MC:
		return g.height
	case MR:
		return g.width
	case MD:
		return g.lcm
	case VC, VR:
		return g.Size()
	case Star, Circ:
		return 1
	}
	preconditionf("unknown distribution kind %d", d)
	return 0
}

// DistRank is this process's rank under one distribution kind.
func (g *Grid) DistRank(d Dist) int {
	switch d {
	case MC:
		return g.row
	case MR:
		return g.col
	case MD:
		return g.mdRank
	case VC:
		return g.VCRank()
	case VR:
		return g.VRRank()
	case Star, Circ:
		return 0
	}
	preconditionf("unknown distribution kind %d", d)
	return 0
}

// DistComm is the communicator a (colDist, rowDist) layout distributes over.
func (g *Grid) DistComm(colDist, rowDist Dist) *comm.Comm {
	switch {
	case colDist == MC && rowDist == MR:
		return g.vcComm
	case colDist == MR && rowDist == MC:
		return g.vrComm
	case colDist == MC || rowDist == MC:
		return g.colComm
	case colDist == MR || rowDist == MR:
		return g.rowComm
	case colDist == VC || rowDist == VC:
		return g.vcComm
	case colDist == VR || rowDist == VR:
		return g.vrComm
	case colDist == MD || rowDist == MD:
		return g.mdComm
	}
	return g.self
}

// RedundantComm spans the processes holding identical replicas of a layout's
// data.
func (g *Grid) RedundantComm(colDist, rowDist Dist) *comm.Comm {
	switch {
	case colDist == Star && rowDist == Star:
		return g.vcComm
	case colDist == Star && (rowDist == MC || rowDist == MR):
		return perpOf(g, rowDist)
	case rowDist == Star && (colDist == MC || colDist == MR):
		return perpOf(g, colDist)
	}
	return g.self
}

func perpOf(g *Grid, d Dist) *comm.Comm {
	switch d {
	case MC:
		return g.rowComm
	case MR:
		return g.colComm
	}
	return g.self
}

// CrossComm spans the duplicated single-owner roots of a layout.
func (g *Grid) CrossComm(colDist, rowDist Dist) *comm.Comm {
	switch {
	case colDist == Circ && rowDist == Circ:
		return g.vcComm
	case colDist == MD || rowDist == MD:
		return g.mdPerpComm
	}
	return g.self
}
