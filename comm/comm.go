// Package comm is an in-process message-passing layer: a World of cooperating
// goroutine ranks, communicators carved out of it by duplication and
// splitting, and the blocking collectives the redistribution protocols are
// built from (all-gather, reduce-scatter, variable-count all-to-all,
// broadcast, gather/scatter and point-to-point send/receive).
//
// Every member of a communicator must invoke the same collectives in the same
// order; a collective blocks each caller until all members have contributed,
// then all resume with the combined result. There is no cancellation or
// timeout: a collective completes or the whole communicator is considered
// failed.
package comm

import (
	"sort"
	"sync"

	"github.com/pkg/errors"
)

// group is the shared state behind one communicator: a generation-counted
// rendezvous where every member deposits a contribution and leaves with a
// snapshot of all of them, plus a channel mesh for point-to-point traffic.
type group struct {
	size int

	mu       sync.Mutex
	cond     *sync.Cond
	arrived  int
	gen      uint64
	contrib  []interface{}
	snapshot []interface{}

	mesh [][]chan []float64 // [from][to]
}

func newGroup(size int) (g *group) {
	g = &group{
		size:    size,
		contrib: make([]interface{}, size),
		mesh:    make([][]chan []float64, size),
	}
	g.cond = sync.NewCond(&g.mu)
	for i := 0; i < size; i++ {
		g.mesh[i] = make([]chan []float64, size)
		for j := 0; j < size; j++ {
			g.mesh[i][j] = make(chan []float64, size)
		}
	}
	return
}

// exchange deposits in and blocks until every member of the group has done
// the same, returning the contributions indexed by rank. The returned slice
// is shared between members and must not be retained past the next exchange;
// callers copy out what they keep.
func (g *group) exchange(rank int, in interface{}) []interface{} {
	g.mu.Lock()
	defer g.mu.Unlock()
	gen := g.gen
	g.contrib[rank] = in
	g.arrived++
	if g.arrived == g.size {
		g.snapshot = append([]interface{}(nil), g.contrib...)
		g.arrived = 0
		g.gen++
		g.cond.Broadcast()
	} else {
		for gen == g.gen {
			g.cond.Wait()
		}
	}
	return g.snapshot
}

// Comm is one rank's handle on a communicator. Handles are not safe for use
// by more than one goroutine; each rank owns its handle.
type Comm struct {
	rank int
	g    *group

	counts Counts
	prof   *Profiler
}

// World owns the top-level communicator spanning all ranks.
type World struct {
	size  int
	g     *group
	comms []*Comm
}

// NewWorld creates a world of size ranks. Each participating goroutine takes
// its own handle via Comm(rank).
func NewWorld(size int) (*World, error) {
	if size < 1 {
		return nil, errors.Errorf("world size must be positive, got %d", size)
	}
	w := &World{size: size, g: newGroup(size)}
	w.comms = make([]*Comm, size)
	for r := 0; r < size; r++ {
		w.comms[r] = &Comm{rank: r, g: w.g}
	}
	return w, nil
}

func (w *World) Size() int { return w.size }

func (w *World) Comm(rank int) *Comm {
	if rank < 0 || rank >= w.size {
		panic(errors.Errorf("world rank %d out of range [0,%d)", rank, w.size))
	}
	return w.comms[rank]
}

// Run spawns one goroutine per rank, each holding its own handle, and blocks
// until all of them return.
func (w *World) Run(fn func(c *Comm)) {
	var wg sync.WaitGroup
	for r := 0; r < w.size; r++ {
		wg.Add(1)
		go func(c *Comm) {
			defer wg.Done()
			fn(c)
		}(w.comms[r])
	}
	wg.Wait()
}

func (c *Comm) Rank() int { return c.rank }
func (c *Comm) Size() int { return c.g.size }

// SetProfiler attaches a caller-owned profiling context to this handle. A nil
// profiler disables timing.
func (c *Comm) SetProfiler(p *Profiler) { c.prof = p }

// NewSelf returns a size-1 communicator. Collectives over it are local
// copies; it exists so layout queries can treat every kind pair uniformly.
func NewSelf() *Comm {
	return &Comm{rank: 0, g: newGroup(1)}
}

type splitInfo struct {
	color, key int
}

// Split partitions the communicator's members by color; members sharing a
// color form a new communicator with ranks ordered by (key, old rank). All
// members must call Split collectively.
func (c *Comm) Split(color, key int) *Comm {
	all := c.g.exchange(c.rank, splitInfo{color: color, key: key})

	type member struct {
		oldRank, key int
	}
	var members []member
	leader := -1
	for r, v := range all {
		si := v.(splitInfo)
		if si.color != color {
			continue
		}
		if leader < 0 {
			leader = r
		}
		members = append(members, member{oldRank: r, key: si.key})
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].key != members[j].key {
			return members[i].key < members[j].key
		}
		return members[i].oldRank < members[j].oldRank
	})
	newRank := -1
	for i, m := range members {
		if m.oldRank == c.rank {
			newRank = i
		}
	}

	// The lowest old rank of each color allocates the shared group; the
	// second exchange hands it to the rest of the color.
	var mine interface{}
	if c.rank == leader {
		mine = newGroup(len(members))
	}
	all = c.g.exchange(c.rank, mine)
	return &Comm{rank: newRank, g: all[leader].(*group)}
}

// Dup returns a new communicator with the same membership and rank order.
func (c *Comm) Dup() *Comm {
	return c.Split(0, c.rank)
}

// Barrier blocks until every member has entered it.
func (c *Comm) Barrier() {
	c.counts.Barriers++
	c.g.exchange(c.rank, nil)
}
