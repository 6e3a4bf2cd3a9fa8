package comm

import "github.com/pkg/errors"

// Counts tallies the collective calls issued through one handle. The
// redistribution layer's zero-communication claims are verified against it.
type Counts struct {
	AllGathers     uint64
	ReduceScatters uint64
	AllToAlls      uint64
	Broadcasts     uint64
	Gathers        uint64
	Scatters       uint64
	Sends          uint64
	Recvs          uint64
	Barriers       uint64
}

// Collectives returns the total number of collective calls (point-to-point
// traffic excluded).
func (n Counts) Collectives() uint64 {
	return n.AllGathers + n.ReduceScatters + n.AllToAlls + n.Broadcasts +
		n.Gathers + n.Scatters + n.Barriers
}

// Add accumulates another tally, for aggregating across handles.
func (n Counts) Add(m Counts) Counts {
	n.AllGathers += m.AllGathers
	n.ReduceScatters += m.ReduceScatters
	n.AllToAlls += m.AllToAlls
	n.Broadcasts += m.Broadcasts
	n.Gathers += m.Gathers
	n.Scatters += m.Scatters
	n.Sends += m.Sends
	n.Recvs += m.Recvs
	n.Barriers += m.Barriers
	return n
}

func (c *Comm) Counts() Counts { return c.counts }
func (c *Comm) ResetCounts()   { c.counts = Counts{} }

// AllGather collects every member's slice; all members return the
// contributions indexed by rank. Lengths may differ between ranks.
func (c *Comm) AllGather(send []float64) (recv [][]float64) {
	c.counts.AllGathers++
	sp := c.prof.Start("allgather")
	all := c.g.exchange(c.rank, send)
	recv = make([][]float64, c.g.size)
	total := 0
	for r, v := range all {
		part := v.([]float64)
		recv[r] = append([]float64(nil), part...)
		total += len(part)
	}
	sp.AddBytes(8 * total)
	sp.Stop()
	return
}

// ReduceScatter sums the members' send buffers elementwise and scatters the
// result: member r returns elements [r*recvCount, (r+1)*recvCount). Every
// member must supply size*recvCount elements.
func (c *Comm) ReduceScatter(send []float64, recvCount int) (recv []float64) {
	c.counts.ReduceScatters++
	sp := c.prof.Start("reducescatter")
	need := c.g.size * recvCount
	if len(send) != need {
		panic(errors.Errorf("reduce-scatter: send length %d, need %d (%d members x %d)",
			len(send), need, c.g.size, recvCount))
	}
	all := c.g.exchange(c.rank, send)
	recv = make([]float64, recvCount)
	lo := c.rank * recvCount
	for _, v := range all {
		part := v.([]float64)
		for i := 0; i < recvCount; i++ {
			recv[i] += part[lo+i]
		}
	}
	sp.AddBytes(8 * need)
	sp.Stop()
	return
}

// AllToAll delivers send[j] to member j; member i returns recv with recv[j]
// holding what member j addressed to it. Per-destination lengths may differ
// (the irregular, variable-count variant).
func (c *Comm) AllToAll(send [][]float64) (recv [][]float64) {
	c.counts.AllToAlls++
	sp := c.prof.Start("alltoall")
	if len(send) != c.g.size {
		panic(errors.Errorf("all-to-all: %d send buffers for %d members", len(send), c.g.size))
	}
	all := c.g.exchange(c.rank, send)
	recv = make([][]float64, c.g.size)
	total := 0
	for r, v := range all {
		part := v.([][]float64)[c.rank]
		recv[r] = append([]float64(nil), part...)
		total += len(part)
	}
	sp.AddBytes(8 * total)
	sp.Stop()
	return
}

// Broadcast distributes root's buffer to every member; non-root members pass
// nil and all members return a copy of root's data.
func (c *Comm) Broadcast(send []float64, root int) (recv []float64) {
	c.counts.Broadcasts++
	sp := c.prof.Start("broadcast")
	c.checkRoot(root)
	all := c.g.exchange(c.rank, send)
	src := all[root].([]float64)
	recv = append([]float64(nil), src...)
	sp.AddBytes(8 * len(recv))
	sp.Stop()
	return
}

// Gather collects every member's slice at root; root returns the
// contributions indexed by rank, others return nil.
func (c *Comm) Gather(send []float64, root int) (recv [][]float64) {
	c.counts.Gathers++
	sp := c.prof.Start("gather")
	c.checkRoot(root)
	all := c.g.exchange(c.rank, send)
	if c.rank == root {
		recv = make([][]float64, c.g.size)
		total := 0
		for r, v := range all {
			part := v.([]float64)
			recv[r] = append([]float64(nil), part...)
			total += len(part)
		}
		sp.AddBytes(8 * total)
	}
	sp.Stop()
	return
}

// Scatter distributes root's per-member buffers; member r returns a copy of
// parts[r]. Non-root members pass nil.
func (c *Comm) Scatter(parts [][]float64, root int) (recv []float64) {
	c.counts.Scatters++
	sp := c.prof.Start("scatter")
	c.checkRoot(root)
	if c.rank == root && len(parts) != c.g.size {
		panic(errors.Errorf("scatter: %d buffers for %d members", len(parts), c.g.size))
	}
	all := c.g.exchange(c.rank, parts)
	src := all[root].([][]float64)[c.rank]
	recv = append([]float64(nil), src...)
	sp.AddBytes(8 * len(recv))
	sp.Stop()
	return
}

// Send delivers a copy of data to the target rank's receive queue.
func (c *Comm) Send(to int, data []float64) {
	c.counts.Sends++
	c.checkRoot(to)
	c.g.mesh[c.rank][to] <- append([]float64(nil), data...)
}

// Recv blocks for the next message from the given rank.
func (c *Comm) Recv(from int) []float64 {
	c.counts.Recvs++
	c.checkRoot(from)
	return <-c.g.mesh[from][c.rank]
}

func (c *Comm) checkRoot(r int) {
	if r < 0 || r >= c.g.size {
		panic(errors.Errorf("rank %d out of range [0,%d)", r, c.g.size))
	}
}
