package comm

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorld(t *testing.T) {
	// World ranks are dense and stable
	{
		world, err := NewWorld(4)
		require.NoError(t, err)
		assert.Equal(t, 4, world.Size())
		assert.Equal(t, 2, world.Comm(2).Rank())
		assert.Panics(t, func() { world.Comm(4) })
		_, err = NewWorld(0)
		assert.Error(t, err)
	}
	// Run spawns every rank exactly once
	{
		world, _ := NewWorld(8)
		var (
			mu   sync.Mutex
			seen = make(map[int]int)
		)
		world.Run(func(c *Comm) {
			mu.Lock()
			seen[c.Rank()]++
			mu.Unlock()
		})
		assert.Equal(t, 8, len(seen))
		for _, n := range seen {
			assert.Equal(t, 1, n)
		}
	}
}

func TestCollectives(t *testing.T) {
	// AllGather with per-rank lengths
	{
		world, _ := NewWorld(3)
		world.Run(func(c *Comm) {
			send := make([]float64, c.Rank())
			for i := range send {
				send[i] = float64(c.Rank())
			}
			recv := c.AllGather(send)
			require.Equal(t, 3, len(recv))
			for r, part := range recv {
				assert.Equal(t, r, len(part))
				for _, v := range part {
					assert.Equal(t, float64(r), v)
				}
			}
		})
	}
	// ReduceScatter sums elementwise and deals out segments
	{
		world, _ := NewWorld(3)
		world.Run(func(c *Comm) {
			// Every rank contributes [0, 1, ..., 5] scaled by its rank+1.
			send := make([]float64, 6)
			for i := range send {
				send[i] = float64(i * (c.Rank() + 1))
			}
			recv := c.ReduceScatter(send, 2)
			require.Equal(t, 2, len(recv))
			// Sum of scales is 1+2+3 = 6.
			lo := c.Rank() * 2
			assert.Equal(t, float64(6*lo), recv[0])
			assert.Equal(t, float64(6*(lo+1)), recv[1])
		})
	}
	// ReduceScatter rejects short buffers
	{
		world, _ := NewWorld(2)
		world.Run(func(c *Comm) {
			assert.Panics(t, func() { c.ReduceScatter(make([]float64, 3), 2) })
			c.ReduceScatter(make([]float64, 4), 2)
		})
	}
	// AllToAll routes the irregular variant
	{
		world, _ := NewWorld(3)
		world.Run(func(c *Comm) {
			// Rank r sends r+1 copies of value 10*r+d to destination d.
			send := make([][]float64, 3)
			for d := range send {
				for k := 0; k <= c.Rank(); k++ {
					send[d] = append(send[d], float64(10*c.Rank()+d))
				}
			}
			recv := c.AllToAll(send)
			for r, part := range recv {
				require.Equal(t, r+1, len(part))
				for _, v := range part {
					assert.Equal(t, float64(10*r+c.Rank()), v)
				}
			}
		})
	}
	// Broadcast, Gather, Scatter from a non-zero root
	{
		world, _ := NewWorld(4)
		world.Run(func(c *Comm) {
			var send []float64
			if c.Rank() == 2 {
				send = []float64{3, 1, 4}
			}
			recv := c.Broadcast(send, 2)
			assert.Equal(t, []float64{3, 1, 4}, recv)

			gathered := c.Gather([]float64{float64(c.Rank())}, 2)
			if c.Rank() == 2 {
				require.Equal(t, 4, len(gathered))
				for r, part := range gathered {
					assert.Equal(t, []float64{float64(r)}, part)
				}
			} else {
				assert.Nil(t, gathered)
			}

			var parts [][]float64
			if c.Rank() == 2 {
				parts = [][]float64{{0}, {1}, {2}, {3}}
			}
			mine := c.Scatter(parts, 2)
			assert.Equal(t, []float64{float64(c.Rank())}, mine)
		})
	}
	// Send / Recv point to point
	{
		world, _ := NewWorld(2)
		world.Run(func(c *Comm) {
			if c.Rank() == 0 {
				c.Send(1, []float64{42})
			} else {
				assert.Equal(t, []float64{42}, c.Recv(0))
			}
		})
	}
}

func TestSplit(t *testing.T) {
	// Colors partition, keys order the new ranks
	{
		world, _ := NewWorld(6)
		world.Run(func(c *Comm) {
			var (
				color = c.Rank() % 2
				key   = -c.Rank() // reverse order within each color
			)
			sub := c.Split(color, key)
			assert.Equal(t, 3, sub.Size())
			// Old ranks {0,2,4} and {1,3,5}; reversed keys put the
			// highest old rank first.
			want := map[int]int{0: 2, 2: 1, 4: 0, 1: 2, 3: 1, 5: 0}
			assert.Equal(t, want[c.Rank()], sub.Rank())

			// The new communicator is fully functional.
			recv := sub.AllGather([]float64{float64(c.Rank())})
			assert.Equal(t, 3, len(recv))
		})
	}
	// Dup preserves membership and order
	{
		world, _ := NewWorld(3)
		world.Run(func(c *Comm) {
			d := c.Dup()
			assert.Equal(t, c.Rank(), d.Rank())
			assert.Equal(t, c.Size(), d.Size())
			d.Barrier()
		})
	}
	// A self communicator is a size-1 collective domain
	{
		s := NewSelf()
		recv := s.AllGather([]float64{7})
		assert.Equal(t, [][]float64{{7}}, recv)
	}
}

func TestCounts(t *testing.T) {
	world, _ := NewWorld(2)
	world.Run(func(c *Comm) {
		c.AllGather(nil)
		c.AllGather(nil)
		c.Barrier()
		n := c.Counts()
		assert.Equal(t, uint64(2), n.AllGathers)
		assert.Equal(t, uint64(1), n.Barriers)
		assert.Equal(t, uint64(3), n.Collectives())
		c.ResetCounts()
		assert.Equal(t, uint64(0), c.Counts().Collectives())
	})
}

func TestProfiler(t *testing.T) {
	// Spans accumulate per collective name; nil profilers are inert
	{
		world, _ := NewWorld(2)
		p := NewProfiler()
		world.Run(func(c *Comm) {
			if c.Rank() == 0 {
				c.SetProfiler(p)
			}
			c.AllGather([]float64{1, 2})
			c.Broadcast([]float64{1}, 0)
		})
		assert.Equal(t, int64(8*4+8*1), p.TotalBytes())
		assert.Contains(t, p.Report(), "allgather")

		var nilP *Profiler
		sp := nilP.Start("x")
		sp.AddBytes(10)
		sp.Stop()
		assert.Equal(t, int64(0), nilP.TotalBytes())
	}
}
