package comm

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
)

// Profiler is an explicit, caller-owned timing context. It replaces any
// notion of global timer state: the caller creates one, attaches it to the
// communicator handles it cares about, and reads it back when done. Spans are
// scoped start/stop handles; all methods are nil-safe so an unattached
// profiler costs nothing.
type Profiler struct {
	mu    sync.Mutex
	time  map[string]time.Duration
	bytes map[string]int64
	calls map[string]int64
}

func NewProfiler() *Profiler {
	return &Profiler{
		time:  make(map[string]time.Duration),
		bytes: make(map[string]int64),
		calls: make(map[string]int64),
	}
}

// Span is one scoped measurement, closed by Stop.
type Span struct {
	p     *Profiler
	name  string
	t0    time.Time
	bytes int64
}

func (p *Profiler) Start(name string) *Span {
	if p == nil {
		return nil
	}
	return &Span{p: p, name: name, t0: time.Now()}
}

func (s *Span) AddBytes(n int) {
	if s == nil {
		return
	}
	s.bytes += int64(n)
}

func (s *Span) Stop() {
	if s == nil {
		return
	}
	s.p.mu.Lock()
	s.p.time[s.name] += time.Since(s.t0)
	s.p.bytes[s.name] += s.bytes
	s.p.calls[s.name]++
	s.p.mu.Unlock()
}

// TotalBytes is the byte volume recorded across all span names.
func (p *Profiler) TotalBytes() (n int64) {
	if p == nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, b := range p.bytes {
		n += b
	}
	return
}

// Report renders per-collective totals, one line per span name.
func (p *Profiler) Report() string {
	if p == nil {
		return ""
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.time))
	for name := range p.time {
		names = append(names, name)
	}
	sort.Strings(names)
	var sb strings.Builder
	for _, name := range names {
		fmt.Fprintf(&sb, "%-14s %6d calls  %12v  %s moved\n",
			name, p.calls[name], p.time[name], humanize.Bytes(uint64(p.bytes[name])))
	}
	return sb.String()
}
