package centerd

import (
	"sync"

	"github.com/GoSim-25-26J-441/optimization-center/internal/center"
	"github.com/GoSim-25-26J-441/optimization-center/pkg/models"
)

// snapshotFeed buffers center snapshots for a slow consumer. Consecutive
// in-progress snapshots coalesce into the newest one; a complete snapshot is
// held until it has been read, so a restart or reset cannot replace it.
type snapshotFeed struct {
	c    *center.Center
	topN int

	mu     sync.Mutex
	queue  []center.Snapshot
	ready  chan struct{}
	cancel func()
}

func newSnapshotFeed(c *center.Center, topN int) *snapshotFeed {
	f := &snapshotFeed{c: c, topN: topN, ready: make(chan struct{}, 1)}
	f.cancel = c.Watch(f.push)
	return f
}

func (f *snapshotFeed) push(s center.Snapshot) {
	s = f.resize(s)

	f.mu.Lock()
	if n := len(f.queue); n > 0 && !isTerminal(f.queue[n-1]) {
		f.queue[n-1] = s
	} else {
		f.queue = append(f.queue, s)
	}
	f.mu.Unlock()
	f.signal()
}

// resize fits the candidate list of a pushed snapshot to the feed's topN.
// A wider view is re-read only while the center still shows the same run
// and state, otherwise the pushed snapshot is kept as is.
func (f *snapshotFeed) resize(s center.Snapshot) center.Snapshot {
	switch {
	case f.topN == center.DefaultTopN:
		return s
	case f.topN > 0 && f.topN < len(s.Solutions):
		s.Solutions = s.Solutions[:f.topN]
		return s
	case f.topN > 0 && len(s.Solutions) < center.DefaultTopN:
		return s
	}
	fresh := f.c.Snapshot(f.topN)
	if fresh.RunID != s.RunID || fresh.State != s.State {
		return s
	}
	return fresh
}

func (f *snapshotFeed) signal() {
	select {
	case f.ready <- struct{}{}:
	default:
	}
}

// Ready receives when Next has a snapshot to return
func (f *snapshotFeed) Ready() <-chan struct{} {
	return f.ready
}

// Next pops the oldest buffered snapshot
func (f *snapshotFeed) Next() (center.Snapshot, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.queue) == 0 {
		return center.Snapshot{}, false
	}
	s := f.queue[0]
	f.queue[0] = center.Snapshot{}
	f.queue = f.queue[1:]
	if len(f.queue) > 0 {
		f.signal()
	}
	return s, true
}

func (f *snapshotFeed) Close() {
	f.cancel()
}

// isTerminal reports whether no further snapshots are expected for the run
func isTerminal(s center.Snapshot) bool {
	return s.State == models.RunStateComplete
}
