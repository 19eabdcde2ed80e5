package scanner

import "sync/atomic"

// Guard prevents overlapping scans. A scan triggered while another is in
// progress is skipped, not queued.
type Guard struct {
	running atomic.Bool
}

// TryRun runs fn unless a run is already in progress and reports whether fn ran.
func (g *Guard) TryRun(fn func()) bool {
	if !g.running.CompareAndSwap(false, true) {
		return false
	}
	defer g.running.Store(false)
	fn()
	return true
}

// Running reports whether a scan is in progress.
func (g *Guard) Running() bool {
	return g.running.Load()
}
