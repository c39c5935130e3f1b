package scanner

import "sync"

// progressTracker counts completed chunks of one scan
type progressTracker struct {
	mu        sync.Mutex
	completed int
	total     int
	report    ProgressFunc
}

func newProgressTracker(total int, report ProgressFunc) *progressTracker {
	return &progressTracker{total: total, report: report}
}

// chunkDone increments the counter and reports it while still holding the
// lock, so callbacks see strictly increasing values
func (p *progressTracker) chunkDone() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.completed++
	if p.report != nil {
		p.report(p.completed, p.total)
	}
}

func (p *progressTracker) snapshot() (completed, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.completed, p.total
}
