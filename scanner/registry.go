package scanner

import (
	"sync"

	"gocv.io/x/gocv"
)

type registryEntry struct {
	path string
	img  gocv.Mat
}

// registry holds the images kept so far. No two entries are duplicates of
// each other under the scan threshold. The whole compare-then-insert
// sequence for one candidate runs under mu.
type registry struct {
	mu      sync.Mutex
	entries []registryEntry
}

// close releases every kept matrix. Only called once all workers are done.
func (r *registry) close() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, e := range r.entries {
		e.img.Close()
	}
	r.entries = nil
}
