package dispatcher

import (
	"sync"

	"github.com/qdispatch/qdispatch/models"
)

// ringCapacity bounds the retained decision history: oldest record
// dropped on overflow.
const ringCapacity = 200

// decisionRing is a fixed-capacity ring buffer of the newest decisions,
// owned exclusively by the Dispatcher.
type decisionRing struct {
	mu      sync.Mutex
	entries []models.DecisionRecord
	start   int
	size    int
}

func newDecisionRing() *decisionRing {
	return &decisionRing{entries: make([]models.DecisionRecord, ringCapacity)}
}

// add appends a record, dropping the oldest if the ring is full.
func (r *decisionRing) add(rec models.DecisionRecord) {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx := (r.start + r.size) % ringCapacity
	r.entries[idx] = rec
	if r.size < ringCapacity {
		r.size++
	} else {
		r.start = (r.start + 1) % ringCapacity
	}
}

// latest returns up to limit newest records, oldest-first within the
// returned slice.
func (r *decisionRing) latest(limit int) []models.DecisionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	if limit <= 0 || limit > r.size {
		limit = r.size
	}
	out := make([]models.DecisionRecord, limit)
	skip := r.size - limit
	for i := 0; i < limit; i++ {
		idx := (r.start + skip + i) % ringCapacity
		out[i] = r.entries[idx]
	}
	return out
}
