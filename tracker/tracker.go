// Package tracker owns the sole mapping from dedup key to TrackedRequest,
// plus a category secondary index, guarded by a single mutex. Every
// critical section is O(1) except Cleanup, which scans all entries.
package tracker

import (
	"crypto/sha1"
	"encoding/hex"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/qdispatch/qdispatch/models"
)

// DuplicateWindow is how recently a key must have been inserted for a
// resubmission to count as a duplicate.
const DuplicateWindow = 24 * time.Hour

// DefaultMaxAge is the eviction age used by the periodic cleanup loop.
const DefaultMaxAge = 7 * 24 * time.Hour

var btihPattern = regexp.MustCompile(`(?i)btih:([0-9a-f]{40})`)

// Key derives the dedup key for a magnet: the 40-hex infohash if present,
// otherwise a SHA-1 fallback over the whole magnet string.
func Key(magnet string) string {
	if m := btihPattern.FindStringSubmatch(magnet); m != nil {
		return strings.ToLower(m[1])
	}
	sum := sha1.Sum([]byte(magnet))
	return hex.EncodeToString(sum[:])
}

// Tracker is the exclusive owner of its maps; external callers only ever
// observe a consistent view through its methods.
type Tracker struct {
	mu         sync.Mutex
	byKey      map[string]*models.TrackedRequest
	byCategory map[string][]string
	now        func() time.Time
}

// New builds an empty Tracker.
func New() *Tracker {
	return &Tracker{
		byKey:      make(map[string]*models.TrackedRequest),
		byCategory: make(map[string][]string),
		now:        time.Now,
	}
}

// IsDuplicate reports whether req's key matches a TrackedRequest inserted
// within DuplicateWindow, returning that entry for the caller to build a
// reason message from.
func (t *Tracker) IsDuplicate(req models.SubmitRequest) (bool, models.TrackedRequest) {
	key := Key(req.Magnet)
	t.mu.Lock()
	defer t.mu.Unlock()
	existing, ok := t.byKey[key]
	if !ok {
		return false, models.TrackedRequest{}
	}
	if t.now().Sub(existing.InsertedAt) > DuplicateWindow {
		return false, models.TrackedRequest{}
	}
	return true, *existing
}

// Add inserts or replaces the entry for req, returning its key.
func (t *Tracker) Add(req models.SubmitRequest, source string) string {
	key := Key(req.Magnet)
	entry := &models.TrackedRequest{
		Key:        key,
		Name:       req.Name,
		Category:   req.Category,
		SizeGB:     req.SizeGB,
		Magnet:     req.Magnet,
		InsertedAt: t.now(),
		Source:     source,
		Status:     models.TrackStatusPending,
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, existed := t.byKey[key]; !existed {
		t.byCategory[req.Category] = append(t.byCategory[req.Category], key)
	}
	t.byKey[key] = entry
	return key
}

// UpdateStatus mutates the status and, optionally, the selected node for
// key. Silent no-op if key is absent.
func (t *Tracker) UpdateStatus(key, status, selectedNode string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	entry, ok := t.byKey[key]
	if !ok {
		return
	}
	entry.Status = status
	if selectedNode != "" {
		entry.SelectedNode = selectedNode
	}
}

// Cleanup evicts entries older than maxAge and returns the count evicted.
func (t *Tracker) Cleanup(maxAge time.Duration) int {
	cutoff := t.now().Add(-maxAge)
	t.mu.Lock()
	defer t.mu.Unlock()
	evicted := 0
	for key, entry := range t.byKey {
		if entry.InsertedAt.Before(cutoff) {
			delete(t.byKey, key)
			evicted++
		}
	}
	for category, keys := range t.byCategory {
		kept := keys[:0]
		for _, k := range keys {
			if _, ok := t.byKey[k]; ok {
				kept = append(kept, k)
			}
		}
		if len(kept) == 0 {
			delete(t.byCategory, category)
		} else {
			t.byCategory[category] = kept
		}
	}
	return evicted
}

// Len reports the number of tracked entries, mainly for tests and metrics.
func (t *Tracker) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.byKey)
}
