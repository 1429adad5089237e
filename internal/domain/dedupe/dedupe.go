// Package dedupe tracks dedup keys so repeated event taggings are dropped
// with first-occurrence-wins semantics.
package dedupe

import (
	"context"
	"strconv"
	"strings"
	"sync"
)

// Deduper records seen keys.
type Deduper interface {
	// SeenAndRecord atomically checks if key was seen and records it if not.
	// Returns true if key was already seen, false if it was newly recorded.
	SeenAndRecord(ctx context.Context, key string) bool

	// Size returns the number of keys currently held.
	Size() int
}

// keySep cannot appear in a CSV cell read by the pipeline.
const keySep = "\x1f"

// Key builds the dedup key of an event. t takes the millisecond text written
// to the manifest, so 12.0004 and 12.0 collide. videoID must already be the clean
// name and action the canonical label.
func Key(videoID string, t float64, action, player string) string {
	return strings.Join([]string{videoID, strconv.FormatFloat(t, 'f', 3, 64), action, player}, keySep)
}

// inMemoryDeduper implements Deduper with a map. In bounded mode the oldest
// keys are evicted first once maxSize is reached.
type inMemoryDeduper struct {
	mu      sync.Mutex
	seen    map[string]struct{}
	order   []string // insertion order, bounded mode only
	maxSize int      // 0 or negative = unbounded
}

// NewInMemoryDeduper creates a new in-memory deduper. The default is
// unbounded, which a manifest run needs for exact dedup.
func NewInMemoryDeduper(opts ...Option) Deduper {
	d := &inMemoryDeduper{}
	for _, opt := range opts {
		opt(d)
	}
	d.seen = make(map[string]struct{})
	return d
}

func (d *inMemoryDeduper) SeenAndRecord(_ context.Context, key string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.seen[key]; ok {
		return true
	}
	if d.maxSize > 0 {
		if len(d.order) >= d.maxSize {
			oldest := d.order[0]
			d.order = d.order[1:]
			delete(d.seen, oldest)
		}
		d.order = append(d.order, key)
	}
	d.seen[key] = struct{}{}
	return false
}

func (d *inMemoryDeduper) Size() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}
