package particles

import (
	"sort"
	"sync"

	"github.com/latticefx/motion/internal/model"
)

// Checkpoint is the full simulation state at a frame boundary: the live
// particle set plus the RNG position, ID counter, and emission carry-over.
// Resuming from a checkpoint and stepping forward is bit-identical to
// having simulated from frame 0.
type Checkpoint struct {
	Frame     int              `json:"frame"`
	Particles []model.Particle `json:"particles"`
	RNGState  uint64           `json:"rng_state"`
	NextID    uint64           `json:"next_id"`
	EmitAcc   float64          `json:"emit_acc"`
}

// CheckpointCache stores checkpoints keyed by config hash. Implementations
// must be append-only and idempotent: Put with a (hash, frame) pair that
// already exists is a no-op, never an overwrite, because any two
// checkpoints at the same key are byte-identical by construction.
type CheckpointCache interface {
	// Nearest returns the stored checkpoint with the largest frame <= frame,
	// or ok=false when none exists.
	Nearest(hash string, frame int) (Checkpoint, bool, error)

	// Put stores a checkpoint. Duplicate (hash, frame) pairs are ignored.
	Put(hash string, cp Checkpoint) error
}

// MemoryCache is the in-process CheckpointCache. Safe for concurrent use;
// evaluation of many frames in parallel shares one cache.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string][]Checkpoint // sorted ascending by frame
}

// NewMemoryCache returns an empty in-memory checkpoint cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string][]Checkpoint)}
}

// Nearest implements CheckpointCache.
func (c *MemoryCache) Nearest(hash string, frame int) (Checkpoint, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	cps := c.entries[hash]
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Frame > frame })
	if i == 0 {
		return Checkpoint{}, false, nil
	}
	return cloneCheckpoint(cps[i-1]), true, nil
}

// Put implements CheckpointCache.
func (c *MemoryCache) Put(hash string, cp Checkpoint) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	cps := c.entries[hash]
	i := sort.Search(len(cps), func(i int) bool { return cps[i].Frame >= cp.Frame })
	if i < len(cps) && cps[i].Frame == cp.Frame {
		return nil
	}
	stored := cloneCheckpoint(cp)
	cps = append(cps, Checkpoint{})
	copy(cps[i+1:], cps[i:])
	cps[i] = stored
	c.entries[hash] = cps
	return nil
}

// Len reports the number of checkpoints stored under a config hash.
func (c *MemoryCache) Len(hash string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries[hash])
}

func cloneCheckpoint(cp Checkpoint) Checkpoint {
	out := cp
	out.Particles = append([]model.Particle(nil), cp.Particles...)
	return out
}
