package engine

import (
	"sync"

	"github.com/latticefx/motion/internal/graph"
	"github.com/latticefx/motion/internal/model"
)

// GraphCache memoizes built property graphs by structural hash. The hash
// covers node paths, links, and expressions, so keyframe edits reuse the
// cached graph and only structural edits trigger a rebuild.
//
// Safe for concurrent use; render workers share one cache.
type GraphCache struct {
	mu     sync.RWMutex
	graphs map[string]*graph.Graph
}

// NewGraphCache returns an empty graph cache.
func NewGraphCache() *GraphCache {
	return &GraphCache{graphs: make(map[string]*graph.Graph)}
}

// Get returns the graph for a project, building it on a cache miss.
// Build failures (cycles) are not cached; a structural edit that removes
// the cycle gets a fresh build.
func (c *GraphCache) Get(p *model.Project) (*graph.Graph, error) {
	key, err := graph.StructuralHash(p)
	if err != nil {
		return nil, err
	}

	c.mu.RLock()
	g, ok := c.graphs[key]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	g, err = graph.Build(p)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.graphs[key] = g
	c.mu.Unlock()
	return g, nil
}
