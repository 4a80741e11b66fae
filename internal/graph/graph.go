// Package graph builds the property dependency graph a frame evaluation
// runs over.
//
// Every animatable property in the project lands in a flat arena indexed
// by PropertyID; pickwhip links become edges between ids, never live
// pointers. Cycle detection and topological ordering are then plain array
// walks, and the graph's canonical hash gives callers a cheap structural
// cache key: same links, same graph, same order.
package graph

import (
	"sort"

	"github.com/latticefx/motion/internal/canon"
	"github.com/latticefx/motion/internal/model"
)

// PropertyID indexes the arena. Ids are stable for a given project
// traversal order (compositions, then layers, then properties in
// declaration order), which makes the topological tie-break deterministic.
type PropertyID int

// Node is one arena slot.
type Node struct {
	ID   PropertyID
	Path model.PropertyPath
	Prop *model.Property
}

// MissingLink records a link whose target no longer resolves (deleted
// layer or property). The linking property degrades to its own default
// and the build succeeds; the evaluator surfaces this as a warning.
type MissingLink struct {
	From   model.PropertyPath
	Target model.PropertyPath
}

// Graph is an immutable dependency graph over a project's properties.
// Safe for concurrent read access; rebuilds produce new Graph values.
type Graph struct {
	nodes []Node
	index map[model.PropertyPath]PropertyID

	// dependents[d] lists properties whose value derives from d.
	dependents [][]PropertyID
	// driver[n] is the dependency of n, or -1. A property has at most
	// one driver (its link); -1 also covers links recorded in missing.
	driver []PropertyID

	order   []PropertyID
	missing []MissingLink
	hash    string
}

// propertyNames is the fixed traversal order of the per-layer property
// block. Declaration order matters: it fixes arena ids, and arena ids fix
// the topological tie-break.
var transformNames = []string{
	"transform.anchor",
	"transform.position",
	"transform.scale",
	"transform.rotation",
	"opacity",
}

var cameraNames = []string{
	"camera.position",
	"camera.target",
	"camera.zoom",
}

// walkProperties visits every animatable property in the fixed traversal
// order that defines arena ids.
func walkProperties(p *model.Project, visit func(comp, layer, name string, prop *model.Property)) {
	for _, comp := range p.Compositions {
		for _, layer := range comp.Layers {
			for _, name := range transformNames {
				if prop := layer.PropertyByName(name); prop != nil {
					visit(comp.ID, layer.ID, name, prop)
				}
			}
			for _, name := range sortedKeys(layer.Extra) {
				visit(comp.ID, layer.ID, name, layer.Extra[name])
			}
		}
		if comp.Camera != nil {
			for _, name := range cameraNames {
				if prop := comp.Camera.PropertyByName(name); prop != nil {
					visit(comp.ID, "camera", name, prop)
				}
			}
		}
	}
}

// Build constructs and orders the dependency graph for a project.
// Returns a CycleError when the link set admits no evaluation order.
func Build(p *model.Project) (*Graph, error) {
	g := &Graph{index: make(map[model.PropertyPath]PropertyID)}

	walkProperties(p, func(comp, layer, name string, prop *model.Property) {
		path := model.PropertyPath{Comp: comp, Layer: layer, Property: name}
		id := PropertyID(len(g.nodes))
		g.nodes = append(g.nodes, Node{ID: id, Path: path, Prop: prop})
		g.index[path] = id
	})

	g.dependents = make([][]PropertyID, len(g.nodes))
	g.driver = make([]PropertyID, len(g.nodes))
	for i := range g.driver {
		g.driver[i] = -1
	}

	for _, n := range g.nodes {
		link := n.Prop.Link
		if link == nil {
			continue
		}
		src, ok := g.index[link.Target]
		if !ok {
			g.missing = append(g.missing, MissingLink{From: n.Path, Target: link.Target})
			continue
		}
		g.driver[n.ID] = src
		g.dependents[src] = append(g.dependents[src], n.ID)
	}

	if cycle := g.findCycle(); cycle != nil {
		return nil, &CycleError{Path: cycle}
	}

	g.order = g.topoOrder()

	hash, err := g.computeHash()
	if err != nil {
		return nil, err
	}
	g.hash = hash

	return g, nil
}

// Len returns the arena size.
func (g *Graph) Len() int { return len(g.nodes) }

// Node returns the arena slot for an id.
func (g *Graph) Node(id PropertyID) Node { return g.nodes[id] }

// Lookup resolves a path to its arena id.
func (g *Graph) Lookup(path model.PropertyPath) (PropertyID, bool) {
	id, ok := g.index[path]
	return id, ok
}

// Order returns the topological evaluation order: every driver precedes
// all of its dependents. The slice is owned by the graph; callers must
// not mutate it.
func (g *Graph) Order() []PropertyID { return g.order }

// Driver returns the dependency feeding a property, if any. Links whose
// target is missing report false here and show up in MissingLinks.
func (g *Graph) Driver(id PropertyID) (PropertyID, bool) {
	d := g.driver[id]
	return d, d >= 0
}

// MissingLinks returns the unresolvable links found during build.
func (g *Graph) MissingLinks() []MissingLink { return g.missing }

// Hash returns the structural identity of the graph: node paths plus the
// resolved link set (including mapping expressions). Callers key their
// graph cache on it and rebuild only when it changes.
func (g *Graph) Hash() string { return g.hash }

// findCycle runs three-color DFS over driver edges and returns the cycle
// path (closed: first element repeated at the end), or nil.
func (g *Graph) findCycle() []model.PropertyPath {
	const (
		white = 0 // unvisited
		gray  = 1 // on the current DFS stack
		black = 2 // fully explored
	)
	color := make([]int, len(g.nodes))
	var stack []PropertyID

	var visit func(id PropertyID) []model.PropertyPath
	visit = func(id PropertyID) []model.PropertyPath {
		color[id] = gray
		stack = append(stack, id)

		for _, dep := range g.dependents[id] {
			switch color[dep] {
			case white:
				if cycle := visit(dep); cycle != nil {
					return cycle
				}
			case gray:
				// Found: slice the stack from the first occurrence.
				var cycle []model.PropertyPath
				start := 0
				for i, s := range stack {
					if s == dep {
						start = i
						break
					}
				}
				for _, s := range stack[start:] {
					cycle = append(cycle, g.nodes[s].Path)
				}
				cycle = append(cycle, g.nodes[dep].Path)
				return cycle
			}
		}

		stack = stack[:len(stack)-1]
		color[id] = black
		return nil
	}

	for id := range g.nodes {
		if color[id] == white {
			if cycle := visit(PropertyID(id)); cycle != nil {
				return cycle
			}
		}
	}
	return nil
}

// topoOrder runs Kahn's algorithm over driver edges. Ready nodes are
// consumed in ascending arena id, so the order is a pure function of the
// project structure. Only called after findCycle has proven acyclicity.
func (g *Graph) topoOrder() []PropertyID {
	indeg := make([]int, len(g.nodes))
	for id := range g.nodes {
		if g.driver[id] >= 0 {
			indeg[id]++
		}
	}

	ready := make([]bool, len(g.nodes))
	remaining := len(g.nodes)
	for id, d := range indeg {
		ready[id] = d == 0
	}

	order := make([]PropertyID, 0, len(g.nodes))
	for remaining > 0 {
		picked := PropertyID(-1)
		for id := range g.nodes {
			if ready[id] {
				picked = PropertyID(id)
				break
			}
		}
		if picked < 0 {
			// Unreachable: findCycle already rejected cyclic graphs.
			break
		}
		ready[picked] = false
		remaining--
		order = append(order, picked)

		for _, dep := range g.dependents[picked] {
			indeg[dep]--
			if indeg[dep] == 0 {
				ready[dep] = true
			}
		}
	}
	return order
}

func (g *Graph) computeHash() (string, error) {
	nodes := make([]any, 0, len(g.nodes))
	for _, n := range g.nodes {
		nodes = append(nodes, hashEntry(n.Path, n.Prop))
	}
	return canon.HashValue(canon.DomainPropertyGraph, map[string]any{"nodes": nodes})
}

func hashEntry(path model.PropertyPath, prop *model.Property) map[string]any {
	entry := map[string]any{"path": path.String()}
	if prop.Link != nil {
		entry["link"] = prop.Link.Target.String()
		if prop.Link.Mapping != "" {
			entry["mapping"] = prop.Link.Mapping
		}
	}
	if prop.Expression != "" {
		entry["expression"] = prop.Expression
	}
	return entry
}

// StructuralHash computes a project's graph identity without building the
// graph. Always equal to Build(p).Hash(); callers key their graph cache on
// it and rebuild only when the link set or expressions change.
func StructuralHash(p *model.Project) (string, error) {
	var nodes []any
	walkProperties(p, func(comp, layer, name string, prop *model.Property) {
		path := model.PropertyPath{Comp: comp, Layer: layer, Property: name}
		nodes = append(nodes, hashEntry(path, prop))
	})
	return canon.HashValue(canon.DomainPropertyGraph, map[string]any{"nodes": nodes})
}

// sortedKeys sorts Extra property names: map iteration order is unusable
// for anything that feeds arena ids.
func sortedKeys(m map[string]*model.Property) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
