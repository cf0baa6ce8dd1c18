// Package scheduling derives work package dates and propagates date
// changes along follows relations and the parent/child hierarchy.
package scheduling

import (
	"sort"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

// Graph is an in-memory view of work packages and their follows
// relations. It owns clones of the packages handed to NewGraph, so
// scheduling never mutates caller state.
type Graph struct {
	packages     map[int]*models.WorkPackage
	children     map[int][]int
	predecessors map[int][]models.Relation // successor ID -> relations where FromID == successor
	followers    map[int][]models.Relation // predecessor ID -> relations where ToID == predecessor
}

// NewGraph indexes work packages and relations. Non-follows relations
// and relations with an unknown end are ignored.
func NewGraph(packages []*models.WorkPackage, relations []models.Relation) *Graph {
	g := &Graph{
		packages:     make(map[int]*models.WorkPackage, len(packages)),
		children:     make(map[int][]int),
		predecessors: make(map[int][]models.Relation),
		followers:    make(map[int][]models.Relation),
	}
	for _, wp := range packages {
		g.packages[wp.ID] = wp.Clone()
	}
	for _, wp := range g.packages {
		if wp.ParentID == nil {
			continue
		}
		if _, ok := g.packages[*wp.ParentID]; ok {
			g.children[*wp.ParentID] = append(g.children[*wp.ParentID], wp.ID)
		}
	}
	for id := range g.children {
		sort.Ints(g.children[id])
	}
	for _, r := range relations {
		r = r.Normalize()
		if r.Type != models.RelationFollows {
			continue
		}
		if _, ok := g.packages[r.FromID]; !ok {
			continue
		}
		if _, ok := g.packages[r.ToID]; !ok {
			continue
		}
		g.predecessors[r.FromID] = append(g.predecessors[r.FromID], r)
		g.followers[r.ToID] = append(g.followers[r.ToID], r)
	}
	return g
}

// Get returns the graph's copy of a work package
func (g *Graph) Get(id int) (*models.WorkPackage, bool) {
	wp, ok := g.packages[id]
	return wp, ok
}

// IDs returns every work package ID in ascending order
func (g *Graph) IDs() []int {
	ids := make([]int, 0, len(g.packages))
	for id := range g.packages {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Packages returns the graph's work packages ordered by ID
func (g *Graph) Packages() []*models.WorkPackage {
	out := make([]*models.WorkPackage, 0, len(g.packages))
	for _, id := range g.IDs() {
		out = append(out, g.packages[id])
	}
	return out
}

// Relations returns the follows relations held by the graph
func (g *Graph) Relations() []models.Relation {
	var out []models.Relation
	for _, id := range g.IDs() {
		out = append(out, g.predecessors[id]...)
	}
	return out
}

// Children returns the direct children of id ordered by ID
func (g *Graph) Children(id int) []int { return g.children[id] }

// IsParent reports whether id has at least one child in the graph
func (g *Graph) IsParent(id int) bool { return len(g.children[id]) > 0 }

// Parent returns the parent of id when it is part of the graph
func (g *Graph) Parent(id int) (int, bool) {
	wp, ok := g.packages[id]
	if !ok || wp.ParentID == nil {
		return 0, false
	}
	if _, ok := g.packages[*wp.ParentID]; !ok {
		return 0, false
	}
	return *wp.ParentID, true
}

// Ancestors returns the parent chain of id, nearest first. A corrupt
// hierarchy loop ends the walk instead of spinning.
func (g *Graph) Ancestors(id int) []int {
	var out []int
	seen := map[int]bool{id: true}
	for {
		parent, ok := g.Parent(id)
		if !ok || seen[parent] {
			return out
		}
		seen[parent] = true
		out = append(out, parent)
		id = parent
	}
}

// Descendants returns every work package below id in pre-order
func (g *Graph) Descendants(id int) []int {
	var out []int
	seen := map[int]bool{id: true}
	var walk func(int)
	walk = func(n int) {
		for _, c := range g.children[n] {
			if seen[c] {
				continue
			}
			seen[c] = true
			out = append(out, c)
			walk(c)
		}
	}
	walk(id)
	return out
}

// IsAncestor reports whether candidate is above id in the hierarchy
func (g *Graph) IsAncestor(candidate, id int) bool {
	for _, a := range g.Ancestors(id) {
		if a == candidate {
			return true
		}
	}
	return false
}

// Predecessors returns the follows relations in which id is the successor
func (g *Graph) Predecessors(id int) []models.Relation { return g.predecessors[id] }

// Followers returns the follows relations in which id is the predecessor
func (g *Graph) Followers(id int) []models.Relation { return g.followers[id] }

// dependencies lists what the dates of id are computed from: the
// predecessors of id and of its ancestors, and the children of id.
func (g *Graph) dependencies(id int) []int {
	var deps []int
	for _, n := range append([]int{id}, g.Ancestors(id)...) {
		for _, r := range g.predecessors[n] {
			deps = append(deps, r.ToID)
		}
	}
	deps = append(deps, g.children[id]...)
	return deps
}

// hasCycle reports whether the dependency graph contains a cycle
func (g *Graph) hasCycle() bool {
	const (
		white = iota
		grey
		black
	)
	color := make(map[int]int, len(g.packages))
	var visit func(int) bool
	visit = func(n int) bool {
		color[n] = grey
		for _, d := range g.dependencies(n) {
			switch color[d] {
			case grey:
				return true
			case white:
				if visit(d) {
					return true
				}
			}
		}
		color[n] = black
		return false
	}
	for _, id := range g.IDs() {
		if color[id] == white && visit(id) {
			return true
		}
	}
	return false
}

// WouldCycleWithRelation reports whether adding rel creates a
// scheduling cycle
func (g *Graph) WouldCycleWithRelation(rel models.Relation) bool {
	rel = rel.Normalize()
	if rel.Type != models.RelationFollows {
		return false
	}
	if rel.FromID == rel.ToID {
		return true
	}
	next := NewGraph(g.Packages(), append(g.Relations(), rel))
	return next.hasCycle()
}

// WouldCycleWithParent reports whether moving childID below parentID
// creates a hierarchy loop or a scheduling cycle
func (g *Graph) WouldCycleWithParent(childID, parentID int) bool {
	if childID == parentID {
		return true
	}
	if g.IsAncestor(childID, parentID) {
		return true
	}
	packages := make([]*models.WorkPackage, 0, len(g.packages))
	for _, wp := range g.Packages() {
		cp := wp.Clone()
		if cp.ID == childID {
			cp.ParentID = &parentID
		}
		packages = append(packages, cp)
	}
	next := NewGraph(packages, g.Relations())
	return next.hasCycle()
}
