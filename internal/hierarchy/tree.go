// Package hierarchy holds the tree operations behind hierarchy custom
// fields: navigation, move planning and label formatting.
package hierarchy

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

var (
	ErrNoRoot             = errors.New("hierarchy has no root item")
	ErrMultipleRoots      = errors.New("hierarchy has more than one root item")
	ErrItemNotFound       = errors.New("hierarchy item not found")
	ErrRootImmutable      = errors.New("the root item cannot be changed")
	ErrMoveIntoDescendant = errors.New("an item cannot be moved below itself or one of its descendants")
)

// Tree indexes the items of a single custom field
type Tree struct {
	root     *models.HierarchyItem
	items    map[int]*models.HierarchyItem
	children map[int][]*models.HierarchyItem
}

// NewTree builds a tree from the flat item list of one custom field
func NewTree(items []*models.HierarchyItem) (*Tree, error) {
	t := &Tree{
		items:    make(map[int]*models.HierarchyItem, len(items)),
		children: make(map[int][]*models.HierarchyItem),
	}
	for _, item := range items {
		t.items[item.ID] = item
		if item.IsRoot() {
			if t.root != nil {
				return nil, ErrMultipleRoots
			}
			t.root = item
		}
	}
	if t.root == nil {
		return nil, ErrNoRoot
	}
	for _, item := range items {
		if item.ParentID == nil {
			continue
		}
		if _, ok := t.items[*item.ParentID]; !ok {
			return nil, fmt.Errorf("item %d: parent %d: %w", item.ID, *item.ParentID, ErrItemNotFound)
		}
		t.children[*item.ParentID] = append(t.children[*item.ParentID], item)
	}
	for id := range t.children {
		sortByPosition(t.children[id])
	}
	return t, nil
}

func sortByPosition(items []*models.HierarchyItem) {
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Position != items[j].Position {
			return items[i].Position < items[j].Position
		}
		return items[i].ID < items[j].ID
	})
}

// Root returns the root item
func (t *Tree) Root() *models.HierarchyItem { return t.root }

// Get returns the item with the given ID
func (t *Tree) Get(id int) (*models.HierarchyItem, bool) {
	item, ok := t.items[id]
	return item, ok
}

// Children returns the direct children of id ordered by position
func (t *Tree) Children(id int) []*models.HierarchyItem { return t.children[id] }

// Ancestors returns the items above id, root first
func (t *Tree) Ancestors(id int) []*models.HierarchyItem {
	item, ok := t.items[id]
	if !ok {
		return nil
	}
	var chain []*models.HierarchyItem
	seen := map[int]bool{id: true}
	for item.ParentID != nil {
		parent := t.items[*item.ParentID]
		if seen[parent.ID] {
			break
		}
		seen[parent.ID] = true
		chain = append(chain, parent)
		item = parent
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain
}

// Descendants returns the items below id in pre-order, optionally
// starting with id itself
func (t *Tree) Descendants(id int, includeSelf bool) []*models.HierarchyItem {
	item, ok := t.items[id]
	if !ok {
		return nil
	}
	var out []*models.HierarchyItem
	if includeSelf {
		out = append(out, item)
	}
	var walk func(int)
	walk = func(n int) {
		for _, c := range t.children[n] {
			out = append(out, c)
			walk(c.ID)
		}
	}
	walk(id)
	return out
}

// Depth returns the number of edges between id and the root
func (t *Tree) Depth(id int) int { return len(t.Ancestors(id)) }

// IsDescendant reports whether candidate lies below id
func (t *Tree) IsDescendant(candidate, id int) bool {
	for _, a := range t.Ancestors(candidate) {
		if a.ID == id {
			return true
		}
	}
	return false
}

// FindByLabel returns the child of parentID carrying label
func (t *Tree) FindByLabel(parentID int, label string) (*models.HierarchyItem, bool) {
	for _, c := range t.children[parentID] {
		if c.LabelText() == label {
			return c, true
		}
	}
	return nil, false
}

// Placement is the parent and position an item is stored with
type Placement struct {
	ItemID   int
	ParentID int
	Position int
}

// PlanInsert returns the position a new child of parentID takes when
// inserted at position (negative or past the end appends) and the
// placements of existing siblings that shift to make room.
func (t *Tree) PlanInsert(parentID, position int) (int, []Placement, error) {
	if _, ok := t.items[parentID]; !ok {
		return 0, nil, ErrItemNotFound
	}
	siblings := t.children[parentID]
	if position < 0 || position > len(siblings) {
		position = len(siblings)
	}
	var shifted []Placement
	for i, s := range siblings {
		want := i
		if i >= position {
			want = i + 1
		}
		if s.Position != want {
			shifted = append(shifted, Placement{ItemID: s.ID, ParentID: parentID, Position: want})
		}
	}
	return position, shifted, nil
}

// PlanMove computes the placements that result from moving itemID below
// newParentID at position. Positions among the new siblings (and the old
// ones, when the parent changes) are re-packed to 0..n-1. Only
// placements that differ from the stored values are returned.
func (t *Tree) PlanMove(itemID, newParentID, position int) ([]Placement, error) {
	item, ok := t.items[itemID]
	if !ok {
		return nil, ErrItemNotFound
	}
	if item.IsRoot() {
		return nil, ErrRootImmutable
	}
	if _, ok := t.items[newParentID]; !ok {
		return nil, ErrItemNotFound
	}
	if newParentID == itemID || t.IsDescendant(newParentID, itemID) {
		return nil, ErrMoveIntoDescendant
	}

	var siblings []*models.HierarchyItem
	for _, s := range t.children[newParentID] {
		if s.ID != itemID {
			siblings = append(siblings, s)
		}
	}
	if position < 0 || position > len(siblings) {
		position = len(siblings)
	}
	ordered := make([]*models.HierarchyItem, 0, len(siblings)+1)
	ordered = append(ordered, siblings[:position]...)
	ordered = append(ordered, item)
	ordered = append(ordered, siblings[position:]...)

	var out []Placement
	for i, s := range ordered {
		if s.ID == itemID || s.Position != i {
			out = append(out, Placement{ItemID: s.ID, ParentID: newParentID, Position: i})
		}
	}

	if oldParent := *item.ParentID; oldParent != newParentID {
		i := 0
		for _, s := range t.children[oldParent] {
			if s.ID == itemID {
				continue
			}
			if s.Position != i {
				out = append(out, Placement{ItemID: s.ID, ParentID: oldParent, Position: i})
			}
			i++
		}
	}
	return out, nil
}
