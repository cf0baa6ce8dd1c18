package hierarchy

import (
	"strings"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/models"
)

const pathSeparator = " / "

// Formatter renders hierarchy items as human readable paths
type Formatter struct {
	tree *Tree
}

// NewFormatter creates a formatter over tree
func NewFormatter(tree *Tree) *Formatter {
	return &Formatter{tree: tree}
}

// Format returns the labels from below the root down to id joined with
// " / ". A negative depth keeps the full path; otherwise only the last
// depth segments are kept (at least one). The item's short, when set,
// is appended in parentheses.
func (f *Formatter) Format(id, depth int) (string, error) {
	item, ok := f.tree.Get(id)
	if !ok {
		return "", ErrItemNotFound
	}
	if item.IsRoot() {
		return "", nil
	}

	var segments []string
	for _, a := range f.tree.Ancestors(id) {
		if a.IsRoot() {
			continue
		}
		segments = append(segments, a.LabelText())
	}
	segments = append(segments, item.LabelText())

	if depth >= 0 {
		if depth == 0 {
			depth = 1
		}
		if depth < len(segments) {
			segments = segments[len(segments)-depth:]
		}
	}

	out := strings.Join(segments, pathSeparator)
	if short := item.ShortText(); short != "" {
		out += " (" + short + ")"
	}
	return out, nil
}

// Entry is one row of an indented tree listing
type Entry struct {
	Item  *models.HierarchyItem
	Depth int
	Path  string
}

// Entries lists every item below the root in pre-order with its depth
// (1 for children of the root) and full path
func (f *Formatter) Entries() []Entry {
	root := f.tree.Root()
	var out []Entry
	for _, item := range f.tree.Descendants(root.ID, false) {
		path, _ := f.Format(item.ID, -1)
		out = append(out, Entry{Item: item, Depth: f.tree.Depth(item.ID), Path: path})
	}
	return out
}
