package temporaltree

import "strings"

// Relabel folds the tree into the root's canonical label, strictly
// bottom-up one level at a time: a parent's new label is the ordered
// concatenation of its children's current labels. Two admissions with
// identical quadruple sets therefore collapse to identical labels.
func (t *Tree) Relabel() string {
	t.relabelLevel(levelBucket)
	t.relabelLevel(levelWindow)
	t.relabelLevel(levelRoot)
	return t.arena[0].label
}

func (t *Tree) relabelLevel(level int) {
	for i := range t.arena {
		if t.arena[i].level != level {
			continue
		}
		t.arena[i].label = t.joinChildren(i)
	}
}

// joinChildren concatenates child labels with the fixed delimiter. A child
// with an empty label and no children of its own contributes nothing.
func (t *Tree) joinChildren(idx int) string {
	parts := make([]string, 0, len(t.arena[idx].children))
	for _, ci := range t.arena[idx].children {
		child := t.arena[ci]
		if child.label == "" && len(child.children) == 0 {
			continue
		}
		parts = append(parts, child.label)
	}
	return strings.Join(parts, "_")
}
