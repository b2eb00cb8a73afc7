// Package selection implements the three-tier body-area and equipment
// pickers: a fixed catalog, the user's selection map with parent/child
// consistency, and the progressive disclosure wizard over it.
package selection

import (
	"fmt"
	"sort"

	"github.com/fitonboard/backend/pkg/apperrors"
)

type Level string

const (
	LevelPrimary   Level = "primary"
	LevelSecondary Level = "secondary"
	LevelTertiary  Level = "tertiary"
)

var levels = []Level{LevelPrimary, LevelSecondary, LevelTertiary}

// Depth returns 0 for primary, 1 for secondary, 2 for tertiary and -1 for
// anything else.
func (l Level) Depth() int {
	for i, known := range levels {
		if l == known {
			return i
		}
	}
	return -1
}

// Node is one entry of a user's selection.
type Node struct {
	Selected  bool     `json:"selected"`
	Label     string   `json:"label"`
	Level     Level    `json:"level"`
	ParentKey string   `json:"parentKey,omitempty"`
	Children  []string `json:"children,omitempty"`
}

// Data is the string-keyed selection map. A node never exists without its
// parent chain, and removing a node removes everything below it.
type Data map[string]Node

// Select adds key and every ancestor of key to the selection.
func (d *Data) Select(cat *Catalog, key string) error {
	entry, ok := cat.Lookup(key)
	if !ok {
		return apperrors.Wrap(apperrors.ErrUnknownKey, apperrors.CodeUnknownKey,
			fmt.Sprintf("%q is not in catalog %s", key, cat.Name()))
	}
	if *d == nil {
		*d = make(Data)
	}

	chain := append([]string{entry.Key}, cat.Ancestors(entry.Key)...)
	for i := len(chain) - 1; i >= 0; i-- {
		e, _ := cat.Lookup(chain[i])
		node, exists := (*d)[e.Key]
		if !exists {
			node = Node{Label: e.Label, Level: e.Level, ParentKey: e.ParentKey}
		}
		node.Selected = true
		(*d)[e.Key] = node

		if e.ParentKey != "" {
			d.attachChild(e.ParentKey, e.Key)
		}
	}
	return nil
}

// Deselect removes key and all of its descendants. It returns the removed
// keys, sorted; an absent key removes nothing.
func (d Data) Deselect(key string) []string {
	node, ok := d[key]
	if !ok {
		return nil
	}

	doomed := map[string]bool{key: true}
	for changed := true; changed; {
		changed = false
		for k, n := range d {
			if !doomed[k] && n.ParentKey != "" && doomed[n.ParentKey] {
				doomed[k] = true
				changed = true
			}
		}
	}

	removed := make([]string, 0, len(doomed))
	for k := range doomed {
		delete(d, k)
		removed = append(removed, k)
	}
	sort.Strings(removed)

	if node.ParentKey != "" {
		d.detachChild(node.ParentKey, key)
	}
	return removed
}

// Toggle selects key when absent and deselects it otherwise. It reports
// whether key is selected afterwards.
func (d *Data) Toggle(cat *Catalog, key string) (bool, error) {
	if _, ok := (*d)[key]; ok {
		d.Deselect(key)
		return false, nil
	}
	if err := d.Select(cat, key); err != nil {
		return false, err
	}
	return true, nil
}

func (d *Data) attachChild(parent, child string) {
	p := (*d)[parent]
	for _, c := range p.Children {
		if c == child {
			return
		}
	}
	p.Children = append(p.Children, child)
	sort.Strings(p.Children)
	(*d)[parent] = p
}

func (d Data) detachChild(parent, child string) {
	p, ok := d[parent]
	if !ok {
		return
	}
	kept := p.Children[:0]
	for _, c := range p.Children {
		if c != child {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		kept = nil
	}
	p.Children = kept
	d[parent] = p
}

// Validate checks the parent/child invariants of a selection that arrived
// from outside, e.g. a client payload.
func (d Data) Validate() error {
	var fields []apperrors.FieldError
	for key, n := range d {
		depth := n.Level.Depth()
		switch {
		case depth < 0:
			fields = append(fields, apperrors.FieldError{Field: key, Message: fmt.Sprintf("unknown level %q", n.Level)})
			continue
		case depth == 0 && n.ParentKey != "":
			fields = append(fields, apperrors.FieldError{Field: key, Message: "primary node must not have a parent"})
		case depth > 0 && n.ParentKey == "":
			fields = append(fields, apperrors.FieldError{Field: key, Message: "non-primary node needs a parent"})
		}

		if n.ParentKey != "" {
			parent, ok := d[n.ParentKey]
			if !ok {
				fields = append(fields, apperrors.FieldError{Field: key, Message: fmt.Sprintf("parent %q is missing", n.ParentKey)})
			} else if parent.Level.Depth() != depth-1 {
				fields = append(fields, apperrors.FieldError{Field: key, Message: fmt.Sprintf("parent %q is not one tier above", n.ParentKey)})
			}
		}

		for _, c := range n.Children {
			child, ok := d[c]
			if !ok || child.ParentKey != key {
				fields = append(fields, apperrors.FieldError{Field: key, Message: fmt.Sprintf("child %q does not point back", c)})
			}
		}
	}

	if len(fields) > 0 {
		sort.Slice(fields, func(i, j int) bool {
			if fields[i].Field != fields[j].Field {
				return fields[i].Field < fields[j].Field
			}
			return fields[i].Message < fields[j].Message
		})
		return apperrors.Validation("inconsistent selection", fields...)
	}
	return nil
}

// Keys returns the selected keys at level, sorted.
func (d Data) Keys(level Level) []string {
	var keys []string
	for k, n := range d {
		if n.Selected && n.Level == level {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// SelectedKeys returns every selected key, sorted.
func (d Data) SelectedKeys() []string {
	var keys []string
	for k, n := range d {
		if n.Selected {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Leaves returns the most specific selections: selected nodes with no
// selected children.
func (d Data) Leaves() []string {
	var keys []string
	for k, n := range d {
		if !n.Selected {
			continue
		}
		leaf := true
		for _, c := range n.Children {
			if d[c].Selected {
				leaf = false
				break
			}
		}
		if leaf {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// Labels returns the display labels of keys in order, skipping keys that are
// not in d.
func (d Data) Labels(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		if n, ok := d[k]; ok {
			out = append(out, n.Label)
		}
	}
	return out
}

func (d Data) Clone() Data {
	out := make(Data, len(d))
	for k, n := range d {
		n.Children = append([]string(nil), n.Children...)
		out[k] = n
	}
	return out
}
