package selection

import (
	"embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/fitonboard/backend/internal/fitness"
)

//go:embed catalogs/*.yaml
var catalogFS embed.FS

// Entry is one node of a fixed selection hierarchy.
type Entry struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Level     Level    `json:"level"`
	ParentKey string   `json:"parentKey,omitempty"`
	Children  []string `json:"children,omitempty"`
}

// Catalog is an immutable three-tier hierarchy authored as a constant table.
type Catalog struct {
	name    string
	entries map[string]Entry
	roots   []string
	byLabel map[string]string
}

type yamlCatalog struct {
	Name  string     `yaml:"name"`
	Nodes []yamlNode `yaml:"nodes"`
}

type yamlNode struct {
	Key      string     `yaml:"key"`
	Label    string     `yaml:"label"`
	Children []yamlNode `yaml:"children"`
}

var (
	loadOnce  sync.Once
	bodyAreas *Catalog
	equipment *Catalog
)

func loadEmbedded() {
	bodyAreas = mustLoad("catalogs/body_areas.yaml")
	equipment = mustLoad("catalogs/equipment.yaml")
}

func mustLoad(path string) *Catalog {
	data, err := catalogFS.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("selection: read %s: %v", path, err))
	}
	cat, err := ParseCatalog(data)
	if err != nil {
		panic(fmt.Sprintf("selection: parse %s: %v", path, err))
	}
	return cat
}

// BodyAreas returns the region → muscle → sub-area hierarchy.
func BodyAreas() *Catalog {
	loadOnce.Do(loadEmbedded)
	return bodyAreas
}

// Equipment returns the category → item → variant hierarchy.
func Equipment() *Catalog {
	loadOnce.Do(loadEmbedded)
	return equipment
}

// ParseCatalog builds a catalog from its YAML form. Keys must be unique and
// the tree may be at most three tiers deep.
func ParseCatalog(data []byte) (*Catalog, error) {
	var raw yamlCatalog
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	if raw.Name == "" {
		return nil, fmt.Errorf("catalog name is required")
	}

	cat := &Catalog{
		name:    raw.Name,
		entries: make(map[string]Entry),
		byLabel: make(map[string]string),
	}

	for _, node := range raw.Nodes {
		if err := cat.add(node, "", 0); err != nil {
			return nil, err
		}
		cat.roots = append(cat.roots, node.Key)
	}
	if len(cat.roots) == 0 {
		return nil, fmt.Errorf("catalog %s has no nodes", raw.Name)
	}

	return cat, nil
}

func (c *Catalog) add(node yamlNode, parent string, depth int) error {
	if depth >= len(levels) {
		return fmt.Errorf("catalog %s: %q is nested deeper than %d tiers", c.name, node.Key, len(levels))
	}
	if node.Key == "" || node.Label == "" {
		return fmt.Errorf("catalog %s: node under %q needs key and label", c.name, parent)
	}
	if node.Key != fitness.Normalize(node.Key) {
		return fmt.Errorf("catalog %s: key %q is not normalised", c.name, node.Key)
	}
	if _, dup := c.entries[node.Key]; dup {
		return fmt.Errorf("catalog %s: duplicate key %q", c.name, node.Key)
	}

	entry := Entry{
		Key:       node.Key,
		Label:     node.Label,
		Level:     levels[depth],
		ParentKey: parent,
	}
	for _, child := range node.Children {
		entry.Children = append(entry.Children, child.Key)
	}
	c.entries[node.Key] = entry
	c.byLabel[strings.ToLower(node.Label)] = node.Key

	for _, child := range node.Children {
		if err := c.add(child, node.Key, depth+1); err != nil {
			return err
		}
	}
	return nil
}

func (c *Catalog) Name() string {
	return c.name
}

func (c *Catalog) Lookup(key string) (Entry, bool) {
	e, ok := c.entries[key]
	return e, ok
}

// Resolve finds an entry by key or label, tolerating case and spacing
// differences. Model output and free-text injuries go through here.
func (c *Catalog) Resolve(nameOrKey string) (Entry, bool) {
	if e, ok := c.entries[fitness.Normalize(nameOrKey)]; ok {
		return e, true
	}
	if key, ok := c.byLabel[strings.ToLower(strings.TrimSpace(nameOrKey))]; ok {
		return c.entries[key], true
	}
	return Entry{}, false
}

func (c *Catalog) Roots() []Entry {
	out := make([]Entry, 0, len(c.roots))
	for _, k := range c.roots {
		out = append(out, c.entries[k])
	}
	return out
}

func (c *Catalog) ChildrenOf(key string) []Entry {
	parent, ok := c.entries[key]
	if !ok {
		return nil
	}
	out := make([]Entry, 0, len(parent.Children))
	for _, k := range parent.Children {
		out = append(out, c.entries[k])
	}
	return out
}

// Ancestors lists the parent chain of key, nearest first.
func (c *Catalog) Ancestors(key string) []string {
	var chain []string
	e, ok := c.entries[key]
	for ok && e.ParentKey != "" {
		chain = append(chain, e.ParentKey)
		e, ok = c.entries[e.ParentKey]
	}
	return chain
}

// Descendants lists every entry below key in depth-first order.
func (c *Catalog) Descendants(key string) []string {
	var out []string
	for _, child := range c.entries[key].Children {
		out = append(out, child)
		out = append(out, c.Descendants(child)...)
	}
	return out
}

func (c *Catalog) IsAncestor(ancestor, key string) bool {
	for _, a := range c.Ancestors(key) {
		if a == ancestor {
			return true
		}
	}
	return false
}

// Related reports whether a and b name the same entry or one contains the
// other. Unknown names fall back to a normalised string comparison.
func (c *Catalog) Related(a, b string) bool {
	ea, okA := c.Resolve(a)
	eb, okB := c.Resolve(b)
	if !okA || !okB {
		return fitness.Normalize(a) == fitness.Normalize(b)
	}
	return ea.Key == eb.Key || c.IsAncestor(ea.Key, eb.Key) || c.IsAncestor(eb.Key, ea.Key)
}

// Keys returns all keys at level, sorted.
func (c *Catalog) Keys(level Level) []string {
	var keys []string
	for k, e := range c.entries {
		if e.Level == level {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func (c *Catalog) Len() int {
	return len(c.entries)
}

// MostSpecific drops every name that is an ancestor of another name in the
// list, so a region selected with one of its muscles stands for the muscle.
// Unknown names are kept.
func (c *Catalog) MostSpecific(names []string) []string {
	var out []string
	for _, n := range names {
		e, known := c.Resolve(n)
		leaf := true
		if known {
			for _, other := range names {
				o, ok := c.Resolve(other)
				if ok && c.IsAncestor(e.Key, o.Key) {
					leaf = false
					break
				}
			}
		}
		if leaf {
			out = append(out, n)
		}
	}
	return out
}

// Expand returns the keys of names together with all their ancestors and
// descendants, sorted. Unknown names are kept in normalised form.
func (c *Catalog) Expand(names []string) []string {
	set := make(map[string]bool)
	for _, n := range names {
		e, ok := c.Resolve(n)
		if !ok {
			if k := fitness.Normalize(n); k != "" {
				set[k] = true
			}
			continue
		}
		set[e.Key] = true
		for _, a := range c.Ancestors(e.Key) {
			set[a] = true
		}
		for _, d := range c.Descendants(e.Key) {
			set[d] = true
		}
	}
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
