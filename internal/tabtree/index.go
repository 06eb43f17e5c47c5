package tabtree

import "sort"

// groupKey identifies a sibling group.
type groupKey struct {
	container string
	parent    string
}

// Index is an arena of tabs keyed by id plus a derived parent->children index.
// It is immutable once built; callers rebuild it after every committed change.
type Index struct {
	byID   map[string]Tab
	groups map[groupKey][]string
	all    []Tab
}

// NewIndex builds the arena. Duplicate ids keep the last occurrence.
func NewIndex(tabs []Tab) *Index {
	idx := &Index{
		byID:   make(map[string]Tab, len(tabs)),
		groups: make(map[groupKey][]string),
	}
	for _, t := range tabs {
		idx.byID[t.ID] = t
	}
	idx.all = make([]Tab, 0, len(idx.byID))
	for _, t := range idx.byID {
		idx.all = append(idx.all, t)
	}
	sort.Slice(idx.all, func(i, j int) bool {
		a, b := idx.all[i], idx.all[j]
		if a.ContainerID != b.ContainerID {
			return a.ContainerID < b.ContainerID
		}
		return less(a, b)
	})
	for _, t := range idx.all {
		k := groupKey{container: t.ContainerID, parent: t.parentKey()}
		idx.groups[k] = append(idx.groups[k], t.ID)
	}
	return idx
}

// Len returns the number of tabs in the arena.
func (idx *Index) Len() int { return len(idx.all) }

// Get looks a tab up by id.
func (idx *Index) Get(id string) (Tab, bool) {
	t, ok := idx.byID[id]
	return t, ok
}

// Tabs returns every tab, grouped by container and sorted by sibling key.
func (idx *Index) Tabs() []Tab {
	out := make([]Tab, len(idx.all))
	copy(out, idx.all)
	return out
}

// ChildrenOf returns the tab's children in ascending order. Only tabs in the
// same container qualify and the tab itself is never included.
func (idx *Index) ChildrenOf(tab Tab) []Tab {
	ids := idx.groups[groupKey{container: tab.ContainerID, parent: tab.ID}]
	out := make([]Tab, 0, len(ids))
	for _, id := range ids {
		if id == tab.ID {
			continue
		}
		out = append(out, idx.byID[id])
	}
	return out
}

// Siblings returns the sorted sibling group for a container and parent.
func (idx *Index) Siblings(containerID string, parentID *string) []Tab {
	k := groupKey{container: containerID}
	if parentID != nil {
		k.parent = *parentID
	}
	ids := idx.groups[k]
	out := make([]Tab, 0, len(ids))
	for _, id := range ids {
		out = append(out, idx.byID[id])
	}
	return out
}

// Parent resolves the tab's parent within the same container.
func (idx *Index) Parent(tab Tab) (Tab, bool) {
	if tab.ParentID == nil {
		return Tab{}, false
	}
	p, ok := idx.byID[*tab.ParentID]
	if !ok || p.ContainerID != tab.ContainerID || p.ID == tab.ID {
		return Tab{}, false
	}
	return p, true
}

// IsAncestor reports whether ancestorID appears on id's parent chain.
func (idx *Index) IsAncestor(ancestorID, id string) bool {
	cur, ok := idx.byID[id]
	if !ok {
		return false
	}
	seen := map[string]bool{cur.ID: true}
	for {
		p, ok := idx.Parent(cur)
		if !ok {
			return false
		}
		if p.ID == ancestorID {
			return true
		}
		if seen[p.ID] {
			return false
		}
		seen[p.ID] = true
		cur = p
	}
}

// Descendants returns every id below the tab, depth-first.
func (idx *Index) Descendants(id string) []string {
	root, ok := idx.byID[id]
	if !ok {
		return nil
	}
	var out []string
	seen := map[string]bool{id: true}
	stack := []Tab{root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if cur.ID != id {
			out = append(out, cur.ID)
		}
		kids := idx.ChildrenOf(cur)
		for i := len(kids) - 1; i >= 0; i-- {
			k := kids[i]
			if seen[k.ID] {
				continue
			}
			seen[k.ID] = true
			stack = append(stack, k)
		}
	}
	return out
}

// Scope returns the tabs of one container that a sidebar section displays.
func (idx *Index) Scope(containerID string, section Section) []Tab {
	var out []Tab
	for _, t := range idx.all {
		if t.ContainerID == containerID && t.Section() == section {
			out = append(out, t)
		}
	}
	return out
}

// Collisions reports siblings that share an ordering key. The tie-break keeps
// display deterministic; Place respaces them when an insertion lands between.
func (idx *Index) Collisions() []Diagnostic {
	var out []Diagnostic
	for _, t := range idx.all {
		sibs := idx.groups[groupKey{container: t.ContainerID, parent: t.parentKey()}]
		if sibs[0] != t.ID {
			continue
		}
		for i := 1; i < len(sibs); i++ {
			a, b := idx.byID[sibs[i-1]], idx.byID[sibs[i]]
			if a.Order == b.Order {
				out = append(out, Diagnostic{Err: ErrOrderCollision, TabID: b.ID, Detail: "same key as " + a.ID})
			}
		}
	}
	return out
}
