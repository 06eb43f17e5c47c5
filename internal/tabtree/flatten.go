package tabtree

import "sort"

// DefaultMaxDepth bounds the traversal when the caller passes no limit.
const DefaultMaxDepth = 256

// ChildLookup resolves a tab's children. *Index and the tab manager implement it.
type ChildLookup interface {
	ChildrenOf(tab Tab) []Tab
}

// tabResolver is implemented by *Index. When the child lookup can resolve
// ids, a parent that exists in the same container but outside the scope
// (another section) does not count as an orphan.
type tabResolver interface {
	Get(id string) (Tab, bool)
}

// Node is one display row of a flattened tree.
type Node struct {
	Tab   Tab
	Depth int
}

// Flattened is the display sequence plus the integrity problems met on the way.
type Flattened struct {
	Nodes       []Node
	Diagnostics []Diagnostic
}

// Tabs returns the flattened tabs without depth information.
func (f Flattened) Tabs() []Tab {
	out := make([]Tab, len(f.Nodes))
	for i, n := range f.Nodes {
		out[i] = n.Tab
	}
	return out
}

// IDs returns the flattened tab ids.
func (f Flattened) IDs() []string {
	out := make([]string, len(f.Nodes))
	for i, n := range f.Nodes {
		out[i] = n.Tab.ID
	}
	return out
}

// Flatten turns one scope of tabs into a depth-first, order-respecting
// sequence. Each input tab is emitted exactly once: orphans are promoted to
// roots, and tabs unreachable from any root (cycles, depth cut-offs) are
// appended afterwards as roots.
func Flatten(scope []Tab, children ChildLookup, maxDepth int) Flattened {
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}
	inScope := make(map[string]Tab, len(scope))
	for _, t := range scope {
		inScope[t.ID] = t
	}

	var out Flattened
	var roots []Tab
	for _, t := range inScope {
		if t.ParentID == nil {
			roots = append(roots, t)
			continue
		}
		if _, ok := inScope[*t.ParentID]; !ok {
			roots = append(roots, t)
		}
	}
	sort.Slice(roots, func(i, j int) bool { return less(roots[i], roots[j]) })
	resolver, _ := children.(tabResolver)
	for _, r := range roots {
		if r.ParentID == nil {
			continue
		}
		if resolver != nil {
			if p, ok := resolver.Get(*r.ParentID); ok && p.ContainerID == r.ContainerID && p.ID != r.ID {
				continue
			}
		}
		out.Diagnostics = append(out.Diagnostics, Diagnostic{
			Err: ErrOrphanReference, TabID: r.ID, Detail: "parent " + *r.ParentID + " does not resolve",
		})
	}

	visited := make(map[string]bool, len(inScope))
	cut := make(map[string]bool)

	type frame struct {
		tab   Tab
		depth int
	}
	visit := func(root Tab) {
		stack := []frame{{tab: root}}
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[f.tab.ID] {
				continue
			}
			visited[f.tab.ID] = true
			out.Nodes = append(out.Nodes, Node{Tab: f.tab, Depth: f.depth})

			var kids []Tab
			for _, k := range children.ChildrenOf(f.tab) {
				t, ok := inScope[k.ID]
				if !ok || t.ID == f.tab.ID {
					continue
				}
				if visited[t.ID] {
					out.Diagnostics = append(out.Diagnostics, Diagnostic{
						Err: ErrCycleDetected, TabID: t.ID, Detail: "already emitted before parent " + f.tab.ID,
					})
					continue
				}
				kids = append(kids, t)
			}
			if len(kids) == 0 {
				continue
			}
			if f.depth+1 >= maxDepth {
				for _, k := range kids {
					cut[k.ID] = true
				}
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					Err: ErrDepthExceeded, TabID: f.tab.ID, Detail: "children not nested",
				})
				continue
			}
			sort.Slice(kids, func(i, j int) bool { return less(kids[i], kids[j]) })
			for i := len(kids) - 1; i >= 0; i-- {
				stack = append(stack, frame{tab: kids[i], depth: f.depth + 1})
			}
		}
	}

	for _, r := range roots {
		visit(r)
	}

	if len(out.Nodes) < len(inScope) {
		rest := make([]Tab, 0, len(inScope)-len(out.Nodes))
		for _, t := range inScope {
			if !visited[t.ID] {
				rest = append(rest, t)
			}
		}
		sort.Slice(rest, func(i, j int) bool { return less(rest[i], rest[j]) })
		for _, t := range rest {
			if visited[t.ID] {
				continue
			}
			if !cut[t.ID] {
				out.Diagnostics = append(out.Diagnostics, Diagnostic{
					Err: ErrCycleDetected, TabID: t.ID, Detail: "unreachable from any root",
				})
			}
			visit(t)
		}
	}
	return out
}
