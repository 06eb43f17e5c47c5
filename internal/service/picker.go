package service

import (
	"sort"
	"strings"

	"github.com/agnivade/levenshtein"

	"github.com/plyght/ora-plyght/internal/tabtree"
)

// ContainerPicker ranks move-to-container choices.
type ContainerPicker struct {
	// ExcludeID is the dragged tab's current container.
	ExcludeID string
}

// Match orders containers for query: case-insensitive prefix matches first,
// then the rest by edit distance to the name. An empty query keeps the
// container order.
func (p ContainerPicker) Match(containers []tabtree.Container, query string) []tabtree.Container {
	q := strings.ToLower(strings.TrimSpace(query))
	type scored struct {
		c      tabtree.Container
		prefix bool
		dist   int
		pos    int
	}
	var candidates []scored
	for i, c := range containers {
		if c.ID == p.ExcludeID {
			continue
		}
		name := strings.ToLower(c.Name)
		s := scored{c: c, pos: i}
		if q != "" {
			s.prefix = strings.HasPrefix(name, q)
			s.dist = levenshtein.ComputeDistance(q, name)
		}
		candidates = append(candidates, s)
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.prefix != b.prefix {
			return a.prefix
		}
		if a.dist != b.dist {
			return a.dist < b.dist
		}
		return a.pos < b.pos
	})
	out := make([]tabtree.Container, len(candidates))
	for i, s := range candidates {
		out[i] = s.c
	}
	return out
}

// Resolve picks the container named by ref: an exact id, then the best name
// match. ok is false when no container qualifies.
func (p ContainerPicker) Resolve(containers []tabtree.Container, ref string) (tabtree.Container, bool) {
	for _, c := range containers {
		if c.ID == ref && c.ID != p.ExcludeID {
			return c, true
		}
	}
	matches := p.Match(containers, ref)
	if len(matches) == 0 {
		return tabtree.Container{}, false
	}
	best := matches[0]
	q := strings.ToLower(strings.TrimSpace(ref))
	name := strings.ToLower(best.Name)
	if !strings.HasPrefix(name, q) && levenshtein.ComputeDistance(q, name) > len(name)/2 {
		return tabtree.Container{}, false
	}
	return best, true
}
