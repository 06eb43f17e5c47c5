package tabtree

import "errors"

// Position is the drop intent relative to a target tab.
type Position int

const (
	PositionInto Position = iota
	PositionBefore
	PositionAfter
)

func (p Position) String() string {
	switch p {
	case PositionBefore:
		return "before"
	case PositionAfter:
		return "after"
	default:
		return "into"
	}
}

// DropTarget describes where a dragged tab was released. An empty TabID means
// empty space in a section of ContainerID (empty ContainerID: the dragged
// tab's own container). A drop on a tab lands in that tab's section; Section
// only applies to empty-space drops, and nil keeps the dragged tab's section.
type DropTarget struct {
	TabID       string
	ContainerID string
	Section     *Section
	Position    Position
}

// MutationKind enumerates the structural changes a drop can produce.
type MutationKind int

const (
	MutationNoop MutationKind = iota
	MutationReorder
	MutationReparent
	MutationMoveToContainer
	// MutationResection only changes the sidebar section of the tab.
	MutationResection
)

func (k MutationKind) String() string {
	switch k {
	case MutationReorder:
		return "reorder"
	case MutationReparent:
		return "reparent"
	case MutationMoveToContainer:
		return "move-to-container"
	case MutationResection:
		return "move-to-section"
	default:
		return "noop"
	}
}

// Mutation is the resolved intent of a drop. The resolver only computes it;
// the tab manager persists it.
type Mutation struct {
	Kind        MutationKind
	TabID       string
	ParentID    *string
	ContainerID string
	Order       float64
	// Renumber holds sibling keys rewritten to make room.
	Renumber []OrderUpdate
	// Carry holds descendants that follow the tab into another container.
	Carry []string
	// Resection is set when the tab changes sidebar section; Section is the
	// destination.
	Resection bool
	Section   Section
	// Reason explains a Noop.
	Reason error
}

// IsNoop reports whether applying the mutation changes nothing.
func (m Mutation) IsNoop() bool { return m.Kind == MutationNoop }

func noop(tabID string, reason error) Mutation {
	return Mutation{Kind: MutationNoop, TabID: tabID, Reason: reason}
}

// Resolver maps a drag source and drop target to a Mutation.
type Resolver struct {
	Spacing Spacing
}

// Resolve decides what a drop means against the given snapshot.
func (r Resolver) Resolve(idx *Index, tabID string, target DropTarget) Mutation {
	m := r.place(idx, tabID, target)
	dragged, ok := idx.Get(tabID)
	if !ok {
		return m
	}
	want, ok := targetSection(idx, target)
	if !ok || want == dragged.Section() {
		return m
	}
	if m.IsNoop() {
		if !errors.Is(m.Reason, ErrUnchanged) {
			return m
		}
		m = Mutation{
			Kind:        MutationResection,
			TabID:       dragged.ID,
			ParentID:    dragged.ParentID,
			ContainerID: dragged.ContainerID,
			Order:       dragged.Order,
		}
	}
	m.Resection = true
	m.Section = want
	return m
}

func targetSection(idx *Index, target DropTarget) (Section, bool) {
	if target.TabID != "" {
		tgt, ok := idx.Get(target.TabID)
		return tgt.Section(), ok
	}
	if target.Section != nil {
		return *target.Section, true
	}
	return SectionNormal, false
}

// place resolves the structural part of a drop.
func (r Resolver) place(idx *Index, tabID string, target DropTarget) Mutation {
	dragged, ok := idx.Get(tabID)
	if !ok {
		return noop(tabID, ErrUnknownTab)
	}

	if target.TabID == "" {
		cid := target.ContainerID
		if cid == "" {
			cid = dragged.ContainerID
		}
		if cid != dragged.ContainerID {
			return r.moveToContainer(idx, dragged, cid)
		}
		return r.toLastRoot(idx, dragged)
	}

	tgt, ok := idx.Get(target.TabID)
	if !ok {
		return noop(tabID, ErrUnknownTab)
	}
	if tgt.ID == dragged.ID {
		return noop(tabID, ErrSelfDrop)
	}
	if idx.IsAncestor(dragged.ID, tgt.ID) {
		return noop(tabID, ErrCycleDetected)
	}
	if tgt.ContainerID != dragged.ContainerID {
		return r.moveToContainer(idx, dragged, tgt.ContainerID)
	}

	if target.Position == PositionInto {
		return r.reparentInto(idx, dragged, tgt)
	}

	if sameParent(dragged, tgt) {
		return r.reorderAround(idx, dragged, tgt, target.Position)
	}
	if anchor, ok := r.projectOnto(idx, dragged, tgt); ok {
		return r.reorderAround(idx, dragged, anchor, PositionAfter)
	}
	return r.reparentBeside(idx, dragged, tgt, target.Position)
}

// reparentInto makes dragged the last child of tgt.
func (r Resolver) reparentInto(idx *Index, dragged, tgt Tab) Mutation {
	kids := without(idx.ChildrenOf(tgt), dragged.ID)
	if dragged.HasParent(tgt.ID) && (len(kids) == 0 || less(kids[len(kids)-1], dragged)) {
		return noop(dragged.ID, ErrUnchanged)
	}
	order, renumber := r.Spacing.Place(kids, len(kids))
	return Mutation{
		Kind:        MutationReparent,
		TabID:       dragged.ID,
		ParentID:    StringPtr(tgt.ID),
		ContainerID: dragged.ContainerID,
		Order:       order,
		Renumber:    renumber,
	}
}

// reorderAround moves dragged next to anchor inside their shared sibling group.
func (r Resolver) reorderAround(idx *Index, dragged, anchor Tab, pos Position) Mutation {
	all := idx.Siblings(dragged.ContainerID, dragged.ParentID)
	sibs := without(all, dragged.ID)
	at := indexOf(sibs, anchor.ID)
	if pos == PositionAfter {
		at++
	}
	if at == indexOf(all, dragged.ID) {
		return noop(dragged.ID, ErrUnchanged)
	}
	order, renumber := r.Spacing.Place(sibs, at)
	return Mutation{
		Kind:        MutationReorder,
		TabID:       dragged.ID,
		ParentID:    dragged.ParentID,
		ContainerID: dragged.ContainerID,
		Order:       order,
		Renumber:    renumber,
	}
}

// reparentBeside moves dragged into tgt's sibling group at tgt's slot.
func (r Resolver) reparentBeside(idx *Index, dragged, tgt Tab, pos Position) Mutation {
	var parent *string
	if p, ok := idx.Parent(tgt); ok {
		parent = StringPtr(p.ID)
	}
	sibs := without(idx.Siblings(tgt.ContainerID, parent), dragged.ID)
	at := indexOf(sibs, tgt.ID)
	switch {
	case at < 0:
		// tgt is an orphan; it is not part of the root group it displays in.
		at = len(sibs)
	case pos == PositionAfter:
		at++
	}
	order, renumber := r.Spacing.Place(sibs, at)
	return Mutation{
		Kind:        MutationReparent,
		TabID:       dragged.ID,
		ParentID:    parent,
		ContainerID: dragged.ContainerID,
		Order:       order,
		Renumber:    renumber,
	}
}

// toLastRoot handles a drop on empty space of the tab's own container.
func (r Resolver) toLastRoot(idx *Index, dragged Tab) Mutation {
	all := idx.Siblings(dragged.ContainerID, nil)
	roots := without(all, dragged.ID)
	if dragged.IsRoot() && len(all) > 0 && all[len(all)-1].ID == dragged.ID {
		return noop(dragged.ID, ErrUnchanged)
	}
	order, renumber := r.Spacing.Place(roots, len(roots))
	kind := MutationReorder
	if !dragged.IsRoot() {
		kind = MutationReparent
	}
	return Mutation{
		Kind:        kind,
		TabID:       dragged.ID,
		ContainerID: dragged.ContainerID,
		Order:       order,
		Renumber:    renumber,
	}
}

// moveToContainer detaches dragged and appends it to the destination's roots.
func (r Resolver) moveToContainer(idx *Index, dragged Tab, containerID string) Mutation {
	roots := idx.Siblings(containerID, nil)
	order, renumber := r.Spacing.Place(roots, len(roots))
	return Mutation{
		Kind:        MutationMoveToContainer,
		TabID:       dragged.ID,
		ContainerID: containerID,
		Order:       order,
		Renumber:    renumber,
		Carry:       idx.Descendants(dragged.ID),
	}
}

// projectOnto finds the ancestor of tgt that shares dragged's sibling group.
func (r Resolver) projectOnto(idx *Index, dragged, tgt Tab) (Tab, bool) {
	cur := tgt
	seen := map[string]bool{cur.ID: true}
	for {
		p, ok := idx.Parent(cur)
		if !ok || seen[p.ID] {
			return Tab{}, false
		}
		if sameParent(p, dragged) {
			return p, p.ID != dragged.ID
		}
		seen[p.ID] = true
		cur = p
	}
}

func sameParent(a, b Tab) bool {
	return a.ContainerID == b.ContainerID && a.parentKey() == b.parentKey()
}

func without(tabs []Tab, id string) []Tab {
	out := make([]Tab, 0, len(tabs))
	for _, t := range tabs {
		if t.ID != id {
			out = append(out, t)
		}
	}
	return out
}

func indexOf(tabs []Tab, id string) int {
	for i, t := range tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}
