package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/plyght/ora-plyght/internal/database"
	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

var (
	// ErrNoActiveDrag is returned when a drop carries a token that is not the
	// one of the drag in flight.
	ErrNoActiveDrag = errors.New("service: no matching drag in progress")
	// ErrAmbiguousID is returned when an id prefix matches more than one tab.
	ErrAmbiguousID = errors.New("service: ambiguous tab id")
)

// ManagerOptions tunes a TabManager.
type ManagerOptions struct {
	Spacing  tabtree.Spacing
	MaxDepth int
	Logger   *zap.Logger
}

// Row is one rendered sidebar line.
type Row struct {
	Tab      tabtree.Tab
	Depth    int
	Active   bool
	Dragging bool
}

// NewTabParams describes a tab to open.
type NewTabParams struct {
	ContainerID string
	ParentID    *string
	Title       string
	URL         string
}

// TabManager owns the tab state of one session: the last committed snapshot,
// the active tab and the drag in flight. Every entry point is serialised.
type TabManager struct {
	DB       *sql.DB
	Log      *zap.Logger
	Resolver tabtree.Resolver
	MaxDepth int

	mu         sync.Mutex
	snap       *tabtree.Index
	containers []tabtree.Container
	activeID   string
	drag       tabtree.DragSession
}

// NewTabManager loads the current state from db.
func NewTabManager(ctx context.Context, db *sql.DB, opts ManagerOptions) (*TabManager, error) {
	if db == nil {
		return nil, fmt.Errorf("tab manager: db not configured")
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	m := &TabManager{
		DB:       db,
		Log:      log,
		Resolver: tabtree.Resolver{Spacing: opts.Spacing},
		MaxDepth: opts.MaxDepth,
		snap:     tabtree.NewIndex(nil),
	}
	if err := m.Refresh(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

// Close cancels any drag and releases the database.
func (m *TabManager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drag.Cancel()
	return m.DB.Close()
}

// Refresh reloads tabs and containers from the database.
func (m *TabManager) Refresh(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.refreshLocked(ctx)
}

func (m *TabManager) refreshLocked(ctx context.Context) error {
	tabs, err := repository.NewTabRepo(m.DB).List(ctx)
	if err != nil {
		return fmt.Errorf("load tabs: %w", err)
	}
	containers, err := repository.NewContainerRepo(m.DB).List(ctx)
	if err != nil {
		return fmt.Errorf("load containers: %w", err)
	}
	m.snap = tabtree.NewIndex(tabs)
	m.containers = containers
	m.Log.Debug("snapshot loaded", zap.Int("tabs", m.snap.Len()), zap.Int("containers", len(containers)))
	if _, ok := m.snap.Get(m.activeID); !ok {
		m.activeID = ""
	}
	if id := m.drag.DraggedID(); id != "" {
		if _, ok := m.snap.Get(id); !ok {
			m.drag.Cancel()
		}
	}
	return nil
}

// Snapshot returns the last committed state.
func (m *TabManager) Snapshot() *tabtree.Index {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap
}

func (m *TabManager) Containers() []tabtree.Container {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]tabtree.Container, len(m.containers))
	copy(out, m.containers)
	return out
}

func (m *TabManager) containerLocked(id string) (tabtree.Container, bool) {
	for _, c := range m.containers {
		if c.ID == id {
			return c, true
		}
	}
	return tabtree.Container{}, false
}

// Lookup resolves a full tab id or a unique prefix of one.
func (m *TabManager) Lookup(ref string) (tabtree.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.snap.Get(ref); ok {
		return t, nil
	}
	var found []tabtree.Tab
	if ref != "" {
		for _, t := range m.snap.Tabs() {
			if strings.HasPrefix(t.ID, ref) {
				found = append(found, t)
			}
		}
	}
	switch len(found) {
	case 0:
		return tabtree.Tab{}, fmt.Errorf("%q: %w", ref, tabtree.ErrUnknownTab)
	case 1:
		return found[0], nil
	default:
		return tabtree.Tab{}, fmt.Errorf("%q matches %d tabs: %w", ref, len(found), ErrAmbiguousID)
	}
}

func (m *TabManager) ActiveID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeID
}

func (m *TabManager) IsActive(tab tabtree.Tab) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return tab.ID != "" && tab.ID == m.activeID
}

// Activate makes id the active tab.
func (m *TabManager) Activate(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snap.Get(id); !ok {
		return fmt.Errorf("activate %s: %w", id, tabtree.ErrUnknownTab)
	}
	m.activeID = id
	return nil
}

// ChildrenOf returns the tab's children: same container, never the tab itself.
func (m *TabManager) ChildrenOf(tab tabtree.Tab) []tabtree.Tab {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.ChildrenOf(tab)
}

// Flatten returns the display order of one section of a container.
func (m *TabManager) Flatten(containerID string, section tabtree.Section) tabtree.Flattened {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flattenLocked(containerID, section)
}

func (m *TabManager) flattenLocked(containerID string, section tabtree.Section) tabtree.Flattened {
	f := tabtree.Flatten(m.snap.Scope(containerID, section), m.snap, m.MaxDepth)
	for _, d := range f.Diagnostics {
		m.Log.Warn("tree diagnostic",
			zap.String("container_id", containerID),
			zap.Stringer("section", section),
			zap.String("tab_id", d.TabID),
			zap.Error(d))
	}
	return f
}

// Rows returns the rendering rows of one section.
func (m *TabManager) Rows(containerID string, section tabtree.Section) []Row {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rowsLocked(containerID, section)
}

func (m *TabManager) rowsLocked(containerID string, section tabtree.Section) []Row {
	f := m.flattenLocked(containerID, section)
	rows := make([]Row, len(f.Nodes))
	for i, n := range f.Nodes {
		rows[i] = Row{
			Tab:      n.Tab,
			Depth:    n.Depth,
			Active:   n.Tab.ID == m.activeID,
			Dragging: m.drag.IsDragging(n.Tab.ID),
		}
	}
	return rows
}

// DragStarted opens a drag on tabID. It never writes.
func (m *TabManager) DragStarted(tabID string) (tabtree.Token, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.snap.Get(tabID); !ok {
		return "", fmt.Errorf("drag %s: %w", tabID, tabtree.ErrUnknownTab)
	}
	return m.drag.Start(tabID), nil
}

// CancelDrag aborts the drag in flight; nothing is persisted.
func (m *TabManager) CancelDrag() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drag.Cancel()
}

func (m *TabManager) IsDragging(tab tabtree.Tab) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag.IsDragging(tab.ID)
}

// DraggedID returns the id of the tab being dragged, or "".
func (m *TabManager) DraggedID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.drag.DraggedID()
}

// DropOccurred ends the drag identified by token, resolves the drop against
// the current snapshot and applies the result. A Noop is returned with its
// reason and a nil error.
func (m *TabManager) DropOccurred(ctx context.Context, token tabtree.Token, target tabtree.DropTarget) (tabtree.Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tabID, ok := m.drag.Take(token)
	if !ok {
		return tabtree.Mutation{}, ErrNoActiveDrag
	}
	if target.ContainerID != "" {
		if _, ok := m.containerLocked(target.ContainerID); !ok {
			return tabtree.Mutation{}, fmt.Errorf("drop on %s: %w", target.ContainerID, tabtree.ErrUnknownContainer)
		}
	}
	mut := m.Resolver.Resolve(m.snap, tabID, target)
	if mut.IsNoop() {
		m.Log.Debug("drop ignored", zap.String("tab_id", tabID), zap.Error(mut.Reason))
		return mut, nil
	}
	return mut, m.applyLocked(ctx, mut)
}

// Apply persists a resolved mutation in one transaction and refreshes the
// snapshot after commit. On any failure nothing is written and the error
// wraps tabtree.ErrMutationConflict.
func (m *TabManager) Apply(ctx context.Context, mut tabtree.Mutation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applyLocked(ctx, mut)
}

func (m *TabManager) applyLocked(ctx context.Context, mut tabtree.Mutation) error {
	if mut.IsNoop() {
		return nil
	}
	err := database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		tabs := repository.NewTabRepo(tx)
		if err := m.validate(ctx, tx, mut); err != nil {
			return err
		}
		dragged, _ := m.snap.Get(mut.TabID)
		if err := tabs.UpdatePlacement(ctx, dragged.ID, dragged.Version, mut.ContainerID, mut.ParentID, mut.Order); err != nil {
			return fmt.Errorf("place %s: %w", dragged.ID, err)
		}
		if mut.Resection {
			// UpdatePlacement bumped the version
			f := dragged.InSection(mut.Section)
			if err := tabs.SetFlags(ctx, dragged.ID, dragged.Version+1, f.Pinned, f.Favorite); err != nil {
				return fmt.Errorf("section %s: %w", dragged.ID, err)
			}
		}
		for _, id := range mut.Carry {
			t, ok := m.snap.Get(id)
			if !ok {
				return fmt.Errorf("carry %s: %w", id, tabtree.ErrUnknownTab)
			}
			if err := tabs.UpdatePlacement(ctx, t.ID, t.Version, mut.ContainerID, t.ParentID, t.Order); err != nil {
				return fmt.Errorf("carry %s: %w", id, err)
			}
		}
		return m.writeOrders(ctx, tabs, mut.Renumber)
	})
	if err != nil {
		m.Log.Warn("mutation rejected",
			zap.Stringer("kind", mut.Kind),
			zap.String("tab_id", mut.TabID),
			zap.Error(err))
		return fmt.Errorf("apply %s to %s: %w: %w", mut.Kind, mut.TabID, tabtree.ErrMutationConflict, err)
	}
	m.Log.Debug("mutation applied",
		zap.Stringer("kind", mut.Kind),
		zap.String("tab_id", mut.TabID),
		zap.Int("renumbered", len(mut.Renumber)),
		zap.Int("carried", len(mut.Carry)))
	return m.refreshLocked(ctx)
}

// validate re-checks the mutation against committed rows inside the
// transaction, so a stale snapshot cannot create a cycle or a cross-container
// parent.
func (m *TabManager) validate(ctx context.Context, tx *sql.Tx, mut tabtree.Mutation) error {
	if _, ok := m.snap.Get(mut.TabID); !ok {
		return fmt.Errorf("tab %s: %w", mut.TabID, tabtree.ErrUnknownTab)
	}
	c, err := repository.NewContainerRepo(tx).Get(ctx, mut.ContainerID)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("container %s: %w", mut.ContainerID, tabtree.ErrUnknownContainer)
	}
	if mut.ParentID == nil {
		return nil
	}
	if *mut.ParentID == mut.TabID {
		return fmt.Errorf("parent %s: %w", *mut.ParentID, tabtree.ErrCycleDetected)
	}
	tabs := repository.NewTabRepo(tx)
	parent, err := tabs.Get(ctx, *mut.ParentID)
	if err != nil {
		return err
	}
	if parent == nil || parent.ContainerID != mut.ContainerID {
		return fmt.Errorf("parent %s: %w", *mut.ParentID, tabtree.ErrOrphanReference)
	}
	rows, err := tabs.ListByContainer(ctx, mut.ContainerID)
	if err != nil {
		return err
	}
	if tabtree.NewIndex(rows).IsAncestor(mut.TabID, parent.ID) {
		return fmt.Errorf("parent %s: %w", parent.ID, tabtree.ErrCycleDetected)
	}
	return nil
}

func (m *TabManager) writeOrders(ctx context.Context, tabs *repository.TabRepo, updates []tabtree.OrderUpdate) error {
	for _, u := range updates {
		t, ok := m.snap.Get(u.TabID)
		if !ok {
			return fmt.Errorf("renumber %s: %w", u.TabID, tabtree.ErrUnknownTab)
		}
		if err := tabs.UpdateOrder(ctx, t.ID, t.Version, u.Order); err != nil {
			return fmt.Errorf("renumber %s: %w", t.ID, err)
		}
	}
	return nil
}

// NewTab opens a tab as the last child of ParentID, or the last root of the
// container, and activates it.
func (m *TabManager) NewTab(ctx context.Context, p NewTabParams) (tabtree.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cid := p.ContainerID
	if p.ParentID != nil {
		parent, ok := m.snap.Get(*p.ParentID)
		if !ok {
			return tabtree.Tab{}, fmt.Errorf("new tab under %s: %w", *p.ParentID, tabtree.ErrUnknownTab)
		}
		if cid == "" {
			cid = parent.ContainerID
		}
		if parent.ContainerID != cid {
			return tabtree.Tab{}, fmt.Errorf("new tab under %s: %w", parent.ID, tabtree.ErrOrphanReference)
		}
	}
	if cid == "" && len(m.containers) > 0 {
		cid = m.containers[0].ID
	}
	if _, ok := m.containerLocked(cid); !ok {
		return tabtree.Tab{}, fmt.Errorf("new tab in %q: %w", cid, tabtree.ErrUnknownContainer)
	}

	sibs := m.snap.Siblings(cid, p.ParentID)
	order, renumber := m.Resolver.Spacing.Place(sibs, len(sibs))
	tab := tabtree.Tab{
		ID:          uuid.NewString(),
		ContainerID: cid,
		ParentID:    p.ParentID,
		Order:       order,
		Title:       p.Title,
		URL:         p.URL,
		Version:     1,
	}
	err := database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		tabs := repository.NewTabRepo(tx)
		seq, err := tabs.NextSeq(ctx)
		if err != nil {
			return err
		}
		tab.Seq = seq
		if err := m.writeOrders(ctx, tabs, renumber); err != nil {
			return err
		}
		return tabs.Insert(ctx, tab)
	})
	if err != nil {
		return tabtree.Tab{}, fmt.Errorf("new tab: %w", mapStale(err))
	}
	if err := m.refreshLocked(ctx); err != nil {
		return tabtree.Tab{}, err
	}
	m.activeID = tab.ID
	m.Log.Debug("tab opened", zap.String("tab_id", tab.ID), zap.String("container_id", cid))
	return tab, nil
}

// CloseTab deletes a tab. Its children take over the closed tab's slot in the
// closed tab's sibling group. If the tab was active, the next row becomes
// active, else the previous one.
func (m *TabManager) CloseTab(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.snap.Get(id)
	if !ok {
		return fmt.Errorf("close %s: %w", id, tabtree.ErrUnknownTab)
	}
	var parent *string
	// on cyclic data the parent can sit inside the closed subtree; the
	// children then become roots instead of their own parents
	if p, ok := m.snap.Parent(t); ok && !m.snap.IsAncestor(t.ID, p.ID) {
		parent = tabtree.StringPtr(p.ID)
	}
	kids := m.snap.ChildrenOf(t)

	all := m.snap.Siblings(t.ContainerID, parent)
	work := make([]tabtree.Tab, 0, len(all)+len(kids))
	at := -1
	for i, s := range all {
		if s.ID == t.ID {
			at = i
			continue
		}
		work = append(work, s)
	}
	if at < 0 {
		at = len(work)
	}
	orders := map[string]float64{}
	for i, k := range kids {
		order, renumber := m.Resolver.Spacing.Place(work, at+i)
		for _, u := range renumber {
			orders[u.TabID] = u.Order
			for j := range work {
				if work[j].ID == u.TabID {
					work[j].Order = u.Order
				}
			}
		}
		orders[k.ID] = order
		k.Order = order
		work = append(work[:at+i], append([]tabtree.Tab{k}, work[at+i:]...)...)
	}

	next := m.activeID
	if next == t.ID {
		next = neighbour(m.rowsLocked(t.ContainerID, t.Section()), t.ID)
	}

	err := database.WithTx(ctx, m.DB, func(tx *sql.Tx) error {
		tabs := repository.NewTabRepo(tx)
		for _, k := range kids {
			if err := tabs.UpdatePlacement(ctx, k.ID, k.Version, k.ContainerID, parent, orders[k.ID]); err != nil {
				return fmt.Errorf("promote %s: %w", k.ID, err)
			}
			delete(orders, k.ID)
		}
		var updates []tabtree.OrderUpdate
		for _, s := range work {
			if o, ok := orders[s.ID]; ok {
				updates = append(updates, tabtree.OrderUpdate{TabID: s.ID, Order: o})
			}
		}
		if err := m.writeOrders(ctx, tabs, updates); err != nil {
			return err
		}
		return tabs.Delete(ctx, t.ID, t.Version)
	})
	if err != nil {
		return fmt.Errorf("close %s: %w", id, mapStale(err))
	}
	if err := m.refreshLocked(ctx); err != nil {
		return err
	}
	if _, ok := m.snap.Get(next); ok {
		m.activeID = next
	} else {
		m.activeID = ""
	}
	m.Log.Debug("tab closed", zap.String("tab_id", id), zap.Int("promoted", len(kids)))
	return nil
}

func neighbour(rows []Row, id string) string {
	for i, r := range rows {
		if r.Tab.ID != id {
			continue
		}
		if i+1 < len(rows) {
			return rows[i+1].Tab.ID
		}
		if i > 0 {
			return rows[i-1].Tab.ID
		}
	}
	return ""
}

// TogglePin flips the pinned flag.
func (m *TabManager) TogglePin(ctx context.Context, id string) (tabtree.Tab, error) {
	return m.setFlags(ctx, id, func(t *tabtree.Tab) { t.Pinned = !t.Pinned })
}

// ToggleFavorite flips the favorite flag.
func (m *TabManager) ToggleFavorite(ctx context.Context, id string) (tabtree.Tab, error) {
	return m.setFlags(ctx, id, func(t *tabtree.Tab) { t.Favorite = !t.Favorite })
}

func (m *TabManager) setFlags(ctx context.Context, id string, flip func(*tabtree.Tab)) (tabtree.Tab, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.snap.Get(id)
	if !ok {
		return tabtree.Tab{}, fmt.Errorf("toggle %s: %w", id, tabtree.ErrUnknownTab)
	}
	flip(&t)
	if err := repository.NewTabRepo(m.DB).SetFlags(ctx, t.ID, t.Version, t.Pinned, t.Favorite); err != nil {
		return tabtree.Tab{}, fmt.Errorf("toggle %s: %w", id, mapStale(err))
	}
	if err := m.refreshLocked(ctx); err != nil {
		return tabtree.Tab{}, err
	}
	t, _ = m.snap.Get(id)
	return t, nil
}

// MoveToContainer moves a tab and its subtree to the end of another
// container's roots.
func (m *TabManager) MoveToContainer(ctx context.Context, tabID, containerID string) (tabtree.Mutation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.containerLocked(containerID); !ok {
		return tabtree.Mutation{}, fmt.Errorf("move to %s: %w", containerID, tabtree.ErrUnknownContainer)
	}
	mut := m.Resolver.Resolve(m.snap, tabID, tabtree.DropTarget{ContainerID: containerID})
	if errors.Is(mut.Reason, tabtree.ErrUnknownTab) {
		return mut, fmt.Errorf("move %s: %w", tabID, tabtree.ErrUnknownTab)
	}
	return mut, m.applyLocked(ctx, mut)
}

// CreateContainer adds a container after the existing ones.
func (m *TabManager) CreateContainer(ctx context.Context, name, emoji string) (tabtree.Container, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	name = strings.TrimSpace(name)
	if name == "" {
		return tabtree.Container{}, fmt.Errorf("create container: name is required")
	}
	order := m.Resolver.Spacing.Step
	if order <= 0 {
		order = tabtree.DefaultStep
	}
	if n := len(m.containers); n > 0 {
		order += m.containers[n-1].Order
	}
	c := tabtree.Container{ID: uuid.NewString(), Name: name, Emoji: emoji, Order: order}
	if err := repository.NewContainerRepo(m.DB).Upsert(ctx, c); err != nil {
		return tabtree.Container{}, fmt.Errorf("create container: %w", err)
	}
	if err := m.refreshLocked(ctx); err != nil {
		return tabtree.Container{}, err
	}
	return c, nil
}

// mapStale turns a lost optimistic write into a mutation conflict.
func mapStale(err error) error {
	if errors.Is(err, repository.ErrStale) {
		return fmt.Errorf("%w: %w", tabtree.ErrMutationConflict, err)
	}
	return err
}
