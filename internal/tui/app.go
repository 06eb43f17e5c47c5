package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sahilm/fuzzy"
	"go.uber.org/zap"

	"github.com/plyght/ora-plyght/internal/config"
	"github.com/plyght/ora-plyght/internal/prefs"
	"github.com/plyght/ora-plyght/internal/service"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

// sections in display order
var sections = []tabtree.Section{tabtree.SectionFavorites, tabtree.SectionPinned, tabtree.SectionNormal}

// Options wires the sidebar to its session state.
type Options struct {
	Session     prefs.Session
	SaveSession func(prefs.Session) error
	Logger      *zap.Logger
}

// App is the sidebar model.
type App struct {
	ctx    context.Context
	mgr    *service.TabManager
	cfg    config.Config
	log    *zap.Logger
	save   func(prefs.Session) error
	keys   keyMap
	indent int

	containers  []tabtree.Container
	containerID string
	rows        []sidebarRow
	visible     []int // indexes into rows after filtering
	cursor      int
	token       tabtree.Token
	status      string
	modal       modalState
	input       textinput.Model
	newParent   *string
	filter      string
	picks       []tabtree.Container
	pickCursor  int
	pickTabID   string
	pickDragged bool
}

type sidebarRow struct {
	service.Row
	Section tabtree.Section
}

type modalState string

const (
	modalNone   modalState = ""
	modalNewTab modalState = "newTab"
	modalFilter modalState = "filter"
	modalPicker modalState = "picker"
)

func New(ctx context.Context, cfg config.Config, mgr *service.TabManager, opts Options) *App {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	save := opts.SaveSession
	if save == nil {
		save = func(prefs.Session) error { return nil }
	}
	indent := cfg.UI.Indent
	if indent <= 0 {
		indent = 2
	}
	ti := textinput.New()
	ti.CharLimit = 256
	a := &App{
		ctx:         ctx,
		mgr:         mgr,
		cfg:         cfg,
		log:         log,
		save:        save,
		keys:        defaultKeys(),
		indent:      indent,
		input:       ti,
		containerID: opts.Session.ContainerID,
	}
	if id := opts.Session.ActiveTabID; id != "" {
		if err := mgr.Activate(id); err != nil {
			log.Debug("restore active tab", zap.String("tab_id", id), zap.Error(err))
		}
	}
	return a
}

func (a *App) Init() tea.Cmd {
	return a.loadRows("")
}

// messages
type rowsMsg struct {
	containers  []tabtree.Container
	containerID string
	rows        []sidebarRow
	status      string
}

type statusMsg string

type errMsg struct{ error }

// loadRows reads the committed snapshot of the selected container.
func (a *App) loadRows(status string) tea.Cmd {
	containerID := a.containerID
	return func() tea.Msg {
		return a.snapshotRows(containerID, status)
	}
}

func (a *App) snapshotRows(containerID, status string) rowsMsg {
	containers := a.mgr.Containers()
	found := false
	for _, c := range containers {
		if c.ID == containerID {
			found = true
		}
	}
	if !found {
		containerID = a.defaultContainer(containers)
	}
	var rows []sidebarRow
	for _, sec := range sections {
		for _, r := range a.mgr.Rows(containerID, sec) {
			rows = append(rows, sidebarRow{Row: r, Section: sec})
		}
	}
	return rowsMsg{containers: containers, containerID: containerID, rows: rows, status: status}
}

func (a *App) defaultContainer(containers []tabtree.Container) string {
	if len(containers) == 0 {
		return ""
	}
	want := strings.ToLower(strings.TrimSpace(a.cfg.UI.DefaultContainer))
	for _, c := range containers {
		if strings.ToLower(c.Name) == want {
			return c.ID
		}
	}
	return containers[0].ID
}

// mutate runs fn and then reloads, in one command, so the rows shown always
// reflect committed state.
func (a *App) mutate(fn func() (string, error)) tea.Cmd {
	containerID := a.containerID
	return func() tea.Msg {
		status, err := fn()
		if err != nil {
			a.log.Warn("sidebar action failed", zap.Error(err))
			return errMsg{err}
		}
		return a.snapshotRows(containerID, status)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.KeyMsg:
		if a.modal != modalNone {
			return a.handleModalKey(m)
		}
		return a.handleKey(m)
	case rowsMsg:
		a.containers = m.containers
		a.containerID = m.containerID
		a.rows = m.rows
		a.applyFilter()
		if m.status != "" {
			a.status = m.status
		}
		if a.mgr.DraggedID() == "" {
			a.token = ""
		}
	case statusMsg:
		a.status = string(m)
	case errMsg:
		a.status = "error: " + m.Error()
		return a, a.loadRows("")
	}
	return a, nil
}

func (a *App) handleKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	k := a.keys
	switch {
	case key.Matches(m, k.Quit):
		return a, tea.Quit
	case key.Matches(m, k.Up):
		if a.cursor > 0 {
			a.cursor--
		}
	case key.Matches(m, k.Down):
		if a.cursor < len(a.visible)-1 {
			a.cursor++
		}
	case key.Matches(m, k.Cancel):
		if a.token != "" {
			a.mgr.CancelDrag()
			a.token = ""
			a.status = "drag cancelled"
			return a, a.loadRows("")
		}
		if a.filter != "" {
			a.filter = ""
			a.applyFilter()
		}
	case key.Matches(m, k.Activate):
		if row, ok := a.current(); ok {
			return a, a.activateCmd(row.Tab.ID)
		}
	case key.Matches(m, k.PickDropInto):
		return a, a.pickOrDrop(tabtree.PositionInto)
	case key.Matches(m, k.DropBefore):
		return a, a.pickOrDrop(tabtree.PositionBefore)
	case key.Matches(m, k.DropAfter):
		return a, a.pickOrDrop(tabtree.PositionAfter)
	case key.Matches(m, k.NewTab):
		a.openNewTab(nil)
	case key.Matches(m, k.NewChild):
		if row, ok := a.current(); ok {
			a.openNewTab(tabtree.StringPtr(row.Tab.ID))
		}
	case key.Matches(m, k.Close):
		if row, ok := a.current(); ok {
			id := row.Tab.ID
			return a, a.mutate(func() (string, error) {
				if err := a.mgr.CloseTab(a.ctx, id); err != nil {
					return "", err
				}
				return "closed " + row.Tab.Title, a.persist()
			})
		}
	case key.Matches(m, k.Pin):
		if row, ok := a.current(); ok {
			return a, a.mutate(func() (string, error) {
				t, err := a.mgr.TogglePin(a.ctx, row.Tab.ID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("pinned: %v", t.Pinned), nil
			})
		}
	case key.Matches(m, k.Favorite):
		if row, ok := a.current(); ok {
			return a, a.mutate(func() (string, error) {
				t, err := a.mgr.ToggleFavorite(a.ctx, row.Tab.ID)
				if err != nil {
					return "", err
				}
				return fmt.Sprintf("favorite: %v", t.Favorite), nil
			})
		}
	case key.Matches(m, k.Move):
		a.openPicker()
	case key.Matches(m, k.NextContainer):
		if len(a.containers) > 1 {
			for i, c := range a.containers {
				if c.ID == a.containerID {
					a.containerID = a.containers[(i+1)%len(a.containers)].ID
					break
				}
			}
			a.cursor = 0
			return a, tea.Batch(a.loadRows(""), a.persistCmd())
		}
	case key.Matches(m, k.Filter):
		a.modal = modalFilter
		a.input.Placeholder = "filter tabs"
		a.input.SetValue(a.filter)
		a.input.Focus()
	}
	return a, nil
}

// pickOrDrop starts a drag on the cursor row, or drops the dragged tab
// relative to it.
func (a *App) pickOrDrop(pos tabtree.Position) tea.Cmd {
	row, ok := a.current()
	if a.token == "" {
		if !ok || pos != tabtree.PositionInto {
			return nil
		}
		tok, err := a.mgr.DragStarted(row.Tab.ID)
		if err != nil {
			return func() tea.Msg { return errMsg{err} }
		}
		a.token = tok
		a.status = "dragging " + row.Tab.Title + " (space: into, [ ]: before/after, esc: cancel)"
		return a.loadRows("")
	}
	target := tabtree.DropTarget{ContainerID: a.containerID, Position: pos}
	if ok {
		target.TabID = row.Tab.ID
	}
	return a.drop(target)
}

func (a *App) drop(target tabtree.DropTarget) tea.Cmd {
	tok := a.token
	a.token = ""
	return a.mutate(func() (string, error) {
		mut, err := a.mgr.DropOccurred(a.ctx, tok, target)
		if err != nil {
			return "", err
		}
		if mut.IsNoop() {
			return "nothing moved: " + noopReason(mut.Reason), nil
		}
		return mut.Kind.String(), nil
	})
}

func noopReason(err error) string {
	switch {
	case errors.Is(err, tabtree.ErrCycleDetected):
		return "cannot drop a tab into its own subtree"
	case errors.Is(err, tabtree.ErrSelfDrop):
		return "dropped onto itself"
	case errors.Is(err, tabtree.ErrUnchanged):
		return "already there"
	case err != nil:
		return err.Error()
	default:
		return "no change"
	}
}

func (a *App) activateCmd(id string) tea.Cmd {
	return a.mutate(func() (string, error) {
		if err := a.mgr.Activate(id); err != nil {
			return "", err
		}
		return "", a.persist()
	})
}

func (a *App) persist() error {
	return a.save(prefs.Session{ActiveTabID: a.mgr.ActiveID(), ContainerID: a.containerID})
}

func (a *App) persistCmd() tea.Cmd {
	return func() tea.Msg {
		if err := a.persist(); err != nil {
			return errMsg{err}
		}
		return nil
	}
}

func (a *App) openNewTab(parent *string) {
	a.modal = modalNewTab
	a.newParent = parent
	a.input.Placeholder = "title"
	a.input.SetValue("")
	a.input.Focus()
}

func (a *App) openPicker() {
	tabID := a.mgr.DraggedID()
	a.pickDragged = tabID != ""
	if tabID == "" {
		row, ok := a.current()
		if !ok {
			return
		}
		tabID = row.Tab.ID
	}
	t, ok := a.mgr.Snapshot().Get(tabID)
	if !ok {
		return
	}
	a.pickTabID = tabID
	a.picks = service.ContainerPicker{ExcludeID: t.ContainerID}.Match(a.containers, "")
	a.pickCursor = 0
	a.modal = modalPicker
	a.input.Placeholder = "container"
	a.input.SetValue("")
	a.input.Focus()
}

func (a *App) handleModalKey(m tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.String() {
	case "esc":
		a.modal = modalNone
		a.input.Blur()
		a.pickDragged = false
		return a, nil
	case "enter":
		return a.submitModal()
	}
	if a.modal == modalPicker {
		switch m.String() {
		case "up", "ctrl+p":
			if a.pickCursor > 0 {
				a.pickCursor--
			}
			return a, nil
		case "down", "ctrl+n":
			if a.pickCursor < len(a.picks)-1 {
				a.pickCursor++
			}
			return a, nil
		}
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(m)
	switch a.modal {
	case modalFilter:
		a.filter = a.input.Value()
		a.applyFilter()
	case modalPicker:
		if t, ok := a.mgr.Snapshot().Get(a.pickTabID); ok {
			a.picks = service.ContainerPicker{ExcludeID: t.ContainerID}.Match(a.containers, a.input.Value())
			a.pickCursor = 0
		}
	}
	return a, cmd
}

func (a *App) submitModal() (tea.Model, tea.Cmd) {
	modal := a.modal
	value := strings.TrimSpace(a.input.Value())
	a.modal = modalNone
	a.input.Blur()
	switch modal {
	case modalFilter:
		a.filter = value
		a.applyFilter()
	case modalNewTab:
		if value == "" {
			return a, nil
		}
		params := service.NewTabParams{ContainerID: a.containerID, ParentID: a.newParent, Title: value}
		return a, a.mutate(func() (string, error) {
			t, err := a.mgr.NewTab(a.ctx, params)
			if err != nil {
				return "", err
			}
			return "opened " + t.Title, a.persist()
		})
	case modalPicker:
		if a.pickCursor >= len(a.picks) {
			return a, nil
		}
		dest := a.picks[a.pickCursor]
		if a.pickDragged && a.token != "" {
			a.pickDragged = false
			return a, a.drop(tabtree.DropTarget{ContainerID: dest.ID})
		}
		tabID := a.pickTabID
		return a, a.mutate(func() (string, error) {
			if _, err := a.mgr.MoveToContainer(a.ctx, tabID, dest.ID); err != nil {
				return "", err
			}
			return "moved to " + dest.Name, nil
		})
	}
	return a, nil
}

// applyFilter narrows the visible rows with a fuzzy match on titles and URLs.
func (a *App) applyFilter() {
	a.visible = a.visible[:0]
	if a.filter == "" {
		for i := range a.rows {
			a.visible = append(a.visible, i)
		}
	} else {
		data := make([]string, len(a.rows))
		for i, r := range a.rows {
			data[i] = r.Tab.Title + " " + r.Tab.URL
		}
		matches := fuzzy.Find(a.filter, data)
		keep := make(map[int]bool, len(matches))
		for _, m := range matches {
			keep[m.Index] = true
		}
		// keep tree order rather than score order
		for i := range a.rows {
			if keep[i] {
				a.visible = append(a.visible, i)
			}
		}
	}
	if a.cursor >= len(a.visible) {
		a.cursor = len(a.visible) - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) current() (sidebarRow, bool) {
	if a.cursor < 0 || a.cursor >= len(a.visible) {
		return sidebarRow{}, false
	}
	return a.rows[a.visible[a.cursor]], true
}

// styles
var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Underline(true)
	sectionStyle  = lipgloss.NewStyle().Faint(true)
	cursorStyle   = lipgloss.NewStyle().Reverse(true)
	activeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	draggingStyle = lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("214"))
	helpStyle     = lipgloss.NewStyle().Faint(true)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(a.renderContainers())
	b.WriteString("\n")

	last := tabtree.Section(-1)
	for pos, idx := range a.visible {
		r := a.rows[idx]
		if r.Section != last {
			b.WriteString("\n" + sectionStyle.Render(sectionTitle(r.Section)) + "\n")
			last = r.Section
		}
		b.WriteString(a.renderRow(r, pos == a.cursor) + "\n")
	}
	if len(a.visible) == 0 {
		b.WriteString("\n" + sectionStyle.Render("no tabs - press n to open one") + "\n")
	}
	if a.modal != modalNone {
		b.WriteString("\n" + a.renderModal())
	}
	if a.status != "" {
		b.WriteString("\n" + a.status)
	}
	b.WriteString("\n" + a.renderHelp())
	return b.String()
}

func (a *App) renderContainers() string {
	parts := make([]string, 0, len(a.containers))
	for _, c := range a.containers {
		label := strings.TrimSpace(c.Emoji + " " + c.Name)
		if c.ID == a.containerID {
			label = titleStyle.Render(label)
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, "  ")
}

func sectionTitle(s tabtree.Section) string {
	switch s {
	case tabtree.SectionFavorites:
		return "Favorites"
	case tabtree.SectionPinned:
		return "Pinned"
	default:
		return "Tabs"
	}
}

func (a *App) renderRow(r sidebarRow, selected bool) string {
	marker := "  "
	switch {
	case r.Dragging:
		marker = "⇅ "
	case r.Active:
		marker = "● "
	}
	title := r.Tab.Title
	if title == "" {
		title = r.Tab.URL
	}
	if title == "" {
		title = shortID(r.Tab.ID)
	}
	line := strings.Repeat(" ", r.Depth*a.indent) + marker + title
	switch {
	case selected:
		return cursorStyle.Render(line)
	case r.Dragging:
		return draggingStyle.Render(line)
	case r.Active:
		return activeStyle.Render(line)
	}
	return line
}

func (a *App) renderModal() string {
	switch a.modal {
	case modalPicker:
		lines := []string{"Move to: " + a.input.View()}
		for i, c := range a.picks {
			prefix := "  "
			if i == a.pickCursor {
				prefix = "> "
			}
			lines = append(lines, prefix+strings.TrimSpace(c.Emoji+" "+c.Name))
		}
		return strings.Join(lines, "\n")
	case modalNewTab:
		if a.newParent != nil {
			return "New child tab: " + a.input.View()
		}
		return "New tab: " + a.input.View()
	default:
		return "/" + a.input.View()
	}
}

func (a *App) renderHelp() string {
	parts := make([]string, 0, len(a.keys.help()))
	for _, k := range a.keys.help() {
		h := k.Help()
		parts = append(parts, fmt.Sprintf("[%s] %s", h.Key, h.Desc))
	}
	return helpStyle.Render(strings.Join(parts, "  "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
