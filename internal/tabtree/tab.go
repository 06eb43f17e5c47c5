package tabtree

// Tab is a single sidebar entry. Hierarchy is expressed only through ParentID;
// the child index lives in Index, never on the entity.
type Tab struct {
	ID          string
	ContainerID string
	ParentID    *string
	Order       float64
	Seq         int64
	Title       string
	URL         string
	Pinned      bool
	Favorite    bool
	Version     int64
}

// IsRoot reports whether the tab has no parent reference at all.
func (t Tab) IsRoot() bool { return t.ParentID == nil }

// HasParent reports whether the tab's parent reference equals id.
func (t Tab) HasParent(id string) bool {
	return t.ParentID != nil && *t.ParentID == id
}

// Section derives the sidebar section the tab is displayed in.
func (t Tab) Section() Section {
	switch {
	case t.Favorite:
		return SectionFavorites
	case t.Pinned:
		return SectionPinned
	default:
		return SectionNormal
	}
}

// InSection returns t with the flags that make it display in s.
func (t Tab) InSection(s Section) Tab {
	switch s {
	case SectionFavorites:
		t.Favorite = true
	case SectionPinned:
		t.Favorite, t.Pinned = false, true
	default:
		t.Favorite, t.Pinned = false, false
	}
	return t
}

// parentKey is the parent id or "" for roots.
func (t Tab) parentKey() string {
	if t.ParentID == nil {
		return ""
	}
	return *t.ParentID
}

// Container groups tabs, e.g. a workspace or profile.
type Container struct {
	ID    string
	Name  string
	Emoji string
	Order float64
}

// Section is a display bucket inside a container.
type Section int

const (
	SectionNormal Section = iota
	SectionPinned
	SectionFavorites
)

func (s Section) String() string {
	switch s {
	case SectionPinned:
		return "pinned"
	case SectionFavorites:
		return "favorites"
	default:
		return "normal"
	}
}

// ParseSection maps a section name back to its value; unknown names are normal.
func ParseSection(name string) Section {
	switch name {
	case "pinned":
		return SectionPinned
	case "favorites", "favorite":
		return SectionFavorites
	default:
		return SectionNormal
	}
}

// less is the total sibling order: key, then insertion sequence, then id.
func less(a, b Tab) bool {
	if a.Order != b.Order {
		return a.Order < b.Order
	}
	if a.Seq != b.Seq {
		return a.Seq < b.Seq
	}
	return a.ID < b.ID
}

// StringPtr returns a pointer to a copy of s.
func StringPtr(s string) *string { return &s }
