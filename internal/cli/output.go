package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/plyght/ora-plyght/internal/service"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

// TabView is the serialisable form of a sidebar row.
type TabView struct {
	ID        string  `json:"id" yaml:"id"`
	Title     string  `json:"title,omitempty" yaml:"title,omitempty"`
	URL       string  `json:"url,omitempty" yaml:"url,omitempty"`
	ParentID  string  `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Container string  `json:"container" yaml:"container"`
	Section   string  `json:"section" yaml:"section"`
	Depth     int     `json:"depth" yaml:"depth"`
	Order     float64 `json:"order" yaml:"order"`
	Active    bool    `json:"active,omitempty" yaml:"active,omitempty"`
}

// Listing is what `list` prints.
type Listing struct {
	Container   string    `json:"container" yaml:"container"`
	Tabs        []TabView `json:"tabs" yaml:"tabs"`
	Diagnostics []string  `json:"diagnostics,omitempty" yaml:"diagnostics,omitempty"`
}

// NewListing converts rows of one container into a Listing.
func NewListing(c tabtree.Container, section tabtree.Section, rows []service.Row, diags []tabtree.Diagnostic) Listing {
	l := Listing{Container: c.Name, Tabs: make([]TabView, 0, len(rows))}
	for _, r := range rows {
		v := TabView{
			ID:        r.Tab.ID,
			Title:     r.Tab.Title,
			URL:       r.Tab.URL,
			Container: c.Name,
			Section:   section.String(),
			Depth:     r.Depth,
			Order:     r.Tab.Order,
			Active:    r.Active,
		}
		if r.Tab.ParentID != nil {
			v.ParentID = *r.Tab.ParentID
		}
		l.Tabs = append(l.Tabs, v)
	}
	for _, d := range diags {
		l.Diagnostics = append(l.Diagnostics, d.Error())
	}
	return l
}

// Format renders v as json, yaml or text. Text rendering understands
// []Listing, []tabtree.Container and []service.Finding; anything else is
// printed with %v.
func Format(v any, format string) (string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return "", err
		}
		return string(data) + "\n", nil

	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return "", err
		}
		return string(data), nil

	case "text", "":
		return formatText(v), nil

	default:
		return "", fmt.Errorf("unknown output format %q (json/yaml/text)", format)
	}
}

func formatText(v any) string {
	var sb strings.Builder
	switch x := v.(type) {
	case []Listing:
		for i, l := range x {
			if i > 0 {
				sb.WriteString("\n")
			}
			writeListing(&sb, l)
		}
	case []tabtree.Container:
		for _, c := range x {
			fmt.Fprintf(&sb, "%s  %s\n", c.ID, strings.TrimSpace(c.Emoji+" "+c.Name))
		}
	case []service.Finding:
		if len(x) == 0 {
			sb.WriteString("no problems found\n")
		}
		for _, f := range x {
			fmt.Fprintf(&sb, "[%s/%s] %s\n", f.ContainerID, f.Section, f.Error())
		}
	default:
		fmt.Fprintf(&sb, "%v\n", v)
	}
	return sb.String()
}

func writeListing(sb *strings.Builder, l Listing) {
	sb.WriteString(l.Container + "\n")
	section := ""
	for _, t := range l.Tabs {
		if t.Section != section {
			fmt.Fprintf(sb, "  [%s]\n", t.Section)
			section = t.Section
		}
		marker := " "
		if t.Active {
			marker = "*"
		}
		title := t.Title
		if title == "" {
			title = t.URL
		}
		fmt.Fprintf(sb, "  %s %s%s  %s\n", marker, strings.Repeat("  ", t.Depth), title, shortID(t.ID))
	}
	for _, d := range l.Diagnostics {
		fmt.Fprintf(sb, "  ! %s\n", d)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
