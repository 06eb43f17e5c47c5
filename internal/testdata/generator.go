package testdata

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/plyght/ora-plyght/internal/database/repository"
	"github.com/plyght/ora-plyght/internal/tabtree"
)

// Repos bundles repos used by Seed.
type Repos struct {
	Containers *repository.ContainerRepo
	Tabs       *repository.TabRepo
}

type sample struct {
	Path     string // "Parent > Child"
	URL      string
	Pinned   bool
	Favorite bool
}

var workTabs = []sample{
	{Path: "Inbox", URL: "https://mail.example.com", Pinned: true},
	{Path: "Calendar", URL: "https://calendar.example.com", Favorite: true},
	{Path: "Project board", URL: "https://board.example.com"},
	{Path: "Project board > Ticket 142", URL: "https://board.example.com/142"},
	{Path: "Project board > Ticket 142 > Design doc", URL: "https://docs.example.com/142"},
	{Path: "Project board > Ticket 156", URL: "https://board.example.com/156"},
	{Path: "Pull requests", URL: "https://git.example.com/pulls"},
	{Path: "Pull requests > Review: tree flattening", URL: "https://git.example.com/pulls/7"},
}

var personalTabs = []sample{
	{Path: "News", URL: "https://news.example.com"},
	{Path: "Recipes", URL: "https://food.example.com"},
	{Path: "Recipes > Flatbread", URL: "https://food.example.com/flatbread"},
	{Path: "Music", URL: "https://music.example.com", Pinned: true},
}

// Seed creates two sample containers with nested tabs.
func Seed(ctx context.Context, repos Repos) error {
	seq, err := repos.Tabs.NextSeq(ctx)
	if err != nil {
		return err
	}
	for i, group := range []struct {
		name, emoji string
		tabs        []sample
	}{
		{"Work", "💼", workTabs},
		{"Personal", "🏠", personalTabs},
	} {
		c := tabtree.Container{ID: uuid.NewString(), Name: group.name, Emoji: group.emoji, Order: float64(i+1) * tabtree.DefaultStep}
		if err := repos.Containers.Upsert(ctx, c); err != nil {
			return err
		}
		if seq, err = seedTabs(ctx, repos.Tabs, c.ID, group.tabs, seq); err != nil {
			return err
		}
	}
	return nil
}

func seedTabs(ctx context.Context, repo *repository.TabRepo, containerID string, samples []sample, seq int64) (int64, error) {
	ids := map[string]string{}
	counts := map[string]int{}
	for _, s := range samples {
		parts := strings.Split(s.Path, ">")
		title := strings.TrimSpace(parts[len(parts)-1])
		parentPath := strings.TrimSpace(strings.Join(parts[:len(parts)-1], ">"))

		var parentID *string
		if parentPath != "" {
			pid, ok := ids[parentPath]
			if ok {
				parentID = &pid
			}
		}
		counts[parentPath]++
		t := tabtree.Tab{
			ID:          uuid.NewString(),
			ContainerID: containerID,
			ParentID:    parentID,
			Order:       float64(counts[parentPath]) * tabtree.DefaultStep,
			Seq:         seq,
			Title:       title,
			URL:         s.URL,
			Pinned:      s.Pinned,
			Favorite:    s.Favorite,
		}
		if err := repo.Insert(ctx, t); err != nil {
			return seq, err
		}
		ids[strings.TrimSpace(s.Path)] = t.ID
		seq++
	}
	return seq, nil
}
