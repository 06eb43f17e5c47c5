package service

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/plyght/ora-plyght/internal/tabtree"
)

func names(cs []tabtree.Container) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func TestContainerPickerMatch(t *testing.T) {
	t.Parallel()

	cs := []tabtree.Container{
		{ID: "1", Name: "Work"},
		{ID: "2", Name: "Personal"},
		{ID: "3", Name: "Research"},
		{ID: "4", Name: "Worship"},
	}
	p := ContainerPicker{ExcludeID: "1"}

	require.Equal(t, []string{"Personal", "Research", "Worship"}, names(p.Match(cs, "")))
	require.Equal(t, "Worship", p.Match(cs, "wor")[0].Name, "prefix first")
	require.Equal(t, "Research", p.Match(cs, "reserch")[0].Name)
}

func TestContainerPickerResolve(t *testing.T) {
	t.Parallel()

	cs := []tabtree.Container{{ID: "1", Name: "Work"}, {ID: "2", Name: "Personal"}}
	p := ContainerPicker{}

	c, ok := p.Resolve(cs, "2")
	require.True(t, ok)
	require.Equal(t, "Personal", c.Name)

	c, ok = p.Resolve(cs, "persnal")
	require.True(t, ok)
	require.Equal(t, "2", c.ID)

	_, ok = p.Resolve(cs, "zzzzzzzzzzzz")
	require.False(t, ok)

	_, ok = ContainerPicker{ExcludeID: "1"}.Resolve(cs[:1], "Work")
	require.False(t, ok)
}
