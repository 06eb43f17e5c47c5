package tabtree

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestChildrenOfStaysInContainer(t *testing.T) {
	t.Parallel()

	stray := Tab{ID: "S", ContainerID: "c2", ParentID: StringPtr("A"), Order: 0}
	idx := NewIndex([]Tab{mk("A", 1, ""), mk("A", 1, ""), mk("K2", 2, "A"), mk("K1", 1, "A"), stray})

	require.Equal(t, 4, idx.Len())
	kids := idx.ChildrenOf(mustGet(t, idx, "A"))
	require.Len(t, kids, 2)
	require.Equal(t, "K1", kids[0].ID)
	require.Equal(t, "K2", kids[1].ID)

	_, ok := idx.Parent(stray)
	require.False(t, ok)
}

func TestChildrenOfExcludesSelf(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Tab{mk("A", 1, "A")})
	require.Empty(t, idx.ChildrenOf(mustGet(t, idx, "A")))
	require.False(t, idx.IsAncestor("A", "A"))
}

func TestIsAncestorTerminatesOnCycle(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Tab{mk("A", 1, "B"), mk("B", 1, "A"), mk("X", 1, "")})
	require.True(t, idx.IsAncestor("B", "A"))
	require.False(t, idx.IsAncestor("X", "A"))
}

func TestDescendantsPreorder(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Tab{
		mk("A", 1, ""), mk("B", 2, "A"), mk("C", 1, "A"), mk("D", 1, "C"), mk("E", 1, "B"),
	})
	require.Equal(t, []string{"C", "D", "B", "E"}, idx.Descendants("A"))
	require.Empty(t, idx.Descendants("E"))
	require.Nil(t, idx.Descendants("missing"))
}

func TestScopeBySection(t *testing.T) {
	t.Parallel()

	fav := mk("F", 1, "")
	fav.Favorite = true
	fav.Pinned = true
	pin := mk("P", 1, "")
	pin.Pinned = true
	other := Tab{ID: "O", ContainerID: "c2", Order: 1}
	idx := NewIndex([]Tab{fav, pin, mk("N", 1, ""), other})

	ids := func(tabs []Tab) []string {
		out := make([]string, 0, len(tabs))
		for _, t := range tabs {
			out = append(out, t.ID)
		}
		return out
	}
	require.Equal(t, []string{"F"}, ids(idx.Scope("c1", SectionFavorites)))
	require.Equal(t, []string{"P"}, ids(idx.Scope("c1", SectionPinned)))
	require.Equal(t, []string{"N"}, ids(idx.Scope("c1", SectionNormal)))
	require.Equal(t, []string{"O"}, ids(idx.Scope("c2", SectionNormal)))
}

func TestCollisions(t *testing.T) {
	t.Parallel()

	idx := NewIndex([]Tab{mk("A", 1, ""), mk("B", 1, ""), mk("C", 2, ""), mk("K", 1, "C"), mk("L", 1, "C")})
	diags := idx.Collisions()
	require.Len(t, diags, 2)
	for _, d := range diags {
		require.ErrorIs(t, d, ErrOrderCollision)
	}
}
