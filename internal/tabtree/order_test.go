package tabtree

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func siblingsWith(orders ...float64) []Tab {
	out := make([]Tab, len(orders))
	for i, o := range orders {
		out[i] = Tab{ID: string(rune('a' + i)), ContainerID: "c1", Order: o, Seq: int64(i)}
	}
	return out
}

func TestPlaceBoundaries(t *testing.T) {
	t.Parallel()

	s := Spacing{}
	order, renumber := s.Place(nil, 0)
	require.Equal(t, DefaultStep, order)
	require.Empty(t, renumber)

	sibs := siblingsWith(1, 2, 3)
	order, renumber = s.Place(sibs, 0)
	require.Equal(t, 0.0, order)
	require.Empty(t, renumber)

	order, renumber = s.Place(sibs, 3)
	require.Equal(t, 4.0, order)
	require.Empty(t, renumber)
}

func TestPlaceBetweenLeavesNeighboursAlone(t *testing.T) {
	t.Parallel()

	sibs := siblingsWith(1, 2, 3)
	order, renumber := Spacing{}.Place(sibs, 1)
	require.Greater(t, order, 1.0)
	require.Less(t, order, 2.0)
	require.Empty(t, renumber)
}

func TestPlaceCollisionRenumbersNeighbourhoodOnly(t *testing.T) {
	t.Parallel()

	// b and c collide; the rest of the group has room
	sibs := siblingsWith(0, 10, 10, 20, 30, 40)
	order, renumber := Spacing{}.Place(sibs, 2)

	require.NotEmpty(t, renumber)
	require.LessOrEqual(t, len(renumber), 2)
	changed := map[string]float64{}
	for _, u := range renumber {
		changed[u.TabID] = u.Order
	}
	for _, untouched := range []string{"a", "e", "f"} {
		require.NotContains(t, changed, untouched)
	}

	keys := map[string]float64{}
	for _, s := range sibs {
		keys[s.ID] = s.Order
	}
	for id, o := range changed {
		keys[id] = o
	}
	require.Less(t, keys["b"], order)
	require.Less(t, order, keys["c"])
	require.Less(t, keys["a"], keys["b"])
	require.Less(t, keys["c"], keys["d"])
}

func TestPlacePrecisionExhaustion(t *testing.T) {
	t.Parallel()

	lo := 1.0
	hi := math.Nextafter(lo, 2)
	sibs := siblingsWith(lo, hi)
	order, renumber := Spacing{}.Place(sibs, 1)

	keys := map[string]float64{"a": lo, "b": hi}
	for _, u := range renumber {
		keys[u.TabID] = u.Order
	}
	require.Less(t, keys["a"], order)
	require.Less(t, order, keys["b"])
}

func TestPlaceFullRenumberFallback(t *testing.T) {
	t.Parallel()

	big := math.MaxFloat64
	sibs := siblingsWith(big, big, big)
	order, renumber := Spacing{}.Place(sibs, 3)
	require.Len(t, renumber, 3)
	require.Equal(t, 4.0, order)
	for i, u := range renumber {
		require.Equal(t, sibs[i].ID, u.TabID)
		require.Equal(t, float64(i+1), u.Order)
	}
}

func TestSpread(t *testing.T) {
	t.Parallel()

	keys, ok := Spread(0, 4, 3)
	require.True(t, ok)
	require.Equal(t, []float64{1, 2, 3}, keys)

	_, ok = Spread(1, math.Nextafter(1, 2), 2)
	require.False(t, ok)

	keys, ok = Spread(0, 1, 0)
	require.True(t, ok)
	require.Empty(t, keys)
}
