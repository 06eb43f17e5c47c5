package tabtree

// Default spacing between sibling keys.
const (
	DefaultStep   = 1.0
	DefaultMinGap = 1e-9
)

// OrderUpdate assigns a new key to an existing sibling.
type OrderUpdate struct {
	TabID string
	Order float64
}

// Spacing controls how new ordering keys are generated.
type Spacing struct {
	Step   float64
	MinGap float64
}

func (s Spacing) normalized() Spacing {
	if s.Step <= 0 {
		s.Step = DefaultStep
	}
	if s.MinGap <= 0 {
		s.MinGap = DefaultMinGap
	}
	return s
}

// Spread returns n keys evenly spaced strictly inside (lo, hi). ok is false
// when the keys would not be strictly increasing.
func Spread(lo, hi float64, n int) ([]float64, bool) {
	if n <= 0 {
		return nil, true
	}
	out := make([]float64, n)
	gap := (hi - lo) / float64(n+1)
	prev := lo
	for i := range out {
		k := lo + gap*float64(i+1)
		if k <= prev || k >= hi {
			return nil, false
		}
		out[i] = k
		prev = k
	}
	return out, true
}

// Place computes the key for inserting a tab at index at of the sorted
// sibling list (which must not contain the inserted tab). When the gap at the
// insertion point is too small, a window of neighbours is widened until its
// keys can be spread again; renumber lists only siblings whose key changed.
func (s Spacing) Place(siblings []Tab, at int) (order float64, renumber []OrderUpdate) {
	s = s.normalized()
	n := len(siblings)
	if at < 0 {
		at = 0
	}
	if at > n {
		at = n
	}
	switch {
	case n == 0:
		return s.Step, nil
	case at == 0:
		if k := siblings[0].Order - s.Step; k < siblings[0].Order {
			return k, nil
		}
	case at == n:
		if k := siblings[n-1].Order + s.Step; k > siblings[n-1].Order {
			return k, nil
		}
	default:
		lo, hi := siblings[at-1].Order, siblings[at].Order
		if hi-lo >= 2*s.MinGap {
			if mid := lo + (hi-lo)/2; mid > lo && mid < hi {
				return mid, nil
			}
		}
	}
	return s.renumber(siblings, at)
}

// renumber widens [l, r) around the insertion point one neighbour at a time,
// alternating sides, until the window plus the inserted tab fits between its
// bounds. The whole group is respaced only as a last resort.
func (s Spacing) renumber(siblings []Tab, at int) (float64, []OrderUpdate) {
	n := len(siblings)
	l, r := at, at
	for {
		if keys, ok := s.fit(siblings, l, r); ok {
			return s.assign(siblings, l, r, at, keys)
		}
		if l == 0 && r == n {
			break
		}
		if (r-l)%2 == 0 && l > 0 || r == n {
			l--
		} else {
			r++
		}
	}
	keys := make([]float64, n+1)
	for i := range keys {
		keys[i] = s.Step * float64(i+1)
	}
	return s.assign(siblings, 0, n, at, keys)
}

// fit returns keys for siblings[l:r] plus the inserted tab, bounded by the
// neighbours outside the window. Open ends step away from the bounded side.
func (s Spacing) fit(siblings []Tab, l, r int) ([]float64, bool) {
	n := len(siblings)
	k := r - l + 1
	hasLo, hasHi := l > 0, r < n
	switch {
	case hasLo && hasHi:
		lo, hi := siblings[l-1].Order, siblings[r].Order
		if (hi-lo)/float64(k+1) < s.MinGap {
			return nil, false
		}
		return Spread(lo, hi, k)
	case hasLo:
		lo := siblings[l-1].Order
		return Spread(lo, lo+s.Step*float64(k+1), k)
	case hasHi:
		hi := siblings[r].Order
		return Spread(hi-s.Step*float64(k+1), hi, k)
	default:
		return nil, false
	}
}

func (s Spacing) assign(siblings []Tab, l, r, at int, keys []float64) (float64, []OrderUpdate) {
	var order float64
	var updates []OrderUpdate
	ki := 0
	for i := l; i <= r; i++ {
		if i == at {
			order = keys[ki]
			ki++
		}
		if i == r {
			break
		}
		if siblings[i].Order != keys[ki] {
			updates = append(updates, OrderUpdate{TabID: siblings[i].ID, Order: keys[ki]})
		}
		ki++
	}
	return order, updates
}
