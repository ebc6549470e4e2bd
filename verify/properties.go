// Package verify checks the routing table against the properties it must
// hold for every input. The checks only use the public dht and id_tools API.
package verify

import (
	"fmt"

	"github.com/kutluhann/kademlia-routing/dht"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// CheckMetric verifies symmetry, identity and the ultrametric inequality for
// one triple. Raw XOR values only satisfy the inequality up to distance
// class (d(0,3) = 3 > max(1, 2)), so it is checked on leading-zero counts.
func CheckMetric(a, b, c id_tools.NodeID) error {
	if id_tools.Xor(a, b) != id_tools.Xor(b, a) {
		return fmt.Errorf("%w: d(%s, %s) is not symmetric", ErrMetric, a, b)
	}
	if !id_tools.Xor(a, a).IsZero() {
		return fmt.Errorf("%w: d(%s, %s) is not zero", ErrMetric, a, a)
	}
	if id_tools.Xor(a, b).IsZero() != (a == b) {
		return fmt.Errorf("%w: d(%s, %s) is zero for distinct ids", ErrMetric, a, b)
	}

	bound := min(id_tools.Xor(a, b).LeadingZeros(), id_tools.Xor(b, c).LeadingZeros())
	if id_tools.Xor(a, c).LeadingZeros() < bound {
		return fmt.Errorf("%w: d(%s, %s) is in a farther class than both d(a,b) and d(b,c), b = %s", ErrMetric, a, c, b)
	}
	return nil
}

// CheckDistanceInversion verifies that comparing p and q by distance to
// target gives one answer whichever formulation is used, that the answer is
// antisymmetric, and that it is a tie only when p == q.
func CheckDistanceInversion(target, p, q id_tools.NodeID) error {
	dp, dq := id_tools.Xor(target, p), id_tools.Xor(target, q)

	direct := dp.Cmp(dq)
	if byPrefix := dp.CmpByPrefix(dq); byPrefix != direct {
		return fmt.Errorf("%w: target %s, p %s, q %s: direct %d, by prefix %d",
			ErrInversion, target, p, q, direct, byPrefix)
	}
	if reverse := id_tools.CompareDistance(target, q, p); reverse != -direct {
		return fmt.Errorf("%w: target %s, p %s, q %s: order is not antisymmetric",
			ErrInversion, target, p, q)
	}
	if (direct == 0) != (p == q) {
		return fmt.Errorf("%w: target %s, p %s, q %s: tie between distinct ids",
			ErrInversion, target, p, q)
	}
	return nil
}

// CheckOrderedClosest verifies one Closest(target, n) answer: strictly
// ascending by (distance, id), no duplicates, every entry known to the
// table, length min(n, Len()), and no left-out contact closer than the last
// entry.
func CheckOrderedClosest(table *dht.RoutingTable, target id_tools.NodeID, n int) error {
	got := table.Closest(target, n)

	want := min(max(n, 0), table.Len())
	if len(got) != want {
		return fmt.Errorf("%w: %d contacts for n=%d over %d known", ErrMembership, len(got), n, table.Len())
	}

	seen := make(map[id_tools.NodeID]bool, len(got))
	for i, c := range got {
		if seen[c.ID] {
			return fmt.Errorf("%w: duplicate %s", ErrMembership, c.ID)
		}
		seen[c.ID] = true

		if !table.Contains(c.ID) {
			return fmt.Errorf("%w: %s is not in the table", ErrMembership, c.ID)
		}
		if i == 0 {
			continue
		}

		prev := got[i-1]
		if err := CheckDistanceInversion(target, prev.ID, c.ID); err != nil {
			return err
		}
		order := id_tools.CompareDistance(target, prev.ID, c.ID)
		if order > 0 || (order == 0 && !prev.ID.Less(c.ID)) {
			return fmt.Errorf("%w: %s listed before %s for target %s",
				ErrOrdering, prev.ID, c.ID, target)
		}
	}

	if len(got) == 0 || len(got) == table.Len() {
		return nil
	}

	last := got[len(got)-1]
	for c := range table.All() {
		if seen[c.ID] {
			continue
		}
		if id_tools.CompareDistance(target, c.ID, last.ID) < 0 {
			return fmt.Errorf("%w: %s was left out but is closer than %s",
				ErrOrdering, c.ID, last.ID)
		}
	}
	return nil
}

// CheckCapacity verifies the structural invariants of the table.
func CheckCapacity(table *dht.RoutingTable) error {
	return table.Validate()
}
