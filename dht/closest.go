package dht

import (
	"sort"

	"github.com/kutluhann/kademlia-routing/constants"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Closest returns the min(count, Len()) contacts nearest to target, ordered
// by ascending XOR distance with ties broken by ascending id.
//
// Buckets are visited starting at the one target would fall into and then
// outwards (index, index-1, index+1, ...). Peers near that index are the most
// likely to be close to target, but every bucket is visited and the result
// does not depend on the visiting order.
func (rt *RoutingTable) Closest(target id_tools.NodeID, count int) []Contact {
	if count <= 0 || rt.size == 0 {
		return []Contact{}
	}

	candidates := make([]Contact, 0, rt.size)
	rt.scanOutward(target, func(bucket *Bucket) {
		candidates = append(candidates, bucket.contacts...)
	})

	SortByDistance(candidates, target)

	if len(candidates) > count {
		return candidates[:count]
	}
	return candidates
}

// scanOutward calls visit once for every bucket, nearest to target's class
// first. The loop runs at most BucketCount times.
func (rt *RoutingTable) scanOutward(target id_tools.NodeID, visit func(*Bucket)) {
	index := rt.BucketIndex(target)
	if index < 0 {
		// target is the local id; its neighbours sit in the closest class.
		index = 0
	}

	for step := 0; step < constants.BucketCount; step++ {
		if lo := index - step; lo >= 0 {
			visit(rt.buckets[lo])
		}
		if hi := index + step; step > 0 && hi < constants.BucketCount {
			visit(rt.buckets[hi])
		}
	}
}

// SortByDistance orders contacts in place by ascending distance to target.
func SortByDistance(contacts []Contact, target id_tools.NodeID) {
	sort.Sort(&ContactSorter{
		contacts: contacts,
		target:   target,
	})
}

// ContactSorter sorts contacts by XOR distance to target, then by id.
type ContactSorter struct {
	contacts []Contact
	target   id_tools.NodeID
}

func (s *ContactSorter) Len() int      { return len(s.contacts) }
func (s *ContactSorter) Swap(i, j int) { s.contacts[i], s.contacts[j] = s.contacts[j], s.contacts[i] }
func (s *ContactSorter) Less(i, j int) bool {
	if c := id_tools.CompareDistance(s.target, s.contacts[i].ID, s.contacts[j].ID); c != 0 {
		return c < 0
	}
	// Equal distances only arise for equal ids; keep the order total anyway.
	return s.contacts[i].ID.Less(s.contacts[j].ID)
}
