package dht

import (
	"fmt"
	"math/rand/v2"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

func contactFor(v uint64) Contact {
	return Contact{
		ID:   id_tools.NodeIDFromUint64(v),
		IP:   "127.0.0.1",
		Port: 3000 + int(v%1000),
		Name: fmt.Sprintf("node%d", v),
	}
}

func randomContact(r *rand.Rand) Contact {
	return Contact{
		ID:   id_tools.RandomNodeIDFrom(r),
		IP:   "10.0.0.1",
		Port: 4000 + r.IntN(1000),
	}
}

// nearContact returns a contact sharing a random-length prefix with base, so
// that random tables populate many buckets instead of only the far ones.
func nearContact(r *rand.Rand, base id_tools.NodeID) Contact {
	id := base
	for n := r.IntN(3) + 1; n > 0; n-- {
		id = id.FlipBit(r.IntN(256))
	}
	return Contact{ID: id, IP: "10.0.0.2", Port: 5000 + r.IntN(1000)}
}

func ids(contacts []Contact) []id_tools.NodeID {
	out := make([]id_tools.NodeID, len(contacts))
	for i, c := range contacts {
		out[i] = c.ID
	}
	return out
}
