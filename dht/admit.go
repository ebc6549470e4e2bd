package dht

import (
	"context"
	"errors"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Prober is the part of the transport the admission policy needs. SendPing
// returns nil when the receiver answered.
type Prober interface {
	SendPing(ctx context.Context, receiver Contact) error
}

// Table is satisfied by both RoutingTable and SyncTable.
type Table interface {
	Insert(c Contact) (InsertOutcome, error)
	Touch(id id_tools.NodeID) (bool, error)
	Replace(staleID id_tools.NodeID, newcomer Contact) (InsertOutcome, error)
}

// Admit inserts c and, when its bucket is full, probes the least-recently-seen
// contact:
//   - no answer: the stale contact is evicted and c takes its place
//   - answer: the candidate is touched, keeping whatever record the table
//     holds for it by then, and c is dropped (Full is returned)
//
// The probe runs without holding any table lock, so another caller may have
// changed the bucket by the time it returns. In that case the insert is
// retried once.
func Admit(ctx context.Context, table Table, c Contact, prober Prober) (InsertOutcome, error) {
	out, err := table.Insert(c)
	if err != nil || out.Outcome != Full {
		return out, err
	}

	candidate := out.Candidate
	if err := prober.SendPing(ctx, candidate); err == nil {
		touched, err := table.Touch(candidate.ID)
		if err != nil {
			return InsertOutcome{}, err
		}
		if !touched {
			// Gone while we waited for the answer; there may be room now.
			return table.Insert(c)
		}
		return out, nil
	}
	if err := ctx.Err(); err != nil {
		return InsertOutcome{}, err
	}

	replaced, err := table.Replace(candidate.ID, c)
	if errors.Is(err, ErrCandidateMismatch) {
		return table.Insert(c)
	}
	return replaced, err
}
