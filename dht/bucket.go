package dht

import (
	"fmt"
	"iter"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

// Bucket holds up to capacity contacts of one distance class, ordered from
// least to most recently seen. Every loop over it is bounded by capacity.
type Bucket struct {
	contacts []Contact
	capacity int
}

// NewBucket returns an empty bucket. Capacities below 1 are raised to 1.
func NewBucket(capacity int) *Bucket {
	capacity = max(capacity, 1)
	return &Bucket{
		contacts: make([]Contact, 0, capacity),
		capacity: capacity,
	}
}

// Insert adds or refreshes c.
// 1. Known id -> replace the record and move it to the tail.
// 2. Room left -> append to the tail.
// 3. Full -> change nothing and hand back the head as eviction candidate.
func (b *Bucket) Insert(c Contact) InsertOutcome {
	if i := b.indexOf(c.ID); i >= 0 {
		b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
		b.contacts = append(b.contacts, c)
		return InsertOutcome{Outcome: Updated}
	}

	if len(b.contacts) < b.capacity {
		b.contacts = append(b.contacts, c)
		return InsertOutcome{Outcome: Inserted}
	}

	return InsertOutcome{Outcome: Full, Candidate: b.contacts[0]}
}

// Touch moves the contact with the given id to the tail and keeps its
// record as stored.
func (b *Bucket) Touch(id id_tools.NodeID) bool {
	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	c := b.contacts[i]
	b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
	b.contacts = append(b.contacts, c)
	return true
}

// Remove deletes the contact with the given id and reports whether it was
// present.
func (b *Bucket) Remove(id id_tools.NodeID) bool {
	i := b.indexOf(id)
	if i < 0 {
		return false
	}
	b.contacts = append(b.contacts[:i], b.contacts[i+1:]...)
	return true
}

// All yields the contacts oldest first. The sequence may be ranged over any
// number of times; the bucket must not be modified while it is consumed.
func (b *Bucket) All() iter.Seq[Contact] {
	return func(yield func(Contact) bool) {
		for _, c := range b.contacts {
			if !yield(c) {
				return
			}
		}
	}
}

func (b *Bucket) Get(id id_tools.NodeID) (Contact, bool) {
	if i := b.indexOf(id); i >= 0 {
		return b.contacts[i], true
	}
	return Contact{}, false
}

func (b *Bucket) Contains(id id_tools.NodeID) bool {
	return b.indexOf(id) >= 0
}

// LeastRecentlySeen returns the head of the bucket.
func (b *Bucket) LeastRecentlySeen() (Contact, bool) {
	if len(b.contacts) == 0 {
		return Contact{}, false
	}
	return b.contacts[0], true
}

// Contacts returns a copy of the bucket in storage order.
func (b *Bucket) Contacts() []Contact {
	snapshot := make([]Contact, len(b.contacts))
	copy(snapshot, b.contacts)
	return snapshot
}

func (b *Bucket) Len() int {
	return len(b.contacts)
}

func (b *Bucket) Capacity() int {
	return b.capacity
}

func (b *Bucket) IsFull() bool {
	return len(b.contacts) >= b.capacity
}

func (b *Bucket) clear() {
	b.contacts = b.contacts[:0]
}

// validate checks the capacity bound and id uniqueness.
func (b *Bucket) validate() error {
	if len(b.contacts) > b.capacity {
		return fmt.Errorf("%w: %d contacts in a bucket of capacity %d", ErrInvariant, len(b.contacts), b.capacity)
	}
	for i := range b.contacts {
		for j := i + 1; j < len(b.contacts); j++ {
			if b.contacts[i].ID == b.contacts[j].ID {
				return fmt.Errorf("%w: duplicate id %s", ErrInvariant, b.contacts[i].ID)
			}
		}
	}
	return nil
}

func (b *Bucket) indexOf(id id_tools.NodeID) int {
	for i, existing := range b.contacts {
		if existing.ID == id {
			return i
		}
	}
	return -1
}
