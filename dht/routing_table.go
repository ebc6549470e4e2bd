package dht

import (
	"fmt"
	"iter"

	"github.com/attilabuti/eventemitter/v2"
	"go.uber.org/zap"

	"github.com/kutluhann/kademlia-routing/constants"
	"github.com/kutluhann/kademlia-routing/id_tools"
)

// RoutingTable holds 256 buckets.
// Bucket i holds the contacts whose XOR distance from the local id lies in
// [2^i, 2^(i+1)):
//   - Bucket 0:   only the lowest bit differs (closest)
//   - Bucket 255: the highest bit differs (furthest)
//
// A RoutingTable is not safe for concurrent use. Wrap it in a SyncTable when
// it is shared between goroutines.
type RoutingTable struct {
	localID id_tools.NodeID
	k       int
	size    int
	buckets [constants.BucketCount]*Bucket
	logger  *zap.Logger
	emitter *eventemitter.Emitter
}

type Option func(*RoutingTable)

// WithBucketSize sets K. Values below 1 keep the default.
func WithBucketSize(k int) Option {
	return func(rt *RoutingTable) {
		if k >= 1 {
			rt.k = k
		}
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(rt *RoutingTable) {
		if logger != nil {
			rt.logger = logger
		}
	}
}

// WithEmitter makes the table emit the events listed in events.go.
func WithEmitter(emitter *eventemitter.Emitter) Option {
	return func(rt *RoutingTable) {
		rt.emitter = emitter
	}
}

func NewRoutingTable(localID id_tools.NodeID, opts ...Option) *RoutingTable {
	rt := &RoutingTable{
		localID: localID,
		k:       constants.DefaultBucketSize,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(rt)
	}
	for i := 0; i < constants.BucketCount; i++ {
		rt.buckets[i] = NewBucket(rt.k)
	}
	return rt
}

func (rt *RoutingTable) LocalID() id_tools.NodeID {
	return rt.localID
}

// BucketSize is K.
func (rt *RoutingTable) BucketSize() int {
	return rt.k
}

// BucketIndex returns the bucket id belongs to, or -1 for the local id.
func (rt *RoutingTable) BucketIndex(id id_tools.NodeID) int {
	return id_tools.BucketIndex(rt.localID, id)
}

// Insert routes c to its bucket. Inserting the local id fails with
// ErrInvalidSelf and leaves the table untouched.
func (rt *RoutingTable) Insert(c Contact) (InsertOutcome, error) {
	if c.ID == rt.localID {
		rt.logger.Warn("rejected insert of local id", zap.String("id", c.ID.Short()))
		return InsertOutcome{}, ErrInvalidSelf
	}

	bucketIndex := rt.BucketIndex(c.ID)
	bucket := rt.buckets[bucketIndex]

	var previous Contact
	if rt.emitter != nil {
		previous, _ = bucket.Get(c.ID)
	}

	out := bucket.Insert(c)
	switch out.Outcome {
	case Inserted:
		rt.size++
		rt.logger.Debug("contact inserted", zap.Int("bucket", bucketIndex), zap.String("id", c.ID.Short()))
		rt.emit(EventAdded, c)
	case Updated:
		rt.logger.Debug("contact refreshed", zap.Int("bucket", bucketIndex), zap.String("id", c.ID.Short()))
		rt.emit(EventUpdated, previous, c)
	case Full:
		rt.logger.Debug("bucket full",
			zap.Int("bucket", bucketIndex),
			zap.String("id", c.ID.Short()),
			zap.String("candidate", out.Candidate.ID.Short()))
		rt.emit(EventFull, out.Candidate, c)
	}
	return out, nil
}

// Touch marks a known contact as most recently seen without changing its
// record. It emits no event.
func (rt *RoutingTable) Touch(id id_tools.NodeID) (bool, error) {
	if id == rt.localID {
		return false, ErrInvalidSelf
	}

	bucketIndex := rt.BucketIndex(id)
	if !rt.buckets[bucketIndex].Touch(id) {
		return false, nil
	}
	rt.logger.Debug("contact touched", zap.Int("bucket", bucketIndex), zap.String("id", id.Short()))
	return true, nil
}

// Remove deletes the contact with the given id. Removing the local id is a
// no-op that reports ErrInvalidSelf.
func (rt *RoutingTable) Remove(id id_tools.NodeID) (bool, error) {
	if id == rt.localID {
		return false, ErrInvalidSelf
	}

	bucketIndex := rt.BucketIndex(id)
	bucket := rt.buckets[bucketIndex]

	removed, ok := bucket.Get(id)
	if !ok {
		return false, nil
	}
	bucket.Remove(id)
	rt.size--

	rt.logger.Debug("contact removed", zap.Int("bucket", bucketIndex), zap.String("id", id.Short()))
	rt.emit(EventRemoved, removed)
	return true, nil
}

// Replace evicts staleID and admits newcomer in its place. It is the second
// half of the probe-then-evict flow: the caller got Full with staleID as the
// candidate and confirmed that peer is gone. A newcomer that is already
// known is simply refreshed.
func (rt *RoutingTable) Replace(staleID id_tools.NodeID, newcomer Contact) (InsertOutcome, error) {
	if staleID == rt.localID || newcomer.ID == rt.localID {
		return InsertOutcome{}, ErrInvalidSelf
	}

	bucket := rt.buckets[rt.BucketIndex(newcomer.ID)]
	if bucket.Contains(newcomer.ID) {
		return rt.Insert(newcomer)
	}
	if !bucket.Contains(staleID) {
		return InsertOutcome{}, ErrCandidateMismatch
	}

	if _, err := rt.Remove(staleID); err != nil {
		return InsertOutcome{}, err
	}
	return rt.Insert(newcomer)
}

func (rt *RoutingTable) Contains(id id_tools.NodeID) bool {
	if id == rt.localID {
		return false
	}
	return rt.buckets[rt.BucketIndex(id)].Contains(id)
}

func (rt *RoutingTable) Get(id id_tools.NodeID) (Contact, bool) {
	if id == rt.localID {
		return Contact{}, false
	}
	return rt.buckets[rt.BucketIndex(id)].Get(id)
}

// Len is the number of contacts across all buckets.
func (rt *RoutingTable) Len() int {
	return rt.size
}

// BucketContacts returns a copy of bucket i, oldest first.
func (rt *RoutingTable) BucketContacts(i int) []Contact {
	if i < 0 || i >= constants.BucketCount {
		return []Contact{}
	}
	return rt.buckets[i].Contacts()
}

// NonEmptyBuckets lists the indices of buckets holding at least one contact.
func (rt *RoutingTable) NonEmptyBuckets() []int {
	indices := []int{}
	for i, bucket := range rt.buckets {
		if bucket.Len() > 0 {
			indices = append(indices, i)
		}
	}
	return indices
}

// All yields every contact, bucket 0 first.
func (rt *RoutingTable) All() iter.Seq[Contact] {
	return func(yield func(Contact) bool) {
		for _, bucket := range rt.buckets {
			for c := range bucket.All() {
				if !yield(c) {
					return
				}
			}
		}
	}
}

// Clear empties every bucket. The buckets themselves are kept.
func (rt *RoutingTable) Clear() {
	for _, bucket := range rt.buckets {
		bucket.clear()
	}
	rt.size = 0
}

// Validate checks every structural invariant of the table: bucket capacity,
// no duplicate ids, correct bucket placement, no local id and a consistent
// size counter.
func (rt *RoutingTable) Validate() error {
	total := 0
	for i, bucket := range rt.buckets {
		if err := bucket.validate(); err != nil {
			return fmt.Errorf("bucket %d: %w", i, err)
		}
		for c := range bucket.All() {
			if c.ID == rt.localID {
				return fmt.Errorf("%w: bucket %d holds the local id", ErrInvariant, i)
			}
			if want := rt.BucketIndex(c.ID); want != i {
				return fmt.Errorf("%w: %s is in bucket %d, belongs in %d", ErrInvariant, c.ID, i, want)
			}
		}
		total += bucket.Len()
	}
	if total != rt.size {
		return fmt.Errorf("%w: size counter %d, buckets hold %d", ErrInvariant, rt.size, total)
	}
	return nil
}
