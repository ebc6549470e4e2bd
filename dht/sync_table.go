package dht

import (
	"sync"

	"github.com/kutluhann/kademlia-routing/id_tools"
)

// SyncTable serializes access to a RoutingTable. Mutations take the write
// lock; reads, including a whole Closest scan, take the read lock.
type SyncTable struct {
	table *RoutingTable
	mutex sync.RWMutex
}

func NewSyncTable(table *RoutingTable) *SyncTable {
	return &SyncTable{table: table}
}

func (s *SyncTable) Insert(c Contact) (InsertOutcome, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.table.Insert(c)
}

func (s *SyncTable) Remove(id id_tools.NodeID) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.table.Remove(id)
}

func (s *SyncTable) Touch(id id_tools.NodeID) (bool, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.table.Touch(id)
}

func (s *SyncTable) Replace(staleID id_tools.NodeID, newcomer Contact) (InsertOutcome, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.table.Replace(staleID, newcomer)
}

func (s *SyncTable) Contains(id id_tools.NodeID) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table.Contains(id)
}

func (s *SyncTable) Get(id id_tools.NodeID) (Contact, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table.Get(id)
}

func (s *SyncTable) Closest(target id_tools.NodeID, count int) []Contact {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table.Closest(target, count)
}

func (s *SyncTable) Len() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table.Len()
}

func (s *SyncTable) LocalID() id_tools.NodeID {
	return s.table.LocalID()
}

func (s *SyncTable) BucketSize() int {
	return s.table.BucketSize()
}

// Buckets returns a copy of every non-empty bucket keyed by index.
func (s *SyncTable) Buckets() map[int][]Contact {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := make(map[int][]Contact)
	for _, i := range s.table.NonEmptyBuckets() {
		snapshot[i] = s.table.BucketContacts(i)
	}
	return snapshot
}

func (s *SyncTable) Validate() error {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return s.table.Validate()
}
