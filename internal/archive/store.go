// Package archive holds the sinks the parser writes to: records in memory,
// attachments in memory or on disk, and mailbox mirrors.
package archive

import (
	"sync"

	"github.com/emurenMRz/mboxarchive/internal/parser"
)

// MemoryStore keeps committed records in commit order. A record whose
// message id is already present is refused.
type MemoryStore struct {
	mu      sync.RWMutex
	records []*parser.Record
	byID    map[string]int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{byID: map[string]int{}}
}

func (s *MemoryStore) Commit(r *parser.Record) (parser.RecordHandle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.byID[r.MsgID]; dup {
		return -1, false
	}
	h := len(s.records)
	s.records = append(s.records, r)
	s.byID[r.MsgID] = h
	return parser.RecordHandle(h), true
}

func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Get returns the record committed under h.
func (s *MemoryStore) Get(h parser.RecordHandle) (*parser.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if h < 0 || int(h) >= len(s.records) {
		return nil, false
	}
	return s.records[h], true
}

// ByID looks a record up by message id.
func (s *MemoryStore) ByID(msgid string) (*parser.Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	h, ok := s.byID[msgid]
	if !ok {
		return nil, false
	}
	return s.records[h], true
}

// Records returns the committed records in commit order.
func (s *MemoryStore) Records() []*parser.Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]*parser.Record(nil), s.records...)
}
