// Package transcripts keeps per-call conversation transcripts in memory and
// fans out change notifications to live subscribers.
package transcripts

import (
	"fmt"
	"sync"
)

// Snapshot is a point-in-time copy of every call's transcript lines, keyed
// by call SID.
type Snapshot map[string][]string

type Store struct {
	mu          sync.RWMutex
	lines       map[string][]string
	subscribers map[int]chan Snapshot
	nextSubID   int
}

func NewStore() *Store {
	return &Store{
		lines:       map[string][]string{},
		subscribers: map[int]chan Snapshot{},
	}
}

// Open registers a call so it appears in listings before any line arrives.
func (s *Store) Open(callSID string) {
	s.mu.Lock()
	if _, ok := s.lines[callSID]; !ok {
		s.lines[callSID] = []string{}
	}
	s.mu.Unlock()
	s.notify()
}

// Append records one transcript line for a call and notifies subscribers.
func (s *Store) Append(callSID, speaker, text string) {
	s.mu.Lock()
	s.lines[callSID] = append(s.lines[callSID], fmt.Sprintf("%s: %s", speaker, text))
	s.mu.Unlock()
	s.notify()
}

// Lines returns the transcript for one call.
func (s *Store) Lines(callSID string) ([]string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	lines, ok := s.lines[callSID]
	if !ok {
		return nil, false
	}
	return append([]string(nil), lines...), true
}

// CallSIDs lists every call the store has seen.
func (s *Store) CallSIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sids := make([]string, 0, len(s.lines))
	for sid := range s.lines {
		sids = append(sids, sid)
	}
	return sids
}

// Snapshot copies the full store state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot := make(Snapshot, len(s.lines))
	for sid, lines := range s.lines {
		snapshot[sid] = append([]string(nil), lines...)
	}
	return snapshot
}

// Subscribe registers for change notifications. Each notification carries a
// full snapshot; slow subscribers miss intermediate snapshots rather than
// blocking writers. The returned cancel func must be called when done.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Snapshot, 1)
	s.subscribers[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if _, ok := s.subscribers[id]; ok {
			delete(s.subscribers, id)
			close(ch)
		}
	}
	return ch, cancel
}

func (s *Store) notify() {
	snapshot := s.Snapshot()

	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, ch := range s.subscribers {
		select {
		case ch <- snapshot:
		default:
		}
	}
}
