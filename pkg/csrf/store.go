package csrf

import (
	"crypto/subtle"
	"sync"
	"time"
)

// Entry is a live CSRF token for one form within one session.
type Entry struct {
	Token    string
	IssuedAt time.Time
}

// Store defines the session-scoped storage the protocol needs. It is passed
// in explicitly so the protocol can be exercised without a real session
// backend.
type Store interface {
	Get(sessionID, formName string) (Entry, bool)
	// Put overwrites any prior entry for the same (session, form) pair.
	Put(sessionID, formName string, entry Entry)
	Delete(sessionID, formName string)
	// Consume atomically validates and removes the entry for the pair. The
	// lookup, expiry check, comparison and delete must happen in a single
	// critical section, so concurrent submissions of the same token resolve
	// to exactly one winner. Entries issued before notBefore are deleted and
	// reported invalid; a mismatched candidate leaves the entry in place.
	Consume(sessionID, formName, candidate string, notBefore time.Time) bool
	// DeleteExpired removes every entry issued before the cutoff.
	DeleteExpired(olderThan time.Time)
}

// InMemoryStore implements Store with a mutex-guarded nested map.
type InMemoryStore struct {
	mu      sync.RWMutex
	entries map[string]map[string]Entry // sessionID -> formName -> entry
}

// NewInMemoryStore creates an empty in-memory CSRF store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		entries: make(map[string]map[string]Entry),
	}
}

func (s *InMemoryStore) Get(sessionID, formName string) (Entry, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	forms, exists := s.entries[sessionID]
	if !exists {
		return Entry{}, false
	}

	entry, exists := forms[formName]
	return entry, exists
}

func (s *InMemoryStore) Put(sessionID, formName string, entry Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	forms, exists := s.entries[sessionID]
	if !exists {
		forms = make(map[string]Entry)
		s.entries[sessionID] = forms
	}

	forms[formName] = entry
}

func (s *InMemoryStore) Delete(sessionID, formName string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deleteLocked(sessionID, formName)
}

// Consume holds the write lock across the whole check-and-delete, so a
// second submission racing the first observes either the entry gone or its
// own delete losing; the two can never both report true.
func (s *InMemoryStore) Consume(sessionID, formName, candidate string, notBefore time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	forms, exists := s.entries[sessionID]
	if !exists {
		return false
	}

	entry, exists := forms[formName]
	if !exists {
		return false
	}

	if entry.IssuedAt.Before(notBefore) {
		s.deleteLocked(sessionID, formName)
		return false
	}

	// Constant-time comparison; a short-circuiting compare would leak the
	// position of the first differing byte.
	if subtle.ConstantTimeCompare([]byte(candidate), []byte(entry.Token)) != 1 {
		return false
	}

	s.deleteLocked(sessionID, formName)
	return true
}

func (s *InMemoryStore) DeleteExpired(olderThan time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for sessionID, forms := range s.entries {
		for formName, entry := range forms {
			if entry.IssuedAt.Before(olderThan) {
				delete(forms, formName)
			}
		}
		if len(forms) == 0 {
			delete(s.entries, sessionID)
		}
	}
}

// deleteLocked removes an entry; the caller holds the write lock.
func (s *InMemoryStore) deleteLocked(sessionID, formName string) {
	forms, exists := s.entries[sessionID]
	if !exists {
		return
	}

	delete(forms, formName)
	if len(forms) == 0 {
		delete(s.entries, sessionID)
	}
}
