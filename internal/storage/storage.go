package storage

import (
	"log/slog"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/lehigh-university-libraries/stitcher/internal/session"
)

const defaultMaxSessions = 128

// SessionStore keeps the most recently used sessions. When full, the least
// recently used session is evicted and handed to onEvict.
type SessionStore struct {
	sessions *lru.Cache[string, *session.Session]
}

func New(maxSessions int, onEvict func(*session.Session)) *SessionStore {
	if maxSessions <= 0 {
		maxSessions = defaultMaxSessions
	}
	cache, err := lru.NewWithEvict(maxSessions, func(id string, s *session.Session) {
		slog.Info("Session evicted", "session_id", id)
		if onEvict != nil {
			onEvict(s)
		}
	})
	if err != nil {
		// only fails for a non-positive size
		panic(err)
	}
	return &SessionStore{sessions: cache}
}

func (s *SessionStore) Get(sessionID string) (*session.Session, bool) {
	return s.sessions.Get(sessionID)
}

func (s *SessionStore) Set(sessionID string, sess *session.Session) {
	s.sessions.Add(sessionID, sess)
}

func (s *SessionStore) GetAll() map[string]*session.Session {
	result := make(map[string]*session.Session, s.sessions.Len())
	for _, k := range s.sessions.Keys() {
		if v, ok := s.sessions.Peek(k); ok {
			result[k] = v
		}
	}
	return result
}

// Delete removes a session. The eviction callback runs for it too.
func (s *SessionStore) Delete(sessionID string) bool {
	return s.sessions.Remove(sessionID)
}

// BlobStore holds uploaded image bytes by key.
type BlobStore struct {
	blobs map[string][]byte
	mu    sync.RWMutex
}

func NewBlobStore() *BlobStore {
	return &BlobStore{
		blobs: make(map[string][]byte),
	}
}

func (b *BlobStore) Get(key string) ([]byte, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	data, ok := b.blobs[key]
	return data, ok
}

func (b *BlobStore) Put(key string, data []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = data
}

func (b *BlobStore) Delete(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
}

func (b *BlobStore) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.blobs)
}
