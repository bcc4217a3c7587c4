package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/saad130013/storyweaver-ai/internal/logger"
)

// SessionRegistry maps editing-session ids to their story stores. A session
// is created empty and dies when closed; nothing survives it.
type SessionRegistry struct {
	log *logger.Logger

	mu       sync.RWMutex
	sessions map[string]*StoryStore
}

func NewSessionRegistry(log *logger.Logger) *SessionRegistry {
	return &SessionRegistry{
		log:      log.With("service", "SessionRegistry"),
		sessions: make(map[string]*StoryStore),
	}
}

// Open creates a fresh session with an empty story and returns its id.
func (r *SessionRegistry) Open() string {
	id := uuid.NewString()
	st := NewStoryStore(r.log)
	r.mu.Lock()
	r.sessions[id] = st
	r.mu.Unlock()
	r.log.Info("session opened", "session_id", id)
	return id
}

// Get returns the story store for a session id.
func (r *SessionRegistry) Get(id string) (*StoryStore, error) {
	r.mu.RLock()
	st, ok := r.sessions[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return st, nil
}

// Close drops the session and its story.
func (r *SessionRegistry) Close(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
	r.log.Info("session closed", "session_id", id)
}
