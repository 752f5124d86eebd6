package main

import (
	"context"
	"sync"
	"time"
)

// SessionManager owns the live sessions, one per player. Sessions are
// created on login and torn down together on shutdown; there is no
// cross-session shared mutable state.
type SessionManager struct {
	store        GameStore
	catalog      []Building
	tickInterval time.Duration

	mu       sync.Mutex
	sessions map[string]*Session
}

func NewSessionManager(store GameStore, catalog []Building, tickInterval time.Duration) *SessionManager {
	return &SessionManager{
		store:        store,
		catalog:      catalog,
		tickInterval: tickInterval,
		sessions:     make(map[string]*Session),
	}
}

// Attach looks up or creates the player in the store and returns the live
// session for it, creating one on first login.
func (sm *SessionManager) Attach(ctx context.Context, username string) (*Session, error) {
	rec, err := sm.store.GetOrCreatePlayer(ctx, username)
	if err != nil {
		return nil, err
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()

	if session, ok := sm.sessions[rec.ID]; ok {
		return session, nil
	}
	session := NewSession(sm.store, rec, sm.catalog, sm.tickInterval)
	sm.sessions[rec.ID] = session
	return session, nil
}

// Get returns the live session for a player id, or nil.
func (sm *SessionManager) Get(playerID string) *Session {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	return sm.sessions[playerID]
}

// CloseAll tears every session down, flushing final snapshots.
func (sm *SessionManager) CloseAll(ctx context.Context) {
	sm.mu.Lock()
	sessions := make([]*Session, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		sessions = append(sessions, session)
	}
	sm.sessions = make(map[string]*Session)
	sm.mu.Unlock()

	for _, session := range sessions {
		session.Close(ctx)
	}
}
