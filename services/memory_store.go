package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"phone-console/models"
)

// MemorySessionStore is an in-memory SessionStore used when the console runs
// without MongoDB (development) and by tests. State is lost on restart.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.SessionRecord
	ttl      time.Duration
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		sessions: make(map[string]*models.SessionRecord),
		ttl:      ttl,
	}
}

func (s *MemorySessionStore) Create(ctx context.Context, state models.Session, ipAddress, userAgent string) (*models.SessionRecord, error) {
	sessionID, err := GenerateSessionID()
	if err != nil {
		return nil, fmt.Errorf("failed to generate session ID: %w", err)
	}

	now := time.Now()
	record := &models.SessionRecord{
		SessionID:    sessionID,
		State:        state,
		IPAddress:    ipAddress,
		UserAgent:    userAgent,
		CreatedAt:    now,
		LastAccessed: now,
		ExpiresAt:    now.Add(s.ttl),
		IsActive:     true,
	}

	s.mu.Lock()
	s.sessions[sessionID] = record
	s.mu.Unlock()

	return record, nil
}

func (s *MemorySessionStore) Get(ctx context.Context, sessionID string) (*models.SessionRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.sessions[sessionID]
	if !ok || !record.IsActive || time.Now().After(record.ExpiresAt) {
		return nil, nil
	}
	copied := *record
	return &copied, nil
}

func (s *MemorySessionStore) Apply(ctx context.Context, sessionID string, change models.SessionChange) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok || !record.IsActive {
		return fmt.Errorf("session not found or inactive")
	}
	record.State.Apply(change)
	record.LastAccessed = time.Now()
	return nil
}

func (s *MemorySessionStore) ClearAuth(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.sessions[sessionID]
	if !ok {
		return nil
	}
	record.State.Clear()
	record.LastAccessed = time.Now()
	return nil
}

func (s *MemorySessionStore) Extend(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.sessions[sessionID]; ok && record.IsActive {
		record.LastAccessed = time.Now()
		record.ExpiresAt = time.Now().Add(s.ttl)
	}
	return nil
}

func (s *MemorySessionStore) Destroy(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.sessions[sessionID]; ok {
		record.IsActive = false
		record.ExpiresAt = time.Now()
	}
	return nil
}

func (s *MemorySessionStore) CleanupExpired(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-7 * 24 * time.Hour)
	var removed int64
	for id, record := range s.sessions {
		if record.ExpiresAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed, nil
}

// MemoryCredentialStore is the in-memory CredentialStore counterpart.
type MemoryCredentialStore struct {
	mu    sync.RWMutex
	creds map[string]models.CredentialRecord
}

func NewMemoryCredentialStore() *MemoryCredentialStore {
	return &MemoryCredentialStore{creds: make(map[string]models.CredentialRecord)}
}

func (s *MemoryCredentialStore) Save(ctx context.Context, cred models.CredentialRecord) error {
	if cred.CreatedAt.IsZero() {
		cred.CreatedAt = time.Now()
	}
	s.mu.Lock()
	s.creds[cred.SessionID] = cred
	s.mu.Unlock()
	return nil
}

func (s *MemoryCredentialStore) Get(ctx context.Context, sessionID string) (*models.CredentialRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cred, ok := s.creds[sessionID]
	if !ok {
		return nil, nil
	}
	return &cred, nil
}

func (s *MemoryCredentialStore) Purge(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	delete(s.creds, sessionID)
	s.mu.Unlock()
	return nil
}
