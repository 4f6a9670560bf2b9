// Package registry provides an in-memory RevocationRegistry for tests and
// single-node development. Production deployments use the redis-backed
// implementation, which shares its semantics.
package registry

import (
	"context"
	"sync"
	"time"

	"github.com/taskhub/task-tracker/internal/core/domain"
)

type tokenEntry struct {
	reason    domain.RevocationReason
	expiresAt time.Time
}

type userMark struct {
	at        time.Time
	expiresAt time.Time
}

// Memory is a mutex-guarded revocation set. Expired entries linger until the
// next sweep; that is wasted space, not a correctness problem.
type Memory struct {
	mu     sync.RWMutex
	tokens map[string]tokenEntry
	users  map[int64]userMark
	now    func() time.Time
}

func NewMemory() *Memory {
	return &Memory{
		tokens: make(map[string]tokenEntry),
		users:  make(map[int64]userMark),
		now:    time.Now,
	}
}

func (m *Memory) Revoke(_ context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tokens[tokenID]; ok && m.now().Before(e.expiresAt) {
		return nil
	}
	m.tokens[tokenID] = tokenEntry{reason: reason, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) RevokeOnce(_ context.Context, tokenID string, reason domain.RevocationReason, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.tokens[tokenID]; ok && m.now().Before(e.expiresAt) {
		return false, nil
	}
	m.tokens[tokenID] = tokenEntry{reason: reason, expiresAt: m.now().Add(ttl)}
	return true, nil
}

func (m *Memory) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.tokens[tokenID]
	return ok && m.now().Before(e.expiresAt), nil
}

func (m *Memory) RevokeUser(_ context.Context, userID int64, at time.Time, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[userID] = userMark{at: at, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *Memory) UserRevokedAt(_ context.Context, userID int64) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	mark, ok := m.users[userID]
	if !ok || !m.now().Before(mark.expiresAt) {
		return time.Time{}, false, nil
	}
	return mark.at, true, nil
}

func (m *Memory) SweepExpired(_ context.Context, before time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, e := range m.tokens {
		if e.expiresAt.Before(before) {
			delete(m.tokens, id)
			removed++
		}
	}
	for id, mark := range m.users {
		if mark.expiresAt.Before(before) {
			delete(m.users, id)
			removed++
		}
	}
	return removed, nil
}
