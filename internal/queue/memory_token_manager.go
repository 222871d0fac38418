package queue

import (
	"context"
	"sync"
)

// MemoryTokenManager is a process-local pool for single-replica deployments.
type MemoryTokenManager struct {
	mu     sync.Mutex
	tokens int
	limit  int
}

func NewMemoryTokenManager(capacity int) *MemoryTokenManager {
	return &MemoryTokenManager{tokens: capacity, limit: capacity}
}

func (m *MemoryTokenManager) AcquireToken(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens <= 0 {
		return ErrNoTokenAvailable
	}
	m.tokens--
	return nil
}

func (m *MemoryTokenManager) ReleaseToken(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.tokens < m.limit {
		m.tokens++
	}
	return nil
}

func (m *MemoryTokenManager) InitializeTokens(ctx context.Context, count int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.tokens = count
	m.limit = count
	return nil
}

// Available returns the number of free tokens.
func (m *MemoryTokenManager) Available() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.tokens
}
