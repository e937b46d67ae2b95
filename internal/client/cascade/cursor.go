package cascade

import (
	"context"
	"sync"

	"github.com/communityboard/board-system/internal/core/domain"
)

// MemoryCursor is a ports.CursorStore that lives as long as the process.
type MemoryCursor struct {
	mu    sync.Mutex
	steps map[string]domain.CascadeStep
}

func NewMemoryCursor() *MemoryCursor {
	return &MemoryCursor{steps: make(map[string]domain.CascadeStep)}
}

func (m *MemoryCursor) Load(_ context.Context, identityID string) (domain.CascadeStep, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.steps[identityID], nil
}

func (m *MemoryCursor) Save(_ context.Context, identityID string, step domain.CascadeStep) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.steps[identityID] = step
	return nil
}

func (m *MemoryCursor) Clear(_ context.Context, identityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.steps, identityID)
	return nil
}
