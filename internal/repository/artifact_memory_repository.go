package repository

import (
	"context"
	"sync"
	"time"

	"github.com/Spectrumgrid/grade-pilot/internal/model"
)

// MemoryArtifactRepository keeps sessions in process memory. Used by tests
// and by single-shot deployments that do not need durable sessions.
type MemoryArtifactRepository struct {
	mu       sync.RWMutex
	sessions map[string]model.ArtifactBundle
	now      func() time.Time
}

func NewMemoryArtifactRepository() *MemoryArtifactRepository {
	return &MemoryArtifactRepository{
		sessions: make(map[string]model.ArtifactBundle),
		now:      time.Now,
	}
}

func (r *MemoryArtifactRepository) Put(_ context.Context, id string, b *model.ArtifactBundle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; ok {
		return ErrSessionExists
	}
	stored := *b
	stored.CreatedAt = r.now()
	r.sessions[id] = stored
	return nil
}

func (r *MemoryArtifactRepository) Get(_ context.Context, id string) (*model.ArtifactBundle, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	b, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return &b, nil
}

func (r *MemoryArtifactRepository) SweepOlderThan(_ context.Context, maxAge time.Duration) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	removed := 0
	for id, b := range r.sessions {
		if b.CreatedAt.Before(cutoff) {
			delete(r.sessions, id)
			removed++
		}
	}
	return removed, nil
}
