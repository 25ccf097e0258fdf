package repository

import (
	"context"
	"database/sql"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// MemoryConstraintStore keeps constraints in process memory. It mirrors ConstraintRepository and
// returns sql.ErrNoRows for unknown ids so callers can treat both the same way.
type MemoryConstraintStore struct {
	mu    sync.RWMutex
	items map[string]models.Constraint
}

// NewMemoryConstraintStore creates an empty store.
func NewMemoryConstraintStore() *MemoryConstraintStore {
	return &MemoryConstraintStore{items: make(map[string]models.Constraint)}
}

// FindByID returns a copy of the constraint.
func (s *MemoryConstraintStore) FindByID(_ context.Context, id string) (*models.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.items[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &c, nil
}

// List returns matching constraints ordered by creation time.
func (s *MemoryConstraintStore) List(_ context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]models.Constraint, 0, len(s.items))
	for _, c := range s.items {
		if filter.Matches(c) {
			result = append(result, c)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// Create stores a new constraint.
func (s *MemoryConstraintStore) Create(_ context.Context, c *models.Constraint) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[c.ID] = *c
	return nil
}

// Update overwrites an existing constraint.
func (s *MemoryConstraintStore) Update(_ context.Context, c *models.Constraint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[c.ID]; !ok {
		return sql.ErrNoRows
	}
	c.UpdatedAt = time.Now().UTC()
	s.items[c.ID] = *c
	return nil
}

// Delete removes a constraint.
func (s *MemoryConstraintStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.items[id]; !ok {
		return sql.ErrNoRows
	}
	delete(s.items, id)
	return nil
}

// Reset drops every constraint.
func (s *MemoryConstraintStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = make(map[string]models.Constraint)
}

// MemoryGenerationJobStore tracks generation jobs for the lifetime of the process.
type MemoryGenerationJobStore struct {
	mu   sync.RWMutex
	jobs map[string]models.GenerationJob
}

// NewMemoryGenerationJobStore creates an empty store.
func NewMemoryGenerationJobStore() *MemoryGenerationJobStore {
	return &MemoryGenerationJobStore{jobs: make(map[string]models.GenerationJob)}
}

// Save inserts or replaces a job.
func (s *MemoryGenerationJobStore) Save(_ context.Context, job models.GenerationJob) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	return nil
}

// Get returns a snapshot of the job.
func (s *MemoryGenerationJobStore) Get(_ context.Context, id string) (*models.GenerationJob, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &job, nil
}

// Update applies fn to the stored job under the store lock.
func (s *MemoryGenerationJobStore) Update(_ context.Context, id string, fn func(*models.GenerationJob)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return sql.ErrNoRows
	}
	fn(&job)
	job.UpdatedAt = time.Now().UTC()
	s.jobs[id] = job
	return nil
}

// Reset drops every job.
func (s *MemoryGenerationJobStore) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = make(map[string]models.GenerationJob)
}
