package repository

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestMemoryConstraintStoreLifecycle(t *testing.T) {
	store := NewMemoryConstraintStore()
	ctx := context.Background()

	active := &models.Constraint{Type: models.ConstraintTimeWindow, IsActive: true}
	inactive := &models.Constraint{Type: models.ConstraintStudentBreak}
	require.NoError(t, store.Create(ctx, active))
	require.NoError(t, store.Create(ctx, inactive))

	list, err := store.List(ctx, models.ConstraintFilter{ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, active.ID, list[0].ID)

	inactive.IsActive = true
	require.NoError(t, store.Update(ctx, inactive))
	found, err := store.FindByID(ctx, inactive.ID)
	require.NoError(t, err)
	assert.True(t, found.IsActive)

	require.NoError(t, store.Delete(ctx, active.ID))
	_, err = store.FindByID(ctx, active.ID)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	store.Reset()
	list, err = store.List(ctx, models.ConstraintFilter{})
	require.NoError(t, err)
	assert.Empty(t, list)
	assert.ErrorIs(t, store.Update(ctx, inactive), sql.ErrNoRows)
}

func TestMemoryGenerationJobStore(t *testing.T) {
	store := NewMemoryGenerationJobStore()
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, models.GenerationJob{ID: "job-1", Status: models.GenerationJobQueued}))
	require.NoError(t, store.Update(ctx, "job-1", func(job *models.GenerationJob) {
		job.Status = models.GenerationJobRunning
		job.Progress.ProgressPercent = 30
	}))

	job, err := store.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobRunning, job.Status)
	assert.Equal(t, 30, job.Progress.ProgressPercent)
	assert.False(t, job.UpdatedAt.IsZero())

	assert.ErrorIs(t, store.Update(ctx, "missing", func(*models.GenerationJob) {}), sql.ErrNoRows)
	store.Reset()
	_, err = store.Get(ctx, "job-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
