package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	"github.com/noah-isme/sma-timetable-engine/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/jobs"
)

type dispatcherStub struct {
	enqueued  []jobs.Job
	cancelled []string
	err       error
}

func (d *dispatcherStub) Enqueue(job jobs.Job) error {
	if d.err != nil {
		return d.err
	}
	d.enqueued = append(d.enqueued, job)
	return nil
}

func (d *dispatcherStub) Cancel(id string) bool {
	d.cancelled = append(d.cancelled, id)
	return true
}

type generatorStub struct {
	result  *models.GenerationResult
	err     error
	block   bool
	started chan struct{}
}

func (g *generatorStub) GenerateAutomatedTimetable(ctx context.Context, req dto.GenerateTimetableRequest, progress models.ProgressFunc) (*models.GenerationResult, error) {
	progress(models.GenerationProgress{Stage: StageOptimizing, ProgressPercent: 30})
	if g.started != nil {
		close(g.started)
	}
	if g.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	return g.result, g.err
}

func TestGenerationJobServiceSubmit(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(store, queue, nil, nil, nil)

	resp, err := svc.Submit(context.Background(), generationRequest())
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobQueued, resp.Status)
	require.Len(t, queue.enqueued, 1)
	assert.Equal(t, resp.ID, queue.enqueued[0].ID)
	assert.Equal(t, GenerationJobType, queue.enqueued[0].Type)

	status, err := svc.Status(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobQueued, status.Status)
}

func TestGenerationJobServiceSubmitRejectsBeforeQueueing(t *testing.T) {
	queue := &dispatcherStub{}
	checker := newGenerationFixture(t, testEntities(), nil, nil).svc
	svc := NewGenerationJobService(repository.NewMemoryGenerationJobStore(), queue, checker, nil, nil)

	req := generationRequest()
	req.Parameters.MaxSolveTimeSeconds = 1
	_, err := svc.Submit(context.Background(), req)
	assert.True(t, appErrors.Is(err, appErrors.ErrConfiguration))
	assert.Empty(t, queue.enqueued)
}

func TestGenerationJobServiceSubmitQueueFull(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	svc := NewGenerationJobService(store, &dispatcherStub{err: jobs.ErrQueueFull}, nil, nil, nil)

	_, err := svc.Submit(context.Background(), generationRequest())
	assert.True(t, appErrors.Is(err, appErrors.ErrTooManyRequests))
}

func TestGenerationJobServiceStatusUnknown(t *testing.T) {
	svc := NewGenerationJobService(repository.NewMemoryGenerationJobStore(), &dispatcherStub{}, nil, nil, nil)
	_, err := svc.Status(context.Background(), "missing")
	assert.True(t, appErrors.Is(err, appErrors.ErrNotFound))
}

func TestGenerationJobServiceCancelQueued(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	queue := &dispatcherStub{}
	svc := NewGenerationJobService(store, queue, nil, nil, nil)

	resp, err := svc.Submit(context.Background(), generationRequest())
	require.NoError(t, err)

	status, err := svc.Cancel(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobCancelled, status.Status)
	assert.Equal(t, []string{resp.ID}, queue.cancelled)
	require.NotNil(t, status.FinishedAt)

	// a late worker run must not resurrect the job
	worker := NewGenerationWorker(store, &generatorStub{result: &models.GenerationResult{Success: true}}, nil)
	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: resp.ID, Payload: generationRequest()}))
	status, err = svc.Status(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobCancelled, status.Status)
	assert.Nil(t, status.Result)
}

func TestGenerationWorkerCompletesJob(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	require.NoError(t, store.Save(context.Background(), models.GenerationJob{ID: "job-1", Status: models.GenerationJobQueued}))
	worker := NewGenerationWorker(store, &generatorStub{result: &models.GenerationResult{Success: true, Score: 0.3}}, nil)

	require.NoError(t, worker.Handle(context.Background(), jobs.Job{ID: "job-1", Payload: generationRequest()}))

	job, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobCompleted, job.Status)
	require.NotNil(t, job.Result)
	assert.Equal(t, 0.3, job.Result.Score)
	assert.Equal(t, 100, job.Progress.ProgressPercent)
	assert.Equal(t, StageOptimizing, job.Progress.Stage)
}

func TestGenerationWorkerFailsJob(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	require.NoError(t, store.Save(context.Background(), models.GenerationJob{ID: "job-1", Status: models.GenerationJobQueued}))
	worker := NewGenerationWorker(store, &generatorStub{err: errors.New("reference load failed")}, nil)

	err := worker.Handle(context.Background(), jobs.Job{ID: "job-1", Payload: generationRequest()})
	require.Error(t, err)

	job, err := store.Get(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Equal(t, "reference load failed", *job.ErrorMessage)

	err = worker.Handle(context.Background(), jobs.Job{ID: "job-1", Payload: "garbage"})
	assert.Error(t, err)
}

func TestGenerationJobsEndToEndCancelRunning(t *testing.T) {
	store := repository.NewMemoryGenerationJobStore()
	generator := &generatorStub{block: true, started: make(chan struct{})}
	worker := NewGenerationWorker(store, generator, nil)
	queue := jobs.NewQueue("generation", worker.Handle, jobs.QueueConfig{Workers: 1, BufferSize: 2})
	queue.Start(context.Background())
	defer queue.Stop()

	svc := NewGenerationJobService(store, queue, nil, nil, nil)
	resp, err := svc.Submit(context.Background(), generationRequest())
	require.NoError(t, err)

	select {
	case <-generator.started:
	case <-time.After(2 * time.Second):
		t.Fatal("worker never picked up the job")
	}

	status, err := svc.Cancel(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobCancelled, status.Status)

	require.Eventually(t, func() bool { return queue.Pending() == 0 }, time.Second, 10*time.Millisecond)
	final, err := svc.Status(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.GenerationJobCancelled, final.Status)
}
