package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable-engine/internal/dto"
	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
	"github.com/noah-isme/sma-timetable-engine/pkg/jobs"
)

// GenerationJobType labels generation jobs on the shared queue.
const GenerationJobType = "timetable_generation"

type generationJobStore interface {
	Save(ctx context.Context, job models.GenerationJob) error
	Get(ctx context.Context, id string) (*models.GenerationJob, error)
	Update(ctx context.Context, id string, fn func(*models.GenerationJob)) error
}

type generationDispatcher interface {
	Enqueue(job jobs.Job) error
	Cancel(id string) bool
}

type timetableGenerator interface {
	GenerateAutomatedTimetable(ctx context.Context, req dto.GenerateTimetableRequest, progress models.ProgressFunc) (*models.GenerationResult, error)
}

type generationRequestChecker interface {
	CheckRequest(req dto.GenerateTimetableRequest) error
}

// GenerationJobService accepts generation requests and exposes their progress.
type GenerationJobService struct {
	store     generationJobStore
	queue     generationDispatcher
	checker   generationRequestChecker
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGenerationJobService constructs the job service. checker rejects bad requests before they are queued.
func NewGenerationJobService(store generationJobStore, queue generationDispatcher, checker generationRequestChecker, validate *validator.Validate, logger *zap.Logger) *GenerationJobService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationJobService{store: store, queue: queue, checker: checker, validator: validate, logger: logger}
}

// Submit records a QUEUED job and hands it to the worker pool. A full queue fails with TOO_MANY_REQUESTS.
func (s *GenerationJobService) Submit(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationJobResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generation payload")
	}
	if s.checker != nil {
		if err := s.checker.CheckRequest(req); err != nil {
			return nil, err
		}
	}

	now := time.Now().UTC()
	job := models.GenerationJob{
		ID:          uuid.NewString(),
		Status:      models.GenerationJobQueued,
		Progress:    models.GenerationProgress{Stage: "queued", Message: "waiting for a worker"},
		RequestedBy: req.RequestedBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.Save(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record generation job")
	}

	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: GenerationJobType, Payload: req}); err != nil {
		msg := "failed to enqueue job"
		_ = s.store.Update(ctx, job.ID, func(j *models.GenerationJob) {
			finishJob(j, models.GenerationJobFailed, &msg)
		})
		if errors.Is(err, jobs.ErrQueueFull) {
			return nil, appErrors.Clone(appErrors.ErrTooManyRequests, "generation queue is full, retry later")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation job")
	}

	s.logger.Info("generation job queued", zap.String("job_id", job.ID), zap.String("requested_by", req.RequestedBy))
	return &dto.GenerationJobResponse{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// Status returns the job's progress and, once finished, its result.
func (s *GenerationJobService) Status(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return statusResponse(job), nil
}

// Cancel stops a queued or running job. Finished jobs are returned unchanged.
func (s *GenerationJobService) Cancel(ctx context.Context, id string) (*dto.GenerationJobStatusResponse, error) {
	job, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status.Terminal() {
		return statusResponse(job), nil
	}

	s.queue.Cancel(id)
	msg := "cancelled by request"
	if err := s.store.Update(ctx, id, func(j *models.GenerationJob) {
		if !j.Status.Terminal() {
			finishJob(j, models.GenerationJobCancelled, &msg)
		}
	}); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to cancel generation job")
	}
	s.logger.Info("generation job cancelled", zap.String("job_id", id))
	return s.Status(ctx, id)
}

func (s *GenerationJobService) load(ctx context.Context, id string) (*models.GenerationJob, error) {
	job, err := s.store.Get(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "generation job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load generation job")
	}
	return job, nil
}

func statusResponse(job *models.GenerationJob) *dto.GenerationJobStatusResponse {
	return &dto.GenerationJobStatusResponse{
		ID:         job.ID,
		Status:     job.Status,
		Progress:   job.Progress,
		Result:     job.Result,
		Error:      job.ErrorMessage,
		FinishedAt: job.FinishedAt,
	}
}

func finishJob(job *models.GenerationJob, status models.GenerationJobStatus, message *string) {
	now := time.Now().UTC()
	job.Status = status
	job.FinishedAt = &now
	job.ErrorMessage = message
	job.Progress.ProgressPercent = 100
}

// GenerationWorker runs queued generation jobs.
type GenerationWorker struct {
	store     generationJobStore
	generator timetableGenerator
	logger    *zap.Logger
}

// NewGenerationWorker constructs a worker.
func NewGenerationWorker(store generationJobStore, generator timetableGenerator, logger *zap.Logger) *GenerationWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GenerationWorker{store: store, generator: generator, logger: logger}
}

// Handle processes a queue job. Terminal states written by Cancel are never overwritten.
func (w *GenerationWorker) Handle(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		msg := fmt.Sprintf("unexpected payload %T", job.Payload)
		w.settle(job.ID, models.GenerationJobFailed, nil, &msg)
		return errors.New(msg)
	}

	if err := w.store.Update(ctx, job.ID, func(j *models.GenerationJob) {
		if !j.Status.Terminal() {
			j.Status = models.GenerationJobRunning
		}
	}); err != nil {
		return err
	}

	progress := func(p models.GenerationProgress) {
		if err := w.store.Update(context.Background(), job.ID, func(j *models.GenerationJob) {
			if !j.Status.Terminal() {
				j.Progress = p
			}
		}); err != nil {
			w.logger.Sugar().Warnw("failed to record generation progress", "job_id", job.ID, "error", err)
		}
	}

	result, err := w.generator.GenerateAutomatedTimetable(ctx, req, progress)
	switch {
	case err == nil:
		w.settle(job.ID, models.GenerationJobCompleted, result, nil)
		return nil
	case errors.Is(err, context.Canceled):
		msg := "cancelled"
		w.settle(job.ID, models.GenerationJobCancelled, nil, &msg)
		return err
	case errors.Is(err, context.DeadlineExceeded):
		msg := "generation timed out"
		w.settle(job.ID, models.GenerationJobFailed, nil, &msg)
		return err
	default:
		msg := err.Error()
		w.settle(job.ID, models.GenerationJobFailed, nil, &msg)
		return err
	}
}

func (w *GenerationWorker) settle(id string, status models.GenerationJobStatus, result *models.GenerationResult, message *string) {
	if err := w.store.Update(context.Background(), id, func(j *models.GenerationJob) {
		if j.Status.Terminal() {
			return
		}
		finishJob(j, status, message)
		j.Result = result
	}); err != nil {
		w.logger.Sugar().Warnw("failed to settle generation job", "job_id", id, "status", status, "error", err)
	}
}
