package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

type venueLister interface {
	List(ctx context.Context, ids []string) ([]models.Venue, error)
}

type lecturerLister interface {
	List(ctx context.Context, ids []string) ([]models.Lecturer, error)
}

type courseLister interface {
	List(ctx context.Context, ids []string) ([]models.Course, error)
}

type studentGroupLister interface {
	List(ctx context.Context, ids []string) ([]models.StudentGroup, error)
}

// ReferenceProvider loads the venue/lecturer/course/group snapshot that clash detection and constraint
// validation run against. The full snapshot is cached.
type ReferenceProvider struct {
	venues    venueLister
	lecturers lecturerLister
	courses   courseLister
	groups    studentGroupLister
	cache     *CacheService
	ttl       time.Duration
	logger    *zap.Logger
}

// NewReferenceProvider wires the entity repositories. cache may be nil.
func NewReferenceProvider(venues venueLister, lecturers lecturerLister, courses courseLister, groups studentGroupLister, cache *CacheService, ttl time.Duration, logger *zap.Logger) *ReferenceProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReferenceProvider{
		venues:    venues,
		lecturers: lecturers,
		courses:   courses,
		groups:    groups,
		cache:     cache,
		ttl:       ttl,
		logger:    logger,
	}
}

// Load returns every stored entity.
func (p *ReferenceProvider) Load(ctx context.Context) (models.SchedulingEntities, error) {
	var entities models.SchedulingEntities
	if p.cache.Get(ctx, referenceCacheKey, &entities) {
		return entities, nil
	}

	entities, err := p.fetch(ctx)
	if err != nil {
		return models.SchedulingEntities{}, err
	}
	p.cache.Set(ctx, referenceCacheKey, entities, p.ttl)
	return entities, nil
}

// Invalidate drops the cached snapshot. Call after reference data changes.
func (p *ReferenceProvider) Invalidate(ctx context.Context) {
	p.cache.Invalidate(ctx, referenceCacheAll)
}

func (p *ReferenceProvider) fetch(ctx context.Context) (models.SchedulingEntities, error) {
	var entities models.SchedulingEntities
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		entities.Venues, err = p.venues.List(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		entities.Lecturers, err = p.lecturers.List(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		entities.Courses, err = p.courses.List(gctx, nil)
		return err
	})
	g.Go(func() (err error) {
		entities.StudentGroups, err = p.groups.List(gctx, nil)
		return err
	})
	if err := g.Wait(); err != nil {
		return models.SchedulingEntities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load scheduling entities")
	}
	p.logger.Debug("reference snapshot loaded",
		zap.Int("venues", len(entities.Venues)),
		zap.Int("lecturers", len(entities.Lecturers)),
		zap.Int("courses", len(entities.Courses)),
		zap.Int("student_groups", len(entities.StudentGroups)),
	)
	return entities, nil
}
