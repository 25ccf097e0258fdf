package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
	appErrors "github.com/noah-isme/sma-timetable-engine/pkg/errors"
)

// mondayOf2024 is a Monday; offsets of 0..6 days give MONDAY..SUNDAY.
var mondayOf2024 = time.Date(2024, time.January, 1, 0, 0, 0, 0, time.UTC)

func at(dayOffset, hour, minute int) time.Time {
	return mondayOf2024.AddDate(0, 0, dayOffset).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func testSession(id string, dayOffset, startHour, durationMinutes int, venue, lecturer string, groups ...string) models.Session {
	start := at(dayOffset, startHour, 0)
	return models.Session{
		ID:            id,
		ScheduleID:    "sched-1",
		CourseID:      "course-1",
		LecturerID:    lecturer,
		VenueID:       venue,
		StudentGroups: groups,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(durationMinutes) * time.Minute),
		DayOfWeek:     models.DayOf(start),
	}
}

func fullWeek() models.WeeklyAvailability {
	availability := models.WeeklyAvailability{}
	for _, day := range models.AllDays {
		availability[day] = []models.ClockRange{{StartTime: "00:00", EndTime: "24:00"}}
	}
	return availability
}

func testEntities() models.SchedulingEntities {
	return models.SchedulingEntities{
		Venues: []models.Venue{
			{ID: "room-a", Name: "Room A", Capacity: 30},
			{ID: "room-b", Name: "Room B", Capacity: 60, Equipment: []string{models.EquipmentProjector}},
		},
		Lecturers: []models.Lecturer{
			{ID: "lec-1", Name: "Dr. Ada", Availability: fullWeek()},
			{ID: "lec-2", Name: "Dr. Grace", Availability: fullWeek()},
		},
		Courses: []models.Course{
			{ID: "course-1", Code: "MTH101", Name: "Calculus", Duration: 60, LecturerID: "lec-1", StudentGroups: []string{"g-1"}},
			{ID: "course-2", Code: "PHY101", Name: "Physics", Duration: 90, LecturerID: "lec-2", StudentGroups: []string{"g-2"}},
		},
		StudentGroups: []models.StudentGroup{
			{ID: "g-1", Name: "Class 10A", Size: 25},
			{ID: "g-2", Name: "Class 10B", Size: 20},
		},
	}
}

type referenceStub struct {
	entities models.SchedulingEntities
	err      error
	calls    int
}

func (r *referenceStub) Load(ctx context.Context) (models.SchedulingEntities, error) {
	r.calls++
	return r.entities, r.err
}

type constraintListerStub struct {
	constraints []models.Constraint
	err         error
}

func (c constraintListerStub) List(ctx context.Context, filter models.ConstraintFilter) ([]models.Constraint, error) {
	if c.err != nil {
		return nil, c.err
	}
	var out []models.Constraint
	for _, constraint := range c.constraints {
		if filter.Matches(constraint) {
			out = append(out, constraint)
		}
	}
	return out, nil
}

type scheduleRepoStub struct {
	mu        sync.Mutex
	schedules map[string]models.Schedule
	createErr error
}

func newScheduleRepoStub(schedules ...models.Schedule) *scheduleRepoStub {
	repo := &scheduleRepoStub{schedules: map[string]models.Schedule{}}
	for _, schedule := range schedules {
		repo.schedules[schedule.ID] = schedule
	}
	return repo
}

func (r *scheduleRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, schedule *models.Schedule) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	if schedule.Status == "" {
		schedule.Status = models.ScheduleStatusDraft
	}
	if schedule.Version == 0 {
		schedule.Version = 1
	}
	r.schedules[schedule.ID] = *schedule
	return nil
}

func (r *scheduleRepoStub) FindByID(ctx context.Context, id string) (*models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &schedule, nil
}

func (r *scheduleRepoStub) List(ctx context.Context, status models.ScheduleStatus) ([]models.Schedule, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Schedule
	for _, schedule := range r.schedules {
		if status == "" || schedule.Status == status {
			out = append(out, schedule)
		}
	}
	return out, nil
}

func (r *scheduleRepoStub) BumpVersion(ctx context.Context, exec sqlx.ExtContext, id string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[id]
	if !ok {
		return 0, sql.ErrNoRows
	}
	schedule.Version++
	r.schedules[id] = schedule
	return schedule.Version, nil
}

func (r *scheduleRepoStub) UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.ScheduleStatus, publishedBy *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	schedule, ok := r.schedules[id]
	if !ok {
		return sql.ErrNoRows
	}
	schedule.Status = status
	schedule.PublishedBy = publishedBy
	r.schedules[id] = schedule
	return nil
}

func (r *scheduleRepoStub) version(id string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.schedules[id].Version
}

type sessionRepoStub struct {
	mu       sync.Mutex
	sessions map[string]models.Session
	batchErr error
}

func newSessionRepoStub(sessions ...models.Session) *sessionRepoStub {
	repo := &sessionRepoStub{sessions: map[string]models.Session{}}
	for _, session := range sessions {
		repo.sessions[session.ID] = session
	}
	return repo
}

func (r *sessionRepoStub) Create(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepoStub) CreateBatch(ctx context.Context, exec sqlx.ExtContext, sessions []*models.Session) error {
	if r.batchErr != nil {
		return r.batchErr
	}
	for _, session := range sessions {
		if err := r.Create(ctx, exec, session); err != nil {
			return err
		}
	}
	return nil
}

func (r *sessionRepoStub) Update(ctx context.Context, exec sqlx.ExtContext, session *models.Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[session.ID]; !ok {
		return sql.ErrNoRows
	}
	r.sessions[session.ID] = *session
	return nil
}

func (r *sessionRepoStub) Delete(ctx context.Context, exec sqlx.ExtContext, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.sessions[id]; !ok {
		return sql.ErrNoRows
	}
	delete(r.sessions, id)
	return nil
}

func (r *sessionRepoStub) FindByID(ctx context.Context, id string) (*models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	session, ok := r.sessions[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &session, nil
}

func (r *sessionRepoStub) ListBySchedule(ctx context.Context, scheduleID string) ([]models.Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Session
	for _, session := range r.sessions {
		if session.ScheduleID == scheduleID {
			out = append(out, session)
		}
	}
	return out, nil
}

func (r *sessionRepoStub) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// memoryCacheRepo is a JSON round-tripping cache so tests observe what Redis would return.
type memoryCacheRepo struct {
	mu      sync.Mutex
	items   map[string][]byte
	deleted []string
}

func newMemoryCacheRepo() *memoryCacheRepo {
	return &memoryCacheRepo{items: map[string][]byte{}}
}

func (m *memoryCacheRepo) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.items[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCacheRepo) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = raw
	return nil
}

func (m *memoryCacheRepo) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range m.items {
		if strings.HasPrefix(key, prefix) {
			delete(m.items, key)
		}
	}
	return nil
}

func (m *memoryCacheRepo) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.items[key]
	return ok
}

type noopTxProvider struct{}

func (noopTxProvider) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return nil, appErrors.Clone(appErrors.ErrInternal, "transaction provider unavailable")
}

type txProviderMock struct {
	db   *sqlx.DB
	mock sqlmock.Sqlmock
}

func newTxProviderMock(t *testing.T) (txProvider, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	sqlxdb := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { db.Close() })
	return &txProviderMock{db: sqlxdb, mock: mock}, mock
}

func (t *txProviderMock) BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error) {
	return t.db.BeginTxx(ctx, opts)
}

func strPtr(v string) *string { return &v }

func boolPtr(v bool) *bool { return &v }

func timePtr(v time.Time) *time.Time { return &v }
