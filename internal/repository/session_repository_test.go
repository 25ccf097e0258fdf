package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestSessionRepositoryCreateBatch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs(sqlmock.AnyArg(), "sch-1", "math", "lec-1", "room-a", sqlmock.AnyArg(), start, start.Add(time.Hour), "MONDAY", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sessions")).
		WithArgs("fixed-id", "sch-1", "art", "lec-2", "room-b", sqlmock.AnyArg(), start, start.Add(time.Hour), "MONDAY", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	sessions := []*models.Session{
		{ScheduleID: "sch-1", CourseID: "math", LecturerID: "lec-1", VenueID: "room-a", StudentGroups: pq.StringArray{"g1"}, StartTime: start, EndTime: start.Add(time.Hour), DayOfWeek: models.Monday},
		{ID: "fixed-id", ScheduleID: "sch-1", CourseID: "art", LecturerID: "lec-2", VenueID: "room-b", StudentGroups: pq.StringArray{"g2"}, StartTime: start, EndTime: start.Add(time.Hour), DayOfWeek: models.Monday},
	}
	require.NoError(t, repo.CreateBatch(context.Background(), nil, sessions))
	assert.NotEmpty(t, sessions[0].ID)
	assert.Equal(t, "fixed-id", sessions[1].ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryListBySchedule(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)
	start := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows([]string{"id", "schedule_id", "course_id", "lecturer_id", "venue_id", "student_groups", "start_time", "end_time", "day_of_week", "created_at", "updated_at"}).
		AddRow("s-1", "sch-1", "math", "lec-1", "room-a", "{g1,g2}", start, start.Add(time.Hour), "MONDAY", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM sessions WHERE schedule_id = $1 ORDER BY start_time ASC, id ASC")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	sessions, err := repo.ListBySchedule(context.Background(), "sch-1")
	require.NoError(t, err)
	require.Len(t, sessions, 1)
	assert.Equal(t, []string{"g1", "g2"}, []string(sessions[0].StudentGroups))
	assert.Equal(t, models.Monday, sessions[0].DayOfWeek)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryUpdateNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE sessions SET")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), nil, &models.Session{ID: "missing"})
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.Delete(context.Background(), nil, "s-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSessionRepositoryDeleteWithinTransaction(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewSessionRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM sessions WHERE id = $1")).
		WithArgs("s-1").
		WillReturnResult(sqlmock.NewResult(1, 0))
	mock.ExpectRollback()

	tx, err := db.BeginTxx(context.Background(), nil)
	require.NoError(t, err)
	err = repo.Delete(context.Background(), tx, "s-1")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}
