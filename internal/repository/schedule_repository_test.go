package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestScheduleRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO schedules")).
		WithArgs(sqlmock.AnyArg(), "Semester 1", 1, string(models.ScheduleStatusDraft), types.JSONText(`{}`), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	payload := &models.Schedule{Name: "Semester 1"}
	require.NoError(t, repo.Create(context.Background(), nil, payload))
	assert.NotEmpty(t, payload.ID)
	assert.Equal(t, 1, payload.Version)
	assert.Equal(t, models.ScheduleStatusDraft, payload.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryCreateRequiresName(t *testing.T) {
	db, _, cleanup := newRepoMock(t)
	defer cleanup()

	assert.Error(t, NewScheduleRepository(db).Create(context.Background(), nil, &models.Schedule{}))
}

func TestScheduleRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "version", "status", "meta", "published_by", "published_at", "created_at", "updated_at"}).
		AddRow("sch-1", "Semester 1", 3, string(models.ScheduleStatusDraft), types.JSONText(`{}`), nil, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, version, status, meta, published_by, published_at, created_at, updated_at FROM schedules WHERE id = $1")).
		WithArgs("sch-1").
		WillReturnRows(rows)

	schedule, err := repo.FindByID(context.Background(), "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 3, schedule.Version)
	assert.Nil(t, schedule.PublishedBy)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryBumpVersion(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedules SET version = version + 1, updated_at = $1 WHERE id = $2 RETURNING version")).
		WithArgs(sqlmock.AnyArg(), "sch-1").
		WillReturnRows(sqlmock.NewRows([]string{"version"}).AddRow(4))

	version, err := repo.BumpVersion(context.Background(), nil, "sch-1")
	require.NoError(t, err)
	assert.Equal(t, 4, version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryBumpVersionNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("UPDATE schedules SET version")).
		WithArgs(sqlmock.AnyArg(), "missing").
		WillReturnRows(sqlmock.NewRows([]string{"version"}))

	_, err := repo.BumpVersion(context.Background(), nil, "missing")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatusPublished(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)
	publisher := "registrar"

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, published_by = $2, published_at = $3, updated_at = $3 WHERE id = $4")).
		WithArgs(string(models.ScheduleStatusPublished), publisher, sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, repo.UpdateStatus(context.Background(), nil, "sch-1", models.ScheduleStatusPublished, &publisher))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScheduleRepositoryUpdateStatusNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewScheduleRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE schedules SET status = $1, updated_at = $2 WHERE id = $3")).
		WithArgs(string(models.ScheduleStatusArchived), sqlmock.AnyArg(), "sch-1").
		WillReturnResult(sqlmock.NewResult(1, 0))

	err := repo.UpdateStatus(context.Background(), nil, "sch-1", models.ScheduleStatusArchived, nil)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
