package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

func TestConstraintRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "priority", "entities", "rule", "is_active", "weight", "description", "created_at", "updated_at"}).
		AddRow("c-1", "TIME_WINDOW", "HIGH", "{lec-1}", []byte(`{"value":{"startTime":"08:00","endTime":"16:00"}}`), true, 1.0, "core hours", time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, type, priority, entities, rule, is_active, weight, description, created_at, updated_at FROM constraints WHERE type = $1 AND is_active = TRUE ORDER BY created_at ASC")).
		WithArgs(models.ConstraintTimeWindow).
		WillReturnRows(rows)

	list, err := repo.List(context.Background(), models.ConstraintFilter{Type: models.ConstraintTimeWindow, ActiveOnly: true})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"lec-1"}, []string(list[0].Entities))

	var window struct {
		StartTime string `json:"startTime"`
	}
	require.NoError(t, list[0].Rule.Decode(&window))
	assert.Equal(t, "08:00", window.StartTime)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO constraints")).
		WithArgs(sqlmock.AnyArg(), "STUDENT_BREAK", "MEDIUM", sqlmock.AnyArg(), sqlmock.AnyArg(), true, 1.0, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	c := &models.Constraint{Type: models.ConstraintStudentBreak, Priority: models.PriorityMedium, IsActive: true, Weight: 1}
	require.NoError(t, repo.Create(context.Background(), c))
	assert.NotEmpty(t, c.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConstraintRepositoryDeleteNotFound(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewConstraintRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM constraints WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.Delete(context.Background(), "missing"), sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}
