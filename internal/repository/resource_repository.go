package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-timetable-engine/internal/models"
)

// listByIDs selects rows of a reference table. An empty id list selects every row.
func listByIDs[T any](ctx context.Context, db *sqlx.DB, table, columns string, ids []string) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s", columns, table)
	var args []interface{}
	if len(ids) > 0 {
		query += " WHERE id = ANY($1)"
		args = append(args, pq.Array(ids))
	}
	query += " ORDER BY id ASC"

	var rows []T
	if err := db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list %s: %w", table, err)
	}
	return rows, nil
}

// VenueRepository reads venues.
type VenueRepository struct {
	db *sqlx.DB
}

// NewVenueRepository constructs a VenueRepository.
func NewVenueRepository(db *sqlx.DB) *VenueRepository {
	return &VenueRepository{db: db}
}

// List returns venues, optionally restricted to ids.
func (r *VenueRepository) List(ctx context.Context, ids []string) ([]models.Venue, error) {
	return listByIDs[models.Venue](ctx, r.db, "venues", "id, name, capacity, equipment, availability, location, created_at, updated_at", ids)
}

// LecturerRepository reads lecturers.
type LecturerRepository struct {
	db *sqlx.DB
}

// NewLecturerRepository constructs a LecturerRepository.
func NewLecturerRepository(db *sqlx.DB) *LecturerRepository {
	return &LecturerRepository{db: db}
}

// List returns lecturers, optionally restricted to ids.
func (r *LecturerRepository) List(ctx context.Context, ids []string) ([]models.Lecturer, error) {
	return listByIDs[models.Lecturer](ctx, r.db, "lecturers", "id, name, subjects, availability, preferences, max_hours_per_day, max_hours_per_week, created_at, updated_at", ids)
}

// CourseRepository reads courses.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs a CourseRepository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

// List returns courses, optionally restricted to ids.
func (r *CourseRepository) List(ctx context.Context, ids []string) ([]models.Course, error) {
	return listByIDs[models.Course](ctx, r.db, "courses", "id, code, name, duration, required_equipment, student_groups, lecturer_id, created_at, updated_at", ids)
}

// StudentGroupRepository reads student groups.
type StudentGroupRepository struct {
	db *sqlx.DB
}

// NewStudentGroupRepository constructs a StudentGroupRepository.
func NewStudentGroupRepository(db *sqlx.DB) *StudentGroupRepository {
	return &StudentGroupRepository{db: db}
}

// List returns student groups, optionally restricted to ids.
func (r *StudentGroupRepository) List(ctx context.Context, ids []string) ([]models.StudentGroup, error) {
	return listByIDs[models.StudentGroup](ctx, r.db, "student_groups", "id, name, size, courses, created_at, updated_at", ids)
}
