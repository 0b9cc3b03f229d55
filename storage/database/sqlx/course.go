package sqlxrepos

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
)

const (
	courseColumns     = `id, teacher_id, name, description, created_at, updated_at`
	assignmentColumns = `id, course_id, rubric_id, title, description, due_at, created_at, updated_at`
)

var courseOrderings = map[string]string{"name": "name", "created_at": "created_at"}

type assignmentRow struct {
	ID          string      `db:"id"`
	CourseID    string      `db:"course_id"`
	RubricID    null.String `db:"rubric_id"`
	Title       string      `db:"title"`
	Description string      `db:"description"`
	DueAt       null.Time   `db:"due_at"`
	CreatedAt   time.Time   `db:"created_at"`
	UpdatedAt   time.Time   `db:"updated_at"`
}

func newAssignmentRow(a course.Assignment) assignmentRow {
	return assignmentRow{
		ID:          a.ID,
		CourseID:    a.CourseID,
		RubricID:    null.NewString(a.RubricID, a.RubricID != ""),
		Title:       a.Title,
		Description: a.Description,
		DueAt:       null.TimeFromPtr(a.DueAt),
		CreatedAt:   a.CreatedAt.UTC(),
		UpdatedAt:   a.UpdatedAt.UTC(),
	}
}

func (r assignmentRow) assignment() course.Assignment {
	a := course.Assignment{
		ID:          r.ID,
		CourseID:    r.CourseID,
		RubricID:    r.RubricID.String,
		Title:       r.Title,
		Description: r.Description,
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	if r.DueAt.Valid {
		due := r.DueAt.Time.UTC()
		a.DueAt = &due
	}
	return a
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) course.Repository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `INSERT INTO course (` + courseColumns + `)
		VALUES (:id, :teacher_id, :name, :description, :created_at, :updated_at)`
	_, err := repo.db.NamedExecContext(ctx, q, c)
	return c, errors.Wrap(err, "inserting course")
}

func (repo *courseRepository) GetCourseByID(ctx context.Context, id string) (course.Course, error) {
	var c course.Course
	q := `SELECT ` + courseColumns + ` FROM course WHERE id = $1`
	if err := repo.db.GetContext(ctx, &c, q, id); err != nil {
		return course.Course{}, notFound(err, course.ErrNotFound)
	}
	return c, nil
}

func (repo *courseRepository) FilterCourses(ctx context.Context, filter course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.TeacherID != "" {
		args = append(args, filter.TeacherID)
		where = append(where, "teacher_id::text = $"+strconv.Itoa(len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		where = append(where, "name ILIKE $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + courseColumns + ` FROM course`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderBy(ordering, courseOrderings, "created_at DESC")

	courses := make([]course.Course, 0)
	err := repo.db.SelectContext(ctx, &courses, q, args...)
	return courses, errors.Wrap(err, "filtering courses")
}

func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	q := `UPDATE course SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := repo.db.NamedExecContext(ctx, q, c)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return course.Course{}, course.ErrNotFound
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	// assignments are deleted on cascade
	_, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	return errors.Wrap(err, "deleting course")
}

func (repo *courseRepository) CreateAssignment(ctx context.Context, a course.Assignment) (course.Assignment, error) {
	q := `INSERT INTO assignment (` + assignmentColumns + `)
		VALUES (:id, :course_id, :rubric_id, :title, :description, :due_at, :created_at, :updated_at)`
	_, err := repo.db.NamedExecContext(ctx, q, newAssignmentRow(a))
	return a, errors.Wrap(err, "inserting assignment")
}

func (repo *courseRepository) GetAssignmentByID(ctx context.Context, id string) (course.Assignment, error) {
	var row assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return course.Assignment{}, notFound(err, course.ErrAssignmentNotFound)
	}
	return row.assignment(), nil
}

func (repo *courseRepository) QueryAssignments(ctx context.Context, courseID string) ([]course.Assignment, error) {
	var rows []assignmentRow
	q := `SELECT ` + assignmentColumns + ` FROM assignment WHERE course_id = $1 ORDER BY created_at DESC`
	if err := repo.db.SelectContext(ctx, &rows, q, courseID); err != nil {
		return nil, errors.Wrap(err, "querying assignments")
	}
	assignments := make([]course.Assignment, 0, len(rows))
	for _, row := range rows {
		assignments = append(assignments, row.assignment())
	}
	return assignments, nil
}
