package sqlxrepos

import (
	"context"
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
)

const rubricColumns = `id, teacher_id, name, description, criteria, created_at, updated_at`

// criteria is stored as JSONB.
type criteria []rubric.Criterion

func (c criteria) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

func (c *criteria) Scan(src interface{}) error {
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	case nil:
		*c = criteria{}
		return nil
	default:
		return errors.Errorf("unsupported criteria type %T", src)
	}
	return json.Unmarshal(data, (*[]rubric.Criterion)(c))
}

type rubricRow struct {
	ID          string    `db:"id"`
	TeacherID   string    `db:"teacher_id"`
	Name        string    `db:"name"`
	Description string    `db:"description"`
	Criteria    criteria  `db:"criteria"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r rubricRow) rubric() rubric.Rubric {
	return rubric.Rubric{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		Name:        r.Name,
		Description: r.Description,
		Criteria:    []rubric.Criterion(r.Criteria),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

type rubricRepository struct {
	db *sqlx.DB
}

var _ rubric.Repository = (*rubricRepository)(nil) // interface compliance check

func NewRubricRepository(db *sqlx.DB) rubric.Repository {
	return &rubricRepository{db: db}
}

func (repo *rubricRepository) CreateRubric(ctx context.Context, r rubric.Rubric) (rubric.Rubric, error) {
	q := `INSERT INTO rubric (` + rubricColumns + `)
		VALUES (:id, :teacher_id, :name, :description, :criteria, :created_at, :updated_at)`
	row := rubricRow{
		ID:          r.ID,
		TeacherID:   r.TeacherID,
		Name:        r.Name,
		Description: r.Description,
		Criteria:    criteria(r.Criteria),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
	_, err := repo.db.NamedExecContext(ctx, q, row)
	return r, errors.Wrap(err, "inserting rubric")
}

func (repo *rubricRepository) GetRubricByID(ctx context.Context, id string) (rubric.Rubric, error) {
	var row rubricRow
	q := `SELECT ` + rubricColumns + ` FROM rubric WHERE id = $1`
	if err := repo.db.GetContext(ctx, &row, q, id); err != nil {
		return rubric.Rubric{}, notFound(err, rubric.ErrNotFound)
	}
	return row.rubric(), nil
}

func (repo *rubricRepository) QueryRubrics(ctx context.Context, teacherID string) ([]rubric.Rubric, error) {
	var rows []rubricRow
	q := `SELECT ` + rubricColumns + ` FROM rubric WHERE teacher_id = $1 ORDER BY name`
	if err := repo.db.SelectContext(ctx, &rows, q, teacherID); err != nil {
		return nil, errors.Wrap(err, "querying rubrics")
	}
	rubrics := make([]rubric.Rubric, 0, len(rows))
	for _, row := range rows {
		rubrics = append(rubrics, row.rubric())
	}
	return rubrics, nil
}

func (repo *rubricRepository) DeleteRubric(ctx context.Context, id string) error {
	// assignment.rubric_id is set to NULL on delete
	_, err := repo.db.ExecContext(ctx, `DELETE FROM rubric WHERE id = $1`, id)
	return errors.Wrap(err, "deleting rubric")
}
