package sqlxrepos

import (
	"context"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
)

const (
	submissionColumns = `id, assignment_id, student_id, content_type, content, file_name, file_type, status, created_at, updated_at`
	feedbackColumns   = `id, submission_id, grade, comments, ai_generated, created_at`
)

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	q := `INSERT INTO submission (` + submissionColumns + `)
		VALUES (:id, :assignment_id, :student_id, :content_type, :content, :file_name, :file_type, :status, :created_at, :updated_at)`
	_, err := repo.db.NamedExecContext(ctx, q, s)
	return s, errors.Wrap(err, "inserting submission")
}

func (repo *submissionRepository) GetSubmissionByID(ctx context.Context, id string) (submission.Submission, error) {
	var s submission.Submission
	q := `SELECT ` + submissionColumns + ` FROM submission WHERE id = $1`
	if err := repo.db.GetContext(ctx, &s, q, id); err != nil {
		return submission.Submission{}, notFound(err, submission.ErrNotFound)
	}
	return s, nil
}

func (repo *submissionRepository) FilterSubmissions(ctx context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.AssignmentID != "" {
		args = append(args, filter.AssignmentID)
		where = append(where, "assignment_id::text = $"+strconv.Itoa(len(args)))
	}
	if filter.StudentID != "" {
		args = append(args, filter.StudentID)
		where = append(where, "student_id::text = $"+strconv.Itoa(len(args)))
	}

	q := `SELECT ` + submissionColumns + ` FROM submission`
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY created_at DESC"

	subs := make([]submission.Submission, 0)
	err := repo.db.SelectContext(ctx, &subs, q, args...)
	return subs, errors.Wrap(err, "filtering submissions")
}

type feedbackRepository struct {
	db *sqlx.DB
}

var _ assessment.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *sqlx.DB) assessment.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(ctx context.Context, fb assessment.Feedback) (assessment.Feedback, error) {
	err := inTx(ctx, repo.db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE submission SET status = $1, updated_at = $2 WHERE id = $3`,
			submission.StatusGraded, fb.CreatedAt.UTC(), fb.SubmissionID,
		)
		if err != nil {
			return errors.Wrap(err, "updating submission status")
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return submission.ErrNotFound
		}

		q := `INSERT INTO feedback (` + feedbackColumns + `)
			VALUES (:id, :submission_id, :grade, :comments, :ai_generated, :created_at)`
		_, err = tx.NamedExecContext(ctx, q, fb)
		return errors.Wrap(err, "inserting feedback")
	})
	if err != nil {
		return assessment.Feedback{}, err
	}
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedback(ctx context.Context, submissionID string) ([]assessment.Feedback, error) {
	feedback := make([]assessment.Feedback, 0)
	q := `SELECT ` + feedbackColumns + ` FROM feedback WHERE submission_id = $1 ORDER BY created_at DESC`
	err := repo.db.SelectContext(ctx, &feedback, q, submissionID)
	return feedback, errors.Wrap(err, "querying feedback")
}
