package inmemdb

import (
	"context"
	"sort"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
)

type submissionRepository struct {
	db *DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) submission.Repository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.assignments[s.AssignmentID]; !ok {
		return submission.Submission{}, course.ErrAssignmentNotFound
	}
	repo.db.submissions[s.ID] = &s
	return s, nil
}

func (repo *submissionRepository) GetSubmissionByID(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.submissions[id]; ok {
		return *s, nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) FilterSubmissions(_ context.Context, filter submission.QueryFilter) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	subs := make([]submission.Submission, 0)
	for _, s := range repo.db.submissions {
		if filter.AssignmentID != "" && s.AssignmentID != filter.AssignmentID {
			continue
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			continue
		}
		subs = append(subs, *s)
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].CreatedAt.After(subs[j].CreatedAt) })
	return subs, nil
}

type feedbackRepository struct {
	db *DB
}

var _ assessment.Repository = (*feedbackRepository)(nil) // interface compliance check

func NewFeedbackRepository(db *DB) assessment.Repository {
	return &feedbackRepository{db: db}
}

func (repo *feedbackRepository) CreateFeedback(_ context.Context, fb assessment.Feedback) (assessment.Feedback, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	sub, ok := repo.db.submissions[fb.SubmissionID]
	if !ok {
		return assessment.Feedback{}, submission.ErrNotFound
	}
	sub.Status = submission.StatusGraded
	sub.UpdatedAt = fb.CreatedAt
	repo.db.feedback[fb.ID] = &fb
	return fb, nil
}

func (repo *feedbackRepository) QueryFeedback(_ context.Context, submissionID string) ([]assessment.Feedback, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fbs := make([]assessment.Feedback, 0)
	for _, fb := range repo.db.feedback {
		if fb.SubmissionID == submissionID {
			fbs = append(fbs, *fb)
		}
	}
	sort.Slice(fbs, func(i, j int) bool { return fbs[i].CreatedAt.After(fbs[j].CreatedAt) })
	return fbs, nil
}
