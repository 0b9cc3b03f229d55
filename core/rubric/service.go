package rubric

import (
	"context"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

var ErrNotFound = errors.New("rubric not found")

type (
	Repository interface {
		CreateRubric(ctx context.Context, r Rubric) (Rubric, error)
		GetRubricByID(ctx context.Context, id string) (Rubric, error)
		QueryRubrics(ctx context.Context, teacherID string) ([]Rubric, error)
		DeleteRubric(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, nr NewRubric) (Rubric, error) {
	now := core.NowFunc()
	return svc.repo.CreateRubric(ctx, Rubric{
		ID:          core.NewID(),
		TeacherID:   teacherID,
		Name:        nr.Name,
		Description: nr.Description,
		Criteria:    nr.Criteria,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Rubric, error) {
	if !core.IsValidID(id) {
		return Rubric{}, ErrNotFound
	}
	return svc.repo.GetRubricByID(ctx, id)
}

func (svc *Service) Query(ctx context.Context, teacherID string) ([]Rubric, error) {
	return svc.repo.QueryRubrics(ctx, teacherID)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteRubric(ctx, id)
}
