package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

var (
	ErrNotFound           = errors.New("course not found")
	ErrAssignmentNotFound = errors.New("assignment not found")
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourseByID(ctx context.Context, id string) (Course, error)
		// FilterCourses applies AND on the set QueryFilter fields; Search is a case-insensitive match on Name.
		FilterCourses(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		// DeleteCourse also deletes the course's assignments.
		DeleteCourse(ctx context.Context, id string) error

		CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
		GetAssignmentByID(ctx context.Context, id string) (Assignment, error)
		QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, teacherID string, nc NewCourse) (Course, error) {
	now := core.NowFunc()
	return svc.repo.CreateCourse(ctx, Course{
		ID:          core.NewID(),
		TeacherID:   teacherID,
		Name:        nc.Name,
		Description: nc.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if !core.IsValidID(id) {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourseByID(ctx, id)
}

func (svc *Service) Filter(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.FilterCourses(ctx, filter, ordering)
}

func (svc *Service) Update(ctx context.Context, c Course, uc UpdateCourse) (Course, error) {
	if uc.Name != nil {
		c.Name = *uc.Name
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	c.UpdatedAt = core.NowFunc()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteCourse(ctx, id)
}

func (svc *Service) CreateAssignment(ctx context.Context, courseID string, na NewAssignment) (Assignment, error) {
	now := core.NowFunc()
	a := Assignment{
		ID:          core.NewID(),
		CourseID:    courseID,
		RubricID:    na.RubricID,
		Title:       na.Title,
		Description: na.Description,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if na.DueAt != nil {
		due := na.DueAt.UTC()
		a.DueAt = &due
	}
	return svc.repo.CreateAssignment(ctx, a)
}

func (svc *Service) GetAssignment(ctx context.Context, id string) (Assignment, error) {
	if !core.IsValidID(id) {
		return Assignment{}, ErrAssignmentNotFound
	}
	return svc.repo.GetAssignmentByID(ctx, id)
}

func (svc *Service) QueryAssignments(ctx context.Context, courseID string) ([]Assignment, error) {
	return svc.repo.QueryAssignments(ctx, courseID)
}

// TeacherOf returns the teacher ID owning the course of the assignment.
func (svc *Service) TeacherOf(ctx context.Context, assignmentID string) (string, error) {
	a, err := svc.GetAssignment(ctx, assignmentID)
	if err != nil {
		return "", errors.Wrap(err, "finding assignment")
	}
	c, err := svc.repo.GetCourseByID(ctx, a.CourseID)
	if err != nil {
		return "", errors.Wrap(err, "finding course")
	}
	return c.TeacherID, nil
}
