package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

type Course struct {
	ID          string    `json:"id" db:"id"`
	TeacherID   string    `json:"teacher_id" db:"teacher_id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"` // UTC
}

type Assignment struct {
	ID          string     `json:"id"`
	CourseID    string     `json:"course_id"`
	RubricID    string     `json:"rubric_id,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	DueAt       *time.Time `json:"due_at"` // UTC
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type NewCourse struct {
	Name        string `json:"name" validate:"required,notblank,max=200"`
	Description string `json:"description"`
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)
	return validate.Struct(nc)
}

// UpdateCourse only changes the provided fields.
type UpdateCourse struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=200"`
	Description *string `json:"description"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	if uc.Name != nil {
		name := core.CleanString(*uc.Name)
		uc.Name = &name
	}
	if uc.Description != nil {
		desc := core.CleanString(*uc.Description)
		uc.Description = &desc
	}
	return validate.Struct(uc)
}

type NewAssignment struct {
	Title       string     `json:"title" validate:"required,notblank,max=200"`
	Description string     `json:"description"`
	RubricID    string     `json:"rubric_id" validate:"omitempty,uuid"`
	DueAt       *time.Time `json:"due_at"`
}

func (na *NewAssignment) Validate(ctx context.Context, validate *validator.Validate) error {
	na.Title = core.CleanString(na.Title)
	na.Description = core.CleanString(na.Description)
	na.RubricID = core.CleanString(na.RubricID, true /* lower */)
	return validate.StructCtx(ctx, na)
}

type QueryFilter struct {
	TeacherID string `query:"teacher_id"`
	Search    string `query:"search"`
}

func (qf *QueryFilter) Clean() {
	qf.TeacherID = core.CleanString(qf.TeacherID, true /* lower */)
	qf.Search = core.CleanString(qf.Search)
}
