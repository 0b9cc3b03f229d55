package submission

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
)

// Content types
const (
	ContentText = "text"
	ContentFile = "file"
)

// Statuses
const (
	StatusSubmitted = "submitted"
	StatusGraded    = "graded"
)

// Submission is a student's pasted text or uploaded file for an assignment.
// For ContentFile, Content holds the storage key of the file.
type Submission struct {
	ID           string    `json:"id" db:"id"`
	AssignmentID string    `json:"assignment_id" db:"assignment_id"`
	StudentID    string    `json:"student_id" db:"student_id"`
	ContentType  string    `json:"content_type" db:"content_type"`
	Content      string    `json:"content" db:"content"`
	FileName     string    `json:"file_name,omitempty" db:"file_name"`
	FileType     string    `json:"file_type,omitempty" db:"file_type"`
	Status       string    `json:"status" db:"status"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"` // UTC
}

func (s Submission) IsFile() bool { return s.ContentType == ContentFile }

type NewTextSubmission struct {
	Content string `json:"content" validate:"required,notblank"`
}

func (ns *NewTextSubmission) Validate(validate *validator.Validate) error {
	ns.Content = core.CleanString(ns.Content)
	return validate.Struct(ns)
}

type QueryFilter struct {
	AssignmentID string
	StudentID    string
}
