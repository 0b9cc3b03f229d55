package assessment

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

var (
	ErrNotFound      = errors.New("feedback not found")
	ErrMissingAPIKey = errors.New("AI gateway API key is not configured")
	ErrForbidden     = errors.New("permission denied")
)

// Feedback is a grade and its commentary for a submission.
type Feedback struct {
	ID           string    `json:"id" db:"id"`
	SubmissionID string    `json:"submission_id" db:"submission_id"`
	Grade        string    `json:"grade" db:"grade"`
	Comments     string    `json:"comments" db:"comments"`
	AIGenerated  bool      `json:"ai_generated" db:"ai_generated"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"` // UTC
}

type (
	AssessRequest struct {
		SubmissionID string `json:"submissionId" validate:"required"`
		ContentType  string `json:"contentType" validate:"required,oneof=text file"`
		Content      string `json:"content" validate:"required"`
	}

	AssessResult struct {
		Grade      string `json:"grade"`
		Feedback   string `json:"feedback"`
		FeedbackID string `json:"feedbackId"`
	}

	FeedbackRequest struct {
		AssignmentText  string `json:"assignmentText"`
		AssignmentTitle string `json:"assignmentTitle" validate:"required"`
		RubricID        string `json:"rubricId"`
		FileData        string `json:"fileData" validate:"required_without=AssignmentText"`
		FileType        string `json:"fileType" validate:"required_with=FileData"`
	}

	FeedbackResult struct {
		Feedback string `json:"feedback"`
		Grade    string `json:"grade"`
	}
)

// ContentPart is a piece of a user message: either text or an image (URL or data URL).
type ContentPart struct {
	Text     string
	ImageURL string
}

type CompletionRequest struct {
	System string
	Parts  []ContentPart
}

// Completer sends a prompt to a chat completion gateway.
type Completer interface {
	// Ready returns ErrMissingAPIKey if the gateway cannot be called.
	Ready() error
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// UpstreamError is a non-2xx reply of the completion gateway.
type UpstreamError struct {
	StatusCode int
	Message    string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("AI gateway error (status %d): %s", e.StatusCode, e.Message)
}

// PublicMessage is the message callers are shown for this upstream status.
func (e *UpstreamError) PublicMessage() string {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return "Rate limit exceeded, please try again later."
	case http.StatusPaymentRequired:
		return "AI credits exhausted, please add funds to continue."
	default:
		return "AI gateway error"
	}
}

// HTTPStatus is the status passed through to callers: 429 and 402 as is, anything else is a 500.
func (e *UpstreamError) HTTPStatus() int {
	switch e.StatusCode {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return e.StatusCode
	default:
		return http.StatusInternalServerError
	}
}
