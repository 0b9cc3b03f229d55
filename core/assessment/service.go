package assessment

import (
	"context"
	"net/mail"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

type (
	Repository interface {
		// CreateFeedback saves fb and marks its submission as graded, atomically.
		CreateFeedback(ctx context.Context, fb Feedback) (Feedback, error)
		QueryFeedback(ctx context.Context, submissionID string) ([]Feedback, error)
	}

	Deps struct {
		Repo        Repository
		Completer   Completer
		Validate    *validator.Validate
		Submissions *submission.Service
		Courses     *course.Service
		Rubrics     *rubric.Service
		Users       *user.Service
		MailSvc     core.EmailService
		Logger      core.Logger
		Conf        *core.Config
	}

	Service struct {
		Deps
	}
)

func NewService(deps Deps) *Service {
	return &Service{Deps: deps}
}

// Assess grades a stored submission, persists exactly one Feedback row and notifies the student.
func (svc *Service) Assess(ctx context.Context, actor user.User, req AssessRequest) (AssessResult, error) {
	req.SubmissionID = core.CleanString(req.SubmissionID, true /* lower */)
	req.ContentType = core.CleanString(req.ContentType, true /* lower */)
	if err := svc.validate(req); err != nil {
		return AssessResult{}, err
	}

	sub, err := svc.Submissions.GetByID(ctx, req.SubmissionID)
	if err != nil {
		if errors.Cause(err) == submission.ErrNotFound {
			return AssessResult{}, core.NewValidationError(err)
		}
		return AssessResult{}, errors.Wrap(err, "finding submission")
	}
	assignment, err := svc.Courses.GetAssignment(ctx, sub.AssignmentID)
	if err != nil {
		return AssessResult{}, errors.Wrap(err, "finding assignment")
	}
	if !actor.IsAdmin() {
		teacherID, err := svc.Courses.TeacherOf(ctx, assignment.ID)
		if err != nil {
			return AssessResult{}, errors.Wrap(err, "finding course teacher")
		}
		if teacherID != actor.ID {
			return AssessResult{}, ErrForbidden
		}
	}
	if err := svc.Completer.Ready(); err != nil {
		return AssessResult{}, err
	}

	pc := promptContext{Title: assignment.Title, Description: assignment.Description}
	if assignment.RubricID != "" {
		if r, err := svc.Rubrics.GetByID(ctx, assignment.RubricID); err == nil {
			pc.Rubric = &r
		} else if errors.Cause(err) != rubric.ErrNotFound {
			return AssessResult{}, errors.Wrap(err, "finding rubric")
		}
	}

	var parts []ContentPart
	switch req.ContentType {
	case submission.ContentText:
		parts = textParts(pc, req.Content)
	case submission.ContentFile:
		if !sub.IsFile() || req.Content != sub.Content {
			return AssessResult{}, core.NewValidationError(
				nil, core.FieldError{Field: "content", Error: "does not match the submitted file"},
			)
		}
		limit := svc.maxFileSize()
		data, err := svc.Submissions.ReadFile(ctx, sub, limit+1)
		if err != nil {
			return AssessResult{}, errors.Wrap(err, "reading submitted file")
		}
		if int64(len(data)) > limit {
			return AssessResult{}, core.NewValidationError(
				nil, core.FieldError{Field: "content", Error: "file is too large"},
			)
		}
		parts = fileParts(pc, sub.FileName, sub.FileType, data)
	}

	completion, err := svc.Completer.Complete(ctx, CompletionRequest{System: systemPrompt, Parts: parts})
	if err != nil {
		return AssessResult{}, errors.Wrap(err, "requesting completion")
	}
	completion = strings.TrimSpace(completion)
	grade := ExtractGrade(completion)

	fb, err := svc.Repo.CreateFeedback(ctx, Feedback{
		ID:           core.NewID(),
		SubmissionID: sub.ID,
		Grade:        grade,
		Comments:     completion,
		AIGenerated:  true,
		CreatedAt:    core.NowFunc(),
	})
	if err != nil {
		return AssessResult{}, errors.Wrap(err, "saving feedback")
	}

	svc.notifyStudent(ctx, sub, assignment, fb)
	return AssessResult{Grade: fb.Grade, Feedback: fb.Comments, FeedbackID: fb.ID}, nil
}

// GenerateFeedback grades free text or an uploaded file without persisting anything.
// Only the rubric's owner or an admin may grade against a rubric.
func (svc *Service) GenerateFeedback(ctx context.Context, actor user.User, req FeedbackRequest) (FeedbackResult, error) {
	req.AssignmentTitle = core.CleanString(req.AssignmentTitle)
	req.AssignmentText = core.CleanString(req.AssignmentText)
	req.RubricID = core.CleanString(req.RubricID, true /* lower */)
	req.FileData = core.CleanString(req.FileData)
	req.FileType = core.CleanString(req.FileType, true /* lower */)
	if err := svc.validate(req); err != nil {
		return FeedbackResult{}, err
	}
	if err := svc.Completer.Ready(); err != nil {
		return FeedbackResult{}, err
	}

	pc := promptContext{Title: req.AssignmentTitle}
	if req.RubricID != "" {
		r, err := svc.Rubrics.GetByID(ctx, req.RubricID)
		if err == nil && !actor.IsAdmin() && r.TeacherID != actor.ID {
			err = rubric.ErrNotFound
		}
		if err != nil {
			if errors.Cause(err) == rubric.ErrNotFound {
				return FeedbackResult{}, core.NewValidationError(rubric.ErrNotFound)
			}
			return FeedbackResult{}, errors.Wrap(err, "finding rubric")
		}
		pc.Rubric = &r
	}

	var parts []ContentPart
	if req.FileData != "" {
		data, fileType, err := decodeFileData(req.FileData, req.FileType)
		if err != nil {
			return FeedbackResult{}, core.NewValidationError(err)
		}
		parts = fileParts(pc, "", fileType, data)
		if req.AssignmentText != "" {
			parts = append(parts, ContentPart{Text: "Additional text from the student:\n" + truncate(req.AssignmentText, maxInlineText)})
		}
	} else {
		parts = textParts(pc, req.AssignmentText)
	}

	completion, err := svc.Completer.Complete(ctx, CompletionRequest{System: systemPrompt, Parts: parts})
	if err != nil {
		return FeedbackResult{}, errors.Wrap(err, "requesting completion")
	}
	completion = strings.TrimSpace(completion)
	return FeedbackResult{Feedback: completion, Grade: ExtractGrade(completion)}, nil
}

// maxFileSize bounds how much of a stored file is read back; uploads never exceed it.
func (svc *Service) maxFileSize() int64 {
	if svc.Conf != nil && svc.Conf.Storage.MaxUploadSize > 0 {
		return svc.Conf.Storage.MaxUploadSize
	}
	return defaultMaxFileSize
}

func (svc *Service) QueryFeedback(ctx context.Context, submissionID string) ([]Feedback, error) {
	return svc.Repo.QueryFeedback(ctx, submissionID)
}

// validate turns validator errors into a single "missing required fields" message.
func (svc *Service) validate(req interface{}) error {
	err := svc.Validate.Struct(req)
	if err == nil {
		return nil
	}
	vErrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}

	var missing, invalid []string
	for _, fe := range vErrs {
		switch fe.Tag() {
		case "required", "required_with":
			missing = append(missing, fe.Field())
		case "required_without":
			missing = append(missing, lowerFirst(fe.Param())+" or "+fe.Field())
		default:
			invalid = append(invalid, fe.Field())
		}
	}
	if len(missing) > 0 {
		return core.NewValidationError(errors.Errorf("Missing required fields: %s", strings.Join(missing, ", ")))
	}
	return core.NewValidationError(errors.Errorf("Invalid fields: %s", strings.Join(invalid, ", ")))
}

func (svc *Service) notifyStudent(ctx context.Context, sub submission.Submission, a course.Assignment, fb Feedback) {
	if svc.Users == nil || svc.MailSvc == nil {
		return
	}
	student, err := svc.Users.GetByID(ctx, sub.StudentID)
	if err != nil {
		svc.Logger.Warn("feedback notification: finding student", errors.Wrap(err, sub.StudentID))
		return
	}
	msg := core.NewEmailMessage(
		svc.Conf,
		mail.Address{Name: student.FullName, Address: student.Email},
		"Your submission has been assessed",
		"feedback_ready",
		map[string]string{"AssignmentTitle": a.Title, "Grade": fb.Grade, "SubmissionID": sub.ID},
	)
	svc.MailSvc.SendMessages(msg)
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
