package assessment_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"io"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
	emailsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/email"
	logsvc "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/services/logger"
	inmemdb "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/database/inmem"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/storage/files"
	testutil "github.com/7arhan4hmed/scolarit-classroom-ai-sub000/tests"
)

type stubCompleter struct {
	mu       sync.Mutex
	notReady error
	reply    string
	err      error
	requests []assessment.CompletionRequest
}

func (c *stubCompleter) Ready() error { return c.notReady }

func (c *stubCompleter) Complete(_ context.Context, req assessment.CompletionRequest) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.requests = append(c.requests, req)
	return c.reply, c.err
}

type fixture struct {
	svc        *assessment.Service
	completer  *stubCompleter
	courseSvc  *course.Service
	rubricSvc  *rubric.Service
	subSvc     *submission.Service
	teacher    user.User
	student    user.User
	assignment course.Assignment
}

func setup(t *testing.T) *fixture {
	t.Helper()
	conf := core.NewTestConfig()
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "", 0), conf)
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	store, err := files.NewLocalStore(t.TempDir())
	require.NoError(t, err)

	db := inmemdb.Open()
	usrRepo := inmemdb.NewUserRepository(db)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	emailsvc.ResetSentMessages()

	fx := &fixture{
		completer: &stubCompleter{reply: "Grade: B+\nGood."},
		courseSvc: course.NewService(inmemdb.NewCourseRepository(db)),
		rubricSvc: rubric.NewService(inmemdb.NewRubricRepository(db)),
		subSvc:    submission.NewService(inmemdb.NewSubmissionRepository(db), store),
		teacher:   testutil.CreateUser(t, usrRepo, "Tea Cher", "teacher@test.cd", "", []string{user.RoleTeacher}, true),
		student:   testutil.CreateUser(t, usrRepo, "Stu Dent", "student@test.cd", "", []string{user.RoleStudent}, true),
	}
	fx.svc = assessment.NewService(assessment.Deps{
		Repo:        inmemdb.NewFeedbackRepository(db),
		Completer:   fx.completer,
		Validate:    validate,
		Submissions: fx.subSvc,
		Courses:     fx.courseSvc,
		Rubrics:     fx.rubricSvc,
		Users:       user.NewService(usrRepo, mailSvc, conf),
		MailSvc:     mailSvc,
		Logger:      logger,
		Conf:        conf,
	})

	ctx := context.Background()
	c, err := fx.courseSvc.Create(ctx, fx.teacher.ID, course.NewCourse{Name: "Biology"})
	require.NoError(t, err)
	fx.assignment, err = fx.courseSvc.CreateAssignment(ctx, c.ID, course.NewAssignment{Title: "Cells", Description: "Describe a cell."})
	require.NoError(t, err)
	return fx
}

func TestService_Assess(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()
	sub, err := fx.subSvc.CreateText(ctx, fx.assignment.ID, fx.student.ID, submission.NewTextSubmission{Content: "A cell has a membrane."})
	require.NoError(t, err)

	t.Run("forbidden for students", func(t *testing.T) {
		_, err := fx.svc.Assess(ctx, fx.student, assessment.AssessRequest{SubmissionID: sub.ID, ContentType: "text", Content: sub.Content})
		assert.Equal(t, assessment.ErrForbidden, errors.Cause(err))
	})

	t.Run("upstream error saves nothing", func(t *testing.T) {
		fx.completer.err = &assessment.UpstreamError{StatusCode: 429}
		defer func() { fx.completer.err = nil }()

		_, err := fx.svc.Assess(ctx, fx.teacher, assessment.AssessRequest{SubmissionID: sub.ID, ContentType: "text", Content: sub.Content})
		var upErr *assessment.UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, 429, upErr.StatusCode)

		fbs, err := fx.svc.QueryFeedback(ctx, sub.ID)
		require.NoError(t, err)
		assert.Empty(t, fbs)
		got, err := fx.subSvc.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, submission.StatusSubmitted, got.Status)
	})

	t.Run("graded", func(t *testing.T) {
		// upper-cased ids and content types are accepted
		res, err := fx.svc.Assess(ctx, fx.teacher, assessment.AssessRequest{SubmissionID: strings.ToUpper(sub.ID), ContentType: " TEXT ", Content: sub.Content})
		require.NoError(t, err)
		assert.Equal(t, "B+", res.Grade)
		assert.Equal(t, "Grade: B+\nGood.", res.Feedback)

		req := fx.completer.requests[len(fx.completer.requests)-1]
		require.Len(t, req.Parts, 1)
		assert.Contains(t, req.System, "Grade: X")
		assert.Contains(t, req.Parts[0].Text, "Assignment: Cells\nInstructions: Describe a cell.\n")
		assert.Contains(t, req.Parts[0].Text, "A cell has a membrane.")

		got, err := fx.subSvc.GetByID(ctx, sub.ID)
		require.NoError(t, err)
		assert.Equal(t, submission.StatusGraded, got.Status)

		msgs := emailsvc.SentMessages()
		require.Len(t, msgs, 1)
		assert.Equal(t, fx.student.Email, msgs[0].To[0].Address)
	})

	t.Run("missing api key", func(t *testing.T) {
		fx.completer.notReady = assessment.ErrMissingAPIKey
		defer func() { fx.completer.notReady = nil }()

		_, err := fx.svc.Assess(ctx, fx.teacher, assessment.AssessRequest{SubmissionID: sub.ID, ContentType: "text", Content: sub.Content})
		assert.Equal(t, assessment.ErrMissingAPIKey, errors.Cause(err))

		// access is checked first
		_, err = fx.svc.Assess(ctx, fx.student, assessment.AssessRequest{SubmissionID: sub.ID, ContentType: "text", Content: sub.Content})
		assert.Equal(t, assessment.ErrForbidden, errors.Cause(err))
	})
}

func TestService_AssessFile(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	upload := func(t *testing.T, name, fileType string, data []byte) submission.Submission {
		t.Helper()
		sub, err := fx.subSvc.CreateFile(ctx, fx.assignment.ID, fx.student.ID, name, fileType, bytes.NewReader(data))
		require.NoError(t, err)
		return sub
	}
	assess := func(sub submission.Submission) (assessment.AssessResult, error) {
		return fx.svc.Assess(ctx, fx.teacher, assessment.AssessRequest{SubmissionID: sub.ID, ContentType: "file", Content: sub.Content})
	}
	lastRequest := func() assessment.CompletionRequest {
		return fx.completer.requests[len(fx.completer.requests)-1]
	}

	t.Run("large image is sent whole", func(t *testing.T) {
		img := append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0x42}, 300_000)...)
		sub := upload(t, "diagram.png", "image/png", img)

		_, err := assess(sub)
		require.NoError(t, err)

		req := lastRequest()
		require.Len(t, req.Parts, 2)
		encoded := strings.TrimPrefix(req.Parts[1].ImageURL, "data:image/png;base64,")
		sent, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		assert.Equal(t, img, sent)
	})

	t.Run("long text is inlined and truncated", func(t *testing.T) {
		text := strings.Repeat("é", 60_000) // 120 000 bytes
		sub := upload(t, "essay.txt", "text/plain; charset=utf-8", []byte(text))

		_, err := assess(sub)
		require.NoError(t, err)

		req := lastRequest()
		require.Len(t, req.Parts, 1)
		assert.NotContains(t, req.Parts[0].Text, "cannot be displayed")
		assert.True(t, strings.HasSuffix(req.Parts[0].Text, "é\n[truncated]"))
	})

	t.Run("file over the upload limit", func(t *testing.T) {
		sub := upload(t, "notes.txt", "text/plain", []byte("0123456789"))
		prev := fx.svc.Conf.Storage.MaxUploadSize
		fx.svc.Conf.Storage.MaxUploadSize = 4
		defer func() { fx.svc.Conf.Storage.MaxUploadSize = prev }()

		calls := len(fx.completer.requests)
		_, err := assess(sub)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, []core.FieldError{{Field: "content", Error: "file is too large"}}, vErr.Fields)
		assert.Len(t, fx.completer.requests, calls)
	})
}

func TestService_GenerateFeedback(t *testing.T) {
	fx := setup(t)
	ctx := context.Background()

	r, err := fx.rubricSvc.Create(ctx, fx.teacher.ID, rubric.NewRubric{Name: "Lab", Criteria: []rubric.Criterion{{Name: "Method", Weight: 1}}})
	require.NoError(t, err)

	t.Run("validation", func(t *testing.T) {
		_, err := fx.svc.GenerateFeedback(ctx, fx.student, assessment.FeedbackRequest{AssignmentTitle: "  "})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, "Missing required fields: assignmentTitle, assignmentText or fileData", vErr.Error())
	})

	t.Run("file with text", func(t *testing.T) {
		fx.completer.reply = "  no grade here  "
		res, err := fx.svc.GenerateFeedback(ctx, fx.teacher, assessment.FeedbackRequest{
			AssignmentTitle: "Lab 2",
			AssignmentText:  "See attached.",
			RubricID:        strings.ToUpper(r.ID),
			FileData:        "aGVsbG8gd29ybGQ=", // hello world
			FileType:        "TEXT/PLAIN",
		})
		require.NoError(t, err)
		assert.Equal(t, assessment.FeedbackResult{Feedback: "no grade here", Grade: assessment.FallbackGrade}, res)

		req := fx.completer.requests[len(fx.completer.requests)-1]
		require.Len(t, req.Parts, 2)
		assert.Contains(t, req.Parts[0].Text, "Grading rubric: Lab")
		assert.Contains(t, req.Parts[0].Text, "hello world")
		assert.Equal(t, "Additional text from the student:\nSee attached.", req.Parts[1].Text)
	})

	t.Run("rubric of another teacher", func(t *testing.T) {
		calls := len(fx.completer.requests)
		_, err := fx.svc.GenerateFeedback(ctx, fx.student, assessment.FeedbackRequest{
			AssignmentTitle: "Lab 2",
			AssignmentText:  "Results.",
			RubricID:        r.ID,
		})
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr))
		assert.Equal(t, rubric.ErrNotFound, vErr.Err)
		assert.Len(t, fx.completer.requests, calls)
	})
}
