package echoapi

import (
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/submission"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

const uploadField = "file"

var errSubmissionNotInCtx = errors.New("submission not found in echo.Context")

type submissionAPI struct {
	svc           *submission.Service
	courseSvc     *course.Service
	usrSvc        *user.Service
	assessmentSvc *assessment.Service
	validate      *validator.Validate
	maxUploadSize int64
}

func registerSubmissionAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := submissionAPI{
		svc:           deps.SubmissionSvc,
		courseSvc:     deps.CourseSvc,
		usrSvc:        deps.UserSvc,
		assessmentSvc: deps.AssessmentSvc,
		validate:      deps.Validate,
		maxUploadSize: deps.Conf.Storage.MaxUploadSize,
	}

	g.GET("/assignments/:id/submissions", api.query, jwt)
	g.POST("/assignments/:id/submissions", api.create, jwt, rolesMiddleware(user.RoleStudent))

	sg := g.Group("/submissions/:id", jwt, api.submissionMiddleware)
	sg.GET("", api.retrieve)
	sg.GET("/feedback", api.queryFeedback)
}

func (api *submissionAPI) create(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	a, err := api.courseSvc.GetAssignment(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}

	var sub submission.Submission
	if strings.HasPrefix(ctx.Request().Header.Get(echo.HeaderContentType), echo.MIMEMultipartForm) {
		sub, err = api.createFile(ctx, a.ID, usr.ID)
	} else {
		var data submission.NewTextSubmission
		if err := ctx.Bind(&data); err != nil {
			return errors.Wrap(err, "binding to NewTextSubmission")
		}
		if err := data.Validate(api.validate); err != nil {
			return err
		}
		sub, err = api.svc.CreateText(reqCtx, a.ID, usr.ID, data)
	}
	if err != nil {
		return errors.Wrap(err, "creating submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *submissionAPI) createFile(ctx echo.Context, assignmentID, studentID string) (submission.Submission, error) {
	fh, err := ctx.FormFile(uploadField)
	if err != nil {
		return submission.Submission{}, core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "this field is required"})
	}
	if api.maxUploadSize > 0 && fh.Size > api.maxUploadSize {
		return submission.Submission{}, core.NewValidationError(nil, core.FieldError{Field: uploadField, Error: "file is too large"})
	}

	f, err := fh.Open()
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "opening uploaded file")
	}
	defer f.Close() //nolint:errcheck

	fileType := fh.Header.Get(echo.HeaderContentType)
	if fileType == "" {
		fileType = echo.MIMEOctetStream
	}
	return api.svc.CreateFile(ctx.Request().Context(), assignmentID, studentID, fh.Filename, fileType, f)
}

func (api *submissionAPI) query(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	teacherID, err := api.courseSvc.TeacherOf(reqCtx, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding course teacher")
	}

	filter := submission.QueryFilter{AssignmentID: ctx.Param("id")}
	switch {
	case usr.IsAdmin() || usr.ID == teacherID:
	case usr.IsStudent():
		filter.StudentID = usr.ID
	default:
		return errHTTPForbidden
	}

	subs, err := api.svc.Filter(reqCtx, filter)
	if err != nil {
		return errors.Wrap(err, "filtering submissions")
	}
	if subs == nil {
		subs = []submission.Submission{}
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *submissionAPI) retrieve(ctx echo.Context) error {
	sub, err := contextSubmission(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sub)
}

func (api *submissionAPI) queryFeedback(ctx echo.Context) error {
	sub, err := contextSubmission(ctx)
	if err != nil {
		return err
	}
	fbs, err := api.assessmentSvc.QueryFeedback(ctx.Request().Context(), sub.ID)
	if err != nil {
		return errors.Wrap(err, "querying feedback")
	}
	if fbs == nil {
		fbs = []assessment.Feedback{}
	}
	return ctx.JSON(http.StatusOK, fbs)
}

// submissionMiddleware loads the submission into the context if the user is its student,
// the course teacher or an admin; anyone else gets a 404.
func (api *submissionAPI) submissionMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		reqCtx := ctx.Request().Context()
		usr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		sub, err := api.svc.GetByID(reqCtx, ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding submission")
		}

		if !(usr.IsAdmin() || usr.ID == sub.StudentID) {
			teacherID, err := api.courseSvc.TeacherOf(reqCtx, sub.AssignmentID)
			if err != nil {
				return errors.Wrap(err, "finding course teacher")
			}
			if usr.ID != teacherID {
				return errHTTPNotFound
			}
		}
		ctx.Set(contextObjectKey, sub)
		return next(ctx)
	}
}

func contextSubmission(ctx echo.Context) (submission.Submission, error) {
	sub, ok := ctx.Get(contextObjectKey).(submission.Submission)
	if !ok {
		return submission.Submission{}, errors.Wrap(errSubmissionNotInCtx, "retrieving object from context")
	}
	return sub, nil
}
