package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/course"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

const contextObjectKey = "object"

var errCourseNotInCtx = errors.New("course not found in echo.Context")

type courseAPI struct {
	svc       *course.Service
	rubricSvc *rubric.Service
	usrSvc    *user.Service
	validate  *validator.Validate
}

func registerCourseAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := courseAPI{
		svc:       deps.CourseSvc,
		rubricSvc: deps.RubricSvc,
		usrSvc:    deps.UserSvc,
		validate:  deps.Validate,
	}
	teacher := rolesMiddleware(user.RoleTeacher)

	cg := g.Group("/courses", jwt)
	cg.GET("", api.query)
	cg.POST("", api.create, teacher)

	dg := cg.Group("/:id", api.courseMiddleware)
	dg.GET("", api.retrieve)
	dg.PUT("", api.update, api.ownerMiddleware)
	dg.DELETE("", api.destroy, api.ownerMiddleware)
	dg.GET("/assignments", api.queryAssignments)
	dg.POST("/assignments", api.createAssignment, api.ownerMiddleware)

	g.GET("/assignments/:id", api.retrieveAssignment, jwt)
}

func (api *courseAPI) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating course")
	}
	return ctx.JSON(http.StatusCreated, c)
}

func (api *courseAPI) query(ctx echo.Context) error {
	var filter course.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return ctx.JSON(http.StatusOK, []course.Course{})
	}
	filter.Clean()

	courses, err := api.svc.Filter(ctx.Request().Context(), filter, bindOrdering(ctx))
	if err != nil {
		return errors.Wrap(err, "filtering courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return ctx.JSON(http.StatusOK, courses)
}

func (api *courseAPI) retrieve(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseAPI) update(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}

	var data course.UpdateCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateCourse")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	c, err = api.svc.Update(ctx.Request().Context(), c, data)
	if err != nil {
		return errors.Wrap(err, "updating course")
	}
	return ctx.JSON(http.StatusOK, c)
}

func (api *courseAPI) destroy(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), c.ID); err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *courseAPI) queryAssignments(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}
	assignments, err := api.svc.QueryAssignments(ctx.Request().Context(), c.ID)
	if err != nil {
		return errors.Wrap(err, "querying assignments")
	}
	if assignments == nil {
		assignments = []course.Assignment{}
	}
	return ctx.JSON(http.StatusOK, assignments)
}

func (api *courseAPI) createAssignment(ctx echo.Context) error {
	c, err := contextCourse(ctx)
	if err != nil {
		return err
	}

	var data course.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	if err := data.Validate(ctx.Request().Context(), api.validate); err != nil {
		return err
	}
	if data.RubricID != "" {
		// the rubric must be one of the course teacher's
		r, err := api.rubricSvc.GetByID(ctx.Request().Context(), data.RubricID)
		if err != nil && errors.Cause(err) != rubric.ErrNotFound {
			return errors.Wrap(err, "finding rubric")
		}
		if err != nil || r.TeacherID != c.TeacherID {
			return core.NewValidationError(nil, core.FieldError{Field: "rubric_id", Error: "rubric not found"})
		}
	}

	a, err := api.svc.CreateAssignment(ctx.Request().Context(), c.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *courseAPI) retrieveAssignment(ctx echo.Context) error {
	a, err := api.svc.GetAssignment(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding assignment")
	}
	return ctx.JSON(http.StatusOK, a)
}

// courseMiddleware loads the course of the `:id` path param into the context.
func (api *courseAPI) courseMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		c, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
		if err != nil {
			return errors.Wrap(err, "finding course")
		}
		ctx.Set(contextObjectKey, c)
		return next(ctx)
	}
}

// ownerMiddleware only lets the course teacher and admins through.
func (api *courseAPI) ownerMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		c, err := contextCourse(ctx)
		if err != nil {
			return err
		}
		usr, err := getContextUser(ctx, api.usrSvc)
		if err != nil {
			return errors.Wrap(err, "getting context user")
		}
		if usr.ID != c.TeacherID && !usr.IsAdmin() {
			return errHTTPForbidden
		}
		return next(ctx)
	}
}

func contextCourse(ctx echo.Context) (course.Course, error) {
	c, ok := ctx.Get(contextObjectKey).(course.Course)
	if !ok {
		return course.Course{}, errors.Wrap(errCourseNotInCtx, "retrieving object from context")
	}
	return c, nil
}
