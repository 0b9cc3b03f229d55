package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/rubric"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

type rubricAPI struct {
	svc      *rubric.Service
	usrSvc   *user.Service
	validate *validator.Validate
}

func registerRubricAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := rubricAPI{
		svc:      deps.RubricSvc,
		usrSvc:   deps.UserSvc,
		validate: deps.Validate,
	}

	rg := g.Group("/rubrics", jwt, rolesMiddleware(user.RoleTeacher))
	rg.GET("", api.query)
	rg.POST("", api.create)
	rg.GET("/:id", api.retrieve)
	rg.DELETE("/:id", api.destroy)
}

func (api *rubricAPI) create(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data rubric.NewRubric
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewRubric")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	r, err := api.svc.Create(ctx.Request().Context(), usr.ID, data)
	if err != nil {
		return errors.Wrap(err, "creating rubric")
	}
	return ctx.JSON(http.StatusCreated, r)
}

func (api *rubricAPI) query(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	rubrics, err := api.svc.Query(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "querying rubrics")
	}
	if rubrics == nil {
		rubrics = []rubric.Rubric{}
	}
	return ctx.JSON(http.StatusOK, rubrics)
}

func (api *rubricAPI) retrieve(ctx echo.Context) error {
	r, err := api.ownedRubric(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, r)
}

func (api *rubricAPI) destroy(ctx echo.Context) error {
	r, err := api.ownedRubric(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), r.ID); err != nil {
		return errors.Wrap(err, "deleting rubric")
	}
	return ctx.NoContent(http.StatusNoContent)
}

// ownedRubric returns the `:id` rubric if the user owns it or is an admin.
func (api *rubricAPI) ownedRubric(ctx echo.Context) (rubric.Rubric, error) {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return rubric.Rubric{}, errors.Wrap(err, "getting context user")
	}
	r, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return rubric.Rubric{}, errors.Wrap(err, "finding rubric")
	}
	if r.TeacherID != usr.ID && !usr.IsAdmin() {
		return rubric.Rubric{}, errHTTPNotFound
	}
	return r, nil
}
