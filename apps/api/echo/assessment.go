package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/assessment"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

type assessmentAPI struct {
	svc    *assessment.Service
	usrSvc *user.Service
}

func registerAssessmentAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := assessmentAPI{
		svc:    deps.AssessmentSvc,
		usrSvc: deps.UserSvc,
	}

	g.POST("/assess-assignment", api.assess, jwt)
	g.POST("/generate-ai-feedback", api.generateFeedback, jwt)
}

func (api *assessmentAPI) assess(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assessment.AssessRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AssessRequest")
	}

	res, err := api.svc.Assess(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "assessing assignment")
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *assessmentAPI) generateFeedback(ctx echo.Context) error {
	usr, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	var data assessment.FeedbackRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to FeedbackRequest")
	}

	res, err := api.svc.GenerateFeedback(ctx.Request().Context(), usr, data)
	if err != nil {
		return errors.Wrap(err, "generating feedback")
	}
	return ctx.JSON(http.StatusOK, res)
}
