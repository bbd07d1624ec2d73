package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/liveexam"
)

type liveExamApi struct {
	svc *liveexam.Service
}

func registerLiveExamAPI(g *echo.Group, admin echo.MiddlewareFunc, svc *liveexam.Service) {
	api := liveExamApi{svc: svc}

	g.GET("", api.query)
	g.GET("/upcoming", api.upcoming)
	g.GET("/:id", api.retrieve)
	g.POST("/:id/add-user", api.addUser)

	g.POST("/create", api.create, admin)
	g.PUT("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
}

func liveExamList(ctx echo.Context, exams []liveexam.LiveExam, err error) error {
	if err != nil {
		return errors.Wrap(err, "querying live exams")
	}
	if exams == nil {
		exams = []liveexam.LiveExam{}
	}
	return respond(ctx, http.StatusOK, "liveExams", exams)
}

func (api *liveExamApi) query(ctx echo.Context) error {
	exams, err := api.svc.Query(ctx.Request().Context())
	return liveExamList(ctx, exams, err)
}

func (api *liveExamApi) upcoming(ctx echo.Context) error {
	exams, err := api.svc.Upcoming(ctx.Request().Context())
	return liveExamList(ctx, exams, err)
}

func (api *liveExamApi) retrieve(ctx echo.Context) error {
	le, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "liveExam", le)
}

func (api *liveExamApi) create(ctx echo.Context) error {
	var data liveexam.NewLiveExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLiveExam")
	}
	le, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "liveExam", le)
}

func (api *liveExamApi) update(ctx echo.Context) error {
	var data liveexam.UpdateLiveExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLiveExam")
	}
	le, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "liveExam", le)
}

func (api *liveExamApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "Live exam deleted")
}

// addUser registers the actor for the live exam.
func (api *liveExamApi) addUser(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	le, err := api.svc.AddUser(ctx.Request().Context(), ctx.Param("id"), usr.ID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "liveExam", le)
}
