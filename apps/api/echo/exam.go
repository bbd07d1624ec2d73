package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/exam"
)

// SubmitRequest carries one answer index per question; null leaves a question unanswered.
type SubmitRequest struct {
	Answers []*int `json:"answers"`
}

func (sr SubmitRequest) indexes() []int {
	answers := make([]int, len(sr.Answers))
	for i, a := range sr.Answers {
		if a == nil {
			answers[i] = -1
			continue
		}
		answers[i] = *a
	}
	return answers
}

type examApi struct {
	svc *exam.Service
}

func registerExamAPI(g *echo.Group, admin echo.MiddlewareFunc, svc *exam.Service) {
	api := examApi{svc: svc}

	g.GET("", api.query)
	g.GET("/lesson/:lessonId", api.queryByLesson)
	g.GET("/:type", api.retrieveByType)
	g.POST("/:id/submit", api.submit)

	g.POST("", api.create, admin)
	g.PUT("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
}

func (api *examApi) query(ctx echo.Context) error {
	filter := &exam.QueryFilter{ExamType: ctx.QueryParam("examType"), LessonID: ctx.QueryParam("lesson")}
	exams, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return respond(ctx, http.StatusOK, "exams", exams)
}

func (api *examApi) queryByLesson(ctx echo.Context) error {
	exams, err := api.svc.QueryByLesson(ctx.Request().Context(), ctx.Param("lessonId"))
	if err != nil {
		return err
	}
	if exams == nil {
		exams = []exam.Exam{}
	}
	return respond(ctx, http.StatusOK, "exams", exams)
}

func (api *examApi) retrieveByType(ctx echo.Context) error {
	e, err := api.svc.GetByType(ctx.Request().Context(), ctx.Param("type"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "exam", e)
}

func (api *examApi) create(ctx echo.Context) error {
	var data exam.NewExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewExam")
	}
	e, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "exam", e)
}

func (api *examApi) update(ctx echo.Context) error {
	var data exam.UpdateExam
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateExam")
	}
	e, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "exam", e)
}

func (api *examApi) destroy(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"), usr.ID); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "Exam deleted")
}

func (api *examApi) submit(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data SubmitRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SubmitRequest")
	}

	rep, err := api.svc.Submit(ctx.Request().Context(), ctx.Param("id"), usr.ID, data.indexes())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"status": statusSuccess, "data": rep})
}
