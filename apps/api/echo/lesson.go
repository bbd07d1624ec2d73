package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

type lessonApi struct {
	svc *lesson.Service
}

type duplicateRequest struct {
	Date *time.Time `json:"date"`
}

type resourceRef struct {
	ResourceID string `json:"resourceId"`
}

func registerLessonAPI(g *echo.Group, admin echo.MiddlewareFunc, svc *lesson.Service) {
	api := lessonApi{svc: svc}

	g.GET("", api.query)
	g.GET("/upcoming", api.upcoming)
	g.GET("/past", api.past)
	g.GET("/today", api.today)
	g.GET("/search", api.query)
	g.GET("/group/:groupId", api.queryByGroup)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, admin)
	g.PATCH("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
	g.POST("/:id/duplicate", api.duplicate, admin)
	g.POST("/:id/resources", api.addResource, admin)
	g.DELETE("/:id/resources", api.removeResource, admin)
}

func lessonList(ctx echo.Context, lessons []lesson.Lesson, err error) error {
	if err != nil {
		return err
	}
	if lessons == nil {
		lessons = []lesson.Lesson{}
	}
	return respond(ctx, http.StatusOK, "lessons", lessons)
}

func (api *lessonApi) query(ctx echo.Context) error {
	filter := &lesson.QueryFilter{GroupID: ctx.QueryParam("group"), Search: ctx.QueryParam("search")}
	var err error
	if filter.From, err = parseDate("from", ctx.QueryParam("from")); err != nil {
		return err
	}
	if filter.To, err = parseDate("to", ctx.QueryParam("to")); err != nil {
		return err
	}
	filter.Clean()
	lessons, err := api.svc.Query(ctx.Request().Context(), filter)
	return lessonList(ctx, lessons, errors.Wrap(err, "querying lessons"))
}

func (api *lessonApi) queryByGroup(ctx echo.Context) error {
	lessons, err := api.svc.QueryByGroup(ctx.Request().Context(), ctx.Param("groupId"))
	return lessonList(ctx, lessons, err)
}

func (api *lessonApi) upcoming(ctx echo.Context) error {
	lessons, err := api.svc.Upcoming(ctx.Request().Context(), ctx.QueryParam("group"), 0)
	return lessonList(ctx, lessons, err)
}

func (api *lessonApi) past(ctx echo.Context) error {
	lessons, err := api.svc.Past(ctx.Request().Context(), ctx.QueryParam("group"))
	return lessonList(ctx, lessons, err)
}

func (api *lessonApi) today(ctx echo.Context) error {
	lessons, err := api.svc.Today(ctx.Request().Context())
	return lessonList(ctx, lessons, err)
}

func (api *lessonApi) retrieve(ctx echo.Context) error {
	l, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "lesson", l)
}

func (api *lessonApi) create(ctx echo.Context) error {
	var data lesson.NewLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewLesson")
	}
	l, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "lesson", l)
}

func (api *lessonApi) update(ctx echo.Context) error {
	var data lesson.UpdateLesson
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateLesson")
	}
	l, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "lesson", l)
}

func (api *lessonApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "Lesson deleted")
}

func (api *lessonApi) duplicate(ctx echo.Context) error {
	var data duplicateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to duplicateRequest")
	}
	l, err := api.svc.Duplicate(ctx.Request().Context(), ctx.Param("id"), data.Date)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "lesson", l)
}

func (api *lessonApi) addResource(ctx echo.Context) error {
	var data lesson.NewResource
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewResource")
	}
	l, err := api.svc.AddResource(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "lesson", l)
}

func (api *lessonApi) removeResource(ctx echo.Context) error {
	var data resourceRef
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to resourceRef")
	}
	l, err := api.svc.RemoveResource(ctx.Request().Context(), ctx.Param("id"), data.ResourceID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "lesson", l)
}
