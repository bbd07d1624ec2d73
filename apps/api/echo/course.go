package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/course"
)

type courseApi struct {
	svc *course.Service
}

// registerCourseAPI mounts the catalog; listing is public.
func registerCourseAPI(g *echo.Group, authed, admin echo.MiddlewareFunc, svc *course.Service) {
	api := courseApi{svc: svc}

	g.GET("", api.query)
	g.POST("", api.create, authed, admin)
	g.DELETE("/:id", api.destroy, authed, admin)
}

func (api *courseApi) query(ctx echo.Context) error {
	courses, err := api.svc.Query(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "querying courses")
	}
	if courses == nil {
		courses = []course.Course{}
	}
	return respond(ctx, http.StatusOK, "courses", courses)
}

func (api *courseApi) create(ctx echo.Context) error {
	var data course.NewCourse
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewCourse")
	}
	c, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "course", c)
}

func (api *courseApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "Course deleted")
}
