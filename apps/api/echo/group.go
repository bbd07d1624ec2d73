package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/group"
)

type groupApi struct {
	svc *group.Service
}

type studentRequest struct {
	StudentID string `json:"studentId"`
}

func registerGroupAPI(g *echo.Group, admin echo.MiddlewareFunc, svc *group.Service) {
	api := groupApi{svc: svc}

	g.GET("", api.query)
	g.GET("/stats", api.stats)
	g.GET("/search", api.query)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, admin)
	g.PATCH("/:id", api.update, admin)
	g.DELETE("/:id", api.destroy, admin)
	g.POST("/:id/add-student", api.addStudent, admin)
	g.POST("/:id/remove-student", api.removeStudent, admin)
}

func (api *groupApi) query(ctx echo.Context) error {
	filter := &group.QueryFilter{Search: ctx.QueryParam("search"), Level: ctx.QueryParam("level")}
	filter.Clean()
	groups, err := api.svc.Query(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying groups")
	}
	if groups == nil {
		groups = []group.Group{}
	}
	return respond(ctx, http.StatusOK, "groups", groups)
}

func (api *groupApi) stats(ctx echo.Context) error {
	stats, err := api.svc.Stats(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "computing group stats")
	}
	return respond(ctx, http.StatusOK, "stats", stats)
}

func (api *groupApi) retrieve(ctx echo.Context) error {
	g, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}

func (api *groupApi) create(ctx echo.Context) error {
	var data group.NewGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewGroup")
	}
	g, err := api.svc.Create(ctx.Request().Context(), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusCreated, "group", g)
}

func (api *groupApi) update(ctx echo.Context) error {
	var data group.UpdateGroup
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateGroup")
	}
	g, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}

func (api *groupApi) destroy(ctx echo.Context) error {
	if err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return err
	}
	return respondMessage(ctx, http.StatusOK, "Group deleted")
}

func (api *groupApi) addStudent(ctx echo.Context) error {
	var data studentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentRequest")
	}
	g, err := api.svc.AddStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}

func (api *groupApi) removeStudent(ctx echo.Context) error {
	var data studentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to studentRequest")
	}
	g, err := api.svc.RemoveStudent(ctx.Request().Context(), ctx.Param("id"), data.StudentID)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", g)
}
