package echoapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/export"
)

type exportApi struct {
	svc      *export.Service
	renderer export.Renderer
}

// registerExportAPI mounts the document downloads. g is restricted to admins.
func registerExportAPI(g *echo.Group, svc *export.Service, renderer export.Renderer) {
	api := exportApi{svc: svc, renderer: renderer}

	g.GET("/attendance", api.attendance)
	g.GET("/users", api.users)
}

func (api *exportApi) attendance(ctx echo.Context) error {
	filter := export.AttendanceFilter{
		GroupID:   ctx.QueryParam("groupId"),
		StudentID: ctx.QueryParam("studentId"),
		Status:    ctx.QueryParam("status"),
	}
	var err error
	if filter.StartDate, err = parseDate("startDate", ctx.QueryParam("startDate")); err != nil {
		return err
	}
	if filter.EndDate, err = parseDate("endDate", ctx.QueryParam("endDate")); err != nil {
		return err
	}

	rep, err := api.svc.Attendance(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building attendance report")
	}
	var buf bytes.Buffer
	if err := api.renderer.RenderAttendance(&buf, rep); err != nil {
		return errors.Wrap(err, "rendering attendance report")
	}
	name := "attendance_" + rep.Summary.GeneratedAt.Format("2006-01-02") + api.renderer.FileExt()
	return api.send(ctx, name, buf.Bytes())
}

func (api *exportApi) users(ctx echo.Context) error {
	filter, err := bindUserFilter(ctx)
	if err != nil {
		return err
	}
	rows, err := api.svc.Users(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "building users report")
	}
	var buf bytes.Buffer
	if err := api.renderer.RenderUsers(&buf, rows); err != nil {
		return errors.Wrap(err, "rendering users report")
	}
	return api.send(ctx, "users"+api.renderer.FileExt(), buf.Bytes())
}

func (api *exportApi) send(ctx echo.Context, filename string, data []byte) error {
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", filename))
	return ctx.Blob(http.StatusOK, api.renderer.ContentType(), data)
}
