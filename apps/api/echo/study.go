package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

const upcomingLessonsLimit = 10

// registerStudyAPI mounts the student area, open to actors who passed both entry exams.
func registerStudyAPI(g *echo.Group, lessonSvc *lesson.Service) {
	g.GET("/lessons", func(ctx echo.Context) error {
		usr, err := getContextUser(ctx)
		if err != nil {
			return err
		}
		lessons, err := lessonSvc.ForStudent(ctx.Request().Context(), usr)
		return lessonList(ctx, lessons, err)
	}, requireEligibility)
}

type studyAdminApi struct {
	attendanceSvc *attendance.Service
	groupSvc      *group.Service
	lessonSvc     *lesson.Service
}

// registerStudyAdminAPI mounts the teaching dashboard. g is restricted to admins.
func registerStudyAdminAPI(g *echo.Group, deps *Deps) {
	api := studyAdminApi{attendanceSvc: deps.AttendanceSvc, groupSvc: deps.GroupSvc, lessonSvc: deps.LessonSvc}

	g.GET("/upcoming-lessons", api.upcomingLessons)
	g.GET("/group/:groupId", api.groupDetail)
	g.POST("/attendance", api.markAttendance)
	g.GET("/attendance/:lessonId", api.attendance)
	g.GET("/attendance-summary", api.attendanceSummary)
}

func (api *studyAdminApi) upcomingLessons(ctx echo.Context) error {
	lessons, err := api.lessonSvc.Upcoming(ctx.Request().Context(), "", upcomingLessonsLimit)
	return lessonList(ctx, lessons, err)
}

func (api *studyAdminApi) groupDetail(ctx echo.Context) error {
	det, err := api.groupSvc.Detail(ctx.Request().Context(), ctx.Param("groupId"))
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "group", det)
}

func (api *studyAdminApi) markAttendance(ctx echo.Context) error {
	usr, err := getContextUser(ctx)
	if err != nil {
		return err
	}
	var data attendance.MarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkRequest")
	}

	res, err := api.attendanceSvc.Mark(ctx.Request().Context(), data, usr.ID)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{
		"status":  statusSuccess,
		"message": "Attendance marked successfully",
		"data":    res,
	})
}

func (api *studyAdminApi) attendance(ctx echo.Context) error {
	rows, err := api.attendanceSvc.QueryByLesson(ctx.Request().Context(), ctx.Param("lessonId"))
	if err != nil {
		return err
	}
	if rows == nil {
		rows = []attendance.Row{}
	}
	return respond(ctx, http.StatusOK, "attendance", rows)
}

func (api *studyAdminApi) attendanceSummary(ctx echo.Context) error {
	sf := attendance.SummaryFilter{GroupID: ctx.QueryParam("groupId"), StudentID: ctx.QueryParam("studentId")}
	var err error
	if sf.From, err = parseDate("from", ctx.QueryParam("from")); err != nil {
		return err
	}
	if sf.To, err = parseDate("to", ctx.QueryParam("to")); err != nil {
		return err
	}
	sum, err := api.attendanceSvc.Summary(ctx.Request().Context(), sf)
	if err != nil {
		return err
	}
	return respond(ctx, http.StatusOK, "summary", sum)
}
