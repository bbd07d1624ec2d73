package echoapi

import (
	"context"
	"net/http"
	"os"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/auth"
	"github.com/mahmoud01140/onlineEdu/core/course"
	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/export"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/liveexam"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const rateLimitMessage = "Too many requests from this IP, please try again in an hour!"

type (
	Deps struct {
		Conf          *core.Config
		Logger        core.Logger
		Translator    ut.Translator
		RateStore     middleware.RateLimiterStore // nil disables rate limiting
		Renderer      export.Renderer
		AuthSvc       *auth.Service
		UserSvc       *user.Service
		ExamSvc       *exam.Service
		AttendanceSvc *attendance.Service
		GroupSvc      *group.Service
		LessonSvc     *lesson.Service
		LiveExamSvc   *liveexam.Service
		CourseSvc     *course.Service
		ExportSvc     *export.Service
	}

	Server interface {
		http.Handler
		Start() error
		Stop(context.Context) error
	}

	server struct {
		address  string
		shutdown chan os.Signal
		deps     *Deps
		app      *echo.Echo
	}
)

var _ Server = (*server)(nil)

func NewServer(address string, shutdown chan os.Signal, deps *Deps) Server {
	s := &server{
		address:  address,
		shutdown: shutdown,
		deps:     deps,
		app:      echo.New(),
	}
	s.setup()
	return s
}

func (s *server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{conf.FrontendBaseURL},
		AllowCredentials: true,
	}))
	s.app.Use(middleware.Secure())
	s.app.Use(middleware.BodyLimit("5M"))

	s.app.GET("/", home)

	api := s.app.Group("/api")
	if s.deps.RateStore != nil {
		api.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
			Store: s.deps.RateStore,
			DenyHandler: func(ctx echo.Context, _ string, _ error) error {
				return echo.NewHTTPError(http.StatusTooManyRequests, rateLimitMessage)
			},
		}))
	}

	authed := authMiddleware(s.deps.AuthSvc)
	admin := requireRole(user.RoleAdmin)

	registerAuthAPI(api, authed, s.deps)
	registerUserAPI(api.Group("/users", authed, admin), s.deps.UserSvc, s.deps.GroupSvc)
	registerExamAPI(api.Group("/exams", authed), admin, s.deps.ExamSvc)
	registerGroupAPI(api.Group("/groups", authed), admin, s.deps.GroupSvc)
	registerLessonAPI(api.Group("/lessons", authed), admin, s.deps.LessonSvc)
	registerLiveExamAPI(api.Group("/liveExam", authed), admin, s.deps.LiveExamSvc)
	registerCourseAPI(api.Group("/courses"), authed, admin, s.deps.CourseSvc)
	registerStudyAPI(api.Group("/study", authed), s.deps.LessonSvc)
	registerStudyAdminAPI(api.Group("/studyAdmin", authed, admin), s.deps)
	registerExportAPI(api.Group("/export", authed, admin), s.deps.ExportSvc, s.deps.Renderer)
}

func (s *server) Start() error {
	return s.app.Start(s.address)
}

func (s *server) Stop(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *server) signalShutdown() {
	if s.shutdown != nil {
		s.shutdown <- syscall.SIGTERM
	}
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to OnlineEdu API!")
}
