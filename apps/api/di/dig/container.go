// Package dig_container wires the API dependencies.
package dig_container

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/mahmoud01140/onlineEdu/apps/api/echo"
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
	emailsvc "github.com/mahmoud01140/onlineEdu/services/email"
	logsvc "github.com/mahmoud01140/onlineEdu/services/logger"
	"github.com/mahmoud01140/onlineEdu/services/ratelimit"
	"github.com/mahmoud01140/onlineEdu/services/spreadsheet"
	"github.com/mahmoud01140/onlineEdu/storage/database"
	sqlxrepos "github.com/mahmoud01140/onlineEdu/storage/database/sqlx"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type serverParams struct {
	dig.In

	Conf          *core.Config
	Logger        core.Logger
	Translator    ut.Translator
	RateStore     middleware.RateLimiterStore
	Renderer      export.Renderer
	Shutdown      chan os.Signal
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

func newSlog(conf *core.Config, component string) *slog.Logger {
	level := slog.LevelInfo
	if conf.Debug {
		level = slog.LevelDebug
	}
	return slog.New(logsvc.NewColorHandler(os.Stdout, level)).With("component", component)
}

func newLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(newSlog(conf, "api"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	logger := logsvc.NewRollbarLogger(newSlog(conf, "db"), conf)
	logger.Enable(!conf.Debug && conf.RollbarToken != "")
	return logger
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	setUp := func() (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(conf); err != nil {
			return nil, err
		}

		db, err := database.Open(conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp()
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newValidator() (*validator.Validate, ut.Translator) {
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)
	return validate, translator
}

func newShutdownChan() chan os.Signal {
	return make(chan os.Signal, 1)
}

func newServer(p serverParams) echoapi.Server {
	return echoapi.NewServer(p.Conf.Server.Address, p.Shutdown, &echoapi.Deps{
		Conf:          p.Conf,
		Logger:        p.Logger,
		Translator:    p.Translator,
		RateStore:     p.RateStore,
		Renderer:      p.Renderer,
		AuthSvc:       p.AuthSvc,
		UserSvc:       p.UserSvc,
		ExamSvc:       p.ExamSvc,
		AttendanceSvc: p.AttendanceSvc,
		GroupSvc:      p.GroupSvc,
		LessonSvc:     p.LessonSvc,
		LiveExamSvc:   p.LiveExamSvc,
		CourseSvc:     p.CourseSvc,
		ExportSvc:     p.ExportSvc,
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	// ambient
	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newValidator))
	must(c.Provide(emailsvc.New))
	must(c.Provide(ratelimit.NewStore))
	must(c.Provide(func() export.Renderer { return spreadsheet.Renderer{} }))
	must(c.Provide(newShutdownChan))

	// storage
	must(c.Provide(newDB))
	must(c.Provide(sqlxrepos.NewTransactor, dig.As(new(core.Transactor))))
	must(c.Provide(sqlxrepos.NewUserRepository, dig.As(
		new(user.Repository),
		new(auth.UserFinder),
		new(group.UserFinder),
		new(liveexam.UserFinder),
		new(exam.ResultRecorder),
	)))
	must(c.Provide(sqlxrepos.NewGroupRepository, dig.As(new(group.Repository), new(lesson.GroupChecker))))
	must(c.Provide(sqlxrepos.NewLessonRepository, dig.As(
		new(lesson.Repository),
		new(exam.LessonFinder),
		new(attendance.LessonFinder),
	)))
	must(c.Provide(sqlxrepos.NewExamRepository, dig.As(new(exam.Repository), new(lesson.ExamCleaner))))
	must(c.Provide(sqlxrepos.NewAttendanceRepository, dig.As(new(attendance.Repository))))
	must(c.Provide(sqlxrepos.NewLiveExamRepository, dig.As(new(liveexam.Repository))))
	must(c.Provide(sqlxrepos.NewCourseRepository, dig.As(new(course.Repository))))

	// services
	must(c.Provide(auth.NewService))
	must(c.Provide(user.NewService))
	must(c.Provide(lesson.NewService))
	must(c.Provide(func(svc *lesson.Service) group.LessonCascader { return svc }))
	must(c.Provide(group.NewService))
	must(c.Provide(exam.NewService))
	must(c.Provide(attendance.NewService))
	must(c.Provide(liveexam.NewService))
	must(c.Provide(course.NewService))
	must(c.Provide(func(att *attendance.Service, users *user.Service, groups *group.Service) *export.Service {
		return export.NewService(att, users, groups)
	}))

	must(c.Provide(newServer))
	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
