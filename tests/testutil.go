// Package testutil builds in-memory service stacks and fixtures for tests.
package testutil

import (
	"context"
	"fmt"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"

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
	inmemdb "github.com/mahmoud01140/onlineEdu/storage/database/inmem"
)

// Stack is a full set of services over a fresh in-memory database.
type Stack struct {
	Conf       *core.Config
	Validate   *validator.Validate
	Translator ut.Translator
	Mail       *emailsvc.ConsoleService

	UserRepo       user.Repository
	GroupRepo      group.Repository
	LessonRepo     lesson.Repository
	ExamRepo       exam.Repository
	AttendanceRepo attendance.Repository
	LiveExamRepo   liveexam.Repository
	CourseRepo     course.Repository

	AuthSvc       *auth.Service
	UserSvc       *user.Service
	GroupSvc      *group.Service
	LessonSvc     *lesson.Service
	ExamSvc       *exam.Service
	AttendanceSvc *attendance.Service
	LiveExamSvc   *liveexam.Service
	CourseSvc     *course.Service
	ExportSvc     *export.Service
}

func NewStack() *Stack {
	conf := core.NewTestConfig()
	core.ParseEmailTemplates(conf, core.NopLogger{})
	validate, translator := core.NewValidator()
	user.InitValidators(validate, translator)

	db := inmemdb.Open()
	tx := inmemdb.Transactor{}
	s := &Stack{
		Conf:           conf,
		Validate:       validate,
		Translator:     translator,
		Mail:           emailsvc.NewConsoleServiceMock(conf),
		UserRepo:       inmemdb.NewUserRepository(db),
		GroupRepo:      inmemdb.NewGroupRepository(db),
		LessonRepo:     inmemdb.NewLessonRepository(db),
		ExamRepo:       inmemdb.NewExamRepository(db),
		AttendanceRepo: inmemdb.NewAttendanceRepository(db),
		LiveExamRepo:   inmemdb.NewLiveExamRepository(db),
		CourseRepo:     inmemdb.NewCourseRepository(db),
	}

	s.AuthSvc = auth.NewService(conf, s.UserRepo)
	s.UserSvc = user.NewService(conf, s.UserRepo, s.Mail, validate)
	s.LessonSvc = lesson.NewService(s.LessonRepo, s.GroupRepo, s.ExamRepo, tx, validate)
	s.GroupSvc = group.NewService(s.GroupRepo, s.UserRepo, s.LessonSvc, tx, validate)
	s.ExamSvc = exam.NewService(conf, s.ExamRepo, s.UserRepo, s.LessonRepo, tx, s.Mail)
	s.AttendanceSvc = attendance.NewService(s.AttendanceRepo, s.LessonRepo, tx, validate)
	s.LiveExamSvc = liveexam.NewService(s.LiveExamRepo, s.UserRepo, validate)
	s.CourseSvc = course.NewService(s.CourseRepo, validate)
	s.ExportSvc = export.NewService(s.AttendanceSvc, s.UserSvc, s.GroupSvc)
	return s
}

// CreateUser stores an active or inactive user of role. An empty pwd leaves the user without password.
func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, email, pwd, role string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	prof, err := user.EmptyProfile(role)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	usr := user.User{
		ActorCore: user.ActorCore{
			Name:      name,
			Email:     email,
			Role:      role,
			Level:     user.LevelBeginner,
			IsActive:  isActive,
			CreatedAt: tstamp,
			UpdatedAt: tstamp,
		},
		Profile: prof,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err = repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

// CreateEligibleStudent stores an active student who passed both entry exams.
func CreateEligibleStudent(t *testing.T, repo user.Repository, name, email string) user.User {
	t.Helper()
	usr := CreateUser(t, repo, name, email, "", user.RoleStudent, true)
	usr.PassedLevelExam = true
	usr.PassedLiveExam = true
	usr, err := repo.UpdateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateEligibleStudent() failed: %v", err)
	}
	return usr
}

func CreateGroup(t *testing.T, repo group.Repository, title string, students ...string) group.Group {
	t.Helper()
	now := time.Now().UTC()
	g, err := repo.CreateGroup(context.Background(), group.Group{
		Title:       title,
		Level:       group.LevelFoundation,
		MaxStudents: group.DefaultMaxStudents,
		Schedule:    group.Schedule{Days: []string{}},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	for _, id := range students {
		if err := repo.AddStudent(context.Background(), g.ID, id); err != nil {
			t.Fatalf("CreateGroup() failed: %v", err)
		}
	}
	g, err = repo.GetGroup(context.Background(), g.ID)
	if err != nil {
		t.Fatalf("CreateGroup() failed: %v", err)
	}
	return g
}

func CreateLesson(t *testing.T, repo lesson.Repository, groupID, title string, date time.Time) lesson.Lesson {
	t.Helper()
	now := time.Now().UTC()
	l, err := repo.CreateLesson(context.Background(), lesson.Lesson{
		Title:       title,
		Description: title + " description",
		GroupID:     groupID,
		Date:        date.UTC(),
		Resources:   []lesson.Resource{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		t.Fatalf("CreateLesson() failed: %v", err)
	}
	return l
}

// Questions returns one valid question per correct answer index.
func Questions(correct ...int) []exam.Question {
	qs := make([]exam.Question, 0, len(correct))
	for i, c := range correct {
		qs = append(qs, exam.Question{
			Question:      fmt.Sprintf("Question %d?", i+1),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: c,
		})
	}
	return qs
}

// CreateExam stores an exam straight through the repository.
func CreateExam(t *testing.T, repo exam.Repository, title, examType, lessonID string, passingScore int, correct ...int) exam.Exam {
	t.Helper()
	now := time.Now().UTC()
	e, err := repo.CreateExam(context.Background(), exam.Exam{
		Title:        title,
		ExamType:     examType,
		LessonID:     lessonID,
		Questions:    Questions(correct...),
		PassingScore: passingScore,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("CreateExam() failed: %v", err)
	}
	return e
}
