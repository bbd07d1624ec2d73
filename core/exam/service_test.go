package exam_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/user"
	"github.com/mahmoud01140/onlineEdu/tests"
)

func validationMessage(t *testing.T, err error) string {
	t.Helper()
	vErr, ok := errors.Cause(err).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T (%v)", err, err)
	require.Len(t, vErr.Fields, 1)
	return vErr.Fields[0].Error
}

func TestService_Create_validation(t *testing.T) {
	s := testutil.NewStack()
	grp := testutil.CreateGroup(t, s.GroupRepo, "Group")
	lsn := testutil.CreateLesson(t, s.LessonRepo, grp.ID, "Lesson", time.Now())

	valid := func() exam.NewExam {
		return exam.NewExam{Title: "Placement", ExamType: exam.TypeStudent, Questions: testutil.Questions(0, 1, 2), PassingScore: 2}
	}

	tests := []struct {
		name    string
		mutate  func(ne *exam.NewExam)
		wantMsg string
	}{
		{name: "title", mutate: func(ne *exam.NewExam) { ne.Title = "  " }, wantMsg: "title is required"},
		{
			name:    "type",
			mutate:  func(ne *exam.NewExam) { ne.ExamType = "quiz" },
			wantMsg: "examType must be one of: student, teacher, elder, lesson",
		},
		{
			name:    "lesson exam without lesson",
			mutate:  func(ne *exam.NewExam) { ne.ExamType = exam.TypeLesson },
			wantMsg: "lesson is required for lesson exams",
		},
		{name: "no questions", mutate: func(ne *exam.NewExam) { ne.Questions = nil }, wantMsg: "at least one question is required"},
		{
			name:    "question text",
			mutate:  func(ne *exam.NewExam) { ne.Questions[1].Question = "" },
			wantMsg: "question 2: text is required",
		},
		{
			name:    "options count",
			mutate:  func(ne *exam.NewExam) { ne.Questions[0].Options = []string{"a", "b", "c"} },
			wantMsg: "question 1: exactly 4 options are required",
		},
		{
			name:    "empty option",
			mutate:  func(ne *exam.NewExam) { ne.Questions[2].Options[3] = " " },
			wantMsg: "question 3: option 4 cannot be empty",
		},
		{
			name:    "correct answer",
			mutate:  func(ne *exam.NewExam) { ne.Questions[0].CorrectAnswer = 4 },
			wantMsg: "question 1: correctAnswer must be between 0 and 3",
		},
		{name: "passing score too high", mutate: func(ne *exam.NewExam) { ne.PassingScore = 4 }, wantMsg: "passingScore must be between 1 and 3"},
		{name: "passing score zero", mutate: func(ne *exam.NewExam) { ne.PassingScore = 0 }, wantMsg: "passingScore must be between 1 and 3"},
		{
			name: "first problem wins",
			mutate: func(ne *exam.NewExam) {
				ne.Questions[0].Question = ""
				ne.PassingScore = 0
			},
			wantMsg: "question 1: text is required",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ne := valid()
			tt.mutate(&ne)
			_, err := s.ExamSvc.Create(context.Background(), ne)
			assert.Equal(t, tt.wantMsg, validationMessage(t, err))
		})
	}

	t.Run("passing score equal to question count", func(t *testing.T) {
		ne := valid()
		ne.ExamType = exam.TypeTeacher
		ne.PassingScore = 3
		e, err := s.ExamSvc.Create(context.Background(), ne)
		require.NoError(t, err)
		assert.NotEmpty(t, e.ID)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		ne := valid()
		ne.ExamType = exam.TypeLesson
		ne.LessonID = "nope"
		_, err := s.ExamSvc.Create(context.Background(), ne)
		assert.Equal(t, lesson.ErrNotFound, errors.Cause(err))
	})

	t.Run("lesson dropped from level exams", func(t *testing.T) {
		ne := valid()
		ne.ExamType = exam.TypeElder
		ne.LessonID = lsn.ID
		e, err := s.ExamSvc.Create(context.Background(), ne)
		require.NoError(t, err)
		assert.Empty(t, e.LessonID)
	})
}

func TestService_Create_multiplicity(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	grp := testutil.CreateGroup(t, s.GroupRepo, "Group")
	lsn := testutil.CreateLesson(t, s.LessonRepo, grp.ID, "Lesson", time.Now())

	ne := exam.NewExam{Title: "Placement", ExamType: exam.TypeStudent, Questions: testutil.Questions(1), PassingScore: 1}
	_, err := s.ExamSvc.Create(ctx, ne)
	require.NoError(t, err)

	_, err = s.ExamSvc.Create(ctx, ne)
	assert.Equal(t, exam.ErrDuplicateType, err)

	le := exam.NewExam{Title: "Quiz", ExamType: exam.TypeLesson, LessonID: lsn.ID, Questions: testutil.Questions(1), PassingScore: 1}
	for i := 0; i < 2; i++ {
		_, err = s.ExamSvc.Create(ctx, le)
		require.NoError(t, err)
	}
	exams, err := s.ExamSvc.QueryByLesson(ctx, lsn.ID)
	require.NoError(t, err)
	assert.Len(t, exams, 2)

	_, err = s.ExamSvc.GetByType(ctx, exam.TypeLesson)
	assert.Equal(t, exam.ErrNotFound, err)
	e, err := s.ExamSvc.GetByType(ctx, "STUDENT")
	require.NoError(t, err)
	assert.Equal(t, "Placement", e.Title)
}

func TestService_Update(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	student := testutil.CreateExam(t, s.ExamRepo, "Student", exam.TypeStudent, "", 2, 0, 1, 2)
	testutil.CreateExam(t, s.ExamRepo, "Teacher", exam.TypeTeacher, "", 1, 0)

	intPtr := func(i int) *int { return &i }
	strPtr := func(s string) *string { return &s }

	t.Run("passing score is checked against questions", func(t *testing.T) {
		_, err := s.ExamSvc.Update(ctx, student.ID, exam.UpdateExam{PassingScore: intPtr(4)})
		assert.Equal(t, "passingScore must be between 1 and 3", validationMessage(t, err))
	})

	t.Run("shrinking questions below passing score", func(t *testing.T) {
		qs := testutil.Questions(3)
		_, err := s.ExamSvc.Update(ctx, student.ID, exam.UpdateExam{Questions: &qs})
		assert.Equal(t, "passingScore must be between 1 and 1", validationMessage(t, err))
	})

	t.Run("type taken", func(t *testing.T) {
		_, err := s.ExamSvc.Update(ctx, student.ID, exam.UpdateExam{ExamType: strPtr(exam.TypeTeacher)})
		assert.Equal(t, exam.ErrDuplicateType, err)
	})

	t.Run("ok", func(t *testing.T) {
		e, err := s.ExamSvc.Update(ctx, student.ID, exam.UpdateExam{Title: strPtr(" Placement "), PassingScore: intPtr(3)})
		require.NoError(t, err)
		assert.Equal(t, "Placement", e.Title)
		assert.Equal(t, 3, e.PassingScore)
		assert.Len(t, e.Questions, 3)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.ExamSvc.Update(ctx, "nope", exam.UpdateExam{})
		assert.Equal(t, exam.ErrNotFound, err)
	})
}

func TestScore(t *testing.T) {
	e := exam.Exam{ID: "e", Questions: testutil.Questions(2, 0, 3), PassingScore: 2}

	tests := []struct {
		name       string
		answers    []int
		wantScore  int
		wantPassed bool
		wantRight  []bool
	}{
		{name: "all right", answers: []int{2, 0, 3}, wantScore: 3, wantPassed: true, wantRight: []bool{true, true, true}},
		{name: "one wrong", answers: []int{2, 1, 3}, wantScore: 2, wantPassed: true, wantRight: []bool{true, false, true}},
		{name: "below passing", answers: []int{2, 1, 1}, wantScore: 1, wantRight: []bool{true, false, false}},
		{name: "missing answers", answers: []int{2}, wantScore: 1, wantRight: []bool{true, false, false}},
		{name: "unanswered and out of range", answers: []int{-1, 9, 3}, wantScore: 1, wantRight: []bool{false, false, true}},
		{name: "no answers", wantRight: []bool{false, false, false}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rep := exam.Score(e, tt.answers)
			assert.Equal(t, tt.wantScore, rep.Score)
			assert.Equal(t, tt.wantPassed, rep.IsPassed)
			assert.Equal(t, 3, rep.TotalQuestions)
			assert.Equal(t, 2, rep.PassingScore)
			require.Len(t, rep.Results, 3)
			for i, res := range rep.Results {
				assert.Equal(t, tt.wantRight[i], res.IsCorrect, "question %d", i+1)
				assert.Equal(t, e.Questions[i].CorrectAnswer, res.CorrectAnswer)
			}
		})
	}
}

func TestService_Submit(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	grp := testutil.CreateGroup(t, s.GroupRepo, "Group")
	lsn := testutil.CreateLesson(t, s.LessonRepo, grp.ID, "Lesson", time.Now())
	level := testutil.CreateExam(t, s.ExamRepo, "Placement", exam.TypeStudent, "", 3, 2, 0, 3)
	quiz := testutil.CreateExam(t, s.ExamRepo, "Quiz", exam.TypeLesson, lsn.ID, 1, 1)

	t.Run("failed level exam still sets the flag", func(t *testing.T) {
		usr := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
		rep, err := s.ExamSvc.Submit(ctx, level.ID, usr.ID, []int{2, 1, 3})
		require.NoError(t, err)
		assert.Equal(t, 2, rep.Score)
		assert.False(t, rep.IsPassed)

		usr, err = s.UserSvc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, usr.PassedLevelExam)
		require.Len(t, usr.Exams, 1)
		assert.Equal(t, level.ID, usr.Exams[0].ExamID)
		assert.Equal(t, 2, usr.Exams[0].Result)
	})

	t.Run("lesson exam leaves the flag alone", func(t *testing.T) {
		usr := testutil.CreateUser(t, s.UserRepo, "Omar", "omar@test.eg", "", user.RoleStudent, true)
		rep, err := s.ExamSvc.Submit(ctx, quiz.ID, usr.ID, []int{1})
		require.NoError(t, err)
		assert.True(t, rep.IsPassed)

		usr, err = s.UserSvc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.False(t, usr.PassedLevelExam)
	})

	t.Run("second submission is rejected", func(t *testing.T) {
		usr := testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleStudent, true)
		_, err := s.ExamSvc.Submit(ctx, quiz.ID, usr.ID, []int{0})
		require.NoError(t, err)
		_, err = s.ExamSvc.Submit(ctx, quiz.ID, usr.ID, []int{1})
		assert.Equal(t, exam.ErrAlreadyTaken, err)

		usr, err = s.UserSvc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		require.Len(t, usr.Exams, 1)
		assert.Equal(t, 0, usr.Exams[0].Result)
	})

	t.Run("concurrent submissions record once", func(t *testing.T) {
		usr := testutil.CreateUser(t, s.UserRepo, "Zaid", "zaid@test.eg", "", user.RoleStudent, true)
		const n = 10
		var (
			wg   sync.WaitGroup
			mu   sync.Mutex
			errs []error
		)
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.ExamSvc.Submit(ctx, quiz.ID, usr.ID, []int{1})
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}()
		}
		wg.Wait()

		var ok, taken int
		for _, err := range errs {
			switch err {
			case nil:
				ok++
			case exam.ErrAlreadyTaken:
				taken++
			}
		}
		assert.Equal(t, 1, ok)
		assert.Equal(t, n-1, taken)

		usr, err := s.UserSvc.GetByID(ctx, usr.ID)
		require.NoError(t, err)
		assert.Len(t, usr.Exams, 1)
	})

	t.Run("unknown exam", func(t *testing.T) {
		_, err := s.ExamSvc.Submit(ctx, "nope", "nope", nil)
		assert.Equal(t, exam.ErrNotFound, err)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := s.ExamSvc.Submit(ctx, quiz.ID, "nope", nil)
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestService_Delete(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	e := testutil.CreateExam(t, s.ExamRepo, "Placement", exam.TypeElder, "", 1, 0)
	admin := testutil.CreateUser(t, s.UserRepo, "Admin", "admin@test.eg", "", user.RoleAdmin, true)
	elder := testutil.CreateUser(t, s.UserRepo, "Elder", "elder@test.eg", "", user.RoleElder, true)

	for _, id := range []string{admin.ID, elder.ID} {
		_, err := s.ExamSvc.Submit(ctx, e.ID, id, []int{0})
		require.NoError(t, err)
	}

	require.NoError(t, s.ExamSvc.Delete(ctx, e.ID, admin.ID))

	_, err := s.ExamSvc.GetByID(ctx, e.ID)
	assert.Equal(t, exam.ErrNotFound, err)

	got, err := s.UserSvc.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Exams)

	got, err = s.UserSvc.GetByID(ctx, elder.ID)
	require.NoError(t, err)
	assert.Len(t, got.Exams, 1)

	assert.Equal(t, exam.ErrNotFound, s.ExamSvc.Delete(ctx, e.ID, admin.ID))
}
