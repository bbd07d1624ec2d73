package group_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/user"
	"github.com/mahmoud01140/onlineEdu/tests"
)

func TestService_Create(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	teacher := testutil.CreateUser(t, s.UserRepo, "Teacher", "teacher@test.eg", "", user.RoleTeacher, true)
	ali := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	hind := testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleStudent, true)

	t.Run("defaults", func(t *testing.T) {
		g, err := s.GroupSvc.Create(ctx, group.NewGroup{
			Title:        " Juz Amma ",
			Level:        group.LevelFoundation,
			InstructorID: teacher.ID,
			Students:     []string{ali.ID, hind.ID, ali.ID},
		})
		require.NoError(t, err)
		assert.Equal(t, "Juz Amma", g.Title)
		assert.Equal(t, group.DefaultMaxStudents, g.MaxStudents)
		assert.ElementsMatch(t, []string{ali.ID, hind.ID}, g.Students)

		usr, err := s.UserSvc.GetByID(ctx, ali.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{g.ID}, usr.Groups)
	})

	t.Run("over capacity", func(t *testing.T) {
		_, err := s.GroupSvc.Create(ctx, group.NewGroup{
			Title: "Tiny", Level: group.LevelMemorization, MaxStudents: 1, Students: []string{ali.ID, hind.ID},
		})
		assert.Equal(t, group.ErrGroupFull, err)
	})

	tests := []struct {
		name    string
		ng      group.NewGroup
		wantErr error
	}{
		{name: "unknown instructor", ng: group.NewGroup{Title: "G", Level: group.LevelFoundation, InstructorID: "nope"}, wantErr: group.ErrInstructorNotFound},
		{name: "unknown student", ng: group.NewGroup{Title: "G", Level: group.LevelFoundation, Students: []string{"nope"}}, wantErr: group.ErrStudentNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.GroupSvc.Create(ctx, tt.ng)
			assert.Equal(t, tt.wantErr, err)
		})
	}

	t.Run("validation", func(t *testing.T) {
		_, err := s.GroupSvc.Create(ctx, group.NewGroup{Title: "  ", Level: "expert"})
		assert.Error(t, err)
		_, err = s.GroupSvc.Create(ctx, group.NewGroup{
			Title: "G", Level: group.LevelFoundation, Schedule: group.Schedule{Days: []string{"someday"}},
		})
		assert.Error(t, err)
	})
}

func TestService_Members(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	teacher := testutil.CreateUser(t, s.UserRepo, "Teacher", "teacher@test.eg", "", user.RoleTeacher, true)
	ali := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	hind := testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleStudent, true)

	g, err := s.GroupSvc.Create(ctx, group.NewGroup{Title: "G", Level: group.LevelFoundation, InstructorID: teacher.ID, MaxStudents: 1})
	require.NoError(t, err)

	g, err = s.GroupSvc.AddStudent(ctx, g.ID, ali.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{ali.ID}, g.Students)

	t.Run("adding twice is a no-op", func(t *testing.T) {
		g, err := s.GroupSvc.AddStudent(ctx, g.ID, ali.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{ali.ID}, g.Students)
	})

	t.Run("full", func(t *testing.T) {
		_, err := s.GroupSvc.AddStudent(ctx, g.ID, hind.ID)
		assert.Equal(t, group.ErrGroupFull, err)
	})

	t.Run("unknown student", func(t *testing.T) {
		_, err := s.GroupSvc.AddStudent(ctx, g.ID, "nope")
		assert.Equal(t, group.ErrStudentNotFound, err)
	})

	t.Run("unknown group", func(t *testing.T) {
		_, err := s.GroupSvc.AddStudent(ctx, "nope", ali.ID)
		assert.Equal(t, group.ErrNotFound, err)
	})

	t.Run("detail", func(t *testing.T) {
		det, err := s.GroupSvc.Detail(ctx, g.ID)
		require.NoError(t, err)
		require.NotNil(t, det.Instructor)
		assert.Equal(t, "Teacher", det.Instructor.Name)
		require.Len(t, det.Members, 1)
		assert.Equal(t, group.Member{ID: ali.ID, Name: "Ali", Email: "ali@test.eg", Level: user.LevelBeginner}, det.Members[0])
	})

	t.Run("remove", func(t *testing.T) {
		g, err := s.GroupSvc.RemoveStudent(ctx, g.ID, ali.ID)
		require.NoError(t, err)
		assert.Empty(t, g.Students)

		_, err = s.GroupSvc.RemoveStudent(ctx, g.ID, ali.ID)
		assert.Equal(t, group.ErrStudentNotFound, err)
	})
}

func TestService_Update(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	g := testutil.CreateGroup(t, s.GroupRepo, "Group")
	strPtr := func(s string) *string { return &s }
	bPtr := func(b bool) *bool { return &b }

	got, err := s.GroupSvc.Update(ctx, g.ID, group.UpdateGroup{
		Title:    strPtr("Renamed"),
		Level:    strPtr(group.LevelMemorization),
		Schedule: &group.Schedule{Days: []string{"friday"}, Time: "17:30", Duration: 90},
		Inactive: bPtr(true),
	})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", got.Title)
	assert.Equal(t, group.LevelMemorization, got.Level)
	assert.Equal(t, []string{"friday"}, got.Schedule.Days)
	assert.True(t, got.Inactive)

	_, err = s.GroupSvc.Update(ctx, g.ID, group.UpdateGroup{Schedule: &group.Schedule{Time: "5pm"}})
	assert.Error(t, err)

	_, err = s.GroupSvc.Update(ctx, g.ID, group.UpdateGroup{InstructorID: strPtr("nope")})
	assert.Equal(t, group.ErrInstructorNotFound, err)
}

func TestService_Delete(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	ali := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	doomed := testutil.CreateGroup(t, s.GroupRepo, "Doomed", ali.ID)
	kept := testutil.CreateGroup(t, s.GroupRepo, "Kept", ali.ID)

	l1 := testutil.CreateLesson(t, s.LessonRepo, doomed.ID, "L1", time.Now())
	l2 := testutil.CreateLesson(t, s.LessonRepo, doomed.ID, "L2", time.Now())
	other := testutil.CreateLesson(t, s.LessonRepo, kept.ID, "Other", time.Now())
	quiz := testutil.CreateExam(t, s.ExamRepo, "Quiz", exam.TypeLesson, l1.ID, 1, 0)
	otherQuiz := testutil.CreateExam(t, s.ExamRepo, "Other quiz", exam.TypeLesson, other.ID, 1, 0)

	require.NoError(t, s.GroupSvc.Delete(ctx, doomed.ID))

	_, err := s.GroupSvc.GetByID(ctx, doomed.ID)
	assert.Equal(t, group.ErrNotFound, err)
	for _, id := range []string{l1.ID, l2.ID} {
		_, err = s.LessonSvc.GetByID(ctx, id)
		assert.Equal(t, lesson.ErrNotFound, err)
	}
	_, err = s.ExamSvc.GetByID(ctx, quiz.ID)
	assert.Equal(t, exam.ErrNotFound, err)

	// the other group is untouched
	_, err = s.LessonSvc.GetByID(ctx, other.ID)
	assert.NoError(t, err)
	_, err = s.ExamSvc.GetByID(ctx, otherQuiz.ID)
	assert.NoError(t, err)

	usr, err := s.UserSvc.GetByID(ctx, ali.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{kept.ID}, usr.Groups)

	assert.Equal(t, group.ErrNotFound, s.GroupSvc.Delete(ctx, doomed.ID))
}

func TestService_Stats(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	ali := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	hind := testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleStudent, true)

	testutil.CreateGroup(t, s.GroupRepo, "A", ali.ID, hind.ID)
	testutil.CreateGroup(t, s.GroupRepo, "B", ali.ID)
	_, err := s.GroupSvc.Create(ctx, group.NewGroup{Title: "C", Level: group.LevelMemorization})
	require.NoError(t, err)

	stats, err := s.GroupSvc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, []group.LevelStats{
		{Level: group.LevelFoundation, TotalGroups: 2, TotalStudents: 3, AvgStudents: 1.5},
		{Level: group.LevelMemorization, TotalGroups: 1},
	}, stats)
}
