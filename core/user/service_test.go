package user_test

import (
	"context"
	"encoding/json"
	"sort"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
	"github.com/mahmoud01140/onlineEdu/tests"
)

func newStudent() *user.NewStudent {
	return &user.NewStudent{
		NewActor: user.NewActor{
			Name:     "Yusuf Ali",
			Email:    " Yusuf@Test.EG ",
			Password: "qw3rty!9",
			Phone:    "0100000000",
			Age:      12,
			Address:  "12 Nile street, Cairo",
		},
		StudentProfile: user.StudentProfile{
			Memorization: user.Memorization{
				AvailableTime:      "evenings",
				MemorizedAmount:    "3 juz",
				DailyMemorization:  "1 page",
				DailyReview:        "2 pages",
				DailyRecitation:    "1 juz",
				CanUseTelegramZoom: "yes",
			},
			Grade:           "6",
			ParentPhone:     "0111111111",
			ParentJob:       "engineer",
			PlanFinishQuran: "2 years",
		},
	}
}

// failedFields returns the sorted field paths of a validation failure.
func failedFields(t *testing.T, s *testutil.Stack, err error) []string {
	t.Helper()
	vErr, ok := errors.Cause(core.TranslateValidationErrors(err, s.Translator)).(*core.ValidationError)
	require.True(t, ok, "want *core.ValidationError, got %T (%v)", err, err)
	flds := make([]string, 0, len(vErr.Fields))
	for _, f := range vErr.Fields {
		flds = append(flds, f.Field)
	}
	sort.Strings(flds)
	return flds
}

func TestService_Register(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()

	t.Run("student", func(t *testing.T) {
		usr, err := s.UserSvc.Register(ctx, newStudent())
		require.NoError(t, err)
		assert.NotEmpty(t, usr.ID)
		assert.Equal(t, "yusuf@test.eg", usr.Email)
		assert.Equal(t, user.RoleStudent, usr.Role)
		assert.Equal(t, user.LevelBeginner, usr.Level)
		assert.True(t, usr.IsActive)
		assert.False(t, usr.PassedLevelExam)
		assert.NoError(t, usr.CheckPassword("qw3rty!9"))

		prof, ok := usr.Profile.(*user.StudentProfile)
		require.True(t, ok)
		assert.Equal(t, "0111111111", prof.ParentPhone)

		sent := s.Mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Equal(t, "yusuf@test.eg", sent[0].To[0].Address)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.UserSvc.Register(ctx, newStudent())
		assert.Equal(t, user.ErrEmailExists, err)
	})

	t.Run("student fields", func(t *testing.T) {
		reg := newStudent()
		reg.Email = "other@test.eg"
		reg.Age = 0
		reg.ParentPhone = ""
		reg.DailyReview = ""
		reg.CanUseTelegramZoom = "maybe"
		_, err := s.UserSvc.Register(ctx, reg)
		assert.Equal(t, []string{"age", "canUseTelegramZoom", "dailyReview", "parentPhone"}, failedFields(t, s, err))
	})

	t.Run("elder address length", func(t *testing.T) {
		reg := &user.NewElder{
			NewActor: user.NewActor{Name: "Elder", Email: "elder@test.eg", Password: "pa55w0rd!", Phone: "012", Address: "Nil"},
			ElderProfile: user.ElderProfile{Memorization: user.Memorization{
				AvailableTime: "x", MemorizedAmount: "x", DailyMemorization: "x", DailyReview: "x", DailyRecitation: "x",
			}},
		}
		_, err := s.UserSvc.Register(ctx, reg)
		assert.Equal(t, []string{"address"}, failedFields(t, s, err))
	})

	t.Run("password policy", func(t *testing.T) {
		tests := []struct {
			name string
			pwd  string
		}{
			{name: "too short", pwd: "abc"},
			{name: "whitespace", pwd: "abc def ghi"},
			{name: "similar to email", pwd: "admin.root"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				reg := &user.NewAdmin{NewActor: user.NewActor{Name: "Root", Email: "admin.root@test.eg", Password: tt.pwd}}
				_, err := s.UserSvc.Register(ctx, reg)
				assert.Equal(t, []string{"password"}, failedFields(t, s, err))
			})
		}
	})

	t.Run("admin needs no profile", func(t *testing.T) {
		reg := &user.NewAdmin{NewActor: user.NewActor{Name: "Root", Email: "root@test.eg", Password: "x9!kT#e2"}}
		usr, err := s.UserSvc.Register(ctx, reg)
		require.NoError(t, err)
		assert.True(t, usr.IsAdmin())
		assert.IsType(t, &user.AdminProfile{}, usr.Profile)
	})
}

func TestService_Update(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	usr := testutil.CreateUser(t, s.UserRepo, "Teacher", "teacher@test.eg", "secret1", user.RoleTeacher, true)

	strPtr := func(s string) *string { return &s }

	t.Run("invalid level", func(t *testing.T) {
		_, err := s.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Level: strPtr("expert")})
		assert.Equal(t, []string{"level"}, failedFields(t, s, err))
	})

	t.Run("profile of the current role", func(t *testing.T) {
		got, err := s.UserSvc.Update(ctx, usr.ID, user.UpdateUser{
			Name:    strPtr(" Sheikh Ahmad "),
			Level:   strPtr(user.LevelAdvanced),
			Profile: json.RawMessage(`{"education":"Azhar","hasIjaza":"yes"}`),
		})
		require.NoError(t, err)
		assert.Equal(t, "Sheikh Ahmad", got.Name)
		assert.Equal(t, user.LevelAdvanced, got.Level)
		prof, ok := got.Profile.(*user.TeacherProfile)
		require.True(t, ok)
		assert.Equal(t, "Azhar", prof.Education)
	})

	t.Run("invalid profile value", func(t *testing.T) {
		_, err := s.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Profile: json.RawMessage(`{"hasIjaza":"perhaps"}`)})
		assert.Equal(t, []string{"hasIjaza"}, failedFields(t, s, err))
	})

	t.Run("role change resets profile", func(t *testing.T) {
		got, err := s.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Role: strPtr(user.RoleElder)})
		require.NoError(t, err)
		assert.Equal(t, user.RoleElder, got.Role)
		assert.Equal(t, &user.ElderProfile{}, got.Profile)
	})

	t.Run("password", func(t *testing.T) {
		got, err := s.UserSvc.Update(ctx, usr.ID, user.UpdateUser{Password: strPtr("n3wpassword")})
		require.NoError(t, err)
		assert.NoError(t, got.CheckPassword("n3wpassword"))
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.UserSvc.Update(ctx, "nope", user.UpdateUser{})
		assert.Equal(t, user.ErrNotFound, err)
	})
}

func TestService_ToggleActive(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	usr := testutil.CreateUser(t, s.UserRepo, "Student", "s@test.eg", "", user.RoleStudent, true)

	got, err := s.UserSvc.ToggleActive(ctx, usr.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)

	got, err = s.UserSvc.ToggleActive(ctx, usr.ID)
	require.NoError(t, err)
	assert.True(t, got.IsActive)
}

func TestService_MarkLiveExamPassed(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	usr := testutil.CreateUser(t, s.UserRepo, "Student", "s@test.eg", "", user.RoleStudent, true)

	for i := 0; i < 2; i++ {
		got, err := s.UserSvc.MarkLiveExamPassed(ctx, usr.ID)
		require.NoError(t, err)
		assert.True(t, got.PassedLiveExam)
	}
	_, err := s.UserSvc.MarkLiveExamPassed(ctx, "nope")
	assert.Equal(t, user.ErrNotFound, err)
}

func TestService_Query(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	bPtr := func(b bool) *bool { return &b }

	ali := testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	hind := testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleTeacher, false)
	omar := testutil.CreateUser(t, s.UserRepo, "Omar", "omar@school.eg", "", user.RoleStudent, true)
	testutil.CreateGroup(t, s.GroupRepo, "Group", ali.ID)

	ids := func(users []user.User) []string {
		res := make([]string, 0, len(users))
		for _, u := range users {
			res = append(res, u.ID)
		}
		sort.Strings(res)
		return res
	}
	sorted := func(ids ...string) []string {
		sort.Strings(ids)
		return ids
	}

	tests := []struct {
		name   string
		filter *user.QueryFilter
		want   []string
	}{
		{name: "all", want: sorted(ali.ID, hind.ID, omar.ID)},
		{name: "search name", filter: &user.QueryFilter{Search: "hin"}, want: sorted(hind.ID)},
		{name: "search email", filter: &user.QueryFilter{Search: "school"}, want: sorted(omar.ID)},
		{name: "role", filter: &user.QueryFilter{Role: user.RoleStudent}, want: sorted(ali.ID, omar.ID)},
		{name: "inactive", filter: &user.QueryFilter{IsActive: bPtr(false)}, want: sorted(hind.ID)},
		{name: "without groups", filter: &user.QueryFilter{Role: user.RoleStudent, WithoutGrp: true}, want: sorted(omar.ID)},
		{name: "no match", filter: &user.QueryFilter{Search: "zzz"}, want: sorted()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			users, err := s.UserSvc.Query(ctx, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(users))
		})
	}
}

func TestService_Stats(t *testing.T) {
	s := testutil.NewStack()
	ctx := context.Background()
	testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleTeacher, false)
	testutil.CreateEligibleStudent(t, s.UserRepo, "Omar", "omar@test.eg")

	stats, err := s.UserSvc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, user.Stats{
		Total:    3,
		Active:   2,
		Inactive: 1,
		ByRole: map[string]int{
			user.RoleStudent: 2, user.RoleTeacher: 1, user.RoleElder: 0, user.RoleAdmin: 0,
		},
		ByLevel: map[string]int{
			user.LevelBeginner: 3, user.LevelIntermediate: 0, user.LevelAdvanced: 0,
		},
		PassedLevelExam: 1,
		PassedLiveExam:  1,
	}, stats)
}

func TestSortUsers(t *testing.T) {
	users := []user.User{
		{ActorCore: user.ActorCore{Name: "b", Role: user.RoleStudent}},
		{ActorCore: user.ActorCore{Name: "a", Role: user.RoleTeacher}},
		{ActorCore: user.ActorCore{Name: "c", Role: user.RoleStudent}},
	}
	user.SortUsers(users, core.DBOrdering{Field: "role", Ascending: true}, core.DBOrdering{Field: "name"})
	got := []string{users[0].Name, users[1].Name, users[2].Name}
	assert.Equal(t, []string{"c", "b", "a"}, got)
}
