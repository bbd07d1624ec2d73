package attendance_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/user"
	"github.com/mahmoud01140/onlineEdu/tests"
)

type fixture struct {
	s        *testutil.Stack
	admin    user.User
	ali      user.User
	hind     user.User
	groupID  string
	lesson1  lesson.Lesson
	lesson2  lesson.Lesson
	lessonAt time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := testutil.NewStack()
	f := &fixture{s: s, lessonAt: time.Date(2024, 5, 10, 16, 0, 0, 0, time.UTC)}
	f.admin = testutil.CreateUser(t, s.UserRepo, "Admin", "admin@test.eg", "", user.RoleAdmin, true)
	f.ali = testutil.CreateUser(t, s.UserRepo, "Ali", "ali@test.eg", "", user.RoleStudent, true)
	f.hind = testutil.CreateUser(t, s.UserRepo, "Hind", "hind@test.eg", "", user.RoleStudent, true)
	f.groupID = testutil.CreateGroup(t, s.GroupRepo, "Group", f.ali.ID, f.hind.ID).ID
	f.lesson1 = testutil.CreateLesson(t, s.LessonRepo, f.groupID, "Lesson 1", f.lessonAt)
	f.lesson2 = testutil.CreateLesson(t, s.LessonRepo, f.groupID, "Lesson 2", f.lessonAt.AddDate(0, 0, 7))
	return f
}

func (f *fixture) mark(t *testing.T, lessonID string, records ...attendance.NewRecord) {
	t.Helper()
	res, err := f.s.AttendanceSvc.Mark(context.Background(), attendance.MarkRequest{LessonID: lessonID, Records: records}, f.admin.ID)
	require.NoError(t, err)
	assert.Equal(t, len(records), res.Count)
}

func TestService_Mark(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mark(t, f.lesson1.ID,
		attendance.NewRecord{StudentID: f.ali.ID, Status: attendance.StatusPresent, Notes: " on time "},
		attendance.NewRecord{StudentID: f.hind.ID},
	)

	rows, err := f.s.AttendanceSvc.QueryByLesson(ctx, f.lesson1.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "Ali", rows[0].StudentName)
	assert.Equal(t, attendance.StatusPresent, rows[0].Status)
	assert.Equal(t, "on time", rows[0].Notes)
	assert.Equal(t, f.groupID, rows[0].GroupID)
	assert.Equal(t, "Group", rows[0].GroupTitle)
	assert.Equal(t, "Lesson 1", rows[0].LessonTitle)
	assert.Equal(t, "Admin", rows[0].MarkedByName)
	assert.True(t, f.lessonAt.Equal(rows[0].Date))

	assert.Equal(t, "Hind", rows[1].StudentName)
	assert.Equal(t, attendance.StatusAbsent, rows[1].Status, "empty status means absent")

	t.Run("re-marking overwrites", func(t *testing.T) {
		f.mark(t, f.lesson1.ID, attendance.NewRecord{StudentID: f.hind.ID, Status: attendance.StatusExcused, Notes: "sick"})

		rows, err := f.s.AttendanceSvc.QueryByLesson(ctx, f.lesson1.ID)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		assert.Equal(t, attendance.StatusExcused, rows[1].Status)
		assert.Equal(t, "sick", rows[1].Notes)
	})

	t.Run("same batch twice is idempotent", func(t *testing.T) {
		rec := attendance.NewRecord{StudentID: f.ali.ID, Status: attendance.StatusLate}
		f.mark(t, f.lesson2.ID, rec)
		before, err := f.s.AttendanceSvc.QueryByLesson(ctx, f.lesson2.ID)
		require.NoError(t, err)
		f.mark(t, f.lesson2.ID, rec)
		after, err := f.s.AttendanceSvc.QueryByLesson(ctx, f.lesson2.ID)
		require.NoError(t, err)
		require.Len(t, after, 1)
		assert.Equal(t, before[0].ID, after[0].ID)
		assert.Equal(t, attendance.StatusLate, after[0].Status)
	})

	t.Run("unknown lesson", func(t *testing.T) {
		_, err := f.s.AttendanceSvc.Mark(ctx, attendance.MarkRequest{
			LessonID: "nope",
			Records:  []attendance.NewRecord{{StudentID: f.ali.ID}},
		}, f.admin.ID)
		assert.Equal(t, lesson.ErrNotFound, errors.Cause(err))
	})
}

func TestService_Mark_validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		req       attendance.MarkRequest
		wantField string
	}{
		{name: "no lesson", req: attendance.MarkRequest{Records: []attendance.NewRecord{{StudentID: f.ali.ID}}}, wantField: "lessonId"},
		{name: "no records", req: attendance.MarkRequest{LessonID: f.lesson1.ID}, wantField: "attendanceRecords"},
		{
			name: "bad status",
			req: attendance.MarkRequest{LessonID: f.lesson1.ID, Records: []attendance.NewRecord{
				{StudentID: f.ali.ID}, {StudentID: f.hind.ID, Status: "sleeping"},
			}},
			wantField: "attendanceRecords[1].status",
		},
		{
			name: "student listed twice",
			req: attendance.MarkRequest{LessonID: f.lesson1.ID, Records: []attendance.NewRecord{
				{StudentID: f.ali.ID, Status: attendance.StatusPresent}, {StudentID: f.ali.ID, Status: attendance.StatusAbsent},
			}},
			wantField: "attendanceRecords[1].studentId",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.s.AttendanceSvc.Mark(ctx, tt.req, f.admin.ID)
			vErr, ok := errors.Cause(core.TranslateValidationErrors(err, f.s.Translator)).(*core.ValidationError)
			require.True(t, ok, "want *core.ValidationError, got %T (%v)", err, err)
			require.NotEmpty(t, vErr.Fields)
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}

	// nothing was written by the rejected batches
	rows, err := f.s.AttendanceSvc.QueryByLesson(ctx, f.lesson1.ID)
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestService_Summary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.mark(t, f.lesson1.ID,
		attendance.NewRecord{StudentID: f.ali.ID, Status: attendance.StatusPresent},
		attendance.NewRecord{StudentID: f.hind.ID, Status: attendance.StatusLate},
	)
	f.mark(t, f.lesson2.ID,
		attendance.NewRecord{StudentID: f.ali.ID, Status: attendance.StatusPresent},
		attendance.NewRecord{StudentID: f.hind.ID, Status: attendance.StatusAbsent},
	)

	tests := []struct {
		name    string
		filter  attendance.SummaryFilter
		want    attendance.Summary
		wantErr error
	}{
		{name: "no scope", wantErr: attendance.ErrSummaryScope},
		{name: "both scopes", filter: attendance.SummaryFilter{GroupID: f.groupID, StudentID: f.ali.ID}, wantErr: attendance.ErrSummaryScope},
		{
			name:   "group",
			filter: attendance.SummaryFilter{GroupID: f.groupID},
			want:   attendance.Summary{Present: 2, Absent: 1, Late: 1, Total: 4, Rate: .5},
		},
		{
			name:   "student",
			filter: attendance.SummaryFilter{StudentID: f.hind.ID},
			want:   attendance.Summary{Absent: 1, Late: 1, Total: 2},
		},
		{
			name:   "date range",
			filter: attendance.SummaryFilter{GroupID: f.groupID, From: f.lessonAt.AddDate(0, 0, 1)},
			want:   attendance.Summary{Present: 1, Absent: 1, Total: 2, Rate: .5},
		},
		{
			name:   "inclusive bounds",
			filter: attendance.SummaryFilter{StudentID: f.ali.ID, From: f.lessonAt, To: f.lessonAt},
			want:   attendance.Summary{Present: 1, Total: 1, Rate: 1},
		},
		{name: "nothing recorded", filter: attendance.SummaryFilter{StudentID: f.admin.ID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sum, err := f.s.AttendanceSvc.Summary(ctx, tt.filter)
			assert.Equal(t, tt.wantErr, err)
			assert.Equal(t, tt.want, sum)
		})
	}
}
