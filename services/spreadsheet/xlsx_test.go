package spreadsheet

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/export"
)

func TestRenderer_RenderAttendance(t *testing.T) {
	day := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	rep := export.AttendanceReport{
		Rows: []export.AttendanceRow{
			{Index: 1, StudentName: "Amina", StudentEmail: "amina@example.com", GroupTitle: "Juz Amma", LessonTitle: "An-Naba", Date: day, Status: "present"},
			{Index: 2, StudentName: "Yusuf", StudentEmail: "yusuf@example.com", GroupTitle: "Juz Amma", LessonTitle: "An-Naba", Date: day, Status: "late", Notes: "10 min"},
		},
		Students: []export.StudentStats{
			{StudentName: "Amina", GroupTitle: "Juz Amma", Present: 1, Total: 1, AttendanceRate: 1},
			{StudentName: "Yusuf", GroupTitle: "Juz Amma", Late: 1, Total: 1, AbsenceRate: 1},
		},
		Summary: export.ReportSummary{
			Summary:     attendance.NewSummary(map[string]int{"present": 1, "late": 1}),
			From:        day.AddDate(0, 0, -30),
			GeneratedAt: day,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Renderer{}.RenderAttendance(&buf, rep))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetAttendance, SheetSummary, SheetStudents}, f.GetSheetList())

	rows, err := f.GetRows(SheetAttendance)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, attendanceHeaders, rows[0])
	assert.Equal(t, "Amina", rows[1][1])
	assert.Equal(t, "2026-03-01", rows[1][5])
	assert.Equal(t, "LATE", rows[2][6])
	assert.Equal(t, "10 min", rows[2][7])

	rows, err = f.GetRows(SheetSummary)
	require.NoError(t, err)
	assert.Equal(t, []string{"To", "-"}, rows[2])
	assert.Equal(t, []string{"Total Records", "2"}, rows[3])
	assert.Equal(t, []string{"Attendance Rate", "50.0%"}, rows[8])

	rows, err = f.GetRows(SheetStudents)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "100.0%", rows[1][7])
	assert.Equal(t, "100.0%", rows[2][8])
}

func TestRenderer_RenderUsers(t *testing.T) {
	rows := []export.UserRow{
		{Index: 1, Name: "Amina", Email: "amina@example.com", Role: "student", Age: 12, Level: "beginner",
			Groups: []string{"Juz Amma", "Tajweed"}, ExamsTaken: 1, PassedLevelExam: true, IsActive: true,
			CreatedAt: time.Date(2026, 1, 2, 10, 0, 0, 0, time.UTC)},
	}

	var buf bytes.Buffer
	require.NoError(t, Renderer{}.RenderUsers(&buf, rows))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	got, err := f.GetRows(SheetUsers)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, userHeaders, got[0])
	assert.Equal(t, []string{"1", "Amina", "amina@example.com", "student", "", "12", "beginner", "",
		"Juz Amma, Tajweed", "1", "Yes", "No", "Yes", "2026-01-02"}, got[1])
}

func TestRenderer_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Renderer{}.RenderUsers(&buf, nil))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows(SheetUsers)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}
