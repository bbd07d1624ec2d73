// Package spreadsheet renders export reports as xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"

	"github.com/mahmoud01140/onlineEdu/core/export"
)

// Sheet names
const (
	SheetAttendance = "Attendance"
	SheetSummary    = "Summary"
	SheetStudents   = "Student Stats"
	SheetUsers      = "Users"
)

const dateFmt = "2006-01-02"

var (
	attendanceHeaders = []string{"#", "Student", "Email", "Group", "Lesson", "Date", "Status", "Notes", "Marked By", "Recorded At"}
	studentHeaders    = []string{"Student", "Group", "Present", "Absent", "Late", "Excused", "Total", "Attendance Rate", "Absence Rate"}
	userHeaders       = []string{"#", "Name", "Email", "Role", "Phone", "Age", "Level", "Memorized Amount", "Groups",
		"Exams Taken", "Passed Level Exam", "Passed Live Exam", "Active", "Joined"}
)

// Renderer implements export.Renderer.
type Renderer struct{}

var _ export.Renderer = Renderer{}

func (Renderer) ContentType() string {
	return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
}

func (Renderer) FileExt() string { return ".xlsx" }

// RenderAttendance writes the records, summary and per student sheets.
func (Renderer) RenderAttendance(w io.Writer, rep export.AttendanceReport) error {
	f := excelize.NewFile()
	defer f.Close()

	// the default sheet becomes the records one
	if err := f.SetSheetName("Sheet1", SheetAttendance); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	sw, err := newSheet(f, SheetAttendance, attendanceHeaders)
	if err != nil {
		return err
	}
	for _, r := range rep.Rows {
		sw.row(r.Index, r.StudentName, r.StudentEmail, r.GroupTitle, r.LessonTitle,
			r.Date.Format(dateFmt), strings.ToUpper(r.Status), r.Notes, r.MarkedBy, r.CreatedAt.Format(time.DateTime))
	}

	sum := rep.Summary
	sw, err = newSheet(f, SheetSummary, []string{"Metric", "Value"})
	if err != nil {
		return err
	}
	sw.row("From", formatDate(sum.From))
	sw.row("To", formatDate(sum.To))
	sw.row("Total Records", sum.Total)
	sw.row("Present", sum.Present)
	sw.row("Absent", sum.Absent)
	sw.row("Late", sum.Late)
	sw.row("Excused", sum.Excused)
	sw.row("Attendance Rate", percent(sum.Rate))
	sw.row("Absence Rate", percent(sum.AbsenceRate))
	sw.row("Generated At", sum.GeneratedAt.Format(time.DateTime))

	sw, err = newSheet(f, SheetStudents, studentHeaders)
	if err != nil {
		return err
	}
	for _, s := range rep.Students {
		sw.row(s.StudentName, s.GroupTitle, s.Present, s.Absent, s.Late, s.Excused, s.Total,
			percent(s.AttendanceRate), percent(s.AbsenceRate))
	}

	if sw.err != nil {
		return sw.err
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}

// RenderUsers writes a single sheet listing rows.
func (Renderer) RenderUsers(w io.Writer, rows []export.UserRow) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetUsers); err != nil {
		return errors.Wrap(err, "renaming sheet")
	}
	sw, err := newSheet(f, SheetUsers, userHeaders)
	if err != nil {
		return err
	}
	for _, u := range rows {
		sw.row(u.Index, u.Name, u.Email, u.Role, u.Phone, u.Age, u.Level, u.MemorizedAmount,
			strings.Join(u.Groups, ", "), u.ExamsTaken, yesNo(u.PassedLevelExam), yesNo(u.PassedLiveExam),
			yesNo(u.IsActive), u.CreatedAt.Format(dateFmt))
	}
	if sw.err != nil {
		return sw.err
	}
	return errors.Wrap(f.Write(w), "writing workbook")
}

// sheetWriter appends rows to a sheet, keeping the first error.
type sheetWriter struct {
	f     *excelize.File
	sheet string
	next  int
	err   error
}

func newSheet(f *excelize.File, name string, headers []string) (*sheetWriter, error) {
	if idx, _ := f.GetSheetIndex(name); idx == -1 {
		if _, err := f.NewSheet(name); err != nil {
			return nil, errors.Wrapf(err, "creating sheet %s", name)
		}
	}
	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, errors.Wrap(err, "creating header style")
	}
	sw := &sheetWriter{f: f, sheet: name, next: 1}
	cells := make([]interface{}, len(headers))
	for i, h := range headers {
		cells[i] = h
	}
	sw.row(cells...)
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(name, "A1", last, style); err != nil {
		return nil, errors.Wrap(err, "styling headers")
	}
	return sw, sw.err
}

func (sw *sheetWriter) row(values ...interface{}) {
	if sw.err != nil {
		return
	}
	cell, err := excelize.CoordinatesToCellName(1, sw.next)
	if err != nil {
		sw.err = err
		return
	}
	if err := sw.f.SetSheetRow(sw.sheet, cell, &values); err != nil {
		sw.err = errors.Wrapf(err, "writing %s row %d", sw.sheet, sw.next)
		return
	}
	sw.next++
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format(dateFmt)
}

func percent(r float64) string {
	return fmt.Sprintf("%.1f%%", r*100)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
