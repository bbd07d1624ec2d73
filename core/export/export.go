// Package export shapes roster and attendance data into flat report rows.
// Rendering to a document format is left to a Renderer.
package export

import (
	"context"
	"io"
	"sort"
	"time"

	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

// DefaultPeriod is the attendance export range when no dates are given.
const DefaultPeriod = 30 * 24 * time.Hour

type AttendanceFilter struct {
	GroupID   string    `query:"groupId"`
	StudentID string    `query:"studentId"`
	Status    string    `query:"status"` // "all" or empty means any
	StartDate time.Time `query:"startDate"`
	EndDate   time.Time `query:"endDate"`
}

type AttendanceRow struct {
	Index        int
	StudentName  string
	StudentEmail string
	GroupTitle   string
	LessonTitle  string
	Date         time.Time
	Status       string
	Notes        string
	MarkedBy     string
	CreatedAt    time.Time
}

// StudentStats summarizes the attendance of one student over the report rows.
type StudentStats struct {
	StudentID      string
	StudentName    string
	GroupTitle     string
	Present        int
	Absent         int
	Late           int
	Excused        int
	Total          int
	AttendanceRate float64 // present / total
	AbsenceRate    float64 // (absent + late) / total
}

type ReportSummary struct {
	attendance.Summary
	AbsenceRate float64 // absent / total
	From        time.Time
	To          time.Time
	GeneratedAt time.Time
}

type AttendanceReport struct {
	Rows     []AttendanceRow
	Students []StudentStats
	Summary  ReportSummary
}

type UserRow struct {
	Index           int
	Name            string
	Email           string
	Role            string
	Phone           string
	Age             int
	Level           string
	MemorizedAmount string
	Groups          []string // titles
	ExamsTaken      int
	PassedLevelExam bool
	PassedLiveExam  bool
	IsActive        bool
	CreatedAt       time.Time
}

type (
	AttendanceSource interface {
		Query(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Row, error)
	}

	UserSource interface {
		Query(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error)
	}

	GroupSource interface {
		Query(ctx context.Context, filter *group.QueryFilter) ([]group.Group, error)
	}

	// Renderer writes reports in a document format.
	Renderer interface {
		ContentType() string
		FileExt() string
		RenderAttendance(w io.Writer, rep AttendanceReport) error
		RenderUsers(w io.Writer, rows []UserRow) error
	}

	Service struct {
		attendance AttendanceSource
		users      UserSource
		groups     GroupSource
		now        func() time.Time // mockable
	}
)

func NewService(att AttendanceSource, users UserSource, groups GroupSource) *Service {
	return &Service{attendance: att, users: users, groups: groups, now: time.Now}
}

// Attendance assembles the attendance report: rows newest first then by student name,
// per student stats and the overall summary.
func (svc *Service) Attendance(ctx context.Context, filter AttendanceFilter) (AttendanceReport, error) {
	now := svc.now().UTC()
	qf := attendance.QueryFilter{
		GroupID:   filter.GroupID,
		StudentID: filter.StudentID,
		From:      filter.StartDate,
		To:        filter.EndDate,
	}
	if filter.Status != "all" {
		qf.Status = filter.Status
	}
	if qf.From.IsZero() && qf.To.IsZero() {
		qf.From = now.Add(-DefaultPeriod)
	}

	recs, err := svc.attendance.Query(ctx, qf)
	if err != nil {
		return AttendanceReport{}, errors.Wrap(err, "querying attendance")
	}
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].Date.Equal(recs[j].Date) {
			return recs[i].Date.After(recs[j].Date)
		}
		return recs[i].StudentName < recs[j].StudentName
	})

	rep := AttendanceReport{Rows: make([]AttendanceRow, 0, len(recs))}
	counts := make(map[string]int, len(attendance.Statuses))
	stats := make(map[string]*StudentStats)
	var order []string
	for i, r := range recs {
		rep.Rows = append(rep.Rows, AttendanceRow{
			Index:        i + 1,
			StudentName:  r.StudentName,
			StudentEmail: r.StudentEmail,
			GroupTitle:   r.GroupTitle,
			LessonTitle:  r.LessonTitle,
			Date:         r.Date,
			Status:       r.Status,
			Notes:        r.Notes,
			MarkedBy:     r.MarkedByName,
			CreatedAt:    r.CreatedAt,
		})
		counts[r.Status]++

		st, ok := stats[r.StudentID]
		if !ok {
			st = &StudentStats{StudentID: r.StudentID, StudentName: r.StudentName, GroupTitle: r.GroupTitle}
			stats[r.StudentID] = st
			order = append(order, r.StudentID)
		}
		st.Total++
		switch r.Status {
		case attendance.StatusPresent:
			st.Present++
		case attendance.StatusAbsent:
			st.Absent++
		case attendance.StatusLate:
			st.Late++
		case attendance.StatusExcused:
			st.Excused++
		}
	}

	for _, id := range order {
		st := stats[id]
		st.AttendanceRate = ratio(st.Present, st.Total)
		st.AbsenceRate = ratio(st.Absent+st.Late, st.Total)
		rep.Students = append(rep.Students, *st)
	}

	sum := attendance.NewSummary(counts)
	rep.Summary = ReportSummary{
		Summary:     sum,
		AbsenceRate: ratio(sum.Absent, sum.Total),
		From:        qf.From,
		To:          qf.To,
		GeneratedAt: now,
	}
	return rep, nil
}

// Users lists the users matching filter as export rows, newest first.
func (svc *Service) Users(ctx context.Context, filter *user.QueryFilter) ([]UserRow, error) {
	users, err := svc.users.Query(ctx, filter)
	if err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	groups, err := svc.groups.Query(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	titles := make(map[string]string, len(groups))
	for _, g := range groups {
		titles[g.ID] = g.Title
	}

	rows := make([]UserRow, 0, len(users))
	for i, u := range users {
		row := UserRow{
			Index:           i + 1,
			Name:            u.Name,
			Email:           u.Email,
			Role:            u.Role,
			Phone:           u.Phone,
			Age:             u.Age,
			Level:           u.Level,
			ExamsTaken:      len(u.Exams),
			PassedLevelExam: u.PassedLevelExam,
			PassedLiveExam:  u.PassedLiveExam,
			IsActive:        u.IsActive,
			CreatedAt:       u.CreatedAt,
		}
		row.MemorizedAmount = memorizedAmount(u.Profile)
		for _, gid := range u.Groups {
			if t, ok := titles[gid]; ok {
				row.Groups = append(row.Groups, t)
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func memorizedAmount(p user.Profile) string {
	switch prof := p.(type) {
	case *user.StudentProfile:
		return prof.MemorizedAmount
	case *user.TeacherProfile:
		return prof.MemorizedAmount
	case *user.ElderProfile:
		return prof.MemorizedAmount
	}
	return ""
}

func ratio(n, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(n) / float64(total)
}
