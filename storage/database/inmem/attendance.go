package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

func attendanceKey(lessonID, studentID string) string {
	return lessonID + "/" + studentID
}

// UpsertRecords applies the whole batch under one lock.
func (repo *attendanceRepository) UpsertRecords(_ context.Context, records []attendance.Record) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, rec := range records {
		key := attendanceKey(rec.LessonID, rec.StudentID)
		if cur, ok := repo.db.attendance[key]; ok {
			cur.Status = rec.Status
			cur.Notes = rec.Notes
			cur.Date = rec.Date
			cur.GroupID = rec.GroupID
			cur.MarkedBy = rec.MarkedBy
			cur.UpdatedAt = rec.UpdatedAt
			continue
		}
		rec.ID = uuid.NewString()
		repo.db.attendance[key] = &rec
	}
	return nil
}

// row joins the display fields. The lock must be held.
func (repo *attendanceRepository) row(rec *attendance.Record) attendance.Row {
	r := attendance.Row{Record: *rec}
	if s, ok := repo.db.users[rec.StudentID]; ok {
		r.StudentName, r.StudentEmail = s.Name, s.Email
	}
	if g, ok := repo.db.groups[rec.GroupID]; ok {
		r.GroupTitle = g.Title
	}
	if l, ok := repo.db.lessons[rec.LessonID]; ok {
		r.LessonTitle = l.Title
	}
	if m, ok := repo.db.users[rec.MarkedBy]; ok {
		r.MarkedByName = m.Name
	}
	return r
}

func (repo *attendanceRepository) QueryRecords(_ context.Context, filter attendance.QueryFilter) ([]attendance.Row, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rows := make([]attendance.Row, 0)
	for _, rec := range repo.db.attendance {
		if filter.Match(*rec) {
			rows = append(rows, repo.row(rec))
		}
	}
	sort.SliceStable(rows, func(i, j int) bool {
		if !rows[i].Date.Equal(rows[j].Date) {
			return rows[i].Date.After(rows[j].Date)
		}
		return rows[i].StudentName < rows[j].StudentName
	})
	return rows, nil
}

func (repo *attendanceRepository) CountByStatus(_ context.Context, filter attendance.QueryFilter) (map[string]int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	counts := make(map[string]int, len(attendance.Statuses))
	for _, rec := range repo.db.attendance {
		if filter.Match(*rec) {
			counts[rec.Status]++
		}
	}
	return counts, nil
}
