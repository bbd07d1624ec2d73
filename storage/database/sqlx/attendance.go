package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mahmoud01140/onlineEdu/core/attendance"
)

type attendanceRow struct {
	ID           string      `db:"id"`
	LessonID     string      `db:"lesson_id"`
	StudentID    string      `db:"student_id"`
	GroupID      string      `db:"group_id"`
	Status       string      `db:"status"`
	Notes        string      `db:"notes"`
	Date         time.Time   `db:"date"`
	MarkedBy     null.String `db:"marked_by"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
	StudentName  null.String `db:"student_name"`
	StudentEmail null.String `db:"student_email"`
	GroupTitle   null.String `db:"group_title"`
	LessonTitle  null.String `db:"lesson_title"`
	MarkedByName null.String `db:"marked_by_name"`
}

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// UpsertRecords relies on the (lesson_id, student_id) unique constraint.
// It must run inside a transaction for the batch to be atomic.
func (repo attendanceRepository) UpsertRecords(ctx context.Context, records []attendance.Record) error {
	exec := getExec(ctx, repo.db)
	for _, rec := range records {
		if !validID(rec.LessonID) || !validID(rec.StudentID) || !validID(rec.GroupID) {
			return errors.Errorf("invalid attendance reference for student %q", rec.StudentID)
		}
		_, err := exec.ExecContext(ctx, `
			INSERT INTO attendance (id, lesson_id, student_id, group_id, status, notes, date, marked_by, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $9)
			ON CONFLICT (lesson_id, student_id) DO UPDATE SET
				status = EXCLUDED.status, notes = EXCLUDED.notes, date = EXCLUDED.date,
				group_id = EXCLUDED.group_id, marked_by = EXCLUDED.marked_by, updated_at = EXCLUDED.updated_at`,
			uuid.NewString(), rec.LessonID, rec.StudentID, rec.GroupID, rec.Status, rec.Notes,
			rec.Date.UTC(), null.NewString(rec.MarkedBy, validID(rec.MarkedBy)), rec.UpdatedAt.UTC(),
		)
		if err != nil {
			return errors.Wrapf(err, "upserting attendance of student %s", rec.StudentID)
		}
	}
	return nil
}

func (repo attendanceRepository) where(filter attendance.QueryFilter) (where, bool) {
	var w where
	for _, ref := range []struct{ col, id string }{
		{"a.lesson_id", filter.LessonID},
		{"a.group_id", filter.GroupID},
		{"a.student_id", filter.StudentID},
	} {
		if ref.id == "" {
			continue
		}
		if !validID(ref.id) {
			return w, false
		}
		w.add(ref.col+" = ?", ref.id)
	}
	if filter.Status != "" {
		w.add("a.status = ?", filter.Status)
	}
	if !filter.From.IsZero() {
		w.add("a.date >= ?", filter.From.UTC())
	}
	if !filter.To.IsZero() {
		w.add("a.date <= ?", filter.To.UTC())
	}
	return w, true
}

func (repo attendanceRepository) QueryRecords(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Row, error) {
	w, ok := repo.where(filter)
	if !ok {
		return []attendance.Row{}, nil
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT a.id, a.lesson_id, a.student_id, a.group_id, a.status, a.notes, a.date, a.marked_by,
			a.created_at, a.updated_at,
			s.name AS student_name, s.email AS student_email, g.title AS group_title,
			l.title AS lesson_title, m.name AS marked_by_name
		FROM attendance a
		LEFT JOIN users s ON s.id = a.student_id
		LEFT JOIN groups g ON g.id = a.group_id
		LEFT JOIN lessons l ON l.id = a.lesson_id
		LEFT JOIN users m ON m.id = a.marked_by` + w.String() + `
		ORDER BY a.date DESC, s.name`
	var rows []attendanceRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}

	res := make([]attendance.Row, 0, len(rows))
	for _, r := range rows {
		res = append(res, attendance.Row{
			Record: attendance.Record{
				ID:        r.ID,
				LessonID:  r.LessonID,
				StudentID: r.StudentID,
				GroupID:   r.GroupID,
				Status:    r.Status,
				Notes:     r.Notes,
				Date:      r.Date.UTC(),
				MarkedBy:  r.MarkedBy.String,
				CreatedAt: r.CreatedAt.UTC(),
				UpdatedAt: r.UpdatedAt.UTC(),
			},
			StudentName:  r.StudentName.String,
			StudentEmail: r.StudentEmail.String,
			GroupTitle:   r.GroupTitle.String,
			LessonTitle:  r.LessonTitle.String,
			MarkedByName: r.MarkedByName.String,
		})
	}
	return res, nil
}

func (repo attendanceRepository) CountByStatus(ctx context.Context, filter attendance.QueryFilter) (map[string]int, error) {
	counts := make(map[string]int, len(attendance.Statuses))
	w, ok := repo.where(filter)
	if !ok {
		return counts, nil
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT a.status, COUNT(*) AS count FROM attendance a` + w.String() + ` GROUP BY a.status`
	var rows []struct {
		Status string `db:"status"`
		Count  int    `db:"count"`
	}
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "counting attendance")
	}
	for _, r := range rows {
		counts[r.Status] = r.Count
	}
	return counts, nil
}
