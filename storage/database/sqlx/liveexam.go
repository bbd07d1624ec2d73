package sqlxrepos

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mahmoud01140/onlineEdu/core/liveexam"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const liveExamColumns = `id, title, description, exam_date_time, zoom_link, zoom_password, instructor_id, created_at, updated_at`

type liveExamRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	ExamDateTime time.Time   `db:"exam_date_time"`
	ZoomLink     string      `db:"zoom_link"`
	ZoomPassword string      `db:"zoom_password"`
	InstructorID null.String `db:"instructor_id"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type liveExamRepository struct {
	db *sqlx.DB
}

var _ liveexam.Repository = (*liveExamRepository)(nil) // interface compliance check

func NewLiveExamRepository(db *sqlx.DB) *liveExamRepository {
	return &liveExamRepository{db: db}
}

func (repo liveExamRepository) toRow(le liveexam.LiveExam) liveExamRow {
	return liveExamRow{
		ID:           le.ID,
		Title:        le.Title,
		Description:  le.Description,
		ExamDateTime: le.ExamDateTime.UTC(),
		ZoomLink:     le.ZoomLink,
		ZoomPassword: le.ZoomPassword,
		InstructorID: null.NewString(le.InstructorID, le.InstructorID != ""),
		CreatedAt:    le.CreatedAt.UTC(),
		UpdatedAt:    le.UpdatedAt.UTC(),
	}
}

func (repo liveExamRepository) fromRow(r liveExamRow) liveexam.LiveExam {
	return liveexam.LiveExam{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		ExamDateTime: r.ExamDateTime.UTC(),
		ZoomLink:     r.ZoomLink,
		ZoomPassword: r.ZoomPassword,
		InstructorID: r.InstructorID.String,
		Users:        []string{},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
}

func (repo liveExamRepository) loadUsers(ctx context.Context, exec executor, les []liveexam.LiveExam) error {
	if len(les) == 0 {
		return nil
	}
	ids := make([]string, 0, len(les))
	idx := make(map[string]int, len(les))
	for i, le := range les {
		ids = append(ids, le.ID)
		idx[le.ID] = i
	}
	q, args, err := sqlx.In(`SELECT live_exam_id, user_id FROM live_exam_users WHERE live_exam_id IN (?)`, ids)
	if err != nil {
		return errors.Wrap(err, "building users query")
	}
	var rows []struct {
		LiveExamID string `db:"live_exam_id"`
		UserID     string `db:"user_id"`
	}
	if err = exec.SelectContext(ctx, &rows, exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "querying live exam users")
	}
	for _, r := range rows {
		le := &les[idx[r.LiveExamID]]
		le.Users = append(le.Users, r.UserID)
	}
	return nil
}

func (repo liveExamRepository) CreateLiveExam(ctx context.Context, le liveexam.LiveExam) (liveexam.LiveExam, error) {
	le.ID = uuid.NewString()
	_, err := getExec(ctx, repo.db).NamedExecContext(ctx, `INSERT INTO live_exams (`+liveExamColumns+`) VALUES (
		:id, :title, :description, :exam_date_time, :zoom_link, :zoom_password, :instructor_id, :created_at, :updated_at)`,
		repo.toRow(le))
	if err != nil {
		if isForeignKeyViolation(err) {
			return liveexam.LiveExam{}, liveexam.ErrInstructorNotFound
		}
		return liveexam.LiveExam{}, errors.Wrap(err, "inserting live exam")
	}
	le.Users = []string{}
	return le, nil
}

func (repo liveExamRepository) GetLiveExam(ctx context.Context, id string) (liveexam.LiveExam, error) {
	if !validID(id) {
		return liveexam.LiveExam{}, liveexam.ErrNotFound
	}
	exec := getExec(ctx, repo.db)
	var row liveExamRow
	if err := exec.GetContext(ctx, &row, `SELECT `+liveExamColumns+` FROM live_exams WHERE id = $1`, id); err != nil {
		return liveexam.LiveExam{}, trapNoRowsErr(err, liveexam.ErrNotFound, "getting live exam")
	}
	les := []liveexam.LiveExam{repo.fromRow(row)}
	if err := repo.loadUsers(ctx, exec, les); err != nil {
		return liveexam.LiveExam{}, err
	}
	return les[0], nil
}

func (repo liveExamRepository) QueryLiveExams(ctx context.Context, from time.Time) ([]liveexam.LiveExam, error) {
	var w where
	if !from.IsZero() {
		w.add("exam_date_time >= ?", from.UTC())
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT ` + liveExamColumns + ` FROM live_exams` + w.String() + ` ORDER BY exam_date_time`
	var rows []liveExamRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying live exams")
	}
	les := make([]liveexam.LiveExam, 0, len(rows))
	for _, r := range rows {
		les = append(les, repo.fromRow(r))
	}
	if err := repo.loadUsers(ctx, exec, les); err != nil {
		return nil, err
	}
	return les, nil
}

func (repo liveExamRepository) UpdateLiveExam(ctx context.Context, le liveexam.LiveExam) (liveexam.LiveExam, error) {
	if !validID(le.ID) {
		return liveexam.LiveExam{}, liveexam.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).NamedExecContext(ctx, `UPDATE live_exams SET
		title = :title, description = :description, exam_date_time = :exam_date_time, zoom_link = :zoom_link,
		zoom_password = :zoom_password, instructor_id = :instructor_id, updated_at = :updated_at
		WHERE id = :id`, repo.toRow(le))
	if err != nil {
		if isForeignKeyViolation(err) {
			return liveexam.LiveExam{}, liveexam.ErrInstructorNotFound
		}
		return liveexam.LiveExam{}, errors.Wrap(err, "updating live exam")
	}
	if err = checkAffected(res, liveexam.ErrNotFound); err != nil {
		return liveexam.LiveExam{}, err
	}
	return repo.GetLiveExam(ctx, le.ID)
}

func (repo liveExamRepository) DeleteLiveExam(ctx context.Context, id string) error {
	if !validID(id) {
		return liveexam.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM live_exams WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting live exam")
	}
	return checkAffected(res, liveexam.ErrNotFound)
}

func (repo liveExamRepository) AddUser(ctx context.Context, id, userID string) error {
	if !validID(id) {
		return liveexam.ErrNotFound
	}
	if !validID(userID) {
		return user.ErrNotFound
	}
	_, err := getExec(ctx, repo.db).ExecContext(ctx,
		`INSERT INTO live_exam_users (live_exam_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, id, userID)
	if isForeignKeyViolation(err) {
		return user.ErrNotFound
	}
	return errors.Wrap(err, "adding live exam user")
}
