package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

const (
	examColumns         = `id, title, exam_type, lesson_id, questions, passing_score, created_at, updated_at`
	examSingletonIdxKey = "exams_singleton_type_idx"
)

type examRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	ExamType     string      `db:"exam_type"`
	LessonID     null.String `db:"lesson_id"`
	Questions    []byte      `db:"questions"`
	PassingScore int         `db:"passing_score"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type examRepository struct {
	db *sqlx.DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *sqlx.DB) *examRepository {
	return &examRepository{db: db}
}

func (repo examRepository) toRow(e exam.Exam) (examRow, error) {
	qs, err := json.Marshal(e.Questions)
	if err != nil {
		return examRow{}, errors.Wrap(err, "encoding questions")
	}
	return examRow{
		ID:           e.ID,
		Title:        e.Title,
		ExamType:     e.ExamType,
		LessonID:     null.NewString(e.LessonID, e.LessonID != ""),
		Questions:    qs,
		PassingScore: e.PassingScore,
		CreatedAt:    e.CreatedAt.UTC(),
		UpdatedAt:    e.UpdatedAt.UTC(),
	}, nil
}

func (repo examRepository) fromRow(r examRow) (exam.Exam, error) {
	e := exam.Exam{
		ID:           r.ID,
		Title:        r.Title,
		ExamType:     r.ExamType,
		LessonID:     r.LessonID.String,
		PassingScore: r.PassingScore,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Questions, &e.Questions); err != nil {
		return exam.Exam{}, errors.Wrap(err, "decoding questions")
	}
	return e, nil
}

// trapWriteErr maps constraint violations to domain errors.
func (repo examRepository) trapWriteErr(err error, msg string) error {
	switch {
	case isUniqueViolation(err, examSingletonIdxKey):
		return exam.ErrDuplicateType
	case isForeignKeyViolation(err):
		return lesson.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo examRepository) CreateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	e.ID = uuid.NewString()
	row, err := repo.toRow(e)
	if err != nil {
		return exam.Exam{}, err
	}
	_, err = getExec(ctx, repo.db).NamedExecContext(ctx, `INSERT INTO exams (`+examColumns+`) VALUES (
		:id, :title, :exam_type, :lesson_id, :questions, :passing_score, :created_at, :updated_at)`, row)
	if err != nil {
		return exam.Exam{}, repo.trapWriteErr(err, "inserting exam")
	}
	return e, nil
}

func (repo examRepository) get(ctx context.Context, cond string, arg interface{}) (exam.Exam, error) {
	var row examRow
	err := getExec(ctx, repo.db).GetContext(ctx, &row, `SELECT `+examColumns+` FROM exams WHERE `+cond, arg)
	if err != nil {
		return exam.Exam{}, trapNoRowsErr(err, exam.ErrNotFound, "getting exam")
	}
	return repo.fromRow(row)
}

func (repo examRepository) GetExam(ctx context.Context, id string) (exam.Exam, error) {
	if !validID(id) {
		return exam.Exam{}, exam.ErrNotFound
	}
	return repo.get(ctx, "id = $1", id)
}

func (repo examRepository) GetExamByType(ctx context.Context, examType string) (exam.Exam, error) {
	if examType == exam.TypeLesson {
		return exam.Exam{}, exam.ErrNotFound
	}
	return repo.get(ctx, "exam_type = $1", examType)
}

func (repo examRepository) QueryExams(ctx context.Context, filter *exam.QueryFilter) ([]exam.Exam, error) {
	var w where
	if filter != nil {
		if filter.ExamType != "" {
			w.add("exam_type = ?", filter.ExamType)
		}
		if filter.LessonID != "" {
			if !validID(filter.LessonID) {
				return []exam.Exam{}, nil
			}
			w.add("lesson_id = ?", filter.LessonID)
		}
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT ` + examColumns + ` FROM exams` + w.String() + ` ORDER BY created_at DESC`
	var rows []examRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying exams")
	}
	exams := make([]exam.Exam, 0, len(rows))
	for _, r := range rows {
		e, err := repo.fromRow(r)
		if err != nil {
			return nil, err
		}
		exams = append(exams, e)
	}
	return exams, nil
}

func (repo examRepository) UpdateExam(ctx context.Context, e exam.Exam) (exam.Exam, error) {
	if !validID(e.ID) {
		return exam.Exam{}, exam.ErrNotFound
	}
	row, err := repo.toRow(e)
	if err != nil {
		return exam.Exam{}, err
	}
	res, err := getExec(ctx, repo.db).NamedExecContext(ctx, `UPDATE exams SET
		title = :title, exam_type = :exam_type, lesson_id = :lesson_id, questions = :questions,
		passing_score = :passing_score, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return exam.Exam{}, repo.trapWriteErr(err, "updating exam")
	}
	if err = checkAffected(res, exam.ErrNotFound); err != nil {
		return exam.Exam{}, err
	}
	return e, nil
}

func (repo examRepository) DeleteExam(ctx context.Context, id string) error {
	if !validID(id) {
		return exam.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return checkAffected(res, exam.ErrNotFound)
}

func (repo examRepository) DeleteExamsByLesson(ctx context.Context, lessonID string) error {
	if !validID(lessonID) {
		return nil
	}
	_, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM exams WHERE lesson_id = $1`, lessonID)
	return errors.Wrap(err, "deleting lesson exams")
}
