package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

const lessonColumns = `id, title, description, group_id, date, resources, zoom_link, zoom_password, created_at, updated_at`

type lessonRow struct {
	ID           string    `db:"id"`
	Title        string    `db:"title"`
	Description  string    `db:"description"`
	GroupID      string    `db:"group_id"`
	Date         time.Time `db:"date"`
	Resources    []byte    `db:"resources"`
	ZoomLink     string    `db:"zoom_link"`
	ZoomPassword string    `db:"zoom_password"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

type lessonRepository struct {
	db *sqlx.DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *sqlx.DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func (repo lessonRepository) toRow(l lesson.Lesson) (lessonRow, error) {
	if l.Resources == nil {
		l.Resources = []lesson.Resource{}
	}
	res, err := json.Marshal(l.Resources)
	if err != nil {
		return lessonRow{}, errors.Wrap(err, "encoding resources")
	}
	return lessonRow{
		ID:           l.ID,
		Title:        l.Title,
		Description:  l.Description,
		GroupID:      l.GroupID,
		Date:         l.Date.UTC(),
		Resources:    res,
		ZoomLink:     l.ZoomLink,
		ZoomPassword: l.ZoomPassword,
		CreatedAt:    l.CreatedAt.UTC(),
		UpdatedAt:    l.UpdatedAt.UTC(),
	}, nil
}

func (repo lessonRepository) fromRow(r lessonRow) (lesson.Lesson, error) {
	l := lesson.Lesson{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		GroupID:      r.GroupID,
		Date:         r.Date.UTC(),
		ZoomLink:     r.ZoomLink,
		ZoomPassword: r.ZoomPassword,
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Resources, &l.Resources); err != nil {
		return lesson.Lesson{}, errors.Wrap(err, "decoding resources")
	}
	return l, nil
}

func (repo lessonRepository) CreateLesson(ctx context.Context, l lesson.Lesson) (lesson.Lesson, error) {
	l.ID = uuid.NewString()
	row, err := repo.toRow(l)
	if err != nil {
		return lesson.Lesson{}, err
	}
	_, err = getExec(ctx, repo.db).NamedExecContext(ctx, `INSERT INTO lessons (`+lessonColumns+`) VALUES (
		:id, :title, :description, :group_id, :date, :resources, :zoom_link, :zoom_password, :created_at, :updated_at)`, row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return lesson.Lesson{}, lesson.ErrGroupNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "inserting lesson")
	}
	return repo.fromRow(row)
}

func (repo lessonRepository) GetLesson(ctx context.Context, id string) (lesson.Lesson, error) {
	if !validID(id) {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	var row lessonRow
	err := getExec(ctx, repo.db).GetContext(ctx, &row, `SELECT `+lessonColumns+` FROM lessons WHERE id = $1`, id)
	if err != nil {
		return lesson.Lesson{}, trapNoRowsErr(err, lesson.ErrNotFound, "getting lesson")
	}
	return repo.fromRow(row)
}

func (repo lessonRepository) QueryLessons(ctx context.Context, filter *lesson.QueryFilter) ([]lesson.Lesson, error) {
	var w where
	if filter != nil {
		if filter.GroupID != "" {
			if !validID(filter.GroupID) {
				return []lesson.Lesson{}, nil
			}
			w.add("group_id = ?", filter.GroupID)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(title ILIKE ? OR description ILIKE ?)", val, val)
		}
		if !filter.From.IsZero() {
			w.add("date >= ?", filter.From.UTC())
		}
		if !filter.To.IsZero() {
			w.add("date < ?", filter.To.UTC())
		}
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT ` + lessonColumns + ` FROM lessons` + w.String() + ` ORDER BY date DESC`
	var rows []lessonRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying lessons")
	}
	lessons := make([]lesson.Lesson, 0, len(rows))
	for _, r := range rows {
		l, err := repo.fromRow(r)
		if err != nil {
			return nil, err
		}
		lessons = append(lessons, l)
	}
	return lessons, nil
}

func (repo lessonRepository) UpdateLesson(ctx context.Context, l lesson.Lesson) (lesson.Lesson, error) {
	if !validID(l.ID) {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	row, err := repo.toRow(l)
	if err != nil {
		return lesson.Lesson{}, err
	}
	res, err := getExec(ctx, repo.db).NamedExecContext(ctx, `UPDATE lessons SET
		title = :title, description = :description, group_id = :group_id, date = :date,
		resources = :resources, zoom_link = :zoom_link, zoom_password = :zoom_password, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		if isForeignKeyViolation(err) {
			return lesson.Lesson{}, lesson.ErrGroupNotFound
		}
		return lesson.Lesson{}, errors.Wrap(err, "updating lesson")
	}
	if err = checkAffected(res, lesson.ErrNotFound); err != nil {
		return lesson.Lesson{}, err
	}
	return repo.fromRow(row)
}

func (repo lessonRepository) DeleteLesson(ctx context.Context, id string) error {
	if !validID(id) {
		return lesson.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM lessons WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return lesson.ErrHasExams
	}
	if err != nil {
		return errors.Wrap(err, "deleting lesson")
	}
	return checkAffected(res, lesson.ErrNotFound)
}
