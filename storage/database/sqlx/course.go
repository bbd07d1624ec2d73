package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core/course"
)

const courseColumns = `id, title, description, duration, level, category, rating, students, created_at, updated_at`

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	c.ID = uuid.NewString()
	_, err := getExec(ctx, repo.db).ExecContext(ctx, `INSERT INTO courses (`+courseColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		c.ID, c.Title, c.Description, c.Duration, c.Level, c.Category, c.Rating, c.Students,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC())
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return c, nil
}

func (repo courseRepository) scan(row interface{ Scan(...interface{}) error }) (course.Course, error) {
	var c course.Course
	err := row.Scan(&c.ID, &c.Title, &c.Description, &c.Duration, &c.Level, &c.Category, &c.Rating, &c.Students,
		&c.CreatedAt, &c.UpdatedAt)
	c.CreatedAt, c.UpdatedAt = c.CreatedAt.UTC(), c.UpdatedAt.UTC()
	return c, err
}

func (repo courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if !validID(id) {
		return course.Course{}, course.ErrNotFound
	}
	c, err := repo.scan(getExec(ctx, repo.db).QueryRowxContext(ctx,
		`SELECT `+courseColumns+` FROM courses WHERE id = $1`, id))
	if err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "getting course")
	}
	return c, nil
}

func (repo courseRepository) QueryCourses(ctx context.Context) ([]course.Course, error) {
	rows, err := getExec(ctx, repo.db).QueryxContext(ctx, `SELECT `+courseColumns+` FROM courses ORDER BY created_at DESC`)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	defer func() { _ = rows.Close() }()

	courses := make([]course.Course, 0)
	for rows.Next() {
		c, err := repo.scan(rows)
		if err != nil {
			return nil, errors.Wrap(err, "scanning course")
		}
		courses = append(courses, c)
	}
	return courses, errors.Wrap(rows.Err(), "querying courses")
}

func (repo courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validID(id) {
		return course.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM courses WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound)
}
