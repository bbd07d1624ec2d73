package course

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
)

var ErrNotFound = core.NewNotFoundError("Course")

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Duration    string    `json:"duration"`
	Level       string    `json:"level"`
	Category    string    `json:"category"`
	Rating      float64   `json:"rating"`
	Students    int       `json:"students"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type NewCourse struct {
	Title       string  `json:"title" validate:"required,notblank,max=200"`
	Description string  `json:"description" validate:"required,notblank"`
	Duration    string  `json:"duration" validate:"max=100"`
	Level       string  `json:"level" validate:"max=100"`
	Category    string  `json:"category" validate:"max=100"`
	Rating      float64 `json:"rating" validate:"min=0,max=5"`
	Students    int     `json:"students" validate:"min=0"`
}

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses lists every course, newest first.
		QueryCourses(ctx context.Context) ([]Course, error)
		DeleteCourse(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		validate *validator.Validate
	}
)

func NewService(repo Repository, validate *validator.Validate) *Service {
	return &Service{repo: repo, validate: validate}
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	if err := svc.validate.Struct(nc); err != nil {
		return Course{}, err
	}
	now := time.Now().UTC()
	c := Course{
		Title:       nc.Title,
		Description: nc.Description,
		Duration:    core.CleanString(nc.Duration),
		Level:       core.CleanString(nc.Level),
		Category:    core.CleanString(nc.Category),
		Rating:      nc.Rating,
		Students:    nc.Students,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c, err := svc.repo.CreateCourse(ctx, c)
	return c, errors.Wrap(err, "creating course")
}

func (svc *Service) Query(ctx context.Context) ([]Course, error) {
	return svc.repo.QueryCourses(ctx)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetCourse(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteCourse(ctx, id)
}
