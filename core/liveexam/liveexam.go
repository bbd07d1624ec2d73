// Package liveexam manages the scheduled, proctored exam sessions held over video calls.
package liveexam

import (
	"context"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("Live exam")
	ErrInstructorNotFound = core.NewNotFoundError("Instructor")
)

type LiveExam struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	ExamDateTime time.Time `json:"examDateTime"`
	ZoomLink     string    `json:"zoomLink"`
	ZoomPassword string    `json:"zoomPassword"`
	InstructorID string    `json:"instructor"`
	Users        []string  `json:"users"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type NewLiveExam struct {
	Title        string    `json:"title" validate:"required,notblank,max=200"`
	Description  string    `json:"description" validate:"max=1000"`
	ExamDateTime time.Time `json:"examDateTime" validate:"required"`
	ZoomLink     string    `json:"zoomLink" validate:"omitempty,url"`
	ZoomPassword string    `json:"zoomPassword"`
	InstructorID string    `json:"instructor"`
}

// UpdateLiveExam is a partial update; nil fields are left unchanged.
type UpdateLiveExam struct {
	Title        *string    `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string    `json:"description" validate:"omitempty,max=1000"`
	ExamDateTime *time.Time `json:"examDateTime"`
	ZoomLink     *string    `json:"zoomLink" validate:"omitempty,url"`
	ZoomPassword *string    `json:"zoomPassword"`
	InstructorID *string    `json:"instructor"`
}

type (
	Repository interface {
		CreateLiveExam(ctx context.Context, le LiveExam) (LiveExam, error)
		GetLiveExam(ctx context.Context, id string) (LiveExam, error)
		// QueryLiveExams lists live exams scheduled at or after from (all when zero), soonest first.
		QueryLiveExams(ctx context.Context, from time.Time) ([]LiveExam, error)
		UpdateLiveExam(ctx context.Context, le LiveExam) (LiveExam, error)
		DeleteLiveExam(ctx context.Context, id string) error
		// AddUser registers a user; registering twice is a no-op.
		AddUser(ctx context.Context, id, userID string) error
	}

	UserFinder interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
	}

	Service struct {
		repo     Repository
		users    UserFinder
		validate *validator.Validate
		now      func() time.Time // mockable
	}
)

func NewService(repo Repository, users UserFinder, validate *validator.Validate) *Service {
	return &Service{repo: repo, users: users, validate: validate, now: time.Now}
}

func (svc *Service) checkInstructor(ctx context.Context, id string) error {
	if id == "" {
		return nil
	}
	if _, err := svc.users.GetUser(ctx, user.GetFilter{ID: id}); err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return ErrInstructorNotFound
		}
		return errors.Wrap(err, "finding instructor")
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nle NewLiveExam) (LiveExam, error) {
	nle.Title = core.CleanString(nle.Title)
	nle.Description = core.CleanString(nle.Description)
	if err := svc.validate.Struct(nle); err != nil {
		return LiveExam{}, err
	}
	if err := svc.checkInstructor(ctx, nle.InstructorID); err != nil {
		return LiveExam{}, err
	}

	now := svc.now().UTC()
	le := LiveExam{
		Title:        nle.Title,
		Description:  nle.Description,
		ExamDateTime: nle.ExamDateTime.UTC(),
		ZoomLink:     nle.ZoomLink,
		ZoomPassword: nle.ZoomPassword,
		InstructorID: nle.InstructorID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	le, err := svc.repo.CreateLiveExam(ctx, le)
	return le, errors.Wrap(err, "creating live exam")
}

func (svc *Service) GetByID(ctx context.Context, id string) (LiveExam, error) {
	return svc.repo.GetLiveExam(ctx, id)
}

func (svc *Service) Query(ctx context.Context) ([]LiveExam, error) {
	return svc.repo.QueryLiveExams(ctx, time.Time{})
}

// Upcoming lists the live exams that have not started yet.
func (svc *Service) Upcoming(ctx context.Context) ([]LiveExam, error) {
	return svc.repo.QueryLiveExams(ctx, svc.now().UTC())
}

func (svc *Service) Update(ctx context.Context, id string, ule UpdateLiveExam) (LiveExam, error) {
	if err := svc.validate.Struct(ule); err != nil {
		return LiveExam{}, err
	}
	le, err := svc.repo.GetLiveExam(ctx, id)
	if err != nil {
		return LiveExam{}, err
	}

	if ule.Title != nil {
		le.Title = core.CleanString(*ule.Title)
	}
	if ule.Description != nil {
		le.Description = core.CleanString(*ule.Description)
	}
	if ule.ExamDateTime != nil {
		le.ExamDateTime = ule.ExamDateTime.UTC()
	}
	if ule.ZoomLink != nil {
		le.ZoomLink = *ule.ZoomLink
	}
	if ule.ZoomPassword != nil {
		le.ZoomPassword = *ule.ZoomPassword
	}
	if ule.InstructorID != nil && *ule.InstructorID != le.InstructorID {
		if err := svc.checkInstructor(ctx, *ule.InstructorID); err != nil {
			return LiveExam{}, err
		}
		le.InstructorID = *ule.InstructorID
	}
	le.UpdatedAt = svc.now().UTC()

	le, err = svc.repo.UpdateLiveExam(ctx, le)
	return le, errors.Wrap(err, "updating live exam")
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetLiveExam(ctx, id); err != nil {
		return err
	}
	return svc.repo.DeleteLiveExam(ctx, id)
}

// AddUser registers userID to the live exam.
func (svc *Service) AddUser(ctx context.Context, id, userID string) (LiveExam, error) {
	if _, err := svc.repo.GetLiveExam(ctx, id); err != nil {
		return LiveExam{}, err
	}
	if err := svc.repo.AddUser(ctx, id, userID); err != nil {
		return LiveExam{}, errors.Wrap(err, "registering user")
	}
	return svc.repo.GetLiveExam(ctx, id)
}

// SortLiveExams orders live exams soonest first.
func SortLiveExams(les []LiveExam) {
	sort.SliceStable(les, func(i, j int) bool { return les[i].ExamDateTime.Before(les[j].ExamDateTime) })
}
