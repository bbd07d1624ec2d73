package lesson

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

var (
	// errors
	ErrNotFound         = core.NewNotFoundError("Lesson")
	ErrGroupNotFound    = core.NewNotFoundError("Group")
	ErrResourceNotFound = core.NewNotFoundError("Resource")
	ErrNoGroup          = core.NewNotFoundError("Group membership")

	// ErrHasExams is returned by repositories asked to delete a lesson whose exams remain.
	ErrHasExams = errors.New("lesson still has exams")
)

type (
	Repository interface {
		CreateLesson(ctx context.Context, l Lesson) (Lesson, error)
		GetLesson(ctx context.Context, id string) (Lesson, error)
		// QueryLessons applies AND operation on available QueryFilter fields, newest first.
		QueryLessons(ctx context.Context, filter *QueryFilter) ([]Lesson, error)
		UpdateLesson(ctx context.Context, l Lesson) (Lesson, error)
		DeleteLesson(ctx context.Context, id string) error
	}

	// GroupChecker reports whether a group exists.
	GroupChecker interface {
		GroupExists(ctx context.Context, id string) (bool, error)
	}

	// ExamCleaner removes the exams attached to a lesson.
	ExamCleaner interface {
		DeleteExamsByLesson(ctx context.Context, lessonID string) error
	}

	Service struct {
		repo     Repository
		groups   GroupChecker
		exams    ExamCleaner
		tx       core.Transactor
		validate *validator.Validate
		now      func() time.Time // mockable
	}
)

func NewService(repo Repository, groups GroupChecker, exams ExamCleaner, tx core.Transactor, validate *validator.Validate) *Service {
	return &Service{repo: repo, groups: groups, exams: exams, tx: tx, validate: validate, now: time.Now}
}

func (svc *Service) checkGroup(ctx context.Context, id string) error {
	ok, err := svc.groups.GroupExists(ctx, id)
	if err != nil {
		return errors.Wrap(err, "checking group")
	}
	if !ok {
		return ErrGroupNotFound
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nl NewLesson) (Lesson, error) {
	nl.Title = core.CleanString(nl.Title)
	nl.Description = core.CleanString(nl.Description)
	for i := range nl.Resources {
		nl.Resources[i].clean()
	}
	if err := svc.validate.Struct(nl); err != nil {
		return Lesson{}, err
	}
	if err := svc.checkGroup(ctx, nl.GroupID); err != nil {
		return Lesson{}, err
	}

	now := svc.now().UTC()
	l := Lesson{
		Title:        nl.Title,
		Description:  nl.Description,
		GroupID:      nl.GroupID,
		Date:         now,
		ZoomLink:     nl.ZoomLink,
		ZoomPassword: nl.ZoomPassword,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if nl.Date != nil {
		l.Date = nl.Date.UTC()
	}
	for _, nr := range nl.Resources {
		l.Resources = append(l.Resources, newResource(nr, now))
	}

	l, err := svc.repo.CreateLesson(ctx, l)
	return l, errors.Wrap(err, "creating lesson")
}

func newResource(nr NewResource, now time.Time) Resource {
	return Resource{
		ID:          uuid.NewString(),
		URL:         nr.URL,
		Type:        nr.Type,
		Title:       nr.Title,
		Description: nr.Description,
		AddedAt:     now,
	}
}

func (svc *Service) GetByID(ctx context.Context, id string) (Lesson, error) {
	return svc.repo.GetLesson(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Lesson, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryLessons(ctx, filter)
}

// QueryByGroup lists the lessons of a group, failing when the group does not exist.
func (svc *Service) QueryByGroup(ctx context.Context, groupID string) ([]Lesson, error) {
	if err := svc.checkGroup(ctx, groupID); err != nil {
		return nil, err
	}
	return svc.repo.QueryLessons(ctx, &QueryFilter{GroupID: groupID})
}

// Upcoming lists the lessons scheduled from the start of today on, soonest first.
func (svc *Service) Upcoming(ctx context.Context, groupID string, limit int) ([]Lesson, error) {
	today := svc.now().UTC().Truncate(24 * time.Hour)
	lessons, err := svc.repo.QueryLessons(ctx, &QueryFilter{GroupID: groupID, From: today})
	if err != nil {
		return nil, err
	}
	SortByDate(lessons, true)
	if limit > 0 && len(lessons) > limit {
		lessons = lessons[:limit]
	}
	return lessons, nil
}

// Past lists the lessons that already happened, most recent first.
func (svc *Service) Past(ctx context.Context, groupID string) ([]Lesson, error) {
	today := svc.now().UTC().Truncate(24 * time.Hour)
	return svc.repo.QueryLessons(ctx, &QueryFilter{GroupID: groupID, To: today})
}

// Today lists the lessons of the current UTC day, soonest first.
func (svc *Service) Today(ctx context.Context) ([]Lesson, error) {
	start := svc.now().UTC().Truncate(24 * time.Hour)
	lessons, err := svc.repo.QueryLessons(ctx, &QueryFilter{From: start, To: start.Add(24 * time.Hour)})
	if err != nil {
		return nil, err
	}
	SortByDate(lessons, true)
	return lessons, nil
}

// ForStudent lists the lessons of the first group usr belongs to.
func (svc *Service) ForStudent(ctx context.Context, usr user.User) ([]Lesson, error) {
	if len(usr.Groups) == 0 {
		return nil, ErrNoGroup
	}
	return svc.QueryByGroup(ctx, usr.Groups[0])
}

func (svc *Service) Update(ctx context.Context, id string, ul UpdateLesson) (Lesson, error) {
	if err := svc.validate.Struct(ul); err != nil {
		return Lesson{}, err
	}
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}

	if ul.Title != nil {
		l.Title = core.CleanString(*ul.Title)
	}
	if ul.Description != nil {
		l.Description = core.CleanString(*ul.Description)
	}
	if ul.GroupID != nil && *ul.GroupID != l.GroupID {
		if err := svc.checkGroup(ctx, *ul.GroupID); err != nil {
			return Lesson{}, err
		}
		l.GroupID = *ul.GroupID
	}
	if ul.Date != nil {
		l.Date = ul.Date.UTC()
	}
	if ul.ZoomLink != nil {
		l.ZoomLink = *ul.ZoomLink
	}
	if ul.ZoomPassword != nil {
		l.ZoomPassword = *ul.ZoomPassword
	}
	l.UpdatedAt = svc.now().UTC()

	l, err = svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "updating lesson")
}

// Duplicate copies a lesson, resources included, under a new title and date.
func (svc *Service) Duplicate(ctx context.Context, id string, date *time.Time) (Lesson, error) {
	src, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	now := svc.now().UTC()
	cp := src
	cp.ID = ""
	cp.Title = src.Title + " (copy)"
	cp.Date = now
	if date != nil {
		cp.Date = date.UTC()
	}
	cp.Resources = make([]Resource, 0, len(src.Resources))
	for _, r := range src.Resources {
		r.ID = uuid.NewString()
		r.AddedAt = now
		cp.Resources = append(cp.Resources, r)
	}
	cp.CreatedAt, cp.UpdatedAt = now, now

	cp, err = svc.repo.CreateLesson(ctx, cp)
	return cp, errors.Wrap(err, "duplicating lesson")
}

func (svc *Service) AddResource(ctx context.Context, id string, nr NewResource) (Lesson, error) {
	nr.clean()
	if err := svc.validate.Struct(nr); err != nil {
		return Lesson{}, err
	}
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	now := svc.now().UTC()
	l.Resources = append(l.Resources, newResource(nr, now))
	l.UpdatedAt = now

	l, err = svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "adding resource")
}

func (svc *Service) RemoveResource(ctx context.Context, id, resourceID string) (Lesson, error) {
	l, err := svc.repo.GetLesson(ctx, id)
	if err != nil {
		return Lesson{}, err
	}
	idx := -1
	for i, r := range l.Resources {
		if r.ID == resourceID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return Lesson{}, ErrResourceNotFound
	}
	l.Resources = append(l.Resources[:idx], l.Resources[idx+1:]...)
	l.UpdatedAt = svc.now().UTC()

	l, err = svc.repo.UpdateLesson(ctx, l)
	return l, errors.Wrap(err, "removing resource")
}

// Delete removes the lesson and the exams attached to it.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetLesson(ctx, id); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := svc.exams.DeleteExamsByLesson(ctx, id); err != nil {
			return errors.Wrap(err, "deleting lesson exams")
		}
		return svc.repo.DeleteLesson(ctx, id)
	})
}

// FilterLessons applies filter on lessons in memory, newest first.
func FilterLessons(lessons []Lesson, filter *QueryFilter) []Lesson {
	res := make([]Lesson, 0, len(lessons))
	for _, l := range lessons {
		if filter != nil {
			search := strings.ToLower(filter.Search)
			if filter.GroupID != "" && l.GroupID != filter.GroupID {
				continue
			}
			if search != "" && !strings.Contains(strings.ToLower(l.Title), search) &&
				!strings.Contains(strings.ToLower(l.Description), search) {
				continue
			}
			if !filter.From.IsZero() && l.Date.Before(filter.From) {
				continue
			}
			if !filter.To.IsZero() && !l.Date.Before(filter.To) {
				continue
			}
		}
		res = append(res, l)
	}
	SortByDate(res, false)
	return res
}

func SortByDate(lessons []Lesson, ascending bool) {
	sort.SliceStable(lessons, func(i, j int) bool {
		if ascending {
			return lessons[i].Date.Before(lessons[j].Date)
		}
		return lessons[i].Date.After(lessons[j].Date)
	})
}
