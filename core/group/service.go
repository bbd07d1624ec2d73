package group

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("Group")
	ErrInstructorNotFound = core.NewNotFoundError("Instructor")
	ErrStudentNotFound    = core.NewNotFoundError("Student")
	ErrGroupFull          = core.NewValidationError(errors.New("group is full"),
		core.FieldError{Field: "maxStudents", Error: "group has reached its maximum number of students"})

	// ErrHasLessons is returned by repositories asked to delete a group whose lessons remain.
	ErrHasLessons = errors.New("group still has lessons")
)

type (
	Repository interface {
		CreateGroup(ctx context.Context, g Group) (Group, error)
		GetGroup(ctx context.Context, id string) (Group, error)
		GroupExists(ctx context.Context, id string) (bool, error)
		// QueryGroups applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Group.Title or Group.Description.
		QueryGroups(ctx context.Context, filter *QueryFilter) ([]Group, error)
		// UpdateGroup saves everything but the memberships.
		UpdateGroup(ctx context.Context, g Group) (Group, error)
		// DeleteGroup removes the group and its memberships.
		DeleteGroup(ctx context.Context, id string) error
		AddStudent(ctx context.Context, groupID, studentID string) error
		RemoveStudent(ctx context.Context, groupID, studentID string) error
	}

	UserFinder interface {
		GetUser(ctx context.Context, filter user.GetFilter) (user.User, error)
	}

	// LessonCascader lists and deletes lessons, exams included.
	LessonCascader interface {
		Query(ctx context.Context, filter *lesson.QueryFilter) ([]lesson.Lesson, error)
		Delete(ctx context.Context, id string) error
	}

	Service struct {
		repo     Repository
		users    UserFinder
		lessons  LessonCascader
		tx       core.Transactor
		validate *validator.Validate
		now      func() time.Time // mockable
	}
)

func NewService(repo Repository, users UserFinder, lessons LessonCascader, tx core.Transactor, validate *validator.Validate) *Service {
	return &Service{repo: repo, users: users, lessons: lessons, tx: tx, validate: validate, now: time.Now}
}

func (svc *Service) findUser(ctx context.Context, id string, notFound error) (user.User, error) {
	usr, err := svc.users.GetUser(ctx, user.GetFilter{ID: id})
	if err != nil {
		if errors.Cause(err) == user.ErrNotFound {
			return user.User{}, notFound
		}
		return user.User{}, errors.Wrap(err, "finding user")
	}
	return usr, nil
}

func (svc *Service) Create(ctx context.Context, ng NewGroup) (Group, error) {
	ng.Title = core.CleanString(ng.Title)
	ng.Description = core.CleanString(ng.Description)
	if err := svc.validate.Struct(ng); err != nil {
		return Group{}, err
	}
	if ng.InstructorID != "" {
		if _, err := svc.findUser(ctx, ng.InstructorID, ErrInstructorNotFound); err != nil {
			return Group{}, err
		}
	}
	students := make([]string, 0, len(ng.Students))
	for _, id := range ng.Students {
		if core.StringInSlice(id, students) {
			continue
		}
		if _, err := svc.findUser(ctx, id, ErrStudentNotFound); err != nil {
			return Group{}, err
		}
		students = append(students, id)
	}

	if ng.MaxStudents == 0 {
		ng.MaxStudents = DefaultMaxStudents
	}
	now := svc.now().UTC()
	g := Group{
		Title:        ng.Title,
		Description:  ng.Description,
		Level:        ng.Level,
		InstructorID: ng.InstructorID,
		MaxStudents:  ng.MaxStudents,
		Schedule:     ng.Schedule,
		Students:     students,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if g.MaxStudents > 0 && len(students) > g.MaxStudents {
		return Group{}, ErrGroupFull
	}

	// the group and its memberships are written together
	err := svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		g, err = svc.repo.CreateGroup(ctx, g)
		return err
	})
	return g, errors.Wrap(err, "creating group")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Group, error) {
	return svc.repo.GetGroup(ctx, id)
}

// Detail resolves the instructor and students of a group. Unknown users are skipped.
func (svc *Service) Detail(ctx context.Context, id string) (Detail, error) {
	g, err := svc.repo.GetGroup(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	det := Detail{Group: g, Members: make([]Member, 0, len(g.Students))}
	if g.InstructorID != "" {
		if usr, err := svc.findUser(ctx, g.InstructorID, ErrInstructorNotFound); err == nil {
			m := toMember(usr)
			det.Instructor = &m
		} else if errors.Cause(err) != ErrInstructorNotFound {
			return Detail{}, err
		}
	}
	for _, sid := range g.Students {
		usr, err := svc.findUser(ctx, sid, ErrStudentNotFound)
		if err != nil {
			if errors.Cause(err) == ErrStudentNotFound {
				continue
			}
			return Detail{}, err
		}
		det.Members = append(det.Members, toMember(usr))
	}
	return det, nil
}

func toMember(usr user.User) Member {
	return Member{ID: usr.ID, Name: usr.Name, Email: usr.Email, Phone: usr.Phone, Age: usr.Age, Level: usr.Level}
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Group, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryGroups(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, ug UpdateGroup) (Group, error) {
	if err := svc.validate.Struct(ug); err != nil {
		return Group{}, err
	}
	g, err := svc.repo.GetGroup(ctx, id)
	if err != nil {
		return Group{}, err
	}

	if ug.Title != nil {
		g.Title = core.CleanString(*ug.Title)
	}
	if ug.Description != nil {
		g.Description = core.CleanString(*ug.Description)
	}
	if ug.Level != nil {
		g.Level = *ug.Level
	}
	if ug.InstructorID != nil && *ug.InstructorID != g.InstructorID {
		if *ug.InstructorID != "" {
			if _, err := svc.findUser(ctx, *ug.InstructorID, ErrInstructorNotFound); err != nil {
				return Group{}, err
			}
		}
		g.InstructorID = *ug.InstructorID
	}
	if ug.MaxStudents != nil {
		g.MaxStudents = *ug.MaxStudents
	}
	if ug.Schedule != nil {
		if err := svc.validate.Struct(ug.Schedule); err != nil {
			return Group{}, err
		}
		g.Schedule = *ug.Schedule
	}
	if ug.Inactive != nil {
		g.Inactive = *ug.Inactive
	}
	g.UpdatedAt = svc.now().UTC()

	g, err = svc.repo.UpdateGroup(ctx, g)
	return g, errors.Wrap(err, "updating group")
}

// AddStudent adds a student to a group. Adding an existing member is a no-op.
func (svc *Service) AddStudent(ctx context.Context, groupID, studentID string) (Group, error) {
	g, err := svc.repo.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if g.HasStudent(studentID) {
		return g, nil
	}
	if _, err := svc.findUser(ctx, studentID, ErrStudentNotFound); err != nil {
		return Group{}, err
	}
	if g.IsFull() {
		return Group{}, ErrGroupFull
	}
	if err := svc.repo.AddStudent(ctx, groupID, studentID); err != nil {
		return Group{}, errors.Wrap(err, "adding student")
	}
	return svc.repo.GetGroup(ctx, groupID)
}

func (svc *Service) RemoveStudent(ctx context.Context, groupID, studentID string) (Group, error) {
	g, err := svc.repo.GetGroup(ctx, groupID)
	if err != nil {
		return Group{}, err
	}
	if !g.HasStudent(studentID) {
		return Group{}, ErrStudentNotFound
	}
	if err := svc.repo.RemoveStudent(ctx, groupID, studentID); err != nil {
		return Group{}, errors.Wrap(err, "removing student")
	}
	return svc.repo.GetGroup(ctx, groupID)
}

// Delete removes the group along with its lessons, their exams and the memberships, all or nothing.
func (svc *Service) Delete(ctx context.Context, id string) error {
	if _, err := svc.repo.GetGroup(ctx, id); err != nil {
		return err
	}
	return svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		lessons, err := svc.lessons.Query(ctx, &lesson.QueryFilter{GroupID: id})
		if err != nil {
			return errors.Wrap(err, "listing group lessons")
		}
		for _, l := range lessons {
			if err := svc.lessons.Delete(ctx, l.ID); err != nil {
				return errors.Wrapf(err, "deleting lesson %s", l.ID)
			}
		}
		return svc.repo.DeleteGroup(ctx, id)
	})
}

// Stats summarizes groups per level, most populated levels first.
func (svc *Service) Stats(ctx context.Context) ([]LevelStats, error) {
	groups, err := svc.repo.QueryGroups(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	byLevel := make(map[string]*LevelStats)
	for _, g := range groups {
		st, ok := byLevel[g.Level]
		if !ok {
			st = &LevelStats{Level: g.Level}
			byLevel[g.Level] = st
		}
		st.TotalGroups++
		st.TotalStudents += len(g.Students)
	}
	stats := make([]LevelStats, 0, len(byLevel))
	for _, st := range byLevel {
		st.AvgStudents = float64(st.TotalStudents) / float64(st.TotalGroups)
		stats = append(stats, *st)
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].TotalGroups != stats[j].TotalGroups {
			return stats[i].TotalGroups > stats[j].TotalGroups
		}
		return stats[i].Level < stats[j].Level
	})
	return stats, nil
}

// FilterGroups applies filter on groups in memory, newest first.
func FilterGroups(groups []Group, filter *QueryFilter) []Group {
	res := make([]Group, 0, len(groups))
	for _, g := range groups {
		if filter != nil {
			search := strings.ToLower(filter.Search)
			if search != "" && !strings.Contains(strings.ToLower(g.Title), search) &&
				!strings.Contains(strings.ToLower(g.Description), search) {
				continue
			}
			if filter.Level != "" && g.Level != filter.Level {
				continue
			}
		}
		res = append(res, g)
	}
	sort.SliceStable(res, func(i, j int) bool { return res[i].CreatedAt.After(res[j].CreatedAt) })
	return res
}
