package user

import (
	"context"
	"fmt"
	"net/mail"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
)

var (
	// errors
	ErrNotFound     = core.NewNotFoundError("User")
	ErrEmailExists  = core.NewConflictError("duplicate_key", "Email already registered")
	ErrResultExists = errors.New("exam result already recorded")
)

type (
	Repository interface {
		CreateUser(ctx context.Context, usr User) (User, error)
		// GetUser returns the first User matching one of the non-empty GetFilter fields.
		GetUser(ctx context.Context, filter GetFilter) (User, error)
		// QueryUsers applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of User.Name or User.Email.
		QueryUsers(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error)
		UpdateUser(ctx context.Context, usr User) (User, error)
		DeleteUser(ctx context.Context, id string) error
		SetPassedLiveExam(ctx context.Context, id string) error
		// AddExamResult appends res to the user's history unless an entry for the same exam exists (ErrResultExists).
		// When passedLevelExam is true, the level exam flag is set within the same write.
		AddExamResult(ctx context.Context, userID string, res ExamResult, passedLevelExam bool) error
		RemoveExamResult(ctx context.Context, userID, examID string) error
	}

	Service struct {
		conf     *core.Config
		repo     Repository
		mailSvc  core.EmailService
		validate *validator.Validate
	}
)

func NewService(conf *core.Config, repo Repository, mailSvc core.EmailService, validate *validator.Validate) *Service {
	return &Service{conf: conf, repo: repo, mailSvc: mailSvc, validate: validate}
}

// Repo exposes the repository to collaborating services.
func (svc *Service) Repo() Repository {
	return svc.repo
}

func (svc *Service) checkEmailUniqueness(ctx context.Context, email string, excl ...string) error {
	usr, err := svc.repo.GetUser(ctx, GetFilter{Email: email})
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return nil
		}
		return errors.Wrap(err, "checking email uniqueness")
	}
	if len(excl) > 0 && usr.ID == excl[0] {
		return nil
	}
	return ErrEmailExists
}

// Register validates the registration payload and creates the User it describes.
func (svc *Service) Register(ctx context.Context, reg Registration) (User, error) {
	na := reg.actor()
	na.clean()
	if err := svc.validate.Struct(reg); err != nil {
		return User{}, err
	}
	if err := svc.checkEmailUniqueness(ctx, na.Email); err != nil {
		return User{}, err
	}

	prof := reg.profile()
	now := time.Now().UTC()
	usr := User{
		ActorCore: ActorCore{
			Name:      na.Name,
			Email:     na.Email,
			Role:      prof.Role(),
			Phone:     na.Phone,
			Age:       na.Age,
			Address:   na.Address,
			Level:     LevelBeginner,
			IsActive:  true,
			CreatedAt: now,
			UpdatedAt: now,
		},
		Profile: prof,
	}
	if err := usr.SetPassword(na.Password); err != nil {
		return User{}, errors.Wrap(err, "hashing password")
	}

	usr, err := svc.repo.CreateUser(ctx, usr)
	if err != nil {
		return User{}, errors.Wrap(err, "creating user")
	}
	svc.sendWelcomeMail(usr)
	return usr, nil
}

func (svc *Service) sendWelcomeMail(usr User) {
	if svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      "Welcome!",
		TemplateName: "welcome",
		TemplateData: map[string]string{"Name": usr.Name, "Email": usr.Email, "Role": usr.Role},
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering ...core.DBOrdering) ([]User, error) {
	return svc.repo.QueryUsers(ctx, filter, ordering...)
}

func (svc *Service) GetByID(ctx context.Context, id string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{ID: id})
}

func (svc *Service) GetByEmail(ctx context.Context, email string) (User, error) {
	return svc.repo.GetUser(ctx, GetFilter{Email: core.CleanString(email, true /* lower */)})
}

// Update applies uu to the User identified by id.
func (svc *Service) Update(ctx context.Context, id string, uu UpdateUser) (User, error) {
	if err := svc.validate.Struct(uu); err != nil {
		return User{}, err
	}
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}

	if uu.Name != nil {
		usr.Name = core.CleanString(*uu.Name)
	}
	if uu.Phone != nil {
		usr.Phone = core.CleanString(*uu.Phone)
	}
	if uu.Age != nil {
		usr.Age = *uu.Age
	}
	if uu.Address != nil {
		usr.Address = core.CleanString(*uu.Address)
	}
	if uu.Level != nil {
		usr.Level = *uu.Level
	}
	if uu.IsActive != nil {
		usr.IsActive = *uu.IsActive
	}
	roleChanged := uu.Role != nil && *uu.Role != usr.Role
	if roleChanged {
		usr.Role = *uu.Role
	}
	if uu.Profile != nil || roleChanged {
		prof, err := DecodeProfile(usr.Role, uu.Profile)
		if err != nil {
			return User{}, core.NewValidationError(errors.New("invalid profile"),
				core.FieldError{Field: "profile", Error: err.Error()})
		}
		if err := svc.validate.Struct(prof); err != nil {
			return User{}, err
		}
		usr.Profile = prof
	}
	if uu.Password != nil {
		if err := usr.SetPassword(*uu.Password); err != nil {
			return User{}, errors.Wrap(err, "hashing password")
		}
	}
	usr.UpdatedAt = time.Now().UTC()

	usr, err = svc.repo.UpdateUser(ctx, usr)
	return usr, errors.Wrap(err, "updating user")
}

// ToggleActive flips the isActive flag.
func (svc *Service) ToggleActive(ctx context.Context, id string) (User, error) {
	usr, err := svc.GetByID(ctx, id)
	if err != nil {
		return User{}, err
	}
	active := !usr.IsActive
	return svc.Update(ctx, id, UpdateUser{IsActive: &active})
}

// MarkLiveExamPassed sets the live exam flag. The flag is never reset.
func (svc *Service) MarkLiveExamPassed(ctx context.Context, id string) (User, error) {
	if err := svc.repo.SetPassedLiveExam(ctx, id); err != nil {
		return User{}, err
	}
	return svc.GetByID(ctx, id)
}

func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteUser(ctx, id)
}

// Stats computes the users dashboard summary.
func (svc *Service) Stats(ctx context.Context) (Stats, error) {
	users, err := svc.repo.QueryUsers(ctx, nil)
	if err != nil {
		return Stats{}, errors.Wrap(err, "querying users")
	}
	stats := Stats{ByRole: make(map[string]int, len(Roles)), ByLevel: make(map[string]int, len(Levels))}
	for _, r := range Roles {
		stats.ByRole[r] = 0
	}
	for _, l := range Levels {
		stats.ByLevel[l] = 0
	}
	for _, u := range users {
		stats.Total++
		if u.IsActive {
			stats.Active++
		} else {
			stats.Inactive++
		}
		stats.ByRole[u.Role]++
		stats.ByLevel[u.Level]++
		if u.PassedLevelExam {
			stats.PassedLevelExam++
		}
		if u.PassedLiveExam {
			stats.PassedLiveExam++
		}
	}
	return stats, nil
}

// FilterUsers applies filter on users in memory. Repositories without a query engine use it.
func FilterUsers(users []User, filter *QueryFilter) []User {
	if filter == nil || filter.IsEmpty() {
		return users
	}
	search := strings.ToLower(filter.Search)
	res := make([]User, 0, len(users))
	for _, u := range users {
		if search != "" && !strings.Contains(strings.ToLower(u.Name), search) && !strings.Contains(u.Email, search) {
			continue
		}
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Level != "" && u.Level != filter.Level {
			continue
		}
		if filter.IsActive != nil && u.IsActive != *filter.IsActive {
			continue
		}
		if filter.WithoutGrp && len(u.Groups) > 0 {
			continue
		}
		res = append(res, u)
	}
	return res
}

// SortUsers orders users by ordering; newest first by default.
func SortUsers(users []User, ordering ...core.DBOrdering) {
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "createdAt"}}
	}
	sort.SliceStable(users, func(i, j int) bool {
		for _, ord := range ordering {
			var c int
			switch ord.Field {
			case "name":
				c = strings.Compare(users[i].Name, users[j].Name)
			case "email":
				c = strings.Compare(users[i].Email, users[j].Email)
			case "role":
				c = strings.Compare(users[i].Role, users[j].Role)
			default:
				c = users[i].CreatedAt.Compare(users[j].CreatedAt)
			}
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}

// UserOrderings are the fields users may be ordered by.
var UserOrderings = []string{"name", "email", "role", "createdAt"}

func (u User) String() string {
	return fmt.Sprintf("%s <%s> (%s)", u.Name, u.Email, u.Role)
}
