package user

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mahmoud01140/onlineEdu/core"
)

// Roles
const (
	RoleStudent = "student"
	RoleTeacher = "teacher"
	RoleElder   = "elder"
	RoleAdmin   = "admin"
)

// Levels
const (
	LevelBeginner     = "beginner"
	LevelIntermediate = "intermediate"
	LevelAdvanced     = "advanced"
)

var (
	Roles  = []string{RoleStudent, RoleTeacher, RoleElder, RoleAdmin}
	Levels = []string{LevelBeginner, LevelIntermediate, LevelAdvanced}
)

// ExamResult is one entry of a user's exam history.
type ExamResult struct {
	ExamID  string    `json:"exam"`
	Result  int       `json:"examResult"`
	TakenAt time.Time `json:"takenAt"`
}

// ActorCore holds the attributes shared by every role.
type ActorCore struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Email           string    `json:"email"`
	Role            string    `json:"role"`
	Phone           string    `json:"phone"`
	Age             int       `json:"age"`
	Address         string    `json:"address"`
	Level           string    `json:"level"`
	IsActive        bool      `json:"isActive"`
	PassedLevelExam bool      `json:"passedLevelExam"`
	PassedLiveExam  bool      `json:"passedLiveExam"`
	CreatedAt       time.Time `json:"createdAt"` // UTC
	UpdatedAt       time.Time `json:"updatedAt"` // UTC
}

type User struct {
	ActorCore
	PasswordHash []byte       `json:"-"`
	Profile      Profile      `json:"profile"`
	Groups       []string     `json:"groups"`
	Exams        []ExamResult `json:"exams"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

func (u *User) IsAdmin() bool   { return u.Role == RoleAdmin }
func (u *User) IsStudent() bool { return u.Role == RoleStudent }

// HasTakenExam reports whether the exam is already in the user's history.
func (u *User) HasTakenExam(examID string) bool {
	for _, res := range u.Exams {
		if res.ExamID == examID {
			return true
		}
	}
	return false
}

// HasRole reports whether the user has one of roles.
func (u *User) HasRole(roles ...string) bool {
	return core.StringInSlice(u.Role, roles)
}

// Profile is the role specific part of a User. Exactly one variant exists per role.
type Profile interface {
	Role() string
}

// Memorization is shared by students, teachers and elders.
type Memorization struct {
	AvailableTime      string `json:"availableTime,omitempty" validate:"max=200"`
	MemorizedAmount    string `json:"memorizedAmount,omitempty" validate:"max=200"`
	StudiedSharia      string `json:"studiedSharia,omitempty" validate:"max=200"`
	Talents            string `json:"talents,omitempty" validate:"max=1000"`
	CanUseTelegramZoom string `json:"canUseTelegramZoom,omitempty" validate:"yesno"`
	DailyMemorization  string `json:"dailyMemorization,omitempty" validate:"max=200"`
	DailyReview        string `json:"dailyReview,omitempty" validate:"max=200"`
	DailyRecitation    string `json:"dailyRecitation,omitempty" validate:"max=200"`
}

type StudentProfile struct {
	Memorization
	SchoolType      string `json:"schoolType,omitempty" validate:"omitempty,oneof=public azhar other"`
	Grade           string `json:"grade,omitempty" validate:"max=100"`
	ParentPhone     string `json:"parentPhone,omitempty" validate:"max=30"`
	ParentJob       string `json:"parentJob,omitempty" validate:"max=100"`
	ParentsMemorize string `json:"parentsMemorize,omitempty" validate:"yesno"`
	PlanFinishQuran string `json:"planFinishQuran,omitempty" validate:"max=500"`
}

type TeacherProfile struct {
	Memorization
	Education      string `json:"education,omitempty" validate:"max=200"`
	Specialization string `json:"specialization,omitempty" validate:"max=200"`
	Experience     int    `json:"experience,omitempty" validate:"min=0"`
	HasIjaza       string `json:"hasIjaza,omitempty" validate:"yesno"`
	KhatmaPlan     string `json:"khatmaPlan,omitempty" validate:"max=500"`
	Qualifications string `json:"qualifications,omitempty" validate:"max=500"`
}

type ElderProfile struct {
	Memorization
	Profession     string `json:"profession,omitempty" validate:"max=200"`
	StudiedTajweed string `json:"studiedTajweed,omitempty" validate:"yesno"`
}

type AdminProfile struct {
	Department  string   `json:"department,omitempty" validate:"max=200"`
	Permissions []string `json:"permissions,omitempty"`
}

func (*StudentProfile) Role() string { return RoleStudent }
func (*TeacherProfile) Role() string { return RoleTeacher }
func (*ElderProfile) Role() string   { return RoleElder }
func (*AdminProfile) Role() string   { return RoleAdmin }

// EmptyProfile returns the zero profile variant of role.
func EmptyProfile(role string) (Profile, error) {
	switch role {
	case RoleStudent:
		return new(StudentProfile), nil
	case RoleTeacher:
		return new(TeacherProfile), nil
	case RoleElder:
		return new(ElderProfile), nil
	case RoleAdmin:
		return new(AdminProfile), nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

// DecodeProfile decodes the JSON profile variant of role. Empty data yields the empty variant.
func DecodeProfile(role string, data []byte) (Profile, error) {
	p, err := EmptyProfile(role)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 || string(data) == "null" {
		return p, nil
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}

// NewActor contains the information common to every registration.
type NewActor struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Phone    string `json:"phone" validate:"max=30"`
	Age      int    `json:"age" validate:"min=0,max=120"`
	Address  string `json:"address" validate:"max=500"`
}

func (na *NewActor) clean() {
	na.Name = core.CleanString(na.Name)
	na.Email = core.CleanString(na.Email, true /* lower */)
	na.Phone = core.CleanString(na.Phone)
	na.Address = core.CleanString(na.Address)
}

// Registration is implemented by the per role registration payloads.
type Registration interface {
	actor() *NewActor
	profile() Profile
}

type NewStudent struct {
	NewActor
	StudentProfile
}

type NewTeacher struct {
	NewActor
	TeacherProfile
}

type NewElder struct {
	NewActor
	ElderProfile
}

type NewAdmin struct {
	NewActor
	AdminProfile
}

func (n *NewStudent) actor() *NewActor { return &n.NewActor }
func (n *NewTeacher) actor() *NewActor { return &n.NewActor }
func (n *NewElder) actor() *NewActor   { return &n.NewActor }
func (n *NewAdmin) actor() *NewActor   { return &n.NewActor }

func (n *NewStudent) profile() Profile { p := n.StudentProfile; return &p }
func (n *NewTeacher) profile() Profile { p := n.TeacherProfile; return &p }
func (n *NewElder) profile() Profile   { p := n.ElderProfile; return &p }
func (n *NewAdmin) profile() Profile   { p := n.AdminProfile; return &p }

// NewRegistration returns the empty registration payload of role.
func NewRegistration(role string) (Registration, error) {
	switch role {
	case RoleStudent:
		return new(NewStudent), nil
	case RoleTeacher:
		return new(NewTeacher), nil
	case RoleElder:
		return new(NewElder), nil
	case RoleAdmin:
		return new(NewAdmin), nil
	}
	return nil, fmt.Errorf("unknown role %q", role)
}

// UpdateUser defines what information may be provided to modify an existing User.
// nil fields are left unchanged. A role change without a profile resets the profile to the new role's empty variant.
type UpdateUser struct {
	Name     *string         `json:"name" validate:"omitempty,min=2,max=100"`
	Phone    *string         `json:"phone" validate:"omitempty,max=30"`
	Age      *int            `json:"age" validate:"omitempty,min=0,max=120"`
	Address  *string         `json:"address" validate:"omitempty,max=500"`
	Level    *string         `json:"level" validate:"omitempty,oneof=beginner intermediate advanced"`
	Role     *string         `json:"role" validate:"omitempty,oneof=student teacher elder admin"`
	IsActive *bool           `json:"isActive"`
	Password *string         `json:"password" validate:"omitempty,min=6"`
	Profile  json.RawMessage `json:"profile"`
}

type GetFilter struct {
	ID    string
	Email string
}

type QueryFilter struct {
	Search     string `query:"search"`
	Role       string `query:"role"`
	Level      string `query:"level"`
	IsActive   *bool  `query:"isActive"`
	WithoutGrp bool   `query:"withoutGroups"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.Role == "" && qf.Level == "" && qf.IsActive == nil && !qf.WithoutGrp
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Role = core.CleanString(qf.Role, true /* lower */)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}

// Stats is the users dashboard summary.
type Stats struct {
	Total           int            `json:"total"`
	Active          int            `json:"active"`
	Inactive        int            `json:"inactive"`
	ByRole          map[string]int `json:"byRole"`
	ByLevel         map[string]int `json:"byLevel"`
	PassedLevelExam int            `json:"passedLevelExam"`
	PassedLiveExam  int            `json:"passedLiveExam"`
}
