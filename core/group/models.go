package group

import (
	"time"

	"github.com/mahmoud01140/onlineEdu/core"
)

// Levels
const (
	LevelFoundation   = "foundation"
	LevelMemorization = "memorization"
)

const DefaultMaxStudents = 20

var (
	Levels = []string{LevelFoundation, LevelMemorization}
	Days   = []string{"saturday", "sunday", "monday", "tuesday", "wednesday", "thursday", "friday"}
)

type Schedule struct {
	Days     []string `json:"days" validate:"dive,oneof=saturday sunday monday tuesday wednesday thursday friday"`
	Time     string   `json:"time" validate:"omitempty,datetime=15:04"`
	Duration int      `json:"duration" validate:"min=0,max=600"` // minutes
}

type Group struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Description  string    `json:"description"`
	Level        string    `json:"level"`
	InstructorID string    `json:"instructor"`
	MaxStudents  int       `json:"maxStudents"`
	Schedule     Schedule  `json:"schedule"`
	Inactive     bool      `json:"inActive"`
	Students     []string  `json:"students"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// IsFull reports whether no more students may join.
func (g Group) IsFull() bool {
	return g.MaxStudents > 0 && len(g.Students) >= g.MaxStudents
}

func (g Group) HasStudent(id string) bool {
	return core.StringInSlice(id, g.Students)
}

// Member is the public view of a group participant.
type Member struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Age   int    `json:"age"`
	Level string `json:"level"`
}

// Detail is a Group with its participants resolved.
type Detail struct {
	Group
	Instructor *Member  `json:"instructorInfo"`
	Members    []Member `json:"studentsInfo"`
}

type NewGroup struct {
	Title        string   `json:"title" validate:"required,notblank,max=200"`
	Description  string   `json:"description" validate:"max=1000"`
	Level        string   `json:"level" validate:"required,oneof=foundation memorization"`
	InstructorID string   `json:"instructor"`
	MaxStudents  int      `json:"maxStudents" validate:"min=0,max=500"`
	Schedule     Schedule `json:"schedule"`
	Students     []string `json:"students"`
}

// UpdateGroup is a partial update; nil fields are left unchanged.
type UpdateGroup struct {
	Title        *string   `json:"title" validate:"omitempty,notblank,max=200"`
	Description  *string   `json:"description" validate:"omitempty,max=1000"`
	Level        *string   `json:"level" validate:"omitempty,oneof=foundation memorization"`
	InstructorID *string   `json:"instructor"`
	MaxStudents  *int      `json:"maxStudents" validate:"omitempty,min=0,max=500"`
	Schedule     *Schedule `json:"schedule"`
	Inactive     *bool     `json:"inActive"`
}

type QueryFilter struct {
	Search string `query:"search"`
	Level  string `query:"level"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Level = core.CleanString(qf.Level, true /* lower */)
}

// LevelStats summarizes the groups of one level.
type LevelStats struct {
	Level         string  `json:"level"`
	TotalGroups   int     `json:"totalGroups"`
	TotalStudents int     `json:"totalStudents"`
	AvgStudents   float64 `json:"avgStudents"`
}
