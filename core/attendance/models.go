package attendance

import (
	"time"
)

// Statuses
const (
	StatusPresent = "present"
	StatusAbsent  = "absent"
	StatusLate    = "late"
	StatusExcused = "excused"
)

var Statuses = []string{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// Record is the attendance of one student to one lesson. (LessonID, StudentID) is unique.
type Record struct {
	ID        string    `json:"id"`
	LessonID  string    `json:"lesson"`
	StudentID string    `json:"student"`
	GroupID   string    `json:"group"`
	Status    string    `json:"status"`
	Notes     string    `json:"notes"`
	Date      time.Time `json:"date"`
	MarkedBy  string    `json:"markedBy"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Row is a Record with the referenced entities' display fields. Missing references leave them empty.
type Row struct {
	Record
	StudentName  string `json:"studentName"`
	StudentEmail string `json:"studentEmail"`
	GroupTitle   string `json:"groupTitle"`
	LessonTitle  string `json:"lessonTitle"`
	MarkedByName string `json:"markedByName"`
}

type NewRecord struct {
	StudentID string `json:"studentId" validate:"required,uuid"`
	Status    string `json:"status" validate:"omitempty,oneof=present absent late excused"`
	Notes     string `json:"notes" validate:"max=500"`
}

type MarkRequest struct {
	LessonID string      `json:"lessonId" validate:"required"`
	GroupID  string      `json:"groupId" validate:"omitempty,uuid"`
	Records  []NewRecord `json:"attendanceRecords" validate:"required,min=1,dive"`
}

type MarkResult struct {
	Count int `json:"count"`
}

type QueryFilter struct {
	LessonID  string
	GroupID   string
	StudentID string
	Status    string
	From      time.Time // inclusive
	To        time.Time // inclusive
}

type SummaryFilter struct {
	GroupID   string    `query:"groupId"`
	StudentID string    `query:"studentId"`
	From      time.Time `query:"from"`
	To        time.Time `query:"to"`
}

// Summary aggregates attendance counts per status.
type Summary struct {
	Present int     `json:"present"`
	Absent  int     `json:"absent"`
	Late    int     `json:"late"`
	Excused int     `json:"excused"`
	Total   int     `json:"total"`
	Rate    float64 `json:"rate"` // present / total
}

// NewSummary builds a Summary out of counts per status.
func NewSummary(counts map[string]int) Summary {
	s := Summary{
		Present: counts[StatusPresent],
		Absent:  counts[StatusAbsent],
		Late:    counts[StatusLate],
		Excused: counts[StatusExcused],
	}
	s.Total = s.Present + s.Absent + s.Late + s.Excused
	if s.Total > 0 {
		s.Rate = float64(s.Present) / float64(s.Total)
	}
	return s
}
