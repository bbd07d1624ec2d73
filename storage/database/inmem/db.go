package inmemdb

import (
	"context"
	"sync"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/attendance"
	"github.com/mahmoud01140/onlineEdu/core/course"
	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/group"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
	"github.com/mahmoud01140/onlineEdu/core/liveexam"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

type (
	membership struct {
		groupID   string
		studentID string
	}

	// DB holds every table behind one lock, so that joins and multi-table writes are consistent.
	DB struct {
		mu         sync.RWMutex
		users      map[string]*user.User
		groups     map[string]*group.Group // Students are derived from members
		members    []membership            // join order
		lessons    map[string]*lesson.Lesson
		exams      map[string]*exam.Exam
		attendance map[string]*attendance.Record
		liveExams  map[string]*liveexam.LiveExam
		courses    map[string]*course.Course
	}
)

func Open() *DB {
	return &DB{
		users:      make(map[string]*user.User),
		groups:     make(map[string]*group.Group),
		lessons:    make(map[string]*lesson.Lesson),
		exams:      make(map[string]*exam.Exam),
		attendance: make(map[string]*attendance.Record),
		liveExams:  make(map[string]*liveexam.LiveExam),
		courses:    make(map[string]*course.Course),
	}
}

// Transactor runs fn directly: each repository write is atomic on its own and nothing is rolled back.
type Transactor struct{}

var _ core.Transactor = Transactor{} // interface compliance check

func (Transactor) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (db *DB) groupsOf(studentID string) []string {
	ids := []string{}
	for _, m := range db.members {
		if m.studentID == studentID {
			ids = append(ids, m.groupID)
		}
	}
	return ids
}

func (db *DB) studentsOf(groupID string) []string {
	ids := []string{}
	for _, m := range db.members {
		if m.groupID == groupID {
			ids = append(ids, m.studentID)
		}
	}
	return ids
}

func (db *DB) isMember(groupID, studentID string) bool {
	for _, m := range db.members {
		if m.groupID == groupID && m.studentID == studentID {
			return true
		}
	}
	return false
}

func (db *DB) removeMembers(keep func(m membership) bool) {
	kept := db.members[:0]
	for _, m := range db.members {
		if keep(m) {
			kept = append(kept, m)
		}
	}
	db.members = kept
}
