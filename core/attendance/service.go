package attendance

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

var ErrSummaryScope = core.NewValidationError(errors.New("exactly one of groupId or studentId is required"),
	core.FieldError{Field: "groupId", Error: "exactly one of groupId or studentId is required"})

type (
	Repository interface {
		// UpsertRecords inserts or overwrites records keyed by (LessonID, StudentID), all or nothing.
		UpsertRecords(ctx context.Context, records []Record) error
		// QueryRecords applies AND operation on available QueryFilter fields.
		QueryRecords(ctx context.Context, filter QueryFilter) ([]Row, error)
		// CountByStatus counts the records matching filter per status.
		CountByStatus(ctx context.Context, filter QueryFilter) (map[string]int, error)
	}

	LessonFinder interface {
		GetLesson(ctx context.Context, id string) (lesson.Lesson, error)
	}

	Service struct {
		repo     Repository
		lessons  LessonFinder
		tx       core.Transactor
		validate *validator.Validate
		now      func() time.Time // mockable
	}
)

func NewService(repo Repository, lessons LessonFinder, tx core.Transactor, validate *validator.Validate) *Service {
	return &Service{repo: repo, lessons: lessons, tx: tx, validate: validate, now: time.Now}
}

// Mark upserts the attendance of every record for the lesson in a single transaction.
// Records are dated with the lesson date. Re-marking a student overwrites status and notes.
func (svc *Service) Mark(ctx context.Context, req MarkRequest, markedBy string) (MarkResult, error) {
	if err := svc.validate.Struct(req); err != nil {
		return MarkResult{}, err
	}
	seen := make(map[string]bool, len(req.Records))
	for i, nr := range req.Records {
		if seen[nr.StudentID] {
			msg := fmt.Sprintf("student %s is listed more than once", nr.StudentID)
			return MarkResult{}, core.NewValidationError(errors.New(msg),
				core.FieldError{Field: fmt.Sprintf("attendanceRecords[%d].studentId", i), Error: msg})
		}
		seen[nr.StudentID] = true
	}

	l, err := svc.lessons.GetLesson(ctx, req.LessonID)
	if err != nil {
		return MarkResult{}, err
	}
	groupID := req.GroupID
	if groupID == "" {
		groupID = l.GroupID
	}

	now := svc.now().UTC()
	records := make([]Record, 0, len(req.Records))
	for _, nr := range req.Records {
		status := nr.Status
		if status == "" {
			status = StatusAbsent
		}
		records = append(records, Record{
			LessonID:  l.ID,
			StudentID: nr.StudentID,
			GroupID:   groupID,
			Status:    status,
			Notes:     core.CleanString(nr.Notes),
			Date:      l.Date,
			MarkedBy:  markedBy,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	err = svc.tx.WithinTx(ctx, func(ctx context.Context) error {
		return svc.repo.UpsertRecords(ctx, records)
	})
	if err != nil {
		return MarkResult{}, errors.Wrap(err, "marking attendance")
	}
	return MarkResult{Count: len(records)}, nil
}

// QueryByLesson lists the attendance of a lesson ordered by student name.
func (svc *Service) QueryByLesson(ctx context.Context, lessonID string) ([]Row, error) {
	if _, err := svc.lessons.GetLesson(ctx, lessonID); err != nil {
		return nil, err
	}
	rows, err := svc.repo.QueryRecords(ctx, QueryFilter{LessonID: lessonID})
	if err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].StudentName < rows[j].StudentName })
	return rows, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Row, error) {
	return svc.repo.QueryRecords(ctx, filter)
}

// Summary aggregates the attendance of a group or a student over an optional date range.
func (svc *Service) Summary(ctx context.Context, sf SummaryFilter) (Summary, error) {
	if (sf.GroupID == "") == (sf.StudentID == "") {
		return Summary{}, ErrSummaryScope
	}
	counts, err := svc.repo.CountByStatus(ctx, QueryFilter{
		GroupID:   sf.GroupID,
		StudentID: sf.StudentID,
		From:      sf.From,
		To:        sf.To,
	})
	if err != nil {
		return Summary{}, errors.Wrap(err, "counting attendance")
	}
	return NewSummary(counts), nil
}

// Match reports whether rec satisfies filter. Repositories without a query engine use it.
func (filter QueryFilter) Match(rec Record) bool {
	switch {
	case filter.LessonID != "" && rec.LessonID != filter.LessonID,
		filter.GroupID != "" && rec.GroupID != filter.GroupID,
		filter.StudentID != "" && rec.StudentID != filter.StudentID,
		filter.Status != "" && rec.Status != filter.Status,
		!filter.From.IsZero() && rec.Date.Before(filter.From),
		!filter.To.IsZero() && rec.Date.After(filter.To):
		return false
	}
	return true
}
