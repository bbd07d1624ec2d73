package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core/exam"
	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

type examRepository struct {
	db *DB
}

var _ exam.Repository = (*examRepository)(nil) // interface compliance check

func NewExamRepository(db *DB) *examRepository {
	return &examRepository{db: db}
}

func readExam(e *exam.Exam) exam.Exam {
	cp := *e
	cp.Questions = make([]exam.Question, len(e.Questions))
	for i, q := range e.Questions {
		q.Options = append([]string(nil), q.Options...)
		cp.Questions[i] = q
	}
	return cp
}

// checkWrite mirrors the storage constraints: singleton types and lesson references. The lock must be held.
func (repo *examRepository) checkWrite(e exam.Exam) error {
	if e.IsLevelExam() {
		for _, other := range repo.db.exams {
			if other.ExamType == e.ExamType && other.ID != e.ID {
				return exam.ErrDuplicateType
			}
		}
	}
	if e.LessonID != "" {
		if _, ok := repo.db.lessons[e.LessonID]; !ok {
			return lesson.ErrNotFound
		}
	}
	return nil
}

func (repo *examRepository) CreateExam(_ context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkWrite(e); err != nil {
		return exam.Exam{}, err
	}
	e.ID = uuid.NewString()
	e = readExam(&e)
	repo.db.exams[e.ID] = &e
	return readExam(&e), nil
}

func (repo *examRepository) GetExam(_ context.Context, id string) (exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.db.exams[id]; ok {
		return readExam(e), nil
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) GetExamByType(_ context.Context, examType string) (exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if examType == exam.TypeLesson {
		return exam.Exam{}, exam.ErrNotFound
	}
	for _, e := range repo.db.exams {
		if e.ExamType == examType {
			return readExam(e), nil
		}
	}
	return exam.Exam{}, exam.ErrNotFound
}

func (repo *examRepository) QueryExams(_ context.Context, filter *exam.QueryFilter) ([]exam.Exam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	exams := make([]exam.Exam, 0, len(repo.db.exams))
	for _, e := range repo.db.exams {
		if filter != nil {
			if filter.ExamType != "" && e.ExamType != filter.ExamType {
				continue
			}
			if filter.LessonID != "" && e.LessonID != filter.LessonID {
				continue
			}
		}
		exams = append(exams, readExam(e))
	}
	sort.SliceStable(exams, func(i, j int) bool { return exams[i].CreatedAt.After(exams[j].CreatedAt) })
	return exams, nil
}

func (repo *examRepository) UpdateExam(_ context.Context, e exam.Exam) (exam.Exam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.exams[e.ID]; !ok {
		return exam.Exam{}, exam.ErrNotFound
	}
	if err := repo.checkWrite(e); err != nil {
		return exam.Exam{}, err
	}
	e = readExam(&e)
	repo.db.exams[e.ID] = &e
	return readExam(&e), nil
}

func (repo *examRepository) DeleteExam(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.exams[id]; !ok {
		return exam.ErrNotFound
	}
	delete(repo.db.exams, id)
	return nil
}

func (repo *examRepository) DeleteExamsByLesson(_ context.Context, lessonID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for id, e := range repo.db.exams {
		if e.LessonID == lessonID {
			delete(repo.db.exams, id)
		}
	}
	return nil
}
