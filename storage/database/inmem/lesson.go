package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core/lesson"
)

type lessonRepository struct {
	db *DB
}

var _ lesson.Repository = (*lessonRepository)(nil) // interface compliance check

func NewLessonRepository(db *DB) *lessonRepository {
	return &lessonRepository{db: db}
}

func readLesson(l *lesson.Lesson) lesson.Lesson {
	cp := *l
	cp.Resources = append([]lesson.Resource{}, l.Resources...)
	return cp
}

func (repo *lessonRepository) CreateLesson(_ context.Context, l lesson.Lesson) (lesson.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.groups[l.GroupID]; !ok {
		return lesson.Lesson{}, lesson.ErrGroupNotFound
	}
	l.ID = uuid.NewString()
	l = readLesson(&l)
	repo.db.lessons[l.ID] = &l
	return readLesson(&l), nil
}

func (repo *lessonRepository) GetLesson(_ context.Context, id string) (lesson.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if l, ok := repo.db.lessons[id]; ok {
		return readLesson(l), nil
	}
	return lesson.Lesson{}, lesson.ErrNotFound
}

func (repo *lessonRepository) QueryLessons(_ context.Context, filter *lesson.QueryFilter) ([]lesson.Lesson, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	lessons := make([]lesson.Lesson, 0, len(repo.db.lessons))
	for _, l := range repo.db.lessons {
		lessons = append(lessons, readLesson(l))
	}
	return lesson.FilterLessons(lessons, filter), nil
}

func (repo *lessonRepository) UpdateLesson(_ context.Context, l lesson.Lesson) (lesson.Lesson, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.lessons[l.ID]; !ok {
		return lesson.Lesson{}, lesson.ErrNotFound
	}
	if _, ok := repo.db.groups[l.GroupID]; !ok {
		return lesson.Lesson{}, lesson.ErrGroupNotFound
	}
	l = readLesson(&l)
	repo.db.lessons[l.ID] = &l
	return readLesson(&l), nil
}

func (repo *lessonRepository) DeleteLesson(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.lessons[id]; !ok {
		return lesson.ErrNotFound
	}
	for _, e := range repo.db.exams {
		if e.LessonID == id {
			return lesson.ErrHasExams
		}
	}
	delete(repo.db.lessons, id)
	return nil
}
