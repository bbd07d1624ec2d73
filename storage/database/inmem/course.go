package inmemdb

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core/course"
)

type courseRepository struct {
	db *DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	c.ID = uuid.NewString()
	cp := c
	repo.db.courses[c.ID] = &cp
	return c, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if c, ok := repo.db.courses[id]; ok {
		return *c, nil
	}
	return course.Course{}, course.ErrNotFound
}

func (repo *courseRepository) QueryCourses(_ context.Context) ([]course.Course, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	courses := make([]course.Course, 0, len(repo.db.courses))
	for _, c := range repo.db.courses {
		courses = append(courses, *c)
	}
	sort.SliceStable(courses, func(i, j int) bool { return courses[i].CreatedAt.After(courses[j].CreatedAt) })
	return courses, nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.courses[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.courses, id)
	return nil
}
