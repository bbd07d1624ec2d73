package inmemdb

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/liveexam"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

type liveExamRepository struct {
	db *DB
}

var _ liveexam.Repository = (*liveExamRepository)(nil) // interface compliance check

func NewLiveExamRepository(db *DB) *liveExamRepository {
	return &liveExamRepository{db: db}
}

func readLiveExam(le *liveexam.LiveExam) liveexam.LiveExam {
	cp := *le
	cp.Users = append([]string{}, le.Users...)
	return cp
}

func (repo *liveExamRepository) CreateLiveExam(_ context.Context, le liveexam.LiveExam) (liveexam.LiveExam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	le.ID = uuid.NewString()
	le = readLiveExam(&le)
	repo.db.liveExams[le.ID] = &le
	return readLiveExam(&le), nil
}

func (repo *liveExamRepository) GetLiveExam(_ context.Context, id string) (liveexam.LiveExam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if le, ok := repo.db.liveExams[id]; ok {
		return readLiveExam(le), nil
	}
	return liveexam.LiveExam{}, liveexam.ErrNotFound
}

func (repo *liveExamRepository) QueryLiveExams(_ context.Context, from time.Time) ([]liveexam.LiveExam, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	les := make([]liveexam.LiveExam, 0, len(repo.db.liveExams))
	for _, le := range repo.db.liveExams {
		if !from.IsZero() && le.ExamDateTime.Before(from) {
			continue
		}
		les = append(les, readLiveExam(le))
	}
	liveexam.SortLiveExams(les)
	return les, nil
}

func (repo *liveExamRepository) UpdateLiveExam(_ context.Context, le liveexam.LiveExam) (liveexam.LiveExam, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.liveExams[le.ID]
	if !ok {
		return liveexam.LiveExam{}, liveexam.ErrNotFound
	}
	le.Users = orig.Users
	le = readLiveExam(&le)
	repo.db.liveExams[le.ID] = &le
	return readLiveExam(&le), nil
}

func (repo *liveExamRepository) DeleteLiveExam(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.liveExams[id]; !ok {
		return liveexam.ErrNotFound
	}
	delete(repo.db.liveExams, id)
	return nil
}

func (repo *liveExamRepository) AddUser(_ context.Context, id, userID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	le, ok := repo.db.liveExams[id]
	if !ok {
		return liveexam.ErrNotFound
	}
	if _, ok := repo.db.users[userID]; !ok {
		return user.ErrNotFound
	}
	if !core.StringInSlice(userID, le.Users) {
		le.Users = append(le.Users, userID)
	}
	return nil
}
