package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

// read copies the stored user, relations included. The lock must be held.
func (repo *userRepository) read(u *user.User) user.User {
	usr := *u
	usr.PasswordHash = append([]byte(nil), u.PasswordHash...)
	usr.Exams = append([]user.ExamResult{}, u.Exams...)
	usr.Groups = repo.db.groupsOf(u.ID)
	return usr
}

func (repo *userRepository) emailTaken(email, excl string) bool {
	for _, u := range repo.db.users {
		if u.Email == email && u.ID != excl {
			return true
		}
	}
	return false
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if repo.emailTaken(usr.Email, "") {
		return user.User{}, user.ErrEmailExists
	}
	usr.ID = uuid.NewString()
	usr.Groups = nil
	usr.Exams = []user.ExamResult{}
	repo.db.users[usr.ID] = &usr
	return repo.read(&usr), nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if u, ok := repo.db.users[filter.ID]; ok {
			return repo.read(u), nil
		}
		return user.User{}, user.ErrNotFound
	}
	if filter.Email != "" {
		for _, u := range repo.db.users {
			if u.Email == filter.Email {
				return repo.read(u), nil
			}
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, u := range repo.db.users {
		users = append(users, repo.read(u))
	}
	users = user.FilterUsers(users, filter)
	user.SortUsers(users, ordering...)
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	if repo.emailTaken(usr.Email, usr.ID) {
		return user.User{}, user.ErrEmailExists
	}
	// flags and history have dedicated writers
	usr.PassedLevelExam = orig.PassedLevelExam
	usr.PassedLiveExam = orig.PassedLiveExam
	usr.Exams = orig.Exams
	usr.Groups = nil
	repo.db.users[usr.ID] = &usr
	return repo.read(&usr), nil
}

func (repo *userRepository) DeleteUser(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[id]; !ok {
		return user.ErrNotFound
	}
	delete(repo.db.users, id)
	repo.db.removeMembers(func(m membership) bool { return m.studentID != id })
	for _, le := range repo.db.liveExams {
		le.Users = removeString(le.Users, id)
		if le.InstructorID == id {
			le.InstructorID = ""
		}
	}
	for _, g := range repo.db.groups {
		if g.InstructorID == id {
			g.InstructorID = ""
		}
	}
	return nil
}

func (repo *userRepository) SetPassedLiveExam(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	u, ok := repo.db.users[id]
	if !ok {
		return user.ErrNotFound
	}
	u.PassedLiveExam = true
	return nil
}

// AddExamResult checks and appends under the write lock, which makes it an insert-if-absent.
func (repo *userRepository) AddExamResult(_ context.Context, userID string, res user.ExamResult, passedLevelExam bool) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	u, ok := repo.db.users[userID]
	if !ok {
		return user.ErrNotFound
	}
	if u.HasTakenExam(res.ExamID) {
		return user.ErrResultExists
	}
	u.Exams = append(u.Exams, res)
	if passedLevelExam {
		u.PassedLevelExam = true
	}
	u.UpdatedAt = res.TakenAt
	return nil
}

func (repo *userRepository) RemoveExamResult(_ context.Context, userID, examID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	u, ok := repo.db.users[userID]
	if !ok {
		return nil
	}
	kept := make([]user.ExamResult, 0, len(u.Exams))
	for _, r := range u.Exams {
		if r.ExamID != examID {
			kept = append(kept, r)
		}
	}
	u.Exams = kept
	return nil
}

func removeString(slice []string, s string) []string {
	kept := make([]string, 0, len(slice))
	for _, v := range slice {
		if v != s {
			kept = append(kept, v)
		}
	}
	return kept
}
