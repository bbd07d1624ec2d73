package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/mahmoud01140/onlineEdu/core/group"
)

type groupRepository struct {
	db *DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo *groupRepository) read(g *group.Group) group.Group {
	grp := *g
	grp.Schedule.Days = append([]string(nil), g.Schedule.Days...)
	grp.Students = repo.db.studentsOf(g.ID)
	return grp
}

func (repo *groupRepository) CreateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, sid := range g.Students {
		if _, ok := repo.db.users[sid]; !ok {
			return group.Group{}, group.ErrStudentNotFound
		}
	}
	g.ID = uuid.NewString()
	for _, sid := range g.Students {
		repo.db.members = append(repo.db.members, membership{groupID: g.ID, studentID: sid})
	}
	g.Students = nil
	repo.db.groups[g.ID] = &g
	return repo.read(&g), nil
}

func (repo *groupRepository) GetGroup(_ context.Context, id string) (group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if g, ok := repo.db.groups[id]; ok {
		return repo.read(g), nil
	}
	return group.Group{}, group.ErrNotFound
}

func (repo *groupRepository) GroupExists(_ context.Context, id string) (bool, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	_, ok := repo.db.groups[id]
	return ok, nil
}

func (repo *groupRepository) QueryGroups(_ context.Context, filter *group.QueryFilter) ([]group.Group, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	groups := make([]group.Group, 0, len(repo.db.groups))
	for _, g := range repo.db.groups {
		groups = append(groups, repo.read(g))
	}
	return group.FilterGroups(groups, filter), nil
}

func (repo *groupRepository) UpdateGroup(_ context.Context, g group.Group) (group.Group, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.groups[g.ID]; !ok {
		return group.Group{}, group.ErrNotFound
	}
	g.Students = nil
	repo.db.groups[g.ID] = &g
	return repo.read(&g), nil
}

func (repo *groupRepository) DeleteGroup(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.groups[id]; !ok {
		return group.ErrNotFound
	}
	for _, l := range repo.db.lessons {
		if l.GroupID == id {
			return group.ErrHasLessons
		}
	}
	delete(repo.db.groups, id)
	repo.db.removeMembers(func(m membership) bool { return m.groupID != id })
	return nil
}

func (repo *groupRepository) AddStudent(_ context.Context, groupID, studentID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.groups[groupID]; !ok {
		return group.ErrNotFound
	}
	if _, ok := repo.db.users[studentID]; !ok {
		return group.ErrStudentNotFound
	}
	if !repo.db.isMember(groupID, studentID) {
		repo.db.members = append(repo.db.members, membership{groupID: groupID, studentID: studentID})
	}
	return nil
}

func (repo *groupRepository) RemoveStudent(_ context.Context, groupID, studentID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if !repo.db.isMember(groupID, studentID) {
		return group.ErrStudentNotFound
	}
	repo.db.removeMembers(func(m membership) bool { return m.groupID != groupID || m.studentID != studentID })
	return nil
}
