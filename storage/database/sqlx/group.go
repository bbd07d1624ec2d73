package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mahmoud01140/onlineEdu/core/group"
)

const groupColumns = `id, title, description, level, instructor_id, max_students, schedule, inactive, created_at, updated_at`

type groupRow struct {
	ID           string      `db:"id"`
	Title        string      `db:"title"`
	Description  string      `db:"description"`
	Level        string      `db:"level"`
	InstructorID null.String `db:"instructor_id"`
	MaxStudents  int         `db:"max_students"`
	Schedule     []byte      `db:"schedule"`
	Inactive     bool        `db:"inactive"`
	CreatedAt    time.Time   `db:"created_at"`
	UpdatedAt    time.Time   `db:"updated_at"`
}

type groupRepository struct {
	db *sqlx.DB
}

var _ group.Repository = (*groupRepository)(nil) // interface compliance check

func NewGroupRepository(db *sqlx.DB) *groupRepository {
	return &groupRepository{db: db}
}

func (repo groupRepository) toRow(g group.Group) (groupRow, error) {
	sched, err := json.Marshal(g.Schedule)
	if err != nil {
		return groupRow{}, errors.Wrap(err, "encoding schedule")
	}
	return groupRow{
		ID:           g.ID,
		Title:        g.Title,
		Description:  g.Description,
		Level:        g.Level,
		InstructorID: null.NewString(g.InstructorID, g.InstructorID != ""),
		MaxStudents:  g.MaxStudents,
		Schedule:     sched,
		Inactive:     g.Inactive,
		CreatedAt:    g.CreatedAt.UTC(),
		UpdatedAt:    g.UpdatedAt.UTC(),
	}, nil
}

func (repo groupRepository) fromRow(r groupRow) (group.Group, error) {
	g := group.Group{
		ID:           r.ID,
		Title:        r.Title,
		Description:  r.Description,
		Level:        r.Level,
		InstructorID: r.InstructorID.String,
		MaxStudents:  r.MaxStudents,
		Inactive:     r.Inactive,
		Students:     []string{},
		CreatedAt:    r.CreatedAt.UTC(),
		UpdatedAt:    r.UpdatedAt.UTC(),
	}
	if err := json.Unmarshal(r.Schedule, &g.Schedule); err != nil {
		return group.Group{}, errors.Wrap(err, "decoding schedule")
	}
	return g, nil
}

func (repo groupRepository) loadStudents(ctx context.Context, exec executor, groups []group.Group) error {
	if len(groups) == 0 {
		return nil
	}
	ids := make([]string, 0, len(groups))
	idx := make(map[string]int, len(groups))
	for i, g := range groups {
		ids = append(ids, g.ID)
		idx[g.ID] = i
	}
	q, args, err := sqlx.In(`SELECT group_id, student_id FROM group_students
		WHERE group_id IN (?) ORDER BY joined_at, student_id`, ids)
	if err != nil {
		return errors.Wrap(err, "building members query")
	}
	var members []membershipRow
	if err = exec.SelectContext(ctx, &members, exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "querying group members")
	}
	for _, m := range members {
		g := &groups[idx[m.GroupID]]
		g.Students = append(g.Students, m.StudentID)
	}
	return nil
}

func (repo groupRepository) CreateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	g.ID = uuid.NewString()
	row, err := repo.toRow(g)
	if err != nil {
		return group.Group{}, err
	}
	exec := getExec(ctx, repo.db)
	if _, err = exec.NamedExecContext(ctx, `INSERT INTO groups (`+groupColumns+`) VALUES (
		:id, :title, :description, :level, :instructor_id, :max_students, :schedule, :inactive, :created_at, :updated_at)`, row); err != nil {
		return group.Group{}, errors.Wrap(err, "inserting group")
	}
	for _, sid := range g.Students {
		if err = repo.AddStudent(ctx, g.ID, sid); err != nil {
			return group.Group{}, err
		}
	}
	if g.Students == nil {
		g.Students = []string{}
	}
	return g, nil
}

func (repo groupRepository) GetGroup(ctx context.Context, id string) (group.Group, error) {
	if !validID(id) {
		return group.Group{}, group.ErrNotFound
	}
	exec := getExec(ctx, repo.db)
	var row groupRow
	if err := exec.GetContext(ctx, &row, `SELECT `+groupColumns+` FROM groups WHERE id = $1`, id); err != nil {
		return group.Group{}, trapNoRowsErr(err, group.ErrNotFound, "getting group")
	}
	g, err := repo.fromRow(row)
	if err != nil {
		return group.Group{}, err
	}
	groups := []group.Group{g}
	if err = repo.loadStudents(ctx, exec, groups); err != nil {
		return group.Group{}, err
	}
	return groups[0], nil
}

func (repo groupRepository) GroupExists(ctx context.Context, id string) (bool, error) {
	if !validID(id) {
		return false, nil
	}
	var found bool
	err := getExec(ctx, repo.db).GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM groups WHERE id = $1)`, id)
	return found, errors.Wrap(err, "checking group")
}

func (repo groupRepository) QueryGroups(ctx context.Context, filter *group.QueryFilter) ([]group.Group, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(title ILIKE ? OR description ILIKE ?)", val, val)
		}
		if filter.Level != "" {
			w.add("level = ?", filter.Level)
		}
	}
	exec := getExec(ctx, repo.db)
	q := `SELECT ` + groupColumns + ` FROM groups` + w.String() + ` ORDER BY created_at DESC`
	var rows []groupRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying groups")
	}
	groups := make([]group.Group, 0, len(rows))
	for _, r := range rows {
		g, err := repo.fromRow(r)
		if err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	if err := repo.loadStudents(ctx, exec, groups); err != nil {
		return nil, err
	}
	return groups, nil
}

func (repo groupRepository) UpdateGroup(ctx context.Context, g group.Group) (group.Group, error) {
	if !validID(g.ID) {
		return group.Group{}, group.ErrNotFound
	}
	row, err := repo.toRow(g)
	if err != nil {
		return group.Group{}, err
	}
	res, err := getExec(ctx, repo.db).NamedExecContext(ctx, `UPDATE groups SET
		title = :title, description = :description, level = :level, instructor_id = :instructor_id,
		max_students = :max_students, schedule = :schedule, inactive = :inactive, updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		return group.Group{}, errors.Wrap(err, "updating group")
	}
	if err = checkAffected(res, group.ErrNotFound); err != nil {
		return group.Group{}, err
	}
	return repo.GetGroup(ctx, g.ID)
}

func (repo groupRepository) DeleteGroup(ctx context.Context, id string) error {
	if !validID(id) {
		return group.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if isForeignKeyViolation(err) {
		return group.ErrHasLessons
	}
	if err != nil {
		return errors.Wrap(err, "deleting group")
	}
	return checkAffected(res, group.ErrNotFound)
}

func (repo groupRepository) AddStudent(ctx context.Context, groupID, studentID string) error {
	if !validID(groupID) {
		return group.ErrNotFound
	}
	if !validID(studentID) {
		return group.ErrStudentNotFound
	}
	_, err := getExec(ctx, repo.db).ExecContext(ctx, `INSERT INTO group_students (group_id, student_id, joined_at)
		VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`, groupID, studentID, time.Now().UTC())
	if isForeignKeyViolation(err) {
		return group.ErrStudentNotFound
	}
	return errors.Wrap(err, "adding group student")
}

func (repo groupRepository) RemoveStudent(ctx context.Context, groupID, studentID string) error {
	if !validID(groupID) || !validID(studentID) {
		return group.ErrStudentNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx,
		`DELETE FROM group_students WHERE group_id = $1 AND student_id = $2`, groupID, studentID)
	if err != nil {
		return errors.Wrap(err, "removing group student")
	}
	return checkAffected(res, group.ErrStudentNotFound)
}
