package sqlxrepos

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

const userColumns = `id, name, email, password_hash, role, phone, age, address, level, is_active,
	passed_level_exam, passed_live_exam, profile, created_at, updated_at`

var userOrderColumns = map[string]string{
	"name":      "name",
	"email":     "email",
	"role":      "role",
	"createdAt": "created_at",
}

type userRow struct {
	ID              string    `db:"id"`
	Name            string    `db:"name"`
	Email           string    `db:"email"`
	PasswordHash    []byte    `db:"password_hash"`
	Role            string    `db:"role"`
	Phone           string    `db:"phone"`
	Age             null.Int  `db:"age"`
	Address         string    `db:"address"`
	Level           string    `db:"level"`
	IsActive        bool      `db:"is_active"`
	PassedLevelExam bool      `db:"passed_level_exam"`
	PassedLiveExam  bool      `db:"passed_live_exam"`
	Profile         []byte    `db:"profile"`
	CreatedAt       time.Time `db:"created_at"`
	UpdatedAt       time.Time `db:"updated_at"`
}

type examResultRow struct {
	UserID  string    `db:"user_id"`
	ExamID  string    `db:"exam_id"`
	Result  int       `db:"result"`
	TakenAt time.Time `db:"taken_at"`
}

type membershipRow struct {
	GroupID   string `db:"group_id"`
	StudentID string `db:"student_id"`
}

type userRepository struct {
	db *sqlx.DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{db: db}
}

func (repo userRepository) toRow(usr user.User) (userRow, error) {
	prof := []byte("{}")
	if usr.Profile != nil {
		var err error
		if prof, err = json.Marshal(usr.Profile); err != nil {
			return userRow{}, errors.Wrap(err, "encoding profile")
		}
	}
	return userRow{
		ID:              usr.ID,
		Name:            usr.Name,
		Email:           usr.Email,
		PasswordHash:    usr.PasswordHash,
		Role:            usr.Role,
		Phone:           usr.Phone,
		Age:             null.NewInt(usr.Age, usr.Age != 0),
		Address:         usr.Address,
		Level:           usr.Level,
		IsActive:        usr.IsActive,
		PassedLevelExam: usr.PassedLevelExam,
		PassedLiveExam:  usr.PassedLiveExam,
		Profile:         prof,
		CreatedAt:       usr.CreatedAt.UTC(),
		UpdatedAt:       usr.UpdatedAt.UTC(),
	}, nil
}

func (repo userRepository) fromRow(r userRow) (user.User, error) {
	prof, err := user.DecodeProfile(r.Role, r.Profile)
	if err != nil {
		return user.User{}, errors.Wrap(err, "decoding profile")
	}
	return user.User{
		ActorCore: user.ActorCore{
			ID:              r.ID,
			Name:            r.Name,
			Email:           r.Email,
			Role:            r.Role,
			Phone:           r.Phone,
			Age:             r.Age.Int,
			Address:         r.Address,
			Level:           r.Level,
			IsActive:        r.IsActive,
			PassedLevelExam: r.PassedLevelExam,
			PassedLiveExam:  r.PassedLiveExam,
			CreatedAt:       r.CreatedAt.UTC(),
			UpdatedAt:       r.UpdatedAt.UTC(),
		},
		PasswordHash: r.PasswordHash,
		Profile:      prof,
		Groups:       []string{},
		Exams:        []user.ExamResult{},
	}, nil
}

// loadRelations fills the groups and exam history of users.
func (repo userRepository) loadRelations(ctx context.Context, exec executor, users []user.User) error {
	if len(users) == 0 {
		return nil
	}
	ids := make([]string, 0, len(users))
	idx := make(map[string]int, len(users))
	for i, u := range users {
		ids = append(ids, u.ID)
		idx[u.ID] = i
	}

	q, args, err := sqlx.In(`SELECT group_id, student_id FROM group_students
		WHERE student_id IN (?) ORDER BY joined_at, group_id`, ids)
	if err != nil {
		return errors.Wrap(err, "building groups query")
	}
	var members []membershipRow
	if err = exec.SelectContext(ctx, &members, exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "querying user groups")
	}
	for _, m := range members {
		u := &users[idx[m.StudentID]]
		u.Groups = append(u.Groups, m.GroupID)
	}

	q, args, err = sqlx.In(`SELECT user_id, exam_id, result, taken_at FROM user_exam_results
		WHERE user_id IN (?) ORDER BY taken_at`, ids)
	if err != nil {
		return errors.Wrap(err, "building exams query")
	}
	var results []examResultRow
	if err = exec.SelectContext(ctx, &results, exec.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "querying user exams")
	}
	for _, r := range results {
		u := &users[idx[r.UserID]]
		u.Exams = append(u.Exams, user.ExamResult{ExamID: r.ExamID, Result: r.Result, TakenAt: r.TakenAt.UTC()})
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User) (user.User, error) {
	usr.ID = uuid.NewString()
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}
	_, err = getExec(ctx, repo.db).NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`) VALUES (
		:id, :name, :email, :password_hash, :role, :phone, :age, :address, :level, :is_active,
		:passed_level_exam, :passed_live_exam, :profile, :created_at, :updated_at)`, row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	usr.Groups, usr.Exams = []string{}, []user.ExamResult{}
	return usr, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter) (user.User, error) {
	exec := getExec(ctx, repo.db)
	var (
		row userRow
		err error
	)
	switch {
	case filter.ID != "":
		if !validID(filter.ID) {
			return user.User{}, user.ErrNotFound
		}
		err = exec.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE id = $1`, filter.ID)
	case filter.Email != "":
		err = exec.GetContext(ctx, &row, `SELECT `+userColumns+` FROM users WHERE email = $1`, filter.Email)
	default:
		return user.User{}, user.ErrNotFound
	}
	if err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "getting user")
	}

	usr, err := repo.fromRow(row)
	if err != nil {
		return user.User{}, err
	}
	users := []user.User{usr}
	if err = repo.loadRelations(ctx, exec, users); err != nil {
		return user.User{}, err
	}
	return users[0], nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering ...core.DBOrdering) ([]user.User, error) {
	var w where
	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			w.add("(name ILIKE ? OR email ILIKE ?)", val, val)
		}
		if filter.Role != "" {
			w.add("role = ?", filter.Role)
		}
		if filter.Level != "" {
			w.add("level = ?", filter.Level)
		}
		if filter.IsActive != nil {
			w.add("is_active = ?", *filter.IsActive)
		}
		if filter.WithoutGrp {
			w.add("NOT EXISTS (SELECT 1 FROM group_students gs WHERE gs.student_id = users.id)")
		}
	}

	orderList := make([]string, 0, len(ordering)+1)
	for _, ord := range ordering {
		if col, ok := userOrderColumns[ord.Field]; ok {
			orderList = append(orderList, core.DBOrdering{Field: col, Ascending: ord.Ascending}.String())
		}
	}
	if len(orderList) == 0 {
		orderList = append(orderList, "created_at DESC")
	}

	exec := getExec(ctx, repo.db)
	q := `SELECT ` + userColumns + ` FROM users` + w.String() + ` ORDER BY ` + strings.Join(orderList, ", ")
	var rows []userRow
	if err := exec.SelectContext(ctx, &rows, exec.Rebind(q), w.args...); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}

	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		u, err := repo.fromRow(r)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := repo.loadRelations(ctx, exec, users); err != nil {
		return nil, err
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User) (user.User, error) {
	if !validID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	row, err := repo.toRow(usr)
	if err != nil {
		return user.User{}, err
	}
	res, err := getExec(ctx, repo.db).NamedExecContext(ctx, `UPDATE users SET
		name = :name, email = :email, password_hash = :password_hash, role = :role, phone = :phone,
		age = :age, address = :address, level = :level, is_active = :is_active, profile = :profile,
		updated_at = :updated_at
		WHERE id = :id`, row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if err = checkAffected(res, user.ErrNotFound); err != nil {
		return user.User{}, err
	}
	return repo.GetUser(ctx, user.GetFilter{ID: usr.ID})
}

func (repo userRepository) DeleteUser(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting user")
	}
	return checkAffected(res, user.ErrNotFound)
}

func (repo userRepository) SetPassedLiveExam(ctx context.Context, id string) error {
	if !validID(id) {
		return user.ErrNotFound
	}
	res, err := getExec(ctx, repo.db).ExecContext(ctx,
		`UPDATE users SET passed_live_exam = true, updated_at = $2 WHERE id = $1`, id, time.Now().UTC())
	if err != nil {
		return errors.Wrap(err, "setting live exam flag")
	}
	return checkAffected(res, user.ErrNotFound)
}

// AddExamResult inserts the result and sets the level flag in one statement.
// The (user, exam) primary key makes concurrent duplicate submissions lose.
func (repo userRepository) AddExamResult(ctx context.Context, userID string, res user.ExamResult, passedLevelExam bool) error {
	if !validID(userID) {
		return user.ErrNotFound
	}
	var id string
	err := getExec(ctx, repo.db).QueryRowxContext(ctx, `
		WITH ins AS (
			INSERT INTO user_exam_results (user_id, exam_id, result, taken_at) VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, exam_id) DO NOTHING
			RETURNING user_id
		)
		UPDATE users SET passed_level_exam = passed_level_exam OR $5, updated_at = $4
		WHERE id IN (SELECT user_id FROM ins)
		RETURNING id`,
		userID, res.ExamID, res.Result, res.TakenAt.UTC(), passedLevelExam,
	).Scan(&id)
	switch {
	case err == nil:
		return nil
	case err == sql.ErrNoRows:
		return user.ErrResultExists
	case isForeignKeyViolation(err):
		return user.ErrNotFound
	}
	return errors.Wrap(err, "adding exam result")
}

func (repo userRepository) RemoveExamResult(ctx context.Context, userID, examID string) error {
	if !validID(userID) || !validID(examID) {
		return nil
	}
	_, err := getExec(ctx, repo.db).ExecContext(ctx,
		`DELETE FROM user_exam_results WHERE user_id = $1 AND exam_id = $2`, userID, examID)
	return errors.Wrap(err, "removing exam result")
}
