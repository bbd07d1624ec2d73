package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mahmoud01140/onlineEdu/core/user"
	inmemdb "github.com/mahmoud01140/onlineEdu/storage/database/inmem"
	"github.com/mahmoud01140/onlineEdu/tests"
)

func setup() *commandLine {
	return &commandLine{usrRepo: inmemdb.NewUserRepository(inmemdb.Open())}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	pwd        string
}

func mockPassword(pwd string) {
	readPasswordFunc = func(fd int) ([]byte, error) {
		return []byte(pwd), nil
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup()

	var gotCommand string
	var gotArgs []string
	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		gotCommand, gotArgs = command, args
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "create: no args", args: []string{"migrate", "create"}, wantErrStr: "create must be of form: goose [OPTIONS] DRIVER DBSTRING create NAME [go|sql]"},
		{name: "down-to: non-int arg", args: []string{"migrate", "down-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "create", args: []string{"migrate", "create", "live_exam_notes", "sql"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
				assert.Equal(t, tt.args[1], gotCommand)
				assert.Equal(t, tt.args[2:], gotArgs)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup()
	ctx := context.Background()

	tests := []cliTest{
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "name missing", args: []string{"adduser", "--email", "boss@test.eg"}, pwd: "s3cret!", wantErr: errHelp},
		{name: "password missing", args: []string{"adduser", "--email", "boss@test.eg", "--name", "Boss"}, wantErr: errHelp},
		{name: "unknown role", args: []string{"adduser", "--email", "boss@test.eg", "--name", "Boss", "--role", "guest"}, pwd: "s3cret!", wantErrStr: `unknown role "guest"`},
		{name: "unknown flag", args: []string{"adduser", "--username", "boss"}, wantErrStr: "unknown flag: --username"},
		{name: "create admin", args: []string{"adduser", "--email", " Boss@Test.eg ", "--name", "Boss"}, pwd: "s3cret!"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			switch {
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, err)
			case tt.wantErrStr != "":
				require.Error(t, err)
				assert.Equal(t, tt.wantErrStr, err.Error())
			default:
				require.NoError(t, err)
			}
		})
	}

	boss, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "boss@test.eg"})
	require.NoError(t, err)
	assert.Equal(t, "Boss", boss.Name)
	assert.Equal(t, user.RoleAdmin, boss.Role)
	assert.IsType(t, &user.AdminProfile{}, boss.Profile)
	assert.True(t, boss.IsActive)
	assert.NoError(t, boss.CheckPassword("s3cret!"))

	t.Run("existing user is updated", func(t *testing.T) {
		mockPassword("n3w-pass")
		require.NoError(t, cli.run([]string{"admin", "adduser", "--email", "boss@test.eg", "--name", "Big Boss", "--role", "teacher"}))

		usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: "boss@test.eg"})
		require.NoError(t, err)
		assert.Equal(t, boss.ID, usr.ID)
		assert.Equal(t, "Big Boss", usr.Name)
		assert.Equal(t, user.RoleTeacher, usr.Role)
		assert.IsType(t, &user.TeacherProfile{}, usr.Profile)
		assert.NoError(t, usr.CheckPassword("n3w-pass"))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup()
	usr := testutil.CreateUser(t, cli.usrRepo, "User", "awe@test.eg", "mdr", user.RoleStudent, true)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "--email", "lol@test.eg"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "--email", "lol@test.eg"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "--email", usr.Email}, pwd: "lol"},
		{name: "reset with mixed case email", args: []string{"resetpassword", "--email", "AWE@test.eg"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)
		mockPassword(tt.pwd)

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if tt.wantErr != nil {
				assert.Equal(t, tt.wantErr, err)
				return
			}
			require.NoError(t, err)
			refreshed, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
			require.NoError(t, err)
			assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password unchanged")
			assert.NoError(t, refreshed.CheckPassword(tt.pwd))
			usr = refreshed
		})
	}
}
