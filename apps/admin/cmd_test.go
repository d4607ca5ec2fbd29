package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/onestop/core/auth"
	"github.com/trezcool/onestop/core/user"
	inmemdb "github.com/trezcool/onestop/storage/database/inmem"
	"github.com/trezcool/onestop/tests"
)

func setup(t *testing.T, db *sql.DB) (*commandLine, user.Repository) {
	t.Helper()

	usrRepo := inmemdb.NewUserRepository(inmemdb.NewDB())
	validate, translator := testutil.NewValidator()
	return &commandLine{
		db:     db,
		usrSvc: user.NewService(usrRepo, auth.NewPasswordHasher(bcrypt.MinCost), validate, translator),
		out:    new(bytes.Buffer),
	}, usrRepo
}

func mockPassword(t *testing.T, pwd string) {
	orig := readPasswordFunc
	readPasswordFunc = func(fd int) ([]byte, error) { return []byte(pwd), nil }
	t.Cleanup(func() { readPasswordFunc = orig })
}

type cliTest struct {
	name       string
	args       []string // without program name
	pwd        string
	wantErr    error
	wantErrStr string
}

func (tt cliTest) check(t *testing.T, err error) {
	t.Helper()
	switch {
	case tt.wantErr != nil:
		assert.Equal(t, tt.wantErr, errors.Cause(err))
	case tt.wantErrStr != "":
		require.Error(t, err)
		assert.Equal(t, tt.wantErrStr, err.Error())
	default:
		assert.NoError(t, err)
	}
}

func Test_commandLine_migrate(t *testing.T) {
	cli, _ := setup(t, new(sql.DB))

	var ran []string
	orig := gooseRunFunc
	t.Cleanup(func() { gooseRunFunc = orig })
	gooseRunFunc = func(command string, db *sql.DB, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s must be of form: goose [OPTIONS] DRIVER DBSTRING %s VERSION", command, command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		ran = append(ran, command)
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to must be of form: goose [OPTIONS] DRIVER DBSTRING up-to VERSION"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to must be of form: goose [OPTIONS] DRIVER DBSTRING down-to VERSION"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "up-to", args: []string{"migrate", "up-to", "2"}},
		{name: "down-to", args: []string{"migrate", "down-to", "1"}},
		{name: "status", args: []string{"migrate", "status"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}
	assert.Equal(t, []string{"up", "up-to", "down-to", "status"}, ran)

	t.Run("in-memory engine", func(t *testing.T) {
		cli, _ := setup(t, nil)
		assert.Equal(t, errNoSQL, cli.run([]string{"admin", "migrate", "up"}))
	})
}

func Test_commandLine_addUser(t *testing.T) {
	cli, usrRepo := setup(t, nil)

	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"adduser"}, wantErr: errHelp},
		{name: "no name", args: []string{"adduser", "-email", "root@x.com"}, pwd: "pw", wantErr: errHelp},
		{name: "no password", args: []string{"adduser", "-email", "root@x.com", "-name", "Root"}, wantErr: errHelp},
		{name: "bad flag", args: []string{"adduser", "-lol"}, wantErr: errHelp},
		{name: "invalid role", args: []string{"adduser", "-email", "root@x.com", "-name", "Root", "-role", "janitor"}, pwd: "pw", wantErrStr: user.MsgInvalidRole},
		{name: "admin by default", args: []string{"adduser", "-email", "Root@X.com", "-name", "Root"}, pwd: "pw"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	usr, err := usrRepo.GetUserByEmail(context.Background(), "root@x.com")
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, usr.Role)
	assert.NoError(t, bcrypt.CompareHashAndPassword(usr.PasswordHash, []byte("pw")))

	t.Run("existing user is updated", func(t *testing.T) {
		mockPassword(t, "newpw")
		err := cli.run([]string{"admin", "adduser", "-email", "root@x.com", "-name", "Root Again", "-role", "teacher"})
		require.NoError(t, err)

		updated, err := usrRepo.GetUserByID(context.Background(), usr.ID)
		require.NoError(t, err)
		assert.Equal(t, "Root Again", updated.Name)
		assert.Equal(t, user.RoleTeacher, updated.Role)
		assert.NoError(t, bcrypt.CompareHashAndPassword(updated.PasswordHash, []byte("newpw")))
	})
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli, usrRepo := setup(t, nil)
	usr := testutil.CreateUser(t, usrRepo, "alice", "alice@x.com", "pw123", user.RoleStudent)

	tests := []cliTest{
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "email but no password", args: []string{"resetpassword", "-email", "alice@x.com"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-email", "bob@x.com"}, pwd: "lol", wantErr: user.ErrNotFound},
		{name: "reset", args: []string{"resetpassword", "-email", "ALICE@x.com"}, pwd: "lmao"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			mockPassword(t, tt.pwd)
			tt.check(t, cli.run(append([]string{"admin"}, tt.args...)))
		})
	}

	refreshed, err := usrRepo.GetUserByID(context.Background(), usr.ID)
	require.NoError(t, err)
	assert.False(t, bytes.Equal(refreshed.PasswordHash, usr.PasswordHash), "password updated")
	assert.NoError(t, bcrypt.CompareHashAndPassword(refreshed.PasswordHash, []byte("lmao")))
}
