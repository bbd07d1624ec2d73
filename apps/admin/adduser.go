package main

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/mahmoud01140/onlineEdu/core"
	"github.com/mahmoud01140/onlineEdu/core/user"
)

// addUser creates an active user of role, or updates the one registered under email.
func (cli *commandLine) addUser(name, email, pwd, role string) error {
	ctx := context.Background()
	name = core.CleanString(name, false)
	email = core.CleanString(email, true /* lower */)
	prof, err := user.EmptyProfile(role)
	if err != nil {
		return err
	}

	usr, err := cli.usrRepo.GetUser(ctx, user.GetFilter{Email: email})
	found := err == nil
	if err != nil && errors.Cause(err) != user.ErrNotFound {
		return err
	}

	now := time.Now().UTC()
	if !found {
		usr = user.User{ActorCore: user.ActorCore{Email: email, Level: user.LevelBeginner, CreatedAt: now}}
	}
	if usr.Role != role {
		usr.Profile = prof
	}
	usr.Name = name
	usr.Role = role
	usr.IsActive = true
	usr.UpdatedAt = now
	if err := usr.SetPassword(pwd); err != nil {
		return err
	}

	if found {
		_, err = cli.usrRepo.UpdateUser(ctx, usr)
	} else {
		_, err = cli.usrRepo.CreateUser(ctx, usr)
	}
	return err
}
