package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core"
	"github.com/7arhan4hmed/scolarit-classroom-ai-sub000/core/user"
)

var errInvalidRole = errors.New("invalid role")

// addUser updates or creates an active user.User with the given role.
func (cli *commandLine) addUser(name, email, role, pwd string) error {
	ctx := context.Background()
	name = core.CleanString(name)
	email = core.CleanString(email, true /* lower */)
	role = core.CleanString(role, true /* lower */)
	if user.RolePriority(role) == 0 {
		return errors.Wrap(errInvalidRole, role)
	}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	switch errors.Cause(err) {
	case nil:
		usr.FullName = name
		usr.Roles = []string{role}
		usr.IsActive = true
		usr.UpdatedAt = core.NowFunc()
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "setting password")
		}
		if usr, err = cli.usrRepo.UpdateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "updating user")
		}
		cli.printf("updated %s <%s>\n", usr.FullName, usr.Email)

	case user.ErrNotFound:
		now := core.NowFunc()
		usr = user.User{
			ID:        core.NewID(),
			FullName:  name,
			Email:     email,
			IsActive:  true,
			Roles:     []string{role},
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err = usr.SetPassword(pwd); err != nil {
			return errors.Wrap(err, "setting password")
		}
		if usr, err = cli.usrRepo.CreateUser(ctx, usr); err != nil {
			return errors.Wrap(err, "creating user")
		}
		cli.printf("created %s <%s>\n", usr.FullName, usr.Email)

	default:
		return errors.Wrap(err, "finding user")
	}
	return nil
}
