package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/onestop/core/user"
)

// addUser registers a new user, or resets the password and role of an existing one.
func (cli *commandLine) addUser(name, email, pwd, role string) error {
	ctx := context.Background()

	usr, err := cli.usrSvc.Register(ctx, user.NewUser{Name: name, Email: email, Password: pwd, Role: role})
	if errors.Cause(err) == user.ErrEmailExists {
		if usr, err = cli.usrSvc.SetPassword(ctx, email, pwd); err != nil {
			return err
		}
		uu := user.UpdateUser{
			Name:         name,
			Role:         role,
			Department:   usr.Department.String,
			EnrollmentNo: usr.EnrollmentNo.String,
			EmployeeID:   usr.EmployeeID.String,
		}
		if usr, err = cli.usrSvc.Update(ctx, usr.ID, uu, true /* asAdmin */); err != nil {
			return err
		}
		fmt.Fprintf(cli.out, "updated user %d <%s> (%s)\n", usr.ID, usr.Email, usr.Role)
		return nil
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "created user %d <%s> (%s)\n", usr.ID, usr.Email, usr.Role)
	return nil
}

func (cli *commandLine) resetPassword(email, pwd string) error {
	usr, err := cli.usrSvc.SetPassword(context.Background(), email, pwd)
	if err != nil {
		return err
	}
	fmt.Fprintf(cli.out, "password of %s updated\n", usr.Email)
	return nil
}

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoSQL
	}
	return gooseRunFunc(args[0], cli.db, args[1:]...)
}
