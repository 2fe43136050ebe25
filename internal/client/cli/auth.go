package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/taskflow/internal/client/api"
	"github.com/dmitrijs2005/taskflow/internal/common"
)

// Register asks for name, email and password, requests an OTP and then
// verifies the code the user received. On success the user is signed in.
func (a *App) Register(ctx context.Context) error {
	name, err := getSimpleText(a.reader, "Enter your name", a.out)
	if err != nil {
		return err
	}
	email, err := getSimpleText(a.reader, "Enter email", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.SendOTP(ctx, email, string(password), name); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "A one-time code was sent to %s\n", email)

	otp, err := getSimpleText(a.reader, "Enter the code", a.out)
	if err != nil {
		return err
	}

	user, err := a.api.VerifyOTP(ctx, email, otp, string(password), name)
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintf(a.out, "Welcome, %s!\n", user.Name)
	return nil
}

// Login accepts an email or user name and a password.
func (a *App) Login(ctx context.Context) error {
	identifier, err := getSimpleText(a.reader, "Enter email or username", a.out)
	if err != nil {
		return err
	}
	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	user, err := a.api.Login(ctx, identifier, string(password))
	if err != nil {
		return err
	}

	a.user = user
	fmt.Fprintln(a.out, "Login successful")
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	user, err := a.api.CurrentUser(ctx)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			a.user = nil
			fmt.Fprintln(a.out, "Session expired, please login again")
			return nil
		}
		return err
	}
	a.user = user
	fmt.Fprintf(a.out, "%s <%s>, member since %s\n", user.Name, user.UserName, user.CreatedAt.Format("2006-01-02"))
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.api.Logout(ctx); err != nil {
		return err
	}
	a.user = nil
	fmt.Fprintln(a.out, "Logged out")
	return nil
}
