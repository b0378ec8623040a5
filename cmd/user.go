package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytplaylists/internal/models"
	"github.com/desertthunder/ytplaylists/internal/shared"
	"github.com/desertthunder/ytplaylists/internal/store"
	"github.com/urfave/cli/v3"
)

// UserCreate registers a user with the same validation the API applies.
func (r *Runner) UserCreate(ctx context.Context, cmd *cli.Command) error {
	st, err := r.openStore()
	if err != nil {
		return err
	}

	user, err := st.CreateUser(ctx, store.Registration{
		Username:  cmd.String("username"),
		Email:     cmd.String("email"),
		Password:  cmd.String("password"),
		FirstName: cmd.String("first-name"),
		LastName:  cmd.String("last-name"),
		AvatarRef: cmd.String("avatar"),
	})
	if err != nil {
		return err
	}

	r.logger.Info("user created", "username", user.Username, "id", user.ID)
	r.writePlain("✓ User created: %s (%s)\n", user.Username, user.ID)
	return nil
}

// UserShow prints a user's profile.
func (r *Runner) UserShow(ctx context.Context, cmd *cli.Command) error {
	username, err := requireArg(cmd, "username")
	if err != nil {
		return err
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}

	user, err := st.GetUser(ctx, username)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, cmd.Bool("pretty"))
	}
	r.printUser(user)
	return nil
}

// UserDelete removes a user and every playlist they own.
func (r *Runner) UserDelete(ctx context.Context, cmd *cli.Command) error {
	username, err := requireArg(cmd, "username")
	if err != nil {
		return err
	}

	st, err := r.openStore()
	if err != nil {
		return err
	}

	if err := st.DeleteUser(ctx, username); err != nil {
		return err
	}
	r.logger.Info("user deleted", "username", username)
	r.writePlain("✓ User deleted: %s\n", username)
	return nil
}

func (r *Runner) printUser(user *models.User) {
	r.writePlainHeader(user.Username)
	r.writePlain("ID:      %s\n", user.ID)
	r.writePlain("Name:    %s %s\n", user.FirstName, user.LastName)
	r.writePlain("Email:   %s\n", user.Email)
	r.writePlain("Avatar:  %s\n", user.AvatarRef)
	r.writePlain("Joined:  %s\n", user.CreatedAt.Format("2006-01-02 15:04"))
}

// requireArg returns the named positional argument or ErrMissingArgument.
func requireArg(cmd *cli.Command, name string) (string, error) {
	value := cmd.StringArg(name)
	if value == "" {
		return "", fmt.Errorf("%w: %s", shared.ErrMissingArgument, name)
	}
	return value, nil
}
