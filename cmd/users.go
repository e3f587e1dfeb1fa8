package main

import (
	"context"
	"time"

	"github.com/desertthunder/foodgram/internal/models"
	"github.com/urfave/cli/v3"
)

type userRow struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	IsStaff   bool      `json:"is_staff"`
	CreatedAt time.Time `json:"created_at"`
}

// UsersList prints every registered user.
func (r *Runner) UsersList(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	users, err := store.Users.List(models.Page{})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		rows := make([]userRow, 0, len(users))
		for _, u := range users {
			rows = append(rows, userRow{
				ID:        u.ID(),
				Email:     u.Email(),
				Username:  u.Username(),
				IsStaff:   u.IsStaff(),
				CreatedAt: u.CreatedAt(),
			})
		}
		return r.writeJSON(rows, cmd.Bool("pretty"))
	}

	r.writePlainHeader("Users")
	for _, u := range users {
		staff := ""
		if u.IsStaff() {
			staff = " [staff]"
		}
		r.writePlain("%-4d %-20s %s%s\n", u.ID(), u.Username(), u.Email(), staff)
	}
	r.writePlainln("Total: %d", len(users))
	return nil
}

// UsersStaff grants or revokes the staff flag.
func (r *Runner) UsersStaff(ctx context.Context, cmd *cli.Command) error {
	if err := r.useConfig(cmd); err != nil {
		return err
	}

	db, store, err := r.openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	user, err := store.Users.GetByEmail(cmd.String("email"))
	if err != nil {
		return err
	}

	staff := !cmd.Bool("revoke")
	user.SetStaff(staff)
	if err := store.Users.Update(user); err != nil {
		return err
	}

	r.logger.Info("updated staff flag", "user", user.Username(), "staff", staff)
	if staff {
		r.writePlain("✓ %s is now staff\n", user.Username())
	} else {
		r.writePlain("✓ %s is no longer staff\n", user.Username())
	}
	return nil
}
