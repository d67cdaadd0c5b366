package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// Actor resolves an authenticated NRIC to its user record.
func (e *Engine) Actor(ctx context.Context, nric string) (model.User, error) {
	var u model.User
	err := e.store.View(ctx, func(tx repository.Tx) error {
		found, err := findUser(ctx, tx, nric)
		if err != nil {
			return err
		}
		u = *found
		return nil
	})
	return u, err
}

// PutUser creates or replaces a user record.
func (e *Engine) PutUser(ctx context.Context, u model.User) error {
	u.NRIC = strings.ToUpper(strings.TrimSpace(u.NRIC))
	if !model.ValidNRIC(u.NRIC) {
		return model.Validationf("invalid NRIC %q", u.NRIC)
	}
	role, err := model.ParseRole(string(u.Role))
	if err != nil {
		return err
	}
	status, err := model.ParseMaritalStatus(string(u.MaritalStatus))
	if err != nil {
		return err
	}
	u.Role, u.MaritalStatus = role, status
	if u.Age < 0 {
		return model.ErrNegativeValue
	}
	return e.store.Update(ctx, func(tx repository.Tx) error {
		if err := tx.Users().Save(ctx, &u); err != nil {
			return fmt.Errorf("save user: %w", err)
		}
		return nil
	})
}
