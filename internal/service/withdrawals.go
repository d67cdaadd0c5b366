package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// checkNoLiveWithdrawal fails with model.ErrWithdrawalExists when a
// withdrawal other than self is still live for the application.
func checkNoLiveWithdrawal(ctx context.Context, tx repository.Tx, applicationID, self string) error {
	existing, err := tx.Withdrawals().FindByApplicationID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("list withdrawals: %w", err)
	}
	for _, x := range existing {
		if x.ID != self && x.Live() {
			return fmt.Errorf("%w: %s", model.ErrWithdrawalExists, x.ID)
		}
	}
	return nil
}

// checkWithdrawable loads the applicant's application and fails unless a new
// withdrawal may still be raised against it. self is excluded from the live
// withdrawal check.
func checkWithdrawable(ctx context.Context, tx repository.Tx, applicant model.User, applicationID, self string) (*model.Application, error) {
	app, err := findApplication(ctx, tx, applicationID)
	if err != nil {
		return nil, err
	}
	if !app.OwnedBy(applicant.NRIC) {
		return nil, model.ErrNotOwner
	}
	if app.Final() {
		return nil, fmt.Errorf("%w: %s is %s", model.ErrApplicationFinal, app.ID, app.Status)
	}
	if err := checkNoLiveWithdrawal(ctx, tx, app.ID, self); err != nil {
		return nil, err
	}
	return app, nil
}

// DraftWithdrawal creates a DRAFT withdrawal of the applicant's application.
// The draft already blocks a second withdrawal and edits of the application.
func (e *Engine) DraftWithdrawal(ctx context.Context, applicant model.User, applicationID, reason string) (*model.Withdrawal, error) {
	return e.createWithdrawal(ctx, "draft_withdrawal", applicant, applicationID, reason, false)
}

// RequestWithdrawal asks the project manager to withdraw the applicant's
// application. The withdrawal is created and submitted in one step.
func (e *Engine) RequestWithdrawal(ctx context.Context, applicant model.User, applicationID, reason string) (*model.Withdrawal, error) {
	return e.createWithdrawal(ctx, "request_withdrawal", applicant, applicationID, reason, true)
}

func (e *Engine) createWithdrawal(ctx context.Context, op string, applicant model.User, applicationID, reason string, submit bool) (*model.Withdrawal, error) {
	var w *model.Withdrawal
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		app, err := checkWithdrawable(ctx, tx, applicant, applicationID, "")
		if err != nil {
			return err
		}

		w = model.NewWithdrawal(applicant, app, reason, e.now())
		if submit {
			if err := w.Submit(applicant, e.now()); err != nil {
				return err
			}
		}
		return tx.Withdrawals().Save(ctx, w)
	})
	if err != nil {
		return nil, e.done(op, applicant, applicationID, err)
	}
	e.recordTransition(w)
	return w, nil
}

// SubmitWithdrawal sends the applicant's DRAFT withdrawal for approval. It
// fails when the application has reached a final state since drafting.
func (e *Engine) SubmitWithdrawal(ctx context.Context, applicant model.User, id string) (*model.Withdrawal, error) {
	return mutateDocument(ctx, e, "submit_withdrawal", applicant, id, func(tx repository.Tx, w *model.Withdrawal) error {
		if !w.OwnedBy(applicant.NRIC) {
			return model.ErrNotOwner
		}
		if _, err := checkWithdrawable(ctx, tx, applicant, w.ApplicationID, w.ID); err != nil {
			return err
		}
		return w.Submit(applicant, e.now())
	})
}

// EditWithdrawal changes the reason on the applicant's DRAFT withdrawal.
func (e *Engine) EditWithdrawal(ctx context.Context, applicant model.User, id, reason string) (*model.Withdrawal, error) {
	return mutateDocument(ctx, e, "edit_withdrawal", applicant, id, func(_ repository.Tx, w *model.Withdrawal) error {
		return w.Edit(applicant, reason, e.now())
	})
}

// DeleteWithdrawal closes the applicant's DRAFT withdrawal, which releases
// the application for edits again.
func (e *Engine) DeleteWithdrawal(ctx context.Context, applicant model.User, id string) (*model.Withdrawal, error) {
	return mutateDocument(ctx, e, "delete_withdrawal", applicant, id, func(_ repository.Tx, w *model.Withdrawal) error {
		return w.Delete(applicant, e.now())
	})
}

// ProcessWithdrawal approves or rejects a pending withdrawal. The manager is
// authorized against the project the application currently refers to.
// Approval withdraws the application and, when it had been booked, returns
// the booked unit to the project inventory. The application, the inventory
// and the withdrawal are written in one store transaction.
func (e *Engine) ProcessWithdrawal(ctx context.Context, manager model.User, id string, approve bool, reason string) (*model.Withdrawal, error) {
	var (
		wrote    bool
		w        *model.Withdrawal
		app      *model.Application
		project  *model.Project
		released model.FlatType
	)
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		wd, err := findWithdrawal(ctx, tx, id)
		if err != nil {
			return err
		}
		a, err := findApplication(ctx, tx, wd.ApplicationID)
		if err != nil {
			return err
		}
		p, err := findProject(ctx, tx, a.ProjectName)
		if err != nil {
			return err
		}
		w, project = wd, p

		if !approve {
			if err := wd.Reject(manager, p, reason, e.now()); err != nil {
				return err
			}
			return tx.Withdrawals().Save(ctx, wd)
		}

		if err := wd.Approve(manager, p, e.now()); err != nil {
			return err
		}
		prev := a.Status
		if err := a.Withdraw(manager.NRIC, e.now()); err != nil {
			return err
		}
		app = a

		if prev == model.StatusBooked {
			if !p.IncrementRemainingUnit(a.BookedFlatType) {
				e.log.Error("booked unit cannot be released",
					zap.String("application", a.ID),
					zap.String("project", p.Name),
					zap.String("flat_type", string(a.BookedFlatType)),
				)
				return fmt.Errorf("%w: %s %s", model.ErrInventoryConflict, p.Name, a.BookedFlatType)
			}
			released = a.BookedFlatType
			if err := tx.Projects().Save(ctx, p); err != nil {
				return fmt.Errorf("save project inventory: %w", err)
			}
			wrote = true
		}
		if err := tx.Applications().Save(ctx, a); err != nil {
			return err
		}
		wrote = true
		return tx.Withdrawals().Save(ctx, wd)
	})
	if err != nil {
		if wrote {
			e.log.Warn("withdrawal rolled back", zap.String("withdrawal", id), zap.Error(err))
		}
		return nil, e.done("process_withdrawal", manager, id, err)
	}

	e.recordTransition(w)
	if app != nil {
		e.recordTransition(app)
	}
	if released != "" {
		e.metrics.RecordInventory(project)
		e.log.Info("booked unit released",
			zap.String("application", app.ID),
			zap.String("project", project.Name),
			zap.String("flat_type", string(released)),
		)
	}
	return w, nil
}
