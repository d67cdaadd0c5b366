package service

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/Shivanand-hulikatti/bto-housing/internal/eligibility"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// checkCanApply runs the gates an application must pass before it is created
// or submitted for project. self names the caller's own draft, which does
// not count against the one-active-application rule.
func checkCanApply(ctx context.Context, tx repository.Tx, actor model.User, project *model.Project, self string) error {
	profile, ok := actor.ApplicantProfile()
	if !ok {
		return model.ErrCannotApply
	}
	if !project.Visible {
		return model.ErrProjectHidden
	}

	booked, err := tx.Applications().FindBookedApplicationByApplicantNRIC(ctx, actor.NRIC)
	switch {
	case err == nil && booked.ID != self:
		return fmt.Errorf("%w: %s", model.ErrAlreadyBooked, booked.ID)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("find booked application: %w", err)
	}
	active, err := tx.Applications().FindActiveApplicationByApplicantNRIC(ctx, actor.NRIC)
	switch {
	case err == nil && active.ID != self:
		return fmt.Errorf("%w: %s", model.ErrActiveApplication, active.ID)
	case err != nil && !errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("find active application: %w", err)
	}

	if actor.IsOfficer() {
		handling, err := isHandling(ctx, tx, actor.NRIC, project)
		if err != nil {
			return err
		}
		if handling {
			return fmt.Errorf("%w: %s", model.ErrHandlingProject, project.Name)
		}
	}

	if !eligibility.CanApply(profile, project.OfferedTypes()) {
		return fmt.Errorf("%w: %s", model.ErrIneligible, project.Name)
	}
	return nil
}

// isHandling reports whether the officer holds a slot on, or a live
// registration for, project.
func isHandling(ctx context.Context, tx repository.Tx, officerNRIC string, project *model.Project) (bool, error) {
	if project.HasOfficer(officerNRIC) {
		return true, nil
	}
	regs, err := tx.Registrations().FindByOfficerNRIC(ctx, officerNRIC)
	if err != nil {
		return false, fmt.Errorf("list registrations: %w", err)
	}
	for _, r := range regs {
		if r.ProjectName == project.Name && r.Live() {
			return true, nil
		}
	}
	return false, nil
}

// DraftApplication creates a DRAFT application for projectName.
func (e *Engine) DraftApplication(ctx context.Context, actor model.User, projectName string) (*model.Application, error) {
	return e.createApplication(ctx, "draft_application", actor, projectName, false)
}

// Apply creates an application for projectName and submits it for approval.
func (e *Engine) Apply(ctx context.Context, actor model.User, projectName string) (*model.Application, error) {
	return e.createApplication(ctx, "apply", actor, projectName, true)
}

func (e *Engine) createApplication(ctx context.Context, op string, actor model.User, projectName string, submit bool) (*model.Application, error) {
	var app *model.Application
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		project, err := findProject(ctx, tx, projectName)
		if err != nil {
			return err
		}
		if err := checkCanApply(ctx, tx, actor, project, ""); err != nil {
			return err
		}
		app = model.NewApplication(actor, project.Name, e.now())
		if submit {
			if err := app.Submit(actor, e.now()); err != nil {
				return err
			}
		}
		return tx.Applications().Save(ctx, app)
	})
	if err != nil {
		return nil, e.done(op, actor, projectName, err)
	}
	e.recordTransition(app)
	return app, nil
}

// SubmitApplication sends the actor's DRAFT application for approval. The
// apply gates are re-run since the project or the actor's situation may have
// changed since the draft was made.
func (e *Engine) SubmitApplication(ctx context.Context, actor model.User, id string) (*model.Application, error) {
	var app *model.Application
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		if !a.OwnedBy(actor.NRIC) {
			return model.ErrNotOwner
		}
		project, err := findProject(ctx, tx, a.ProjectName)
		if err != nil {
			return err
		}
		if err := checkCanApply(ctx, tx, actor, project, a.ID); err != nil {
			return err
		}
		if err := a.Submit(actor, e.now()); err != nil {
			return err
		}
		app = a
		return tx.Applications().Save(ctx, a)
	})
	if err != nil {
		return nil, e.done("submit_application", actor, id, err)
	}
	e.recordTransition(app)
	return app, nil
}

// EditApplication retargets the actor's DRAFT application at projectName.
// An application with a live withdrawal request cannot be retargeted.
func (e *Engine) EditApplication(ctx context.Context, actor model.User, id, projectName string) (*model.Application, error) {
	var app *model.Application
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		if !a.OwnedBy(actor.NRIC) {
			return model.ErrNotOwner
		}
		if err := checkNoLiveWithdrawal(ctx, tx, a.ID, ""); err != nil {
			return err
		}
		project, err := findProject(ctx, tx, projectName)
		if err != nil {
			return err
		}
		if err := a.Edit(actor, project.Name, e.now()); err != nil {
			return err
		}
		if err := checkCanApply(ctx, tx, actor, project, a.ID); err != nil {
			return err
		}
		app = a
		return tx.Applications().Save(ctx, a)
	})
	if err != nil {
		return nil, e.done("edit_application", actor, id, err)
	}
	return app, nil
}

// DeleteApplication closes the actor's DRAFT application.
func (e *Engine) DeleteApplication(ctx context.Context, actor model.User, id string) (*model.Application, error) {
	var app *model.Application
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := a.Delete(actor, e.now()); err != nil {
			return err
		}
		app = a
		return tx.Applications().Save(ctx, a)
	})
	if err != nil {
		return nil, e.done("delete_application", actor, id, err)
	}
	e.recordTransition(app)
	return app, nil
}

// ProcessApplication approves or rejects a pending application. Approval
// does not check remaining supply; availability is enforced at booking.
func (e *Engine) ProcessApplication(ctx context.Context, manager model.User, id string, approve bool, reason string) (*model.Application, error) {
	var app *model.Application
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		project, err := findProject(ctx, tx, a.ProjectName)
		if err != nil {
			return err
		}
		if approve {
			err = a.Approve(manager, project, e.now())
		} else {
			err = a.Reject(manager, project, reason, e.now())
		}
		if err != nil {
			return err
		}
		app = a
		return tx.Applications().Save(ctx, a)
	})
	if err != nil {
		return nil, e.done("process_application", manager, id, err)
	}
	e.recordTransition(app)
	return app, nil
}

// ListApplications returns the applications actor may see: applicants their
// own, officers their own plus those on projects they handle, managers those
// on projects they own.
func (e *Engine) ListApplications(ctx context.Context, actor model.User) ([]*model.Application, error) {
	seen := make(map[string]*model.Application)
	err := e.store.View(ctx, func(tx repository.Tx) error {
		var projects []*model.Project
		switch actor.Role {
		case model.RoleManager:
			owned, err := tx.Projects().FindByManager(ctx, actor.NRIC)
			if err != nil {
				return fmt.Errorf("list managed projects: %w", err)
			}
			projects = owned
		case model.RoleOfficer:
			handled, err := handledProjects(ctx, tx, actor.NRIC)
			if err != nil {
				return err
			}
			projects = handled
		}
		if _, ok := actor.ApplicantProfile(); ok {
			own, err := tx.Applications().FindByApplicantNRIC(ctx, actor.NRIC)
			if err != nil {
				return fmt.Errorf("list applications: %w", err)
			}
			for _, a := range own {
				seen[a.ID] = a
			}
		}
		for _, p := range projects {
			apps, err := tx.Applications().FindByProjectID(ctx, p.Name)
			if err != nil {
				return fmt.Errorf("list project applications: %w", err)
			}
			for _, a := range apps {
				seen[a.ID] = a
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list_applications", actor, "", err)
	}

	out := make([]*model.Application, 0, len(seen))
	for _, a := range seen {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
