package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
	"github.com/Shivanand-hulikatti/bto-housing/internal/schedule"
)

// checkOfficerFree fails with model.ErrOfficerBusy when the officer holds an
// approved registration on another project whose window overlaps project's.
func checkOfficerFree(ctx context.Context, tx repository.Tx, officerNRIC string, project *model.Project) error {
	regs, err := tx.Registrations().FindApprovedRegistrationInPeriod(ctx, officerNRIC, project.Window())
	if err != nil {
		return fmt.Errorf("find approved registrations: %w", err)
	}
	handled := make([]*model.Project, 0, len(regs))
	for _, r := range regs {
		p, err := findProject(ctx, tx, r.ProjectName)
		if err != nil {
			return err
		}
		handled = append(handled, p)
	}
	return schedule.CheckOfficer(handled, project)
}

// checkCanRegister runs the gates a registration of officer for project must
// pass. self names the registration being checked, which does not count as
// an existing one.
func checkCanRegister(ctx context.Context, tx repository.Tx, officer model.User, p *model.Project, self string) error {
	apps, err := tx.Applications().FindByApplicantNRIC(ctx, officer.NRIC)
	if err != nil {
		return fmt.Errorf("list applications: %w", err)
	}
	for _, a := range apps {
		if a.ProjectName == p.Name && !a.Final() {
			return fmt.Errorf("%w: %s", model.ErrAppliedToProject, a.ID)
		}
	}

	regs, err := tx.Registrations().FindByOfficerNRIC(ctx, officer.NRIC)
	if err != nil {
		return fmt.Errorf("list registrations: %w", err)
	}
	for _, r := range regs {
		if r.ID != self && r.ProjectName == p.Name && r.Live() {
			return fmt.Errorf("%w: %s", model.ErrAlreadyRegistered, r.ID)
		}
	}
	return checkOfficerFree(ctx, tx, officer.NRIC, p)
}

// DraftRegistration creates a DRAFT registration of the officer for
// projectName.
func (e *Engine) DraftRegistration(ctx context.Context, officer model.User, projectName string) (*model.Registration, error) {
	return e.createRegistration(ctx, "draft_registration", officer, projectName, false)
}

// RegisterForProject creates and submits the officer's request to join the
// team of projectName.
func (e *Engine) RegisterForProject(ctx context.Context, officer model.User, projectName string) (*model.Registration, error) {
	return e.createRegistration(ctx, "register", officer, projectName, true)
}

func (e *Engine) createRegistration(ctx context.Context, op string, officer model.User, projectName string, submit bool) (*model.Registration, error) {
	if !officer.IsOfficer() {
		return nil, e.done(op, officer, projectName, model.ErrNotOfficer)
	}
	var reg *model.Registration
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		p, err := findProject(ctx, tx, projectName)
		if err != nil {
			return err
		}
		if err := checkCanRegister(ctx, tx, officer, p, ""); err != nil {
			return err
		}

		reg = model.NewRegistration(officer, p.Name, e.now())
		if submit {
			if err := reg.Submit(officer, e.now()); err != nil {
				return err
			}
		}
		return tx.Registrations().Save(ctx, reg)
	})
	if err != nil {
		return nil, e.done(op, officer, projectName, err)
	}
	e.recordTransition(reg)
	return reg, nil
}

// SubmitRegistration sends the officer's DRAFT registration for approval,
// re-checking the registration gates.
func (e *Engine) SubmitRegistration(ctx context.Context, officer model.User, id string) (*model.Registration, error) {
	return mutateDocument(ctx, e, "submit_registration", officer, id, func(tx repository.Tx, r *model.Registration) error {
		if !r.OwnedBy(officer.NRIC) {
			return model.ErrNotOwner
		}
		p, err := findProject(ctx, tx, r.ProjectName)
		if err != nil {
			return err
		}
		if err := checkCanRegister(ctx, tx, officer, p, r.ID); err != nil {
			return err
		}
		return r.Submit(officer, e.now())
	})
}

// EditRegistration retargets the officer's DRAFT registration at
// projectName.
func (e *Engine) EditRegistration(ctx context.Context, officer model.User, id, projectName string) (*model.Registration, error) {
	return mutateDocument(ctx, e, "edit_registration", officer, id, func(tx repository.Tx, r *model.Registration) error {
		p, err := findProject(ctx, tx, projectName)
		if err != nil {
			return err
		}
		if err := r.Edit(officer, p.Name, e.now()); err != nil {
			return err
		}
		return checkCanRegister(ctx, tx, officer, p, r.ID)
	})
}

// DeleteRegistration closes the officer's DRAFT registration.
func (e *Engine) DeleteRegistration(ctx context.Context, officer model.User, id string) (*model.Registration, error) {
	return mutateDocument(ctx, e, "delete_registration", officer, id, func(_ repository.Tx, r *model.Registration) error {
		return r.Delete(officer, e.now())
	})
}

// ProcessRegistration approves or rejects a pending registration. Approving
// when every officer slot is taken commits an explicit rejection carrying
// the no-slots reason and returns model.ErrNoOfficerSlots alongside it.
func (e *Engine) ProcessRegistration(ctx context.Context, manager model.User, id string, approve bool, reason string) (*model.Registration, error) {
	var (
		reg     *model.Registration
		project *model.Project
		noSlots bool
	)
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		r, err := findRegistration(ctx, tx, id)
		if err != nil {
			return err
		}
		p, err := findProject(ctx, tx, r.ProjectName)
		if err != nil {
			return err
		}
		reg, project = r, p

		if !approve {
			if err := r.Reject(manager, p, reason, e.now()); err != nil {
				return err
			}
			return tx.Registrations().Save(ctx, r)
		}

		if p.AvailableOfficerSlots() <= 0 {
			if err := r.Reject(manager, p, model.ErrNoOfficerSlots.Reason, e.now()); err != nil {
				return err
			}
			noSlots = true
			return tx.Registrations().Save(ctx, r)
		}
		if err := checkOfficerFree(ctx, tx, r.OfficerNRIC(), p); err != nil {
			return err
		}
		if err := r.Approve(manager, p, e.now()); err != nil {
			return err
		}
		if !p.AddOfficer(r.OfficerNRIC()) {
			e.log.Error("approved officer could not be assigned",
				zap.String("registration", r.ID),
				zap.String("officer", r.OfficerNRIC()),
				zap.String("project", p.Name),
			)
			return fmt.Errorf("%w: officer %s on %s", model.ErrInventoryConflict, r.OfficerNRIC(), p.Name)
		}
		p.UpdatedAt = e.now()
		if err := tx.Projects().Save(ctx, p); err != nil {
			return fmt.Errorf("save project officers: %w", err)
		}
		return tx.Registrations().Save(ctx, r)
	})
	if err != nil {
		return nil, e.done("process_registration", manager, id, err)
	}
	e.recordTransition(reg)
	if noSlots {
		return reg, e.done("process_registration", manager, id,
			fmt.Errorf("%w: %s rejected", model.ErrNoOfficerSlots, reg.ID))
	}
	if reg.Status == model.StatusApproved {
		e.log.Info("officer assigned",
			zap.String("officer", reg.OfficerNRIC()),
			zap.String("project", project.Name),
			zap.Int("slots_left", project.AvailableOfficerSlots()),
		)
	}
	return reg, nil
}

// ListRegistrations returns an officer's own registrations, or for a
// manager the registrations on the projects they own.
func (e *Engine) ListRegistrations(ctx context.Context, actor model.User) ([]*model.Registration, error) {
	var out []*model.Registration
	err := e.store.View(ctx, func(tx repository.Tx) error {
		switch actor.Role {
		case model.RoleOfficer:
			regs, err := tx.Registrations().FindByOfficerNRIC(ctx, actor.NRIC)
			if err != nil {
				return fmt.Errorf("list registrations: %w", err)
			}
			out = regs
		case model.RoleManager:
			owned, err := tx.Projects().FindByManager(ctx, actor.NRIC)
			if err != nil {
				return fmt.Errorf("list managed projects: %w", err)
			}
			for _, p := range owned {
				regs, err := tx.Registrations().FindByProjectID(ctx, p.Name)
				if err != nil {
					return fmt.Errorf("list project registrations: %w", err)
				}
				out = append(out, regs...)
			}
		default:
			return model.ErrNotOfficer
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list_registrations", actor, "", err)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
