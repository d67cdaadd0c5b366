package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/eligibility"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
	"github.com/Shivanand-hulikatti/bto-housing/internal/schedule"
)

// CreateProject validates spec and stores a new project owned by manager.
// It fails when the name is taken or the manager already owns a project
// whose window overlaps the new one.
func (e *Engine) CreateProject(ctx context.Context, manager model.User, spec model.ProjectSpec) (*model.Project, error) {
	if !manager.IsManager() {
		return nil, e.done("create_project", manager, spec.Name, model.ErrNotManager)
	}
	p, err := model.NewProject(spec, manager.NRIC, e.now())
	if err != nil {
		return nil, e.done("create_project", manager, spec.Name, err)
	}

	err = e.store.Update(ctx, func(tx repository.Tx) error {
		if _, err := tx.Projects().FindByID(ctx, p.Name); err == nil {
			return fmt.Errorf("%w: %s", model.ErrDuplicateProject, p.Name)
		} else if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("get project: %w", err)
		}
		owned, err := tx.Projects().FindByManager(ctx, manager.NRIC)
		if err != nil {
			return fmt.Errorf("list managed projects: %w", err)
		}
		if err := schedule.CheckManager(owned, p.Window(), ""); err != nil {
			return err
		}
		return tx.Projects().Save(ctx, p)
	})
	if err != nil {
		return nil, e.done("create_project", manager, p.Name, err)
	}

	e.metrics.RecordInventory(p)
	e.log.Info("project created",
		zap.String("project", p.Name),
		zap.String("manager", manager.NRIC),
		zap.Stringer("window", p.Window()),
	)
	return p, nil
}

// EditProject applies patch to a project owned by manager. Date changes are
// re-checked against the manager's other projects.
func (e *Engine) EditProject(ctx context.Context, manager model.User, name string, patch model.ProjectPatch) (*model.Project, error) {
	var edited *model.Project
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		p, err := findProject(ctx, tx, name)
		if err != nil {
			return err
		}
		if !manager.IsManager() || !p.ManagedBy(manager.NRIC) {
			return model.ErrNotProjectManager
		}

		if patch.Neighbourhood != nil {
			p.Neighbourhood = strings.TrimSpace(*patch.Neighbourhood)
		}
		if patch.OpenDate != nil || patch.CloseDate != nil {
			w := p.Window()
			if patch.OpenDate != nil {
				w.Open = model.Day(*patch.OpenDate)
			}
			if patch.CloseDate != nil {
				w.Close = model.Day(*patch.CloseDate)
			}
			if !w.Valid() {
				return model.ErrInvalidWindow
			}
			owned, err := tx.Projects().FindByManager(ctx, manager.NRIC)
			if err != nil {
				return fmt.Errorf("list managed projects: %w", err)
			}
			if err := schedule.CheckManager(owned, w, p.Name); err != nil {
				return err
			}
			p.OpenDate, p.CloseDate = w.Open, w.Close
		}
		for t, n := range patch.Units {
			if err := p.EditUnits(manager.NRIC, t, n); err != nil {
				return fmt.Errorf("%w: %s", err, t)
			}
		}
		for t, price := range patch.Prices {
			if err := p.EditPrice(manager.NRIC, t, price); err != nil {
				return fmt.Errorf("%w: %s", err, t)
			}
		}
		p.UpdatedAt = e.now()

		if err := tx.Projects().Save(ctx, p); err != nil {
			return err
		}
		edited = p
		return nil
	})
	if err != nil {
		return nil, e.done("edit_project", manager, name, err)
	}
	e.metrics.RecordInventory(edited)
	return edited, nil
}

// SetProjectVisibility toggles whether applicants can see the project.
func (e *Engine) SetProjectVisibility(ctx context.Context, manager model.User, name string, visible bool) (*model.Project, error) {
	var updated *model.Project
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		p, err := findProject(ctx, tx, name)
		if err != nil {
			return err
		}
		if !manager.IsManager() || !p.ManagedBy(manager.NRIC) {
			return model.ErrNotProjectManager
		}
		p.SetVisibility(visible)
		p.UpdatedAt = e.now()
		if err := tx.Projects().Save(ctx, p); err != nil {
			return err
		}
		updated = p
		return nil
	})
	if err != nil {
		return nil, e.done("set_visibility", manager, name, err)
	}
	return updated, nil
}

// DeleteProject removes a project owned by manager. Projects still
// referenced by any document cannot be deleted.
func (e *Engine) DeleteProject(ctx context.Context, manager model.User, name string) error {
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		p, err := findProject(ctx, tx, name)
		if err != nil {
			return err
		}
		if !manager.IsManager() || !p.ManagedBy(manager.NRIC) {
			return model.ErrNotProjectManager
		}
		referenced, err := repository.ProjectReferenced(ctx, tx, name)
		if err != nil {
			return fmt.Errorf("check project references: %w", err)
		}
		if referenced {
			return model.ErrProjectReferenced
		}
		if _, err := tx.Projects().DeleteByID(ctx, name); err != nil {
			return fmt.Errorf("delete project: %w", err)
		}
		return nil
	})
	if err != nil {
		return e.done("delete_project", manager, name, err)
	}
	e.metrics.ForgetProject(name)
	e.log.Info("project deleted", zap.String("project", name), zap.String("manager", manager.NRIC))
	return nil
}

// GetProject returns a project the actor is allowed to see. Hidden projects
// are reported as not found to applicants.
func (e *Engine) GetProject(ctx context.Context, actor model.User, name string) (*model.Project, error) {
	var project *model.Project
	err := e.store.View(ctx, func(tx repository.Tx) error {
		p, err := findProject(ctx, tx, name)
		if err != nil {
			return err
		}
		if !canSee(actor, p) {
			return model.NotFoundf("project %q not found", name)
		}
		project = p
		return nil
	})
	if err != nil {
		return nil, e.done("get_project", actor, name, err)
	}
	return project, nil
}

// ListProjects returns the projects visible to actor that match filter,
// sorted by name. Applicants see visible projects offering at least one flat
// type; officers also see the projects they handle; managers see everything.
func (e *Engine) ListProjects(ctx context.Context, actor model.User, filter model.ProjectFilter) ([]*model.Project, error) {
	if filter.OpenNow {
		filter.OpenOn = e.now()
	}
	var out []*model.Project
	err := e.store.View(ctx, func(tx repository.Tx) error {
		all, err := tx.Projects().FindAll(ctx)
		if err != nil {
			return fmt.Errorf("list projects: %w", err)
		}
		for _, p := range all {
			if canSee(actor, p) && filter.Match(p) {
				out = append(out, p)
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list_projects", actor, "", err)
	}
	model.SortProjects(out)
	return out, nil
}

// ProjectEligibility reports whether the actor may apply to the named
// project and which of its offered flat types they may book.
func (e *Engine) ProjectEligibility(ctx context.Context, actor model.User, name string) (model.Eligibility, error) {
	profile, ok := actor.ApplicantProfile()
	if !ok {
		return model.Eligibility{}, e.done("project_eligibility", actor, name, model.ErrCannotApply)
	}
	p, err := e.GetProject(ctx, actor, name)
	if err != nil {
		return model.Eligibility{}, err
	}
	offered := p.OfferedTypes()
	return model.Eligibility{
		ProjectName: p.Name,
		CanApply:    eligibility.CanApply(profile, offered),
		FlatTypes:   eligibility.ApplicableTypes(profile, offered),
	}, nil
}

func canSee(actor model.User, p *model.Project) bool {
	switch actor.Role {
	case model.RoleManager:
		return true
	case model.RoleOfficer:
		if p.HasOfficer(actor.NRIC) {
			return true
		}
	}
	profile, ok := actor.ApplicantProfile()
	if !ok {
		return false
	}
	return p.Visible && eligibility.CanView(profile, p.OfferedTypes())
}
