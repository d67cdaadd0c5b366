package service

import (
	"context"
	"fmt"
	"sort"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// CreateEnquiry stores a new enquiry, about projectName or general when
// projectName is empty. It is submitted immediately unless draft is set.
func (e *Engine) CreateEnquiry(ctx context.Context, actor model.User, projectName, content string, draft bool) (*model.Enquiry, error) {
	if _, ok := actor.ApplicantProfile(); !ok {
		return nil, e.done("create_enquiry", actor, projectName, model.Unauthorizedf("managers cannot raise enquiries"))
	}
	enq, err := model.NewEnquiry(actor, projectName, content, e.now())
	if err != nil {
		return nil, e.done("create_enquiry", actor, projectName, err)
	}

	err = e.store.Update(ctx, func(tx repository.Tx) error {
		if !enq.General() {
			p, err := findProject(ctx, tx, enq.ProjectName)
			if err != nil {
				return err
			}
			if !canSee(actor, p) {
				return model.NotFoundf("project %q not found", enq.ProjectName)
			}
		}
		if !draft {
			if err := enq.Submit(actor, e.now()); err != nil {
				return err
			}
		}
		return tx.Enquiries().Save(ctx, enq)
	})
	if err != nil {
		return nil, e.done("create_enquiry", actor, projectName, err)
	}
	e.recordTransition(enq)
	return enq, nil
}

// SubmitEnquiry sends the actor's DRAFT enquiry.
func (e *Engine) SubmitEnquiry(ctx context.Context, actor model.User, id string) (*model.Enquiry, error) {
	return mutateDocument(ctx, e, "submit_enquiry", actor, id, func(_ repository.Tx, enq *model.Enquiry) error {
		return enq.Submit(actor, e.now())
	})
}

// EditEnquiry replaces the content of the actor's unanswered enquiry.
func (e *Engine) EditEnquiry(ctx context.Context, actor model.User, id, content string) (*model.Enquiry, error) {
	return mutateDocument(ctx, e, "edit_enquiry", actor, id, func(_ repository.Tx, enq *model.Enquiry) error {
		return enq.Edit(actor, content, e.now())
	})
}

// DeleteEnquiry closes the actor's unanswered enquiry.
func (e *Engine) DeleteEnquiry(ctx context.Context, actor model.User, id string) (*model.Enquiry, error) {
	return mutateDocument(ctx, e, "delete_enquiry", actor, id, func(_ repository.Tx, enq *model.Enquiry) error {
		return enq.Delete(actor, e.now())
	})
}

// ReplyEnquiry answers a submitted enquiry. Project enquiries are answered
// by the project's manager or an assigned officer, general ones by any
// manager.
func (e *Engine) ReplyEnquiry(ctx context.Context, actor model.User, id, content string) (*model.Enquiry, error) {
	var enq *model.Enquiry
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		x, err := findEnquiry(ctx, tx, id)
		if err != nil {
			return err
		}
		var p *model.Project
		if !x.General() {
			if p, err = findProject(ctx, tx, x.ProjectName); err != nil {
				return err
			}
		}
		if err := x.Reply(actor, p, content, e.now()); err != nil {
			return err
		}
		enq = x
		return tx.Enquiries().Save(ctx, x)
	})
	if err != nil {
		return nil, e.done("reply_enquiry", actor, id, err)
	}
	e.recordTransition(enq)
	return enq, nil
}

// ListEnquiries returns the enquiries actor may see: their own, plus those
// on projects an officer handles. Managers see every enquiry.
func (e *Engine) ListEnquiries(ctx context.Context, actor model.User) ([]*model.Enquiry, error) {
	seen := make(map[string]*model.Enquiry)
	err := e.store.View(ctx, func(tx repository.Tx) error {
		if actor.IsManager() {
			all, err := tx.Enquiries().FindAll(ctx)
			if err != nil {
				return fmt.Errorf("list enquiries: %w", err)
			}
			for _, x := range all {
				seen[x.ID] = x
			}
			return nil
		}

		own, err := tx.Enquiries().FindBySubmitter(ctx, actor.NRIC)
		if err != nil {
			return fmt.Errorf("list enquiries: %w", err)
		}
		for _, x := range own {
			seen[x.ID] = x
		}
		if actor.IsOfficer() {
			handled, err := handledProjects(ctx, tx, actor.NRIC)
			if err != nil {
				return err
			}
			for _, p := range handled {
				list, err := tx.Enquiries().FindByProjectID(ctx, p.Name)
				if err != nil {
					return fmt.Errorf("list project enquiries: %w", err)
				}
				for _, x := range list {
					seen[x.ID] = x
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, e.done("list_enquiries", actor, "", err)
	}

	out := make([]*model.Enquiry, 0, len(seen))
	for _, x := range seen {
		out = append(out, x)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
