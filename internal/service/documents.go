package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// findDocument loads any document by its prefixed ID.
func findDocument(ctx context.Context, tx repository.Tx, id string) (model.Document, error) {
	doc, err := repository.FindDocument(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, model.NotFoundf("document %q not found", id)
		}
		return nil, fmt.Errorf("get document: %w", err)
	}
	return doc, nil
}

// mutateDocument loads document id as a T, applies fn inside one write
// transaction and saves the result. An ID of another kind is not found.
func mutateDocument[T model.Document](ctx context.Context, e *Engine, op string, actor model.User, id string, fn func(repository.Tx, T) error) (T, error) {
	var out T
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		doc, err := findDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		d, ok := doc.(T)
		if !ok {
			return model.NotFoundf("%s is not a %T", id, out)
		}
		if err := fn(tx, d); err != nil {
			return err
		}
		out = d
		return repository.SaveDocument(ctx, tx, d)
	})
	if err != nil {
		var zero T
		return zero, e.done(op, actor, id, err)
	}
	e.recordTransition(out)
	return out, nil
}

// GetDocument returns any document the actor may read: their own, one on a
// project they manage or are assigned to, and for managers any enquiry.
// Documents the actor may not read are reported as not found.
func (e *Engine) GetDocument(ctx context.Context, actor model.User, id string) (model.Document, error) {
	var doc model.Document
	err := e.store.View(ctx, func(tx repository.Tx) error {
		d, err := findDocument(ctx, tx, id)
		if err != nil {
			return err
		}
		ok, err := canRead(ctx, tx, actor, d)
		if err != nil {
			return err
		}
		if !ok {
			return model.NotFoundf("document %q not found", id)
		}
		doc = d
		return nil
	})
	if err != nil {
		return nil, e.done("get_document", actor, id, err)
	}
	return doc, nil
}

func canRead(ctx context.Context, tx repository.Tx, actor model.User, doc model.Document) (bool, error) {
	if doc.Meta().OwnedBy(actor.NRIC) {
		return true, nil
	}
	if doc.DocumentKind() == model.KindEnquiry && actor.IsManager() {
		return true, nil
	}
	ref := doc.ProjectRef()
	if ref == "" {
		return false, nil
	}
	p, err := tx.Projects().FindByID(ctx, ref)
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return false, nil
	case err != nil:
		return false, fmt.Errorf("get project: %w", err)
	}
	if actor.IsManager() {
		return p.ManagedBy(actor.NRIC), nil
	}
	return actor.IsOfficer() && p.HasOfficer(actor.NRIC), nil
}
