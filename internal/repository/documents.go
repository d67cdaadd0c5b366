package repository

import (
	"context"
	"fmt"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// FindDocument loads any document, routing by its ID prefix.
func FindDocument(ctx context.Context, tx Tx, id string) (model.Document, error) {
	kind, ok := model.KindOf(id)
	if !ok {
		return nil, ErrNotFound
	}
	var (
		doc model.Document
		err error
	)
	switch kind {
	case model.KindApplication:
		doc, err = tx.Applications().FindByID(ctx, id)
	case model.KindRegistration:
		doc, err = tx.Registrations().FindByID(ctx, id)
	case model.KindWithdrawal:
		doc, err = tx.Withdrawals().FindByID(ctx, id)
	case model.KindEnquiry:
		doc, err = tx.Enquiries().FindByID(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// SaveDocument stores a document in the repository of its kind.
func SaveDocument(ctx context.Context, tx Tx, doc model.Document) error {
	switch d := doc.(type) {
	case *model.Application:
		return tx.Applications().Save(ctx, d)
	case *model.Registration:
		return tx.Registrations().Save(ctx, d)
	case *model.Withdrawal:
		return tx.Withdrawals().Save(ctx, d)
	case *model.Enquiry:
		return tx.Enquiries().Save(ctx, d)
	}
	return fmt.Errorf("save document: unsupported type %T", doc)
}

// ProjectReferenced reports whether any document refers to projectName.
func ProjectReferenced(ctx context.Context, tx Tx, projectName string) (bool, error) {
	apps, err := tx.Applications().FindByProjectID(ctx, projectName)
	if err != nil {
		return false, err
	}
	regs, err := tx.Registrations().FindByProjectID(ctx, projectName)
	if err != nil {
		return false, err
	}
	wdrs, err := tx.Withdrawals().FindByProjectID(ctx, projectName)
	if err != nil {
		return false, err
	}
	enqs, err := tx.Enquiries().FindByProjectID(ctx, projectName)
	if err != nil {
		return false, err
	}
	return len(apps)+len(regs)+len(wdrs)+len(enqs) > 0, nil
}
