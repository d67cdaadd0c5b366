package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/eligibility"
	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// BookFlat books flat type t for an APPROVED application on behalf of an
// officer assigned to its project. Preconditions are checked in order:
//
//  1. the application is APPROVED
//  2. the applicant has no other BOOKED application
//  3. the officer is assigned to the application's project
//  4. the applicant is eligible for t
//  5. a unit of t remains
//
// The inventory decrement and the status change are written in one store
// transaction. If either write fails the transaction aborts, so neither is
// visible, and the booking is counted as rolled back.
func (e *Engine) BookFlat(ctx context.Context, officer model.User, id string, t model.FlatType) (*model.Application, error) {
	var (
		wrote   bool
		app     *model.Application
		project *model.Project
	)
	err := e.store.Update(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.Status != model.StatusApproved {
			return fmt.Errorf("%w: %s is %s", model.ErrNotApproved, a.ID, a.Status)
		}

		other, err := tx.Applications().FindBookedApplicationByApplicantNRIC(ctx, a.Submitter)
		switch {
		case err == nil && other.ID != a.ID:
			return fmt.Errorf("%w: %s", model.ErrAlreadyBooked, other.ID)
		case err != nil && !errors.Is(err, repository.ErrNotFound):
			return fmt.Errorf("find booked application: %w", err)
		}

		p, err := findProject(ctx, tx, a.ProjectName)
		if err != nil {
			return err
		}
		if !officer.IsOfficer() || !p.HasOfficer(officer.NRIC) {
			return model.ErrOfficerNotAssigned
		}

		applicant, err := findUser(ctx, tx, a.Submitter)
		if err != nil {
			return err
		}
		profile, ok := applicant.ApplicantProfile()
		if !ok || !eligibility.CheckFlatType(profile, t) {
			return fmt.Errorf("%w: %s", model.ErrIneligibleFlatType, t)
		}

		if !p.DecrementRemainingUnit(t) {
			return fmt.Errorf("%w: %s in %s", model.ErrNoUnits, t, p.Name)
		}
		if err := a.Book(officer, t, e.now()); err != nil {
			return err
		}

		app, project = a, p
		if err := tx.Projects().Save(ctx, p); err != nil {
			return fmt.Errorf("save project inventory: %w", err)
		}
		wrote = true
		return tx.Applications().Save(ctx, a)
	})
	if err != nil {
		if wrote {
			e.metrics.RecordRollback()
			e.metrics.RecordBooking(metrics.OutcomeRolledBack)
			e.log.Warn("booking rolled back",
				zap.String("application", id),
				zap.String("officer", officer.NRIC),
				zap.String("flat_type", string(t)),
				zap.Error(err),
			)
			return nil, err
		}
		e.metrics.RecordBooking(metrics.OutcomeRejected)
		return nil, e.done("book_flat", officer, id, err)
	}
	e.metrics.RecordBooking(metrics.OutcomeBooked)
	e.metrics.RecordInventory(project)
	e.recordTransition(app)
	e.log.Info("flat booked",
		zap.String("application", app.ID),
		zap.String("applicant", app.Submitter),
		zap.String("project", project.Name),
		zap.String("flat_type", string(t)),
		zap.Int("remaining", project.RemainingUnits[t]),
	)
	return app, nil
}

// GenerateReceipt summarises a BOOKED application for an officer assigned
// to its project.
func (e *Engine) GenerateReceipt(ctx context.Context, officer model.User, id string) (*model.Receipt, error) {
	var receipt *model.Receipt
	err := e.store.View(ctx, func(tx repository.Tx) error {
		a, err := findApplication(ctx, tx, id)
		if err != nil {
			return err
		}
		if a.Status != model.StatusBooked || a.BookedAt == nil {
			return fmt.Errorf("%w: %s is %s", model.ErrNotBooked, a.ID, a.Status)
		}
		p, err := findProject(ctx, tx, a.ProjectName)
		if err != nil {
			return err
		}
		if !officer.IsOfficer() || !p.HasOfficer(officer.NRIC) {
			return model.ErrOfficerNotAssigned
		}
		applicant, err := findUser(ctx, tx, a.Submitter)
		if err != nil {
			return err
		}
		receipt = &model.Receipt{
			ApplicationID: a.ID,
			Applicant:     applicant.Profile,
			ProjectName:   p.Name,
			Neighbourhood: p.Neighbourhood,
			FlatType:      a.BookedFlatType,
			Price:         p.Prices[a.BookedFlatType],
			BookedBy:      a.BookedBy,
			BookedAt:      *a.BookedAt,
		}
		return nil
	})
	if err != nil {
		return nil, e.done("generate_receipt", officer, id, err)
	}
	return receipt, nil
}
