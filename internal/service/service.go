// Package service implements the BTO engine: project management, the
// document lifecycle, flat booking with compensation, withdrawals, officer
// registrations and enquiries.
//
// Every state-changing operation runs inside a single repository.Store
// Update, so the check-then-act sequences (inventory, document status, one
// booking per applicant) are serialized by the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

// Engine orchestrates BTO business operations over a repository.Store.
type Engine struct {
	store   repository.Store
	log     *zap.Logger
	metrics *metrics.Collector
	now     func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the engine logger.
func WithLogger(log *zap.Logger) Option {
	return func(e *Engine) {
		if log != nil {
			e.log = log
		}
	}
}

// WithMetrics records engine outcomes on c.
func WithMetrics(c *metrics.Collector) Option {
	return func(e *Engine) { e.metrics = c }
}

// WithClock overrides the engine's time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// New constructs an Engine with its dependencies.
func New(store repository.Store, opts ...Option) *Engine {
	e := &Engine{
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// done logs the outcome of a refused operation and passes err through.
// Business-rule refusals are expected and logged at Info; anything else is an
// infrastructure failure.
func (e *Engine) done(op string, actor model.User, ref string, err error) error {
	if err == nil {
		return nil
	}
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("actor", actor.NRIC),
		zap.String("ref", ref),
		zap.Error(err),
	}
	var de *model.Error
	if errors.As(err, &de) {
		e.log.Info("operation refused", append(fields, zap.String("kind", string(de.Kind)))...)
		return err
	}
	e.log.Error("operation failed", fields...)
	return err
}

// find loads id from repo, converting repository.ErrNotFound into a
// NotFound domain error.
func find[T any](ctx context.Context, repo repository.Repository[T], what, id string) (T, error) {
	v, err := repo.FindByID(ctx, id)
	if err != nil {
		var zero T
		if errors.Is(err, repository.ErrNotFound) {
			return zero, model.NotFoundf("%s %q not found", what, id)
		}
		return zero, fmt.Errorf("get %s: %w", what, err)
	}
	return v, nil
}

func findProject(ctx context.Context, tx repository.Tx, name string) (*model.Project, error) {
	return find[*model.Project](ctx, tx.Projects(), "project", name)
}

func findUser(ctx context.Context, tx repository.Tx, nric string) (*model.User, error) {
	return find[*model.User](ctx, tx.Users(), "user", nric)
}

func findApplication(ctx context.Context, tx repository.Tx, id string) (*model.Application, error) {
	return find[*model.Application](ctx, tx.Applications(), "application", id)
}

func findRegistration(ctx context.Context, tx repository.Tx, id string) (*model.Registration, error) {
	return find[*model.Registration](ctx, tx.Registrations(), "registration", id)
}

func findWithdrawal(ctx context.Context, tx repository.Tx, id string) (*model.Withdrawal, error) {
	return find[*model.Withdrawal](ctx, tx.Withdrawals(), "withdrawal", id)
}

func findEnquiry(ctx context.Context, tx repository.Tx, id string) (*model.Enquiry, error) {
	return find[*model.Enquiry](ctx, tx.Enquiries(), "enquiry", id)
}

// handledProjects returns the projects the officer holds a slot on.
func handledProjects(ctx context.Context, tx repository.Tx, officerNRIC string) ([]*model.Project, error) {
	all, err := tx.Projects().FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	var out []*model.Project
	for _, p := range all {
		if p.HasOfficer(officerNRIC) {
			out = append(out, p)
		}
	}
	return out, nil
}

// recordTransition counts a committed document transition.
func (e *Engine) recordTransition(doc model.Document) {
	e.metrics.RecordTransition(doc.DocumentKind(), doc.Meta().Status)
}
