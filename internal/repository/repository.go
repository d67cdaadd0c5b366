// Package repository defines the persistence contract consumed by the
// engine. Implementations live in the memory and postgres subpackages; every
// read and write happens inside a Store transaction.
package repository

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// ErrNotFound is returned when a requested entity does not exist.
var ErrNotFound = errors.New("not found")

// Repository is the lookup-by-ID shape shared by every entity store.
type Repository[T any] interface {
	Save(ctx context.Context, entity T) error
	FindByID(ctx context.Context, id string) (T, error)
	FindAll(ctx context.Context) ([]T, error)
	DeleteByID(ctx context.Context, id string) (bool, error)
	Count(ctx context.Context) (int, error)
}

// Users persists actors keyed by NRIC.
type Users interface {
	Repository[*model.User]
}

// Projects persists projects keyed by name.
type Projects interface {
	Repository[*model.Project]
	FindByManager(ctx context.Context, managerNRIC string) ([]*model.Project, error)
}

// Applications persists flat applications.
type Applications interface {
	Repository[*model.Application]
	FindByApplicantNRIC(ctx context.Context, nric string) ([]*model.Application, error)
	FindByProjectID(ctx context.Context, projectName string) ([]*model.Application, error)
	// FindActiveApplicationByApplicantNRIC returns the applicant's application
	// in DRAFT, SUBMITTED, PENDING_APPROVAL or APPROVED, or ErrNotFound.
	FindActiveApplicationByApplicantNRIC(ctx context.Context, nric string) (*model.Application, error)
	// FindBookedApplicationByApplicantNRIC returns the applicant's BOOKED
	// application, or ErrNotFound.
	FindBookedApplicationByApplicantNRIC(ctx context.Context, nric string) (*model.Application, error)
}

// Registrations persists officer registrations.
type Registrations interface {
	Repository[*model.Registration]
	FindByOfficerNRIC(ctx context.Context, nric string) ([]*model.Registration, error)
	FindByProjectID(ctx context.Context, projectName string) ([]*model.Registration, error)
	// FindApprovedRegistrationInPeriod returns the officer's APPROVED
	// registrations whose project window overlaps w.
	FindApprovedRegistrationInPeriod(ctx context.Context, nric string, w model.DateRange) ([]*model.Registration, error)
}

// Withdrawals persists withdrawal requests.
type Withdrawals interface {
	Repository[*model.Withdrawal]
	FindByApplicationID(ctx context.Context, applicationID string) ([]*model.Withdrawal, error)
	FindByProjectID(ctx context.Context, projectName string) ([]*model.Withdrawal, error)
}

// Enquiries persists enquiries.
type Enquiries interface {
	Repository[*model.Enquiry]
	FindBySubmitter(ctx context.Context, nric string) ([]*model.Enquiry, error)
	FindByProjectID(ctx context.Context, projectName string) ([]*model.Enquiry, error)
}

// Tx is a unit of work spanning every entity store. Writes made through a Tx
// become visible only when the enclosing Store.Update returns nil.
type Tx interface {
	Users() Users
	Projects() Projects
	Applications() Applications
	Registrations() Registrations
	Withdrawals() Withdrawals
	Enquiries() Enquiries
}

// Store runs transactions. Update commits when fn returns nil and discards
// every write otherwise.
type Store interface {
	View(ctx context.Context, fn func(Tx) error) error
	Update(ctx context.Context, fn func(Tx) error) error
	Close() error
}
