package postgres

import (
	"context"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

type users struct {
	table[*model.User]
}

type projects struct {
	table[*model.Project]
}

func (r projects) FindByManager(ctx context.Context, managerNRIC string) ([]*model.Project, error) {
	return r.where(ctx, `WHERE manager_nric = $1`, managerNRIC)
}

type applications struct {
	table[*model.Application]
}

func (r applications) FindByApplicantNRIC(ctx context.Context, nric string) ([]*model.Application, error) {
	return r.where(ctx, `WHERE submitter = $1`, nric)
}

func (r applications) FindByProjectID(ctx context.Context, projectName string) ([]*model.Application, error) {
	return r.where(ctx, `WHERE project_name = $1`, projectName)
}

func (r applications) FindActiveApplicationByApplicantNRIC(ctx context.Context, nric string) (*model.Application, error) {
	return first(r.where(ctx, `WHERE submitter = $1 AND status = ANY($2)`, nric, []string{
		string(model.StatusDraft),
		string(model.StatusSubmitted),
		string(model.StatusPendingApproval),
		string(model.StatusApproved),
	}))
}

func (r applications) FindBookedApplicationByApplicantNRIC(ctx context.Context, nric string) (*model.Application, error) {
	return first(r.where(ctx, `WHERE submitter = $1 AND status = $2`, nric, string(model.StatusBooked)))
}

type registrations struct {
	table[*model.Registration]
}

func (r registrations) FindByOfficerNRIC(ctx context.Context, nric string) ([]*model.Registration, error) {
	return r.where(ctx, `WHERE submitter = $1`, nric)
}

func (r registrations) FindByProjectID(ctx context.Context, projectName string) ([]*model.Registration, error) {
	return r.where(ctx, `WHERE project_name = $1`, projectName)
}

func (r registrations) FindApprovedRegistrationInPeriod(ctx context.Context, nric string, w model.DateRange) ([]*model.Registration, error) {
	return r.query(ctx,
		`SELECT r.body
		 FROM registrations r
		 JOIN projects p ON p.id = r.project_name
		 WHERE r.submitter = $1
		   AND r.status = $2
		   AND p.open_date <= $4
		   AND p.close_date >= $3
		 ORDER BY r.id`,
		nric, string(model.StatusApproved), w.Open, w.Close,
	)
}

type withdrawals struct {
	table[*model.Withdrawal]
}

func (r withdrawals) FindByApplicationID(ctx context.Context, applicationID string) ([]*model.Withdrawal, error) {
	return r.where(ctx, `WHERE application_id = $1`, applicationID)
}

func (r withdrawals) FindByProjectID(ctx context.Context, projectName string) ([]*model.Withdrawal, error) {
	return r.where(ctx, `WHERE project_name = $1`, projectName)
}

type enquiries struct {
	table[*model.Enquiry]
}

func (r enquiries) FindBySubmitter(ctx context.Context, nric string) ([]*model.Enquiry, error) {
	return r.where(ctx, `WHERE submitter = $1`, nric)
}

func (r enquiries) FindByProjectID(ctx context.Context, projectName string) ([]*model.Enquiry, error) {
	if projectName == "" {
		return nil, nil
	}
	return r.where(ctx, `WHERE project_name = $1`, projectName)
}

func first[T any](list []T, err error) (T, error) {
	var zero T
	if err != nil {
		return zero, err
	}
	if len(list) == 0 {
		return zero, repository.ErrNotFound
	}
	return list[0], nil
}
