package memory

import (
	"context"
	"errors"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
)

type users struct {
	table[*model.User]
}

type projects struct {
	table[*model.Project]
}

func (r projects) FindByManager(_ context.Context, managerNRIC string) ([]*model.Project, error) {
	return r.list(indexManager, managerNRIC)
}

type applications struct {
	table[*model.Application]
}

func (r applications) FindByApplicantNRIC(_ context.Context, nric string) ([]*model.Application, error) {
	return r.list(indexSubmitter, nric)
}

func (r applications) FindByProjectID(_ context.Context, projectName string) ([]*model.Application, error) {
	return r.list(indexProject, projectName)
}

func (r applications) FindActiveApplicationByApplicantNRIC(_ context.Context, nric string) (*model.Application, error) {
	return r.firstOf(nric, (*model.Application).Active)
}

func (r applications) FindBookedApplicationByApplicantNRIC(_ context.Context, nric string) (*model.Application, error) {
	return r.firstOf(nric, func(a *model.Application) bool { return a.Status == model.StatusBooked })
}

func (r applications) firstOf(nric string, keep func(*model.Application) bool) (*model.Application, error) {
	found, err := r.filter(indexSubmitter, nric, keep)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, repository.ErrNotFound
	}
	return found[0], nil
}

type registrations struct {
	table[*model.Registration]
	projects repository.Projects
}

func (r registrations) FindByOfficerNRIC(_ context.Context, nric string) ([]*model.Registration, error) {
	return r.list(indexSubmitter, nric)
}

func (r registrations) FindByProjectID(_ context.Context, projectName string) ([]*model.Registration, error) {
	return r.list(indexProject, projectName)
}

func (r registrations) FindApprovedRegistrationInPeriod(ctx context.Context, nric string, w model.DateRange) ([]*model.Registration, error) {
	approved, err := r.filter(indexSubmitter, nric, func(reg *model.Registration) bool {
		return reg.Status == model.StatusApproved
	})
	if err != nil {
		return nil, err
	}
	var out []*model.Registration
	for _, reg := range approved {
		p, err := r.projects.FindByID(ctx, reg.ProjectName)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}
		if p.Window().Overlaps(w) {
			out = append(out, reg)
		}
	}
	return out, nil
}

type withdrawals struct {
	table[*model.Withdrawal]
}

func (r withdrawals) FindByApplicationID(_ context.Context, applicationID string) ([]*model.Withdrawal, error) {
	return r.list(indexParent, applicationID)
}

func (r withdrawals) FindByProjectID(_ context.Context, projectName string) ([]*model.Withdrawal, error) {
	return r.list(indexProject, projectName)
}

type enquiries struct {
	table[*model.Enquiry]
}

func (r enquiries) FindBySubmitter(_ context.Context, nric string) ([]*model.Enquiry, error) {
	return r.list(indexSubmitter, nric)
}

func (r enquiries) FindByProjectID(_ context.Context, projectName string) ([]*model.Enquiry, error) {
	if projectName == "" {
		return nil, nil
	}
	return r.list(indexProject, projectName)
}
