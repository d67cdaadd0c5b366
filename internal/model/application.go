package model

import (
	"strings"
	"time"
)

// Application is an applicant's request for a flat in a project.
type Application struct {
	DocumentMeta
	ProjectName     string     `json:"project_name"`
	BookedFlatType  FlatType   `json:"booked_flat_type,omitempty"`
	BookedBy        string     `json:"booked_by,omitempty"`
	BookedAt        *time.Time `json:"booked_at,omitempty"`
	RejectionReason string     `json:"rejection_reason,omitempty"`
}

var _ Document = (*Application)(nil)

// NewApplication creates a DRAFT application for projectName.
func NewApplication(applicant User, projectName string, now time.Time) *Application {
	return &Application{
		DocumentMeta: newMeta(KindApplication, applicant.NRIC, now),
		ProjectName:  projectName,
	}
}

func (a *Application) DocumentKind() Kind { return KindApplication }
func (a *Application) ProjectRef() string { return a.ProjectName }

// Active reports whether the application still counts as the applicant's one
// open application.
func (a *Application) Active() bool {
	switch a.Status {
	case StatusDraft, StatusSubmitted, StatusPendingApproval, StatusApproved:
		return true
	}
	return false
}

// Final reports whether the application can no longer be withdrawn.
func (a *Application) Final() bool {
	switch a.Status {
	case StatusWithdrawn, StatusRejected, StatusClosed:
		return true
	}
	return false
}

// Submit sends a DRAFT application for approval.
func (a *Application) Submit(actor User, now time.Time) error {
	return a.submit(actor, StatusPendingApproval, now)
}

// Edit retargets a DRAFT application at another project.
func (a *Application) Edit(actor User, projectName string, now time.Time) error {
	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return ErrBlankContent
	}
	if err := a.requireOwnerIn(actor, StatusDraft); err != nil {
		return err
	}
	a.ProjectName = projectName
	a.touch(actor.NRIC, now)
	return nil
}

// Delete closes a DRAFT application.
func (a *Application) Delete(actor User, now time.Time) error {
	return a.close(actor, now, StatusDraft)
}

// Approve is the manager's approval of a pending application.
func (a *Application) Approve(manager User, project *Project, now time.Time) error {
	return a.decide(manager, project, true, "", now)
}

// Reject is the manager's rejection of a pending application.
func (a *Application) Reject(manager User, project *Project, reason string, now time.Time) error {
	if err := a.decide(manager, project, false, reason, now); err != nil {
		return err
	}
	a.RejectionReason = strings.TrimSpace(reason)
	return nil
}

// Book marks an APPROVED application as booked with flat type t.
func (a *Application) Book(officer User, t FlatType, now time.Time) error {
	if a.Status != StatusApproved {
		return ErrNotApproved
	}
	at := now
	a.BookedFlatType = t
	a.BookedBy = officer.NRIC
	a.BookedAt = &at
	a.transition(StatusBooked, officer.NRIC, now)
	return nil
}

// Withdraw moves a non-final application to WITHDRAWN. The booked flat type
// is kept so the released unit can be traced.
func (a *Application) Withdraw(by string, now time.Time) error {
	if a.Final() {
		return ErrApplicationFinal
	}
	a.transition(StatusWithdrawn, by, now)
	return nil
}

// Clone returns a deep copy of a.
func (a *Application) Clone() *Application {
	c := *a
	c.DocumentMeta = a.DocumentMeta.clone()
	if a.BookedAt != nil {
		at := *a.BookedAt
		c.BookedAt = &at
	}
	return &c
}
