package model

import (
	"strings"
	"time"
)

// Registration is an officer's request to join a project's team.
type Registration struct {
	DocumentMeta
	ProjectName     string `json:"project_name"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

var _ Document = (*Registration)(nil)

// NewRegistration creates a DRAFT registration of officer for projectName.
func NewRegistration(officer User, projectName string, now time.Time) *Registration {
	return &Registration{
		DocumentMeta: newMeta(KindRegistration, officer.NRIC, now),
		ProjectName:  projectName,
	}
}

func (r *Registration) DocumentKind() Kind { return KindRegistration }
func (r *Registration) ProjectRef() string { return r.ProjectName }

// OfficerNRIC is the registering officer.
func (r *Registration) OfficerNRIC() string { return r.Submitter }

// Live reports whether the registration still ties the officer to the
// project.
func (r *Registration) Live() bool {
	switch r.Status {
	case StatusDraft, StatusPendingApproval, StatusApproved:
		return true
	}
	return false
}

// Submit sends a DRAFT registration for approval.
func (r *Registration) Submit(actor User, now time.Time) error {
	if !actor.IsOfficer() {
		return ErrNotOfficer
	}
	return r.submit(actor, StatusPendingApproval, now)
}

// Edit retargets a DRAFT registration at another project.
func (r *Registration) Edit(actor User, projectName string, now time.Time) error {
	projectName = strings.TrimSpace(projectName)
	if projectName == "" {
		return ErrBlankContent
	}
	if err := r.requireOwnerIn(actor, StatusDraft); err != nil {
		return err
	}
	r.ProjectName = projectName
	r.touch(actor.NRIC, now)
	return nil
}

// Delete closes a DRAFT registration.
func (r *Registration) Delete(actor User, now time.Time) error {
	return r.close(actor, now, StatusDraft)
}

// Approve is the manager's approval of a pending registration.
func (r *Registration) Approve(manager User, project *Project, now time.Time) error {
	return r.decide(manager, project, true, "", now)
}

// Reject is the manager's rejection of a pending registration.
func (r *Registration) Reject(manager User, project *Project, reason string, now time.Time) error {
	if err := r.decide(manager, project, false, reason, now); err != nil {
		return err
	}
	r.RejectionReason = strings.TrimSpace(reason)
	return nil
}

// Clone returns a deep copy of r.
func (r *Registration) Clone() *Registration {
	c := *r
	c.DocumentMeta = r.DocumentMeta.clone()
	return &c
}
