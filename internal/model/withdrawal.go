package model

import (
	"strings"
	"time"
)

// Withdrawal asks a manager to withdraw an application. It refers to the
// application by ID and does not own it.
type Withdrawal struct {
	DocumentMeta
	ApplicationID   string `json:"application_id"`
	ProjectName     string `json:"project_name"`
	Reason          string `json:"reason,omitempty"`
	RejectionReason string `json:"rejection_reason,omitempty"`
}

var _ Document = (*Withdrawal)(nil)

// NewWithdrawal creates a DRAFT withdrawal of app by its applicant.
func NewWithdrawal(applicant User, app *Application, reason string, now time.Time) *Withdrawal {
	return &Withdrawal{
		DocumentMeta:  newMeta(KindWithdrawal, applicant.NRIC, now),
		ApplicationID: app.ID,
		ProjectName:   app.ProjectName,
		Reason:        strings.TrimSpace(reason),
	}
}

func (w *Withdrawal) DocumentKind() Kind { return KindWithdrawal }
func (w *Withdrawal) ProjectRef() string { return w.ProjectName }

// Live reports whether the withdrawal blocks another request for the same
// application.
func (w *Withdrawal) Live() bool {
	return w.Status != StatusRejected && w.Status != StatusClosed
}

// Submit sends a DRAFT withdrawal for approval.
func (w *Withdrawal) Submit(actor User, now time.Time) error {
	return w.submit(actor, StatusPendingApproval, now)
}

// Edit changes the stated reason of a DRAFT withdrawal.
func (w *Withdrawal) Edit(actor User, reason string, now time.Time) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return ErrBlankContent
	}
	if err := w.requireOwnerIn(actor, StatusDraft); err != nil {
		return err
	}
	w.Reason = reason
	w.touch(actor.NRIC, now)
	return nil
}

// Delete closes a DRAFT withdrawal.
func (w *Withdrawal) Delete(actor User, now time.Time) error {
	return w.close(actor, now, StatusDraft)
}

// Approve is the manager's approval of a pending withdrawal.
func (w *Withdrawal) Approve(manager User, project *Project, now time.Time) error {
	return w.decide(manager, project, true, "", now)
}

// Reject is the manager's rejection of a pending withdrawal.
func (w *Withdrawal) Reject(manager User, project *Project, reason string, now time.Time) error {
	if err := w.decide(manager, project, false, reason, now); err != nil {
		return err
	}
	w.RejectionReason = strings.TrimSpace(reason)
	return nil
}

// Clone returns a deep copy of w.
func (w *Withdrawal) Clone() *Withdrawal {
	c := *w
	c.DocumentMeta = w.DocumentMeta.clone()
	return &c
}
