package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of a document.
//
//	DRAFT ──► SUBMITTED | PENDING_APPROVAL ──► APPROVED ──► BOOKED
//	  │                   │                       │            │
//	  └──► CLOSED         └──► REJECTED           └────────────┴──► WITHDRAWN
//
// Enquiries go SUBMITTED ──► REPLIED instead of the approval branch.
type Status string

const (
	StatusDraft           Status = "DRAFT"
	StatusSubmitted       Status = "SUBMITTED"
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusBooked          Status = "BOOKED"
	StatusWithdrawn       Status = "WITHDRAWN"
	StatusReplied         Status = "REPLIED"
	StatusClosed          Status = "CLOSED"
)

// Terminal reports whether no further transition leaves s.
func (s Status) Terminal() bool {
	switch s {
	case StatusRejected, StatusWithdrawn, StatusClosed, StatusReplied:
		return true
	}
	return false
}

// Kind identifies one of the four document variants.
type Kind string

const (
	KindApplication  Kind = "APP"
	KindRegistration Kind = "REG"
	KindWithdrawal   Kind = "WDR"
	KindEnquiry      Kind = "ENQ"
)

// tokenLen is the length of the opaque part of a document ID.
const tokenLen = 8

// NewDocumentID returns "<KIND>-" followed by an 8-character opaque token.
func NewDocumentID(k Kind) string {
	token := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:tokenLen]
	return string(k) + "-" + token
}

// KindOf routes a document ID by its 4-character prefix.
func KindOf(id string) (Kind, bool) {
	if len(id) < 4 || id[3] != '-' {
		return "", false
	}
	switch k := Kind(id[:3]); k {
	case KindApplication, KindRegistration, KindWithdrawal, KindEnquiry:
		return k, true
	}
	return "", false
}

// Document is the lifecycle contract shared by the four document kinds.
type Document interface {
	DocumentID() string
	DocumentKind() Kind
	Meta() *DocumentMeta
	ProjectRef() string
}

// DocumentMeta holds the fields every document carries. It is embedded in
// each variant and only mutated through the variant's transition methods.
type DocumentMeta struct {
	ID             string     `json:"id"`
	Submitter      string     `json:"submitter"`
	Status         Status     `json:"status"`
	SubmittedAt    *time.Time `json:"submitted_at,omitempty"`
	LastModifiedAt time.Time  `json:"last_modified_at"`
	LastModifiedBy string     `json:"last_modified_by"`
}

func newMeta(k Kind, submitter string, now time.Time) DocumentMeta {
	return DocumentMeta{
		ID:             NewDocumentID(k),
		Submitter:      submitter,
		Status:         StatusDraft,
		LastModifiedAt: now,
		LastModifiedBy: submitter,
	}
}

func (m *DocumentMeta) DocumentID() string  { return m.ID }
func (m *DocumentMeta) Meta() *DocumentMeta { return m }

// OwnedBy reports whether nric submitted the document.
func (m *DocumentMeta) OwnedBy(nric string) bool {
	return m.Submitter == nric
}

func (m *DocumentMeta) touch(by string, now time.Time) {
	m.LastModifiedAt = now
	m.LastModifiedBy = by
}

func (m *DocumentMeta) transition(to Status, by string, now time.Time) {
	m.Status = to
	m.touch(by, now)
}

// submit moves a DRAFT owned by actor to target and stamps the submission
// date.
func (m *DocumentMeta) submit(actor User, target Status, now time.Time) error {
	if !m.OwnedBy(actor.NRIC) {
		return ErrNotOwner
	}
	if m.Status != StatusDraft {
		return ErrIllegalTransition
	}
	at := now
	m.SubmittedAt = &at
	m.transition(target, actor.NRIC, now)
	return nil
}

// requireOwnerIn checks ownership and that the status is one of allowed.
func (m *DocumentMeta) requireOwnerIn(actor User, allowed ...Status) error {
	if !m.OwnedBy(actor.NRIC) {
		return ErrNotOwner
	}
	for _, s := range allowed {
		if m.Status == s {
			return nil
		}
	}
	return ErrIllegalTransition
}

// close soft-deletes the document.
func (m *DocumentMeta) close(actor User, now time.Time, allowed ...Status) error {
	if err := m.requireOwnerIn(actor, allowed...); err != nil {
		return err
	}
	m.transition(StatusClosed, actor.NRIC, now)
	return nil
}

// decide applies a manager's approval or rejection to a PENDING_APPROVAL
// document. The project is the one the document refers to.
func (m *DocumentMeta) decide(manager User, project *Project, approve bool, reason string, now time.Time) error {
	if !manager.IsManager() {
		return ErrNotManager
	}
	if project == nil || !project.ManagedBy(manager.NRIC) {
		return ErrNotProjectManager
	}
	if m.Status != StatusPendingApproval {
		return ErrIllegalTransition
	}
	if !approve && strings.TrimSpace(reason) == "" {
		return ErrBlankReason
	}
	if approve {
		m.transition(StatusApproved, manager.NRIC, now)
	} else {
		m.transition(StatusRejected, manager.NRIC, now)
	}
	return nil
}

func (m DocumentMeta) clone() DocumentMeta {
	c := m
	if m.SubmittedAt != nil {
		at := *m.SubmittedAt
		c.SubmittedAt = &at
	}
	return c
}
