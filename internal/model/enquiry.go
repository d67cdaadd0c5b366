package model

import (
	"strings"
	"time"
)

// Enquiry is a question from an applicant, optionally about a project. An
// empty ProjectName marks a general enquiry.
type Enquiry struct {
	DocumentMeta
	ProjectName  string     `json:"project_name,omitempty"`
	Content      string     `json:"content"`
	ReplyContent string     `json:"reply_content,omitempty"`
	Replier      string     `json:"replier,omitempty"`
	RepliedAt    *time.Time `json:"replied_at,omitempty"`
}

var _ Document = (*Enquiry)(nil)

// NewEnquiry creates a DRAFT enquiry.
func NewEnquiry(author User, projectName, content string, now time.Time) (*Enquiry, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, ErrBlankContent
	}
	return &Enquiry{
		DocumentMeta: newMeta(KindEnquiry, author.NRIC, now),
		ProjectName:  strings.TrimSpace(projectName),
		Content:      content,
	}, nil
}

func (e *Enquiry) DocumentKind() Kind { return KindEnquiry }
func (e *Enquiry) ProjectRef() string { return e.ProjectName }

// General reports whether the enquiry is not about a specific project.
func (e *Enquiry) General() bool { return e.ProjectName == "" }

// Submit sends a DRAFT enquiry.
func (e *Enquiry) Submit(actor User, now time.Time) error {
	return e.submit(actor, StatusSubmitted, now)
}

// Edit replaces the content while the enquiry has not been answered.
func (e *Enquiry) Edit(actor User, content string, now time.Time) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrBlankContent
	}
	if err := e.requireOwnerIn(actor, StatusDraft, StatusSubmitted); err != nil {
		return err
	}
	e.Content = content
	e.touch(actor.NRIC, now)
	return nil
}

// Delete closes an unanswered enquiry.
func (e *Enquiry) Delete(actor User, now time.Time) error {
	return e.close(actor, now, StatusDraft, StatusSubmitted)
}

// CanReply reports whether actor handles the enquiry. Project enquiries are
// answered by the project's manager or its assigned officers; general
// enquiries by any manager.
func (e *Enquiry) CanReply(actor User, project *Project) bool {
	if e.General() {
		return actor.IsManager()
	}
	if project == nil || project.Name != e.ProjectName {
		return false
	}
	switch {
	case actor.IsManager():
		return project.ManagedBy(actor.NRIC)
	case actor.IsOfficer():
		return project.HasOfficer(actor.NRIC)
	}
	return false
}

// Reply answers a SUBMITTED enquiry. A replied enquiry is immutable.
func (e *Enquiry) Reply(actor User, project *Project, content string, now time.Time) error {
	content = strings.TrimSpace(content)
	if content == "" {
		return ErrBlankContent
	}
	if !e.CanReply(actor, project) {
		return Unauthorizedf("%s does not handle enquiry %s", actor.NRIC, e.ID)
	}
	if e.Status != StatusSubmitted {
		return ErrIllegalTransition
	}
	at := now
	e.ReplyContent = content
	e.Replier = actor.NRIC
	e.RepliedAt = &at
	e.transition(StatusReplied, actor.NRIC, now)
	return nil
}

// Clone returns a deep copy of e.
func (e *Enquiry) Clone() *Enquiry {
	c := *e
	c.DocumentMeta = e.DocumentMeta.clone()
	if e.RepliedAt != nil {
		at := *e.RepliedAt
		c.RepliedAt = &at
	}
	return &c
}
