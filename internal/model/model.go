// Package model defines the core domain types for the BTO housing system:
// actors, projects with their flat inventory, and the four document kinds
// that move through the approval lifecycle.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProjectPatch lists the optional changes a manager may make to a project.
// Nil fields are left untouched.
type ProjectPatch struct {
	Neighbourhood *string
	OpenDate      *time.Time
	CloseDate     *time.Time
	Units         map[FlatType]int
	Prices        map[FlatType]decimal.Decimal
}

// ProjectFilter narrows a project listing. OpenOn, when set, keeps only
// projects whose application window contains that day; OpenNow asks the
// engine to fill it with today.
type ProjectFilter struct {
	Neighbourhood string
	FlatType      FlatType
	OpenNow       bool
	OpenOn        time.Time
}

// Match reports whether p passes the filter.
func (f ProjectFilter) Match(p *Project) bool {
	if f.Neighbourhood != "" && f.Neighbourhood != p.Neighbourhood {
		return false
	}
	if f.FlatType != "" && !p.Offers(f.FlatType) {
		return false
	}
	if !f.OpenOn.IsZero() && !p.Window().Contains(f.OpenOn) {
		return false
	}
	return true
}

// Eligibility tells an applicant whether they may apply to a project and
// which of its flat types they could book.
type Eligibility struct {
	ProjectName string     `json:"project_name"`
	CanApply    bool       `json:"can_apply"`
	FlatTypes   []FlatType `json:"flat_types"`
}

// Receipt summarises a booked flat for the applicant.
type Receipt struct {
	ApplicationID string          `json:"application_id"`
	Applicant     Profile         `json:"applicant"`
	ProjectName   string          `json:"project_name"`
	Neighbourhood string          `json:"neighbourhood"`
	FlatType      FlatType        `json:"flat_type"`
	Price         decimal.Decimal `json:"price"`
	BookedBy      string          `json:"booked_by"`
	BookedAt      time.Time       `json:"booked_at"`
}

// CreateProjectRequest is the payload for creating a project.
type CreateProjectRequest struct {
	Name          string                     `json:"name"`
	Neighbourhood string                     `json:"neighbourhood"`
	Units         map[string]int             `json:"units"`
	Prices        map[string]decimal.Decimal `json:"prices"`
	OpenDate      string                     `json:"open_date"`
	CloseDate     string                     `json:"close_date"`
	Visible       bool                       `json:"visible"`
}

// EditProjectRequest is the payload for editing a project.
type EditProjectRequest struct {
	Neighbourhood *string                    `json:"neighbourhood"`
	OpenDate      *string                    `json:"open_date"`
	CloseDate     *string                    `json:"close_date"`
	Units         map[string]int             `json:"units"`
	Prices        map[string]decimal.Decimal `json:"prices"`
}

// VisibilityRequest toggles project visibility.
type VisibilityRequest struct {
	Visible bool `json:"visible"`
}

// ApplyRequest is the payload for applying to a project. Draft keeps the
// application unsubmitted.
type ApplyRequest struct {
	ProjectName string `json:"project_name"`
	Draft       bool   `json:"draft"`
}

// RegisterRequest is the payload for an officer joining a project team.
// Draft keeps the registration unsubmitted.
type RegisterRequest struct {
	ProjectName string `json:"project_name"`
	Draft       bool   `json:"draft"`
}

// DecisionRequest carries a manager's approval or rejection.
type DecisionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`
}

// BookingRequest names the flat type an officer books.
type BookingRequest struct {
	FlatType string `json:"flat_type"`
}

// WithdrawalRequest is the payload for withdrawing an application.
type WithdrawalRequest struct {
	Reason string `json:"reason"`
	Draft  bool   `json:"draft"`
}

// EnquiryRequest is the payload for creating an enquiry.
type EnquiryRequest struct {
	ProjectName string `json:"project_name"`
	Content     string `json:"content"`
	Draft       bool   `json:"draft"`
}

// ContentRequest carries free text for enquiry edits and replies.
type ContentRequest struct {
	Content string `json:"content"`
}

// ErrorResponse is a standard JSON error envelope.
type ErrorResponse struct {
	Error string    `json:"error"`
	Kind  ErrorKind `json:"kind,omitempty"`
}
