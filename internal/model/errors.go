package model

import "fmt"

// ErrorKind classifies why a business operation was refused.
type ErrorKind string

const (
	KindValidation        ErrorKind = "VALIDATION"
	KindAuthorization     ErrorKind = "AUTHORIZATION"
	KindState             ErrorKind = "STATE"
	KindResourceExhausted ErrorKind = "RESOURCE_EXHAUSTED"
	KindNotFound          ErrorKind = "NOT_FOUND"
)

// Error is the typed result of a refused operation. Callers branch on Kind
// with errors.Is against the kind sentinels below, or on a specific reason
// sentinel such as ErrAlreadyBooked.
type Error struct {
	Kind   ErrorKind
	Reason string
}

func (e *Error) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return e.Reason
}

// Is matches a kind sentinel (no reason) by kind, and a reason sentinel by
// kind and reason.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Reason == "" {
		return e.Kind == t.Kind
	}
	return e.Kind == t.Kind && e.Reason == t.Reason
}

func newError(kind ErrorKind, reason string) *Error {
	return &Error{Kind: kind, Reason: reason}
}

// Validationf builds a validation error with a formatted reason.
func Validationf(format string, args ...any) error {
	return newError(KindValidation, fmt.Sprintf(format, args...))
}

// Unauthorizedf builds an authorization error with a formatted reason.
func Unauthorizedf(format string, args ...any) error {
	return newError(KindAuthorization, fmt.Sprintf(format, args...))
}

// Statef builds a state error with a formatted reason.
func Statef(format string, args ...any) error {
	return newError(KindState, fmt.Sprintf(format, args...))
}

// NotFoundf builds a not-found error with a formatted reason.
func NotFoundf(format string, args ...any) error {
	return newError(KindNotFound, fmt.Sprintf(format, args...))
}

// Kind sentinels.
var (
	ErrValidation        = &Error{Kind: KindValidation}
	ErrAuthorization     = &Error{Kind: KindAuthorization}
	ErrState             = &Error{Kind: KindState}
	ErrResourceExhausted = &Error{Kind: KindResourceExhausted}
	ErrNotFound          = &Error{Kind: KindNotFound}
)

// Reason sentinels.
var (
	ErrNotOwner           = newError(KindAuthorization, "only the submitter may modify this document")
	ErrNotProjectManager  = newError(KindAuthorization, "manager is not in charge of this project")
	ErrNotManager         = newError(KindAuthorization, "only managers may perform this action")
	ErrNotOfficer         = newError(KindAuthorization, "only officers may perform this action")
	ErrCannotApply        = newError(KindAuthorization, "actor cannot apply for flats")
	ErrIneligible         = newError(KindAuthorization, "applicant is not eligible to apply for this project")
	ErrIneligibleFlatType = newError(KindAuthorization, "applicant is not eligible for this flat type")
	ErrOfficerNotAssigned = newError(KindAuthorization, "officer is not assigned to this project")
	ErrProjectHidden      = newError(KindAuthorization, "project is not open for applications")

	ErrIllegalTransition = newError(KindState, "transition not allowed from current status")
	ErrNotApproved       = newError(KindState, "application is not approved")
	ErrNotBooked         = newError(KindState, "application is not booked")
	ErrActiveApplication = newError(KindState, "applicant already has an active application")
	ErrAlreadyBooked     = newError(KindState, "applicant already has a booked flat")
	ErrHandlingProject   = newError(KindState, "officer is handling this project")
	ErrAppliedToProject  = newError(KindState, "officer has applied for this project")
	ErrApplicationFinal  = newError(KindState, "application is already final")
	ErrWithdrawalExists  = newError(KindState, "a withdrawal request already exists for this application")
	ErrAlreadyRegistered = newError(KindState, "officer already registered for this project")
	ErrProjectReferenced = newError(KindState, "project is referenced by documents")
	ErrDuplicateProject  = newError(KindValidation, "project name already exists")
	ErrBlankReason       = newError(KindValidation, "a non-blank reason is required")
	ErrBlankContent      = newError(KindValidation, "content must not be empty")
	ErrInvalidWindow     = newError(KindValidation, "open date must not be after close date")
	ErrNegativeValue     = newError(KindValidation, "unit counts and prices must not be negative")
	ErrUnknownFlatType   = newError(KindValidation, "unknown flat type")
	ErrBelowCommitted    = newError(KindValidation, "unit count is below units already booked")
	ErrNoUnits           = newError(KindResourceExhausted, "no remaining units of this flat type")
	ErrNoOfficerSlots    = newError(KindResourceExhausted, "no officer slots available")
	ErrManagerBusy       = newError(KindResourceExhausted, "manager busy during this period")
	ErrOfficerBusy       = newError(KindResourceExhausted, "officer handles another project during this period")
	ErrInventoryConflict = newError(KindState, "inventory does not match document state")
)
