package model

import (
	"regexp"
	"strings"
)

// Role tags which variant of actor a User is.
type Role string

const (
	RoleApplicant Role = "APPLICANT"
	RoleOfficer   Role = "OFFICER"
	RoleManager   Role = "MANAGER"
)

// MaritalStatus of an applicant.
type MaritalStatus string

const (
	Single  MaritalStatus = "SINGLE"
	Married MaritalStatus = "MARRIED"
)

var nricPattern = regexp.MustCompile(`^[ST]\d{7}[A-Z]$`)

// ValidNRIC reports whether s is a well-formed NRIC.
func ValidNRIC(s string) bool {
	return nricPattern.MatchString(s)
}

// ParseRole converts a raw string to a Role.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	switch r {
	case RoleApplicant, RoleOfficer, RoleManager:
		return r, nil
	}
	return "", Validationf("unknown role %q", s)
}

// ParseMaritalStatus converts a raw string to a MaritalStatus.
func ParseMaritalStatus(s string) (MaritalStatus, error) {
	m := MaritalStatus(strings.ToUpper(strings.TrimSpace(s)))
	switch m {
	case Single, Married:
		return m, nil
	}
	return "", Validationf("unknown marital status %q", s)
}

// Profile is the personal record shared by every actor variant.
type Profile struct {
	NRIC          string        `json:"nric" yaml:"nric"`
	Name          string        `json:"name" yaml:"name"`
	Age           int           `json:"age" yaml:"age"`
	MaritalStatus MaritalStatus `json:"marital_status" yaml:"marital_status"`
}

// User is an actor: a profile tagged with its role. The engine trusts that
// the NRIC has been validated at the authentication boundary.
type User struct {
	Profile `yaml:",inline"`
	Role    Role `json:"role" yaml:"role"`
}

// IsManager reports whether u may manage projects.
func (u User) IsManager() bool { return u.Role == RoleManager }

// IsOfficer reports whether u may handle projects as an officer.
func (u User) IsOfficer() bool { return u.Role == RoleOfficer }

// ApplicantProfile returns the profile u applies with. Officers apply using
// their own profile; managers cannot apply.
func (u User) ApplicantProfile() (Profile, bool) {
	switch u.Role {
	case RoleApplicant, RoleOfficer:
		return u.Profile, true
	}
	return Profile{}, false
}
