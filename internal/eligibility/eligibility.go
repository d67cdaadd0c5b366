// Package eligibility decides who may view, apply for and book flats.
//
// Viewing and applying are separate policies: any applicant may view a
// visible project offering at least one flat type, even one they could not
// apply for.
package eligibility

import "github.com/Shivanand-hulikatti/bto-housing/internal/model"

const (
	// MinMarriedAge is the minimum age for married applicants.
	MinMarriedAge = 21
	// MinSingleAge is the minimum age for single applicants, who may only
	// take two-room flats.
	MinSingleAge = 35
)

// CanApply reports whether the applicant may apply to a project offering the
// given flat types.
func CanApply(p model.Profile, offered []model.FlatType) bool {
	switch {
	case p.MaritalStatus == model.Married && p.Age >= MinMarriedAge:
		return len(offered) > 0
	case p.MaritalStatus == model.Single && p.Age >= MinSingleAge:
		return contains(offered, model.TwoRoom)
	}
	return false
}

// CanView reports whether the applicant may see a project offering the given
// flat types. Project visibility is checked by the caller.
func CanView(_ model.Profile, offered []model.FlatType) bool {
	return len(offered) > 0
}

// CheckFlatType reports whether the applicant may book flat type t.
func CheckFlatType(p model.Profile, t model.FlatType) bool {
	switch p.MaritalStatus {
	case model.Married:
		return p.Age >= MinMarriedAge
	case model.Single:
		return p.Age >= MinSingleAge && t == model.TwoRoom
	}
	return false
}

// ApplicableTypes filters offered down to the types the applicant may book.
func ApplicableTypes(p model.Profile, offered []model.FlatType) []model.FlatType {
	var out []model.FlatType
	for _, t := range offered {
		if CheckFlatType(p, t) {
			out = append(out, t)
		}
	}
	return out
}

func contains(types []model.FlatType, t model.FlatType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}
