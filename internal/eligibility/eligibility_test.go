package eligibility

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

func profile(age int, ms model.MaritalStatus) model.Profile {
	return model.Profile{NRIC: "S1234567A", Age: age, MaritalStatus: ms}
}

var (
	both      = []model.FlatType{model.TwoRoom, model.ThreeRoom}
	twoOnly   = []model.FlatType{model.TwoRoom}
	threeOnly = []model.FlatType{model.ThreeRoom}
)

func TestCanApply(t *testing.T) {
	cases := []struct {
		name    string
		p       model.Profile
		offered []model.FlatType
		want    bool
	}{
		{"married 21 any type", profile(21, model.Married), threeOnly, true},
		{"married 20", profile(20, model.Married), both, false},
		{"married nothing offered", profile(30, model.Married), nil, false},
		{"single 35 two-room", profile(35, model.Single), both, true},
		{"single 40 three-room only", profile(40, model.Single), threeOnly, false},
		{"single 34", profile(34, model.Single), twoOnly, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, CanApply(tc.p, tc.offered))
		})
	}
}

func TestCanView_IgnoresApplyEligibility(t *testing.T) {
	young := profile(19, model.Single)
	assert.False(t, CanApply(young, both))
	assert.True(t, CanView(young, both))
	assert.False(t, CanView(young, nil))
}

func TestCheckFlatType(t *testing.T) {
	assert.True(t, CheckFlatType(profile(21, model.Married), model.ThreeRoom))
	assert.False(t, CheckFlatType(profile(20, model.Married), model.TwoRoom))
	assert.True(t, CheckFlatType(profile(35, model.Single), model.TwoRoom))
	assert.False(t, CheckFlatType(profile(50, model.Single), model.ThreeRoom))
	assert.False(t, CheckFlatType(model.Profile{Age: 60}, model.TwoRoom))
}

func TestApplicableTypes(t *testing.T) {
	assert.Equal(t, twoOnly, ApplicableTypes(profile(36, model.Single), both))
	assert.Equal(t, both, ApplicableTypes(profile(25, model.Married), both))
	assert.Empty(t, ApplicableTypes(profile(20, model.Married), both))
}
