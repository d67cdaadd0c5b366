package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

func day(s string) time.Time {
	t, _ := time.Parse(model.DateLayout, s)
	return t
}

func project(name, open, close string) *model.Project {
	return &model.Project{Name: name, OpenDate: day(open), CloseDate: day(close)}
}

func TestCheckManager(t *testing.T) {
	owned := []*model.Project{project("Yishun-1", "2024-01-01", "2024-03-01")}

	err := CheckManager(owned, model.DateRange{Open: day("2024-02-01"), Close: day("2024-04-01")}, "")
	assert.ErrorIs(t, err, model.ErrManagerBusy)
	assert.Contains(t, err.Error(), "Yishun-1")

	assert.NoError(t, CheckManager(owned, model.DateRange{Open: day("2024-03-02"), Close: day("2024-04-01")}, ""))
	assert.NoError(t, CheckManager(owned, owned[0].Window(), "Yishun-1"), "editing a project does not clash with itself")
}

func TestCheckOfficer(t *testing.T) {
	handled := []*model.Project{project("Tengah", "2024-05-01", "2024-06-30")}

	assert.ErrorIs(t, CheckOfficer(handled, project("Bidadari", "2024-06-30", "2024-07-31")), model.ErrOfficerBusy)
	assert.NoError(t, CheckOfficer(handled, project("Bidadari", "2024-07-01", "2024-07-31")))
	assert.NoError(t, CheckOfficer(handled, project("Tengah", "2024-05-01", "2024-06-30")))
}
