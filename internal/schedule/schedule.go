// Package schedule enforces exclusivity windows: a manager owns, and an
// officer handles, at most one project per application period.
package schedule

import (
	"fmt"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// FirstOverlap returns the first project in ps, other than the one named
// exclude, whose window overlaps w.
func FirstOverlap(ps []*model.Project, w model.DateRange, exclude string) *model.Project {
	for _, p := range ps {
		if p.Name == exclude {
			continue
		}
		if p.Window().Overlaps(w) {
			return p
		}
	}
	return nil
}

// CheckManager fails with model.ErrManagerBusy when the manager already owns
// a project, other than exclude, whose window overlaps w.
func CheckManager(owned []*model.Project, w model.DateRange, exclude string) error {
	if p := FirstOverlap(owned, w, exclude); p != nil {
		return fmt.Errorf("%w: %s runs %s", model.ErrManagerBusy, p.Name, p.Window())
	}
	return nil
}

// CheckOfficer fails with model.ErrOfficerBusy when the officer already
// handles a different project whose window overlaps target's.
func CheckOfficer(handled []*model.Project, target *model.Project) error {
	if p := FirstOverlap(handled, target.Window(), target.Name); p != nil {
		return fmt.Errorf("%w: %s runs %s", model.ErrOfficerBusy, p.Name, p.Window())
	}
	return nil
}
