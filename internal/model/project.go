package model

import (
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FlatType is a category of unit offered by a project.
type FlatType string

const (
	TwoRoom   FlatType = "TWO_ROOM"
	ThreeRoom FlatType = "THREE_ROOM"
)

// FlatTypes lists every known flat type in display order.
var FlatTypes = []FlatType{TwoRoom, ThreeRoom}

// ParseFlatType converts a raw string ("2-Room", "two_room", "TWO_ROOM") to a
// FlatType.
func ParseFlatType(s string) (FlatType, error) {
	norm := strings.ToUpper(strings.NewReplacer("-", "_", " ", "_").Replace(strings.TrimSpace(s)))
	switch norm {
	case "TWO_ROOM", "2_ROOM":
		return TwoRoom, nil
	case "THREE_ROOM", "3_ROOM":
		return ThreeRoom, nil
	}
	return "", ErrUnknownFlatType
}

// MaxOfficerSlots bounds the number of officers a project may hold.
const MaxOfficerSlots = 10

// Project is a BTO project together with its flat inventory and officer
// slots. The project name is its identity.
type Project struct {
	Name           string                       `json:"name"`
	Neighbourhood  string                       `json:"neighbourhood"`
	InitialUnits   map[FlatType]int             `json:"initial_units"`
	RemainingUnits map[FlatType]int             `json:"remaining_units"`
	Prices         map[FlatType]decimal.Decimal `json:"prices"`
	OpenDate       time.Time                    `json:"open_date"`
	CloseDate      time.Time                    `json:"close_date"`
	ManagerNRIC    string                       `json:"manager_nric"`
	Officers       []string                     `json:"officers"`
	Visible        bool                         `json:"visible"`
	CreatedAt      time.Time                    `json:"created_at"`
	UpdatedAt      time.Time                    `json:"updated_at"`
}

// ProjectSpec carries the fields needed to create a project.
type ProjectSpec struct {
	Name          string
	Neighbourhood string
	Units         map[FlatType]int
	Prices        map[FlatType]decimal.Decimal
	OpenDate      time.Time
	CloseDate     time.Time
	Visible       bool
}

// NewProject validates spec and builds a project owned by managerNRIC with
// remaining units equal to the initial units. Name uniqueness and manager
// scheduling are checked by the caller, which owns the repository.
func NewProject(spec ProjectSpec, managerNRIC string, now time.Time) (*Project, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, Validationf("project name is required")
	}
	units, err := canonicalKeys(spec.Units)
	if err != nil {
		return nil, err
	}
	prices, err := canonicalKeys(spec.Prices)
	if err != nil {
		return nil, err
	}
	for _, n := range units {
		if n < 0 {
			return nil, ErrNegativeValue
		}
	}
	for _, p := range prices {
		if p.IsNegative() {
			return nil, ErrNegativeValue
		}
	}
	window := DateRange{Open: Day(spec.OpenDate), Close: Day(spec.CloseDate)}
	if !window.Valid() {
		return nil, ErrInvalidWindow
	}

	p := &Project{
		Name:           name,
		Neighbourhood:  strings.TrimSpace(spec.Neighbourhood),
		InitialUnits:   make(map[FlatType]int, len(units)),
		RemainingUnits: make(map[FlatType]int, len(units)),
		Prices:         prices,
		OpenDate:       window.Open,
		CloseDate:      window.Close,
		ManagerNRIC:    managerNRIC,
		Officers:       []string{},
		Visible:        spec.Visible,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for t, n := range units {
		p.InitialUnits[t] = n
		p.RemainingUnits[t] = n
	}
	return p, nil
}

// canonicalKeys re-keys m by parsed flat type, so "2-Room" and TWO_ROOM land
// on the same entry. Two keys naming the same type are rejected.
func canonicalKeys[V any](m map[FlatType]V) (map[FlatType]V, error) {
	out := make(map[FlatType]V, len(m))
	for raw, v := range m {
		t, err := ParseFlatType(string(raw))
		if err != nil {
			return nil, err
		}
		if _, dup := out[t]; dup {
			return nil, Validationf("flat type %s listed more than once", t)
		}
		out[t] = v
	}
	return out, nil
}

// Window returns the project's application period.
func (p *Project) Window() DateRange {
	return DateRange{Open: p.OpenDate, Close: p.CloseDate}
}

// OfferedTypes returns the flat types with at least one unit, in display order.
func (p *Project) OfferedTypes() []FlatType {
	var out []FlatType
	for _, t := range FlatTypes {
		if p.InitialUnits[t] > 0 {
			out = append(out, t)
		}
	}
	return out
}

// Offers reports whether the project offers flat type t.
func (p *Project) Offers(t FlatType) bool {
	return p.InitialUnits[t] > 0
}

// Booked returns how many units of t are committed to bookings.
func (p *Project) Booked(t FlatType) int {
	return p.InitialUnits[t] - p.RemainingUnits[t]
}

// DecrementRemainingUnit takes one unit of t. It reports false and leaves the
// inventory untouched when none remain.
func (p *Project) DecrementRemainingUnit(t FlatType) bool {
	if p.RemainingUnits[t] <= 0 {
		return false
	}
	p.RemainingUnits[t]--
	return true
}

// IncrementRemainingUnit returns one unit of t. It reports false and leaves
// the inventory untouched when remaining already equals initial.
func (p *Project) IncrementRemainingUnit(t FlatType) bool {
	if p.RemainingUnits[t] >= p.InitialUnits[t] {
		return false
	}
	p.RemainingUnits[t]++
	return true
}

// HasOfficer reports whether officerNRIC holds a slot.
func (p *Project) HasOfficer(officerNRIC string) bool {
	for _, o := range p.Officers {
		if o == officerNRIC {
			return true
		}
	}
	return false
}

// AvailableOfficerSlots returns how many officer slots are free.
func (p *Project) AvailableOfficerSlots() int {
	return MaxOfficerSlots - len(p.Officers)
}

// AddOfficer assigns an officer slot. It reports false when all slots are
// taken or the officer is already assigned.
func (p *Project) AddOfficer(officerNRIC string) bool {
	if len(p.Officers) >= MaxOfficerSlots || p.HasOfficer(officerNRIC) {
		return false
	}
	p.Officers = append(p.Officers, officerNRIC)
	return true
}

// RemoveOfficer frees the officer's slot and compacts the slot list.
func (p *Project) RemoveOfficer(officerNRIC string) bool {
	for i, o := range p.Officers {
		if o == officerNRIC {
			p.Officers = append(p.Officers[:i], p.Officers[i+1:]...)
			return true
		}
	}
	return false
}

// SetVisibility toggles whether applicants can see the project.
func (p *Project) SetVisibility(visible bool) {
	p.Visible = visible
}

// ManagedBy reports whether managerNRIC owns the project.
func (p *Project) ManagedBy(managerNRIC string) bool {
	return p.ManagerNRIC == managerNRIC
}

// EditUnits sets the initial count of t. Remaining units move by the same
// delta so committed bookings are preserved; counts below the committed
// bookings are rejected.
func (p *Project) EditUnits(managerNRIC string, t FlatType, n int) error {
	if !p.ManagedBy(managerNRIC) {
		return ErrNotProjectManager
	}
	t, err := ParseFlatType(string(t))
	if err != nil {
		return err
	}
	if n < 0 {
		return ErrNegativeValue
	}
	booked := p.Booked(t)
	if n < booked {
		return ErrBelowCommitted
	}
	p.InitialUnits[t] = n
	p.RemainingUnits[t] = n - booked
	return nil
}

// EditPrice sets the price of t.
func (p *Project) EditPrice(managerNRIC string, t FlatType, price decimal.Decimal) error {
	if !p.ManagedBy(managerNRIC) {
		return ErrNotProjectManager
	}
	t, err := ParseFlatType(string(t))
	if err != nil {
		return err
	}
	if price.IsNegative() {
		return ErrNegativeValue
	}
	p.Prices[t] = price
	return nil
}

// Clone returns a deep copy of p.
func (p *Project) Clone() *Project {
	c := *p
	c.InitialUnits = make(map[FlatType]int, len(p.InitialUnits))
	for k, v := range p.InitialUnits {
		c.InitialUnits[k] = v
	}
	c.RemainingUnits = make(map[FlatType]int, len(p.RemainingUnits))
	for k, v := range p.RemainingUnits {
		c.RemainingUnits[k] = v
	}
	c.Prices = make(map[FlatType]decimal.Decimal, len(p.Prices))
	for k, v := range p.Prices {
		c.Prices[k] = v
	}
	c.Officers = append([]string{}, p.Officers...)
	return &c
}

// SortProjects orders projects by name.
func SortProjects(ps []*Project) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
