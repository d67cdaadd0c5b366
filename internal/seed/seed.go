// Package seed loads users and projects from a YAML file into the engine.
//
// Example:
//
//	users:
//	  - nric: S1234567A
//	    name: Jessica
//	    age: 26
//	    marital_status: married
//	    role: manager
//	projects:
//	  - name: Acacia Breeze
//	    neighbourhood: Yishun
//	    manager: S1234567A
//	    units: {2-Room: 2, 3-Room: 3}
//	    prices: {2-Room: "350000", 3-Room: "450000"}
//	    open_date: 2025-02-15
//	    close_date: 2025-03-20
//	    visible: true
//	    officers: [T2109876H]
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// File is the YAML seed document.
type File struct {
	Users    []model.User `yaml:"users"`
	Projects []Project    `yaml:"projects"`
}

// Project is a seeded project. Officers are registered and approved through
// the engine so slot and scheduling rules still apply.
type Project struct {
	Name          string            `yaml:"name"`
	Neighbourhood string            `yaml:"neighbourhood"`
	Manager       string            `yaml:"manager"`
	Units         map[string]int    `yaml:"units"`
	Prices        map[string]string `yaml:"prices"`
	OpenDate      string            `yaml:"open_date"`
	CloseDate     string            `yaml:"close_date"`
	Visible       bool              `yaml:"visible"`
	Officers      []string          `yaml:"officers"`
}

// Engine is the subset of the service engine the loader drives.
type Engine interface {
	PutUser(ctx context.Context, u model.User) error
	Actor(ctx context.Context, nric string) (model.User, error)
	CreateProject(ctx context.Context, manager model.User, spec model.ProjectSpec) (*model.Project, error)
	RegisterForProject(ctx context.Context, officer model.User, projectName string) (*model.Registration, error)
	ProcessRegistration(ctx context.Context, manager model.User, id string, approve bool, reason string) (*model.Registration, error)
}

// Decode parses a seed document.
func Decode(r io.Reader) (*File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	return &f, nil
}

// LoadFile opens and parses the seed document at path.
func LoadFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer fh.Close()
	return Decode(fh)
}

// Spec converts the seeded project into a model.ProjectSpec.
func (p Project) Spec() (model.ProjectSpec, error) {
	spec := model.ProjectSpec{
		Name:          p.Name,
		Neighbourhood: p.Neighbourhood,
		Units:         make(map[model.FlatType]int, len(p.Units)),
		Prices:        make(map[model.FlatType]decimal.Decimal, len(p.Prices)),
		Visible:       p.Visible,
	}
	for raw, n := range p.Units {
		t, err := model.ParseFlatType(raw)
		if err != nil {
			return spec, fmt.Errorf("project %s: %w: %q", p.Name, err, raw)
		}
		spec.Units[t] = n
	}
	for raw, s := range p.Prices {
		t, err := model.ParseFlatType(raw)
		if err != nil {
			return spec, fmt.Errorf("project %s: %w: %q", p.Name, err, raw)
		}
		price, err := decimal.NewFromString(s)
		if err != nil {
			return spec, fmt.Errorf("project %s: price %q: %w", p.Name, s, err)
		}
		spec.Prices[t] = price
	}
	var err error
	if spec.OpenDate, err = model.ParseDate(p.OpenDate); err != nil {
		return spec, fmt.Errorf("project %s: %w", p.Name, err)
	}
	if spec.CloseDate, err = model.ParseDate(p.CloseDate); err != nil {
		return spec, fmt.Errorf("project %s: %w", p.Name, err)
	}
	return spec, nil
}

// Apply stores every user, then creates each project and assigns its
// officers. Projects that already exist are skipped.
func Apply(ctx context.Context, e Engine, f *File, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	for _, u := range f.Users {
		if err := e.PutUser(ctx, u); err != nil {
			return fmt.Errorf("user %s: %w", u.NRIC, err)
		}
	}

	for _, p := range f.Projects {
		spec, err := p.Spec()
		if err != nil {
			return err
		}
		manager, err := e.Actor(ctx, p.Manager)
		if err != nil {
			return fmt.Errorf("project %s manager: %w", p.Name, err)
		}
		if _, err := e.CreateProject(ctx, manager, spec); err != nil {
			if errors.Is(err, model.ErrDuplicateProject) {
				log.Info("seed project exists, skipping", zap.String("project", p.Name))
				continue
			}
			return fmt.Errorf("project %s: %w", p.Name, err)
		}

		for _, nric := range p.Officers {
			officer, err := e.Actor(ctx, nric)
			if err != nil {
				return fmt.Errorf("project %s officer: %w", p.Name, err)
			}
			reg, err := e.RegisterForProject(ctx, officer, p.Name)
			if err != nil {
				return fmt.Errorf("project %s officer %s: %w", p.Name, nric, err)
			}
			if _, err := e.ProcessRegistration(ctx, manager, reg.ID, true, ""); err != nil {
				return fmt.Errorf("project %s officer %s: %w", p.Name, nric, err)
			}
		}
	}

	log.Info("seed applied", zap.Int("users", len(f.Users)), zap.Int("projects", len(f.Projects)))
	return nil
}
