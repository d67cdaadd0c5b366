package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository/memory"
)

var (
	manager  = user("S1234567A", model.RoleManager, 45, model.Married)
	otherMgr = user("S7654321Z", model.RoleManager, 50, model.Married)
	officer  = user("T3333333C", model.RoleOfficer, 30, model.Married)
	single40 = user("S1111111A", model.RoleApplicant, 40, model.Single)
	married  = user("S2222222B", model.RoleApplicant, 30, model.Married)
	single25 = user("S4444444D", model.RoleApplicant, 25, model.Single)
)

func user(nric string, role model.Role, age int, status model.MaritalStatus) model.User {
	return model.User{
		Profile: model.Profile{NRIC: nric, Name: nric, Age: age, MaritalStatus: status},
		Role:    role,
	}
}

func day(s string) time.Time {
	t, err := model.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// errSaveFailed is injected by faultyStore.
var errSaveFailed = errors.New("injected save failure")

// faultyStore fails application saves while failApplicationSave is set.
type faultyStore struct {
	repository.Store
	failApplicationSave bool
}

func (s *faultyStore) Update(ctx context.Context, fn func(repository.Tx) error) error {
	return s.Store.Update(ctx, func(tx repository.Tx) error {
		return fn(faultyTx{Tx: tx, store: s})
	})
}

type faultyTx struct {
	repository.Tx
	store *faultyStore
}

func (t faultyTx) Applications() repository.Applications {
	apps := t.Tx.Applications()
	if t.store.failApplicationSave {
		return failingApplications{apps}
	}
	return apps
}

type failingApplications struct {
	repository.Applications
}

func (failingApplications) Save(context.Context, *model.Application) error {
	return errSaveFailed
}

type fixture struct {
	ctx     context.Context
	store   *faultyStore
	metrics *metrics.Collector
	engine  *Engine
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	mem, err := memory.New()
	require.NoError(t, err)

	f := &fixture{
		ctx:     context.Background(),
		store:   &faultyStore{Store: mem},
		metrics: metrics.NewCollector(),
	}
	f.engine = New(f.store,
		WithLogger(zaptest.NewLogger(t)),
		WithMetrics(f.metrics),
		WithClock(func() time.Time { return day("2024-01-15") }),
	)
	for _, u := range []model.User{manager, otherMgr, officer, single40, married, single25} {
		require.NoError(t, f.engine.PutUser(f.ctx, u))
	}
	return f
}

func (f *fixture) project(t *testing.T, name, open, close string, owner model.User, units map[model.FlatType]int) *model.Project {
	t.Helper()
	prices := make(map[model.FlatType]decimal.Decimal, len(units))
	for ft := range units {
		prices[ft] = decimal.NewFromInt(100000)
	}
	p, err := f.engine.CreateProject(f.ctx, owner, model.ProjectSpec{
		Name:          name,
		Neighbourhood: "Yishun",
		Units:         units,
		Prices:        prices,
		OpenDate:      day(open),
		CloseDate:     day(close),
		Visible:       true,
	})
	require.NoError(t, err)
	return p
}

func (f *fixture) assignOfficer(t *testing.T, o model.User, projectName string, owner model.User) {
	t.Helper()
	reg, err := f.engine.RegisterForProject(f.ctx, o, projectName)
	require.NoError(t, err)
	_, err = f.engine.ProcessRegistration(f.ctx, owner, reg.ID, true, "")
	require.NoError(t, err)
}

func (f *fixture) approvedApplication(t *testing.T, applicant model.User, projectName string, owner model.User) *model.Application {
	t.Helper()
	app, err := f.engine.Apply(f.ctx, applicant, projectName)
	require.NoError(t, err)
	app, err = f.engine.ProcessApplication(f.ctx, owner, app.ID, true, "")
	require.NoError(t, err)
	return app
}

func (f *fixture) remaining(t *testing.T, projectName string, ft model.FlatType) int {
	t.Helper()
	p, err := f.engine.GetProject(f.ctx, manager, projectName)
	require.NoError(t, err)
	return p.RemainingUnits[ft]
}

func (f *fixture) application(t *testing.T, id string) *model.Application {
	t.Helper()
	var app *model.Application
	require.NoError(t, f.store.View(f.ctx, func(tx repository.Tx) error {
		a, err := tx.Applications().FindByID(f.ctx, id)
		app = a
		return err
	}))
	return app
}

// yishun is the project most tests book against.
func (f *fixture) yishun(t *testing.T) *model.Project {
	t.Helper()
	p := f.project(t, "Yishun-1", "2024-01-01", "2024-03-01", manager,
		map[model.FlatType]int{model.TwoRoom: 2, model.ThreeRoom: 1})
	f.assignOfficer(t, officer, p.Name, manager)
	return p
}
