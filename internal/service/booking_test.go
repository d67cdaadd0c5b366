package service

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// metricValue reads a counter or gauge sample from reg by name and labels.
func metricValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metric:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metric
				}
			}
			if m.GetCounter() != nil {
				return m.GetCounter().GetValue()
			}
			return m.GetGauge().GetValue()
		}
	}
	return 0
}

func TestBookFlat_BooksAndBlocksSecondApplication(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)
	f.project(t, "Tampines-2", "2024-01-01", "2024-03-01", otherMgr,
		map[model.FlatType]int{model.TwoRoom: 5})

	app := f.approvedApplication(t, married, "Yishun-1", manager)
	assert.Equal(t, model.StatusApproved, app.Status)

	booked, err := f.engine.BookFlat(f.ctx, officer, app.ID, model.TwoRoom)
	require.NoError(t, err)
	assert.Equal(t, model.StatusBooked, booked.Status)
	assert.Equal(t, model.TwoRoom, booked.BookedFlatType)
	assert.Equal(t, officer.NRIC, booked.LastModifiedBy)
	assert.Equal(t, 1, f.remaining(t, "Yishun-1", model.TwoRoom))

	_, err = f.engine.Apply(f.ctx, married, "Tampines-2")
	assert.ErrorIs(t, err, model.ErrAlreadyBooked)

	reg := f.metrics.Registry()
	assert.Equal(t, 1.0, metricValue(t, reg, "bto_bookings_total", map[string]string{"outcome": metrics.OutcomeBooked}))
	assert.Equal(t, 1.0, metricValue(t, reg, "bto_remaining_units", map[string]string{"project": "Yishun-1", "flat_type": "TWO_ROOM"}))
}

func TestBookFlat_PreconditionsInOrder(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)
	stranger := user("T5555555E", model.RoleOfficer, 30, model.Married)
	require.NoError(t, f.engine.PutUser(f.ctx, stranger))

	pending, err := f.engine.Apply(f.ctx, single40, "Yishun-1")
	require.NoError(t, err)

	t.Run("not approved", func(t *testing.T) {
		_, err := f.engine.BookFlat(f.ctx, officer, pending.ID, model.TwoRoom)
		assert.ErrorIs(t, err, model.ErrNotApproved)
	})

	_, err = f.engine.ProcessApplication(f.ctx, manager, pending.ID, true, "")
	require.NoError(t, err)

	t.Run("officer not assigned", func(t *testing.T) {
		_, err := f.engine.BookFlat(f.ctx, stranger, pending.ID, model.TwoRoom)
		assert.ErrorIs(t, err, model.ErrOfficerNotAssigned)
	})

	t.Run("flat type ineligible", func(t *testing.T) {
		_, err := f.engine.BookFlat(f.ctx, officer, pending.ID, model.ThreeRoom)
		assert.ErrorIs(t, err, model.ErrIneligibleFlatType)
		assert.Equal(t, 1, f.remaining(t, "Yishun-1", model.ThreeRoom))
	})

	t.Run("unknown application", func(t *testing.T) {
		_, err := f.engine.BookFlat(f.ctx, officer, "APP-DEADBEEF", model.TwoRoom)
		assert.ErrorIs(t, err, model.ErrNotFound)
	})

	assert.Equal(t, 4.0, metricValue(t, f.metrics.Registry(), "bto_bookings_total", map[string]string{"outcome": metrics.OutcomeRejected}))
}

func TestBookFlat_NoUnitsLeft(t *testing.T) {
	f := newFixture(t)
	f.project(t, "Yishun-1", "2024-01-01", "2024-03-01", manager,
		map[model.FlatType]int{model.TwoRoom: 1})
	f.assignOfficer(t, officer, "Yishun-1", manager)

	first := f.approvedApplication(t, married, "Yishun-1", manager)
	second := f.approvedApplication(t, single40, "Yishun-1", manager)

	_, err := f.engine.BookFlat(f.ctx, officer, first.ID, model.TwoRoom)
	require.NoError(t, err)

	_, err = f.engine.BookFlat(f.ctx, officer, second.ID, model.TwoRoom)
	assert.ErrorIs(t, err, model.ErrNoUnits)
	assert.ErrorIs(t, err, model.ErrResourceExhausted)
	assert.Equal(t, 0, f.remaining(t, "Yishun-1", model.TwoRoom))
	assert.Equal(t, model.StatusApproved, f.application(t, second.ID).Status)
}

func TestBookFlat_RollsBackWhenSaveFails(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)
	app := f.approvedApplication(t, married, "Yishun-1", manager)

	f.store.failApplicationSave = true
	_, err := f.engine.BookFlat(f.ctx, officer, app.ID, model.TwoRoom)
	f.store.failApplicationSave = false

	require.ErrorIs(t, err, errSaveFailed)
	assert.Equal(t, 2, f.remaining(t, "Yishun-1", model.TwoRoom))
	got := f.application(t, app.ID)
	assert.Equal(t, model.StatusApproved, got.Status)
	assert.Empty(t, got.BookedFlatType)

	reg := f.metrics.Registry()
	assert.Equal(t, 1.0, metricValue(t, reg, "bto_booking_rollbacks_total", nil))
	assert.Equal(t, 1.0, metricValue(t, reg, "bto_bookings_total", map[string]string{"outcome": metrics.OutcomeRolledBack}))

	// The application can still be booked once persistence recovers.
	_, err = f.engine.BookFlat(f.ctx, officer, app.ID, model.TwoRoom)
	require.NoError(t, err)
	assert.Equal(t, 1, f.remaining(t, "Yishun-1", model.TwoRoom))
}

func TestBookFlat_ConcurrentBookingsNeverOverbook(t *testing.T) {
	f := newFixture(t)
	f.project(t, "Yishun-1", "2024-01-01", "2024-03-01", manager,
		map[model.FlatType]int{model.TwoRoom: 2})
	f.assignOfficer(t, officer, "Yishun-1", manager)

	var ids []string
	for _, nric := range []string{"S5000001A", "S5000002A", "S5000003A", "S5000004A", "S5000005A"} {
		u := user(nric, model.RoleApplicant, 30, model.Married)
		require.NoError(t, f.engine.PutUser(f.ctx, u))
		ids = append(ids, f.approvedApplication(t, u, "Yishun-1", manager).ID)
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
		ok int
	)
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := f.engine.BookFlat(f.ctx, officer, id, model.TwoRoom); err == nil {
				mu.Lock()
				ok++
				mu.Unlock()
			}
		}(id)
	}
	wg.Wait()

	assert.Equal(t, 2, ok)
	assert.Equal(t, 0, f.remaining(t, "Yishun-1", model.TwoRoom))
}

func TestGenerateReceipt(t *testing.T) {
	f := newFixture(t)
	f.yishun(t)
	app := f.approvedApplication(t, married, "Yishun-1", manager)

	_, err := f.engine.GenerateReceipt(f.ctx, officer, app.ID)
	assert.ErrorIs(t, err, model.ErrNotBooked)

	_, err = f.engine.BookFlat(f.ctx, officer, app.ID, model.ThreeRoom)
	require.NoError(t, err)

	receipt, err := f.engine.GenerateReceipt(f.ctx, officer, app.ID)
	require.NoError(t, err)
	assert.Equal(t, app.ID, receipt.ApplicationID)
	assert.Equal(t, married.Profile, receipt.Applicant)
	assert.Equal(t, model.ThreeRoom, receipt.FlatType)
	assert.Equal(t, "Yishun", receipt.Neighbourhood)
	assert.Equal(t, "100000", receipt.Price.String())
	assert.Equal(t, officer.NRIC, receipt.BookedBy)

	_, err = f.engine.GenerateReceipt(f.ctx, manager, app.ID)
	assert.ErrorIs(t, err, model.ErrOfficerNotAssigned)
}
