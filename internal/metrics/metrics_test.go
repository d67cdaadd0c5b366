package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

func TestCollector_Bookings(t *testing.T) {
	c := NewCollector()

	c.RecordBooking(OutcomeBooked)
	c.RecordBooking(OutcomeBooked)
	c.RecordBooking(OutcomeRejected)
	c.RecordRollback()

	assert.Equal(t, 2.0, testutil.ToFloat64(c.bookings.WithLabelValues(OutcomeBooked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.bookings.WithLabelValues(OutcomeRejected)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.rollbacks))
}

func TestCollector_Transitions(t *testing.T) {
	c := NewCollector()
	c.RecordTransition(model.KindApplication, model.StatusApproved)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.transitions.WithLabelValues("APP", "APPROVED")))
}

func TestCollector_Inventory(t *testing.T) {
	c := NewCollector()
	p := &model.Project{
		Name:           "Yishun-1",
		InitialUnits:   map[model.FlatType]int{model.TwoRoom: 2},
		RemainingUnits: map[model.FlatType]int{model.TwoRoom: 1},
	}

	c.RecordInventory(p)
	assert.Equal(t, 1.0, testutil.ToFloat64(c.remainingUnits.WithLabelValues("Yishun-1", "TWO_ROOM")))

	c.ForgetProject("Yishun-1")
	assert.Equal(t, 0, testutil.CollectAndCount(c.remainingUnits))
}

func TestCollector_NilIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordBooking(OutcomeBooked)
		c.RecordRollback()
		c.RecordTransition(model.KindEnquiry, model.StatusReplied)
		c.RecordInventory(&model.Project{Name: "x"})
		c.ForgetProject("x")
	})
}

func TestCollector_Handler(t *testing.T) {
	c := NewCollector()
	c.RecordBooking(OutcomeBooked)

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), `bto_bookings_total{outcome="booked"} 1`))
}
