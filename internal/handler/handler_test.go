package handler

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/repository/memory"
	"github.com/Shivanand-hulikatti/bto-housing/internal/service"
)

const (
	managerNRIC   = "S1234567A"
	officerNRIC   = "T3333333C"
	applicantNRIC = "S2222222B"
)

func newServer(t *testing.T, cfg RouterConfig) *httptest.Server {
	t.Helper()
	store, err := memory.New()
	require.NoError(t, err)
	log := zaptest.NewLogger(t)
	engine := service.New(store,
		service.WithLogger(log),
		service.WithMetrics(cfg.Metrics),
		service.WithClock(func() time.Time { return time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC) }),
	)
	for _, u := range []model.User{
		{Profile: model.Profile{NRIC: managerNRIC, Name: "Jessica", Age: 45, MaritalStatus: model.Married}, Role: model.RoleManager},
		{Profile: model.Profile{NRIC: officerNRIC, Name: "Daniel", Age: 30, MaritalStatus: model.Married}, Role: model.RoleOfficer},
		{Profile: model.Profile{NRIC: applicantNRIC, Name: "Grace", Age: 30, MaritalStatus: model.Married}, Role: model.RoleApplicant},
	} {
		require.NoError(t, engine.PutUser(context.Background(), u))
	}

	srv := httptest.NewServer(NewRouter(New(engine, log), cfg))
	t.Cleanup(srv.Close)
	return srv
}

// call sends a JSON request as nric and decodes the response into out when
// out is non-nil.
func call(t *testing.T, srv *httptest.Server, nric, method, path string, body, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if nric != "" {
		req.Header.Set(HeaderNRIC, nric)
	}
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

var yishun = map[string]any{
	"name":          "Yishun-1",
	"neighbourhood": "Yishun",
	"units":         map[string]int{"2-Room": 2, "3-Room": 1},
	"prices":        map[string]string{"2-Room": "100000", "3-Room": "150000"},
	"open_date":     "2024-01-01",
	"close_date":    "2024-03-01",
	"visible":       true,
}

func TestHealthCheck(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	var body map[string]string
	assert.Equal(t, http.StatusOK, call(t, srv, "", http.MethodGet, "/health", nil, &body))
	assert.Equal(t, "ok", body["status"])
}

func TestAuthenticate(t *testing.T) {
	srv := newServer(t, RouterConfig{})

	var e model.ErrorResponse
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "", http.MethodGet, "/projects", nil, &e))
	assert.Contains(t, e.Error, HeaderNRIC)

	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "X1234", http.MethodGet, "/projects", nil, nil))
	assert.Equal(t, http.StatusUnauthorized, call(t, srv, "S9999999Z", http.MethodGet, "/projects", nil, nil))

	// Lower case NRICs are normalised.
	assert.Equal(t, http.StatusOK, call(t, srv, "s2222222b", http.MethodGet, "/projects", nil, nil))
}

func TestBookingFlow(t *testing.T) {
	collector := metrics.NewCollector()
	srv := newServer(t, RouterConfig{Metrics: collector})

	var p model.Project
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, &p))
	assert.Equal(t, 2, p.RemainingUnits[model.TwoRoom])

	var reg model.Registration
	require.Equal(t, http.StatusCreated, call(t, srv, officerNRIC, http.MethodPost, "/registrations",
		model.RegisterRequest{ProjectName: "Yishun-1"}, &reg))
	require.Equal(t, http.StatusOK, call(t, srv, managerNRIC, http.MethodPost, "/registrations/"+reg.ID+"/decision",
		model.DecisionRequest{Approve: true}, &reg))
	assert.Equal(t, model.StatusApproved, reg.Status)

	var app model.Application
	require.Equal(t, http.StatusCreated, call(t, srv, applicantNRIC, http.MethodPost, "/applications",
		model.ApplyRequest{ProjectName: "Yishun-1"}, &app))
	assert.Equal(t, model.StatusPendingApproval, app.Status)

	require.Equal(t, http.StatusOK, call(t, srv, managerNRIC, http.MethodPost, "/applications/"+app.ID+"/decision",
		model.DecisionRequest{Approve: true}, &app))
	require.Equal(t, http.StatusOK, call(t, srv, officerNRIC, http.MethodPost, "/applications/"+app.ID+"/booking",
		model.BookingRequest{FlatType: "3-Room"}, &app))
	assert.Equal(t, model.StatusBooked, app.Status)
	assert.Equal(t, model.ThreeRoom, app.BookedFlatType)

	var receipt model.Receipt
	require.Equal(t, http.StatusOK, call(t, srv, officerNRIC, http.MethodGet, "/applications/"+app.ID+"/receipt", nil, &receipt))
	assert.Equal(t, "Grace", receipt.Applicant.Name)
	assert.Equal(t, "150000", receipt.Price.String())

	require.Equal(t, http.StatusOK, call(t, srv, managerNRIC, http.MethodGet, "/projects/Yishun-1", nil, &p))
	assert.Equal(t, 0, p.RemainingUnits[model.ThreeRoom])

	resp, err := srv.Client().Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestErrorMapping(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, nil))

	tests := []struct {
		name   string
		nric   string
		method string
		path   string
		body   any
		status int
		kind   model.ErrorKind
	}{
		{"applicant creates project", applicantNRIC, http.MethodPost, "/projects", yishun, http.StatusForbidden, model.KindAuthorization},
		{"duplicate project", managerNRIC, http.MethodPost, "/projects", yishun, http.StatusBadRequest, model.KindValidation},
		{"unknown project", managerNRIC, http.MethodGet, "/projects/Nowhere", nil, http.StatusNotFound, model.KindNotFound},
		{"unknown flat type filter", managerNRIC, http.MethodGet, "/projects?flat_type=5-Room", nil, http.StatusBadRequest, model.KindValidation},
		{"booking unapproved", officerNRIC, http.MethodPost, "/applications/APP-missing/booking", model.BookingRequest{FlatType: "2-Room"}, http.StatusNotFound, model.KindNotFound},
		{"blank enquiry", applicantNRIC, http.MethodPost, "/enquiries", model.EnquiryRequest{ProjectName: "Yishun-1"}, http.StatusBadRequest, model.KindValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var e model.ErrorResponse
			assert.Equal(t, tt.status, call(t, srv, tt.nric, tt.method, tt.path, tt.body, &e))
			assert.Equal(t, tt.kind, e.Kind)
			assert.NotEmpty(t, e.Error)
		})
	}
}

func TestStateConflict(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, nil))

	var app model.Application
	require.Equal(t, http.StatusCreated, call(t, srv, applicantNRIC, http.MethodPost, "/applications",
		model.ApplyRequest{ProjectName: "Yishun-1"}, &app))

	var e model.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, srv, applicantNRIC, http.MethodPost, "/applications",
		model.ApplyRequest{ProjectName: "Yishun-1"}, &e))
	assert.Equal(t, model.KindState, e.Kind)
}

func TestInvalidBody(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	var e model.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, call(t, srv, managerNRIC, http.MethodPost, "/projects",
		map[string]any{"name": "x", "colour": "blue"}, &e))
	assert.Contains(t, e.Error, "invalid request body")
}

func TestListsAreNeverNull(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	for _, path := range []string{"/projects", "/applications", "/enquiries"} {
		req, err := http.NewRequest(http.MethodGet, srv.URL+path, nil)
		require.NoError(t, err)
		req.Header.Set(HeaderNRIC, applicantNRIC)
		resp, err := srv.Client().Do(req)
		require.NoError(t, err)
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		require.NoError(t, err)
		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Equal(t, "[]", strings.TrimSpace(string(body)), path)
	}
}

func TestEnquiryRoutes(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, nil))

	var enq model.Enquiry
	require.Equal(t, http.StatusCreated, call(t, srv, applicantNRIC, http.MethodPost, "/enquiries",
		model.EnquiryRequest{ProjectName: "Yishun-1", Content: "Is there parking?", Draft: true}, &enq))
	assert.Equal(t, model.StatusDraft, enq.Status)

	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodPatch, "/enquiries/"+enq.ID,
		model.ContentRequest{Content: "Is there covered parking?"}, &enq))
	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodPost, "/enquiries/"+enq.ID+"/submit", nil, &enq))
	assert.Equal(t, model.StatusSubmitted, enq.Status)

	require.Equal(t, http.StatusOK, call(t, srv, managerNRIC, http.MethodPost, "/enquiries/"+enq.ID+"/reply",
		model.ContentRequest{Content: "Yes"}, &enq))
	assert.Equal(t, model.StatusReplied, enq.Status)
	assert.Equal(t, managerNRIC, enq.Replier)
}

func TestRateLimit(t *testing.T) {
	srv := newServer(t, RouterConfig{RateLimitRPS: 0.001, RateLimitBurst: 1})
	assert.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodGet, "/projects", nil, nil))

	var e model.ErrorResponse
	assert.Equal(t, http.StatusTooManyRequests, call(t, srv, applicantNRIC, http.MethodGet, "/projects", nil, &e))
	assert.Equal(t, "rate limit exceeded", e.Error)

	// A different NRIC from the same address shares the bucket.
	assert.Equal(t, http.StatusTooManyRequests, call(t, srv, managerNRIC, http.MethodGet, "/projects", nil, nil))
	// So does a request that would fail authentication.
	assert.Equal(t, http.StatusTooManyRequests, call(t, srv, "S0000000Z", http.MethodGet, "/projects", nil, nil))
}

func TestRateLimiter_KeysOnClientAddress(t *testing.T) {
	rl := NewRateLimiter(0.001, 1, zaptest.NewLogger(t))
	ok := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	serve := func(remote, nric string) int {
		req := httptest.NewRequest(http.MethodGet, "/projects", nil)
		req.RemoteAddr = remote
		req.Header.Set(HeaderNRIC, nric)
		rec := httptest.NewRecorder()
		ok.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, serve("10.0.0.1:5000", applicantNRIC))
	assert.Equal(t, http.StatusTooManyRequests, serve("10.0.0.1:5001", managerNRIC), "port is not part of the key")
	assert.Equal(t, http.StatusOK, serve("10.0.0.2:5000", applicantNRIC))
}

func TestRateLimiter_EvictsIdleClients(t *testing.T) {
	now := time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC)
	rl := NewRateLimiter(0.001, 1, zaptest.NewLogger(t))
	rl.now = func() time.Time { return now }

	require.True(t, rl.limiter("10.0.0.1").Allow())
	require.True(t, rl.limiter("10.0.0.2").Allow())
	assert.Len(t, rl.limiters, 2)

	now = now.Add(limiterIdleTTL / 2)
	assert.False(t, rl.limiter("10.0.0.1").Allow(), "bucket still held")

	now = now.Add(limiterIdleTTL)
	rl.limiter("10.0.0.3")
	assert.Len(t, rl.limiters, 1)
	assert.True(t, rl.limiter("10.0.0.1").Allow(), "evicted client starts with a full bucket")
}

func TestCORSPreflight(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	req, err := http.NewRequest(http.MethodOptions, srv.URL+"/projects", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Headers"), HeaderNRIC)
}

func TestDraftRegistrationAndWithdrawalRoutes(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, nil))

	var reg model.Registration
	require.Equal(t, http.StatusCreated, call(t, srv, officerNRIC, http.MethodPost, "/registrations",
		model.RegisterRequest{ProjectName: "Yishun-1", Draft: true}, &reg))
	assert.Equal(t, model.StatusDraft, reg.Status)
	var e model.ErrorResponse
	assert.Equal(t, http.StatusNotFound, call(t, srv, officerNRIC, http.MethodPatch, "/registrations/"+reg.ID,
		model.RegisterRequest{ProjectName: "Nowhere"}, &e))
	assert.Equal(t, model.KindNotFound, e.Kind)
	assert.Equal(t, http.StatusNoContent, call(t, srv, officerNRIC, http.MethodDelete, "/registrations/"+reg.ID, nil, nil))

	require.Equal(t, http.StatusCreated, call(t, srv, officerNRIC, http.MethodPost, "/registrations",
		model.RegisterRequest{ProjectName: "Yishun-1", Draft: true}, &reg))
	require.Equal(t, http.StatusOK, call(t, srv, officerNRIC, http.MethodPost, "/registrations/"+reg.ID+"/submit", nil, &reg))
	assert.Equal(t, model.StatusPendingApproval, reg.Status)

	var app model.Application
	require.Equal(t, http.StatusCreated, call(t, srv, applicantNRIC, http.MethodPost, "/applications",
		model.ApplyRequest{ProjectName: "Yishun-1"}, &app))

	var wd model.Withdrawal
	require.Equal(t, http.StatusCreated, call(t, srv, applicantNRIC, http.MethodPost, "/applications/"+app.ID+"/withdrawal",
		model.WithdrawalRequest{Reason: "unsure", Draft: true}, &wd))
	assert.Equal(t, model.StatusDraft, wd.Status)
	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodPatch, "/withdrawals/"+wd.ID,
		model.WithdrawalRequest{Reason: "bought resale"}, &wd))
	assert.Equal(t, "bought resale", wd.Reason)
	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodPost, "/withdrawals/"+wd.ID+"/submit", nil, &wd))
	assert.Equal(t, model.StatusPendingApproval, wd.Status)
	assert.Equal(t, http.StatusConflict, call(t, srv, applicantNRIC, http.MethodDelete, "/withdrawals/"+wd.ID, nil, nil))

	var doc map[string]any
	require.Equal(t, http.StatusOK, call(t, srv, managerNRIC, http.MethodGet, "/documents/"+wd.ID, nil, &doc))
	assert.Equal(t, wd.ID, doc["id"])
	assert.Equal(t, "bought resale", doc["reason"])
	assert.Equal(t, http.StatusNotFound, call(t, srv, officerNRIC, http.MethodGet, "/documents/"+app.ID, nil, nil),
		"officer is not on the team yet")
}

func TestProjectEligibilityAndOpenFilter(t *testing.T) {
	srv := newServer(t, RouterConfig{})
	require.Equal(t, http.StatusCreated, call(t, srv, managerNRIC, http.MethodPost, "/projects", yishun, nil))

	var el model.Eligibility
	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodGet, "/projects/Yishun-1/eligibility", nil, &el))
	assert.True(t, el.CanApply)
	assert.Equal(t, []model.FlatType{model.TwoRoom, model.ThreeRoom}, el.FlatTypes)
	assert.Equal(t, http.StatusForbidden, call(t, srv, managerNRIC, http.MethodGet, "/projects/Yishun-1/eligibility", nil, nil))

	var open []model.Project
	require.Equal(t, http.StatusOK, call(t, srv, applicantNRIC, http.MethodGet, "/projects?open=true", nil, &open))
	require.Len(t, open, 1)
	assert.Equal(t, "Yishun-1", open[0].Name)
}
