// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the BTO engine.
package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	json "github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/Shivanand-hulikatti/bto-housing/internal/metrics"
	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
	"github.com/Shivanand-hulikatti/bto-housing/internal/service"
)

// Handler holds all HTTP handlers for the BTO API.
type Handler struct {
	engine *service.Engine
	log    *zap.Logger
}

// New constructs a Handler.
func New(engine *service.Engine, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{engine: engine, log: log}
}

// RouterConfig carries the router's optional collaborators.
type RouterConfig struct {
	Metrics        *metrics.Collector
	RateLimitRPS   float64
	RateLimitBurst int
}

// NewRouter builds the chi router with the global middleware stack, the
// unauthenticated health and metrics endpoints and the API routes.
func NewRouter(h *Handler, cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(Logger(h.log))
	r.Use(CORS)
	if cfg.RateLimitRPS > 0 {
		r.Use(NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, h.log).Handler)
	}

	r.Get("/health", HealthCheck)
	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics.Handler())
	}

	r.Group(func(r chi.Router) {
		r.Use(Authenticate(h.engine.Actor))
		h.Routes(r)
	})
	return r
}

// Routes mounts the authenticated API.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/projects", func(r chi.Router) {
		r.Post("/", h.CreateProject)
		r.Get("/", h.ListProjects)
		r.Get("/{name}", h.GetProject)
		r.Patch("/{name}", h.EditProject)
		r.Delete("/{name}", h.DeleteProject)
		r.Put("/{name}/visibility", h.SetVisibility)
		r.Get("/{name}/eligibility", h.ProjectEligibility)
	})
	r.Route("/applications", func(r chi.Router) {
		r.Post("/", h.CreateApplication)
		r.Get("/", h.ListApplications)
		r.Post("/{id}/submit", h.SubmitApplication)
		r.Post("/{id}/decision", h.DecideApplication)
		r.Post("/{id}/booking", h.BookFlat)
		r.Get("/{id}/receipt", h.Receipt)
		r.Post("/{id}/withdrawal", h.RequestWithdrawal)
	})
	r.Route("/withdrawals", func(r chi.Router) {
		r.Patch("/{id}", h.EditWithdrawal)
		r.Delete("/{id}", h.DeleteWithdrawal)
		r.Post("/{id}/submit", h.SubmitWithdrawal)
		r.Post("/{id}/decision", h.DecideWithdrawal)
	})
	r.Route("/registrations", func(r chi.Router) {
		r.Post("/", h.Register)
		r.Get("/", h.ListRegistrations)
		r.Patch("/{id}", h.EditRegistration)
		r.Delete("/{id}", h.DeleteRegistration)
		r.Post("/{id}/submit", h.SubmitRegistration)
		r.Post("/{id}/decision", h.DecideRegistration)
	})
	r.Route("/enquiries", func(r chi.Router) {
		r.Post("/", h.CreateEnquiry)
		r.Get("/", h.ListEnquiries)
		r.Patch("/{id}", h.EditEnquiry)
		r.Post("/{id}/submit", h.SubmitEnquiry)
		r.Delete("/{id}", h.DeleteEnquiry)
		r.Post("/{id}/reply", h.ReplyEnquiry)
	})
	r.Get("/documents/{id}", h.GetDocument)
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

// statusFor maps a domain error kind to its HTTP status.
func statusFor(kind model.ErrorKind) int {
	switch kind {
	case model.KindValidation:
		return http.StatusBadRequest
	case model.KindAuthorization:
		return http.StatusForbidden
	case model.KindState, model.KindResourceExhausted:
		return http.StatusConflict
	case model.KindNotFound:
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// writeServiceError reports an engine error. Domain errors carry their kind
// and message; anything else is hidden behind a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var de *model.Error
	if errors.As(err, &de) {
		writeJSON(w, statusFor(de.Kind), model.ErrorResponse{Error: err.Error(), Kind: de.Kind})
		return
	}
	h.log.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.String("request_id", chimiddleware.GetReqID(r.Context())),
		zap.Error(err),
	)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// bind decodes the request body into dst, writing a 400 on failure.
func bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(r, dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

// actor returns the authenticated caller. Authenticate guarantees it is set
// on every API route.
func actor(r *http.Request) model.User {
	u, _ := ActorFrom(r.Context())
	return u
}

// emptyIfNil makes empty listings encode as [] instead of null.
func emptyIfNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}

func param(r *http.Request, name string) string {
	return strings.TrimSpace(chi.URLParam(r, name))
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
