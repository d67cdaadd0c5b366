package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

// ─── Applications ─────────────────────────────────────────────────────────────

// CreateApplication handles POST /applications
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	var req model.ApplyRequest
	if !bind(w, r, &req) {
		return
	}
	create := h.engine.Apply
	if req.Draft {
		create = h.engine.DraftApplication
	}
	app, err := create(r.Context(), actor(r), req.ProjectName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, app)
}

// ListApplications handles GET /applications
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	apps, err := h.engine.ListApplications(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(apps))
}

// SubmitApplication handles POST /applications/{id}/submit
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.engine.SubmitApplication(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// DecideApplication handles POST /applications/{id}/decision
func (h *Handler) DecideApplication(w http.ResponseWriter, r *http.Request) {
	var req model.DecisionRequest
	if !bind(w, r, &req) {
		return
	}
	app, err := h.engine.ProcessApplication(r.Context(), actor(r), param(r, "id"), req.Approve, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// BookFlat handles POST /applications/{id}/booking
func (h *Handler) BookFlat(w http.ResponseWriter, r *http.Request) {
	var req model.BookingRequest
	if !bind(w, r, &req) {
		return
	}
	t, err := model.ParseFlatType(req.FlatType)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	app, err := h.engine.BookFlat(r.Context(), actor(r), param(r, "id"), t)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, app)
}

// Receipt handles GET /applications/{id}/receipt
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	receipt, err := h.engine.GenerateReceipt(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, receipt)
}

// ─── Withdrawals ──────────────────────────────────────────────────────────────

// RequestWithdrawal handles POST /applications/{id}/withdrawal
func (h *Handler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.WithdrawalRequest
	if !bind(w, r, &req) {
		return
	}
	create := h.engine.RequestWithdrawal
	if req.Draft {
		create = h.engine.DraftWithdrawal
	}
	wd, err := create(r.Context(), actor(r), param(r, "id"), req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, wd)
}

// SubmitWithdrawal handles POST /withdrawals/{id}/submit
func (h *Handler) SubmitWithdrawal(w http.ResponseWriter, r *http.Request) {
	wd, err := h.engine.SubmitWithdrawal(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// EditWithdrawal handles PATCH /withdrawals/{id}
func (h *Handler) EditWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.WithdrawalRequest
	if !bind(w, r, &req) {
		return
	}
	wd, err := h.engine.EditWithdrawal(r.Context(), actor(r), param(r, "id"), req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// DeleteWithdrawal handles DELETE /withdrawals/{id}
func (h *Handler) DeleteWithdrawal(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.DeleteWithdrawal(r.Context(), actor(r), param(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DecideWithdrawal handles POST /withdrawals/{id}/decision
func (h *Handler) DecideWithdrawal(w http.ResponseWriter, r *http.Request) {
	var req model.DecisionRequest
	if !bind(w, r, &req) {
		return
	}
	wd, err := h.engine.ProcessWithdrawal(r.Context(), actor(r), param(r, "id"), req.Approve, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, wd)
}

// ─── Registrations ────────────────────────────────────────────────────────────

// Register handles POST /registrations
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !bind(w, r, &req) {
		return
	}
	create := h.engine.RegisterForProject
	if req.Draft {
		create = h.engine.DraftRegistration
	}
	reg, err := create(r.Context(), actor(r), req.ProjectName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, reg)
}

// SubmitRegistration handles POST /registrations/{id}/submit
func (h *Handler) SubmitRegistration(w http.ResponseWriter, r *http.Request) {
	reg, err := h.engine.SubmitRegistration(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// EditRegistration handles PATCH /registrations/{id}
func (h *Handler) EditRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !bind(w, r, &req) {
		return
	}
	reg, err := h.engine.EditRegistration(r.Context(), actor(r), param(r, "id"), req.ProjectName)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// DeleteRegistration handles DELETE /registrations/{id}
func (h *Handler) DeleteRegistration(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.DeleteRegistration(r.Context(), actor(r), param(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListRegistrations handles GET /registrations
func (h *Handler) ListRegistrations(w http.ResponseWriter, r *http.Request) {
	regs, err := h.engine.ListRegistrations(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(regs))
}

// DecideRegistration handles POST /registrations/{id}/decision
func (h *Handler) DecideRegistration(w http.ResponseWriter, r *http.Request) {
	var req model.DecisionRequest
	if !bind(w, r, &req) {
		return
	}
	reg, err := h.engine.ProcessRegistration(r.Context(), actor(r), param(r, "id"), req.Approve, req.Reason)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, reg)
}

// ─── Enquiries ────────────────────────────────────────────────────────────────

// CreateEnquiry handles POST /enquiries
func (h *Handler) CreateEnquiry(w http.ResponseWriter, r *http.Request) {
	var req model.EnquiryRequest
	if !bind(w, r, &req) {
		return
	}
	enq, err := h.engine.CreateEnquiry(r.Context(), actor(r), req.ProjectName, req.Content, req.Draft)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, enq)
}

// ListEnquiries handles GET /enquiries
func (h *Handler) ListEnquiries(w http.ResponseWriter, r *http.Request) {
	list, err := h.engine.ListEnquiries(r.Context(), actor(r))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(list))
}

// EditEnquiry handles PATCH /enquiries/{id}
func (h *Handler) EditEnquiry(w http.ResponseWriter, r *http.Request) {
	var req model.ContentRequest
	if !bind(w, r, &req) {
		return
	}
	enq, err := h.engine.EditEnquiry(r.Context(), actor(r), param(r, "id"), req.Content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enq)
}

// SubmitEnquiry handles POST /enquiries/{id}/submit
func (h *Handler) SubmitEnquiry(w http.ResponseWriter, r *http.Request) {
	enq, err := h.engine.SubmitEnquiry(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enq)
}

// DeleteEnquiry handles DELETE /enquiries/{id}
func (h *Handler) DeleteEnquiry(w http.ResponseWriter, r *http.Request) {
	if _, err := h.engine.DeleteEnquiry(r.Context(), actor(r), param(r, "id")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ReplyEnquiry handles POST /enquiries/{id}/reply
func (h *Handler) ReplyEnquiry(w http.ResponseWriter, r *http.Request) {
	var req model.ContentRequest
	if !bind(w, r, &req) {
		return
	}
	enq, err := h.engine.ReplyEnquiry(r.Context(), actor(r), param(r, "id"), req.Content)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, enq)
}

// ─── Any document ─────────────────────────────────────────────────────────────

// GetDocument handles GET /documents/{id}
func (h *Handler) GetDocument(w http.ResponseWriter, r *http.Request) {
	doc, err := h.engine.GetDocument(r.Context(), actor(r), param(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}
