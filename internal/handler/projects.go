package handler

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/Shivanand-hulikatti/bto-housing/internal/model"
)

func parseUnits(raw map[string]int) (map[model.FlatType]int, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[model.FlatType]int, len(raw))
	for k, n := range raw {
		t, err := model.ParseFlatType(k)
		if err != nil {
			return nil, err
		}
		out[t] = n
	}
	return out, nil
}

func parsePrices(raw map[string]decimal.Decimal) (map[model.FlatType]decimal.Decimal, error) {
	if raw == nil {
		return nil, nil
	}
	out := make(map[model.FlatType]decimal.Decimal, len(raw))
	for k, p := range raw {
		t, err := model.ParseFlatType(k)
		if err != nil {
			return nil, err
		}
		out[t] = p
	}
	return out, nil
}

func projectSpec(req model.CreateProjectRequest) (model.ProjectSpec, error) {
	spec := model.ProjectSpec{
		Name:          req.Name,
		Neighbourhood: req.Neighbourhood,
		Visible:       req.Visible,
	}
	var err error
	if spec.Units, err = parseUnits(req.Units); err != nil {
		return spec, err
	}
	if spec.Prices, err = parsePrices(req.Prices); err != nil {
		return spec, err
	}
	if spec.OpenDate, err = model.ParseDate(req.OpenDate); err != nil {
		return spec, err
	}
	if spec.CloseDate, err = model.ParseDate(req.CloseDate); err != nil {
		return spec, err
	}
	return spec, nil
}

func projectPatch(req model.EditProjectRequest) (model.ProjectPatch, error) {
	patch := model.ProjectPatch{Neighbourhood: req.Neighbourhood}
	var err error
	if patch.Units, err = parseUnits(req.Units); err != nil {
		return patch, err
	}
	if patch.Prices, err = parsePrices(req.Prices); err != nil {
		return patch, err
	}
	if req.OpenDate != nil {
		d, err := model.ParseDate(*req.OpenDate)
		if err != nil {
			return patch, err
		}
		patch.OpenDate = &d
	}
	if req.CloseDate != nil {
		d, err := model.ParseDate(*req.CloseDate)
		if err != nil {
			return patch, err
		}
		patch.CloseDate = &d
	}
	return patch, nil
}

// CreateProject handles POST /projects
func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProjectRequest
	if !bind(w, r, &req) {
		return
	}
	spec, err := projectSpec(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p, err := h.engine.CreateProject(r.Context(), actor(r), spec)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, p)
}

// ListProjects handles GET /projects?neighbourhood=&flat_type=&open=
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := model.ProjectFilter{
		Neighbourhood: q.Get("neighbourhood"),
		OpenNow:       q.Get("open") == "true",
	}
	if raw := q.Get("flat_type"); raw != "" {
		t, err := model.ParseFlatType(raw)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		filter.FlatType = t
	}
	projects, err := h.engine.ListProjects(r.Context(), actor(r), filter)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(projects))
}

// ProjectEligibility handles GET /projects/{name}/eligibility
func (h *Handler) ProjectEligibility(w http.ResponseWriter, r *http.Request) {
	el, err := h.engine.ProjectEligibility(r.Context(), actor(r), param(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, el)
}

// GetProject handles GET /projects/{name}
func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) {
	p, err := h.engine.GetProject(r.Context(), actor(r), param(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// EditProject handles PATCH /projects/{name}
func (h *Handler) EditProject(w http.ResponseWriter, r *http.Request) {
	var req model.EditProjectRequest
	if !bind(w, r, &req) {
		return
	}
	patch, err := projectPatch(req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	p, err := h.engine.EditProject(r.Context(), actor(r), param(r, "name"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// SetVisibility handles PUT /projects/{name}/visibility
func (h *Handler) SetVisibility(w http.ResponseWriter, r *http.Request) {
	var req model.VisibilityRequest
	if !bind(w, r, &req) {
		return
	}
	p, err := h.engine.SetProjectVisibility(r.Context(), actor(r), param(r, "name"), req.Visible)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// DeleteProject handles DELETE /projects/{name}
func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.engine.DeleteProject(r.Context(), actor(r), param(r, "name")); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
