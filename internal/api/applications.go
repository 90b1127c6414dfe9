package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/ignite/jobtracker/internal/pkg/httputil"
	"github.com/ignite/jobtracker/internal/schema"
	"github.com/ignite/jobtracker/internal/service/application"
)

// ListApplications returns applications filtered by status and a free-text
// query.
//
//	GET /api/applications?status=applied&q=acme&limit=50
func (h *Handlers) ListApplications(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	apps, err := h.svc.List(r.Context(), application.ListFilter{
		Status: r.URL.Query().Get("status"),
		Query:  r.URL.Query().Get("q"),
		Limit:  limit,
	})
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, apps)
}

// GetApplication returns one application.
//
//	GET /api/applications/{id}
func (h *Handlers) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, app)
}

// CreateApplication validates the body and stores a new application.
//
//	POST /api/applications
func (h *Handlers) CreateApplication(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Configured() {
		respondServiceError(w, application.ErrNotConfigured)
		return
	}

	body, ok := httputil.ReadBody(w, r, h.maxBodyBytes)
	if !ok {
		return
	}
	in, err := schema.ParseCreate(body)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	app, err := h.svc.Create(r.Context(), in)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.Created(w, app)
}

// UpdateApplication applies a partial update. Members sent as null clear
// the field; absent members are left alone.
//
//	PATCH /api/applications/{id}
func (h *Handlers) UpdateApplication(w http.ResponseWriter, r *http.Request) {
	if !h.svc.Configured() {
		respondServiceError(w, application.ErrNotConfigured)
		return
	}

	body, ok := httputil.ReadBody(w, r, h.maxBodyBytes)
	if !ok {
		return
	}
	patch, err := schema.ParseUpdate(body)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	app, err := h.svc.Update(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.OK(w, app)
}

// DeleteApplication removes an application.
//
//	DELETE /api/applications/{id}
func (h *Handlers) DeleteApplication(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondServiceError(w, err)
		return
	}
	httputil.NoContent(w)
}

type limitError struct{ raw string }

func (e limitError) Error() string {
	return "limit must be an integer between 1 and " + strconv.Itoa(application.MaxLimit) + ", got " + strconv.Quote(e.raw)
}

// parseLimit reads the limit query parameter. Empty means the default.
func parseLimit(raw string) (int, error) {
	if raw == "" {
		return application.DefaultLimit, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > application.MaxLimit {
		return 0, limitError{raw: raw}
	}
	return n, nil
}
