package api

import (
	"net/http"

	"github.com/ignite/jobtracker/internal/pkg/httputil"
	"github.com/ignite/jobtracker/internal/schema"
	"github.com/ignite/jobtracker/internal/service/application"
)

const (
	envSet    = "✅ Set"
	envNotSet = "❌ Not Set"
)

// Handlers contains all HTTP handlers
type Handlers struct {
	svc          *application.Service
	maxBodyBytes int64
	databaseURL  bool
	databaseName bool
}

// NewHandlers creates a new Handlers instance
func NewHandlers(svc *application.Service, maxBodyBytes int64) *Handlers {
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}
	return &Handlers{svc: svc, maxBodyBytes: maxBodyBytes}
}

// SetDiagnosticsEnv records whether a database URL and name were configured,
// for the diagnostics report.
func (h *Handlers) SetDiagnosticsEnv(databaseURL, databaseName bool) {
	h.databaseURL = databaseURL
	h.databaseName = databaseName
}

// Root confirms the backend is up.
//
//	GET /
func (h *Handlers) Root(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Job Tracker Backend is running"})
}

// Hello is a trivial API liveness message for the UI.
//
//	GET /api/hello
func (h *Handlers) Hello(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"message": "Hello from the backend API!"})
}

// TestDatabase reports backend and store status. It always answers 200.
//
//	GET /test
func (h *Handlers) TestDatabase(w http.ResponseWriter, r *http.Request) {
	d := h.svc.Diagnose(r.Context())
	d.DatabaseURL = envNotSet
	if h.databaseURL {
		d.DatabaseURL = envSet
	}
	d.DatabaseName = envNotSet
	if h.databaseName {
		d.DatabaseName = envSet
	}
	respondJSON(w, http.StatusOK, d)
}

// Schema exposes entity schemas for an external database viewer.
//
//	GET /schema
func (h *Handlers) Schema(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, schema.Describe())
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	httputil.JSON(w, status, data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	httputil.Error(w, status, message)
}
