package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/ignite/jobtracker/internal/pkg/httputil"
	"github.com/ignite/jobtracker/internal/pkg/logger"
	"github.com/ignite/jobtracker/internal/schema"
	"github.com/ignite/jobtracker/internal/service/application"
)

// =============================================================================
// ERROR MAPPING
// Service outcomes become status codes here. Store and driver text is
// truncated before it reaches the client; anything unrecognised gets a
// generic 500 while the full error is logged server-side.
// =============================================================================

func respondServiceError(w http.ResponseWriter, err error) {
	var verr *schema.ValidationError
	switch {
	case errors.As(err, &verr):
		httputil.Invalid(w, "Invalid request body", verr.Problems)

	case errors.Is(err, application.ErrNotFound):
		httputil.NotFound(w, "Application not found")

	case errors.Is(err, application.ErrNotConfigured):
		respondError(w, http.StatusInternalServerError, "Database not configured")

	case errors.Is(err, application.ErrInvalidInput):
		httputil.BadRequest(w, detail(err, application.ErrInvalidInput))

	case errors.Is(err, application.ErrUnavailable):
		logger.Error("store unavailable", "error", err)
		respondError(w, http.StatusInternalServerError, detail(err, application.ErrUnavailable))

	default:
		httputil.InternalError(w, err)
	}
}

// detail strips the sentinel prefix from err and bounds its length.
func detail(err, sentinel error) string {
	msg := strings.TrimPrefix(err.Error(), sentinel.Error()+": ")
	if msg == "" {
		msg = sentinel.Error()
	}
	return httputil.Truncate(msg, httputil.MaxDetail)
}
