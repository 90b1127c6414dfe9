package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ignite/jobtracker/internal/service/application"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status  string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Version string                    `json:"version"`
	Store   string                    `json:"store"`
	Uptime  string                    `json:"uptime"`
	Checks  map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports whether the document store is reachable.
type HealthChecker struct {
	svc       *application.Service
	startTime time.Time
}

// NewHealthChecker creates a new HealthChecker. A service without a store
// reports "not_configured".
func NewHealthChecker(svc *application.Service) *HealthChecker {
	return &HealthChecker{svc: svc, startTime: time.Now()}
}

const healthVersion = "1.0.0"

// HandleHealth returns the health status of the service and its store.
// It always answers 200; the status field conveys health.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{"store": hc.checkStore(r.Context())}

	respondJSON(w, http.StatusOK, HealthStatus{
		Status:  determineOverallStatus(checks),
		Version: healthVersion,
		Store:   hc.svc.StoreName(),
		Uptime:  formatUptime(time.Since(hc.startTime)),
		Checks:  checks,
	})
}

// HandleLiveness always returns 200 while the process is running.
//
//	GET /health/live
func (hc *HealthChecker) HandleLiveness(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
		"uptime": formatUptime(time.Since(hc.startTime)),
	})
}

// HandleReadiness returns 503 until the store answers.
//
//	GET /health/ready
func (hc *HealthChecker) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{"store": hc.checkStore(r.Context())}
	overall := determineOverallStatus(checks)

	ready := overall != "unhealthy"
	httpStatus := http.StatusOK
	if !ready {
		httpStatus = http.StatusServiceUnavailable
	}

	respondJSON(w, httpStatus, map[string]interface{}{
		"ready":  ready,
		"status": overall,
		"checks": checks,
	})
}

// checkStore pings the store with a 3-second timeout.
func (hc *HealthChecker) checkStore(ctx context.Context) ComponentCheck {
	if !hc.svc.Configured() {
		return ComponentCheck{Status: "not_configured", Message: "database not configured"}
	}

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.svc.Ping(pingCtx)
	latency := time.Since(start)

	if err != nil {
		msg := "ping failed"
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "ping timed out"
		}
		return ComponentCheck{Status: "down", Latency: latency.String(), Message: msg}
	}

	if latency > time.Second {
		return ComponentCheck{
			Status:  "degraded",
			Latency: latency.String(),
			Message: fmt.Sprintf("slow response (%s)", latency),
		}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "connected"}
}

func determineOverallStatus(checks map[string]ComponentCheck) string {
	overall := "healthy"
	for _, c := range checks {
		switch c.Status {
		case "down", "not_configured":
			return "unhealthy"
		case "degraded":
			overall = "degraded"
		}
	}
	return overall
}

func formatUptime(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
