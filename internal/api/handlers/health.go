package handlers

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// Pinger is the slice of *pgxpool.Pool the readiness probe needs.
type Pinger interface {
	Ping(ctx context.Context) error
}

// CheckResult is the outcome of one readiness check.
type CheckResult struct {
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
	LatencyMs int64  `json:"latency_ms"`
}

type HealthCheck struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
	Timestamp string                 `json:"timestamp"`
}

type versionResponse struct {
	Version   string `json:"version"`
	GitCommit string `json:"git_commit"`
	BuildDate string `json:"build_date"`
	GoVersion string `json:"go_version"`
}

type HealthHandler struct {
	db        Pinger
	version   string
	gitCommit string
	buildDate string
}

func NewHealthHandler(db Pinger, version, gitCommit, buildDate string) *HealthHandler {
	if version == "" {
		version = "dev"
	}
	if gitCommit == "" {
		gitCommit = "unknown"
	}
	if buildDate == "" {
		buildDate = "unknown"
	}
	return &HealthHandler{db: db, version: version, gitCommit: gitCommit, buildDate: buildDate}
}

// Healthz reports liveness. It never touches dependencies.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthCheck{
		Status:    "ok",
		Version:   h.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// Readyz reports whether the database answers within two seconds.
func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	check := h.checkDatabase(r.Context())
	status, code := "ready", http.StatusOK
	if check.Status != "pass" {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, HealthCheck{
		Status:    status,
		Version:   h.version,
		Checks:    map[string]CheckResult{"database": check},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *HealthHandler) Version(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, versionResponse{
		Version:   h.version,
		GitCommit: h.gitCommit,
		BuildDate: h.buildDate,
		GoVersion: runtime.Version(),
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckResult {
	if h.db == nil {
		return CheckResult{Status: "fail", Message: "database pool not initialized"}
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.Ping(ctx)
	latency := time.Since(start).Milliseconds()
	if err != nil {
		message := "database ping failed"
		if ctx.Err() == context.DeadlineExceeded {
			message = "database ping timed out after 2 seconds"
		}
		return CheckResult{Status: "fail", Message: message, LatencyMs: latency}
	}
	return CheckResult{Status: "pass", LatencyMs: latency}
}
