package api

import (
	"context"
	"net/http"
	"runtime"
	"sort"
	"time"
)

// healthCheckTimeout bounds each dependency check on /health.
const healthCheckTimeout = 2 * time.Second

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string            `json:"timestamp"`
	Version       string            `json:"version"`
	UptimeSeconds int64             `json:"uptime_seconds"`
	Runtime       RuntimeMetrics    `json:"runtime"`
	WebSocket     WSMetrics         `json:"websocket"`
	Devices       DeviceMetrics     `json:"devices"`
	Database      *DatabaseMetrics  `json:"database,omitempty"`
	Dependencies  map[string]string `json:"dependencies,omitempty"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// DeviceMetrics contains speaker registry statistics. Counts come from
// the registry; no speaker is contacted.
type DeviceMetrics struct {
	Total   int            `json:"total"`
	Groups  int            `json:"groups"`
	ByGroup map[string]int `json:"by_group"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks,omitempty"`
}

// handleHealth reports "ok" when every registered check passes and
// "degraded" with 503 otherwise.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	checks := s.runChecks(r.Context())

	resp := HealthResponse{Status: "ok", Version: s.version, Checks: checks}
	status := http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			resp.Status = "degraded"
			status = http.StatusServiceUnavailable
			break
		}
	}
	writeJSON(w, status, resp)
}

// runChecks runs every registered health check and returns "ok" or the
// error text per name.
func (s *Server) runChecks(ctx context.Context) map[string]string {
	if len(s.checks) == 0 {
		return nil
	}

	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make(map[string]string, len(names))
	for _, name := range names {
		cctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
		if err := s.checks[name].HealthCheck(cctx); err != nil {
			out[name] = err.Error()
		} else {
			out[name] = "ok"
		}
		cancel()
	}
	return out
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	// Collect runtime stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Dependencies: s.runChecks(r.Context()),
	}

	groups := s.ctrl.Groups()
	metrics.Devices = DeviceMetrics{
		Groups:  len(groups),
		ByGroup: make(map[string]int, len(groups)),
	}
	for _, g := range groups {
		metrics.Devices.Total += len(g.Devices)
		metrics.Devices.ByGroup[g.Name] = len(g.Devices)
	}

	// Database stats (if available)
	if s.dbStats != nil {
		db := s.dbStats()
		metrics.Database = &db
	}

	writeJSON(w, http.StatusOK, metrics)
}
