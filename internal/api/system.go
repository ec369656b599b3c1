package api

import (
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the JSON summary served on GET /api/v1/system.
// Counters and histograms live on the Prometheus /metrics endpoint.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Automations   AutomationCounts `json:"automations"`
	Entities      int              `json:"entities"`
	RESTSources   int              `json:"rest_sources"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// AutomationCounts counts automations by state and enabled flag.
type AutomationCounts struct {
	Total   int            `json:"total"`
	Enabled int            `json:"enabled"`
	ByState map[string]int `json:"by_state"`
}

const bytesPerMB = 1024 * 1024

// handleSystem returns a point-in-time summary of the process.
func (s *Server) handleSystem(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	m := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / bytesPerMB,
			NumGC:         memStats.NumGC,
		},
		Automations: AutomationCounts{ByState: make(map[string]int)},
		Entities:    len(s.entities.List()),
		RESTSources: len(s.store.Snapshot()),
	}
	if s.hub != nil {
		m.WebSocket.ConnectedClients = s.hub.ClientCount()
	}

	for _, a := range s.engine.List() {
		m.Automations.Total++
		if a.Enabled() {
			m.Automations.Enabled++
		}
		m.Automations.ByState[a.State().String()]++
	}

	writeJSON(w, http.StatusOK, m)
}
