package api

import (
	"net/http"
	"runtime"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/bridge"
)

// SystemMetrics represents the complete system metrics response.
type SystemMetrics struct {
	Timestamp     string          `json:"timestamp"`
	Version       string          `json:"version"`
	UptimeSeconds int64           `json:"uptime_seconds"`
	Runtime       RuntimeMetrics  `json:"runtime"`
	WebSocket     WSMetrics       `json:"websocket"`
	MQTT          MQTTMetrics     `json:"mqtt"`
	Bridge        *bridge.Metrics `json:"bridge,omitempty"`
	Engine        EngineMetrics   `json:"engine"`
	Database      DatabaseMetrics `json:"database"`
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

// MQTTMetrics contains MQTT client statistics.
type MQTTMetrics struct {
	Connected bool `json:"connected"`
}

// EngineMetrics summarises the animation engine.
type EngineMetrics struct {
	QueueLength    int     `json:"queue_length"`
	ActiveID       string  `json:"active_id,omitempty"`
	FPS            float64 `json:"fps"`
	CPUPercent     float64 `json:"cpu_percent"`
	Skipping       bool    `json:"skipping"`
	Effects        int     `json:"effects"`
	RecentErrors   int     `json:"recent_errors"`
	SuccessRate    float64 `json:"success_rate"`
	FailedCommands int     `json:"failed_commands"`
}

// DatabaseMetrics contains database connection pool statistics.
type DatabaseMetrics struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// handleMetrics returns comprehensive system metrics.
func (s *Server) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	perfSnap := s.engine.Monitor().Snapshot()
	reliability := s.engine.Coordinator().State().Reliability

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
		Engine: EngineMetrics{
			QueueLength:    s.engine.Queue().Len(),
			ActiveID:       s.engine.Queue().ActiveID(),
			FPS:            perfSnap.FPS,
			CPUPercent:     perfSnap.CPUPercent,
			Skipping:       perfSnap.Skipping,
			Effects:        len(s.engine.Registry().EffectNames()),
			RecentErrors:   len(s.engine.Registry().RecentErrors()),
			SuccessRate:    reliability.SuccessRate,
			FailedCommands: len(reliability.FailedCommands),
		},
	}

	if s.mqtt != nil {
		metrics.MQTT = MQTTMetrics{
			Connected: s.mqtt.IsConnected(),
		}
	}

	if s.bridge != nil {
		bm := s.bridge.GetMetrics()
		metrics.Bridge = &bm
	}

	if s.db != nil {
		dbStats := s.db.Stats()
		metrics.Database = DatabaseMetrics{
			OpenConnections: dbStats.OpenConnections,
			InUse:           dbStats.InUse,
			Idle:            dbStats.Idle,
			WaitCount:       dbStats.WaitCount,
		}
	}

	writeJSON(w, http.StatusOK, metrics)
}
