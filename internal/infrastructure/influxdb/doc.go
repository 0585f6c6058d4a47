// Package influxdb records motion telemetry in InfluxDB.
//
// It wraps the official influxdb-client-go v2 library. Three measurements
// are written:
//
//	motion_frames      fps, frames, cpu_percent, skipping
//	motion_executions  success, fallback_used, attempts, duration_ms (tag: action)
//	motion_queue       members, elapsed_ms (tags: event, coordinated)
//
// # Usage
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	defer client.Close()
//	client.WriteFrameSample(influxdb.FrameSample{FPS: snap.FPS})
//
// Writes are batched and non-blocking; batch failures are delivered to the
// SetOnError callback. Writes on a closed client are dropped.
package influxdb
