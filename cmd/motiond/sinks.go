package main

import (
	"context"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/engine"
	"github.com/nerrad567/gray-logic-motion/internal/history"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/influxdb"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// recordTimeout bounds one execution history insert.
const recordTimeout = 5 * time.Second

// broadcaster is satisfied by *api.Hub.
type broadcaster interface {
	BroadcastEvent(ev queue.Event)
	BroadcastResult(r coordinator.Result)
	BroadcastSample(s perf.Snapshot)
	BroadcastMutation(h host.Handle, props host.Properties)
}

// publisher is satisfied by *bridge.Bridge.
type publisher interface {
	PublishEvent(ev queue.Event)
	PublishPerformance(s perf.Snapshot)
	MirrorMutation(h host.Handle, props host.Properties)
}

// telemetry is satisfied by *influxdb.Client.
type telemetry interface {
	WriteFrameSample(s influxdb.FrameSample)
	WriteExecution(e influxdb.Execution)
	WriteQueueEvent(e influxdb.QueueEvent)
}

// sinks fans engine activity out to every enabled consumer. Nil fields are
// skipped.
type sinks struct {
	history history.Repository
	hub     broadcaster
	bridge  publisher
	influx  telemetry
	log     *logging.Logger
}

func (s *sinks) attach(eng *engine.Engine) {
	eng.OnEvent(s.onEvent)
	eng.OnResult(s.onResult)
	eng.OnSample(s.onSample)
	eng.OnMutation(s.onMutation)
}

func (s *sinks) onEvent(ev queue.Event) {
	if s.hub != nil {
		s.hub.BroadcastEvent(ev)
	}
	if s.bridge != nil {
		s.bridge.PublishEvent(ev)
	}
	if s.influx != nil && terminal(ev.Type) {
		s.influx.WriteQueueEvent(influxdb.QueueEvent{
			Type:        string(ev.Type),
			Coordinated: ev.Coordinated,
			Members:     len(ev.Members),
			Elapsed:     ev.Elapsed,
			At:          ev.At,
		})
	}
}

func (s *sinks) onResult(r coordinator.Result) {
	now := time.Now().UTC()

	if s.history != nil {
		exec := history.FromResult(r, now)
		ctx, cancel := context.WithTimeout(context.Background(), recordTimeout)
		if err := s.history.Record(ctx, &exec); err != nil {
			s.log.Warn("recording execution failed", "id", r.ID, "error", err)
		}
		cancel()
	}
	if s.hub != nil {
		s.hub.BroadcastResult(r)
	}
	if s.influx != nil {
		s.influx.WriteExecution(influxdb.Execution{
			Action:       string(r.Action),
			Success:      r.Success,
			FallbackUsed: r.FallbackUsed,
			Attempts:     r.Attempts,
			Duration:     r.Duration,
			At:           now,
		})
	}
}

func (s *sinks) onSample(snap perf.Snapshot) {
	if s.hub != nil {
		s.hub.BroadcastSample(snap)
	}
	if s.bridge != nil {
		s.bridge.PublishPerformance(snap)
	}
	if s.influx != nil {
		s.influx.WriteFrameSample(influxdb.FrameSample{
			FPS:        snap.FPS,
			CPUPercent: snap.CPUPercent,
			Frames:     int(snap.Frames),
			Skipping:   snap.Skipping,
			At:         snap.LastSample,
		})
	}
}

// onMutation runs on the frame loop; both consumers are non-blocking.
func (s *sinks) onMutation(h host.Handle, props host.Properties) {
	if s.hub != nil {
		s.hub.BroadcastMutation(h, props)
	}
	if s.bridge != nil {
		s.bridge.MirrorMutation(h, props)
	}
}

func terminal(t queue.EventType) bool {
	switch t {
	case queue.EventCompleted, queue.EventFailed, queue.EventKilled:
		return true
	}
	return false
}
