package influxdb

import (
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// Measurement names written by the motion service.
const (
	MeasurementFrames     = "motion_frames"
	MeasurementExecutions = "motion_executions"
	MeasurementQueue      = "motion_queue"
)

// FrameSample is one performance monitor reading.
type FrameSample struct {
	FPS        float64
	CPUPercent float64
	Frames     int
	Skipping   bool
	At         time.Time
}

// Execution is one finished coordinator command.
type Execution struct {
	Action       string
	Success      bool
	FallbackUsed bool
	Attempts     int
	Duration     time.Duration
	At           time.Time
}

// QueueEvent is one queue lifecycle transition.
type QueueEvent struct {
	Type        string
	Coordinated bool
	Members     int
	Elapsed     time.Duration
	At          time.Time
}

// WriteFrameSample records a frame rate sample. Non-blocking.
func (c *Client) WriteFrameSample(s FrameSample) {
	c.write(framePoint(s))
}

// WriteExecution records a coordinator outcome. Non-blocking.
func (c *Client) WriteExecution(e Execution) {
	c.write(executionPoint(e))
}

// WriteQueueEvent records a queue transition. Non-blocking.
func (c *Client) WriteQueueEvent(e QueueEvent) {
	c.write(queuePoint(e))
}

// WritePoint writes a custom point stamped now.
//
// Example:
//
//	client.WritePoint("motion_registry",
//	    map[string]string{"plugin": "micro"},
//	    map[string]interface{}{"effects": 3})
func (c *Client) WritePoint(measurement string, tags map[string]string, fields map[string]interface{}) {
	c.write(write.NewPoint(measurement, tags, fields, time.Now()))
}

// WritePointWithTime writes a custom point with an explicit timestamp.
func (c *Client) WritePointWithTime(measurement string, tags map[string]string, fields map[string]interface{}, timestamp time.Time) {
	c.write(write.NewPoint(measurement, tags, fields, timestamp))
}

func (c *Client) write(p *write.Point) {
	if !c.IsConnected() {
		return
	}
	c.writeAPI.WritePoint(p)
}

func framePoint(s FrameSample) *write.Point {
	fields := map[string]interface{}{
		"fps":      s.FPS,
		"frames":   s.Frames,
		"skipping": s.Skipping,
	}
	if s.CPUPercent > 0 {
		fields["cpu_percent"] = s.CPUPercent
	}
	return write.NewPoint(MeasurementFrames, nil, fields, stamp(s.At))
}

func executionPoint(e Execution) *write.Point {
	return write.NewPoint(
		MeasurementExecutions,
		map[string]string{
			"action": e.Action,
		},
		map[string]interface{}{
			"success":       e.Success,
			"fallback_used": e.FallbackUsed,
			"attempts":      e.Attempts,
			"duration_ms":   e.Duration.Milliseconds(),
		},
		stamp(e.At),
	)
}

func queuePoint(e QueueEvent) *write.Point {
	return write.NewPoint(
		MeasurementQueue,
		map[string]string{
			"event":       e.Type,
			"coordinated": boolTag(e.Coordinated),
		},
		map[string]interface{}{
			"members":    e.Members,
			"elapsed_ms": e.Elapsed.Milliseconds(),
		},
		stamp(e.At),
	)
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}

func boolTag(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
