package influxdb

import (
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

type fakeWriter struct {
	mu      sync.Mutex
	points  []*write.Point
	flushes int
}

func (f *fakeWriter) WritePoint(p *write.Point) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.points = append(f.points, p)
}

func (f *fakeWriter) Flush() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.flushes++
}

func (f *fakeWriter) getPoints() []*write.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*write.Point(nil), f.points...)
}

func setupClient(t *testing.T) (*Client, *fakeWriter) {
	t.Helper()
	w := &fakeWriter{}
	return &Client{writeAPI: w, connected: true}, w
}

func tags(p *write.Point) map[string]string {
	out := map[string]string{}
	for _, tag := range p.TagList() {
		out[tag.Key] = tag.Value
	}
	return out
}

func fields(p *write.Point) map[string]any {
	out := map[string]any{}
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

var epoch = time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

func TestWriteFrameSample(t *testing.T) {
	c, w := setupClient(t)

	c.WriteFrameSample(FrameSample{FPS: 24.5, CPUPercent: 91, Frames: 24, Skipping: true, At: epoch})
	c.WriteFrameSample(FrameSample{FPS: 60, Frames: 60, At: epoch})

	points := w.getPoints()
	if len(points) != 2 {
		t.Fatalf("wrote %d points, want 2", len(points))
	}
	if points[0].Name() != MeasurementFrames || !points[0].Time().Equal(epoch) {
		t.Errorf("point = %s @ %v", points[0].Name(), points[0].Time())
	}

	want := map[string]any{"fps": 24.5, "cpu_percent": 91.0, "frames": int64(24), "skipping": true}
	if diff := cmp.Diff(want, fields(points[0])); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
	if _, ok := fields(points[1])["cpu_percent"]; ok {
		t.Error("cpu_percent written without a CPU reading")
	}
}

func TestWriteExecution(t *testing.T) {
	c, w := setupClient(t)

	c.WriteExecution(Execution{
		Action:       "highlight",
		FallbackUsed: true,
		Attempts:     3,
		Duration:     1500 * time.Millisecond,
		At:           epoch,
	})

	p := w.getPoints()[0]
	if diff := cmp.Diff(map[string]string{"action": "highlight"}, tags(p)); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	want := map[string]any{"success": false, "fallback_used": true, "attempts": int64(3), "duration_ms": int64(1500)}
	if diff := cmp.Diff(want, fields(p)); diff != "" {
		t.Errorf("fields mismatch (-want +got):\n%s", diff)
	}
}

func TestWriteQueueEvent(t *testing.T) {
	c, w := setupClient(t)

	c.WriteQueueEvent(QueueEvent{Type: "completed", Coordinated: true, Members: 2, Elapsed: 700 * time.Millisecond})

	p := w.getPoints()[0]
	if diff := cmp.Diff(map[string]string{"event": "completed", "coordinated": "true"}, tags(p)); diff != "" {
		t.Errorf("tags mismatch (-want +got):\n%s", diff)
	}
	if p.Time().IsZero() {
		t.Error("zero event time should be stamped now")
	}
}

func TestWritePoint_Custom(t *testing.T) {
	c, w := setupClient(t)

	c.WritePoint("motion_registry", map[string]string{"plugin": "micro"}, map[string]interface{}{"effects": 3})
	c.WritePointWithTime("motion_registry", nil, map[string]interface{}{"effects": 4}, epoch)

	points := w.getPoints()
	if len(points) != 2 || !points[1].Time().Equal(epoch) {
		t.Fatalf("points = %d, second at %v", len(points), points[len(points)-1].Time())
	}
}

func TestWrite_Disconnected(t *testing.T) {
	c, w := setupClient(t)
	c.connected = false

	c.WriteFrameSample(FrameSample{FPS: 60})
	c.WriteExecution(Execution{Action: "focus"})
	c.Flush()

	if n := len(w.getPoints()); n != 0 {
		t.Errorf("wrote %d points while disconnected", n)
	}
	if w.flushes != 0 {
		t.Error("Flush reached the writer while disconnected")
	}
}
