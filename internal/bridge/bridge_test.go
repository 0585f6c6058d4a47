package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/effects"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

// mockMQTTClient implements MQTTClient for testing.
type mockMQTTClient struct {
	mu           sync.Mutex
	published    []mockPublish
	subscribed   []string
	unsubscribed []string
	handler      mqtt.MessageHandler
	connected    bool
	publishErr   error
}

type mockPublish struct {
	Topic    string
	Payload  []byte
	QoS      byte
	Retained bool
}

func newMockMQTTClient() *mockMQTTClient {
	return &mockMQTTClient{connected: true}
}

func (m *mockMQTTClient) Publish(topic string, payload []byte, qos byte, retained bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.publishErr != nil {
		return m.publishErr
	}
	m.published = append(m.published, mockPublish{topic, payload, qos, retained})
	return nil
}

func (m *mockMQTTClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed = append(m.subscribed, topic)
	m.handler = handler
	return nil
}

func (m *mockMQTTClient) Unsubscribe(topic string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unsubscribed = append(m.unsubscribed, topic)
	return nil
}

func (m *mockMQTTClient) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connected
}

// deliver simulates the broker routing a message to the command handler.
func (m *mockMQTTClient) deliver(topic string, payload []byte) error {
	m.mu.Lock()
	h := m.handler
	m.mu.Unlock()
	return h(topic, payload)
}

func (m *mockMQTTClient) getPublished() []mockPublish {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mockPublish, len(m.published))
	copy(out, m.published)
	return out
}

// mockExecutor implements Executor for testing.
type mockExecutor struct {
	mu       sync.Mutex
	commands []coordinator.Command
	batches  [][]coordinator.Command
	block    bool
	batchErr error
}

func (e *mockExecutor) Execute(ctx context.Context, cmd coordinator.Command) coordinator.Result {
	e.mu.Lock()
	e.commands = append(e.commands, cmd)
	block := e.block
	e.mu.Unlock()

	res := coordinator.Result{ID: cmd.ID, Action: cmd.Action, Target: cmd.Target, Attempts: 1}
	if block {
		<-ctx.Done()
		res.Err = ctx.Err()
		res.Error = res.Err.Error()
		return res
	}
	res.Success = true
	res.Duration = 250 * time.Millisecond
	return res
}

func (e *mockExecutor) ExecuteCoordinated(_ context.Context, cmds []coordinator.Command) (coordinator.BatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.batches = append(e.batches, cmds)
	if e.batchErr != nil {
		return coordinator.BatchResult{}, e.batchErr
	}

	out := coordinator.BatchResult{SequenceID: "seq-1"}
	for _, c := range cmds {
		out.Results = append(out.Results, coordinator.Result{ID: c.ID, Action: c.Action, Target: c.Target, Success: true, Attempts: 1})
		out.Succeeded++
	}
	return out, nil
}

func (e *mockExecutor) getCommands() []coordinator.Command {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]coordinator.Command(nil), e.commands...)
}

func setupBridge(t *testing.T, mirror bool) (*Bridge, *mockMQTTClient, *mockExecutor) {
	t.Helper()

	client := newMockMQTTClient()
	exec := &mockExecutor{}
	b, err := New(Options{
		MQTTClient:      client,
		Executor:        exec,
		QoS:             1,
		MirrorMutations: mirror,
		CommandTimeout:  time.Second,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	b.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }

	if err := b.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	t.Cleanup(b.Stop)
	return b, client, exec
}

func decode[T any](t *testing.T, p mockPublish) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(p.Payload, &v); err != nil {
		t.Fatalf("decoding %s payload: %v", p.Topic, err)
	}
	return v
}

func onTopic(pubs []mockPublish, topic string) []mockPublish {
	var out []mockPublish
	for _, p := range pubs {
		if p.Topic == topic {
			out = append(out, p)
		}
	}
	return out
}

// ─── Construction ───────────────────────────────────────────────────

func TestNew_MissingDependencies(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"no client", Options{Executor: &mockExecutor{}}},
		{"no executor", Options{MQTTClient: newMockMQTTClient()}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.opts); !errors.Is(err, ErrMissingDependency) {
				t.Errorf("New() error = %v, want ErrMissingDependency", err)
			}
		})
	}
}

func TestStartStop(t *testing.T) {
	b, client, _ := setupBridge(t, false)

	if diff := cmp.Diff([]string{"motion/command/+"}, client.subscribed); diff != "" {
		t.Errorf("subscriptions mismatch (-want +got):\n%s", diff)
	}

	b.Stop()
	b.Stop()

	if len(client.unsubscribed) != 1 {
		t.Errorf("unsubscribed %v, want one call", client.unsubscribed)
	}
	if err := client.deliver("motion/command/focus", []byte(`{"target":"#a"}`)); !errors.Is(err, ErrStopped) {
		t.Errorf("deliver after Stop = %v, want ErrStopped", err)
	}
}

// ─── Commands ───────────────────────────────────────────────────────

func TestCommandRoundtrip(t *testing.T) {
	b, client, exec := setupBridge(t, false)

	payload := `{"id":"cmd-1","target":"#save","priority":"high","duration_ms":400,
		"options":{"easing":"ease-out","intensity":"strong","selected_index":2}}`
	if err := client.deliver("motion/command/highlight", []byte(payload)); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	b.Stop()

	want := []coordinator.Command{{
		ID:       "cmd-1",
		Action:   coordinator.ActionHighlight,
		Target:   "#save",
		Priority: queue.PriorityHigh,
		Duration: 400 * time.Millisecond,
		Options: effects.Options{
			Easing:        "ease-out",
			Intensity:     effects.IntensityStrong,
			SelectedIndex: effects.Int(2),
		},
	}}
	if diff := cmp.Diff(want, exec.getCommands()); diff != "" {
		t.Errorf("executed commands mismatch (-want +got):\n%s", diff)
	}

	results := onTopic(client.getPublished(), "motion/result")
	if len(results) != 1 {
		t.Fatalf("published %d results, want 1", len(results))
	}
	got := decode[ResultMessage](t, results[0])
	if got.CommandID != "cmd-1" || !got.Success || got.DurationMS != 250 || got.Action != "highlight" {
		t.Errorf("result = %+v", got)
	}
	if results[0].QoS != 1 || results[0].Retained {
		t.Errorf("result qos/retained = %d/%v, want 1/false", results[0].QoS, results[0].Retained)
	}
}

func TestCommandRejected(t *testing.T) {
	tests := []struct {
		name    string
		topic   string
		payload string
		publish bool
	}{
		{"bad topic", "motion/command/a/b", `{}`, false},
		{"malformed json", "motion/command/navigate", `{"target":`, true},
		{"unknown priority", "motion/command/navigate", `{"target":"#a","priority":"urgent"}`, true},
		{"negative duration", "motion/command/navigate", `{"target":"#a","duration_ms":-5}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, client, exec := setupBridge(t, false)

			err := client.deliver(tt.topic, []byte(tt.payload))
			if !errors.Is(err, ErrInvalidMessage) {
				t.Errorf("deliver() error = %v, want ErrInvalidMessage", err)
			}
			b.Stop()

			if n := len(exec.getCommands()); n != 0 {
				t.Errorf("executed %d commands, want 0", n)
			}
			results := onTopic(client.getPublished(), "motion/result")
			if tt.publish && (len(results) != 1 || decode[ResultMessage](t, results[0]).Error == "") {
				t.Errorf("expected one error result, got %d", len(results))
			}
			if m := b.GetMetrics(); m.CommandsRejected != 1 || m.CommandsReceived != 1 {
				t.Errorf("metrics = %+v", m)
			}
		})
	}
}

func TestCommandCancelledOnStop(t *testing.T) {
	b, client, exec := setupBridge(t, false)
	exec.block = true

	if err := client.deliver("motion/command/navigate", []byte(`{"id":"slow","target":"#a"}`)); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	b.Stop()

	results := onTopic(client.getPublished(), "motion/result")
	if len(results) != 1 {
		t.Fatalf("published %d results, want 1", len(results))
	}
	if got := decode[ResultMessage](t, results[0]); got.Success || got.Error == "" {
		t.Errorf("result = %+v, want cancellation failure", got)
	}
}

// ─── Batches ────────────────────────────────────────────────────────

func TestBatch(t *testing.T) {
	b, client, exec := setupBridge(t, false)

	payload := `{"id":"tour","commands":[
		{"action":"navigate","target":"#settings"},
		{"action":"highlight","id":"h1","target":"#save"}]}`
	if err := client.deliver("motion/command/batch", []byte(payload)); err != nil {
		t.Fatalf("deliver() error = %v", err)
	}
	b.Stop()

	exec.mu.Lock()
	batches := exec.batches
	exec.mu.Unlock()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("batches = %+v", batches)
	}
	if batches[0][0].Action != coordinator.ActionNavigate || batches[0][1].ID != "h1" {
		t.Errorf("batch members = %+v", batches[0])
	}

	results := onTopic(client.getPublished(), "motion/result")
	got := decode[BatchResultMessage](t, results[0])
	if got.SequenceID != "seq-1" || got.Succeeded != 2 || len(got.Results) != 2 {
		t.Errorf("batch result = %+v", got)
	}
}

func TestBatch_Errors(t *testing.T) {
	t.Run("empty batch", func(t *testing.T) {
		b, client, _ := setupBridge(t, false)
		err := client.deliver("motion/command/batch", []byte(`{"id":"x","commands":[]}`))
		if !errors.Is(err, ErrInvalidMessage) {
			t.Errorf("deliver() error = %v, want ErrInvalidMessage", err)
		}
		b.Stop()
		results := onTopic(client.getPublished(), "motion/result")
		if len(results) != 1 || decode[BatchResultMessage](t, results[0]).SequenceID != "x" {
			t.Errorf("expected rejection for batch x, got %d results", len(results))
		}
	})

	t.Run("validation failure reported", func(t *testing.T) {
		b, client, exec := setupBridge(t, false)
		exec.batchErr = coordinator.ErrValidationFailed

		err := client.deliver("motion/command/batch", []byte(`{"id":"y","commands":[{"action":"fly","target":"#a"}]}`))
		if err != nil {
			t.Fatalf("deliver() error = %v", err)
		}
		b.Stop()

		got := decode[BatchResultMessage](t, onTopic(client.getPublished(), "motion/result")[0])
		if got.SequenceID != "y" || got.Error == "" {
			t.Errorf("batch result = %+v", got)
		}
	})
}

// ─── Outbound ───────────────────────────────────────────────────────

func TestPublishEvent(t *testing.T) {
	b, client, _ := setupBridge(t, false)

	b.PublishEvent(queue.Event{Type: queue.EventCompleted, ID: "cmd-1", Effects: []string{"ipad-grid-select"}})
	b.Stop()

	events := onTopic(client.getPublished(), "motion/event/completed")
	if len(events) != 1 {
		t.Fatalf("published %d events, want 1", len(events))
	}
	if got := decode[queue.Event](t, events[0]); got.ID != "cmd-1" {
		t.Errorf("event = %+v", got)
	}
}

func TestMirrorMutation(t *testing.T) {
	tests := []struct {
		name   string
		mirror bool
		want   int
	}{
		{"disabled", false, 0},
		{"enabled", true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, client, _ := setupBridge(t, tt.mirror)

			b.MirrorMutation(host.Handle{ID: "tile-3", Tag: "div"}, host.Properties{"opacity": 0.5})
			b.Stop()

			got := onTopic(client.getPublished(), "motion/mutation/tile-3")
			if len(got) != tt.want {
				t.Fatalf("published %d mutations, want %d", len(got), tt.want)
			}
			if tt.want == 0 {
				return
			}
			if !got[0].Retained || got[0].QoS != 0 {
				t.Errorf("qos/retained = %d/%v, want 0/true", got[0].QoS, got[0].Retained)
			}
			msg := decode[MutationMessage](t, got[0])
			if diff := cmp.Diff(host.Properties{"opacity": 0.5}, msg.Properties); diff != "" {
				t.Errorf("properties mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestMirrorMutation_HelpersNotRetained(t *testing.T) {
	b, client, _ := setupBridge(t, true)

	stage, err := host.NewStage(host.Element{ID: "tile", Tag: "div"})
	if err != nil {
		t.Fatalf("NewStage() error = %v", err)
	}
	stage.SetOnApply(b.MirrorMutation)

	tile := stage.Resolve("#tile")[0]
	helper, err := stage.Spawn("particle", tile)
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}

	// A bare handle still reports as a helper once it reaches the observer.
	if err := stage.Apply(host.Handle{ID: helper.ID}, host.Properties{"opacity": 0}); err != nil {
		t.Fatalf("Apply(helper) error = %v", err)
	}
	if err := stage.Apply(tile, host.Properties{"opacity": 1}); err != nil {
		t.Fatalf("Apply(tile) error = %v", err)
	}
	stage.Dispose(helper)
	b.Stop()

	pubs := client.getPublished()
	helperPubs := onTopic(pubs, "motion/mutation/"+helper.ID)
	if len(helperPubs) != 1 || helperPubs[0].Retained {
		t.Errorf("helper mutations = %+v, want one non-retained", helperPubs)
	}
	tilePubs := onTopic(pubs, "motion/mutation/tile")
	if len(tilePubs) != 1 || !tilePubs[0].Retained {
		t.Errorf("tile mutations = %+v, want one retained", tilePubs)
	}
}

func TestPublishPerformance(t *testing.T) {
	b, client, _ := setupBridge(t, false)

	b.PublishPerformance(perf.Snapshot{FPS: 58, FPSFloor: 30})
	b.Stop()

	got := onTopic(client.getPublished(), "motion/performance")
	if len(got) != 1 || !got[0].Retained {
		t.Fatalf("performance publishes = %+v", got)
	}
	if s := decode[perf.Snapshot](t, got[0]); s.FPS != 58 {
		t.Errorf("snapshot = %+v", s)
	}
}

func TestOutbound_DroppedWhenDisconnected(t *testing.T) {
	b, client, _ := setupBridge(t, false)
	client.mu.Lock()
	client.connected = false
	client.mu.Unlock()

	b.PublishEvent(queue.Event{Type: queue.EventStarted})
	b.Stop()

	if n := len(client.getPublished()); n != 0 {
		t.Errorf("published %d messages while disconnected", n)
	}
	if m := b.GetMetrics(); m.Dropped != 1 {
		t.Errorf("Dropped = %d, want 1", m.Dropped)
	}
}

func TestOutbound_PublishFailureCounted(t *testing.T) {
	b, client, _ := setupBridge(t, false)
	client.mu.Lock()
	client.publishErr = mqtt.ErrPublishFailed
	client.mu.Unlock()

	b.PublishEvent(queue.Event{Type: queue.EventStarted})
	b.Stop()

	if m := b.GetMetrics(); m.PublishFailures != 1 || m.Published != 0 {
		t.Errorf("metrics = %+v", m)
	}
}

func TestOutbound_BufferFull(t *testing.T) {
	client := newMockMQTTClient()
	b, err := New(Options{MQTTClient: client, Executor: &mockExecutor{}, BufferSize: 1})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(b.Stop)

	// No publisher running, so only the first message fits.
	for range 3 {
		b.PublishEvent(queue.Event{Type: queue.EventQueued})
	}
	if m := b.GetMetrics(); m.Dropped != 2 {
		t.Errorf("Dropped = %d, want 2", m.Dropped)
	}
}

// ─── Messages ───────────────────────────────────────────────────────

func TestCommandMessage_Defaults(t *testing.T) {
	cmd, err := CommandMessage{Target: "#a"}.Command("focus")
	if err != nil {
		t.Fatalf("Command() error = %v", err)
	}
	want := coordinator.Command{Action: coordinator.ActionFocus, Target: "#a", Priority: queue.PriorityNormal}
	if diff := cmp.Diff(want, cmd); diff != "" {
		t.Errorf("Command() mismatch (-want +got):\n%s", diff)
	}
}

func TestNewResultMessage(t *testing.T) {
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.FixedZone("x", 3600))
	got := NewResultMessage(coordinator.Result{
		ID:           "c",
		Action:       coordinator.ActionModal,
		Target:       "#dialog",
		Attempts:     3,
		FallbackUsed: true,
		Success:      true,
		Duration:     1500 * time.Millisecond,
	}, at)

	want := ResultMessage{
		CommandID:    "c",
		Action:       "modal",
		Target:       "#dialog",
		Success:      true,
		Attempts:     3,
		FallbackUsed: true,
		DurationMS:   1500,
		Timestamp:    at.UTC(),
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("NewResultMessage mismatch (-want +got):\n%s", diff)
	}
}
