package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nerrad567/gray-logic-motion/internal/coordinator"
	"github.com/nerrad567/gray-logic-motion/internal/host"
	"github.com/nerrad567/gray-logic-motion/internal/infrastructure/mqtt"
	"github.com/nerrad567/gray-logic-motion/internal/perf"
	"github.com/nerrad567/gray-logic-motion/internal/queue"
)

const (
	// DefaultCommandTimeout bounds one inbound command, retries included.
	DefaultCommandTimeout = 30 * time.Second

	// DefaultBufferSize is the outbound buffer length.
	DefaultBufferSize = 256

	// streamQoS is used for high-rate topics where a lost sample is harmless.
	streamQoS byte = 0
)

// MQTTClient is the subset of *mqtt.Client the bridge uses.
type MQTTClient interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
	Unsubscribe(topic string) error
	IsConnected() bool
}

// Executor runs navigation commands. Satisfied by *coordinator.Coordinator.
type Executor interface {
	Execute(ctx context.Context, cmd coordinator.Command) coordinator.Result
	ExecuteCoordinated(ctx context.Context, cmds []coordinator.Command) (coordinator.BatchResult, error)
}

// Logger is the logging interface used by the bridge.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Options configures a Bridge.
type Options struct {
	MQTTClient MQTTClient
	Executor   Executor

	// QoS for subscriptions, results and events.
	QoS byte
	// MirrorMutations publishes every stage property write.
	MirrorMutations bool
	// CommandTimeout defaults to DefaultCommandTimeout.
	CommandTimeout time.Duration
	// BufferSize defaults to DefaultBufferSize.
	BufferSize int

	Logger Logger
}

// Metrics are bridge counters.
type Metrics struct {
	CommandsReceived uint64 `json:"commands_received"`
	CommandsRejected uint64 `json:"commands_rejected"`
	Published        uint64 `json:"published"`
	PublishFailures  uint64 `json:"publish_failures"`
	Dropped          uint64 `json:"dropped"`
}

type outbound struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// Bridge translates between MQTT and the coordinator.
//
// Thread Safety: all methods are safe for concurrent use.
type Bridge struct {
	mqtt    MQTTClient
	exec    Executor
	qos     byte
	mirror  bool
	timeout time.Duration

	out  chan outbound
	done chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	// runMu guards stopped so no command is added to wg after Stop.
	runMu    sync.Mutex
	stopped  bool
	wg       sync.WaitGroup
	pubWG    sync.WaitGroup
	stopOnce sync.Once

	received  atomic.Uint64
	rejected  atomic.Uint64
	published atomic.Uint64
	failures  atomic.Uint64
	dropped   atomic.Uint64

	now func() time.Time

	logger   Logger
	loggerMu sync.RWMutex
}

// New creates a bridge. Call Start to subscribe.
func New(opts Options) (*Bridge, error) {
	if opts.MQTTClient == nil {
		return nil, fmt.Errorf("%w: MQTT client", ErrMissingDependency)
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("%w: executor", ErrMissingDependency)
	}
	if opts.CommandTimeout <= 0 {
		opts.CommandTimeout = DefaultCommandTimeout
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		mqtt:    opts.MQTTClient,
		exec:    opts.Executor,
		qos:     opts.QoS,
		mirror:  opts.MirrorMutations,
		timeout: opts.CommandTimeout,
		out:     make(chan outbound, opts.BufferSize),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		now:     time.Now,
		logger:  opts.Logger,
	}, nil
}

// Start subscribes to command topics and starts the publisher.
func (b *Bridge) Start() error {
	topic := mqtt.Topics{}.AllCommands()
	if err := b.mqtt.Subscribe(topic, b.qos, b.handleMessage); err != nil {
		return fmt.Errorf("subscribe to commands: %w", err)
	}

	b.pubWG.Add(1)
	go b.publishLoop()

	b.logInfo("bridge started", "topic", topic, "mirror_mutations", b.mirror)
	return nil
}

// Stop cancels in-flight commands, waits for them to report, and flushes
// the outbound buffer.
func (b *Bridge) Stop() {
	b.stopOnce.Do(func() {
		b.runMu.Lock()
		b.stopped = true
		b.runMu.Unlock()

		b.cancel()
		b.wg.Wait()

		close(b.done)
		b.pubWG.Wait()

		if err := b.mqtt.Unsubscribe(mqtt.Topics{}.AllCommands()); err != nil {
			b.logDebug("unsubscribe on stop failed", "error", err)
		}
		b.logInfo("bridge stopped")
	})
}

// handleMessage is the MQTT handler for motion/command/+.
func (b *Bridge) handleMessage(topic string, payload []byte) error {
	b.received.Add(1)

	action, ok := mqtt.CommandAction(topic)
	if !ok {
		b.rejected.Add(1)
		return fmt.Errorf("%w: topic %s", ErrInvalidMessage, topic)
	}

	if action == ActionBatch {
		return b.handleBatch(payload)
	}
	return b.handleCommand(action, payload)
}

func (b *Bridge) handleCommand(action string, payload []byte) error {
	var msg CommandMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.reject(ResultMessage{Action: action}, err)
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	cmd, err := msg.Command(action)
	if err != nil {
		b.reject(ResultMessage{CommandID: msg.ID, Action: action, Target: msg.Target}, err)
		return err
	}

	b.logDebug("received command", "id", cmd.ID, "action", action, "target", cmd.Target)

	return b.spawn(func(ctx context.Context) {
		res := b.exec.Execute(ctx, cmd)
		b.enqueueJSON(mqtt.Topics{}.Result(), NewResultMessage(res, b.now()), b.qos, false)
	})
}

func (b *Bridge) handleBatch(payload []byte) error {
	var msg BatchMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		b.rejectBatch(msg.ID, err)
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	cmds, err := msg.Commands()
	if err != nil {
		b.rejectBatch(msg.ID, err)
		return err
	}

	b.logDebug("received batch", "id", msg.ID, "commands", len(cmds))

	return b.spawn(func(ctx context.Context) {
		res, err := b.exec.ExecuteCoordinated(ctx, cmds)
		if res.SequenceID == "" {
			res.SequenceID = msg.ID
		}
		b.enqueueJSON(mqtt.Topics{}.Result(), NewBatchResultMessage(res, err, b.now()), b.qos, false)
	})
}

// spawn runs fn on its own goroutine so paho's delivery goroutine is never
// held for the length of an animation.
func (b *Bridge) spawn(fn func(ctx context.Context)) error {
	b.runMu.Lock()
	defer b.runMu.Unlock()
	if b.stopped {
		b.rejected.Add(1)
		return ErrStopped
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()
		ctx, cancel := context.WithTimeout(b.ctx, b.timeout)
		defer cancel()
		fn(ctx)
	}()
	return nil
}

func (b *Bridge) reject(msg ResultMessage, err error) {
	b.rejected.Add(1)
	msg.Error = err.Error()
	msg.Timestamp = b.now().UTC()
	b.enqueueJSON(mqtt.Topics{}.Result(), msg, b.qos, false)
}

func (b *Bridge) rejectBatch(id string, err error) {
	b.rejected.Add(1)
	b.enqueueJSON(mqtt.Topics{}.Result(), BatchResultMessage{
		SequenceID: id,
		Results:    []ResultMessage{},
		Error:      err.Error(),
		Timestamp:  b.now().UTC(),
	}, b.qos, false)
}

// PublishEvent forwards a queue lifecycle event.
func (b *Bridge) PublishEvent(ev queue.Event) {
	b.enqueueJSON(mqtt.Topics{}.Event(string(ev.Type)), ev, b.qos, false)
}

// PublishPerformance publishes a monitor sample, retained.
func (b *Bridge) PublishPerformance(s perf.Snapshot) {
	b.enqueueJSON(mqtt.Topics{}.Performance(), s, streamQoS, true)
}

// MirrorMutation publishes a stage property write when mirroring is
// enabled. It matches host.MutationFunc. Declared elements are retained;
// helpers are short-lived and never are, so their topics do not pile up
// on the broker.
func (b *Bridge) MirrorMutation(h host.Handle, props host.Properties) {
	if !b.mirror {
		return
	}
	b.enqueueJSON(mqtt.Topics{}.Mutation(h.ID), MutationMessage{
		Handle:     h.ID,
		Tag:        h.Tag,
		Properties: props,
		Timestamp:  b.now().UTC(),
	}, streamQoS, !h.Helper)
}

// enqueueJSON never blocks; a full buffer drops the message.
func (b *Bridge) enqueueJSON(topic string, v any, qos byte, retained bool) {
	payload, err := json.Marshal(v)
	if err != nil {
		b.logError("failed to marshal message", "topic", topic, "error", err)
		return
	}

	select {
	case <-b.done:
		b.dropped.Add(1)
		return
	default:
	}

	select {
	case b.out <- outbound{topic: topic, payload: payload, qos: qos, retained: retained}:
	default:
		if b.dropped.Add(1) == 1 {
			b.logWarn("outbound buffer full, dropping messages", "topic", topic)
		}
	}
}

func (b *Bridge) publishLoop() {
	defer b.pubWG.Done()
	for {
		select {
		case msg := <-b.out:
			b.publish(msg)
		case <-b.done:
			for {
				select {
				case msg := <-b.out:
					b.publish(msg)
				default:
					return
				}
			}
		}
	}
}

func (b *Bridge) publish(msg outbound) {
	if !b.mqtt.IsConnected() {
		b.dropped.Add(1)
		return
	}
	if err := b.mqtt.Publish(msg.topic, msg.payload, msg.qos, msg.retained); err != nil {
		b.failures.Add(1)
		b.logDebug("publish failed", "topic", msg.topic, "error", err)
		return
	}
	b.published.Add(1)
}

// GetMetrics returns the bridge counters.
func (b *Bridge) GetMetrics() Metrics {
	return Metrics{
		CommandsReceived: b.received.Load(),
		CommandsRejected: b.rejected.Load(),
		Published:        b.published.Load(),
		PublishFailures:  b.failures.Load(),
		Dropped:          b.dropped.Load(),
	}
}

// SetLogger sets the logger for the bridge.
func (b *Bridge) SetLogger(logger Logger) {
	b.loggerMu.Lock()
	b.logger = logger
	b.loggerMu.Unlock()
}

func (b *Bridge) getLogger() Logger {
	b.loggerMu.RLock()
	defer b.loggerMu.RUnlock()
	return b.logger
}

func (b *Bridge) logDebug(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Debug(msg, args...)
	}
}

func (b *Bridge) logInfo(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Info(msg, args...)
	}
}

func (b *Bridge) logWarn(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Warn(msg, args...)
	}
}

func (b *Bridge) logError(msg string, args ...any) {
	if l := b.getLogger(); l != nil {
		l.Error(msg, args...)
	}
}
