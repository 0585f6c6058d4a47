package perf

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// Defaults used when a Config field is zero.
const (
	DefaultFPSFloor       = 30.0
	DefaultSampleInterval = time.Second
	DefaultCPUInterval    = 2 * time.Second
)

// Config tunes the monitor.
type Config struct {
	// FPSFloor is the frame rate below which motion is skipped.
	FPSFloor float64
	// CPUCeiling is the host CPU percentage above which motion is skipped.
	// Zero disables the CPU check.
	CPUCeiling float64
	// SampleInterval is the FPS window.
	SampleInterval time.Duration
	// CPUInterval is how often Run samples host CPU.
	CPUInterval time.Duration
}

// Logger defines the logging interface used by the Monitor.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// CPUSampler returns the current host CPU utilisation in percent.
type CPUSampler func(ctx context.Context) (float64, error)

// HostCPU samples overall CPU utilisation since the previous call.
func HostCPU(ctx context.Context) (float64, error) {
	pct, err := cpu.PercentWithContext(ctx, 0, false)
	if err != nil {
		return 0, err
	}
	if len(pct) == 0 {
		return 0, errors.New("perf: no cpu reading")
	}
	return pct[0], nil
}

// Snapshot is a copy of the monitor state.
type Snapshot struct {
	FPS        float64   `json:"fps"`
	FPSFloor   float64   `json:"fps_floor"`
	Frames     int64     `json:"frames"`
	Samples    int64     `json:"samples"`
	CPUPercent float64   `json:"cpu_percent"`
	CPUCeiling float64   `json:"cpu_ceiling,omitempty"`
	Skipping   bool      `json:"skipping"`
	LastSample time.Time `json:"last_sample,omitempty"`
}

// Monitor tracks frame rate and CPU load.
//
// Thread Safety: all methods are safe for concurrent use.
type Monitor struct {
	cfg Config

	mu          sync.Mutex
	windowStart time.Time
	windowCount int64
	frames      int64
	samples     int64
	fps         float64
	cpuPercent  float64
	lastSample  time.Time
	skipping    bool

	sampler  CPUSampler
	onSample func(Snapshot)
	logger   Logger
}

// New creates a monitor, filling zero Config fields with defaults.
func New(cfg Config) *Monitor {
	if cfg.FPSFloor <= 0 {
		cfg.FPSFloor = DefaultFPSFloor
	}
	if cfg.SampleInterval <= 0 {
		cfg.SampleInterval = DefaultSampleInterval
	}
	if cfg.CPUInterval <= 0 {
		cfg.CPUInterval = DefaultCPUInterval
	}
	return &Monitor{
		cfg:     cfg,
		sampler: HostCPU,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the monitor.
func (m *Monitor) SetLogger(logger Logger) {
	m.logger = logger
}

// SetCPUSampler replaces the host CPU sampler.
func (m *Monitor) SetCPUSampler(s CPUSampler) {
	m.mu.Lock()
	m.sampler = s
	m.mu.Unlock()
}

// OnSample registers a function called with a snapshot after every FPS
// sample. It runs outside the monitor lock.
func (m *Monitor) OnSample(fn func(Snapshot)) {
	m.mu.Lock()
	m.onSample = fn
	m.mu.Unlock()
}

// Frame records one delivered frame.
func (m *Monitor) Frame(now time.Time) {
	m.mu.Lock()
	m.frames++
	if m.windowStart.IsZero() {
		m.windowStart = now
		m.mu.Unlock()
		return
	}
	m.windowCount++

	elapsed := now.Sub(m.windowStart)
	if elapsed < m.cfg.SampleInterval {
		m.mu.Unlock()
		return
	}

	m.fps = float64(m.windowCount) / elapsed.Seconds()
	m.samples++
	m.lastSample = now
	m.windowStart = now
	m.windowCount = 0
	changed := m.updateSkipLocked()
	snap := m.snapshotLocked()
	onSample := m.onSample
	m.mu.Unlock()

	if changed {
		m.logSkip(snap)
	}
	if onSample != nil {
		onSample(snap)
	}
}

// ShouldSkip reports whether animations should be collapsed.
func (m *Monitor) ShouldSkip() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.skipping
}

// Snapshot returns a copy of the current readings.
func (m *Monitor) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// Run samples host CPU every CPUInterval until ctx is cancelled. Sampler
// errors are logged and skipped.
func (m *Monitor) Run(ctx context.Context) error {
	if m.cfg.CPUCeiling <= 0 {
		<-ctx.Done()
		return nil
	}

	ticker := time.NewTicker(m.cfg.CPUInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			m.SampleCPU(ctx)
		}
	}
}

// SampleCPU takes one CPU reading.
func (m *Monitor) SampleCPU(ctx context.Context) {
	m.mu.Lock()
	sampler := m.sampler
	m.mu.Unlock()

	pct, err := sampler(ctx)
	if err != nil {
		m.logger.Warn("cpu sample failed", "error", err)
		return
	}

	m.mu.Lock()
	m.cpuPercent = pct
	changed := m.updateSkipLocked()
	snap := m.snapshotLocked()
	m.mu.Unlock()

	if changed {
		m.logSkip(snap)
	}
}

func (m *Monitor) updateSkipLocked() bool {
	skip := (m.samples > 0 && m.fps < m.cfg.FPSFloor) ||
		(m.cfg.CPUCeiling > 0 && m.cpuPercent > m.cfg.CPUCeiling)
	changed := skip != m.skipping
	m.skipping = skip
	return changed
}

func (m *Monitor) snapshotLocked() Snapshot {
	return Snapshot{
		FPS:        m.fps,
		FPSFloor:   m.cfg.FPSFloor,
		Frames:     m.frames,
		Samples:    m.samples,
		CPUPercent: m.cpuPercent,
		CPUCeiling: m.cfg.CPUCeiling,
		Skipping:   m.skipping,
		LastSample: m.lastSample,
	}
}

func (m *Monitor) logSkip(s Snapshot) {
	if s.Skipping {
		m.logger.Warn("performance degraded, collapsing animations",
			"fps", s.FPS,
			"cpu_percent", s.CPUPercent,
		)
		return
	}
	m.logger.Info("performance recovered", "fps", s.FPS, "cpu_percent", s.CPUPercent)
}
