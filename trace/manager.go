// Package trace implements the manager that owns the monotonic clock, the
// shared string tables, and the registry of per-thread recorders, and
// drives WTF serialization and timeline reconstruction over them.
package trace

import (
	"context"
	"log"
	"os"
	"sync"
	"time"

	"github.com/kestrelgfx/tracecore/clock"
	"github.com/kestrelgfx/tracecore/recorder"
	"github.com/kestrelgfx/tracecore/streaming"
	"github.com/kestrelgfx/tracecore/strtab"
	"github.com/kestrelgfx/tracecore/timeline"
	"github.com/kestrelgfx/tracecore/wtf"
)

// BindingToken is an opaque, caller-supplied value identifying one logical
// producer (typically a goroutine that has pinned itself to an OS thread
// via runtime.LockOSThread), the idiomatic-Go stand-in for OS
// thread-local storage.
type BindingToken any

// Slot names a well-known recorder that is not tied to any one binding.
type Slot int

const (
	// Gpu is the recorder fed by the GPU profiler adapter.
	Gpu Slot = iota
	// VSync is the recorder fed by the vsync profiler adapter.
	VSync
)

func (s Slot) String() string {
	switch s {
	case Gpu:
		return "GPU"
	case VSync:
		return "VSync"
	default:
		return "Unnamed"
	}
}

// Manager owns the clock, the two shared string tables, the recorder
// registry, and the per-binding and per-slot lookup caches.
type Manager struct {
	cfg   Config
	clock *clock.Clock

	names      *strtab.Table
	scopeNames *strtab.Table

	mu        sync.RWMutex
	recorders []*recorder.Recorder
	bySlot    map[Slot]*recorder.Recorder

	bindings sync.Map // BindingToken -> *recorder.Recorder

	nextID uint64

	metricsMu sync.Mutex
	metrics   []Metric

	appName  string
	exporter *streaming.Exporter
}

// SetExporter attaches the optional live-streaming exporter. A manager with
// no exporter attached drops straight to file/byte output via Snapshot and
// WriteFile; this is an opt-in companion, not a required path.
func (m *Manager) SetExporter(e *streaming.Exporter) { m.exporter = e }

// PublishSnapshot takes a snapshot and broadcasts it through the attached
// exporter. It is a no-op if no exporter is attached.
func (m *Manager) PublishSnapshot(ctx context.Context) error {
	if m.exporter == nil {
		return nil
	}
	data, err := m.Snapshot()
	if err != nil {
		return err
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	m.exporter.PublishBytes(data, time.Now().UnixNano())
	return nil
}

// New returns a Manager configured from cfg, emitting traces for appName
// (used verbatim as the WTF file header's contextInfo.title).
func New(cfg Config, appName string) *Manager {
	return &Manager{
		cfg:        cfg,
		clock:      clock.New(),
		names:      strtab.New(),
		scopeNames: strtab.New(),
		bySlot:     make(map[Slot]*recorder.Recorder),
		appName:    appName,
	}
}

func (m *Manager) bufferCapacityWords() int {
	words := m.cfg.BufferBytes / 4
	if words <= 0 {
		words = 1
	}
	return words
}

// newRecorder allocates and registers a recorder under the write lock. The
// caller must already hold m.mu for writing.
func (m *Manager) newRecorder() *recorder.Recorder {
	m.nextID++
	rec := recorder.New(m.nextID, m.clock, m.names.View(8), m.scopeNames.View(8), m.bufferCapacityWords(), m.cfg.ReserveBuffer)
	m.recorders = append(m.recorders, rec)
	return rec
}

// TraceRecorder lazily creates and caches the recorder bound to token,
// registering it with the manager on first use.
func (m *Manager) TraceRecorder(token BindingToken) *recorder.Recorder {
	if v, ok := m.bindings.Load(token); ok {
		return v.(*recorder.Recorder)
	}
	m.mu.Lock()
	rec := m.newRecorder()
	m.mu.Unlock()
	actual, _ := m.bindings.LoadOrStore(token, rec)
	return actual.(*recorder.Recorder)
}

// NamedTraceRecorder lazily creates and names the recorder bound to slot.
func (m *Manager) NamedTraceRecorder(slot Slot) *recorder.Recorder {
	m.mu.RLock()
	rec, ok := m.bySlot[slot]
	m.mu.RUnlock()
	if ok {
		return rec
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if rec, ok := m.bySlot[slot]; ok {
		return rec
	}
	rec = m.newRecorder()
	rec.SetName(slot.String())
	m.bySlot[slot] = rec
	return rec
}

// snapshotRegistry returns a copy of the current recorder list under the
// read lock, so callers can iterate without holding it.
func (m *Manager) snapshotRegistry() []*recorder.Recorder {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*recorder.Recorder, len(m.recorders))
	copy(out, m.recorders)
	return out
}

// Snapshot produces a full WTF binary stream over every registered
// recorder's current contents.
func (m *Manager) Snapshot() ([]byte, error) {
	header := wtf.FileHeader{AppName: m.appName, Timebase: m.clock.Timebase()}
	return wtf.Emit(header, m.names, m.scopeNames, m.snapshotRegistry()), nil
}

// BuildTimeline reconstructs a Timeline over every registered recorder's
// current contents.
func (m *Manager) BuildTimeline() *timeline.Timeline {
	return timeline.Build(m.snapshotRegistry(), m.names, m.scopeNames)
}

// RegisterMetric adds m to the set dispatched by RunMetrics.
func (m *Manager) RegisterMetric(metric Metric) {
	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	m.metrics = append(m.metrics, metric)
}

// ClearMetrics removes every registered metric.
func (m *Manager) ClearMetrics() {
	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	m.metrics = nil
}

// RunMetrics builds a fresh timeline and dispatches every registered metric
// against it.
func (m *Manager) RunMetrics() Benchmark {
	tl := m.BuildTimeline()
	m.metricsMu.Lock()
	defer m.metricsMu.Unlock()
	bench := newBenchmark()
	for _, metric := range m.metrics {
		bench.Results[metric.Name()] = metric.Measure(tl)
	}
	return bench
}

// WriteFile writes the result of Snapshot to path.
func (m *Manager) WriteFile(path string) error {
	data, err := m.Snapshot()
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// Config returns the manager's effective configuration.
func (m *Manager) Config() Config { return m.cfg }

// GPUTracingEnabled reports whether the GPU adapter should be attached, per
// configuration.
func (m *Manager) GPUTracingEnabled() bool {
	if !m.cfg.EnableGPUTracing {
		log.Printf("tracecore: GPU tracing disabled by configuration")
	}
	return m.cfg.EnableGPUTracing
}
