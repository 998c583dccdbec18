package gpuprofiler

import (
	"testing"

	"github.com/kestrelgfx/tracecore/clock"
	"github.com/kestrelgfx/tracecore/recorder"
	"github.com/kestrelgfx/tracecore/strtab"
)

type fakeDevice struct {
	supported bool
	nextQuery uint32
	results   map[uint32]uint64
	disjoint  bool
	deviceNow uint64
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{supported: true, results: make(map[uint32]uint64)}
}

func (d *fakeDevice) HasTimerQueries() bool { return d.supported }

func (d *fakeDevice) BeginQuery() uint32 {
	d.nextQuery++
	return d.nextQuery
}

func (d *fakeDevice) EndQuery(id uint32) {
	d.results[id] = d.deviceNow
}

func (d *fakeDevice) QueryResult(id uint32) (uint64, bool) {
	ns, ok := d.results[id]
	return ns, ok
}

func (d *fakeDevice) Disjoint() bool { return d.disjoint }

func (d *fakeDevice) DeviceNow() (uint64, error) { return d.deviceNow, nil }

func newTestRecorder(t *testing.T) *recorder.Recorder {
	t.Helper()
	c := clock.New()
	names := strtab.New().View(8)
	scopes := strtab.New().View(8)
	return recorder.New(1, c, names, scopes, 4096, true)
}

func TestAttachFailsWhenUnsupported(t *testing.T) {
	p := New(clock.New(), newTestRecorder(t))
	dev := newFakeDevice()
	dev.supported = false
	if err := p.Attach(dev); err == nil {
		t.Fatalf("expected Attach to fail for an unsupported device")
	}
}

func TestEnterLeavePollRecordsScope(t *testing.T) {
	rec := newTestRecorder(t)
	p := New(clock.New(), rec)
	dev := newFakeDevice()
	dev.deviceNow = 0

	if err := p.Attach(dev); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	scopeID := rec.ScopeIDFor("GPUWork")

	dev.results = make(map[uint32]uint64)
	id := dev.BeginQuery()
	dev.results[id] = 0
	p.fifo = append(p.fifo, pendingQuery{scopeEventID: scopeID, queryID: id, kind: kindBegin})

	id2 := dev.BeginQuery()
	dev.results[id2] = 1000
	p.fifo = append(p.fifo, pendingQuery{scopeEventID: scopeID, queryID: id2, kind: kindEnd})

	p.Poll()

	recs := rec.SnapshotRecords()
	if len(recs) != 2 {
		t.Fatalf("expected 2 records after poll, got %d", len(recs))
	}
	if recs[0].WireID != scopeID || recs[1].WireID != recorder.WireScopeLeave {
		t.Fatalf("unexpected records: %+v", recs)
	}
}

func TestPollDiscardsOnDisjoint(t *testing.T) {
	rec := newTestRecorder(t)
	p := New(clock.New(), rec)
	dev := newFakeDevice()
	if err := p.Attach(dev); err != nil {
		t.Fatalf("Attach: %v", err)
	}

	scopeID := rec.ScopeIDFor("GPUWork")
	id := dev.BeginQuery()
	dev.results[id] = 0
	p.fifo = append(p.fifo, pendingQuery{scopeEventID: scopeID, queryID: id, kind: kindBegin})
	dev.disjoint = true

	p.Poll()

	// Only the BeginFrame query issued by this Poll remains: its result is
	// not available yet, so it is not among the discarded queries.
	if len(p.fifo) != 1 || p.fifo[0].kind != kindBeginFrame {
		t.Fatalf("expected only the pending BeginFrame query left after disjoint event, got %+v", p.fifo)
	}
	if recs := rec.SnapshotRecords(); len(recs) != 0 {
		t.Fatalf("expected no recorded scopes after disjoint discard, got %d", len(recs))
	}
}
