// Package gpuprofiler adapts a GPU timer-query device to the recorder
// contract: it enqueues device-side timer queries, translates their
// results to the host timebase, and feeds the translated intervals into a
// named recorder. Its only coupling to the core is that contract.
package gpuprofiler

import (
	"log"

	"github.com/kestrelgfx/tracecore/clock"
	"github.com/kestrelgfx/tracecore/errs"
	"github.com/kestrelgfx/tracecore/recorder"
)

// Device is the minimal GPU timer-query surface this adapter depends on.
// A real backend (OpenGL, Vulkan, D3D) implements this against its own
// query-object API; a host with no GPU support can supply a stub that
// always reports HasTimerQueries() == false.
type Device interface {
	// HasTimerQueries reports whether the device advertises timer query
	// capability and a non-zero query-counter bit count.
	HasTimerQueries() bool
	// BeginQuery starts a new device-side timer query and returns its id.
	BeginQuery() uint32
	// EndQuery closes the most recently begun query.
	EndQuery(id uint32)
	// QueryResult returns the device timestamp (nanoseconds, device clock)
	// for id, and whether the result is available yet.
	QueryResult(id uint32) (deviceNS uint64, ready bool)
	// Disjoint reports and clears the device's disjoint-event flag: true
	// if a disjoint operation occurred since the flag was last read.
	Disjoint() bool
	// DeviceNow samples the device clock (nanoseconds).
	DeviceNow() (uint64, error)
}

type queryKind int

const (
	kindBegin queryKind = iota
	kindEnd
	kindBeginFrame
)

type pendingQuery struct {
	hostTS       uint32
	scopeEventID uint32
	queryID      uint32
	kind         queryKind
}

// Profiler drives Device and feeds translated scope intervals into a
// recorder.
type Profiler struct {
	dev    Device
	clock  *clock.Clock
	rec    *recorder.Recorder
	fifo   []pendingQuery
	offset int64 // glTimerOffsetNS: hostNS - deviceNS
}

// New returns a Profiler that will record onto rec using clk for host
// timestamps.
func New(clk *clock.Clock, rec *recorder.Recorder) *Profiler {
	return &Profiler{clock: clk, rec: rec}
}

// Supported reports whether dev advertises timer query capability.
func Supported(dev Device) bool {
	return dev != nil && dev.HasTimerQueries()
}

// Attach records dev as the profiler's device and syncs the timebase.
// Returns ErrUnsupported if dev cannot provide timer queries.
func (p *Profiler) Attach(dev Device) error {
	if !Supported(dev) {
		log.Printf("tracecore: gpuprofiler: device does not support timer queries")
		return errs.ErrUnsupported
	}
	p.dev = dev
	return p.SyncTimebase()
}

// SetEnabled is a no-op placeholder hook kept for contract symmetry with
// EnterScope/LeaveScope; callers gate calls to those themselves.
func (p *Profiler) SetEnabled(bool) {}

// EnterScope allocates a begin query for scopeEventID and enqueues its record.
func (p *Profiler) EnterScope(scopeEventID uint32) {
	if p.dev == nil {
		return
	}
	id := p.dev.BeginQuery()
	p.fifo = append(p.fifo, pendingQuery{
		hostTS:       p.clock.NowUS(),
		scopeEventID: scopeEventID,
		queryID:      id,
		kind:         kindBegin,
	})
}

// LeaveScope issues a new query, ends it at once, and enqueues its record as
// the scope's end.
func (p *Profiler) LeaveScope(scopeEventID uint32) {
	if p.dev == nil {
		return
	}
	id := p.dev.BeginQuery()
	p.dev.EndQuery(id)
	p.fifo = append(p.fifo, pendingQuery{
		hostTS:       p.clock.NowUS(),
		scopeEventID: scopeEventID,
		queryID:      id,
		kind:         kindEnd,
	})
}

// Poll emits a BeginFrame query, then drains every query at the head of the
// FIFO whose result is ready, translating each to host time and recording
// it. Call once per frame.
func (p *Profiler) Poll() {
	if p.dev == nil {
		return
	}

	beginFrameID := p.dev.BeginQuery()
	p.fifo = append(p.fifo, pendingQuery{
		hostTS:  p.clock.NowUS(),
		queryID: beginFrameID,
		kind:    kindBeginFrame,
	})

	checkedDisjoint := false
	wasDisjoint := false

	for len(p.fifo) > 0 {
		q := p.fifo[0]
		deviceNS, ready := p.dev.QueryResult(q.queryID)
		if !ready {
			return
		}
		p.fifo = p.fifo[1:]

		if !checkedDisjoint {
			checkedDisjoint = true
			wasDisjoint = p.dev.Disjoint()
			if wasDisjoint {
				log.Printf("tracecore: gpuprofiler: disjoint event, discarding available queries")
			}
		}
		if wasDisjoint {
			continue
		}

		hostNS := int64(deviceNS) + p.offset
		if (q.kind == kindBegin || q.kind == kindBeginFrame) && int64(q.hostTS)*1000 > hostNS {
			p.offset += int64(q.hostTS)*1000 - hostNS
			hostNS = int64(q.hostTS) * 1000
		}

		ts := uint32(hostNS / 1000)
		switch q.kind {
		case kindBegin:
			p.rec.EnterScopeAt(ts, q.scopeEventID)
		case kindEnd:
			p.rec.LeaveScopeAt(ts)
		case kindBeginFrame:
		}
	}
}

// SyncTimebase samples the device and host clocks and sets the offset used
// to translate device timestamps to host time, retrying up to 3 times
// while the disjoint flag is set.
func (p *Profiler) SyncTimebase() error {
	if p.dev == nil {
		return errs.ErrUnsupported
	}
	for attempt := 0; attempt < 3; attempt++ {
		deviceNS, err := p.dev.DeviceNow()
		if err != nil {
			log.Printf("tracecore: gpuprofiler: DeviceNow: %v", err)
			p.offset = 0
			return err
		}
		hostNS := int64(p.clock.NowUS()) * 1000
		if p.dev.Disjoint() {
			continue
		}
		p.offset = hostNS - int64(deviceNS)
		return nil
	}
	log.Printf("tracecore: gpuprofiler: timebase sync gave up after disjoint events, offset reset to 0")
	p.offset = 0
	return nil
}
