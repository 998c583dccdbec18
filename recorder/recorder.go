// Package recorder implements the per-thread event ring buffer and its
// scope/frame/time-range/annotation state machine. A Recorder is written by
// exactly one logical producer at a time; writes take the recorder's own
// spinlock and never block a reader of a different recorder.
package recorder

import (
	"encoding/json"
	"log"

	"github.com/kestrelgfx/tracecore/clock"
	"github.com/kestrelgfx/tracecore/errs"
	"github.com/kestrelgfx/tracecore/strtab"
)

// DefaultName is used for a recorder that has not been explicitly named.
const DefaultName = "UnnamedThread"

// Recorder owns one per-thread ring buffer and the scope/frame/range state
// machine that feeds it.
type Recorder struct {
	mu spinlock

	buf   *ring
	clock *clock.Clock
	names *strtab.View // general table: annotation/value/range/thread names
	scope *strtab.View // scope-event-name table

	id   uint64
	name string

	scopeDepth int
	frameDepth int
	curFrame   uint32

	openRanges map[uint32]struct{}
}

// New returns a Recorder backed by a ring buffer of capacityWords 32-bit
// words. New writes the initial empty-scope marker itself, so the backing
// array is allocated during construction whether or not reserve is set.
func New(id uint64, c *clock.Clock, names, scope *strtab.View, capacityWords int, reserve bool) *Recorder {
	r := &Recorder{
		buf:        newRing(capacityWords, reserve),
		clock:      c,
		names:      names,
		scope:      scope,
		id:         id,
		name:       DefaultName,
		openRanges: make(map[uint32]struct{}),
	}
	r.buf.push(EmptyScopeMarker)
	return r
}

// ID returns the recorder's owning binding id.
func (r *Recorder) ID() uint64 { return r.id }

// Name returns the recorder's human-readable name.
func (r *Recorder) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// SetName sets the recorder's human-readable name (e.g. "GPU", "VSync", or
// a thread name supplied by the application).
func (r *Recorder) SetName(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.name = name
}

// ScopeIDFor interns name into the scope-name table and returns its wire id
// (CustomScopeBase + index).
func (r *Recorder) ScopeIDFor(name string) uint32 {
	return CustomScopeBase + r.scope.Intern(name)
}

// EnterScope appends a scope-enter record timestamped now and increments the
// open-scope depth.
func (r *Recorder) EnterScope(id uint32) {
	r.EnterScopeAt(r.clock.NowUS(), id)
}

// EnterScopeAt appends a scope-enter record timestamped ts.
func (r *Recorder) EnterScopeAt(ts uint32, id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.pushAll(id, ts)
	r.scopeDepth++
}

// LeaveScope appends a scope-leave record timestamped now.
func (r *Recorder) LeaveScope() {
	r.LeaveScopeAt(r.clock.NowUS())
}

// LeaveScopeAt appends a scope-leave record timestamped ts. If the open-scope
// depth returns to zero, an empty-scope marker is appended immediately
// after so the serializer can find a safe replay start point.
func (r *Recorder) LeaveScopeAt(ts uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.buf.pushAll(WireScopeLeave, ts)
	if r.scopeDepth > 0 {
		r.scopeDepth--
	}
	if r.scopeDepth == 0 {
		r.buf.push(EmptyScopeMarker)
	}
}

// AnnotateCurrentScope appends a scope#appendData record carrying name and
// value (any JSON-marshalable value) timestamped now.
func (r *Recorder) AnnotateCurrentScope(name string, value any) error {
	return r.AnnotateCurrentScopeAt(r.clock.NowUS(), name, value)
}

// AnnotateCurrentScopeAt is AnnotateCurrentScope with an explicit timestamp.
func (r *Recorder) AnnotateCurrentScopeAt(ts uint32, name string, value any) error {
	valueIdx, err := r.internValue(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	nameIdx := r.names.Intern(name)
	r.buf.pushAll(WireScopeAppendData, ts, nameIdx, valueIdx)
	return nil
}

// EnterFrame marks the start of a frame. Only the outermost enter of a
// nested-frame sequence produces a buffer record; inner enters only bump
// the frame depth.
func (r *Recorder) EnterFrame(frameNumber uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frameDepth == 0 {
		r.buf.pushAll(WireTimingFrameStart, r.clock.NowUS(), frameNumber)
		r.curFrame = frameNumber
	}
	r.frameDepth++
}

// LeaveFrame marks the end of a frame. Only the outermost leave produces a
// buffer record.
func (r *Recorder) LeaveFrame() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.frameDepth == 0 {
		log.Printf("tracecore: recorder %d: LeaveFrame without matching EnterFrame", r.id)
		return
	}
	r.frameDepth--
	if r.frameDepth == 0 {
		r.buf.pushAll(WireTimingFrameEnd, r.clock.NowUS(), r.curFrame)
	}
}

// EnterTimeRange opens range id with the given name and value, unless id is
// already open (in which case it warns once and returns).
func (r *Recorder) EnterTimeRange(id uint32, name string, value any) error {
	valueIdx, err := r.internValue(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, open := r.openRanges[id]; open {
		log.Printf("tracecore: recorder %d: time range %d already open", r.id, id)
		return nil
	}
	nameIdx := r.names.Intern(name)
	r.buf.pushAll(WireTimeRangeBegin, r.clock.NowUS(), id, nameIdx, valueIdx)
	r.openRanges[id] = struct{}{}
	return nil
}

// EnterTimeRangeNamed is the name-only form: it interns name and uses the
// resulting index as the range id, so duplicate names collide onto the same
// id. Callers that need multiple concurrent ranges sharing a name must use
// EnterTimeRange with an explicit id.
func (r *Recorder) EnterTimeRangeNamed(name string, value any) (uint32, error) {
	id := r.names.Intern(name)
	if err := r.EnterTimeRange(id, name, value); err != nil {
		return 0, err
	}
	return id, nil
}

// LeaveTimeRange closes range id, or warns once and returns if it was not
// open.
func (r *Recorder) LeaveTimeRange(id uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, open := r.openRanges[id]; !open {
		log.Printf("tracecore: recorder %d: time range %d not open", r.id, id)
		return
	}
	delete(r.openRanges, id)
	r.buf.pushAll(WireTimeRangeEnd, r.clock.NowUS(), id)
}

// CreateTimeStamp appends a point-in-time trace#timeStamp event.
func (r *Recorder) CreateTimeStamp(name string, value any) error {
	return r.CreateTimeStampAt(r.clock.NowUS(), name, value)
}

// CreateTimeStampAt is CreateTimeStamp with an explicit timestamp.
func (r *Recorder) CreateTimeStampAt(ts uint32, name string, value any) error {
	valueIdx, err := r.internValue(value)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	nameIdx := r.names.Intern(name)
	r.buf.pushAll(WireTraceTimeStamp, ts, nameIdx, valueIdx)
	return nil
}

// Clear resets the buffer. Only valid when scope depth and frame depth are
// both zero.
func (r *Recorder) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.scopeDepth != 0 || r.frameDepth != 0 {
		return errs.ErrUsage
	}
	r.buf.reset()
	r.openRanges = make(map[uint32]struct{})
	r.buf.push(EmptyScopeMarker)
	return nil
}

// internValue JSON-encodes value (nil is encoded as the "no string"
// sentinel rather than the literal "null") and interns the result into the
// general string table. Values that cannot be marshaled to JSON, including
// NaN/±Inf floats, which encoding/json already rejects, yield
// ErrInvalidInput.
func (r *Recorder) internValue(value any) (uint32, error) {
	if value == nil {
		return strtab.NoIndex, nil
	}
	b, err := json.Marshal(value)
	if err != nil {
		return 0, errs.ErrInvalidInput
	}
	return r.names.Intern(string(b)), nil
}

// Snapshot holds the live ring-buffer words (oldest first) plus the
// recorder's open-state needed to synthesize closing events, as returned by
// TakeSnapshot. Used by Dump
// and by timeline reconstruction; both need a stable view of state taken
// under the same lock acquisition as the word copy.
type Snapshot struct {
	Words       []uint32
	ScopeDepth  int
	FrameDepth  int
	CurFrame    uint32
	OpenRanges  []uint32
	SnapshotTS  uint32
}

// TakeSnapshot copies the buffer and open-state under the recorder's lock.
func (r *Recorder) TakeSnapshot() Snapshot {
	r.mu.Lock()
	defer r.mu.Unlock()
	ranges := make([]uint32, 0, len(r.openRanges))
	for id := range r.openRanges {
		ranges = append(ranges, id)
	}
	return Snapshot{
		Words:      r.buf.snapshotWords(),
		ScopeDepth: r.scopeDepth,
		FrameDepth: r.frameDepth,
		CurFrame:   r.curFrame,
		OpenRanges: ranges,
		SnapshotTS: r.clock.NowUS(),
	}
}
