package recorder

import "github.com/kestrelgfx/tracecore/bufbuilder"

// SnapshotRecords returns this recorder's current contents as decoded
// records: first every completed record starting just after the first
// empty-scope marker (or from the very start, if the recorder never
// returned to scope depth zero), then synthesized closing events for
// anything still open, outstanding time ranges in arbitrary order, then
// one scope#leave per remaining open-scope level, then a single
// timing#frameEnd if a frame is still open. All synthesized events share
// one snapshot timestamp so that a reader sees them as simultaneous with
// the moment of the snapshot. Used by both Dump (wire serialization) and
// timeline reconstruction, which need the identical closed-over view.
func (r *Recorder) SnapshotRecords() []Record {
	snap := r.TakeSnapshot()

	start := 0
	if idx := FindFirstMarker(snap.Words); idx >= 0 {
		start = idx + 1
	}
	recs := DecodeFrom(snap.Words, start)

	for _, id := range snap.OpenRanges {
		recs = append(recs, Record{WireID: WireTimeRangeEnd, Timestamp: snap.SnapshotTS, Args: []uint32{id}})
	}
	for i := 0; i < snap.ScopeDepth; i++ {
		recs = append(recs, Record{WireID: WireScopeLeave, Timestamp: snap.SnapshotTS})
	}
	if snap.FrameDepth > 0 {
		recs = append(recs, Record{WireID: WireTimingFrameEnd, Timestamp: snap.SnapshotTS, Args: []uint32{snap.CurFrame}})
	}
	return recs
}

// Dump streams SnapshotRecords into out in wire format (id, timestamp,
// args...).
func (r *Recorder) Dump(out *bufbuilder.Builder) {
	for _, rec := range r.SnapshotRecords() {
		out.AppendU32(rec.WireID)
		out.AppendU32(rec.Timestamp)
		out.AppendU32s(rec.Args...)
	}
}
