// Package streaming implements the optional live trace exporter: a gRPC
// service that broadcasts each snapshot taken from the trace manager to
// every subscribed client, mirroring the teacher's ring-buffer-to-clients
// broadcast pattern in cmd/tracker/main.go.
package streaming

import (
	"encoding/binary"
	"fmt"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TraceSegment is one published unit: a monotonically increasing sequence
// number, the producing wall-clock instant, and a complete WTF chunk
// stream. It travels over the wire inside a wrapperspb.BytesValue, a
// well-known, already-generated protobuf message, rather than a
// hand-authored proto type, so the wire contract needs no protoc step.
type TraceSegment struct {
	Sequence           uint64
	ProducedAtUnixNano int64
	WTFChunk           []byte
}

const segmentHeaderLen = 8 + 8

// Marshal packs the segment into a wrapperspb.BytesValue: an 8-byte
// sequence, an 8-byte produced-at timestamp, both little-endian, followed
// by the raw WTF chunk bytes.
func (s TraceSegment) Marshal() *wrapperspb.BytesValue {
	buf := make([]byte, segmentHeaderLen+len(s.WTFChunk))
	binary.LittleEndian.PutUint64(buf[0:8], s.Sequence)
	binary.LittleEndian.PutUint64(buf[8:16], uint64(s.ProducedAtUnixNano))
	copy(buf[segmentHeaderLen:], s.WTFChunk)
	return &wrapperspb.BytesValue{Value: buf}
}

// UnmarshalTraceSegment reverses Marshal.
func UnmarshalTraceSegment(b *wrapperspb.BytesValue) (TraceSegment, error) {
	buf := b.GetValue()
	if len(buf) < segmentHeaderLen {
		return TraceSegment{}, fmt.Errorf("streaming: segment too short: %d bytes", len(buf))
	}
	return TraceSegment{
		Sequence:           binary.LittleEndian.Uint64(buf[0:8]),
		ProducedAtUnixNano: int64(binary.LittleEndian.Uint64(buf[8:16])),
		WTFChunk:           buf[segmentHeaderLen:],
	}, nil
}
