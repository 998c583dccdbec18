package streaming

import (
	"bytes"
	"testing"

	"google.golang.org/protobuf/types/known/wrapperspb"
)

func TestMarshalUnmarshalRoundTrips(t *testing.T) {
	seg := TraceSegment{Sequence: 7, ProducedAtUnixNano: 123456789, WTFChunk: []byte("hello")}
	got, err := UnmarshalTraceSegment(seg.Marshal())
	if err != nil {
		t.Fatalf("UnmarshalTraceSegment: %v", err)
	}
	if got.Sequence != seg.Sequence || got.ProducedAtUnixNano != seg.ProducedAtUnixNano {
		t.Fatalf("round-trip mismatch: got %+v, want %+v", got, seg)
	}
	if !bytes.Equal(got.WTFChunk, seg.WTFChunk) {
		t.Fatalf("WTFChunk mismatch: got %q, want %q", got.WTFChunk, seg.WTFChunk)
	}
}

func TestUnmarshalRejectsShortBuffer(t *testing.T) {
	if _, err := UnmarshalTraceSegment(nil); err == nil {
		t.Fatalf("expected an error unmarshaling a nil/short buffer")
	}
}

func TestPublishAssignsSequenceAndBroadcasts(t *testing.T) {
	e := NewExporter()

	ch := make(chan *wrapperspb.BytesValue, clientBufferSize)
	e.mu.Lock()
	e.clients[ch] = struct{}{}
	e.mu.Unlock()

	e.Publish(TraceSegment{WTFChunk: []byte("x")})
	e.Publish(TraceSegment{WTFChunk: []byte("y")})

	first, err := UnmarshalTraceSegment(<-ch)
	if err != nil {
		t.Fatalf("unmarshal first: %v", err)
	}
	if first.Sequence != 1 {
		t.Fatalf("first sequence = %d, want 1", first.Sequence)
	}
	second, err := UnmarshalTraceSegment(<-ch)
	if err != nil {
		t.Fatalf("unmarshal second: %v", err)
	}
	if second.Sequence != 2 {
		t.Fatalf("second sequence = %d, want 2", second.Sequence)
	}
}

// S7: two subscribers registered before two Publish calls both receive both
// segments in order; a third subscriber registered afterward receives
// neither, since there is no replay buffer.
func TestPublishHasNoReplayForLateSubscribers(t *testing.T) {
	e := NewExporter()

	chA := make(chan *wrapperspb.BytesValue, clientBufferSize)
	chB := make(chan *wrapperspb.BytesValue, clientBufferSize)
	e.mu.Lock()
	e.clients[chA] = struct{}{}
	e.clients[chB] = struct{}{}
	e.mu.Unlock()

	e.Publish(TraceSegment{WTFChunk: []byte("first")})
	e.Publish(TraceSegment{WTFChunk: []byte("second")})

	for _, ch := range []chan *wrapperspb.BytesValue{chA, chB} {
		first, err := UnmarshalTraceSegment(<-ch)
		if err != nil || first.Sequence != 1 {
			t.Fatalf("expected sequence 1 first, got %+v, err %v", first, err)
		}
		second, err := UnmarshalTraceSegment(<-ch)
		if err != nil || second.Sequence != 2 {
			t.Fatalf("expected sequence 2 second, got %+v, err %v", second, err)
		}
	}

	chC := make(chan *wrapperspb.BytesValue, clientBufferSize)
	e.mu.Lock()
	e.clients[chC] = struct{}{}
	e.mu.Unlock()

	select {
	case msg := <-chC:
		t.Fatalf("late subscriber unexpectedly received a replayed segment: %+v", msg)
	default:
	}
}

func TestPublishDropsForFullClientChannel(t *testing.T) {
	e := NewExporter()
	ch := make(chan *wrapperspb.BytesValue, 1)
	e.mu.Lock()
	e.clients[ch] = struct{}{}
	e.mu.Unlock()

	for i := 0; i < clientBufferSize+5; i++ {
		e.Publish(TraceSegment{WTFChunk: []byte("x")})
	}
	// Only the first publish should have landed; the rest were dropped
	// because the buffered channel of size 1 stayed full.
	if len(ch) != 1 {
		t.Fatalf("expected exactly 1 buffered message, got %d", len(ch))
	}
}
