package streaming

import (
	"sync"

	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// clientBufferSize bounds each subscriber's channel. A slow or stalled
// client falls behind and loses segments rather than blocking publication
// to everyone else -- the same constant and rationale the teacher documents
// for its own StreamEvents client channels.
const clientBufferSize = 100

// Exporter broadcasts published TraceSegments to every subscribed gRPC
// client, grounded directly on the teacher's server.clients /
// broadcastEvents / StreamEvents pattern.
type Exporter struct {
	mu      sync.Mutex
	clients map[chan *wrapperspb.BytesValue]struct{}
	seq     uint64
}

// NewExporter returns an empty Exporter ready to register with a
// *grpc.Server via RegisterTraceStreamServer.
func NewExporter() *Exporter {
	return &Exporter{clients: make(map[chan *wrapperspb.BytesValue]struct{})}
}

// Subscribe implements TraceStreamServer: it registers a buffered channel
// for this client and forwards every segment published after registration
// until the stream's context is canceled.
func (e *Exporter) Subscribe(_ *emptypb.Empty, stream TraceStream_SubscribeServer) error {
	ch := make(chan *wrapperspb.BytesValue, clientBufferSize)
	e.mu.Lock()
	e.clients[ch] = struct{}{}
	e.mu.Unlock()
	defer func() {
		e.mu.Lock()
		delete(e.clients, ch)
		e.mu.Unlock()
	}()

	for {
		select {
		case msg := <-ch:
			if err := stream.Send(msg); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return stream.Context().Err()
		}
	}
}

// Publish assigns the next sequence number to segment and broadcasts it to
// every currently subscribed client, dropping it for any client whose
// channel is full rather than blocking the rest.
func (e *Exporter) Publish(segment TraceSegment) {
	e.mu.Lock()
	e.seq++
	segment.Sequence = e.seq
	msg := segment.Marshal()
	for ch := range e.clients {
		select {
		case ch <- msg:
		default:
		}
	}
	e.mu.Unlock()
}

// PublishBytes wraps raw WTF chunk bytes produced at producedAtUnixNano
// into a TraceSegment and publishes it.
func (e *Exporter) PublishBytes(wtfChunk []byte, producedAtUnixNano int64) {
	e.Publish(TraceSegment{WTFChunk: wtfChunk, ProducedAtUnixNano: producedAtUnixNano})
}
