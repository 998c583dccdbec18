package streaming

import (
	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// TraceStreamServer is the server-side interface generated code would
// normally emit for a `service TraceStream { rpc Subscribe(Empty) returns
// (stream BytesValue); }` proto definition.
type TraceStreamServer interface {
	Subscribe(*emptypb.Empty, TraceStream_SubscribeServer) error
}

// TraceStream_SubscribeServer is the generated stream-send interface for
// the Subscribe RPC.
type TraceStream_SubscribeServer interface {
	Send(*wrapperspb.BytesValue) error
	grpc.ServerStream
}

type traceStreamSubscribeServer struct {
	grpc.ServerStream
}

func (x *traceStreamSubscribeServer) Send(m *wrapperspb.BytesValue) error {
	return x.ServerStream.SendMsg(m)
}

func _TraceStream_Subscribe_Handler(srv any, stream grpc.ServerStream) error {
	m := new(emptypb.Empty)
	if err := stream.RecvMsg(m); err != nil {
		return err
	}
	return srv.(TraceStreamServer).Subscribe(m, &traceStreamSubscribeServer{stream})
}

var traceStreamServiceDesc = grpc.ServiceDesc{
	ServiceName: "tracecore.streaming.TraceStream",
	HandlerType: (*TraceStreamServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "Subscribe",
			Handler:       _TraceStream_Subscribe_Handler,
			ServerStreams: true,
		},
	},
	Metadata: "tracecore/streaming/trace_stream.proto",
}

// RegisterTraceStreamServer registers srv with s, mirroring the shape of
// protoc-gen-go-grpc's generated Register<Service>Server function.
func RegisterTraceStreamServer(s grpc.ServiceRegistrar, srv TraceStreamServer) {
	s.RegisterService(&traceStreamServiceDesc, srv)
}
