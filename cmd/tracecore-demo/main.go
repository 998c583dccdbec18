// Package main implements the tracecore demo CLI: it drives a trace
// manager through a small synthetic multi-thread workload, writes a
// .wtf-trace file, and prints a one-line summary.
//
// Environment Variables:
//
//	TRACECORE_BUFFER_BYTES       - per-recorder ring buffer size in bytes
//	TRACECORE_RESERVE_BUFFER     - preallocate ring buffer storage up front
//	TRACECORE_ENABLE_GPU_TRACING - read into the config; this demo attaches no GPU profiler
//	TRACECORE_STREAM_ADDR        - gRPC address for the live streaming exporter
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"time"

	"github.com/kestrelgfx/tracecore/streaming"
	"github.com/kestrelgfx/tracecore/trace"
	"github.com/kestrelgfx/tracecore/vsyncprofiler"
	"golang.org/x/sys/unix"
	"google.golang.org/grpc"
	"google.golang.org/grpc/reflection"
)

func main() {
	outPath := flag.String("out", "demo.wtf-trace", "output trace file path")
	workers := flag.Int("workers", 4, "number of simulated worker threads")
	iterations := flag.Int("iterations", 50, "scope enter/leave pairs per worker")
	stream := flag.Bool("stream", false, "start the live gRPC streaming exporter")
	flag.Parse()

	cfg := trace.LoadConfig()
	mgr := trace.New(cfg, "tracecore-demo")

	var exporter *streaming.Exporter
	var grpcServer *grpc.Server
	if *stream {
		exporter = streaming.NewExporter()
		mgr.SetExporter(exporter)

		lis, err := net.Listen("tcp", cfg.StreamAddr)
		if err != nil {
			log.Fatalf("listen: %v", err)
		}
		grpcServer = grpc.NewServer()
		streaming.RegisterTraceStreamServer(grpcServer, exporter)
		reflection.Register(grpcServer)
		log.Printf("tracecore-demo: streaming on %s", cfg.StreamAddr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil && err != grpc.ErrServerStopped {
				log.Fatalf("serve: %v", err)
			}
		}()
	}

	runWorkload(mgr, *workers, *iterations)
	runVSyncDemo(mgr)

	if err := mgr.WriteFile(*outPath); err != nil {
		log.Fatalf("write trace file: %v", err)
	}
	log.Printf("tracecore-demo: wrote %s", *outPath)

	if exporter != nil {
		if err := mgr.PublishSnapshot(context.Background()); err != nil {
			log.Printf("publish snapshot: %v", err)
		}
	}

	bench := mgr.RunMetrics()
	fmt.Printf("recorded %d metrics\n", len(bench.Results))

	if grpcServer == nil {
		return
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, unix.SIGTERM)
	<-sig
	grpcServer.GracefulStop()
}

// runWorkload simulates n worker goroutines, each locked to its own OS
// thread (as a real renderer's render/worker threads would be) and each
// owning its own recorder via a per-goroutine binding token.
func runWorkload(mgr *trace.Manager, n, iterations int) {
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			runtime.LockOSThread()
			defer runtime.UnlockOSThread()

			token := &workerID
			rec := mgr.TraceRecorder(token)
			rec.SetName(fmt.Sprintf("Worker-%d", workerID))
			scopeID := rec.ScopeIDFor("DoWork")

			for j := 0; j < iterations; j++ {
				rec.EnterScope(scopeID)
				if err := rec.AnnotateCurrentScope("iteration", j); err != nil {
					log.Printf("annotate: %v", err)
				}
				rec.LeaveScope()
			}
		}(i)
	}
	wg.Wait()
}

// runVSyncDemo feeds a handful of synthetic vsync events into the VSync
// named recorder.
func runVSyncDemo(mgr *trace.Manager) {
	rec := mgr.NamedTraceRecorder(trace.VSync)
	p := vsyncprofiler.New(rec)
	base := uint32(time.Now().UnixMicro() % (1 << 30))
	for i := uint32(0); i < 10; i++ {
		p.Record(base+i*16667, i)
	}
}
