// Package vsyncprofiler feeds vertical-sync timestamps into a named
// recorder as point-in-time events.
package vsyncprofiler

import (
	"fmt"
	"log"

	"github.com/kestrelgfx/tracecore/recorder"
)

// Profiler records vsync events, rejecting any timestamp that runs
// backwards relative to the last one it accepted.
type Profiler struct {
	rec    *recorder.Recorder
	lastTS uint32
	warned bool
}

// New returns a Profiler that records onto rec.
func New(rec *recorder.Recorder) *Profiler {
	return &Profiler{rec: rec}
}

// Record appends a "VSync<N>" timestamp event for vsyncNumber at ts, unless
// ts runs backwards relative to the last accepted timestamp.
func (p *Profiler) Record(ts uint32, vsyncNumber uint32) {
	if ts < p.lastTS {
		if !p.warned {
			log.Printf("tracecore: vsyncprofiler: non-monotonic timestamp %d < %d, dropping", ts, p.lastTS)
			p.warned = true
		}
		return
	}
	if err := p.rec.CreateTimeStampAt(ts, fmt.Sprintf("VSync%d", vsyncNumber), nil); err != nil {
		log.Printf("tracecore: vsyncprofiler: CreateTimeStampAt: %v", err)
	}
	p.lastTS = ts
}
