package trace

import "github.com/kestrelgfx/tracecore/timeline"

// Metric inspects a reconstructed timeline and contributes named
// measurements to a Benchmark. The benchmark/statistics layer itself is an
// external collaborator (see DESIGN.md); this is only the hook the core
// exposes for it to attach to.
type Metric interface {
	Name() string
	Measure(tl *timeline.Timeline) map[string]float64
}

// Benchmark collects the measurements produced by one RunMetrics call, keyed
// by metric name.
type Benchmark struct {
	Results map[string]map[string]float64
}

func newBenchmark() Benchmark {
	return Benchmark{Results: make(map[string]map[string]float64)}
}
