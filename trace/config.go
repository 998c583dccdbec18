package trace

import (
	"os"
	"strconv"
)

// Config holds the process-wide tunables read from the environment.
type Config struct {
	BufferBytes      int
	ReserveBuffer    bool
	EnableGPUTracing bool
	StreamAddr       string
}

// getenvDefault returns the value of environment variable k, or v if not
// set or empty.
func getenvDefault(k, v string) string {
	if val := os.Getenv(k); val != "" {
		return val
	}
	return v
}

func getenvBoolDefault(k string, v bool) bool {
	val := os.Getenv(k)
	if val == "" {
		return v
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return v
	}
	return b
}

func getenvIntDefault(k string, v int) int {
	val := os.Getenv(k)
	if val == "" {
		return v
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return v
	}
	return n
}

// LoadConfig populates a Config from the environment, falling back to the
// documented defaults for anything unset.
func LoadConfig() Config {
	return Config{
		BufferBytes:      getenvIntDefault("TRACECORE_BUFFER_BYTES", 20*1024*1024),
		ReserveBuffer:    getenvBoolDefault("TRACECORE_RESERVE_BUFFER", false),
		EnableGPUTracing: getenvBoolDefault("TRACECORE_ENABLE_GPU_TRACING", false),
		StreamAddr:       getenvDefault("TRACECORE_STREAM_ADDR", "127.0.0.1:50051"),
	}
}
