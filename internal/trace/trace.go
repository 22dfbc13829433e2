// Package trace implements the TRACE environment variable contract from
// spec.md §6: any value enables profiler-compatible tracing output, and
// the enable is idempotent (first call wins). Folded into one small
// package rather than split further, since a Go bundler's ambient
// tracing concern is thin enough not to warrant its own subsystem the
// way original_source/crates/rspack/src/utils/log.rs splits it out.
package trace

import (
	"encoding/json"
	"io"
	"os"
	"sync"
	"sync/atomic"
	"time"
)

var (
	once    sync.Once
	enabled atomic.Bool
	mu      sync.Mutex
	out     io.Writer
)

// event is a Chrome trace-event-format entry (one JSON object per line,
// the "catapult" JSON Lines variant most profilers can import directly).
type event struct {
	Name  string         `json:"name"`
	Phase string         `json:"ph"`
	TS    int64          `json:"ts"` // microseconds
	PID   int            `json:"pid"`
	TID   int64          `json:"tid"`
	Args  map[string]any `json:"args,omitempty"`
}

// EnableFromEnv enables tracing to w if the TRACE environment variable is
// set to any non-empty value. Safe to call more than once; only the
// first call takes effect, matching spec.md's "first call wins".
func EnableFromEnv(w io.Writer) {
	once.Do(func() {
		if os.Getenv("TRACE") == "" {
			return
		}
		mu.Lock()
		out = w
		mu.Unlock()
		enabled.Store(true)
	})
}

// Enabled reports whether tracing is currently active.
func Enabled() bool { return enabled.Load() }

// Emit writes one trace event if tracing is enabled; otherwise it is a
// no-op with negligible cost (a single atomic load).
func Emit(name, phase string, tid int64, args map[string]any) {
	if !enabled.Load() {
		return
	}
	mu.Lock()
	w := out
	mu.Unlock()
	if w == nil {
		return
	}
	e := event{
		Name:  name,
		Phase: phase,
		TS:    time.Now().UnixMicro(),
		PID:   os.Getpid(),
		TID:   tid,
		Args:  args,
	}
	b, err := json.Marshal(e)
	if err != nil {
		return
	}
	mu.Lock()
	defer mu.Unlock()
	w.Write(b)
	w.Write([]byte("\n"))
}

// Begin/End are convenience wrappers for a suspension-point span.
func Begin(name string, tid int64) { Emit(name, "B", tid, nil) }
func End(name string, tid int64)   { Emit(name, "E", tid, nil) }
