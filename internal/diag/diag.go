// Package diag is the bundler's diagnostics channel: a place for plugins
// and the core to report warnings and informational events that are not
// themselves build-aborting errors, such as an unrecognized loader kind
// (spec.md §9's open question on loader option parsing). Grounded on the
// teacher's plugins/events.go event-emission idiom.
package diag

import "sync"

// Severity classifies a diagnostic event.
type Severity int

const (
	Info Severity = iota
	Warning
	ErrorSeverity
)

func (s Severity) String() string {
	switch s {
	case Info:
		return "info"
	case Warning:
		return "warning"
	case ErrorSeverity:
		return "error"
	default:
		return "unknown"
	}
}

// Event is one diagnostic emitted by a plugin or the core.
type Event struct {
	Severity  Severity
	Component string
	Message   string
	Fields    map[string]any
}

// Sink collects diagnostic events. It is safe for concurrent use since
// plugins may run on multiple Task goroutines at once.
type Sink struct {
	mu     sync.Mutex
	events []Event
	onPush func(Event)
}

// NewSink returns an empty Sink. onPush, if non-nil, is called
// synchronously for every pushed event, e.g. to forward it to a logger.
func NewSink(onPush func(Event)) *Sink {
	return &Sink{onPush: onPush}
}

// Push records an event.
func (s *Sink) Push(e Event) {
	s.mu.Lock()
	s.events = append(s.events, e)
	s.mu.Unlock()
	if s.onPush != nil {
		s.onPush(e)
	}
}

// Warnf is a convenience for pushing a Warning event.
func (s *Sink) Warnf(component, message string, fields map[string]any) {
	s.Push(Event{Severity: Warning, Component: component, Message: message, Fields: fields})
}

// Events returns a snapshot of every event pushed so far.
func (s *Sink) Events() []Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Event, len(s.events))
	copy(out, s.events)
	return out
}
