package supervisor

import (
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
)

// EventType names a supervisor state transition.
type EventType string

const (
	EventLaunched      EventType = "launched"
	EventLaunchFailed  EventType = "launch_failed"
	EventAttached      EventType = "attached"
	EventAttachTimeout EventType = "attach_timeout"
	EventExited        EventType = "exited"
	EventKilled        EventType = "killed"
	EventAuxStarted    EventType = "auxiliary_started"
	EventAuxFailed     EventType = "auxiliary_failed"
)

// Event is published to every EventSink registered on a Manager.
type Event struct {
	Type      EventType  `json:"type"`
	SessionID string     `json:"session_id"`
	GameID    string     `json:"game_id"`
	GameName  string     `json:"game_name"`
	Mode      LaunchMode `json:"mode,omitempty"`
	PID       int        `json:"pid,omitempty"`
	Image     string     `json:"image,omitempty"`
	ExitCode  *int       `json:"exit_code,omitempty"`
	Message   string     `json:"message,omitempty"`
	Time      time.Time  `json:"time"`
}

// EventSink receives supervisor events. Publish must not block for long;
// it is called from launch, kill and monitor goroutines.
type EventSink interface {
	Publish(evt Event)
}

// EventSinkFunc adapts a function to EventSink.
type EventSinkFunc func(evt Event)

// Publish calls f(evt).
func (f EventSinkFunc) Publish(evt Event) {
	f(evt)
}

// MultiSink fans an event out to several sinks in order.
type MultiSink []EventSink

// Publish delivers evt to every sink, recovering from a panicking sink so
// one bad observer cannot break supervision.
func (m MultiSink) Publish(evt Event) {
	for _, sink := range m {
		if sink == nil {
			continue
		}
		func() {
			defer func() {
				if r := recover(); r != nil {
					logging.Component("supervisor").Error("event sink panicked", "event", evt.Type, "panic", r)
				}
			}()
			sink.Publish(evt)
		}()
	}
}

func newEvent(typ EventType, sessionID string, cfg *LaunchConfig) Event {
	evt := Event{Type: typ, SessionID: sessionID, Time: time.Now().UTC()}
	if cfg != nil {
		evt.GameID = cfg.GameID
		evt.GameName = cfg.Name
		evt.Mode = cfg.Mode
	}
	return evt
}
