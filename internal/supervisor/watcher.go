package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
)

// WatchOutcome tells why an AttachWatcher stopped.
type WatchOutcome string

const (
	WatchAttached  WatchOutcome = "attached"
	WatchRejected  WatchOutcome = "rejected"
	WatchExited    WatchOutcome = "exited"
	WatchResolved  WatchOutcome = "already_resolved"
	WatchTimedOut  WatchOutcome = "timed_out"
	WatchCancelled WatchOutcome = "cancelled"
)

// WatchResult is reported once the watcher stops.
type WatchResult struct {
	Outcome  WatchOutcome
	PID      int
	Image    string
	Attempts int
	Elapsed  time.Duration
}

// AttachWatcher keeps running rank detection in the background until an
// unresolved TrackedHandle can be attached, the handle goes away, or the
// overall timeout elapses.
type AttachWatcher struct {
	handle     *TrackedHandle
	detector   *RankDetector
	launchTime time.Time
	imageHint  string
	timing     Timing

	startOnce sync.Once
	done      chan struct{}
	result    WatchResult
}

// NewAttachWatcher prepares a watcher; call Start to run it.
func NewAttachWatcher(handle *TrackedHandle, detector *RankDetector, launchTime time.Time, imageHint string, timing Timing) *AttachWatcher {
	return &AttachWatcher{
		handle:     handle,
		detector:   detector,
		launchTime: launchTime,
		imageHint:  imageHint,
		timing:     timing,
		done:       make(chan struct{}),
	}
}

// Start runs the watcher in its own goroutine. Cancelling ctx stops it.
// onDone, if set, is called with the result before Done is closed. Only
// the first call has an effect.
func (w *AttachWatcher) Start(ctx context.Context, onDone func(WatchResult)) {
	w.startOnce.Do(func() {
		go func() {
			w.result = w.Run(ctx)
			if onDone != nil {
				onDone(w.result)
			}
			close(w.done)
		}()
	})
}

// Done is closed once the watcher has stopped.
func (w *AttachWatcher) Done() <-chan struct{} {
	return w.done
}

// Result returns the outcome once Done is closed.
func (w *AttachWatcher) Result() (WatchResult, bool) {
	select {
	case <-w.done:
		return w.result, true
	default:
		return WatchResult{}, false
	}
}

// Run executes the watch loop on the calling goroutine.
func (w *AttachWatcher) Run(ctx context.Context) WatchResult {
	start := time.Now()
	deadline := start.Add(w.timing.AttachTimeout)
	log := logging.Component("watcher").With("name", w.handle.name)

	result := WatchResult{Outcome: WatchTimedOut}
	finish := func(outcome WatchOutcome) WatchResult {
		result.Outcome = outcome
		result.Elapsed = time.Since(start)
		return result
	}

	for time.Now().Before(deadline) {
		if ctx.Err() != nil {
			log.Info("attach watcher stopped", "attempts", result.Attempts)
			return finish(WatchCancelled)
		}
		if _, exited := w.handle.Poll(); exited {
			log.Info("handle exited before attach", "attempts", result.Attempts)
			return finish(WatchExited)
		}
		if pid, ok := w.handle.PID(); ok {
			result.PID = pid
			return finish(WatchResolved)
		}

		result.Attempts++
		if c, ok := w.detector.Detect(ctx, w.launchTime, w.timing.AttemptTimeout); ok {
			hint := w.imageHint
			if hint == "" {
				hint = c.Image
			}
			result.PID = c.PID
			result.Image = hint
			if w.handle.Attach(c.PID, hint) {
				log.Info("attached to game process", "pid", c.PID, "image", hint, "attempts", result.Attempts)
				return finish(WatchAttached)
			}
			log.Warn("detected process could not be attached", "pid", c.PID, "image", hint)
			return finish(WatchRejected)
		}

		if !pause(ctx, w.timing.RetryInterval, deadline) {
			break
		}
	}

	if ctx.Err() != nil {
		return finish(WatchCancelled)
	}
	log.Warn("could not locate game process, handle stays unresolved",
		"timeout", w.timing.AttachTimeout.String(), "attempts", result.Attempts, "image", w.imageHint)
	return finish(WatchTimedOut)
}
