package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
	"github.com/google/uuid"
)

// Status is a point-in-time view of the manager.
type Status struct {
	Running     bool       `json:"running"`
	SessionID   string     `json:"session_id,omitempty"`
	GameID      string     `json:"game_id,omitempty"`
	GameName    string     `json:"game_name,omitempty"`
	Mode        LaunchMode `json:"mode,omitempty"`
	Kind        HandleKind `json:"kind,omitempty"`
	PID         int        `json:"pid,omitempty"`
	Resolved    bool       `json:"resolved"`
	Image       string     `json:"image,omitempty"`
	Watching    bool       `json:"watching"`
	Auxiliaries int        `json:"auxiliaries"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
}

// Option configures a Manager.
type Option func(*Manager)

// WithEventSink adds an observer for supervisor events.
func WithEventSink(sink EventSink) Option {
	return func(m *Manager) {
		if sink != nil {
			m.sinks = append(m.sinks, sink)
		}
	}
}

// WithClientLauncher replaces the default client launcher.
func WithClientLauncher(l *ClientLauncher) Option {
	return func(m *Manager) {
		if l != nil {
			m.client = l
		}
	}
}

// WithTiming sets the wait interval for directly started games and the
// defaults for the built-in client launcher.
func WithTiming(t Timing) Option {
	return func(m *Manager) {
		m.timing = t
	}
}

// Manager owns the current game and its auxiliary processes.
type Manager struct {
	query  procquery.Query
	timing Timing
	exe    *ExeLauncher
	client *ClientLauncher
	sinks  MultiSink

	base   context.Context
	cancel context.CancelFunc

	mu          sync.Mutex
	current     Handle
	currentCfg  *LaunchConfig
	sessionID   string
	startedAt   time.Time
	auxiliaries []Handle
	watcher     *AttachWatcher
	stopMonitor context.CancelFunc
}

// NewManager returns a manager using query for all process operations.
func NewManager(query procquery.Query, opts ...Option) *Manager {
	m := &Manager{query: query, timing: DefaultTiming()}
	for _, opt := range opts {
		opt(m)
	}
	m.exe = NewExeLauncher(query, m.timing.WaitInterval)
	if m.client == nil {
		m.client = NewClientLauncher(query, DefaultClientProfile(), ExclusionSet(), m.timing)
	}
	m.base, m.cancel = context.WithCancel(context.Background())
	return m
}

// Launch starts the game described by cfg, makes it the current game and
// starts its auxiliaries. A previous current game is not killed; callers
// that switch games call KillCurrent first.
func (m *Manager) Launch(ctx context.Context, cfg *LaunchConfig) (Handle, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := m.base.Err(); err != nil {
		return nil, fmt.Errorf("%w: manager closed", ErrLaunchFailed)
	}
	if cfg.Delay > 0 {
		timer := time.NewTimer(cfg.Delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	sessionID := uuid.NewString()
	log := logging.Component("manager").With("game_id", cfg.GameID, "session_id", sessionID)

	var (
		handle  Handle
		watcher *AttachWatcher
	)
	switch cfg.Mode {
	case ModeClient:
		launch, err := m.client.Launch(ctx, cfg)
		if err != nil {
			m.publishFailure(sessionID, cfg, err)
			return nil, err
		}
		handle, watcher = launch.Handle, launch.Watcher
	default:
		h, err := m.exe.Launch(ctx, cfg)
		if err != nil {
			m.publishFailure(sessionID, cfg, err)
			return nil, err
		}
		handle = h
	}

	monitorCtx, stop := context.WithCancel(m.base)

	m.mu.Lock()
	if m.stopMonitor != nil {
		m.stopMonitor()
	}
	m.current = handle
	m.currentCfg = cfg
	m.sessionID = sessionID
	m.startedAt = time.Now().UTC()
	m.watcher = watcher
	m.stopMonitor = stop
	m.mu.Unlock()

	evt := newEvent(EventLaunched, sessionID, cfg)
	evt.PID, _ = handle.PID()
	evt.Image = handle.ImageHint()
	m.sinks.Publish(evt)
	log.Info("game launched", "mode", cfg.Mode, "pid", evt.PID, "image", evt.Image)

	if watcher != nil {
		watcher.Start(m.base, func(res WatchResult) {
			m.onWatchDone(sessionID, cfg, res)
		})
	}

	aux := m.launchAuxiliaries(sessionID, cfg)
	m.mu.Lock()
	if m.sessionID == sessionID {
		m.auxiliaries = aux
	} else {
		m.auxiliaries = append(m.auxiliaries, aux...)
	}
	m.mu.Unlock()

	go m.monitor(monitorCtx, sessionID, cfg, handle)
	return handle, nil
}

// launchAuxiliaries starts every configured helper, skipping missing or
// failing ones.
func (m *Manager) launchAuxiliaries(sessionID string, cfg *LaunchConfig) []Handle {
	var started []Handle
	for _, path := range cfg.Auxiliaries {
		path = strings.TrimSpace(path)
		if path == "" {
			continue
		}
		log := logging.Component("manager").With("game_id", cfg.GameID, "path", path)

		if _, err := os.Stat(path); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				err = fmt.Errorf("%w: %s", ErrNotFound, path)
			}
			log.Warn("auxiliary skipped", "error", err)
			m.publishAux(EventAuxFailed, sessionID, cfg, path, 0, err)
			continue
		}
		h, err := m.exe.start(imageOf(path), path, nil, "")
		if err != nil {
			log.Warn("auxiliary failed to start", "error", err)
			m.publishAux(EventAuxFailed, sessionID, cfg, path, 0, err)
			continue
		}
		log.Info("auxiliary started", "pid", h.pid)
		m.publishAux(EventAuxStarted, sessionID, cfg, path, h.pid, nil)
		started = append(started, h)
	}
	return started
}

// IsRunning reports whether the current game is still alive. An unresolved
// tracked game counts as running.
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.current == nil {
		return false
	}
	_, exited := m.current.Poll()
	return !exited
}

// Current returns the current game handle, or nil.
func (m *Manager) Current() Handle {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Status snapshots the manager state.
func (m *Manager) Status() Status {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := Status{Auxiliaries: len(m.auxiliaries)}
	if m.current == nil {
		return st
	}
	_, exited := m.current.Poll()
	st.Running = !exited
	st.SessionID = m.sessionID
	st.Kind = m.current.Kind()
	st.PID, st.Resolved = m.current.PID()
	st.Image = m.current.ImageHint()
	started := m.startedAt
	st.StartedAt = &started
	if m.currentCfg != nil {
		st.GameID = m.currentCfg.GameID
		st.GameName = m.currentCfg.Name
		st.Mode = m.currentCfg.Mode
	}
	if m.watcher != nil {
		_, finished := m.watcher.Result()
		st.Watching = !finished
	}
	return st
}

// KillCurrent terminates the current game, if any, and every auxiliary,
// then forgets them. It is safe to call with nothing running. A game that
// already exited on its own is cleared without a killed event.
func (m *Manager) KillCurrent() {
	m.mu.Lock()
	current, cfg, sessionID := m.current, m.currentCfg, m.sessionID
	aux := m.auxiliaries
	m.current = nil
	m.currentCfg = nil
	m.sessionID = ""
	m.auxiliaries = nil
	m.watcher = nil
	if m.stopMonitor != nil {
		m.stopMonitor()
		m.stopMonitor = nil
	}
	m.mu.Unlock()

	if current != nil {
		_, exited := current.Poll()
		current.Terminate()
		if !exited {
			m.publishKilled(sessionID, cfg, current)
		}
	}
	for _, h := range aux {
		h.Terminate()
	}
}

func (m *Manager) publishKilled(sessionID string, cfg *LaunchConfig, current Handle) {
	evt := newEvent(EventKilled, sessionID, cfg)
	evt.PID, _ = current.PID()
	evt.Image = current.ImageHint()
	m.sinks.Publish(evt)
	logging.Component("manager").Info("game killed", "session_id", sessionID, "pid", evt.PID, "image", evt.Image)
}

// Close kills everything and stops background goroutines. The manager
// refuses new launches afterwards.
func (m *Manager) Close() {
	m.KillCurrent()
	m.cancel()
}

func (m *Manager) monitor(ctx context.Context, sessionID string, cfg *LaunchConfig, h Handle) {
	code, err := h.Wait(ctx)
	if err != nil {
		return
	}

	m.mu.Lock()
	still := m.current == h && m.sessionID == sessionID
	m.mu.Unlock()
	if !still {
		return
	}

	evt := newEvent(EventExited, sessionID, cfg)
	evt.PID, _ = h.PID()
	evt.Image = h.ImageHint()
	evt.ExitCode = &code
	m.sinks.Publish(evt)
	logging.Component("manager").Info("game exited", "session_id", sessionID, "pid", evt.PID, "exit_code", code)
}

func (m *Manager) onWatchDone(sessionID string, cfg *LaunchConfig, res WatchResult) {
	var typ EventType
	switch res.Outcome {
	case WatchAttached:
		typ = EventAttached
	case WatchTimedOut:
		typ = EventAttachTimeout
	default:
		return
	}
	evt := newEvent(typ, sessionID, cfg)
	evt.PID = res.PID
	evt.Image = res.Image
	evt.Message = fmt.Sprintf("%d attempts in %s", res.Attempts, res.Elapsed.Round(time.Millisecond))
	m.sinks.Publish(evt)
}

func (m *Manager) publishFailure(sessionID string, cfg *LaunchConfig, err error) {
	evt := newEvent(EventLaunchFailed, sessionID, cfg)
	evt.Message = err.Error()
	m.sinks.Publish(evt)
	logging.Component("manager").Warn("game launch failed", "game_id", cfg.GameID, "error", err)
}

func (m *Manager) publishAux(typ EventType, sessionID string, cfg *LaunchConfig, path string, pid int, err error) {
	evt := newEvent(typ, sessionID, cfg)
	evt.PID = pid
	evt.Image = imageOf(path)
	if err != nil {
		evt.Message = err.Error()
	}
	m.sinks.Publish(evt)
}
