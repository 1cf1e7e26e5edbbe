package supervisor

import (
	"context"
	"errors"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

// ExitCodeTerminated is reported by Poll once a handle has been terminated
// and no real exit status is known.
const ExitCodeTerminated = -1

// HandleKind distinguishes the two Handle implementations.
type HandleKind string

const (
	KindDirect  HandleKind = "direct"
	KindTracked HandleKind = "tracked"
)

// Handle is a supervised game process. The only implementations are
// *DirectHandle and *TrackedHandle.
type Handle interface {
	// PID returns the resolved process ID, if any.
	PID() (int, bool)
	// ImageHint returns the lowercase image name used as a kill fallback.
	ImageHint() string
	// Poll reports the exit code once the process is known to be gone. It
	// never blocks.
	Poll() (code int, exited bool)
	// Wait polls until the process exits or ctx is done.
	Wait(ctx context.Context) (int, error)
	// Terminate force-kills the process tree. It is idempotent and never
	// fails; kill errors are logged.
	Terminate()
	// Kind names the implementation.
	Kind() HandleKind

	sealed()
}

type poller interface {
	Poll() (int, bool)
}

func waitByPolling(ctx context.Context, p poller, interval time.Duration) (int, error) {
	if interval <= 0 {
		interval = DefaultTiming().WaitInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if code, exited := p.Poll(); exited {
			return code, nil
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}

// DirectHandle wraps a process this program started itself.
type DirectHandle struct {
	name         string
	query        procquery.Query
	waitInterval time.Duration
	pid          int
	image        string

	done     chan struct{}
	exitCode int

	terminated atomic.Bool
	termOnce   sync.Once
}

// newDirectHandle takes ownership of a started cmd and reaps it in the
// background.
func newDirectHandle(name string, cmd *exec.Cmd, query procquery.Query, waitInterval time.Duration) *DirectHandle {
	h := &DirectHandle{
		name:         name,
		query:        query,
		waitInterval: waitInterval,
		pid:          cmd.Process.Pid,
		image:        imageOf(cmd.Path),
		done:         make(chan struct{}),
	}
	go func() {
		err := cmd.Wait()
		h.exitCode = exitCodeOf(cmd, err)
		close(h.done)
	}()
	return h
}

func (h *DirectHandle) sealed() {}

// Kind returns KindDirect.
func (h *DirectHandle) Kind() HandleKind { return KindDirect }

// PID returns the child's process ID.
func (h *DirectHandle) PID() (int, bool) { return h.pid, true }

// ImageHint returns the executable's base name.
func (h *DirectHandle) ImageHint() string { return h.image }

// Poll reports the child's exit code once it has been reaped. After
// Terminate it reports exited even if the kill has not landed yet.
func (h *DirectHandle) Poll() (int, bool) {
	select {
	case <-h.done:
		return h.exitCode, true
	default:
	}
	if h.terminated.Load() {
		return ExitCodeTerminated, true
	}
	return 0, false
}

// Wait polls until the child exits.
func (h *DirectHandle) Wait(ctx context.Context) (int, error) {
	return waitByPolling(ctx, h, h.waitInterval)
}

// Terminate kills the child's process tree unless it was already reaped,
// in which case its pid may belong to someone else.
func (h *DirectHandle) Terminate() {
	h.termOnce.Do(func() {
		h.terminated.Store(true)
		select {
		case <-h.done:
			return
		default:
		}
		if err := h.query.KillTree(h.pid); err != nil {
			logging.Component("supervisor").Warn("kill process tree failed", "name", h.name, "pid", h.pid, "error", err)
			return
		}
		logging.Component("supervisor").Info("process tree killed", "name", h.name, "pid", h.pid)
	})
}

// Done is closed once the child has been reaped.
func (h *DirectHandle) Done() <-chan struct{} { return h.done }

func exitCodeOf(cmd *exec.Cmd, err error) int {
	if err == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.ExitCode()
	}
	return ExitCodeTerminated
}

// TrackedHandle follows a process found by detection rather than spawned
// directly. It starts either resolved or unresolved; an unresolved handle
// can be attached to a PID at most once.
type TrackedHandle struct {
	name         string
	query        procquery.Query
	waitInterval time.Duration

	mu         sync.Mutex
	pid        int
	image      string
	alive      bool
	terminated bool
	code       int
}

// NewTrackedHandle returns a handle for pid, or an unresolved handle when
// pid is zero or no longer alive.
func NewTrackedHandle(name string, query procquery.Query, pid int, image string) *TrackedHandle {
	h := &TrackedHandle{
		name:         name,
		query:        query,
		waitInterval: DefaultTiming().WaitInterval,
		image:        procquery.NormalizeImage(image),
		alive:        true,
	}
	if pid > 0 && query.IsAlive(pid) {
		h.pid = pid
	}
	return h
}

func (h *TrackedHandle) sealed() {}

// Kind returns KindTracked.
func (h *TrackedHandle) Kind() HandleKind { return KindTracked }

// PID returns the attached process ID, if resolved.
func (h *TrackedHandle) PID() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.pid, h.pid != 0
}

// Resolved reports whether a PID is attached.
func (h *TrackedHandle) Resolved() bool {
	_, ok := h.PID()
	return ok
}

// ImageHint returns the image name used for the kill safety net.
func (h *TrackedHandle) ImageHint() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.image
}

// Attach resolves an unresolved handle to pid. It returns false and
// changes nothing when the handle is terminated, already resolved, or pid
// is not alive. A non-empty hint replaces the image hint.
func (h *TrackedHandle) Attach(pid int, hint string) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.terminated || !h.alive || h.pid != 0 || pid <= 0 {
		return false
	}
	if !h.query.IsAlive(pid) {
		return false
	}
	h.pid = pid
	if hint = procquery.NormalizeImage(hint); hint != "" {
		h.image = hint
	}
	h.alive = true
	logging.Component("supervisor").Info("tracked process attached", "name", h.name, "pid", pid, "image", h.image)
	return true
}

// Poll reports exited once the attached PID is gone or Terminate ran. An
// unresolved handle reports running.
func (h *TrackedHandle) Poll() (int, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.alive {
		return h.code, true
	}
	if h.pid != 0 && !h.query.IsAlive(h.pid) {
		h.alive = false
		return h.code, true
	}
	return 0, false
}

// Wait polls until the tracked process exits.
func (h *TrackedHandle) Wait(ctx context.Context) (int, error) {
	return waitByPolling(ctx, h, h.waitInterval)
}

// Terminate marks the handle terminated under the lock, then kills the
// attached tree and every process carrying the image hint.
func (h *TrackedHandle) Terminate() {
	h.mu.Lock()
	if h.terminated {
		h.mu.Unlock()
		return
	}
	h.terminated = true
	wasAlive := h.alive
	h.alive = false
	h.code = ExitCodeTerminated
	pid, image := h.pid, h.image
	h.mu.Unlock()

	log := logging.Component("supervisor").With("name", h.name, "pid", pid, "image", image)

	// A pid already observed dead may have been reused.
	if pid != 0 && wasAlive {
		if err := h.query.KillTree(pid); err != nil {
			log.Warn("kill process tree failed", "error", err)
		}
	}
	if image != "" {
		if err := h.query.KillByImageName(image); err != nil {
			log.Warn("kill by image failed", "error", err)
		}
	}
	log.Info("tracked process terminated")
}
