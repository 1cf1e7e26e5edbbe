package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

// ExeLauncher starts a game executable directly.
type ExeLauncher struct {
	query        procquery.Query
	waitInterval time.Duration
}

// NewExeLauncher returns a launcher whose handles poll at waitInterval.
func NewExeLauncher(query procquery.Query, waitInterval time.Duration) *ExeLauncher {
	return &ExeLauncher{query: query, waitInterval: waitInterval}
}

// Launch starts cfg.Executable with whitespace-split cfg.Args in
// cfg.WorkingDir, or the executable's directory when that is empty. The
// child is not bound to ctx and outlives the caller.
func (l *ExeLauncher) Launch(ctx context.Context, cfg *LaunchConfig) (*DirectHandle, error) {
	exe := strings.TrimSpace(cfg.Executable)
	if exe == "" {
		return nil, fmt.Errorf("%w: game %q has no executable path", ErrMissingField, cfg.label())
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(exe); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, exe)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", ErrLaunchFailed, exe, err)
	}

	workDir := strings.TrimSpace(cfg.WorkingDir)
	if workDir == "" {
		workDir = filepath.Dir(exe)
	}

	h, err := l.start(cfg.label(), exe, SplitArgs(cfg.Args), workDir)
	if err != nil {
		return nil, err
	}
	logging.Component("launcher").Info("game started", "game_id", cfg.GameID, "pid", h.pid, "exe", exe, "dir", workDir)
	return h, nil
}

// start spawns path detached from any console. An empty dir inherits the
// current working directory.
func (l *ExeLauncher) start(name, path string, args []string, dir string) (*DirectHandle, error) {
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	configureDetached(cmd)
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %w", ErrLaunchFailed, path, err)
	}
	return newDirectHandle(name, cmd, l.query, l.waitInterval), nil
}

func imageOf(path string) string {
	return procquery.NormalizeImage(filepath.Base(path))
}
