package procquery

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/shirou/gopsutil/v3/process"
)

const commandTimeout = 10 * time.Second

// System is the Query backed by the host operating system.
type System struct {
	rankOnce sync.Once
	canRank  bool
}

// New returns a Query for the local host.
func New() *System {
	return &System{}
}

// IsAlive reports whether pid currently names a running process.
func (s *System) IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return isAlive(pid)
}

// KillTree force-kills pid and its descendants. A pid that is already gone
// is not an error.
func (s *System) KillTree(pid int) error {
	if pid <= 0 {
		return nil
	}
	if err := killTree(pid); err != nil {
		return fmt.Errorf("kill process tree %d: %w", pid, err)
	}
	return nil
}

// KillByImageName force-kills every process named name, trees included.
func (s *System) KillByImageName(name string) error {
	name = NormalizeImage(name)
	if name == "" {
		return nil
	}
	if err := killByImage(name); err != nil {
		return fmt.Errorf("kill image %s: %w", name, err)
	}
	return nil
}

// ListProcesses enumerates the process table with creation time and RSS.
func (s *System) ListProcesses(ctx context.Context) []Info {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		logging.Component("procquery").Warn("process enumeration failed", "error", err)
		return []Info{}
	}

	out := make([]Info, 0, len(procs))
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil || strings.TrimSpace(name) == "" {
			continue
		}
		info := Info{PID: int(p.Pid), Image: NormalizeImage(name)}
		if ms, err := p.CreateTimeWithContext(ctx); err == nil && ms > 0 {
			info.CreatedAt = time.UnixMilli(ms)
		}
		if mem, err := p.MemoryInfoWithContext(ctx); err == nil && mem != nil {
			info.RSS = mem.RSS
		}
		out = append(out, info)
	}
	return out
}

// SnapshotImageNames returns the running image names, or an empty set when
// the platform listing fails.
func (s *System) SnapshotImageNames(ctx context.Context) ImageSet {
	names, err := snapshotImages(ctx)
	if err != nil {
		logging.Component("procquery").Warn("image snapshot failed", "error", err)
		return ImageSet{}
	}
	return NewImageSet(names...)
}

// CanRank probes resource enumeration once and caches the answer.
func (s *System) CanRank() bool {
	s.rankOnce.Do(func() {
		pids, err := process.Pids()
		s.canRank = err == nil && len(pids) > 0
		if !s.canRank {
			logging.Component("procquery").Warn("process enumeration unavailable, rank detection disabled", "error", err)
		}
	})
	return s.canRank
}
