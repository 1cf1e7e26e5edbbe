//go:build !windows

package procquery

import (
	"errors"
	"os"
	"syscall"

	"github.com/shirou/gopsutil/v3/process"
	"golang.org/x/sys/unix"
)

// killTree signals the process group when pid leads one, then walks the
// descendants so children that changed group are reached too.
func killTree(pid int) error {
	root, err := process.NewProcess(int32(pid))
	if err != nil {
		if isGone(err) {
			return nil
		}
		return err
	}

	tree := descendants(root.Pid)

	if pgid, err := unix.Getpgid(pid); err == nil && pgid == pid && pid != os.Getpid() {
		if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !isGone(err) {
			return err
		}
	}

	var errs []error
	for _, p := range tree {
		if err := p.Kill(); err != nil && !isGone(err) {
			errs = append(errs, err)
		}
	}
	if err := root.Kill(); err != nil && !isGone(err) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func killByImage(name string) error {
	procs, err := process.Processes()
	if err != nil {
		return err
	}
	self := int32(os.Getpid())
	var errs []error
	for _, p := range procs {
		if p.Pid == self {
			continue
		}
		image, err := p.Name()
		if err != nil || NormalizeImage(image) != name {
			continue
		}
		if err := killTree(int(p.Pid)); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// descendants returns every process below root, deepest first, built from a
// single parent map so no process is visited twice.
func descendants(root int32) []*process.Process {
	procs, err := process.Processes()
	if err != nil {
		return nil
	}
	children := make(map[int32][]*process.Process)
	for _, p := range procs {
		ppid, err := p.Ppid()
		if err != nil || p.Pid == ppid {
			continue
		}
		children[ppid] = append(children[ppid], p)
	}

	var order []*process.Process
	seen := map[int32]bool{root: true}
	queue := []int32{root}
	for len(queue) > 0 {
		pid := queue[0]
		queue = queue[1:]
		for _, child := range children[pid] {
			if seen[child.Pid] {
				continue
			}
			seen[child.Pid] = true
			order = append(order, child)
			queue = append(queue, child.Pid)
		}
	}

	for i, j := 0, len(order)-1; i < j; i, j = i+1, j-1 {
		order[i], order[j] = order[j], order[i]
	}
	return order
}

func isGone(err error) bool {
	return errors.Is(err, os.ErrProcessDone) ||
		errors.Is(err, syscall.ESRCH) ||
		errors.Is(err, process.ErrorProcessNotRunning)
}
