//go:build !windows

package procquery

import (
	"slices"

	"github.com/shirou/gopsutil/v3/process"
)

// isAlive treats zombies as dead: they hold a pid but will never run again.
func isAlive(pid int) bool {
	p, err := process.NewProcess(int32(pid))
	if err != nil {
		return false
	}
	status, err := p.Status()
	if err == nil && slices.Contains(status, process.Zombie) {
		return false
	}
	return true
}
