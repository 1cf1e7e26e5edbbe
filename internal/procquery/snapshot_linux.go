//go:build linux

package procquery

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

func snapshotImages(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		if !entry.IsDir() {
			continue
		}
		pid, err := strconv.Atoi(entry.Name())
		if err != nil {
			continue
		}
		if image := readImage(pid); image != "" {
			names = append(names, image)
		}
	}
	return names, nil
}

// commLen is the kernel's TASK_COMM_LEN minus the trailing NUL.
const commLen = 15

// readImage returns the process name the way gopsutil's Name does, so
// snapshot names match ListProcesses and killByImage. comm is cut to 15
// bytes; longer names come from the basename of argv[0].
func readImage(pid int) string {
	dir := filepath.Join("/proc", strconv.Itoa(pid))
	data, err := os.ReadFile(filepath.Join(dir, "comm"))
	if err != nil {
		return ""
	}
	comm := strings.TrimSpace(string(data))
	if len(comm) < commLen {
		return comm
	}
	cmdline, err := os.ReadFile(filepath.Join(dir, "cmdline"))
	if err != nil {
		return comm
	}
	argv0, _, _ := strings.Cut(string(cmdline), "\x00")
	if full := filepath.Base(argv0); strings.HasPrefix(full, comm) {
		return full
	}
	return comm
}
