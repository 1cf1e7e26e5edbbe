//go:build windows

package procquery

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"

	"golang.org/x/sys/windows"
)

// taskkill exits with 128 when nothing matched the filter.
const taskkillNotFound = 128

func killTree(pid int) error {
	return taskkill("/PID", strconv.Itoa(pid), "/T", "/F")
}

func killByImage(name string) error {
	return taskkill("/IM", name, "/T", "/F")
}

func taskkill(args ...string) error {
	out, err := runHidden(context.Background(), "taskkill", args...)
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == taskkillNotFound {
		return nil
	}
	return fmt.Errorf("taskkill %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
}

func runHidden(ctx context.Context, name string, args ...string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.SysProcAttr = &syscall.SysProcAttr{HideWindow: true, CreationFlags: windows.CREATE_NO_WINDOW}
	return cmd.CombinedOutput()
}
