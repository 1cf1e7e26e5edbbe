//go:build !windows

package supervisor

import (
	"os/exec"
	"runtime"
	"syscall"
)

// configureDetached puts the child in its own process group so a tree kill
// can signal the whole group.
func configureDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
}

func defaultClientExecutables() []string {
	if runtime.GOOS == "darwin" {
		return []string{"/Applications/Steam.app/Contents/MacOS/steam_osx"}
	}
	return []string{"/usr/bin/steam", "/usr/games/steam"}
}

func openURICommand(uri string) *exec.Cmd {
	if runtime.GOOS == "darwin" {
		return exec.Command("open", uri)
	}
	return exec.Command("xdg-open", uri)
}
