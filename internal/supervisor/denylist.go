package supervisor

import (
	"runtime"
	"strings"

	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

// defaultExcludedImages lists the distribution client, VR runtime and
// anti-cheat bootstrap processes that must never be mistaken for the game.
// It is never mutated; ExclusionSet returns merged copies.
var defaultExcludedImages = procquery.NewImageSet(
	"steam.exe",
	"steamwebhelper.exe",
	"crashhandler.exe",
	"vrcompositor.exe",
	"vrserver.exe",
	"vrmonitor.exe",
	"steamerrorreporter.exe",
	"steamservice.exe",
	"eac_launcherv2.exe",
	"eac_launcher.exe",
	"start_protected_game.exe",
	"battleyelauncher.exe",
	"steamvr_desktop_game_theater.exe",
	"steamtours.exe",
)

// secondaryFilterTokens marks helper executables a client spawns next to
// the game.
var secondaryFilterTokens = []string{"launcher", "setup", "updater", "install"}

// ExclusionSet returns the default exclusion set merged with extra names.
// Build it once at startup and share it; the result is never mutated by
// the supervisor.
func ExclusionSet(extra ...string) procquery.ImageSet {
	return defaultExcludedImages.Union(procquery.NewImageSet(extra...))
}

// IsExecutableName reports whether name looks like a launchable program on
// this platform.
func IsExecutableName(name string) bool {
	return isExecutableName(runtime.GOOS, name)
}

func isExecutableName(goos, name string) bool {
	name = procquery.NormalizeImage(name)
	if name == "" {
		return false
	}
	if goos == "windows" {
		return strings.HasSuffix(name, ".exe")
	}
	return true
}

func isSecondaryHelper(name string) bool {
	for _, token := range secondaryFilterTokens {
		if strings.Contains(name, token) {
			return true
		}
	}
	return false
}
