package supervisor

import (
	"context"
	"errors"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

func TestExeLauncherRequiresExecutable(t *testing.T) {
	l := NewExeLauncher(newFakeQuery(), time.Millisecond)
	_, err := l.Launch(context.Background(), &LaunchConfig{Name: "Nothing", Mode: ModeExe})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
}

func TestExeLauncherMissingExecutable(t *testing.T) {
	l := NewExeLauncher(newFakeQuery(), time.Millisecond)
	missing := filepath.Join(t.TempDir(), "nope", "game.exe")
	_, err := l.Launch(context.Background(), &LaunchConfig{Name: "Ghost", Mode: ModeExe, Executable: missing})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if !strings.Contains(err.Error(), missing) {
		t.Fatalf("expected error to name the path, got %v", err)
	}
}

func TestSplitArgsWhitespaceOnly(t *testing.T) {
	got := SplitArgs("  -vr  -fullscreen\t-name \"Player One\" ")
	want := []string{"-vr", "-fullscreen", "-name", "\"Player", "One\""}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if len(SplitArgs("")) != 0 {
		t.Fatalf("expected no args for empty string")
	}
}

type clientHarness struct {
	query    *fakeQuery
	launcher *ClientLauncher
	existing map[string]bool
	spawned  [][]string
	uris     []string
	spawnErr error
	uriErr   error
	t0       time.Time
}

func newClientHarness(paths ...string) *clientHarness {
	h := &clientHarness{
		query:    newFakeQuery(),
		existing: map[string]bool{},
		t0:       time.Now(),
	}
	profile := DefaultClientProfile()
	profile.Executables = paths
	l := NewClientLauncher(h.query, profile, ExclusionSet(), fastTiming())
	l.rank.IsExecutable = windowsStyle
	l.diff.IsExecutable = windowsStyle
	l.fileExists = func(path string) bool { return h.existing[path] }
	l.spawn = func(path string, args []string) error {
		h.spawned = append(h.spawned, append([]string{path}, args...))
		return h.spawnErr
	}
	l.openURI = func(uri string) error {
		h.uris = append(h.uris, uri)
		return h.uriErr
	}
	l.now = func() time.Time { return h.t0 }
	h.launcher = l
	return h
}

func TestClientLauncherRequiresAppID(t *testing.T) {
	h := newClientHarness()
	_, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "x", Mode: ModeClient})
	if !errors.Is(err, ErrMissingField) {
		t.Fatalf("expected ErrMissingField, got %v", err)
	}
	if len(h.spawned) != 0 || len(h.uris) != 0 {
		t.Fatalf("nothing should be invoked without an app id")
	}
}

func TestClientLauncherFirstExistingExecutableWins(t *testing.T) {
	h := newClientHarness("/missing/steam", "/opt/steam", "/usr/bin/steam")
	h.existing["/opt/steam"] = true
	h.existing["/usr/bin/steam"] = true
	h.query.setProcs(procquery.Info{PID: 50, Image: "game.exe", CreatedAt: h.t0.Add(time.Second), RSS: 1})

	if _, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "g", Mode: ModeClient, ClientAppID: "620"}); err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	want := [][]string{{"/opt/steam", "-applaunch", "620"}}
	if !reflect.DeepEqual(h.spawned, want) {
		t.Fatalf("expected %v, got %v", want, h.spawned)
	}
	if len(h.uris) != 0 {
		t.Fatalf("uri fallback must not run, got %v", h.uris)
	}
}

func TestClientLauncherURIFallback(t *testing.T) {
	h := newClientHarness("/missing/steam")

	if _, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "g", Mode: ModeClient, ClientAppID: "620"}); err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if !reflect.DeepEqual(h.uris, []string{"steam://rungameid/620"}) {
		t.Fatalf("unexpected uris %v", h.uris)
	}
}

func TestClientLauncherAllSurfacesFail(t *testing.T) {
	h := newClientHarness("/opt/steam")
	h.existing["/opt/steam"] = true
	h.spawnErr = errors.New("permission denied")
	h.uriErr = errors.New("no handler")

	_, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "g", Mode: ModeClient, ClientAppID: "620"})
	if !errors.Is(err, ErrLaunchFailed) || !errors.Is(err, ErrClientUnreachable) {
		t.Fatalf("expected launch failure with unreachable client, got %v", err)
	}
	if !strings.Contains(err.Error(), "permission denied") || !strings.Contains(err.Error(), "no handler") {
		t.Fatalf("expected both causes in error, got %v", err)
	}
}

func TestClientLauncherResolvesSynchronously(t *testing.T) {
	h := newClientHarness()
	h.query.setProcs(
		procquery.Info{PID: 1, Image: "steam.exe", CreatedAt: h.t0.Add(time.Second), RSS: 1 << 30},
		procquery.Info{PID: 2, Image: "Game.exe", CreatedAt: h.t0.Add(time.Second), RSS: 1 << 20},
	)

	launch, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "g", Mode: ModeClient, ClientAppID: "620"})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if launch.Watcher != nil {
		t.Fatalf("no watcher expected for a resolved handle")
	}
	if pid, ok := launch.Handle.PID(); !ok || pid != 2 {
		t.Fatalf("expected pid 2, got %d", pid)
	}
	if launch.Handle.ImageHint() != "game.exe" {
		t.Fatalf("expected detected image, got %q", launch.Handle.ImageHint())
	}
}

func TestClientLauncherConfiguredNameIsHint(t *testing.T) {
	h := newClientHarness()
	h.query.setProcs(procquery.Info{PID: 2, Image: "bootstrap.exe", CreatedAt: h.t0, RSS: 1})

	launch, err := h.launcher.Launch(context.Background(), &LaunchConfig{
		Name: "g", Mode: ModeClient, ClientAppID: "620", ClientProcessName: "RealGame.exe",
	})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if launch.Handle.ImageHint() != "realgame.exe" {
		t.Fatalf("expected configured name as hint, got %q", launch.Handle.ImageHint())
	}
}

func TestClientLauncherFallsBackToSnapshotDiff(t *testing.T) {
	h := newClientHarness()
	h.query.snapshots = []procquery.ImageSet{
		procquery.NewImageSet("explorer.exe"),
		procquery.NewImageSet("explorer.exe", "game.exe"),
	}

	launch, err := h.launcher.Launch(context.Background(), &LaunchConfig{Name: "g", Mode: ModeClient, ClientAppID: "620"})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if launch.Handle.Resolved() {
		t.Fatalf("expected unresolved handle")
	}
	if launch.Handle.ImageHint() != "game.exe" {
		t.Fatalf("expected diff image as hint, got %q", launch.Handle.ImageHint())
	}
	if launch.Watcher == nil {
		t.Fatalf("expected a watcher for the unresolved handle")
	}
}

func TestClientLauncherSkipsDiffWhenNameConfigured(t *testing.T) {
	h := newClientHarness()
	h.query.snapshots = []procquery.ImageSet{
		procquery.NewImageSet("explorer.exe"),
		procquery.NewImageSet("explorer.exe", "other.exe"),
	}

	launch, err := h.launcher.Launch(context.Background(), &LaunchConfig{
		Name: "g", Mode: ModeClient, ClientAppID: "620", ClientProcessName: "game.exe",
	})
	if err != nil {
		t.Fatalf("launch failed: %v", err)
	}
	if launch.Handle.ImageHint() != "game.exe" {
		t.Fatalf("expected configured hint to be kept, got %q", launch.Handle.ImageHint())
	}
}

func TestClientProfileFromConfig(t *testing.T) {
	profile := ClientProfileFromConfig(config.ClientConfig{
		Executables: []string{"/opt/steam/steam.sh"},
		URITemplate: "steam://run/{app_id}",
	})
	if profile.Name != "steam" || profile.LaunchFlag != "-applaunch" {
		t.Fatalf("expected defaults to be kept, got %+v", profile)
	}
	if !reflect.DeepEqual(profile.Executables, []string{"/opt/steam/steam.sh"}) {
		t.Fatalf("unexpected executables %v", profile.Executables)
	}
	if profile.URITemplate != "steam://run/{app_id}" {
		t.Fatalf("unexpected template %q", profile.URITemplate)
	}
}

func TestNewLaunchConfigInfersMode(t *testing.T) {
	cfg := NewLaunchConfig(config.GameDefinition{ID: "ac", Name: "Assetto", ClientAppID: "244210", DelaySec: 2})
	if cfg.Mode != ModeClient {
		t.Fatalf("expected client mode, got %s", cfg.Mode)
	}
	if cfg.Delay != 2*time.Second {
		t.Fatalf("expected 2s delay, got %s", cfg.Delay)
	}

	cfg = NewLaunchConfig(config.GameDefinition{ID: "rf", Executable: "/games/rf2"})
	if cfg.Mode != ModeExe {
		t.Fatalf("expected exe mode, got %s", cfg.Mode)
	}
}

func TestTimingFromConfig(t *testing.T) {
	timing, err := TimingFromConfig(config.SupervisorConfig{DetectTimeout: "8s", RetryInterval: "500ms"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if timing.DetectTimeout != 8*time.Second || timing.RetryInterval != 500*time.Millisecond {
		t.Fatalf("unexpected timing %+v", timing)
	}
	if timing.AttachTimeout != 90*time.Second {
		t.Fatalf("expected default attach timeout, got %s", timing.AttachTimeout)
	}

	if _, err := TimingFromConfig(config.SupervisorConfig{AttachTimeout: "soon"}); err == nil {
		t.Fatalf("expected parse error")
	}
	if _, err := TimingFromConfig(config.SupervisorConfig{WaitInterval: "-1s"}); err == nil {
		t.Fatalf("expected error for negative interval")
	}
}
