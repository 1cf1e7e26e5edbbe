package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/auth"
	"github.com/Migui-6/Launcher-VRacing/internal/config"
	"github.com/Migui-6/Launcher-VRacing/internal/supervisor"
)

func setupWorkspace(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	configDir := filepath.Join(root, "configs")
	t.Setenv("CONFIG_PATH", filepath.Join(configDir, "config.yaml"))
	t.Setenv("CONFIG_DIR", configDir)
	t.Setenv("DATA_DIR", filepath.Join(root, "data"))
	t.Setenv("DATABASE_PATH", "")
	t.Setenv("LAUNCHER_ADDR", "")

	games := []config.GameDefinition{
		{ID: "acc", Name: "ACC", Order: 1, Mode: "client", ClientAppID: "805550"},
		{ID: "dirt", Name: "DiRT", Order: 2, Executable: filepath.Join(root, "dirt.exe")},
		{ID: "old", Name: "Old", Order: 3, Executable: filepath.Join(root, "old.exe"), Hidden: true},
	}
	if err := config.SaveGames(configDir, games); err != nil {
		t.Fatalf("failed to save games: %v", err)
	}
	return root
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(""))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestGamesCommand(t *testing.T) {
	setupWorkspace(t)

	out, err := run(t, "games")
	if err != nil {
		t.Fatalf("games failed: %v", err)
	}
	if !strings.Contains(out, "app 805550") || !strings.Contains(out, "dirt.exe") || strings.Contains(out, "Old") {
		t.Fatalf("unexpected games output:\n%s", out)
	}

	out, err = run(t, "games", "--all")
	if err != nil {
		t.Fatalf("games --all failed: %v", err)
	}
	if !strings.Contains(out, "Old") {
		t.Fatalf("expected hidden game with --all:\n%s", out)
	}
}

func TestMigrateAndHistoryCommands(t *testing.T) {
	setupWorkspace(t)

	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	if !strings.Contains(out, "applied 001_sessions") {
		t.Fatalf("expected applied migrations:\n%s", out)
	}

	out, err = run(t, "migrate", "--prune")
	if err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if !strings.Contains(out, "up to date") || !strings.Contains(out, "pruned 0 sessions") {
		t.Fatalf("unexpected migrate output:\n%s", out)
	}

	out, err = run(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.HasPrefix(strings.TrimSpace(out), "SESSION") {
		t.Fatalf("expected history header:\n%s", out)
	}
}

func TestLaunchCommandMissingExecutable(t *testing.T) {
	setupWorkspace(t)

	out, err := run(t, "launch", "dirt")
	if err == nil {
		t.Fatalf("expected launch to fail for a missing executable")
	}
	if !strings.Contains(out, "launch_failed") {
		t.Fatalf("expected launch_failed event in output:\n%s", out)
	}

	out, err = run(t, "history")
	if err != nil {
		t.Fatalf("history failed: %v", err)
	}
	if !strings.Contains(out, "failed") {
		t.Fatalf("expected failed session in history:\n%s", out)
	}
}

func TestLaunchCommandUnknownGame(t *testing.T) {
	setupWorkspace(t)
	if _, err := run(t, "launch", "nope"); err == nil || !strings.Contains(err.Error(), "game not found") {
		t.Fatalf("expected game not found, got %v", err)
	}
}

func TestKillImageRefusesDenylist(t *testing.T) {
	setupWorkspace(t)
	if _, err := run(t, "kill-image", "steam.exe"); err == nil {
		t.Fatalf("expected denylisted image to be refused")
	}
}

func TestHashPinCommand(t *testing.T) {
	out, err := run(t, "hash-pin", "--pin", "9876", "--cost", "4")
	if err != nil {
		t.Fatalf("hash-pin failed: %v", err)
	}
	if err := auth.VerifyPIN("9876", strings.TrimSpace(out)); err != nil {
		t.Fatalf("printed hash does not verify: %v", err)
	}

	if _, err := run(t, "hash-pin", "--pin", "12"); err == nil {
		t.Fatalf("expected short pin to be rejected")
	}
}

func TestFormatEvent(t *testing.T) {
	code := 3
	line := formatEvent(supervisor.Event{
		Type:     supervisor.EventExited,
		GameID:   "dirt",
		PID:      42,
		Image:    "dirt.exe",
		ExitCode: &code,
		Time:     time.Now(),
	})
	for _, want := range []string{"exited", "dirt", "pid=42", "image=dirt.exe", "code=3"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in %q", want, line)
		}
	}
}
