package supervisor

import (
	"context"
	"testing"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

func waitWatcher(t *testing.T, w *AttachWatcher) WatchResult {
	t.Helper()
	select {
	case <-w.Done():
	case <-time.After(5 * time.Second):
		t.Fatalf("watcher did not stop")
	}
	res, ok := w.Result()
	if !ok {
		t.Fatalf("result unavailable after done")
	}
	return res
}

func TestAttachWatcherAttachesLateProcess(t *testing.T) {
	t0 := time.Now()
	q := newFakeQuery()
	h := NewTrackedHandle("game", q, 0, "")
	w := NewAttachWatcher(h, newTestRank(q), t0, "", fastTiming())

	var callback WatchResult
	w.Start(context.Background(), func(res WatchResult) { callback = res })

	time.Sleep(20 * time.Millisecond)
	q.setProcs(procquery.Info{PID: 321, Image: "Game.exe", CreatedAt: time.Now(), RSS: 1})

	res := waitWatcher(t, w)
	if res.Outcome != WatchAttached || res.PID != 321 {
		t.Fatalf("unexpected result %+v", res)
	}
	if callback.Outcome != WatchAttached {
		t.Fatalf("callback not invoked before done, got %+v", callback)
	}
	if pid, ok := h.PID(); !ok || pid != 321 {
		t.Fatalf("handle not attached, pid=%d", pid)
	}
	if h.ImageHint() != "game.exe" {
		t.Fatalf("expected detected image as hint, got %q", h.ImageHint())
	}
}

func TestAttachWatcherPrefersConfiguredHint(t *testing.T) {
	t0 := time.Now()
	q := newFakeQuery()
	q.setProcs(procquery.Info{PID: 8, Image: "game-win64-shipping.exe", CreatedAt: t0, RSS: 1})
	h := NewTrackedHandle("game", q, 0, "game.exe")
	w := NewAttachWatcher(h, newTestRank(q), t0, "game.exe", fastTiming())
	w.Start(context.Background(), nil)

	res := waitWatcher(t, w)
	if res.Outcome != WatchAttached {
		t.Fatalf("unexpected result %+v", res)
	}
	if h.ImageHint() != "game.exe" {
		t.Fatalf("expected configured hint, got %q", h.ImageHint())
	}
}

func TestAttachWatcherTimesOut(t *testing.T) {
	q := newFakeQuery()
	h := NewTrackedHandle("game", q, 0, "")
	timing := fastTiming()
	timing.AttachTimeout = 60 * time.Millisecond
	w := NewAttachWatcher(h, newTestRank(q), time.Now(), "", timing)
	w.Start(context.Background(), nil)

	res := waitWatcher(t, w)
	if res.Outcome != WatchTimedOut {
		t.Fatalf("expected timeout, got %+v", res)
	}
	if res.Attempts == 0 {
		t.Fatalf("expected at least one attempt")
	}
	if h.Resolved() {
		t.Fatalf("handle must stay unresolved")
	}
	if _, exited := h.Poll(); exited {
		t.Fatalf("unresolved handle must keep reporting running")
	}
}

func TestAttachWatcherStopsWhenHandleTerminated(t *testing.T) {
	q := newFakeQuery()
	h := NewTrackedHandle("game", q, 0, "")
	timing := fastTiming()
	timing.AttachTimeout = 5 * time.Second
	w := NewAttachWatcher(h, newTestRank(q), time.Now(), "", timing)
	w.Start(context.Background(), nil)

	time.Sleep(15 * time.Millisecond)
	h.Terminate()

	if res := waitWatcher(t, w); res.Outcome != WatchExited {
		t.Fatalf("expected exited outcome, got %+v", res)
	}
}

func TestAttachWatcherCancelled(t *testing.T) {
	q := newFakeQuery()
	h := NewTrackedHandle("game", q, 0, "")
	timing := fastTiming()
	timing.AttachTimeout = 5 * time.Second
	w := NewAttachWatcher(h, newTestRank(q), time.Now(), "", timing)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx, nil)
	time.Sleep(15 * time.Millisecond)
	cancel()

	if res := waitWatcher(t, w); res.Outcome != WatchCancelled {
		t.Fatalf("expected cancelled outcome, got %+v", res)
	}
}

func TestAttachWatcherResultBeforeDone(t *testing.T) {
	h := NewTrackedHandle("game", newFakeQuery(), 0, "")
	w := NewAttachWatcher(h, newTestRank(newFakeQuery()), time.Now(), "", fastTiming())
	if _, ok := w.Result(); ok {
		t.Fatalf("result must be unavailable before start")
	}
}
