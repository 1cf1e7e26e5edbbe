package supervisor

import (
	"context"
	"sync"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

type fakeQuery struct {
	mu sync.Mutex

	alive     map[int]bool
	procs     []procquery.Info
	snapshots []procquery.ImageSet
	noRank    bool

	killedTrees  []int
	killedImages []string
	listCalls    int
}

func newFakeQuery() *fakeQuery {
	return &fakeQuery{alive: map[int]bool{}}
}

func (f *fakeQuery) setAlive(pid int, alive bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.alive[pid] = alive
}

func (f *fakeQuery) setProcs(procs ...procquery.Info) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.procs = procs
	for _, p := range procs {
		f.alive[p.PID] = true
	}
}

func (f *fakeQuery) IsAlive(pid int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.alive[pid]
}

func (f *fakeQuery) KillTree(pid int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killedTrees = append(f.killedTrees, pid)
	f.alive[pid] = false
	return nil
}

func (f *fakeQuery) KillByImageName(name string) error {
	if name == "" {
		return nil
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.killedImages = append(f.killedImages, name)
	return nil
}

func (f *fakeQuery) ListProcesses(ctx context.Context) []procquery.Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	out := make([]procquery.Info, len(f.procs))
	copy(out, f.procs)
	return out
}

// SnapshotImageNames returns the queued snapshots in order, repeating the
// last one.
func (f *fakeQuery) SnapshotImageNames(ctx context.Context) procquery.ImageSet {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.snapshots) == 0 {
		return procquery.ImageSet{}
	}
	snap := f.snapshots[0]
	if len(f.snapshots) > 1 {
		f.snapshots = f.snapshots[1:]
	}
	return snap
}

func (f *fakeQuery) CanRank() bool {
	return !f.noRank
}

func (f *fakeQuery) trees() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]int(nil), f.killedTrees...)
}

func (f *fakeQuery) images() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.killedImages...)
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingSink) Publish(evt Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, evt)
}

func (r *recordingSink) types() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]EventType, 0, len(r.events))
	for _, evt := range r.events {
		out = append(out, evt.Type)
	}
	return out
}

func (r *recordingSink) find(typ EventType) (Event, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, evt := range r.events {
		if evt.Type == typ {
			return evt, true
		}
	}
	return Event{}, false
}

func fastTiming() Timing {
	return Timing{
		DetectTimeout:  50 * time.Millisecond,
		AttachTimeout:  300 * time.Millisecond,
		AttemptTimeout: 30 * time.Millisecond,
		RetryInterval:  5 * time.Millisecond,
		PollInterval:   5 * time.Millisecond,
		WaitInterval:   5 * time.Millisecond,
	}
}
