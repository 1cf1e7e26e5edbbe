package supervisor

import (
	"context"
	"time"

	"github.com/Migui-6/Launcher-VRacing/internal/logging"
	"github.com/Migui-6/Launcher-VRacing/internal/procquery"
)

// DefaultGraceWindow tolerates processes created slightly before the
// recorded launch time.
const DefaultGraceWindow = 500 * time.Millisecond

// Candidate is the process chosen by rank detection.
type Candidate struct {
	PID   int
	Image string
	RSS   uint64
}

// RankDetector picks the largest-memory executable created since launch.
type RankDetector struct {
	Query        procquery.Query
	Exclude      procquery.ImageSet
	Grace        time.Duration
	PollInterval time.Duration
	IsExecutable func(name string) bool
}

// NewRankDetector returns a detector with the default grace window and a
// one second scan interval.
func NewRankDetector(query procquery.Query, exclude procquery.ImageSet) *RankDetector {
	return &RankDetector{
		Query:        query,
		Exclude:      exclude,
		Grace:        DefaultGraceWindow,
		PollInterval: DefaultTiming().PollInterval,
		IsExecutable: IsExecutableName,
	}
}

// Detect scans the process table until a candidate shows up or timeout
// elapses. It returns immediately with false when enumeration is
// unavailable.
func (d *RankDetector) Detect(ctx context.Context, launchTime time.Time, timeout time.Duration) (Candidate, bool) {
	if !d.Query.CanRank() {
		return Candidate{}, false
	}
	deadline := time.Now().Add(timeout)
	for {
		if c, ok := d.Pick(d.Query.ListProcesses(ctx), launchTime); ok {
			logging.Component("detector").Debug("rank detection matched", "pid", c.PID, "image", c.Image, "rss", c.RSS)
			return c, true
		}
		if !pause(ctx, d.PollInterval, deadline) {
			return Candidate{}, false
		}
	}
}

// Pick applies the eligibility rules to one process listing. On equal RSS
// the later entry wins.
func (d *RankDetector) Pick(procs []procquery.Info, launchTime time.Time) (Candidate, bool) {
	isExe := d.IsExecutable
	if isExe == nil {
		isExe = IsExecutableName
	}
	var best Candidate
	found := false
	for _, p := range procs {
		if !isExe(p.Image) || d.Exclude.Has(p.Image) {
			continue
		}
		if p.CreatedAt.Add(d.Grace).Before(launchTime) {
			continue
		}
		if !found || p.RSS >= best.RSS {
			best = Candidate{PID: p.PID, Image: procquery.NormalizeImage(p.Image), RSS: p.RSS}
			found = true
		}
	}
	return best, found
}

// DiffDetector finds the image that appeared since a baseline snapshot.
type DiffDetector struct {
	Query        procquery.Query
	Exclude      procquery.ImageSet
	PollInterval time.Duration
	IsExecutable func(name string) bool
}

// NewDiffDetector returns a detector with a one second scan interval.
func NewDiffDetector(query procquery.Query, exclude procquery.ImageSet) *DiffDetector {
	return &DiffDetector{
		Query:        query,
		Exclude:      exclude,
		PollInterval: DefaultTiming().PollInterval,
		IsExecutable: IsExecutableName,
	}
}

// Detect snapshots the image names until a single new one can be chosen or
// timeout elapses. At least one snapshot is always taken.
func (d *DiffDetector) Detect(ctx context.Context, before procquery.ImageSet, timeout time.Duration) (string, bool) {
	deadline := time.Now().Add(timeout)
	for {
		if name, ok := d.Pick(before, d.Query.SnapshotImageNames(ctx)); ok {
			logging.Component("detector").Debug("snapshot diff matched", "image", name)
			return name, true
		}
		if !pause(ctx, d.PollInterval, deadline) {
			return "", false
		}
	}
}

// Pick chooses the new image between two snapshots, if unambiguous.
func (d *DiffDetector) Pick(before, after procquery.ImageSet) (string, bool) {
	isExe := d.IsExecutable
	if isExe == nil {
		isExe = IsExecutableName
	}
	return diffCandidate(before, after, d.Exclude, isExe)
}

func diffCandidate(before, after, exclude procquery.ImageSet, isExe func(string) bool) (string, bool) {
	var candidates []string
	for _, name := range after.Minus(before).Names() {
		if isExe(name) && !exclude.Has(name) {
			candidates = append(candidates, name)
		}
	}
	if len(candidates) == 1 {
		return candidates[0], true
	}
	if len(candidates) == 0 {
		return "", false
	}

	var primary []string
	for _, name := range candidates {
		if !isSecondaryHelper(name) {
			primary = append(primary, name)
		}
	}
	if len(primary) == 1 {
		return primary[0], true
	}
	return "", false
}

// pause sleeps for interval, cut short by the deadline. It returns false
// once the deadline has passed or ctx is done.
func pause(ctx context.Context, interval time.Duration, deadline time.Time) bool {
	remaining := time.Until(deadline)
	if remaining <= 0 {
		return false
	}
	if interval <= 0 || interval > remaining {
		interval = remaining
	}
	timer := time.NewTimer(interval)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
